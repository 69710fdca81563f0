package bufferutil

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/wire"
	"github.com/nlanson/btc-tx/internal/safe"
)

// Serializer implements methods that help to serialize a Bitcoin transaction.
type Serializer struct {
	buffer *bytes.Buffer
}

// NewSerializer returns an instance of Serializer appending to buf. A nil
// buf starts from an empty buffer.
func NewSerializer(buf *bytes.Buffer) *Serializer {
	if buf == nil {
		buf = bytes.NewBuffer(nil)
	}
	return &Serializer{buf}
}

// Bytes returns serializer's buffer
func (s *Serializer) Bytes() []byte {
	return s.buffer.Bytes()
}

// WriteUint8 writes the given uint8 value to serializer's buffer.
func (s *Serializer) WriteUint8(val uint8) error {
	return s.buffer.WriteByte(val)
}

// WriteUint32 writes the given uint32 value to serializer's buffer in
// little-endian order.
func (s *Serializer) WriteUint32(val uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], val)
	_, err := s.buffer.Write(b[:])
	return err
}

// WriteInt32 writes the two's complement of val in little-endian order.
func (s *Serializer) WriteInt32(val int32) error {
	return s.WriteUint32(uint32(val))
}

// WriteUint64 writes the given uint64 value to serializer's buffer in
// little-endian order.
func (s *Serializer) WriteUint64(val uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], val)
	_, err := s.buffer.Write(b[:])
	return err
}

// WriteVarInt serializes the given value to serializer's buffer
// using a variable number of bytes depending on its value.
func (s *Serializer) WriteVarInt(val uint64) error {
	return wire.WriteVarInt(s.buffer, 0, val)
}

// WriteSlice appends the given byte array to the serializer's buffer
func (s *Serializer) WriteSlice(val []byte) error {
	_, err := s.buffer.Write(val)
	return err
}

// WriteVarSlice appends the length of the given byte array as var int
// and the byte array itself to the serializer's buffer
func (s *Serializer) WriteVarSlice(val []byte) error {
	if err := s.writeLength(len(val)); err != nil {
		return err
	}
	return s.WriteSlice(val)
}

// WriteVector appends an array of array bytes to the serializer's buffer
func (s *Serializer) WriteVector(v [][]byte) error {
	if err := s.writeLength(len(v)); err != nil {
		return err
	}
	for _, val := range v {
		if err := s.WriteVarSlice(val); err != nil {
			return err
		}
	}
	return nil
}

func (s *Serializer) writeLength(n int) error {
	length, err := safe.Uint64(n)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLengthOverflow, err)
	}
	return s.WriteVarInt(length)
}

// VarIntSerializeSize returns the number of bytes needed to encode val as
// a var int.
func VarIntSerializeSize(val uint64) int {
	return wire.VarIntSerializeSize(val)
}

// VarSliceSerializeSize returns the encoded size of a length-prefixed slice.
func VarSliceSerializeSize(val []byte) int {
	return VarIntSerializeSize(uint64(len(val))) + len(val)
}
