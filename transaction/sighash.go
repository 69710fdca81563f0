package transaction

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/nlanson/btc-tx/internal/bufferutil"
)

var (
	// ErrInvalidSigHashType is returned for hash types other than ALL, NONE
	// and SINGLE, with or without ANYONECANPAY.
	ErrInvalidSigHashType = errors.New("invalid sighash type")
	// ErrInputIndexOutOfRange is returned when the signed input does not
	// exist.
	ErrInputIndexOutOfRange = errors.New("input index out of range")
	// ErrOutputIndexMissing is returned when signing SINGLE an input that has
	// no output at the same index.
	ErrOutputIndexMissing = errors.New("no output at the index of the signed input")
)

// SigHashType selects the parts of a transaction committed by a signature.
type SigHashType uint32

const (
	SigHashAll          SigHashType = 0x01
	SigHashNone         SigHashType = 0x02
	SigHashSingle       SigHashType = 0x03
	SigHashAnyoneCanPay SigHashType = 0x80

	SigHashAllAnyoneCanPay    = SigHashAll | SigHashAnyoneCanPay
	SigHashNoneAnyoneCanPay   = SigHashNone | SigHashAnyoneCanPay
	SigHashSingleAnyoneCanPay = SigHashSingle | SigHashAnyoneCanPay
)

var sigHashNames = map[SigHashType]string{
	SigHashAll:                "ALL",
	SigHashNone:               "NONE",
	SigHashSingle:             "SINGLE",
	SigHashAllAnyoneCanPay:    "ALL|ANYONECANPAY",
	SigHashNoneAnyoneCanPay:   "NONE|ANYONECANPAY",
	SigHashSingleAnyoneCanPay: "SINGLE|ANYONECANPAY",
}

// ParseSigHashType parses names like "ALL" or "single|anyonecanpay". The
// underscore form "SINGLE_ANYONECANPAY" is accepted too.
func ParseSigHashType(name string) (SigHashType, error) {
	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "_", "|"))
	for t, n := range sigHashNames {
		if n == normalized {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidSigHashType, name)
}

func (t SigHashType) String() string {
	if n, ok := sigHashNames[t]; ok {
		return n
	}
	return fmt.Sprintf("SigHashType(0x%02x)", uint32(t))
}

// IsValid reports whether t is one of the six standard hash types.
func (t SigHashType) IsValid() bool {
	_, ok := sigHashNames[t]
	return ok
}

// Base strips the ANYONECANPAY bit.
func (t SigHashType) Base() SigHashType {
	return t &^ SigHashAnyoneCanPay
}

// AnyoneCanPay reports whether only the signed input is committed.
func (t SigHashType) AnyoneCanPay() bool {
	return t&SigHashAnyoneCanPay != 0
}

// CommitsAllInputs reports whether a signature of type t is invalidated by
// adding an input.
func (t SigHashType) CommitsAllInputs() bool {
	return !t.AnyoneCanPay()
}

// CommitsAllOutputs reports whether a signature of type t is invalidated
// by adding an output.
func (t SigHashType) CommitsAllOutputs() bool {
	return t.Base() == SigHashAll
}

// Append returns a copy of signature with the hash type byte appended.
func (t SigHashType) Append(signature []byte) []byte {
	out := make([]byte, 0, len(signature)+1)
	out = append(out, signature...)
	return append(out, byte(t))
}

func (tx *Transaction) checkSigHashArgs(inIndex int, hashType SigHashType) error {
	if !hashType.IsValid() {
		return fmt.Errorf("%w: 0x%02x", ErrInvalidSigHashType, uint32(hashType))
	}
	if inIndex < 0 || inIndex >= len(tx.Inputs) {
		return fmt.Errorf("%w: %d", ErrInputIndexOutOfRange, inIndex)
	}
	if hashType.Base() == SigHashSingle && inIndex >= len(tx.Outputs) {
		return fmt.Errorf("%w: %d", ErrOutputIndexMissing, inIndex)
	}
	return nil
}

// LegacyPreimage returns the bytes double hashed by a pre-segwit signature
// of input inIndex. prevOutScript is the script placed in the signed
// input's scriptSig: the prevout locking script, or the redeem script for
// p2sh. Every other scriptSig is blank.
//
// NONE and SINGLE zero the sequence of the other inputs. SINGLE commits to
// the output at inIndex, preceded by blank outputs (value -1, empty
// script). ANYONECANPAY keeps the signed input only. The transaction
// itself is not modified.
func (tx *Transaction) LegacyPreimage(
	inIndex int,
	prevOutScript []byte,
	hashType SigHashType,
) ([]byte, error) {
	if err := tx.checkSigHashArgs(inIndex, hashType); err != nil {
		return nil, err
	}
	base := hashType.Base()
	s := bufferutil.NewSerializer(nil)

	if err := s.WriteInt32(tx.Version); err != nil {
		return nil, err
	}

	if hashType.AnyoneCanPay() {
		if err := s.WriteVarInt(1); err != nil {
			return nil, err
		}
		in := tx.Inputs[inIndex]
		if err := writeInput(s, in, prevOutScript, in.Sequence); err != nil {
			return nil, err
		}
	} else {
		if err := s.WriteVarInt(uint64(len(tx.Inputs))); err != nil {
			return nil, err
		}
		for i, in := range tx.Inputs {
			var script []byte
			sequence := in.Sequence
			switch {
			case i == inIndex:
				script = prevOutScript
			case base == SigHashNone, base == SigHashSingle:
				sequence = 0
			}
			if err := writeInput(s, in, script, sequence); err != nil {
				return nil, err
			}
		}
	}

	switch base {
	case SigHashNone:
		if err := s.WriteVarInt(0); err != nil {
			return nil, err
		}
	case SigHashSingle:
		if err := s.WriteVarInt(uint64(inIndex) + 1); err != nil {
			return nil, err
		}
		blank := &TxOutput{Value: math.MaxUint64}
		for i := 0; i < inIndex; i++ {
			if err := writeOutput(s, blank); err != nil {
				return nil, err
			}
		}
		if err := writeOutput(s, tx.Outputs[inIndex]); err != nil {
			return nil, err
		}
	default:
		if err := s.WriteVarInt(uint64(len(tx.Outputs))); err != nil {
			return nil, err
		}
		for _, out := range tx.Outputs {
			if err := writeOutput(s, out); err != nil {
				return nil, err
			}
		}
	}

	if err := s.WriteUint32(tx.Locktime); err != nil {
		return nil, err
	}
	if err := s.WriteUint32(uint32(hashType)); err != nil {
		return nil, err
	}
	return s.Bytes(), nil
}

// HashForSignature returns the double sha256 of LegacyPreimage.
func (tx *Transaction) HashForSignature(
	inIndex int,
	prevOutScript []byte,
	hashType SigHashType,
) (chainhash.Hash, error) {
	preimage, err := tx.LegacyPreimage(inIndex, prevOutScript, hashType)
	if err != nil {
		return chainhash.Hash{}, err
	}
	return chainhash.DoubleHashH(preimage), nil
}

// WitnessV0Preimage returns the BIP 143 message of input inIndex spending
// value satoshis. scriptCode is written with its var int length: the p2pkh
// shaped script for p2wpkh, the witness script for p2wsh.
func (tx *Transaction) WitnessV0Preimage(
	inIndex int,
	scriptCode []byte,
	value uint64,
	hashType SigHashType,
) ([]byte, error) {
	if err := tx.checkSigHashArgs(inIndex, hashType); err != nil {
		return nil, err
	}

	var zeroHash chainhash.Hash
	hashPrevouts, hashSequence, hashOutputs := zeroHash, zeroHash, zeroHash
	var err error

	if !hashType.AnyoneCanPay() {
		if hashPrevouts, err = tx.hashPrevouts(); err != nil {
			return nil, err
		}
		if hashType.Base() == SigHashAll {
			if hashSequence, err = tx.hashSequence(); err != nil {
				return nil, err
			}
		}
	}

	switch hashType.Base() {
	case SigHashAll:
		hashOutputs, err = hashOutputsOf(tx.Outputs)
	case SigHashSingle:
		hashOutputs, err = hashOutputsOf(tx.Outputs[inIndex : inIndex+1])
	}
	if err != nil {
		return nil, err
	}

	in := tx.Inputs[inIndex]
	s := bufferutil.NewSerializer(nil)
	if err := s.WriteInt32(tx.Version); err != nil {
		return nil, err
	}
	if err := s.WriteSlice(hashPrevouts[:]); err != nil {
		return nil, err
	}
	if err := s.WriteSlice(hashSequence[:]); err != nil {
		return nil, err
	}
	if err := writeOutPoint(s, in); err != nil {
		return nil, err
	}
	if err := s.WriteVarSlice(scriptCode); err != nil {
		return nil, err
	}
	if err := s.WriteUint64(value); err != nil {
		return nil, err
	}
	if err := s.WriteUint32(in.Sequence); err != nil {
		return nil, err
	}
	if err := s.WriteSlice(hashOutputs[:]); err != nil {
		return nil, err
	}
	if err := s.WriteUint32(tx.Locktime); err != nil {
		return nil, err
	}
	if err := s.WriteUint32(uint32(hashType)); err != nil {
		return nil, err
	}
	return s.Bytes(), nil
}

// HashForWitnessV0 returns the double sha256 of WitnessV0Preimage.
func (tx *Transaction) HashForWitnessV0(
	inIndex int,
	scriptCode []byte,
	value uint64,
	hashType SigHashType,
) (chainhash.Hash, error) {
	preimage, err := tx.WitnessV0Preimage(inIndex, scriptCode, value, hashType)
	if err != nil {
		return chainhash.Hash{}, err
	}
	return chainhash.DoubleHashH(preimage), nil
}

func (tx *Transaction) hashPrevouts() (chainhash.Hash, error) {
	s := bufferutil.NewSerializer(nil)
	for _, in := range tx.Inputs {
		if err := writeOutPoint(s, in); err != nil {
			return chainhash.Hash{}, err
		}
	}
	return chainhash.DoubleHashH(s.Bytes()), nil
}

func (tx *Transaction) hashSequence() (chainhash.Hash, error) {
	s := bufferutil.NewSerializer(nil)
	for _, in := range tx.Inputs {
		if err := s.WriteUint32(in.Sequence); err != nil {
			return chainhash.Hash{}, err
		}
	}
	return chainhash.DoubleHashH(s.Bytes()), nil
}

func hashOutputsOf(outputs []*TxOutput) (chainhash.Hash, error) {
	s := bufferutil.NewSerializer(nil)
	for _, out := range outputs {
		if err := writeOutput(s, out); err != nil {
			return chainhash.Hash{}, err
		}
	}
	return chainhash.DoubleHashH(s.Bytes()), nil
}
