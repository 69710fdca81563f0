package transaction

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/nlanson/btc-tx/internal/bufferutil"
)

const (
	// DefaultVersion is the version of transactions created by this package.
	DefaultVersion = 1
	// DefaultSequence is the sequence of a final input.
	DefaultSequence = 0xffffffff
	// WitnessScaleFactor is the weight of a non-witness byte.
	WitnessScaleFactor = 4

	witnessMarker = 0x00
	witnessFlag   = 0x01
)

// ErrInvalidTxid is returned when a txid is not 64 hex characters.
var ErrInvalidTxid = errors.New("txid must be 32 bytes of hex")

// TxInput defines a bitcoin transaction input.
type TxInput struct {
	// Hash is the txid of the spent output in wire byte order.
	Hash     chainhash.Hash
	Index    uint32
	Script   []byte
	Sequence uint32
	Witness  TxWitness
}

// NewTxInput returns an input spending the output index of the
// transaction hash with the default sequence.
func NewTxInput(hash *chainhash.Hash, index uint32) *TxInput {
	return &TxInput{
		Hash:     *hash,
		Index:    index,
		Sequence: DefaultSequence,
	}
}

// NewTxInputFromString parses txid in its display (reversed) hex form.
func NewTxInputFromString(txid string, index uint32) (*TxInput, error) {
	hash, err := ParseTxid(txid)
	if err != nil {
		return nil, err
	}
	return NewTxInput(hash, index), nil
}

// ParseTxid parses a txid in display hex form into wire byte order.
func ParseTxid(txid string) (*chainhash.Hash, error) {
	if len(txid) != chainhash.MaxHashStringSize {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTxid, txid)
	}
	hash, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTxid, err)
	}
	return hash, nil
}

// TxOutput defines a bitcoin transaction output.
type TxOutput struct {
	Value  uint64
	Script []byte
}

// NewTxOutput returns an output paying value satoshis to script.
func NewTxOutput(value uint64, script []byte) *TxOutput {
	return &TxOutput{Value: value, Script: script}
}

// Transaction defines a bitcoin transaction message.
type Transaction struct {
	Version  int32
	Locktime uint32
	Inputs   []*TxInput
	Outputs  []*TxOutput
}

// NewTx returns an empty transaction of the given version.
func NewTx(version int32) *Transaction {
	return &Transaction{
		Version: version,
		Inputs:  []*TxInput{},
		Outputs: []*TxOutput{},
	}
}

// AddInput adds a transaction input to the message.
func (tx *Transaction) AddInput(ti *TxInput) {
	tx.Inputs = append(tx.Inputs, ti)
}

// AddOutput adds a transaction output to the message.
func (tx *Transaction) AddOutput(to *TxOutput) {
	tx.Outputs = append(tx.Outputs, to)
}

// HasWitness reports whether any input carries witness data, in which case
// the transaction serializes with the segwit marker and flag.
func (tx *Transaction) HasWitness() bool {
	for _, in := range tx.Inputs {
		if len(in.Witness) > 0 {
			return true
		}
	}
	return false
}

// Witnesses returns one witness per input, empty ones included, or nil
// when no input carries witness data.
func (tx *Transaction) Witnesses() []TxWitness {
	if !tx.HasWitness() {
		return nil
	}
	witnesses := make([]TxWitness, 0, len(tx.Inputs))
	for _, in := range tx.Inputs {
		w := in.Witness
		if w == nil {
			w = EmptyWitness()
		}
		witnesses = append(witnesses, w)
	}
	return witnesses
}

// Serialize returns the wire encoding of the transaction, with the
// witness section when any input carries one.
func (tx *Transaction) Serialize() ([]byte, error) {
	return tx.serialize(tx.HasWitness())
}

// SerializeNoWitness returns the legacy wire encoding, the one hashed
// into the txid.
func (tx *Transaction) SerializeNoWitness() ([]byte, error) {
	return tx.serialize(false)
}

// ToHex returns the hex of the serialized transaction.
func (tx *Transaction) ToHex() (string, error) {
	buf, err := tx.Serialize()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (tx *Transaction) serialize(withWitness bool) ([]byte, error) {
	s := bufferutil.NewSerializer(nil)

	if err := s.WriteInt32(tx.Version); err != nil {
		return nil, err
	}
	if withWitness {
		if err := s.WriteSlice([]byte{witnessMarker, witnessFlag}); err != nil {
			return nil, err
		}
	}

	if err := s.WriteVarInt(uint64(len(tx.Inputs))); err != nil {
		return nil, err
	}
	for _, in := range tx.Inputs {
		if err := writeInput(s, in, in.Script, in.Sequence); err != nil {
			return nil, err
		}
	}

	if err := s.WriteVarInt(uint64(len(tx.Outputs))); err != nil {
		return nil, err
	}
	for _, out := range tx.Outputs {
		if err := writeOutput(s, out); err != nil {
			return nil, err
		}
	}

	if withWitness {
		for _, in := range tx.Inputs {
			if err := in.Witness.serialize(s); err != nil {
				return nil, err
			}
		}
	}

	if err := s.WriteUint32(tx.Locktime); err != nil {
		return nil, err
	}
	return s.Bytes(), nil
}

func writeOutPoint(s *bufferutil.Serializer, in *TxInput) error {
	if err := s.WriteSlice(in.Hash[:]); err != nil {
		return err
	}
	return s.WriteUint32(in.Index)
}

func writeInput(
	s *bufferutil.Serializer,
	in *TxInput,
	script []byte,
	sequence uint32,
) error {
	if err := writeOutPoint(s, in); err != nil {
		return err
	}
	if err := s.WriteVarSlice(script); err != nil {
		return err
	}
	return s.WriteUint32(sequence)
}

func writeOutput(s *bufferutil.Serializer, out *TxOutput) error {
	if err := s.WriteUint64(out.Value); err != nil {
		return err
	}
	return s.WriteVarSlice(out.Script)
}

// SerializeSize returns the number of bytes of the serialized transaction,
// with the witness section when any input carries one.
func (tx *Transaction) SerializeSize() int {
	size := tx.baseSize()
	if tx.HasWitness() {
		size += 2
		for _, in := range tx.Inputs {
			size += in.Witness.SerializeSize()
		}
	}
	return size
}

func (tx *Transaction) baseSize() int {
	// version + locktime
	size := 8 +
		bufferutil.VarIntSerializeSize(uint64(len(tx.Inputs))) +
		bufferutil.VarIntSerializeSize(uint64(len(tx.Outputs)))
	for _, in := range tx.Inputs {
		size += 32 + 4 + bufferutil.VarSliceSerializeSize(in.Script) + 4
	}
	for _, out := range tx.Outputs {
		size += 8 + bufferutil.VarSliceSerializeSize(out.Script)
	}
	return size
}

// Weight returns the BIP 141 weight: three times the legacy size plus the
// full size.
func (tx *Transaction) Weight() int {
	return tx.baseSize()*(WitnessScaleFactor-1) + tx.SerializeSize()
}

// VirtualSize returns the weight divided by four, rounded up.
func (tx *Transaction) VirtualSize() int {
	return (tx.Weight() + WitnessScaleFactor - 1) / WitnessScaleFactor
}

// TxHash generates the Hash for the transaction.
func (tx *Transaction) TxHash() (chainhash.Hash, error) {
	buf, err := tx.SerializeNoWitness()
	if err != nil {
		return chainhash.Hash{}, err
	}
	return chainhash.DoubleHashH(buf), nil
}

// WitnessHash generates the hash of the transaction serialized according to
// the new witness serialization defined in BIP0141 and BIP0144. If a
// transaction has no witness data, then the witness hash is the same as its
// txid.
func (tx *Transaction) WitnessHash() (chainhash.Hash, error) {
	buf, err := tx.Serialize()
	if err != nil {
		return chainhash.Hash{}, err
	}
	return chainhash.DoubleHashH(buf), nil
}
