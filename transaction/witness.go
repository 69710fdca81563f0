package transaction

import "github.com/nlanson/btc-tx/internal/bufferutil"

// TxWitness is the stack of items satisfying the witness program of an
// input. An empty witness serializes as a single zero byte.
type TxWitness [][]byte

// EmptyWitness returns the witness of an input spending a non segwit
// output.
func EmptyWitness() TxWitness {
	return TxWitness{}
}

// P2WPKHWitness returns [signature|hashType, pubkey].
func P2WPKHWitness(signature, pubkey []byte, hashType SigHashType) TxWitness {
	return TxWitness{hashType.Append(signature), pubkey}
}

// P2WSHWitness returns ["", signature|hashType..., witnessScript]. The
// leading empty item is consumed by OP_CHECKMULTISIG.
func P2WSHWitness(
	signatures [][]byte,
	witnessScript []byte,
	hashType SigHashType,
) TxWitness {
	w := make(TxWitness, 0, len(signatures)+2)
	w = append(w, []byte{})
	for _, sig := range signatures {
		w = append(w, hashType.Append(sig))
	}
	return append(w, witnessScript)
}

// SerializeSize returns the number of bytes of the serialized witness.
func (w TxWitness) SerializeSize() int {
	size := bufferutil.VarIntSerializeSize(uint64(len(w)))
	for _, item := range w {
		size += bufferutil.VarSliceSerializeSize(item)
	}
	return size
}

// Serialize returns the item count followed by each length prefixed item.
func (w TxWitness) Serialize() ([]byte, error) {
	s := bufferutil.NewSerializer(nil)
	if err := w.serialize(s); err != nil {
		return nil, err
	}
	return s.Bytes(), nil
}

func (w TxWitness) serialize(s *bufferutil.Serializer) error {
	return s.WriteVector(w)
}
