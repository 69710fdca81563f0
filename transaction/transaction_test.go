package transaction_test

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/nlanson/btc-tx/transaction"
	"github.com/stretchr/testify/require"
)

const (
	txid1     = "a8064a6143c6027dddafb356236a475dab3f56fa3dad1dc0c873e54e6527f167"
	txid2     = "d8f1b152ab6ebfc4a3a57e8f0a41b5b2a14d3219d1c0e8ddb2ec7d2c0a85e1c6"
	p2pkhHex  = "76a914829a6ae09c5e5d5ba1ab3e7d9b0b27d45dc3b18988ac"
	p2wpkhHex = "001491c6c31a62b37a16447ccf44224eb16b78ca0299"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func newTestTx(t *testing.T) *transaction.Transaction {
	t.Helper()
	tx := transaction.NewTx(transaction.DefaultVersion)

	in1, err := transaction.NewTxInputFromString(txid1, 1)
	require.NoError(t, err)
	in2, err := transaction.NewTxInputFromString(txid2, 0)
	require.NoError(t, err)
	in2.Sequence = 0xfffffffd
	tx.AddInput(in1)
	tx.AddInput(in2)

	tx.AddOutput(transaction.NewTxOutput(80000, mustHex(t, p2pkhHex)))
	tx.AddOutput(transaction.NewTxOutput(12345, mustHex(t, p2wpkhHex)))
	tx.Locktime = 650000
	return tx
}

func toMsgTx(t *testing.T, raw []byte) *wire.MsgTx {
	t.Helper()
	msg := wire.NewMsgTx(wire.TxVersion)
	require.NoError(t, msg.Deserialize(bytes.NewReader(raw)))
	return msg
}

func TestAddInput(t *testing.T) {
	tx := transaction.NewTx(transaction.DefaultVersion)
	in, err := transaction.NewTxInputFromString(txid1, 1)
	require.NoError(t, err)
	tx.AddInput(in)

	input := tx.Inputs[0]
	require.Equal(t, txid1, input.Hash.String())
	// wire order is the reverse of the display order
	require.Equal(t, byte(0x67), input.Hash[0])
	require.Equal(t, uint32(1), input.Index)
	require.Equal(t, uint32(transaction.DefaultSequence), input.Sequence)
}

func TestParseTxid(t *testing.T) {
	_, err := transaction.ParseTxid("abcd")
	require.ErrorIs(t, err, transaction.ErrInvalidTxid)

	_, err = transaction.ParseTxid(txid1[:62] + "zz")
	require.ErrorIs(t, err, transaction.ErrInvalidTxid)
}

func TestSerializeLegacy(t *testing.T) {
	tx := newTestTx(t)
	tx.Inputs[0].Script = mustHex(t, "0102")

	raw, err := tx.Serialize()
	require.NoError(t, err)
	require.False(t, tx.HasWitness())
	require.Nil(t, tx.Witnesses())

	// version, no marker, two inputs
	require.Equal(t, "0100000002", hex.EncodeToString(raw[:5]))
	require.Equal(t, len(raw), tx.SerializeSize())

	msg := toMsgTx(t, raw)
	require.False(t, msg.HasWitness())
	require.Len(t, msg.TxIn, 2)
	require.Equal(t, txid1, msg.TxIn[0].PreviousOutPoint.Hash.String())
	require.Equal(t, uint32(0xfffffffd), msg.TxIn[1].Sequence)
	require.Equal(t, int64(80000), msg.TxOut[0].Value)
	require.Equal(t, uint32(650000), msg.LockTime)

	var buf bytes.Buffer
	require.NoError(t, msg.Serialize(&buf))
	require.Equal(t, buf.Bytes(), raw)

	hash, err := tx.TxHash()
	require.NoError(t, err)
	require.Equal(t, msg.TxHash(), hash)

	wHash, err := tx.WitnessHash()
	require.NoError(t, err)
	require.Equal(t, hash, wHash)
}

func TestSerializeWitness(t *testing.T) {
	tx := newTestTx(t)
	tx.Inputs[0].Script = mustHex(t, "0102")
	tx.Inputs[1].Witness = transaction.TxWitness{mustHex(t, "3044"), mustHex(t, "02aa")}

	raw, err := tx.Serialize()
	require.NoError(t, err)
	require.True(t, tx.HasWitness())
	require.Equal(t, "01000000"+"0001", hex.EncodeToString(raw[:6]))
	require.Equal(t, len(raw), tx.SerializeSize())

	witnesses := tx.Witnesses()
	require.Len(t, witnesses, len(tx.Inputs))
	require.Empty(t, witnesses[0])

	msg := toMsgTx(t, raw)
	require.True(t, msg.HasWitness())
	require.Empty(t, msg.TxIn[0].Witness)
	require.Len(t, msg.TxIn[1].Witness, 2)

	var buf bytes.Buffer
	require.NoError(t, msg.Serialize(&buf))
	require.Equal(t, buf.Bytes(), raw)

	hash, err := tx.TxHash()
	require.NoError(t, err)
	require.Equal(t, msg.TxHash(), hash)

	wHash, err := tx.WitnessHash()
	require.NoError(t, err)
	require.Equal(t, msg.WitnessHash(), wHash)

	require.Equal(t, msg.SerializeSizeStripped()*3+msg.SerializeSize(), tx.Weight())
	require.Equal(t, (tx.Weight()+3)/4, tx.VirtualSize())

	noWitness, err := tx.SerializeNoWitness()
	require.NoError(t, err)
	require.Equal(t, msg.SerializeSizeStripped(), len(noWitness))
}

func TestToHex(t *testing.T) {
	tx := transaction.NewTx(2)
	hexStr, err := tx.ToHex()
	require.NoError(t, err)
	require.Equal(t, "02000000"+"00"+"00"+"00000000", hexStr)
}
