package txbuilder_test

import (
	"bytes"
	"context"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/nlanson/btc-tx/keys"
	"github.com/nlanson/btc-tx/network"
	"github.com/nlanson/btc-tx/resolver"
	"github.com/nlanson/btc-tx/script"
	"github.com/nlanson/btc-tx/transaction"
	"github.com/nlanson/btc-tx/txbuilder"
	"github.com/stretchr/testify/require"
)

const testAddress = "tb1qj8rvxxnzkdapv3rueazzyn434duv5q5ep3ze5e"

// fixture funds prevouts for both the builder and the script engine.
type fixture struct {
	t        *testing.T
	static   *resolver.Static
	prevouts *txscript.MultiPrevOutFetcher
}

func newFixture(t *testing.T) *fixture {
	return &fixture{
		t:        t,
		static:   resolver.NewStatic(),
		prevouts: txscript.NewMultiPrevOutFetcher(nil),
	}
}

func (f *fixture) builder(opts ...txbuilder.Option) *txbuilder.Builder {
	opts = append([]txbuilder.Option{txbuilder.WithNetwork(&network.Testnet)}, opts...)
	return txbuilder.New(f.static, opts...)
}

// fund registers output vout of txid and returns txid.
func (f *fixture) fund(txid string, vout uint32, lockingScript []byte, value uint64) string {
	hash, err := chainhash.NewHashFromStr(txid)
	require.NoError(f.t, err)
	f.static.Add(*hash, vout, lockingScript, value)
	f.prevouts.AddPrevOut(*wire.NewOutPoint(hash, vout), wire.NewTxOut(int64(value), lockingScript))
	return txid
}

// verify runs every input of tx through the consensus script engine.
func (f *fixture) verify(tx *transaction.Transaction) *wire.MsgTx {
	f.t.Helper()
	raw, err := tx.Serialize()
	require.NoError(f.t, err)

	msg := wire.NewMsgTx(wire.TxVersion)
	require.NoError(f.t, msg.Deserialize(bytes.NewReader(raw)))

	sigHashes := txscript.NewTxSigHashes(msg, f.prevouts)
	for i, in := range msg.TxIn {
		prevout := f.prevouts.FetchPrevOutput(in.PreviousOutPoint)
		require.NotNil(f.t, prevout, "input %d", i)
		vm, err := txscript.NewEngine(
			prevout.PkScript, msg, i, txscript.StandardVerifyFlags,
			nil, sigHashes, prevout.Value, f.prevouts,
		)
		require.NoError(f.t, err, "input %d", i)
		require.NoError(f.t, vm.Execute(), "input %d", i)
	}
	return msg
}

func fakeTxid(b byte) string {
	return strings.Repeat(hex.EncodeToString([]byte{b}), 32)
}

func newKey(t *testing.T, label string) *keys.PrivateKey {
	t.Helper()
	key, err := keys.NewPrivateKey(chainhash.HashB([]byte(label)))
	require.NoError(t, err)
	return key
}

func p2pkhScript(t *testing.T, key *keys.PrivateKey) []byte {
	t.Helper()
	s, err := script.PubKeyHashScript(script.Hash160(key.PubKeyBytes()))
	require.NoError(t, err)
	return s
}

func p2wpkhScript(t *testing.T, key *keys.PrivateKey) []byte {
	t.Helper()
	s, err := script.WitnessScript(0, script.Hash160(key.PubKeyBytes()))
	require.NoError(t, err)
	return s
}

func p2shScript(t *testing.T, redeemScript []byte) []byte {
	t.Helper()
	s, err := script.ScriptHashScript(script.Hash160(redeemScript))
	require.NoError(t, err)
	return s
}

func p2wshScript(t *testing.T, witnessScript []byte) []byte {
	t.Helper()
	s, err := script.WitnessScript(0, script.WitnessScriptHash(witnessScript))
	require.NoError(t, err)
	return s
}

func multisig(t *testing.T, m int, ks ...*keys.PrivateKey) []byte {
	t.Helper()
	pubkeys := make([][]byte, 0, len(ks))
	for _, k := range ks {
		pubkeys = append(pubkeys, k.PubKeyBytes())
	}
	s, err := script.MultisigLocking(m, pubkeys)
	require.NoError(t, err)
	return s
}

func withKeys(ks ...*keys.PrivateKey) txbuilder.SigningData {
	return txbuilder.SigningData{Keys: ks}
}

var ctx = context.Background()
