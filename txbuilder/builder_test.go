package txbuilder_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/golang/mock/gomock"
	"github.com/nlanson/btc-tx/keys"
	"github.com/nlanson/btc-tx/network"
	"github.com/nlanson/btc-tx/resolver"
	"github.com/nlanson/btc-tx/transaction"
	"github.com/nlanson/btc-tx/txbuilder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCommittedTransaction(t *testing.T) {
	tests := []struct {
		hashType      transaction.SigHashType
		inputsClosed  bool
		outputsClosed bool
	}{
		{transaction.SigHashAll, true, true},
		{transaction.SigHashNone, true, false},
		{transaction.SigHashSingle, true, false},
		{transaction.SigHashAllAnyoneCanPay, false, true},
		{transaction.SigHashNoneAnyoneCanPay, false, false},
		{transaction.SigHashSingleAnyoneCanPay, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.hashType.String(), func(t *testing.T) {
			key := newKey(t, "commit")
			f := newFixture(t)
			f.fund(fakeTxid(0xa0), 0, p2wpkhScript(t, key), 10000)

			b := f.builder()
			require.NoError(t, b.AddInput(fakeTxid(0xa0), 0))
			require.NoError(t, b.AddOutput(testAddress, 5000))
			require.NoError(t, b.SignInput(ctx, 0, withKeys(key), tt.hashType))

			err := b.AddInput(fakeTxid(0xa1), 0)
			if tt.inputsClosed {
				require.ErrorIs(t, err, txbuilder.ErrTxCommitted)
				assert.Equal(t, 1, b.NumInputs())
			} else {
				require.NoError(t, err)
				assert.Equal(t, 2, b.NumInputs())
			}

			err = b.AddOutput(testAddress, 1000)
			if tt.outputsClosed {
				require.ErrorIs(t, err, txbuilder.ErrTxCommitted)
				require.ErrorIs(
					t, b.AddOutputScript([]byte{0x6a}, 0), txbuilder.ErrTxCommitted,
				)
				assert.Equal(t, 1, b.NumOutputs())
			} else {
				require.NoError(t, err)
				assert.Equal(t, 2, b.NumOutputs())
			}
		})
	}
}

func TestAddBeforeSigning(t *testing.T) {
	b := txbuilder.New(resolver.NewStatic(), txbuilder.WithNetwork(&network.Testnet))
	require.NoError(t, b.AddOutput(testAddress, 1))
	require.NoError(t, b.AddInput(fakeTxid(0x01), 0))
	require.NoError(t, b.AddOutput("2NEKRqUqoDtsELzpBa5wuWEiJeVbio5cSa2", 2))
	require.NoError(t, b.AddInput(fakeTxid(0x01), 1))
	assert.Equal(t, 2, b.NumInputs())
	assert.Equal(t, 2, b.NumOutputs())
}

func TestAddInvalid(t *testing.T) {
	b := txbuilder.New(resolver.NewStatic(), txbuilder.WithNetwork(&network.Testnet))

	require.ErrorIs(t, b.AddInput("abcd", 0), transaction.ErrInvalidTxid)
	require.Error(t, b.AddOutput("not an address", 1))
	// mainnet address on testnet
	require.Error(t, b.AddOutput("1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", 1))
	assert.Zero(t, b.NumInputs())
	assert.Zero(t, b.NumOutputs())
}

func TestBuildUnsignedInput(t *testing.T) {
	key := newKey(t, "unsigned")
	f := newFixture(t)
	f.fund(fakeTxid(0xb0), 0, p2wpkhScript(t, key), 10000)
	f.fund(fakeTxid(0xb1), 0, p2wpkhScript(t, key), 10000)

	b := f.builder()
	require.NoError(t, b.AddInput(fakeTxid(0xb0), 0))
	require.NoError(t, b.AddInput(fakeTxid(0xb1), 0))
	require.NoError(t, b.AddOutput(testAddress, 15000))
	require.NoError(t, b.SignInput(ctx, 0, withKeys(key), transaction.SigHashAllAnyoneCanPay))

	_, err := b.Build()
	require.ErrorIs(t, err, txbuilder.ErrUnsignedInput)
	var inputErr *txbuilder.InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, 1, inputErr.Index)

	require.NoError(t, b.SignInput(ctx, 1, withKeys(key), transaction.SigHashAllAnyoneCanPay))
	tx, err := b.Build()
	require.NoError(t, err)
	f.verify(tx)

	again, err := b.Build()
	require.NoError(t, err)
	first, err := tx.Serialize()
	require.NoError(t, err)
	second, err := again.Serialize()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	tx.Inputs[0].Witness[0][0] ^= 0xff
	third, err := b.Build()
	require.NoError(t, err)
	thirdRaw, err := third.Serialize()
	require.NoError(t, err)
	assert.Equal(t, second, thirdRaw)
}

func TestBuildEmpty(t *testing.T) {
	tx, err := txbuilder.New(resolver.NewStatic()).Build()
	require.NoError(t, err)
	assert.False(t, tx.HasWitness())
	assert.Nil(t, tx.Witnesses())
	assert.Equal(t, int32(transaction.DefaultVersion), tx.Version)
}

func TestSignInputErrors(t *testing.T) {
	k1, k2 := newKey(t, "err1"), newKey(t, "err2")
	redeem := multisig(t, 1, k1)

	tests := []struct {
		name     string
		script   []byte
		index    int
		data     txbuilder.SigningData
		hashType transaction.SigHashType
		outputs  int
		want     error
	}{
		{
			name: "negative index", script: p2pkhScript(t, k1), index: -1,
			data: withKeys(k1), hashType: transaction.SigHashAll, outputs: 1,
			want: txbuilder.ErrInvalidInputIndex,
		},
		{
			name: "index out of range", script: p2pkhScript(t, k1), index: 1,
			data: withKeys(k1), hashType: transaction.SigHashAll, outputs: 1,
			want: txbuilder.ErrInvalidInputIndex,
		},
		{
			name: "invalid sighash", script: p2pkhScript(t, k1),
			data: withKeys(k1), hashType: transaction.SigHashType(0x04), outputs: 1,
			want: txbuilder.ErrInvalidSigHashType,
		},
		{
			name: "p2pkh with two keys", script: p2pkhScript(t, k1),
			data: withKeys(k1, k2), hashType: transaction.SigHashAll, outputs: 1,
			want: txbuilder.ErrInvalidSigningData,
		},
		{
			name: "p2pkh with no keys", script: p2pkhScript(t, k1),
			hashType: transaction.SigHashAll, outputs: 1,
			want: txbuilder.ErrInvalidSigningData,
		},
		{
			name: "p2pkh with wrong key", script: p2pkhScript(t, k1),
			data: withKeys(k2), hashType: transaction.SigHashAll, outputs: 1,
			want: txbuilder.ErrInvalidSigningData,
		},
		{
			name: "p2wpkh with wrong key", script: p2wpkhScript(t, k1),
			data: withKeys(k2), hashType: transaction.SigHashAll, outputs: 1,
			want: txbuilder.ErrInvalidSigningData,
		},
		{
			name: "p2sh without redeem script", script: p2shScript(t, redeem),
			data: withKeys(k1), hashType: transaction.SigHashAll, outputs: 1,
			want: txbuilder.ErrRedeemScriptMissing,
		},
		{
			name: "p2sh with other redeem script", script: p2shScript(t, redeem),
			data: txbuilder.SigningData{
				Keys:         []*keys.PrivateKey{k2},
				RedeemScript: txbuilder.Plain(multisig(t, 1, k2)),
			},
			hashType: transaction.SigHashAll, outputs: 1,
			want:     txbuilder.ErrInvalidSigningData,
		},
		{
			name: "p2wsh without witness script", script: p2wshScript(t, redeem),
			data: withKeys(k1), hashType: transaction.SigHashAll, outputs: 1,
			want: txbuilder.ErrWitnessScriptMissing,
		},
		{
			name: "nested p2wsh without witness script",
			script: p2shScript(t, p2wshScript(t, redeem)),
			data: txbuilder.SigningData{
				Keys:         []*keys.PrivateKey{k1},
				RedeemScript: txbuilder.Plain(p2wshScript(t, redeem)),
			},
			hashType: transaction.SigHashAll, outputs: 1,
			want:     txbuilder.ErrWitnessScriptMissing,
		},
		{
			name: "null data prevout", script: []byte{0x6a, 0x01, 0x00},
			data: withKeys(k1), hashType: transaction.SigHashAll, outputs: 1,
			want: txbuilder.ErrUnknownScriptType,
		},
		{
			name: "single without output", script: p2wpkhScript(t, k1),
			data: withKeys(k1), hashType: transaction.SigHashSingle,
			want: txbuilder.ErrOutputIndexMissing,
		},
		{
			name: "legacy single without output", script: p2pkhScript(t, k1),
			data: withKeys(k1), hashType: transaction.SigHashSingleAnyoneCanPay,
			want: txbuilder.ErrOutputIndexMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.fund(fakeTxid(0xc0), 0, tt.script, 10000)

			b := f.builder()
			require.NoError(t, b.AddInput(fakeTxid(0xc0), 0))
			for i := 0; i < tt.outputs; i++ {
				require.NoError(t, b.AddOutput(testAddress, 5000))
			}

			err := b.SignInput(ctx, tt.index, tt.data, tt.hashType)
			require.ErrorIs(t, err, tt.want)
			var inputErr *txbuilder.InputError
			require.ErrorAs(t, err, &inputErr)
			assert.Equal(t, tt.index, inputErr.Index)

			_, err = b.Build()
			require.ErrorIs(t, err, txbuilder.ErrUnsignedInput)
		})
	}
}

func TestSignInputTwice(t *testing.T) {
	key := newKey(t, "twice")
	f := newFixture(t)
	f.fund(fakeTxid(0xd0), 0, p2pkhScript(t, key), 10000)

	b := f.builder()
	require.NoError(t, b.AddInput(fakeTxid(0xd0), 0))
	require.NoError(t, b.AddOutput(testAddress, 5000))
	require.NoError(t, b.SignInput(ctx, 0, withKeys(key), transaction.SigHashNoneAnyoneCanPay))

	err := b.SignInput(ctx, 0, withKeys(key), transaction.SigHashAll)
	require.ErrorIs(t, err, txbuilder.ErrInputAlreadySigned)

	require.NoError(t, b.AddOutput(testAddress, 1000))
}

func TestSignInputResolver(t *testing.T) {
	key := newKey(t, "mock")
	txid := fakeTxid(0xe0)
	hash, err := chainhash.NewHashFromStr(txid)
	require.NoError(t, err)

	t.Run("resolves once", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		prevouts := resolver.NewMockPrevoutResolver(ctrl)
		prevouts.EXPECT().
			ResolvePrevout(gomock.Any(), *hash, uint32(2)).
			Return(&resolver.Prevout{Script: p2wpkhScript(t, key), Value: 1000}, nil).
			Times(1)

		b := txbuilder.New(prevouts, txbuilder.WithNetwork(&network.Testnet))
		require.NoError(t, b.AddInput(txid, 2))
		require.NoError(t, b.AddOutput(testAddress, 900))
		require.NoError(t, b.SignInput(ctx, 0, withKeys(key), transaction.SigHashAll))
	})

	t.Run("failure is not retried", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		prevouts := resolver.NewMockPrevoutResolver(ctrl)
		prevouts.EXPECT().
			ResolvePrevout(gomock.Any(), *hash, uint32(0)).
			Return(nil, resolver.ErrPrevoutNotFound).
			Times(1)

		b := txbuilder.New(prevouts)
		require.NoError(t, b.AddInput(txid, 0))

		err := b.SignInput(ctx, 0, withKeys(key), transaction.SigHashAll)
		require.ErrorIs(t, err, txbuilder.ErrCannotGetScriptPubKey)
		require.ErrorIs(t, err, resolver.ErrPrevoutNotFound)
	})

	t.Run("canceled context", func(t *testing.T) {
		f := newFixture(t)
		f.fund(txid, 0, p2wpkhScript(t, key), 1000)
		b := f.builder()
		require.NoError(t, b.AddInput(txid, 0))

		canceled, cancel := context.WithCancel(ctx)
		cancel()
		err := b.SignInput(canceled, 0, withKeys(key), transaction.SigHashAll)
		require.ErrorIs(t, err, context.Canceled)
	})
}

type signObservation struct {
	scriptType string
	sighash    string
	err        error
}

type recordingMetrics struct {
	observed []signObservation
}

func (m *recordingMetrics) ObserveSign(scriptType, sighash string, err error, _ time.Time) {
	m.observed = append(m.observed, signObservation{scriptType, sighash, err})
}

func TestSignInputMetricsAndLogs(t *testing.T) {
	key := newKey(t, "metrics")
	f := newFixture(t)
	f.fund(fakeTxid(0xf0), 0, p2wpkhScript(t, key), 10000)

	metrics := &recordingMetrics{}
	core, logs := observer.New(zapcore.DebugLevel)
	b := f.builder(txbuilder.WithMetrics(metrics), txbuilder.WithLogger(zap.New(core)))

	require.NoError(t, b.AddInput(fakeTxid(0xf0), 0))
	require.NoError(t, b.AddOutput(testAddress, 5000))
	require.Error(t, b.SignInput(ctx, 0, withKeys(key, key), transaction.SigHashAll))
	require.NoError(t, b.SignInput(ctx, 0, withKeys(key), transaction.SigHashAll))
	require.ErrorIs(t, b.AddInput(fakeTxid(0xf1), 0), txbuilder.ErrTxCommitted)
	_, err := b.Build()
	require.NoError(t, err)

	require.Len(t, metrics.observed, 2)
	assert.Equal(t, "p2wpkh", metrics.observed[0].scriptType)
	assert.True(t, errors.Is(metrics.observed[0].err, txbuilder.ErrInvalidSigningData))
	assert.Equal(t, signObservation{"p2wpkh", "ALL", nil}, metrics.observed[1])

	assert.Equal(t, 1, logs.FilterMessage("input signed").Len())
	assert.Equal(t, 1, logs.FilterMessage("rejected input").Len())
	assert.Equal(t, 1, logs.FilterMessage("transaction built").Len())
}
