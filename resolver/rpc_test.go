package resolver_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/golang/mock/gomock"
	"github.com/nlanson/btc-tx/resolver"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRawTxClient struct {
	txs   map[chainhash.Hash]*wire.MsgTx
	calls int
}

func (f *fakeRawTxClient) GetRawTransaction(txHash *chainhash.Hash) (*btcutil.Tx, error) {
	f.calls++
	tx, ok := f.txs[*txHash]
	if !ok {
		return nil, errors.New("-5: No such mempool or blockchain transaction")
	}
	return btcutil.NewTx(tx), nil
}

func TestRPC(t *testing.T) {
	msgTx := wire.NewMsgTx(wire.TxVersion)
	msgTx.AddTxOut(wire.NewTxOut(1500, []byte{0x51}))
	msgTx.AddTxOut(wire.NewTxOut(2100000000000000, []byte{0x00, 0x14, 0x01}))
	txid := msgTx.TxHash()
	unknown := mustHash(t, testTxid)

	client := &fakeRawTxClient{txs: map[chainhash.Hash]*wire.MsgTx{txid: msgTx}}

	tests := []struct {
		name    string
		txid    chainhash.Hash
		vout    uint32
		want    *resolver.Prevout
		wantErr error
		failed  bool
	}{
		{
			name: "first output",
			txid: txid,
			vout: 0,
			want: &resolver.Prevout{Script: []byte{0x51}, Value: 1500},
		},
		{
			name: "max money output",
			txid: txid,
			vout: 1,
			want: &resolver.Prevout{Script: []byte{0x00, 0x14, 0x01}, Value: 2100000000000000},
		},
		{
			name:    "missing output",
			txid:    txid,
			vout:    2,
			wantErr: resolver.ErrPrevoutNotFound,
			failed:  true,
		},
		{
			name:   "unknown transaction",
			txid:   unknown,
			vout:   0,
			failed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			metrics := resolver.NewMockMetrics(ctrl)
			metrics.EXPECT().
				Observe("get_raw_transaction", gomock.Any(), gomock.Any()).
				Do(func(_ string, err error, _ time.Time) {
					require.Equal(t, tt.failed, err != nil)
				}).
				Times(1)

			r := resolver.NewRPC(client, metrics, zap.NewNop())
			got, err := r.ResolvePrevout(context.Background(), tt.txid, tt.vout)
			if tt.failed {
				require.Error(t, err)
				if tt.wantErr != nil {
					require.ErrorIs(t, err, tt.wantErr)
				}
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestRPCCanceledContext(t *testing.T) {
	client := &fakeRawTxClient{}
	r := resolver.NewRPC(client, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.ResolvePrevout(ctx, mustHash(t, testTxid), 0)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, client.calls)
}
