package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/nlanson/btc-tx/internal/safe"
	"go.uber.org/zap"
)

// RawTransactionClient is the part of *rpcclient.Client used by RPC.
type RawTransactionClient interface {
	GetRawTransaction(txHash *chainhash.Hash) (*btcutil.Tx, error)
}

// RPCConfig holds the connection settings of a bitcoind style node.
type RPCConfig struct {
	Host       string
	User       string
	Pass       string
	DisableTLS bool
}

// DialRPC returns an HTTP POST mode JSON-RPC client.
func DialRPC(cfg RPCConfig) (*rpcclient.Client, error) {
	client, err := rpcclient.New(&rpcclient.ConnConfig{
		Host:         cfg.Host,
		User:         cfg.User,
		Pass:         cfg.Pass,
		HTTPPostMode: true,
		DisableTLS:   cfg.DisableTLS,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("create rpc client: %w", err)
	}
	return client, nil
}

// RPC resolves prevouts with getrawtransaction. Values come from the raw
// transaction in satoshis, so no BTC amount conversion is involved. The
// node needs -txindex for outputs not in its wallet or mempool.
type RPC struct {
	client  RawTransactionClient
	metrics Metrics
	logger  *zap.Logger
}

// NewRPC constructs an instrumented RPC resolver. Nil metrics or logger
// disable them.
func NewRPC(client RawTransactionClient, metrics Metrics, logger *zap.Logger) *RPC {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RPC{
		client:  client,
		metrics: metricsOrNop(metrics),
		logger:  logger,
	}
}

// ResolvePrevout implements PrevoutResolver. The rpc client has no
// cancellation, ctx is checked before the call only.
func (r *RPC) ResolvePrevout(ctx context.Context, txid chainhash.Hash, vout uint32) (prevout *Prevout, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	started := time.Now()
	defer func() {
		r.metrics.Observe("get_raw_transaction", err, started)
	}()

	tx, err := r.client.GetRawTransaction(&txid)
	if err != nil {
		r.logger.Debug("getrawtransaction failed", zap.Stringer("txid", txid), zap.Error(err))
		return nil, fmt.Errorf("get raw transaction %s: %w", txid, err)
	}

	outputs := tx.MsgTx().TxOut
	if int(vout) >= len(outputs) {
		return nil, fmt.Errorf("%w: %s has %d outputs, want %d", ErrPrevoutNotFound, txid, len(outputs), vout)
	}
	out := outputs[vout]

	value, err := safe.Uint64(out.Value)
	if err != nil {
		return nil, fmt.Errorf("output %s:%d value: %w", txid, vout, err)
	}
	return &Prevout{Script: out.PkScript, Value: value}, nil
}
