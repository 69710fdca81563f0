package resolver

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"go.uber.org/zap"
)

const defaultHTTPTimeout = 30 * time.Second

type esploraTx struct {
	Txid string          `json:"txid"`
	Vout []esploraOutput `json:"vout"`
}

type esploraOutput struct {
	ScriptPubKey string `json:"scriptpubkey"`
	Value        uint64 `json:"value"`
}

// Esplora resolves prevouts from an Esplora REST API, such as the one of
// blockstream.info or mempool.space.
type Esplora struct {
	baseURL string
	client  *http.Client
	metrics Metrics
	logger  *zap.Logger
}

// NewEsplora returns a resolver querying baseURL, for example
// https://blockstream.info/testnet/api. A nil client gets a default one
// with a timeout.
func NewEsplora(baseURL string, client *http.Client, metrics Metrics, logger *zap.Logger) *Esplora {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Esplora{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		metrics: metricsOrNop(metrics),
		logger:  logger,
	}
}

// ResolvePrevout implements PrevoutResolver.
func (e *Esplora) ResolvePrevout(ctx context.Context, txid chainhash.Hash, vout uint32) (prevout *Prevout, err error) {
	started := time.Now()
	defer func() {
		e.metrics.Observe("get_tx", err, started)
	}()

	tx, err := e.fetchTx(ctx, txid)
	if err != nil {
		e.logger.Debug("esplora lookup failed", zap.Stringer("txid", txid), zap.Error(err))
		return nil, err
	}

	if int(vout) >= len(tx.Vout) {
		return nil, fmt.Errorf("%w: %s has %d outputs, want %d", ErrPrevoutNotFound, txid, len(tx.Vout), vout)
	}
	out := tx.Vout[vout]

	script, err := hex.DecodeString(out.ScriptPubKey)
	if err != nil {
		return nil, fmt.Errorf("decode scriptpubkey of %s:%d: %w", txid, vout, err)
	}
	return &Prevout{Script: script, Value: out.Value}, nil
}

func (e *Esplora) fetchTx(ctx context.Context, txid chainhash.Hash) (*esploraTx, error) {
	url := fmt.Sprintf("%s/tx/%s", e.baseURL, txid)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrPrevoutNotFound, txid)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("get %s: status code %d", url, resp.StatusCode)
	}

	tx := new(esploraTx)
	if err := json.NewDecoder(resp.Body).Decode(tx); err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return tx, nil
}
