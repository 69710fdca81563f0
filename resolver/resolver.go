// Package resolver looks up the outputs spent by transaction inputs.
//
// Signing needs the locking script and the value of every spent output.
// PrevoutResolver abstracts where they come from: a static set, a bitcoind
// style JSON-RPC node or an Esplora block explorer. Resolvers do not
// retry.
package resolver

//go:generate mockgen -source=resolver.go -destination=mock_resolver.go -package=resolver

import (
	"context"
	"errors"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// ErrPrevoutNotFound is returned when the transaction or the output index
// is unknown to the backend.
var ErrPrevoutNotFound = errors.New("prevout not found")

// Prevout is an output spent by an input.
type Prevout struct {
	Script []byte
	// Value in satoshis.
	Value uint64
}

// PrevoutResolver returns the output at index vout of transaction txid.
type PrevoutResolver interface {
	ResolvePrevout(ctx context.Context, txid chainhash.Hash, vout uint32) (*Prevout, error)
}

// Metrics records lookups against a backend.
type Metrics interface {
	Observe(operation string, err error, started time.Time)
}

type nopMetrics struct{}

func (nopMetrics) Observe(string, error, time.Time) {}

func metricsOrNop(m Metrics) Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}
