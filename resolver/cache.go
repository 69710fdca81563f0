package resolver

import (
	"context"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// Cached memoizes successful lookups of another resolver. Failures are not
// cached.
type Cached struct {
	next  PrevoutResolver
	mu    sync.Mutex
	local map[wire.OutPoint]*Prevout
}

// NewCached wraps next.
func NewCached(next PrevoutResolver) *Cached {
	return &Cached{
		next:  next,
		local: make(map[wire.OutPoint]*Prevout),
	}
}

// ResolvePrevout returns the prevout, consulting the cache first.
func (c *Cached) ResolvePrevout(ctx context.Context, txid chainhash.Hash, vout uint32) (*Prevout, error) {
	key := *wire.NewOutPoint(&txid, vout)

	c.mu.Lock()
	cached, ok := c.local[key]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	prevout, err := c.next.ResolvePrevout(ctx, txid, vout)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.local[key] = prevout
	c.mu.Unlock()
	return prevout, nil
}
