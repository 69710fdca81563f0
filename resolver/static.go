package resolver

import (
	"context"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// Static resolves prevouts from a fixed set, for offline signing.
type Static struct {
	mu       sync.RWMutex
	prevouts map[wire.OutPoint]Prevout
}

// NewStatic returns an empty Static resolver.
func NewStatic() *Static {
	return &Static{prevouts: make(map[wire.OutPoint]Prevout)}
}

// Add registers the output vout of txid.
func (s *Static) Add(txid chainhash.Hash, vout uint32, script []byte, value uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prevouts[*wire.NewOutPoint(&txid, vout)] = Prevout{Script: script, Value: value}
}

// ResolvePrevout implements PrevoutResolver.
func (s *Static) ResolvePrevout(ctx context.Context, txid chainhash.Hash, vout uint32) (*Prevout, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	prevout, ok := s.prevouts[*wire.NewOutPoint(&txid, vout)]
	if !ok {
		return nil, fmt.Errorf("%w: %s:%d", ErrPrevoutNotFound, txid, vout)
	}
	return &prevout, nil
}
