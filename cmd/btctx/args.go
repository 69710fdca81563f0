package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/nlanson/btc-tx/internal/safe"
	"github.com/nlanson/btc-tx/transaction"
)

var errMalformedArg = errors.New("malformed argument")

type inputArg struct {
	txid     string
	vout     uint32
	sequence uint32
}

type outputArg struct {
	address string
	value   uint64
}

type prevoutArg struct {
	txid   chainhash.Hash
	vout   uint32
	script []byte
	value  uint64
}

// parseInput parses txid:vout[:sequence].
func parseInput(arg string) (*inputArg, error) {
	parts := strings.Split(arg, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return nil, fmt.Errorf("%w: input %q, want txid:vout[:sequence]", errMalformedArg, arg)
	}
	if _, err := transaction.ParseTxid(parts[0]); err != nil {
		return nil, err
	}
	vout, err := parseUint32(parts[1])
	if err != nil {
		return nil, fmt.Errorf("input %q vout: %w", arg, err)
	}
	in := &inputArg{txid: parts[0], vout: vout, sequence: transaction.DefaultSequence}
	if len(parts) == 3 {
		if in.sequence, err = parseUint32(parts[2]); err != nil {
			return nil, fmt.Errorf("input %q sequence: %w", arg, err)
		}
	}
	return in, nil
}

// parseOutput parses address:value. The address never holds a colon.
func parseOutput(arg string) (*outputArg, error) {
	i := strings.LastIndex(arg, ":")
	if i <= 0 || i == len(arg)-1 {
		return nil, fmt.Errorf("%w: output %q, want address:value", errMalformedArg, arg)
	}
	value, err := parseValue(arg[i+1:])
	if err != nil {
		return nil, fmt.Errorf("output %q: %w", arg, err)
	}
	return &outputArg{address: arg[:i], value: value}, nil
}

// parsePrevout parses txid:vout:script_hex:value.
func parsePrevout(arg string) (*prevoutArg, error) {
	parts := strings.Split(arg, ":")
	if len(parts) != 4 {
		return nil, fmt.Errorf(
			"%w: prevout %q, want txid:vout:script_hex:value", errMalformedArg, arg,
		)
	}
	txid, err := transaction.ParseTxid(parts[0])
	if err != nil {
		return nil, err
	}
	vout, err := parseUint32(parts[1])
	if err != nil {
		return nil, fmt.Errorf("prevout %q vout: %w", arg, err)
	}
	script, err := hex.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("prevout %q script: %w", arg, err)
	}
	value, err := parseValue(parts[3])
	if err != nil {
		return nil, fmt.Errorf("prevout %q: %w", arg, err)
	}
	return &prevoutArg{txid: *txid, vout: vout, script: script, value: value}, nil
}

func parseUint32(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return safe.Uint32(n)
}

// parseValue parses satoshis, or bitcoins with a btc suffix.
func parseValue(s string) (uint64, error) {
	lower := strings.ToLower(s)
	if !strings.HasSuffix(lower, "btc") {
		return strconv.ParseUint(s, 10, 64)
	}

	btc, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(lower, "btc")), 64)
	if err != nil {
		return 0, err
	}
	amount, err := btcutil.NewAmount(btc)
	if err != nil {
		return 0, err
	}
	return safe.Uint64(int64(amount))
}
