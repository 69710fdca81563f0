package script

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/txscript"
)

var (
	// ErrUnknownScript is returned when a script is empty or does not match
	// any of the recognized forms.
	ErrUnknownScript = errors.New("unknown script type")
	// ErrAddressType is returned when an address does not pay to the
	// locking script kind requested.
	ErrAddressType = errors.New("address type mismatch")
	// ErrInvalidMultisig is returned for a multisig quorum that cannot be
	// expressed.
	ErrInvalidMultisig = errors.New("invalid multisig parameters")
	// ErrInvalidPubKey is returned for public keys that are not 33 bytes.
	ErrInvalidPubKey = errors.New("public key must be 33 bytes compressed")
)

const (
	p2wpkhScriptLen = 22
	p2wshScriptLen  = 34
)

// Type is the classification of a locking or redeem script.
type Type int

const (
	// NonStandard is any script not matching the forms below.
	NonStandard Type = iota
	// P2PKH is OP_DUP OP_HASH160 <20> OP_EQUALVERIFY OP_CHECKSIG.
	P2PKH
	// P2SH is OP_HASH160 <20> OP_EQUAL. Bare 1-of-N multisig scripts are
	// also reported as P2SH, see TypeOf.
	P2SH
	// P2WPKH is OP_0 <20>.
	P2WPKH
	// P2WSH is OP_0 <32>.
	P2WSH
)

func (t Type) String() string {
	switch t {
	case NonStandard:
		return "nonstandard"
	case P2PKH:
		return "p2pkh"
	case P2SH:
		return "p2sh"
	case P2WPKH:
		return "p2wpkh"
	case P2WSH:
		return "p2wsh"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// IsSegwit reports whether t is a version 0 witness program.
func (t Type) IsSegwit() bool {
	return t == P2WPKH || t == P2WSH
}

// Script is a raw sequence of opcodes.
type Script []byte

// Type classifies s.
func (s Script) Type() Type {
	return TypeOf(s)
}

// TypeOf classifies script by its leading opcode:
//
//	0x76              p2pkh
//	0xa9              p2sh
//	0x00 0x14 <20>    p2wpkh
//	0x00 0x20 <32>    p2wsh
//	0x51 <not 0x20>   p2sh (bare 1-of-N multisig redeem script)
//
// OP_1 followed by a 32 byte push is a taproot output and is left
// NonStandard. Telling the two OP_1 forms apart by the push length is a
// heuristic and not a consensus rule.
func TypeOf(script []byte) Type {
	if len(script) == 0 {
		return NonStandard
	}

	switch script[0] {
	case txscript.OP_DUP:
		return P2PKH
	case txscript.OP_HASH160:
		return P2SH
	case txscript.OP_0:
		switch {
		case len(script) == p2wpkhScriptLen && script[1] == txscript.OP_DATA_20:
			return P2WPKH
		case len(script) == p2wshScriptLen && script[1] == txscript.OP_DATA_32:
			return P2WSH
		}
	case txscript.OP_1:
		if len(script) > 1 && script[1] != txscript.OP_DATA_32 {
			return P2SH
		}
	}
	return NonStandard
}

// DetermineType is TypeOf reporting ErrUnknownScript instead of
// NonStandard.
func DetermineType(script []byte) (Type, error) {
	t := TypeOf(script)
	if t == NonStandard {
		return t, fmt.Errorf("%w: %x", ErrUnknownScript, script)
	}
	return t, nil
}

// WitnessProgram returns the program pushed by a version 0 witness
// script, or nil when script is not one.
func WitnessProgram(script []byte) []byte {
	if !TypeOf(script).IsSegwit() {
		return nil
	}
	return script[2:]
}
