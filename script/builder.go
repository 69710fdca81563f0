package script

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/txscript"
	"github.com/nlanson/btc-tx/address"
	"github.com/nlanson/btc-tx/network"
	"github.com/nlanson/btc-tx/transaction"
)

const compressedPubKeyLen = 33

// PubKeyHashScript returns OP_DUP OP_HASH160 <hash> OP_EQUALVERIFY OP_CHECKSIG.
func PubKeyHashScript(hash []byte) (Script, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).AddOp(txscript.OP_HASH160).
		AddData(hash).
		AddOp(txscript.OP_EQUALVERIFY).AddOp(txscript.OP_CHECKSIG).
		Script()
}

// ScriptHashScript returns OP_HASH160 <hash> OP_EQUAL.
func ScriptHashScript(hash []byte) (Script, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_HASH160).AddData(hash).AddOp(txscript.OP_EQUAL).
		Script()
}

// WitnessScript returns OP_version <program>.
func WitnessScript(version byte, program []byte) (Script, error) {
	if version > 16 {
		return nil, fmt.Errorf("witness version %d out of range", version)
	}
	return txscript.NewScriptBuilder().
		AddInt64(int64(version)).AddData(program).
		Script()
}

// P2PKHLocking returns the locking script of a base58 p2pkh address.
func P2PKHLocking(addr string, net *network.Network) (Script, error) {
	decoded, err := address.Decode(addr, net)
	if err != nil {
		return nil, err
	}
	if decoded.Type != address.P2PKH {
		return nil, fmt.Errorf("%w: %s is %s, not p2pkh", ErrAddressType, addr, decoded.Type)
	}
	return PubKeyHashScript(decoded.Hash)
}

// P2SHLocking returns the locking script of a base58 p2sh address.
func P2SHLocking(addr string, net *network.Network) (Script, error) {
	decoded, err := address.Decode(addr, net)
	if err != nil {
		return nil, err
	}
	if decoded.Type != address.P2SH {
		return nil, fmt.Errorf("%w: %s is %s, not p2sh", ErrAddressType, addr, decoded.Type)
	}
	return ScriptHashScript(decoded.Hash)
}

// SegwitLocking returns the witness program script of a bech32 or bech32m
// address.
func SegwitLocking(addr string, net *network.Network) (Script, error) {
	decoded, err := address.Decode(addr, net)
	if err != nil {
		return nil, err
	}
	switch decoded.Type {
	case address.P2WPKH, address.P2WSH, address.WitnessUnknown:
		return WitnessScript(decoded.WitnessVersion, decoded.Hash)
	}
	return nil, fmt.Errorf("%w: %s is %s, not segwit", ErrAddressType, addr, decoded.Type)
}

// FromAddress returns the locking script paying to addr, whatever its kind.
func FromAddress(addr string, net *network.Network) (Script, error) {
	decoded, err := address.Decode(addr, net)
	if err != nil {
		return nil, err
	}
	switch decoded.Type {
	case address.P2PKH:
		return PubKeyHashScript(decoded.Hash)
	case address.P2SH:
		return ScriptHashScript(decoded.Hash)
	default:
		return WitnessScript(decoded.WitnessVersion, decoded.Hash)
	}
}

// PKHUnlocking returns <signature|hashType> <pubkey>, the scriptSig of a
// p2pkh input.
func PKHUnlocking(
	signature, pubkey []byte,
	hashType transaction.SigHashType,
) (Script, error) {
	if len(pubkey) != compressedPubKeyLen {
		return nil, ErrInvalidPubKey
	}
	return txscript.NewScriptBuilder().
		AddData(hashType.Append(signature)).
		AddData(pubkey).
		Script()
}

// MultisigLocking returns OP_m <pubkey>... OP_n OP_CHECKMULTISIG. Keys are
// used in the given order, see SortPubKeys for BIP 67 ordering.
func MultisigLocking(m int, pubkeys [][]byte) (Script, error) {
	n := len(pubkeys)
	if m < 1 || m > n || n > 16 {
		return nil, fmt.Errorf("%w: %d of %d", ErrInvalidMultisig, m, n)
	}

	builder := txscript.NewScriptBuilder().AddInt64(int64(m))
	for _, key := range pubkeys {
		if len(key) != compressedPubKeyLen {
			return nil, ErrInvalidPubKey
		}
		builder.AddData(key)
	}
	builder.AddInt64(int64(n))
	builder.AddOp(txscript.OP_CHECKMULTISIG)

	return builder.Script()
}

// SortPubKeys returns a copy of pubkeys in BIP 67 lexicographic order.
func SortPubKeys(pubkeys [][]byte) [][]byte {
	sorted := make([][]byte, len(pubkeys))
	copy(sorted, pubkeys)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i], sorted[j]) < 0
	})
	return sorted
}

// P2SHMultisigUnlocking returns OP_0 <sig|hashType>... <redeemScript>. The
// leading OP_0 is the extra item OP_CHECKMULTISIG pops off the stack.
func P2SHMultisigUnlocking(
	signatures [][]byte,
	redeemScript []byte,
	hashType transaction.SigHashType,
) (Script, error) {
	builder := txscript.NewScriptBuilder().AddOp(txscript.OP_0)
	for _, sig := range signatures {
		builder.AddData(hashType.Append(sig))
	}
	builder.AddData(redeemScript)

	return builder.Script()
}

// P2SHP2WPKHRedeemScript returns OP_0 <hash160(pubkey)>, the redeem script
// of a p2wpkh program nested in p2sh.
func P2SHP2WPKHRedeemScript(pubkey []byte) (Script, error) {
	if len(pubkey) != compressedPubKeyLen {
		return nil, ErrInvalidPubKey
	}
	return WitnessScript(0, Hash160(pubkey))
}

// P2SHP2WSHRedeemScript returns OP_0 <sha256(witnessScript)>, the redeem
// script of a p2wsh program nested in p2sh.
func P2SHP2WSHRedeemScript(witnessScript []byte) (Script, error) {
	return WitnessScript(0, WitnessScriptHash(witnessScript))
}

// PushData returns the canonical push of data, used as the scriptSig of
// nested segwit inputs.
func PushData(data []byte) (Script, error) {
	return txscript.NewScriptBuilder().AddData(data).Script()
}

// P2WPKHScriptCode rewrites a p2wpkh program into the p2pkh shaped
// scriptCode that BIP 143 signs over.
func P2WPKHScriptCode(program []byte) (Script, error) {
	if TypeOf(program) != P2WPKH {
		return nil, fmt.Errorf("%w: %x is not a p2wpkh program", ErrUnknownScript, program)
	}
	return PubKeyHashScript(program[2:])
}
