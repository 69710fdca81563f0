package payment

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/nlanson/btc-tx/address"
	"github.com/nlanson/btc-tx/network"
	"github.com/nlanson/btc-tx/script"
)

// Payment defines the structure that holds the information different addresses
type Payment struct {
	Hash          []byte
	WitnessHash   []byte
	Script        []byte
	WitnessScript []byte
	Redeem        *Payment
	PublicKey     *btcec.PublicKey
	Network       *network.Network
}

// FromPublicKey creates a Payment struct from a btcec.publicKey
func FromPublicKey(pubkey *btcec.PublicKey, net *network.Network) *Payment {
	if net == nil {
		net = &network.Mainnet
	}
	pkHash := script.Hash160(pubkey.SerializeCompressed())
	p2pkh, _ := script.PubKeyHashScript(pkHash)
	p2wpkh, _ := script.WitnessScript(0, pkHash)

	return &Payment{
		Hash:          pkHash,
		WitnessHash:   pkHash,
		Script:        p2pkh,
		WitnessScript: p2wpkh,
		Network:       net,
		PublicKey:     pubkey,
	}
}

// FromPublicKeys creates a multi-signature Payment struct from list of
// public keys. The keys keep the given order.
func FromPublicKeys(
	pubkeys []*btcec.PublicKey,
	nrequired int,
	net *network.Network,
) (*Payment, error) {
	if len(pubkeys) < nrequired {
		return nil, fmt.Errorf(
			"unable to generate multisig script with %d required signatures "+
				"when there are only %d public keys available",
			nrequired, len(pubkeys),
		)
	}

	serialized := make([][]byte, 0, len(pubkeys))
	for _, key := range pubkeys {
		serialized = append(serialized, key.SerializeCompressed())
	}
	multiSigScript, err := script.MultisigLocking(nrequired, serialized)
	if err != nil {
		return nil, err
	}

	redeem, err := FromScript(multiSigScript, net)
	if err != nil {
		return nil, err
	}

	return FromPayment(redeem)
}

// FromPayment wraps payment into p2sh and p2wsh. Wrapping a p2wpkh or
// p2wsh payment hashes its witness program, giving the nested segwit
// forms.
func FromPayment(payment *Payment) (*Payment, error) {
	if len(payment.Script) == 0 {
		return nil, errors.New("payment's script can't be empty or nil")
	}

	redeem := payment.copy()
	// the only case where the witnessScript is null is when wrapping multisig
	scriptToHash := redeem.Script
	if len(redeem.WitnessScript) > 0 {
		scriptToHash = redeem.WitnessScript
	}
	scriptHash := script.Hash160(scriptToHash)
	witnessScriptHash := script.WitnessScriptHash(scriptToHash)

	p2sh, err := script.ScriptHashScript(scriptHash)
	if err != nil {
		return nil, err
	}
	p2wsh, err := script.WitnessScript(0, witnessScriptHash)
	if err != nil {
		return nil, err
	}

	return &Payment{
		Hash:          scriptHash,
		WitnessHash:   witnessScriptHash,
		Script:        p2sh,
		WitnessScript: p2wsh,
		Redeem:        redeem,
		Network:       redeem.Network,
	}, nil
}

// FromScript parses a locking script into a Payment struct
func FromScript(outputScript []byte, net *network.Network) (*Payment, error) {
	if len(outputScript) == 0 {
		return nil, errors.New("payment's script can't be empty or nil")
	}
	if net == nil {
		net = &network.Mainnet
	}

	var err error
	var lockingScript, scriptHash, witnessScript, witnessScriptHash []byte
	switch script.TypeOf(outputScript) {
	case script.P2WPKH:
		scriptHash = outputScript[2:]
		lockingScript, err = script.PubKeyHashScript(scriptHash)
		witnessScriptHash = scriptHash
		witnessScript = outputScript
	case script.P2WSH:
		witnessScriptHash = outputScript[2:]
		witnessScript = outputScript
	case script.P2SH:
		lockingScript = outputScript
		if len(outputScript) == 23 {
			scriptHash = outputScript[2:22]
		}
	case script.P2PKH:
		lockingScript = outputScript
		if len(outputScript) == 25 {
			scriptHash = outputScript[3:23]
		}
	// multisig, here we do not calculate the hashes because this payment
	// must be wrapped into another one
	default:
		lockingScript = outputScript
	}
	if err != nil {
		return nil, err
	}

	return &Payment{
		Hash:          scriptHash,
		WitnessHash:   witnessScriptHash,
		Script:        lockingScript,
		WitnessScript: witnessScript,
		Network:       net,
	}, nil
}

// PubKeyHash is a method of the Payment struct to derive a base58 p2pkh address
func (p *Payment) PubKeyHash() (string, error) {
	if len(p.Hash) == 0 {
		return "", errors.New("payment's hash can't be empty or nil")
	}
	payload := &address.Base58{Version: p.Network.PubKeyHash, Data: p.Hash}
	return address.ToBase58(payload), nil
}

// ScriptHash is a method of the Payment struct to derive a base58 p2sh address
func (p *Payment) ScriptHash() (string, error) {
	if len(p.Hash) == 0 {
		return "", errors.New("payment's hash can't be empty or nil")
	}
	payload := &address.Base58{Version: p.Network.ScriptHash, Data: p.Hash}
	return address.ToBase58(payload), nil
}

// WitnessPubKeyHash is a method of the Payment struct to derive a bech32 p2wpkh address
func (p *Payment) WitnessPubKeyHash() (string, error) {
	if len(p.WitnessHash) != 20 {
		return "", errors.New("payment's witness hash must be 20 bytes")
	}
	payload := &address.Bech32{Prefix: p.Network.Bech32, Version: 0, Data: p.WitnessHash}
	return address.ToBech32(payload)
}

// WitnessScriptHash is a method of the Payment struct to derive a bech32 p2wsh address
func (p *Payment) WitnessScriptHash() (string, error) {
	if len(p.WitnessHash) != 32 {
		return "", errors.New("payment's witness hash must be 32 bytes")
	}
	payload := &address.Bech32{Prefix: p.Network.Bech32, Version: 0, Data: p.WitnessHash}
	return address.ToBech32(payload)
}

func (p *Payment) copy() *Payment {
	var redeem *Payment
	var pubkey *btcec.PublicKey
	if p.Redeem != nil {
		redeem = &Payment{}
		*redeem = *p.Redeem
	}
	if p.PublicKey != nil {
		pubkey = &btcec.PublicKey{}
		*pubkey = *p.PublicKey
	}
	return &Payment{
		Hash:          p.Hash,
		WitnessHash:   p.WitnessHash,
		Script:        p.Script,
		WitnessScript: p.WitnessScript,
		Redeem:        redeem,
		PublicKey:     pubkey,
		Network:       p.Network,
	}
}
