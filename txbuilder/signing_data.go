package txbuilder

import "github.com/nlanson/btc-tx/keys"

// RedeemKind tells how a p2sh redeem script is spent.
type RedeemKind int

const (
	// RedeemPlain is a redeem script spent as it is, multisig or a
	// nested p2wpkh / p2wsh program.
	RedeemPlain RedeemKind = iota
	// RedeemNestedWitnessV0 is a witness script spent through a p2sh
	// wrapped p2wsh program.
	RedeemNestedWitnessV0
)

func (k RedeemKind) String() string {
	if k == RedeemNestedWitnessV0 {
		return "nested_witness_v0"
	}
	return "plain"
}

// RedeemScript is the script revealed when spending a p2sh output.
type RedeemScript struct {
	Kind   RedeemKind
	Script []byte
}

// Plain returns a redeem script hashed directly into the p2sh output.
func Plain(redeemScript []byte) *RedeemScript {
	return &RedeemScript{Kind: RedeemPlain, Script: redeemScript}
}

// NestedWitnessV0 returns a witness script whose p2wsh program is hashed
// into the p2sh output.
func NestedWitnessV0(witnessScript []byte) *RedeemScript {
	return &RedeemScript{Kind: RedeemNestedWitnessV0, Script: witnessScript}
}

// SigningData holds what is needed to sign one input. Keys sign in the
// given order, which must match the order of the pubkeys in a multisig
// script.
type SigningData struct {
	Keys          []*keys.PrivateKey
	RedeemScript  *RedeemScript
	WitnessScript []byte
}
