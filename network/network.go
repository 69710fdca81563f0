package network

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
)

// Network type represents prefixes for each network
// https://en.bitcoin.it/wiki/List_of_address_prefixes
type Network struct {
	Name string
	// Human-readable part for Bech32 encoded segwit addresses, as defined
	// in BIP 173.
	Bech32 string
	// BIP32 hierarchical deterministic extended key magics
	HDPublicKey  [4]byte
	HDPrivateKey [4]byte
	// Address encoding magic
	PubKeyHash byte
	ScriptHash byte
	// First byte of a WIF private key
	Wif byte
	// BIP44 coin type used in the hierarchical deterministic path for
	// address generation.
	HDCoinType uint32
	// Params are the btcd chain parameters of the network, used where a
	// btcd API expects them (WIF network checks, rpc clients).
	Params *chaincfg.Params
}

// Mainnet defines the network parameters for the main Bitcoin network.
var Mainnet = Network{
	Name:         "mainnet",
	Bech32:       "bc",
	HDPublicKey:  [4]byte{0x04, 0x88, 0xb2, 0x1e},
	HDPrivateKey: [4]byte{0x04, 0x88, 0xad, 0xe4},
	PubKeyHash:   0x00,
	ScriptHash:   0x05,
	Wif:          0x80,
	HDCoinType:   0,
	Params:       &chaincfg.MainNetParams,
}

// Testnet defines the network parameters for the test network (version 3).
var Testnet = Network{
	Name:         "testnet",
	Bech32:       "tb",
	HDPublicKey:  [4]byte{0x04, 0x35, 0x87, 0xcf},
	HDPrivateKey: [4]byte{0x04, 0x35, 0x83, 0x94},
	PubKeyHash:   0x6f,
	ScriptHash:   0xc4,
	Wif:          0xef,
	HDCoinType:   1,
	Params:       &chaincfg.TestNet3Params,
}

// Signet defines the network parameters for the default signet.
var Signet = Network{
	Name:         "signet",
	Bech32:       "tb",
	HDPublicKey:  [4]byte{0x04, 0x35, 0x87, 0xcf},
	HDPrivateKey: [4]byte{0x04, 0x35, 0x83, 0x94},
	PubKeyHash:   0x6f,
	ScriptHash:   0xc4,
	Wif:          0xef,
	HDCoinType:   1,
	Params:       &chaincfg.SigNetParams,
}

// Regtest defines the network parameters for the regression test network.
var Regtest = Network{
	Name:         "regtest",
	Bech32:       "bcrt",
	HDPublicKey:  [4]byte{0x04, 0x35, 0x87, 0xcf},
	HDPrivateKey: [4]byte{0x04, 0x35, 0x83, 0x94},
	PubKeyHash:   0x6f,
	ScriptHash:   0xc4,
	Wif:          0xef,
	HDCoinType:   1,
	Params:       &chaincfg.RegressionNetParams,
}

// FromName returns the network registered under name (case insensitive).
func FromName(name string) (*Network, error) {
	switch strings.ToLower(name) {
	case Mainnet.Name, "main", "bitcoin":
		return &Mainnet, nil
	case Testnet.Name, "testnet3", "test":
		return &Testnet, nil
	case Signet.Name:
		return &Signet, nil
	case Regtest.Name:
		return &Regtest, nil
	}
	return nil, fmt.Errorf("unknown network %q", name)
}
