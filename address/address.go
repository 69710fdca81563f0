package address

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/nlanson/btc-tx/network"
)

var (
	// ErrInvalidAddress is returned when an address fails to decode or its
	// checksum does not match.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrInvalidPayloadLength is returned when a decoded payload has the
	// wrong size for its kind.
	ErrInvalidPayloadLength = errors.New("invalid address payload length")
	// ErrNetworkMismatch is returned when an address belongs to another
	// network.
	ErrNetworkMismatch = errors.New("address is not valid for network")
)

// Type is the kind of locking script an address pays to.
type Type int

const (
	// P2PKH is a base58 pay-to-pubkey-hash address.
	P2PKH Type = iota
	// P2SH is a base58 pay-to-script-hash address.
	P2SH
	// P2WPKH is a bech32 version 0 address with a 20-byte program.
	P2WPKH
	// P2WSH is a bech32 version 0 address with a 32-byte program.
	P2WSH
	// WitnessUnknown is a bech32m address with a witness version above 0.
	WitnessUnknown
)

func (t Type) String() string {
	switch t {
	case P2PKH:
		return "p2pkh"
	case P2SH:
		return "p2sh"
	case P2WPKH:
		return "p2wpkh"
	case P2WSH:
		return "p2wsh"
	case WitnessUnknown:
		return "witness_unknown"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Base58 type defines the structure of a legacy or wrapped segwit address
type Base58 struct {
	Version byte
	Data    []byte
}

// Bech32 defines the structure of a native segwit address
type Bech32 struct {
	Prefix  string
	Version byte
	Data    []byte
}

// FromBase58 decodes a string that was base58 encoded and verifies the checksum.
func FromBase58(address string) (*Base58, error) {
	decoded, version, err := base58.CheckDecode(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidAddress, address, err)
	}

	if len(decoded) != 20 {
		return nil, fmt.Errorf(
			"%w: %s has %d bytes", ErrInvalidPayloadLength, address, len(decoded),
		)
	}

	return &Base58{version, decoded}, nil
}

// ToBase58 prepends a version byte and appends a four byte checksum.
func ToBase58(b *Base58) string {
	return base58.CheckEncode(b.Data, b.Version)
}

// FromBech32 decodes a segwit address, checking the BIP 173 and BIP 350
// rules: version 0 programs are bech32 encoded and 20 or 32 bytes long,
// higher versions are bech32m encoded and 2 to 40 bytes long.
func FromBech32(address string) (*Bech32, error) {
	hrp, data, encoding, err := bech32.DecodeGeneric(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidAddress, address, err)
	}
	if len(data) < 1 {
		return nil, fmt.Errorf("%w: %s has no witness version", ErrInvalidAddress, address)
	}

	version := data[0]
	if version > 16 {
		return nil, fmt.Errorf("%w: witness version %d", ErrInvalidAddress, version)
	}
	program, err := bech32.ConvertBits(data[1:], 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidAddress, address, err)
	}

	switch {
	case version == 0 && encoding != bech32.Version0:
		return nil, fmt.Errorf("%w: version 0 program must use bech32", ErrInvalidAddress)
	case version != 0 && encoding != bech32.VersionM:
		return nil, fmt.Errorf("%w: version %d program must use bech32m", ErrInvalidAddress, version)
	case version == 0 && len(program) != 20 && len(program) != 32:
		return nil, fmt.Errorf(
			"%w: version 0 program of %d bytes", ErrInvalidPayloadLength, len(program),
		)
	case len(program) < 2 || len(program) > 40:
		return nil, fmt.Errorf(
			"%w: program of %d bytes", ErrInvalidPayloadLength, len(program),
		)
	}

	return &Bech32{strings.ToLower(hrp), version, program}, nil
}

// ToBech32 encodes the witness program with bech32 for version 0 and
// bech32m above.
func ToBech32(b *Bech32) (string, error) {
	converted, err := bech32.ConvertBits(b.Data, 8, 5, true)
	if err != nil {
		return "", err
	}
	data := append([]byte{b.Version}, converted...)
	if b.Version == 0 {
		return bech32.Encode(b.Prefix, data)
	}
	return bech32.EncodeM(b.Prefix, data)
}

// Decoded is an address decoded against a network.
type Decoded struct {
	Type Type
	// Hash is the 20-byte hash for base58 addresses and the witness
	// program for bech32 ones.
	Hash []byte
	// WitnessVersion is meaningful for bech32 addresses only.
	WitnessVersion byte
}

// Decode decodes address and checks it belongs to net.
func Decode(address string, net *network.Network) (*Decoded, error) {
	if isBech32(address, net) {
		b, err := FromBech32(address)
		if err != nil {
			return nil, err
		}
		if b.Prefix != net.Bech32 {
			return nil, fmt.Errorf("%w: %s on %s", ErrNetworkMismatch, address, net.Name)
		}
		d := &Decoded{Type: WitnessUnknown, Hash: b.Data, WitnessVersion: b.Version}
		if b.Version == 0 {
			d.Type = P2WPKH
			if len(b.Data) == 32 {
				d.Type = P2WSH
			}
		}
		return d, nil
	}

	b, err := FromBase58(address)
	if err != nil {
		return nil, err
	}
	switch b.Version {
	case net.PubKeyHash:
		return &Decoded{Type: P2PKH, Hash: b.Data}, nil
	case net.ScriptHash:
		return &Decoded{Type: P2SH, Hash: b.Data}, nil
	}
	return nil, fmt.Errorf("%w: %s on %s", ErrNetworkMismatch, address, net.Name)
}

func isBech32(address string, net *network.Network) bool {
	return strings.HasPrefix(strings.ToLower(address), net.Bech32+"1")
}
