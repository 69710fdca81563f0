// Package keys wraps secp256k1 private keys for transaction signing.
//
// Public keys are always compressed. Signatures are deterministic
// (RFC 6979), low-S and low-R: when the first nonce yields an r with its top
// bit set, signing is retried with an incrementing counter as extra nonce
// data, the way libsecp256k1 based wallets grind for 71 byte signatures.
package keys

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/nlanson/btc-tx/network"
)

var (
	// ErrInvalidKey is returned for private keys that are not 32 bytes or
	// are out of the curve order.
	ErrInvalidKey = errors.New("invalid private key")
	// ErrInvalidDigest is returned when the message to sign is not a 32 byte
	// digest.
	ErrInvalidDigest = errors.New("digest must be 32 bytes")
	// ErrNetworkMismatch is returned when a WIF key belongs to another
	// network.
	ErrNetworkMismatch = errors.New("key is not valid for network")
	// ErrUncompressedKey is returned for WIF keys flagged uncompressed.
	ErrUncompressedKey = errors.New("uncompressed keys are not supported")
)

// PrivateKey is a secp256k1 private key.
type PrivateKey struct {
	key *btcec.PrivateKey
}

// NewPrivateKey returns the private key of the 32 big-endian bytes b.
func NewPrivateKey(b []byte) (*PrivateKey, error) {
	if len(b) != btcec.PrivKeyBytesLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidKey, len(b))
	}
	var scalar btcec.ModNScalar
	if overflow := scalar.SetByteSlice(b); overflow || scalar.IsZero() {
		return nil, fmt.Errorf("%w: out of range", ErrInvalidKey)
	}
	return &PrivateKey{secp256k1.NewPrivateKey(&scalar)}, nil
}

// FromWIF decodes a compressed WIF key of net.
func FromWIF(wif string, net *network.Network) (*PrivateKey, error) {
	decoded, err := btcutil.DecodeWIF(wif)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if !decoded.IsForNet(net.Params) {
		return nil, fmt.Errorf("%w: %s", ErrNetworkMismatch, net.Name)
	}
	if !decoded.CompressPubKey {
		return nil, ErrUncompressedKey
	}
	return &PrivateKey{decoded.PrivKey}, nil
}

// WIF encodes the key for net with the compressed flag set.
func (k *PrivateKey) WIF(net *network.Network) (string, error) {
	wif, err := btcutil.NewWIF(k.key, net.Params, true)
	if err != nil {
		return "", err
	}
	return wif.String(), nil
}

// Serialize returns the 32 byte big-endian secret.
func (k *PrivateKey) Serialize() []byte {
	return k.key.Serialize()
}

// PubKey returns the public key.
func (k *PrivateKey) PubKey() *btcec.PublicKey {
	return k.key.PubKey()
}

// PubKeyBytes returns the 33 byte compressed public key.
func (k *PrivateKey) PubKeyBytes() []byte {
	return k.key.PubKey().SerializeCompressed()
}

// Sign returns the DER encoded low-R signature of digest.
func (k *PrivateKey) Sign(digest []byte) ([]byte, error) {
	if len(digest) != 32 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidDigest, len(digest))
	}
	return signLowR(k.key, digest).Serialize(), nil
}

// signLowR grinds the RFC 6979 extra data until r is below 2^255. The first
// attempt uses no extra data, attempt n uses 32 bytes holding n in little
// endian.
func signLowR(key *btcec.PrivateKey, digest []byte) *ecdsa.Signature {
	var keyBytes [32]byte
	key.Key.PutBytes(&keyBytes)
	defer func() {
		for i := range keyBytes {
			keyBytes[i] = 0
		}
	}()

	var extra []byte
	for counter := uint32(1); ; counter++ {
		r, s := signRFC6979(&key.Key, keyBytes[:], digest, extra)
		if r.Bytes()[0] < 0x80 {
			return ecdsa.NewSignature(r, s)
		}
		extra = make([]byte, 32)
		binary.LittleEndian.PutUint32(extra, counter)
	}
}

// signRFC6979 is the ECDSA signature of digest with the RFC 6979 nonce
// derived from keyBytes, digest and extra. s is normalized to the lower
// half of the order.
func signRFC6979(
	d *btcec.ModNScalar,
	keyBytes, digest, extra []byte,
) (*btcec.ModNScalar, *btcec.ModNScalar) {
	var e btcec.ModNScalar
	e.SetByteSlice(digest)

	for iteration := uint32(0); ; iteration++ {
		k := secp256k1.NonceRFC6979(keyBytes, digest, extra, nil, iteration)

		var point secp256k1.JacobianPoint
		secp256k1.ScalarBaseMultNonConst(k, &point)
		point.ToAffine()

		var r btcec.ModNScalar
		r.SetBytes(point.X.Bytes())
		if r.IsZero() {
			k.Zero()
			continue
		}

		kInv := new(btcec.ModNScalar).InverseValNonConst(k)
		k.Zero()
		s := new(btcec.ModNScalar).Mul2(d, &r).Add(&e).Mul(kInv)
		if s.IsZero() {
			continue
		}
		if s.IsOverHalfOrder() {
			s.Negate()
		}
		return &r, s
	}
}
