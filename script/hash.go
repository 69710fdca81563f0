package script

import (
	"crypto/sha256"
	"hash"

	"github.com/vulpemventures/fastsha256"
	"golang.org/x/crypto/ripemd160"
)

// Calculate the hash of hasher over buf.
func calcHash(buf []byte, hasher hash.Hash) []byte {
	hasher.Write(buf)
	return hasher.Sum(nil)
}

// Hash160 calculates the hash ripemd160(sha256(b)).
func Hash160(buf []byte) []byte {
	return calcHash(calcHash(buf, sha256.New()), ripemd160.New())
}

// WitnessScriptHash is the single sha256 committed to by a p2wsh program.
func WitnessScriptHash(witnessScript []byte) []byte {
	h := fastsha256.Sum256(witnessScript)
	return h[:]
}
