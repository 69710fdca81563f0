/*
Package txbuilder builds and signs bitcoin transactions.

A Builder collects inputs and outputs, then signs each input with the
algorithm its spent output requires: p2pkh and p2sh multisig inputs get a
legacy scriptSig, p2wpkh and p2wsh inputs get a BIP 143 witness, and
witness programs nested in p2sh get both. Signing an input with a hash
type that commits to every input or every output closes that side of the
transaction to further changes.
*/
package txbuilder
