/*
Package script builds and classifies Bitcoin scripts.

It covers the locking scripts of p2pkh, p2sh and segwit addresses, the
unlocking scripts of p2pkh and p2sh multisig inputs, the redeem scripts
used to nest segwit programs inside p2sh, and the BIP 143 scriptCode of
p2wpkh programs.

Classification is structural and total: TypeOf never fails, DetermineType
reports ErrUnknownScript for anything it cannot name.
*/
package script
