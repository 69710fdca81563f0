/*
Package payment derives Bitcoin addresses and locking scripts from keys and
scripts.

It can be used for the creation of p2pkh, p2ms, p2sh, non-native SegWit and
native SegWit addresses.
*/
package payment
