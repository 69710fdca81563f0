package txbuilder

import (
	"errors"
	"fmt"

	"github.com/nlanson/btc-tx/script"
	"github.com/nlanson/btc-tx/transaction"
)

var (
	// ErrTxCommitted is returned when adding an input or an output would
	// invalidate a signature already made.
	ErrTxCommitted = errors.New("transaction is committed by a signed input")
	// ErrInvalidInputIndex is returned for an index past the inputs.
	ErrInvalidInputIndex = errors.New("invalid input index")
	// ErrUnsignedInput is returned by Build for inputs with neither a
	// scriptSig nor a witness.
	ErrUnsignedInput = errors.New("input is not signed")
	// ErrInputAlreadySigned is returned when signing an input twice.
	ErrInputAlreadySigned = errors.New("input is already signed")
	// ErrOutputIndexMissing is returned when signing SINGLE an input with
	// no output at its index.
	ErrOutputIndexMissing = transaction.ErrOutputIndexMissing
	// ErrInvalidSigHashType is returned for unknown sighash types.
	ErrInvalidSigHashType = transaction.ErrInvalidSigHashType
	// ErrUnknownScriptType is returned when the prevout script is not one
	// the builder can sign.
	ErrUnknownScriptType = errors.New("unknown prevout script type")
	// ErrInvalidSigningData is returned for a wrong number of keys or keys
	// and scripts that do not match the prevout.
	ErrInvalidSigningData = errors.New("invalid signing data")
	// ErrRedeemScriptMissing is returned when signing a p2sh input without
	// a redeem script.
	ErrRedeemScriptMissing = errors.New("redeem script is required")
	// ErrWitnessScriptMissing is returned when signing a p2wsh input
	// without a witness script.
	ErrWitnessScriptMissing = errors.New("witness script is required")
	// ErrCannotGetScriptPubKey is returned when the prevout of an input
	// cannot be resolved.
	ErrCannotGetScriptPubKey = errors.New("cannot get prevout script pubkey")
)

// InputError reports a failure bound to one input.
type InputError struct {
	Index int
	Err   error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input %d: %v", e.Index, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

func inputError(index int, err error) error {
	return &InputError{Index: index, Err: err}
}

func invalidSigningData(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidSigningData, fmt.Sprintf(format, args...))
}

func unknownScriptType(t script.Type) error {
	return fmt.Errorf("%w: %s", ErrUnknownScriptType, t)
}
