package txbuilder

import (
	"context"
	"fmt"
	"time"

	"github.com/nlanson/btc-tx/network"
	"github.com/nlanson/btc-tx/resolver"
	"github.com/nlanson/btc-tx/script"
	"github.com/nlanson/btc-tx/transaction"
	"go.uber.org/zap"
)

// Metrics records input signing attempts.
type Metrics interface {
	ObserveSign(scriptType, sighash string, err error, started time.Time)
}

type nopMetrics struct{}

func (nopMetrics) ObserveSign(string, string, error, time.Time) {}

type signState int

const (
	unsigned signState = iota
	signedLegacy
	signedSegwit
)

// inputRecord is an input with its signing outcome. A legacy input holds
// a scriptSig, a segwit one a witness and, when nested, a scriptSig too.
type inputRecord struct {
	input     *transaction.TxInput
	state     signState
	scriptSig []byte
	witness   transaction.TxWitness
	hashType  transaction.SigHashType
}

func (r *inputRecord) signed() bool {
	return r.state != unsigned
}

// Builder accumulates inputs and outputs and signs inputs one at a time.
// It is not safe for concurrent use.
type Builder struct {
	network  *network.Network
	version  int32
	locktime uint32
	prevouts resolver.PrevoutResolver
	logger   *zap.Logger
	metrics  Metrics

	inputs  []*inputRecord
	outputs []*transaction.TxOutput
}

// Option configures a Builder.
type Option func(*Builder)

// WithNetwork sets the network output addresses are decoded against.
// Defaults to mainnet.
func WithNetwork(net *network.Network) Option {
	return func(b *Builder) {
		b.network = net
	}
}

// WithVersion sets the transaction version.
func WithVersion(version int32) Option {
	return func(b *Builder) {
		b.version = version
	}
}

// WithLocktime sets the transaction locktime.
func WithLocktime(locktime uint32) Option {
	return func(b *Builder) {
		b.locktime = locktime
	}
}

// WithLogger sets the logger, zap.NewNop by default.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// WithMetrics sets the collector of signing metrics.
func WithMetrics(m Metrics) Option {
	return func(b *Builder) {
		b.metrics = m
	}
}

// New returns an empty Builder resolving the outputs spent by its inputs
// through prevouts.
func New(prevouts resolver.PrevoutResolver, opts ...Option) *Builder {
	b := &Builder{
		network:  &network.Mainnet,
		version:  transaction.DefaultVersion,
		prevouts: prevouts,
		logger:   zap.NewNop(),
		metrics:  nopMetrics{},
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.network == nil {
		b.network = &network.Mainnet
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	if b.metrics == nil {
		b.metrics = nopMetrics{}
	}
	return b
}

// NumInputs returns the number of inputs added so far.
func (b *Builder) NumInputs() int {
	return len(b.inputs)
}

// NumOutputs returns the number of outputs added so far.
func (b *Builder) NumOutputs() int {
	return len(b.outputs)
}

// AddInput adds an input spending output vout of txid, given in display
// hex, with the final sequence.
func (b *Builder) AddInput(txid string, vout uint32) error {
	return b.AddInputWithSequence(txid, vout, transaction.DefaultSequence)
}

// AddInputWithSequence is AddInput with an explicit sequence. It fails
// with ErrTxCommitted once an input is signed with a hash type that
// commits to all inputs.
func (b *Builder) AddInputWithSequence(txid string, vout, sequence uint32) error {
	for i, rec := range b.inputs {
		if rec.signed() && rec.hashType.CommitsAllInputs() {
			b.logger.Warn("rejected input",
				zap.String("txid", txid),
				zap.Int("signed_input", i),
				zap.Stringer("sighash", rec.hashType),
			)
			return fmt.Errorf("%w: input %d signed %s", ErrTxCommitted, i, rec.hashType)
		}
	}

	in, err := transaction.NewTxInputFromString(txid, vout)
	if err != nil {
		return err
	}
	in.Sequence = sequence
	b.inputs = append(b.inputs, &inputRecord{input: in})

	b.logger.Debug("input added",
		zap.Int("index", len(b.inputs)-1),
		zap.String("txid", txid),
		zap.Uint32("vout", vout),
	)
	return nil
}

// AddOutput adds an output paying value satoshis to address.
func (b *Builder) AddOutput(address string, value uint64) error {
	if err := b.checkOutputsOpen(); err != nil {
		return err
	}
	lockingScript, err := script.FromAddress(address, b.network)
	if err != nil {
		return err
	}
	return b.addOutput(lockingScript, value)
}

// AddOutputScript adds an output paying value satoshis to lockingScript.
func (b *Builder) AddOutputScript(lockingScript []byte, value uint64) error {
	if err := b.checkOutputsOpen(); err != nil {
		return err
	}
	return b.addOutput(append([]byte{}, lockingScript...), value)
}

func (b *Builder) addOutput(lockingScript []byte, value uint64) error {
	b.outputs = append(b.outputs, transaction.NewTxOutput(value, lockingScript))
	b.logger.Debug("output added",
		zap.Int("index", len(b.outputs)-1),
		zap.Uint64("value", value),
		zap.Stringer("script_type", script.TypeOf(lockingScript)),
	)
	return nil
}

func (b *Builder) checkOutputsOpen() error {
	for i, rec := range b.inputs {
		if rec.signed() && rec.hashType.CommitsAllOutputs() {
			b.logger.Warn("rejected output",
				zap.Int("signed_input", i),
				zap.Stringer("sighash", rec.hashType),
			)
			return fmt.Errorf("%w: input %d signed %s", ErrTxCommitted, i, rec.hashType)
		}
	}
	return nil
}

// SignInput signs input index with data. The spent output is resolved to
// pick the signing algorithm from its script type. On failure the input
// is left unsigned.
func (b *Builder) SignInput(
	ctx context.Context,
	index int,
	data SigningData,
	hashType transaction.SigHashType,
) (err error) {
	started := time.Now()
	scriptType := script.NonStandard
	defer func() {
		b.metrics.ObserveSign(scriptType.String(), hashType.String(), err, started)
	}()

	if index < 0 || index >= len(b.inputs) {
		return inputError(index, ErrInvalidInputIndex)
	}
	if !hashType.IsValid() {
		return inputError(index, fmt.Errorf("%w: 0x%x", ErrInvalidSigHashType, uint32(hashType)))
	}
	rec := b.inputs[index]
	if rec.signed() {
		return inputError(index, ErrInputAlreadySigned)
	}

	prevout, err := b.prevouts.ResolvePrevout(ctx, rec.input.Hash, rec.input.Index)
	if err != nil {
		return inputError(index, fmt.Errorf("%w: %w", ErrCannotGetScriptPubKey, err))
	}
	scriptType = script.TypeOf(prevout.Script)
	b.logger.Debug("prevout resolved",
		zap.Int("index", index),
		zap.Stringer("script_type", scriptType),
		zap.Uint64("value", prevout.Value),
	)

	sign, err := pipelineFor(scriptType)
	if err != nil {
		return inputError(index, err)
	}
	sig, err := sign(&signJob{
		tx:       b.unsignedTx(),
		index:    index,
		prevout:  prevout,
		data:     data,
		hashType: hashType,
	})
	if err != nil {
		return inputError(index, err)
	}

	rec.scriptSig = sig.scriptSig
	rec.witness = sig.witness
	rec.hashType = hashType
	rec.state = signedLegacy
	if sig.segwit() {
		rec.state = signedSegwit
	}

	b.logger.Debug("input signed",
		zap.Int("index", index),
		zap.Stringer("sighash", hashType),
		zap.Bool("segwit", sig.segwit()),
	)
	return nil
}

// unsignedTx returns the transaction the signatures commit to, with empty
// scriptSigs and witnesses.
func (b *Builder) unsignedTx() *transaction.Transaction {
	tx := transaction.NewTx(b.version)
	tx.Locktime = b.locktime
	for _, rec := range b.inputs {
		in := transaction.NewTxInput(&rec.input.Hash, rec.input.Index)
		in.Sequence = rec.input.Sequence
		tx.AddInput(in)
	}
	for _, out := range b.outputs {
		tx.AddOutput(out)
	}
	return tx
}

// Build returns the signed transaction. Every input must be signed.
// The Builder is left untouched and Build can be called again.
func (b *Builder) Build() (*transaction.Transaction, error) {
	for i, rec := range b.inputs {
		if !rec.signed() {
			return nil, inputError(i, ErrUnsignedInput)
		}
	}

	tx := b.unsignedTx()
	for i, rec := range b.inputs {
		in := tx.Inputs[i]
		in.Script = append([]byte{}, rec.scriptSig...)
		if rec.state == signedSegwit {
			in.Witness = copyWitness(rec.witness)
		}
	}
	for i, out := range tx.Outputs {
		tx.Outputs[i] = transaction.NewTxOutput(out.Value, append([]byte{}, out.Script...))
	}

	if ce := b.logger.Check(zap.DebugLevel, "transaction built"); ce != nil {
		txid, err := tx.TxHash()
		if err != nil {
			return nil, err
		}
		ce.Write(
			zap.Stringer("txid", txid),
			zap.Bool("segwit", tx.HasWitness()),
			zap.Int("vsize", tx.VirtualSize()),
		)
	}
	return tx, nil
}

func copyWitness(w transaction.TxWitness) transaction.TxWitness {
	c := make(transaction.TxWitness, 0, len(w))
	for _, item := range w {
		c = append(c, append([]byte{}, item...))
	}
	return c
}
