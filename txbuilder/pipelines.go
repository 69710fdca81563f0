package txbuilder

import (
	"bytes"

	"github.com/nlanson/btc-tx/keys"
	"github.com/nlanson/btc-tx/resolver"
	"github.com/nlanson/btc-tx/script"
	"github.com/nlanson/btc-tx/transaction"
)

// signJob is one input being signed against the unsigned transaction.
type signJob struct {
	tx       *transaction.Transaction
	index    int
	prevout  *resolver.Prevout
	data     SigningData
	hashType transaction.SigHashType
}

// signature is the outcome of a pipeline. Nested segwit inputs carry both
// a scriptSig and a witness.
type signature struct {
	scriptSig []byte
	witness   transaction.TxWitness
}

func (s *signature) segwit() bool {
	return s.witness != nil
}

type pipeline func(job *signJob) (*signature, error)

func pipelineFor(t script.Type) (pipeline, error) {
	switch t {
	case script.P2PKH:
		return signP2PKH, nil
	case script.P2WPKH:
		return signP2WPKH, nil
	case script.P2SH:
		return signP2SH, nil
	case script.P2WSH:
		return signP2WSH, nil
	}
	return nil, unknownScriptType(t)
}

func signP2PKH(job *signJob) (*signature, error) {
	key, err := singleKey(job.data.Keys)
	if err != nil {
		return nil, err
	}
	spk := job.prevout.Script
	if len(spk) == 25 && !bytes.Equal(spk[3:23], script.Hash160(key.PubKeyBytes())) {
		return nil, invalidSigningData("key does not match p2pkh prevout")
	}

	digest, err := job.tx.HashForSignature(job.index, spk, job.hashType)
	if err != nil {
		return nil, err
	}
	sig, err := key.Sign(digest[:])
	if err != nil {
		return nil, err
	}
	scriptSig, err := script.PKHUnlocking(sig, key.PubKeyBytes(), job.hashType)
	if err != nil {
		return nil, err
	}
	return &signature{scriptSig: scriptSig}, nil
}

func signP2WPKH(job *signJob) (*signature, error) {
	witness, err := p2wpkhWitness(job, job.prevout.Script)
	if err != nil {
		return nil, err
	}
	return &signature{witness: witness}, nil
}

// p2wpkhWitness signs program, the p2wpkh prevout or the redeem script of
// a nested one.
func p2wpkhWitness(job *signJob, program []byte) (transaction.TxWitness, error) {
	key, err := singleKey(job.data.Keys)
	if err != nil {
		return nil, err
	}
	pubkey := key.PubKeyBytes()
	if !bytes.Equal(script.WitnessProgram(program), script.Hash160(pubkey)) {
		return nil, invalidSigningData("key does not match p2wpkh program")
	}

	scriptCode, err := script.P2WPKHScriptCode(program)
	if err != nil {
		return nil, err
	}
	digest, err := job.tx.HashForWitnessV0(
		job.index, scriptCode, job.prevout.Value, job.hashType,
	)
	if err != nil {
		return nil, err
	}
	sig, err := key.Sign(digest[:])
	if err != nil {
		return nil, err
	}
	return transaction.P2WPKHWitness(sig, pubkey, job.hashType), nil
}

func signP2WSH(job *signJob) (*signature, error) {
	witnessScript := job.data.WitnessScript
	if len(witnessScript) == 0 {
		return nil, ErrWitnessScriptMissing
	}
	if !bytes.Equal(
		script.WitnessProgram(job.prevout.Script),
		script.WitnessScriptHash(witnessScript),
	) {
		return nil, invalidSigningData("witness script does not match p2wsh program")
	}

	witness, err := p2wshWitness(job, witnessScript)
	if err != nil {
		return nil, err
	}
	return &signature{witness: witness}, nil
}

func p2wshWitness(job *signJob, witnessScript []byte) (transaction.TxWitness, error) {
	digest, err := job.tx.HashForWitnessV0(
		job.index, witnessScript, job.prevout.Value, job.hashType,
	)
	if err != nil {
		return nil, err
	}
	sigs, err := signWithAll(job.data.Keys, digest[:])
	if err != nil {
		return nil, err
	}
	return transaction.P2WSHWitness(sigs, witnessScript, job.hashType), nil
}

// signP2SH spends a legacy redeem script, or a witness program nested in
// p2sh when the redeem script is one or is declared as such.
func signP2SH(job *signJob) (*signature, error) {
	redeem := job.data.RedeemScript
	if redeem == nil || len(redeem.Script) == 0 {
		return nil, ErrRedeemScriptMissing
	}

	if redeem.Kind == RedeemNestedWitnessV0 {
		program, err := script.P2SHP2WSHRedeemScript(redeem.Script)
		if err != nil {
			return nil, err
		}
		return nestedP2WSH(job, program, redeem.Script)
	}

	if err := checkScriptHash(job.prevout.Script, redeem.Script); err != nil {
		return nil, err
	}

	switch script.TypeOf(redeem.Script) {
	case script.P2WPKH:
		witness, err := p2wpkhWitness(job, redeem.Script)
		if err != nil {
			return nil, err
		}
		return nested(redeem.Script, witness)
	case script.P2WSH:
		if len(job.data.WitnessScript) == 0 {
			return nil, ErrWitnessScriptMissing
		}
		return nestedP2WSH(job, redeem.Script, job.data.WitnessScript)
	}

	if len(job.data.Keys) == 0 {
		return nil, invalidSigningData("no keys")
	}
	digest, err := job.tx.HashForSignature(job.index, redeem.Script, job.hashType)
	if err != nil {
		return nil, err
	}
	sigs, err := signWithAll(job.data.Keys, digest[:])
	if err != nil {
		return nil, err
	}
	scriptSig, err := script.P2SHMultisigUnlocking(sigs, redeem.Script, job.hashType)
	if err != nil {
		return nil, err
	}
	return &signature{scriptSig: scriptSig}, nil
}

func nestedP2WSH(job *signJob, program, witnessScript []byte) (*signature, error) {
	if err := checkScriptHash(job.prevout.Script, program); err != nil {
		return nil, err
	}
	if !bytes.Equal(script.WitnessProgram(program), script.WitnessScriptHash(witnessScript)) {
		return nil, invalidSigningData("witness script does not match p2wsh program")
	}
	witness, err := p2wshWitness(job, witnessScript)
	if err != nil {
		return nil, err
	}
	return nested(program, witness)
}

// nested returns the signature of a nested segwit input whose scriptSig
// only pushes the witness program.
func nested(program []byte, witness transaction.TxWitness) (*signature, error) {
	scriptSig, err := script.PushData(program)
	if err != nil {
		return nil, err
	}
	return &signature{scriptSig: scriptSig, witness: witness}, nil
}

// checkScriptHash checks redeemScript hashes to a standard p2sh prevout.
// Other scripts classified as p2sh are not checked.
func checkScriptHash(prevoutScript, redeemScript []byte) error {
	if len(prevoutScript) != 23 || prevoutScript[0] != 0xa9 {
		return nil
	}
	if !bytes.Equal(prevoutScript[2:22], script.Hash160(redeemScript)) {
		return invalidSigningData("redeem script does not match p2sh prevout")
	}
	return nil
}

func singleKey(ks []*keys.PrivateKey) (*keys.PrivateKey, error) {
	if len(ks) != 1 || ks[0] == nil {
		return nil, invalidSigningData("expected exactly one key, got %d", len(ks))
	}
	return ks[0], nil
}

func signWithAll(ks []*keys.PrivateKey, digest []byte) ([][]byte, error) {
	if len(ks) == 0 {
		return nil, invalidSigningData("no keys")
	}
	sigs := make([][]byte, 0, len(ks))
	for i, key := range ks {
		if key == nil {
			return nil, invalidSigningData("key %d is nil", i)
		}
		sig, err := key.Sign(digest)
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}
