// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

// ScriptClass identifies the variant of a pay-to-* output script
// (spec.md 3, "An output ... carries a script-public-key (variant: ...)").
type ScriptClass int

const (
	NonStandardTy ScriptClass = iota
	PubKeyTy
	PubKeyHashTy
	ScriptHashTy
	WitnessV0PubKeyHashTy
	WitnessV0ScriptHashTy
)

// String names the class, matching the teacher's pattern of a String()
// pretty-printer on every enum type in this pack.
func (c ScriptClass) String() string {
	switch c {
	case PubKeyTy:
		return "pubkey"
	case PubKeyHashTy:
		return "pubkeyhash"
	case ScriptHashTy:
		return "scripthash"
	case WitnessV0PubKeyHashTy:
		return "witness_v0_keyhash"
	case WitnessV0ScriptHashTy:
		return "witness_v0_scripthash"
	default:
		return "nonstandard"
	}
}

// PayToPubKeyHashScript builds a P2PKH output script for a 20-byte
// hash160 of a public key.
func PayToPubKeyHashScript(pubKeyHash []byte) ([]byte, error) {
	return NewScriptBuilder().
		AddOp(OP_DUP).
		AddOp(OP_HASH160).
		AddData(pubKeyHash).
		AddOp(OP_EQUALVERIFY).
		AddOp(OP_CHECKSIG).
		Script()
}

// PayToPubKeyScript builds a bare P2PK output script for a serialized
// public key.
func PayToPubKeyScript(serializedPubKey []byte) ([]byte, error) {
	return NewScriptBuilder().
		AddData(serializedPubKey).
		AddOp(OP_CHECKSIG).
		Script()
}

// PayToScriptHashScript builds a P2SH output script for a 20-byte
// hash160 of a redeem script.
func PayToScriptHashScript(scriptHash []byte) ([]byte, error) {
	return NewScriptBuilder().
		AddOp(OP_HASH160).
		AddData(scriptHash).
		AddOp(OP_EQUAL).
		Script()
}

// PayToWitnessPubKeyHashScript builds a P2WPKH output script (segwit v0)
// for a 20-byte hash160 of a public key.
func PayToWitnessPubKeyHashScript(pubKeyHash []byte) ([]byte, error) {
	return NewScriptBuilder().AddOp(OP_0).AddData(pubKeyHash).Script()
}

// PayToWitnessScriptHashScript builds a P2WSH output script (segwit v0)
// for a 32-byte sha256 of a witness script.
func PayToWitnessScriptHashScript(scriptHash []byte) ([]byte, error) {
	return NewScriptBuilder().AddOp(OP_0).AddData(scriptHash).Script()
}

// ExtractPkScriptAddr classifies pkScript and returns the hash/key payload
// it commits to (the hash160, the 32-byte witness program, or the raw
// public key, depending on class).
func ExtractPkScriptAddr(pkScript []byte) (ScriptClass, []byte) {
	switch {
	case isPubKeyHash(pkScript):
		return PubKeyHashTy, pkScript[3:23]
	case isScriptHash(pkScript):
		return ScriptHashTy, pkScript[2:22]
	case isWitnessPubKeyHash(pkScript):
		return WitnessV0PubKeyHashTy, pkScript[2:22]
	case isWitnessScriptHash(pkScript):
		return WitnessV0ScriptHashTy, pkScript[2:34]
	case isPubKey(pkScript):
		return PubKeyTy, pkScript[1 : len(pkScript)-1]
	default:
		return NonStandardTy, nil
	}
}

func isPubKeyHash(s []byte) bool {
	return len(s) == 25 &&
		s[0] == OP_DUP && s[1] == OP_HASH160 && s[2] == 20 &&
		s[23] == OP_EQUALVERIFY && s[24] == OP_CHECKSIG
}

func isScriptHash(s []byte) bool {
	return len(s) == 23 && s[0] == OP_HASH160 && s[1] == 20 && s[22] == OP_EQUAL
}

func isWitnessPubKeyHash(s []byte) bool {
	return len(s) == 22 && s[0] == OP_0 && s[1] == 20
}

func isWitnessScriptHash(s []byte) bool {
	return len(s) == 34 && s[0] == OP_0 && s[1] == 32
}

func isPubKey(s []byte) bool {
	if len(s) == 35 && s[0] == 33 && s[34] == OP_CHECKSIG {
		return true
	}
	return len(s) == 67 && s[0] == 65 && s[66] == OP_CHECKSIG
}
