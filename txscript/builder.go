// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import "fmt"

// ScriptBuilder assembles a script byte-by-byte, matching the opcode- and
// push-encoding rules the teacher's own builder code follows elsewhere in
// the pack (minimal push encoding, no canonicalization beyond that).
type ScriptBuilder struct {
	script []byte
	err    error
}

// NewScriptBuilder returns an empty builder.
func NewScriptBuilder() *ScriptBuilder {
	return &ScriptBuilder{}
}

// AddOp appends a single opcode.
func (b *ScriptBuilder) AddOp(op byte) *ScriptBuilder {
	if b.err != nil {
		return b
	}
	b.script = append(b.script, op)
	return b
}

// AddData appends data using the shortest valid push opcode for its
// length.
func (b *ScriptBuilder) AddData(data []byte) *ScriptBuilder {
	if b.err != nil {
		return b
	}
	n := len(data)
	switch {
	case n == 0:
		b.script = append(b.script, OP_0)
	case n <= OP_DATA_MAX:
		b.script = append(b.script, byte(n))
		b.script = append(b.script, data...)
	case n <= 0xff:
		b.script = append(b.script, OP_PUSHDATA1, byte(n))
		b.script = append(b.script, data...)
	case n <= 0xffff:
		b.script = append(b.script, OP_PUSHDATA2, byte(n), byte(n>>8))
		b.script = append(b.script, data...)
	case uint64(n) <= 0xffffffff:
		b.script = append(b.script, OP_PUSHDATA4, byte(n), byte(n>>8), byte(n>>16), byte(n>>24))
		b.script = append(b.script, data...)
	default:
		b.err = fmt.Errorf("data push of %d bytes exceeds maximum script element size", n)
	}
	return b
}

// AddInt64 appends a small integer using its dedicated opcode (OP_0,
// OP_1NEGATE, OP_1..OP_16) when possible, else a minimal data push.
func (b *ScriptBuilder) AddInt64(val int64) *ScriptBuilder {
	if b.err != nil {
		return b
	}
	switch {
	case val == 0:
		return b.AddOp(OP_0)
	case val == -1:
		return b.AddOp(OP_1NEGATE)
	case val >= 1 && val <= 16:
		return b.AddOp(byte(OP_1 - 1 + val))
	}
	return b.AddData(scriptNum(val).Bytes())
}

// Script returns the assembled script, or the first error encountered.
func (b *ScriptBuilder) Script() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.script, nil
}
