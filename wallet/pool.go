// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

// Pool names one of the four disjoint transaction collections spec.md 3
// and 4.6 define. A transaction belongs to exactly one pool at a time.
type Pool int

const (
	PoolPending Pool = iota
	PoolUnspent
	PoolSpent
	PoolDead
)

func (p Pool) String() string {
	switch p {
	case PoolPending:
		return "pending"
	case PoolUnspent:
		return "unspent"
	case PoolSpent:
		return "spent"
	case PoolDead:
		return "dead"
	default:
		return "unknown"
	}
}
