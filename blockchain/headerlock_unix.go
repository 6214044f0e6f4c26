// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

//go:build unix

package blockchain

import "golang.org/x/sys/unix"

// flockExclusive takes a non-blocking advisory exclusive lock on fd,
// returning ErrAlreadyLocked if another process already holds it.
func flockExclusive(fd int) error {
	if err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		if err == unix.EWOULDBLOCK {
			return ruleError(ErrAlreadyLocked, "header store file is already locked by another process")
		}
		return err
	}
	return nil
}

func funlock(fd int) error {
	return unix.Flock(fd, unix.LOCK_UN)
}
