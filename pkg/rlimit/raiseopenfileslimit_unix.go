//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris

// Package rlimit raises the open-file limit so that a wide merge
// fan-in never trips the soft default.
package rlimit

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// RaiseOpenFilesLimit raises the soft limit on open file descriptors
// to the effective maximum and returns the resulting limit.
func RaiseOpenFilesLimit() (int, error) {
	rlimit, err := maxRlimit()
	if err != nil {
		return 0, err
	}
	if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &rlimit); err != nil {
		return 0, fmt.Errorf("setrlimit: %w", err)
	}
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlimit); err != nil {
		return 0, fmt.Errorf("getrlimit: %w", err)
	}
	return int(rlimit.Cur), nil
}
