//go:build !darwin && !plan9 && !windows

package rlimit

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func maxRlimit() (unix.Rlimit, error) {
	var rlimit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlimit); err != nil {
		return rlimit, fmt.Errorf("getrlimit: %w", err)
	}
	rlimit.Cur = rlimit.Max
	return rlimit, nil
}
