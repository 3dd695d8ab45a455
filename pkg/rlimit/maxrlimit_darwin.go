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
	var err error
	rlimit.Cur, err = kernMaxFiles(rlimit.Max)
	return rlimit, err
}

func kernMaxFiles(max uint64) (uint64, error) {
	kernMax, err := unix.SysctlUint32("kern.maxfilesperproc")
	if err != nil {
		return 0, fmt.Errorf("sysctl: %w", err)
	}
	if uint64(kernMax) < max {
		return uint64(kernMax), nil
	}
	return max, nil
}
