//go:build windows || plan9

package rlimit

// RaiseOpenFilesLimit is a no-op where there is no rlimit facility.
func RaiseOpenFilesLimit() (int, error) {
	return 0, nil
}
