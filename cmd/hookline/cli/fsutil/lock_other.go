//go:build !unix

package fsutil

import "os"

// Without flock the lock degrades to a no-op and concurrent writers may race.
func tryLock(_ *os.File) (bool, error) { return true, nil }

func unlock(_ *os.File) error { return nil }
