package util

import "os"

// PathExists reports whether a path exists on disk, distinguishing a
// not-found stat error (false, nil) from any other stat failure (false, err).
func PathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
