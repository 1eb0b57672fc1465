package pkg

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"unsafe"
)

// BytesToString converts bytes slice to a string without extra allocation
func BytesToString(buf []byte) string {
	return *(*string)(unsafe.Pointer(&buf))
}

// GenerateRandomBytes returns securely generated random bytes.
// It will return an error if the system's secure random
// number generator fails to function correctly, in which
// case the caller should not continue
func GenerateRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	// Note that err == nil only if we read len(b) bytes.
	if err != nil {
		return nil, err
	}

	return b, nil
}

// GenerateRandomString returns a URL-safe, base64 encoded,
// securely generated random string of length s.
func GenerateRandomString(s int) (string, error) {
	if s <= 0 {
		return "", fmt.Errorf("invalid random string length: %d", s)
	}
	b, err := GenerateRandomBytes(s)
	if err != nil {
		return "", err
	}
	// base64 output is always longer than the input, safe to cut
	return base64.URLEncoding.EncodeToString(b)[:s], nil
}

// PathExists returns whether the given file or directory exists
func PathExists(path string, isDir bool) (bool, error) {
	stat, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if isDir && !stat.IsDir() {
		return false, fmt.Errorf("path [%s] is not a directory", path)
	}
	if !isDir && stat.IsDir() {
		return false, fmt.Errorf("path [%s] is a directory", path)
	}
	return true, nil
}
