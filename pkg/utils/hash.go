package utils

import (
	"crypto/md5"
	"fmt"
	"strings"
)

func HashString(input string) string {
	hash := md5.Sum([]byte(input))
	return fmt.Sprintf("%x", hash)
}

// CacheKey builds a namespaced cache key from its parts, hashing the last
// part so arbitrary text stays within key length limits.
func CacheKey(parts ...string) string {
	if len(parts) == 0 {
		return ""
	}
	last := len(parts) - 1
	hashed := append([]string{}, parts[:last]...)
	hashed = append(hashed, HashString(parts[last]))
	return strings.Join(hashed, ":")
}
