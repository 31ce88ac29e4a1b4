package errors

import (
	"net"
	"strconv"
	"strings"
	"unicode"
)

// MaxCap bounds the max-distance estimator cap. Larger caps are accepted by
// the library but are never useful for genomic distances.
const MaxCap = int64(1) << 40

// ValidatePath validates a file path given on the command line or in a
// config file.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}

// ValidateCap checks an estimator cap. Zero disables the estimator.
func ValidateCap(limit int64) error {
	if limit < 0 {
		return New(ErrCodeInvalidConfig, "cap cannot be negative: %d", limit)
	}
	if limit > MaxCap {
		return New(ErrCodeInvalidConfig, "cap too large (max %d): %d", MaxCap, limit)
	}
	return nil
}

// ValidateListenAddr checks a host:port listen address. The host may be
// empty to listen on all interfaces.
func ValidateListenAddr(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return Wrap(ErrCodeInvalidConfig, err, "invalid listen address %q", addr)
	}
	if strings.ContainsAny(host, " \t") {
		return New(ErrCodeInvalidConfig, "invalid host in listen address %q", addr)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return New(ErrCodeInvalidConfig, "invalid port in listen address %q", addr)
	}
	return nil
}

// ValidateCacheBackend checks the name of an index cache backend.
func ValidateCacheBackend(name string) error {
	switch name {
	case "file", "redis", "none":
		return nil
	}
	return New(ErrCodeInvalidConfig, "unknown cache backend %q (want file, redis or none)", name)
}
