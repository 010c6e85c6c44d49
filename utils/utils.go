package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseUint safely parses a string to uint, returning 0 on failure
func ParseUint(s string) uint {
	i, _ := strconv.ParseUint(s, 10, 32)
	return uint(i)
}

// ExtractDomain returns the domain part of an email address
func ExtractDomain(email string) string {
	parts := strings.SplitN(email, "@", 2)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// GenerateRateLimitKey creates a unique key for rate limiting
func GenerateRateLimitKey(ip, path string) string {
	return fmt.Sprintf("rl:%s:%s", ip, path)
}
