package utils

import (
	"net"
	"strings"

	"github.com/badoux/checkmail"
	"github.com/likexian/whois"
)

// VerificationResult holds the outcome of verifying a contact email address
type VerificationResult struct {
	Email       string `json:"email"`
	SyntaxValid bool   `json:"syntax_valid"`
	HasMX       bool   `json:"has_mx"`
	Registered  bool   `json:"registered"`
	Deliverable bool   `json:"deliverable"`
	WHOIS       string `json:"whois,omitempty"`
}

// VerifyEmail checks an email address for syntax validity, MX records and
// domain registration. Network checks are best-effort: failures degrade the
// result rather than erroring out.
func VerifyEmail(email string, includeWHOIS bool) VerificationResult {
	result := VerificationResult{Email: email}

	if err := checkmail.ValidateFormat(email); err != nil {
		return result
	}
	result.SyntaxValid = true

	domain := ExtractDomain(email)
	if domain == "" {
		return result
	}

	if mx, err := net.LookupMX(domain); err == nil && len(mx) > 0 {
		result.HasMX = true
	}

	if info, err := whois.Whois(domain); err == nil && info != "" {
		lowered := strings.ToLower(info)
		result.Registered = !strings.Contains(lowered, "no match") &&
			!strings.Contains(lowered, "not found")
		if includeWHOIS {
			result.WHOIS = info
		}
	}

	result.Deliverable = result.SyntaxValid && result.HasMX
	return result
}
