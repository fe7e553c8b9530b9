package application

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode"

	"soapbox/contexts/trust-safety/spam-screening-service/domain/entities"
)

// Domains that hand out throwaway inboxes. Membership is checked on
// the registered domain and its subdomains.
var disposableDomains = map[string]bool{
	"mailinator.com":    true,
	"guerrillamail.com": true,
	"10minutemail.com":  true,
	"tempmail.com":      true,
	"temp-mail.org":     true,
	"yopmail.com":       true,
	"trashmail.com":     true,
	"dispostable.com":   true,
	"sharklasers.com":   true,
	"maildrop.cc":       true,
	"getnada.com":       true,
	"throwawaymail.com": true,
}

var suspiciousTokens = []string{
	"http://",
	"https://",
	"www.",
	"[url=",
	"<a href",
	"viagra",
	"casino",
	"loan offer",
	"seo service",
	"crypto giveaway",
}

var plusTagPattern = regexp.MustCompile(`(?i)\+(test|testing|spam|fake|temp)\d*@`)

func emailReasons(email string) []entities.Reason {
	var reasons []entities.Reason
	email = strings.TrimSpace(strings.ToLower(email))

	addr, err := mail.ParseAddress(email)
	if err != nil {
		return append(reasons, entities.ReasonMalformedEmail)
	}

	local, domain, found := strings.Cut(addr.Address, "@")
	if !found {
		return append(reasons, entities.ReasonMalformedEmail)
	}

	if isDisposableDomain(domain) {
		reasons = append(reasons, entities.ReasonDisposableDomain)
	}
	if plusTagPattern.MatchString(addr.Address) {
		reasons = append(reasons, entities.ReasonSuspiciousTag)
	}
	if hasRun(local, 3, unicode.IsDigit) {
		reasons = append(reasons, entities.ReasonRepeatedDigits)
	}
	return reasons
}

func contentReasons(name, organization, statement string) []entities.Reason {
	var reasons []entities.Reason

	haystack := strings.ToLower(name + " " + organization + " " + statement)
	for _, token := range suspiciousTokens {
		if strings.Contains(haystack, token) {
			reasons = append(reasons, entities.ReasonSuspiciousToken)
			break
		}
	}

	if hasRun(name, 4, isASCIILetter) || hasRun(statement, 4, isASCIILetter) {
		reasons = append(reasons, entities.ReasonRepeatedChars)
	}

	if len(strings.TrimSpace(name)) < 2 && len(strings.TrimSpace(statement)) < 3 {
		reasons = append(reasons, entities.ReasonNearEmpty)
	}
	return reasons
}

// hasRun reports whether s contains n or more consecutive copies of
// one rune satisfying match, case-insensitively. RE2 has no
// backreferences, so repetition is scanned directly.
func hasRun(s string, n int, match func(rune) bool) bool {
	var prev rune
	run := 0
	for _, r := range s {
		r = unicode.ToLower(r)
		if r == prev {
			run++
		} else {
			run = 1
		}
		prev = r
		if run >= n && match(r) {
			return true
		}
	}
	return false
}

func isASCIILetter(r rune) bool {
	return r >= 'a' && r <= 'z'
}

func isDisposableDomain(domain string) bool {
	domain = strings.TrimSpace(strings.ToLower(domain))
	for domain != "" {
		if disposableDomains[domain] {
			return true
		}
		_, rest, found := strings.Cut(domain, ".")
		if !found {
			return false
		}
		domain = rest
	}
	return false
}
