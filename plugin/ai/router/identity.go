package router

import (
	"fmt"
	"regexp"
	"strings"
)

// selfQueryPatterns match a user asking the assistant who they are.
var selfQueryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bwhat\s+is\s+my\s+name\b`),
	regexp.MustCompile(`\bwhat'?s\s+my\s+name\b`),
	regexp.MustCompile(`\bwho\s+am\s+i\b`),
	regexp.MustCompile(`\bdo\s+you\s+(know|remember)\s+my\s+name\b`),
}

// IsSelfQuery reports whether input asks for the user's own name.
func IsSelfQuery(input string) bool {
	normalized := strings.ToLower(strings.TrimSpace(input))
	// Curly apostrophes show up from mobile keyboards.
	normalized = strings.ReplaceAll(normalized, "’", "'")
	for _, p := range selfQueryPatterns {
		if p.MatchString(normalized) {
			return true
		}
	}
	return false
}

// identityAnswer builds the reply for a self-query when the name is known.
func identityAnswer(name string) string {
	return fmt.Sprintf("Your name is %s.", name)
}
