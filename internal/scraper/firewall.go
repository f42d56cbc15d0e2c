package scraper

import (
	"strings"
)

// Each signature matches when every fragment appears in the lower-cased body
var firewallSignatures = [][]string{
	{"cloudflare ray id", "blocked"},
	{"attention required! | cloudflare"},
	{"sucuri website firewall", "access denied"},
}

// isFirewallBlock reports whether body looks like a WAF block page
func isFirewallBlock(body string) bool {
	lower := strings.ToLower(body)

	for _, signature := range firewallSignatures {
		matched := true
		for _, fragment := range signature {
			if !strings.Contains(lower, fragment) {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}
