package compliance

import (
	"net/url"
	"regexp"
	"strings"
)

// urlPattern finds http(s) URLs embedded in request text.
var urlPattern = regexp.MustCompile(`https?://[^\s"'<>]+`)

// findRestrictedKeyword returns the first restricted keyword contained
// in the input, case-insensitively, or "".
func findRestrictedKeyword(input string, keywords []string) string {
	lower := strings.ToLower(input)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return kw
		}
	}
	return ""
}

// extractHosts returns the hostnames of every URL mentioned in the input.
func extractHosts(input string) []string {
	var hosts []string
	for _, raw := range urlPattern.FindAllString(input, -1) {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			continue
		}
		hosts = append(hosts, strings.ToLower(u.Hostname()))
	}
	return hosts
}

// domainAllowed checks a hostname against the allowlist. Patterns:
// *.example.com matches any subdomain and the apex; exact strings match
// exactly. Matching is case-insensitive.
func domainAllowed(host string, allowed []string) bool {
	host = strings.ToLower(host)
	for _, pattern := range allowed {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		if pattern == "" {
			continue
		}
		if pattern == "*" {
			return true
		}
		if strings.HasPrefix(pattern, "*.") {
			suffix := pattern[1:] // ".example.com"
			if strings.HasSuffix(host, suffix) || host == pattern[2:] {
				return true
			}
			continue
		}
		if host == pattern {
			return true
		}
	}
	return false
}

// firstDisallowedHost returns the first mentioned host outside the
// allowlist, or "".
func firstDisallowedHost(input string, allowed []string) string {
	for _, host := range extractHosts(input) {
		if !domainAllowed(host, allowed) {
			return host
		}
	}
	return ""
}
