// Package device turns raw User-Agent strings into the short display
// names shown in the session listing, so students can tell their own
// devices apart when deciding which session to revoke.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

// ParseUserAgent derives a "Browser on OS" display name from a raw
// User-Agent header. Mobile agents prefer the platform over the OS
// string ("Safari on iPhone" reads better than the full OS version).
// The name is cosmetic; nothing is keyed on it.
func ParseUserAgent(userAgentString string) string {
	if userAgentString == "" {
		return "Unknown Device"
	}

	ua := useragent.New(userAgentString)
	browser, _ := ua.Browser()
	os := ua.OS()

	if ua.Mobile() {
		if platform := ua.Platform(); platform != "" {
			return strings.TrimSpace(browser + " on " + platform)
		}
	}

	if browser == "" {
		browser = "Unknown Browser"
	}
	if os == "" {
		os = "Unknown OS"
	}
	return strings.TrimSpace(browser + " on " + os)
}
