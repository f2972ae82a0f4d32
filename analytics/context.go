package analytics

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/fwojciec/docsite"
)

// Link types reported on link_click events.
const (
	LinkAnchor   = "anchor"
	LinkInternal = "internal"
	LinkExternal = "external"
	LinkEmail    = "email"
	LinkOther    = "other"
)

var (
	mobileUA = regexp.MustCompile(`Mobile|Android|iPhone|iPad`)
	tabletUA = regexp.MustCompile(`iPad|Tablet`)
)

// BrowserContext reduces browser details to coarse categories.
func BrowserContext(b docsite.Browser) docsite.BrowserContext {
	lang, _, _ := strings.Cut(b.Language, "-")
	if lang == "" {
		lang = "unknown"
	}
	return docsite.BrowserContext{
		ViewportCategory: ViewportCategory(b.ViewportWidth),
		BrowserFamily:    BrowserFamily(b.UserAgent),
		DeviceType:       DeviceType(b.UserAgent),
		Language:         lang,
		TimezoneOffset:   float64(b.TimezoneOffsetMinutes) / 60,
	}
}

// ViewportCategory buckets a viewport width.
func ViewportCategory(width int) string {
	switch {
	case width < 640:
		return "mobile"
	case width < 1024:
		return "tablet"
	case width < 1440:
		return "desktop"
	}
	return "large-desktop"
}

// BrowserFamily returns the browser family without version.
// Order matters: Edge and Chrome user agents also mention Safari.
func BrowserFamily(ua string) string {
	switch {
	case strings.Contains(ua, "Firefox"):
		return "Firefox"
	case strings.Contains(ua, "Edg"):
		return "Edge"
	case strings.Contains(ua, "Chrome"):
		return "Chrome"
	case strings.Contains(ua, "Safari"):
		return "Safari"
	}
	return "Other"
}

// DeviceType returns mobile, tablet or desktop.
func DeviceType(ua string) string {
	if mobileUA.MatchString(ua) {
		if tabletUA.MatchString(ua) {
			return "tablet"
		}
		return "mobile"
	}
	return "desktop"
}

// ReferrerDomain reduces a referrer to its host: "direct" when empty,
// "internal" for the site itself, "unknown" when unparsable.
func ReferrerDomain(referrer, hostname string) string {
	if referrer == "" {
		return "direct"
	}
	u, err := url.Parse(referrer)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	if u.Hostname() == hostname {
		return "internal"
	}
	return u.Hostname()
}

// ClassifyLink returns the link type and, for external links, the target host.
func ClassifyLink(href, hostname string) (linkType string, targetDomain string) {
	switch {
	case strings.HasPrefix(href, "#"):
		return LinkAnchor, ""
	case strings.HasPrefix(href, "/"), strings.HasPrefix(href, "./"), strings.HasPrefix(href, "../"):
		return LinkInternal, ""
	case strings.HasPrefix(href, "http"):
		u, err := url.Parse(href)
		if err != nil || u.Hostname() == "" {
			return LinkOther, ""
		}
		if u.Hostname() == hostname {
			return LinkInternal, ""
		}
		return LinkExternal, u.Hostname()
	case strings.HasPrefix(href, "mailto:"):
		return LinkEmail, ""
	}
	return LinkOther, ""
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
