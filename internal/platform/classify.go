// Package platform maps shared strings to the platform they came from.
package platform

import (
	"net/url"
	"strings"

	"savesense/internal/domain"
)

type rule struct {
	fragment string
	platform domain.Platform
	// boundary requires the fragment to be the whole host or a parent domain of
	// it. Other fragments match anywhere in the URL, ignoring case.
	boundary bool
}

// rules is checked in order; the first match wins.
var rules = []rule{
	{fragment: "instagram.com", platform: domain.PlatformInstagram},
	{fragment: "twitter.com", platform: domain.PlatformTwitter},
	{fragment: "x.com", platform: domain.PlatformTwitter, boundary: true},
	{fragment: "facebook.com", platform: domain.PlatformFacebook},
	{fragment: "fb.watch", platform: domain.PlatformFacebook},
	{fragment: "youtube.com", platform: domain.PlatformYouTube},
	{fragment: "youtu.be", platform: domain.PlatformYouTube},
	{fragment: "reddit.com", platform: domain.PlatformReddit},
	{fragment: "redd.it", platform: domain.PlatformReddit},
	{fragment: "tiktok.com", platform: domain.PlatformTikTok},
}

// Classify returns the platform a string belongs to. Strings without a URL are
// text; URLs on unknown domains are web.
func Classify(s string) domain.Platform {
	raw := domain.FirstURL(s)
	if raw == "" {
		return domain.PlatformText
	}

	host := hostOf(raw)
	lower := strings.ToLower(raw)
	for _, r := range rules {
		if r.matches(host, lower) {
			return r.platform
		}
	}
	return domain.PlatformWeb
}

func (r rule) matches(host, lowerURL string) bool {
	if r.boundary {
		return host == r.fragment || strings.HasSuffix(host, "."+r.fragment)
	}
	return strings.Contains(lowerURL, r.fragment)
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
