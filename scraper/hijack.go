package scraper

import (
	"net/url"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// blockedTypes are dropped alongside ad traffic. Stylesheets and scripts
// stay: the prediction tables and the vote widget need both.
var blockedTypes = map[proto.NetworkResourceType]struct{}{
	proto.NetworkResourceTypeMedia: {},
	proto.NetworkResourceTypeFont:  {},
}

// adDomains are the ad and tracking hosts seen on prediction and match
// pages. Consent platforms are deliberately absent: their dialogs must load
// so they can be dismissed.
var adDomains = map[string]struct{}{
	"doubleclick.net":       {},
	"googlesyndication.com": {},
	"googleadservices.com":  {},
	"google-analytics.com":  {},
	"googletagservices.com": {},
	"adnxs.com":             {},
	"adsrvr.org":            {},
	"amazon-adsystem.com":   {},
	"criteo.com":            {},
	"criteo.net":            {},
	"taboola.com":           {},
	"outbrain.com":          {},
	"pubmatic.com":          {},
	"rubiconproject.com":    {},
	"openx.net":             {},
	"casalemedia.com":       {},
	"media.net":             {},
	"scorecardresearch.com": {},
	"hotjar.com":            {},
	"facebook.net":          {},
}

// isAdDomain reports whether host or one of its parents is blocklisted.
func isAdDomain(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for host != "" {
		if _, ok := adDomains[host]; ok {
			return true
		}
		i := strings.IndexByte(host, '.')
		if i < 0 {
			break
		}
		host = host[i+1:]
	}
	return false
}

// setupHijack fails ad, tracking and media requests on page. The router
// stops with the page.
func setupHijack(page *rod.Page) *rod.HijackRouter {
	router := page.HijackRequests()
	_ = router.Add("*", "", func(h *rod.Hijack) {
		if shouldBlock(h.Request.Type(), h.Request.URL().String()) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
	return router
}

func shouldBlock(rt proto.NetworkResourceType, rawURL string) bool {
	if _, ok := blockedTypes[rt]; ok {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return isAdDomain(u.Hostname())
}
