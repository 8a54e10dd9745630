package core

import (
	"context"
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"

	"pkt.systems/pslog"
	"pkt.systems/tabgrouper/schema"
)

// NewTabURL is the browser's internal new-tab page.
const NewTabURL = "chrome://newtab/"

const wwwPrefix = "www."

// hostProfile maps internationalized hostnames to their punycode form the way
// browsers report them, without enforcing STD3 hostname rules.
var hostProfile = idna.New(
	idna.MapForLookup(),
	idna.Transitional(false),
	idna.StrictDomainName(false),
)

// IsValidTabURL reports whether a tab URL is worth grouping. It is false for
// empty URLs and the new-tab page.
func IsValidTabURL(rawURL string) bool {
	return rawURL != "" && rawURL != NewTabURL
}

// Classify maps a URL to its grouping key. See ClassifyContext.
func Classify(rawURL string) (schema.GroupingKey, bool) {
	return ClassifyContext(context.Background(), rawURL)
}

// ClassifyContext maps a URL to its grouping key: the hostname with a single
// leading "www." removed. Hosts are lowercased and internationalized names
// use their punycode form. Port, path, query and scheme do not take part.
// URLs that do not parse as absolute URLs are reported to the context logger
// and yield no key; so do URLs without a hostname.
func ClassifyContext(ctx context.Context, rawURL string) (schema.GroupingKey, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" {
		if err == nil {
			err = errNotAbsolute
		}
		pslog.Ctx(ctx).Warn("classify invalid url", "url", rawURL, "err", err)
		return "", false
	}
	host := asciiHost(parsed.Hostname())
	host = strings.TrimPrefix(host, wwwPrefix)
	if host == "" {
		return "", false
	}
	return schema.GroupingKey(host), true
}

func asciiHost(host string) string {
	for i := 0; i < len(host); i++ {
		if host[i] >= utf8.RuneSelf {
			if ascii, err := hostProfile.ToASCII(host); err == nil {
				return ascii
			}
			break
		}
	}
	return strings.ToLower(host)
}
