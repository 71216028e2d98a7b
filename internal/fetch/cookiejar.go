package fetch

import (
	"net/http"
	"net/http/cookiejar"

	"golang.org/x/net/publicsuffix"
)

// cookiejarNew builds a jar that uses the public suffix list for domain
// matching, grounded on deflix-stremio's proxy/cookiejar session wiring —
// the stdlib cookiejar alone does not know eTLD boundaries, which matters
// once a SID-walk redirect hops across subdomains of the same hoster.
func cookiejarNew() (http.CookieJar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}
