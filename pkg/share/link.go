// Package share builds shareable links and viewer-friendly image URLs
// for AR scenes.
package share

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// qrService renders a scannable code for an arbitrary URL. The QR image
// itself is generated by the external service, not by this process.
const qrService = "https://api.qrserver.com/v1/create-qr-code/"

// URL returns the public viewer link for a scene id.
func URL(origin, id string) string {
	return fmt.Sprintf("%s/ar-view/%s", strings.TrimRight(origin, "/"), id)
}

// QRCodeURL returns a URL that renders a 200x200 scannable code
// resolving to shareURL.
func QRCodeURL(shareURL string) string {
	return qrService + "?size=200x200&data=" + url.QueryEscape(shareURL)
}

// CacheBust appends a cb=<unix-millis> query parameter so repeated
// fetches never serve a stale cached image. Data URIs pass through
// untouched. The stored URL is never mutated; callers bust a copy.
func CacheBust(rawURL string, t time.Time) string {
	if rawURL == "" || strings.HasPrefix(rawURL, "data:") {
		return rawURL
	}
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%scb=%d", rawURL, sep, t.UnixMilli())
}

// ForceHTTPS upgrades plain http URLs so renderers on secure pages can
// load them. Anything that is not an http URL is returned as-is.
func ForceHTTPS(rawURL string) string {
	if strings.HasPrefix(rawURL, "http://") {
		return "https://" + strings.TrimPrefix(rawURL, "http://")
	}
	return rawURL
}
