package share

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestURL(t *testing.T) {
	assert.Equal(t, "https://ar.example.com/ar-view/abc123", URL("https://ar.example.com", "abc123"))
	// Trailing slash on the origin must not double up.
	assert.Equal(t, "https://ar.example.com/ar-view/abc123", URL("https://ar.example.com/", "abc123"))
}

func TestQRCodeURL(t *testing.T) {
	got := QRCodeURL("https://ar.example.com/ar-view/abc?x=1")
	assert.Equal(t, "https://api.qrserver.com/v1/create-qr-code/?size=200x200&data=https%3A%2F%2Far.example.com%2Far-view%2Fabc%3Fx%3D1", got)
}

func TestCacheBust(t *testing.T) {
	at := time.UnixMilli(1700000000000)

	assert.Equal(t, "https://img.example.com/a.png?cb=1700000000000",
		CacheBust("https://img.example.com/a.png", at))

	// Existing query switches the separator.
	assert.Equal(t, "https://img.example.com/a.png?v=2&cb=1700000000000",
		CacheBust("https://img.example.com/a.png?v=2", at))

	// Data URIs and empty strings are untouched.
	assert.Equal(t, "data:image/png;base64,AAAA", CacheBust("data:image/png;base64,AAAA", at))
	assert.Equal(t, "", CacheBust("", at))
}

func TestForceHTTPS(t *testing.T) {
	assert.Equal(t, "https://img.example.com/a.png", ForceHTTPS("http://img.example.com/a.png"))
	assert.Equal(t, "https://img.example.com/a.png", ForceHTTPS("https://img.example.com/a.png"))
	assert.Equal(t, "data:image/png;base64,AAAA", ForceHTTPS("data:image/png;base64,AAAA"))
}
