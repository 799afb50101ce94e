package donedone

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"strings"
)

// Sign computes the X-DoneDone-Signature value: the URL followed by every
// field's name and value (sorted by name, no separators), HMAC-SHA1'd with
// token and base64-encoded. Field insertion order does not affect the result.
func Sign(url string, fields Fields, token string) string {
	var b strings.Builder
	b.WriteString(url)
	for _, f := range fields.Sorted() {
		b.WriteString(f.Name)
		b.WriteString(f.Value)
	}
	mac := hmac.New(sha1.New, []byte(token))
	_, _ = mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
