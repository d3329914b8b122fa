package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// CookieCodec signs session ids before they leave the server, so a
// client cannot fabricate or splice ids. The cookie value is
// "<sid>.<base64url(hmac-sha256(sid))>"; anything that fails the
// signature check reads as no cookie at all.
type CookieCodec struct {
	secret []byte
}

func NewCookieCodec(secret string) *CookieCodec {
	return &CookieCodec{secret: []byte(secret)}
}

func (c *CookieCodec) Encode(sid string) string {
	return sid + "." + c.sign(sid)
}

func (c *CookieCodec) Decode(value string) (string, bool) {
	idx := strings.LastIndex(value, ".")
	if idx <= 0 {
		return "", false
	}
	sid, sig := value[:idx], value[idx+1:]
	if !hmac.Equal([]byte(sig), []byte(c.sign(sid))) {
		return "", false
	}
	return sid, true
}

func (c *CookieCodec) sign(sid string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(sid))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
