package session

import (
	"strings"
	"testing"
)

func TestCookieRoundTrip(t *testing.T) {
	codec := NewCookieCodec("secret")

	value := codec.Encode("sid-123")
	sid, ok := codec.Decode(value)
	if !ok {
		t.Fatalf("expected valid cookie")
	}
	if sid != "sid-123" {
		t.Fatalf("expected sid-123, got %s", sid)
	}
}

func TestCookieTamperRejected(t *testing.T) {
	codec := NewCookieCodec("secret")
	value := codec.Encode("sid-123")

	if _, ok := codec.Decode(strings.Replace(value, "sid-123", "sid-124", 1)); ok {
		t.Fatalf("spliced sid accepted")
	}
	if _, ok := codec.Decode("sid-123"); ok {
		t.Fatalf("unsigned value accepted")
	}
	if _, ok := codec.Decode(""); ok {
		t.Fatalf("empty value accepted")
	}

	other := NewCookieCodec("different-secret")
	if _, ok := other.Decode(value); ok {
		t.Fatalf("cookie signed with another secret accepted")
	}
}
