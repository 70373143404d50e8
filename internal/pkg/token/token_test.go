package token

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestGenerateProperties(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		tok, err := Generate()
		if err != nil {
			t.Fatalf("unexpected generate error: %v", err)
		}
		if strings.ContainsAny(tok, "+/=") {
			t.Fatalf("token %q is not url-safe unpadded base64", tok)
		}
		raw, err := base64.RawURLEncoding.DecodeString(tok)
		if err != nil {
			t.Fatalf("token %q does not decode: %v", tok, err)
		}
		if len(raw) != 32 {
			t.Fatalf("expected 32 bytes of entropy, got %d", len(raw))
		}
		if _, dup := seen[tok]; dup {
			t.Fatalf("duplicate token generated: %q", tok)
		}
		seen[tok] = struct{}{}
	}
}

func TestDigestDeterministic(t *testing.T) {
	a, err := Digest("some-token", "secret")
	if err != nil {
		t.Fatalf("unexpected digest error: %v", err)
	}
	b, err := Digest("some-token", "secret")
	if err != nil {
		t.Fatalf("unexpected digest error: %v", err)
	}
	if a != b {
		t.Fatalf("digest not deterministic: %q vs %q", a, b)
	}

	other, _ := Digest("other-token", "secret")
	if other == a {
		t.Fatalf("distinct tokens produced identical digests")
	}

	if _, err := Digest("some-token", ""); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}

func TestVerify(t *testing.T) {
	digest, err := Digest("the-token", "secret")
	if err != nil {
		t.Fatalf("unexpected digest error: %v", err)
	}

	if !Verify("the-token", digest, "secret") {
		t.Fatalf("expected matching token to verify")
	}
	if Verify("another-token", digest, "secret") {
		t.Fatalf("expected mismatched token to fail")
	}
	if Verify("the-token", digest, "other-secret") {
		t.Fatalf("expected wrong secret to fail")
	}
	if Verify("", digest, "secret") {
		t.Fatalf("expected empty token to fail")
	}
	if Verify("the-token", "", "secret") {
		t.Fatalf("expected empty digest to fail")
	}
}

func TestExtractBearer(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		ok     bool
	}{
		{name: "simple", header: "Bearer abc", want: "abc", ok: true},
		{name: "padded token", header: "Bearer   abc  ", want: "abc", ok: true},
		{name: "empty token", header: "Bearer ", want: "", ok: true},
		{name: "bare scheme", header: "Bearer", ok: false},
		{name: "other scheme", header: "Basic xyz", ok: false},
		{name: "lowercase scheme", header: "bearer abc", ok: false},
		{name: "absent", header: "", ok: false},
	}

	for _, tt := range tests {
		got, ok := ExtractBearer(tt.header)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("%s: ExtractBearer(%q) = (%q, %v), want (%q, %v)", tt.name, tt.header, got, ok, tt.want, tt.ok)
		}
	}
}
