package middleware

import (
	"testing"

	"github.com/ameibeauty/cards/app/models"
	"github.com/ameibeauty/cards/internal/pkg/token"
)

func TestResolveOwnership(t *testing.T) {
	secret := "test-secret"
	ownerToken, err := token.Generate()
	if err != nil {
		t.Fatalf("unexpected generate error: %v", err)
	}
	digest, err := token.Digest(ownerToken, secret)
	if err != nil {
		t.Fatalf("unexpected digest error: %v", err)
	}

	authed := &models.Card{ID: "card-1", OwnerTokenDigest: &digest}
	legacy := &models.Card{ID: "card-2"}

	tests := []struct {
		name      string
		card      *models.Card
		presented string
		want      OwnershipResult
	}{
		{name: "card not found", card: nil, presented: ownerToken, want: OwnershipResult{}},
		{name: "legacy card", card: legacy, presented: ownerToken, want: OwnershipResult{IsLegacy: true}},
		{name: "correct token", card: authed, presented: ownerToken, want: OwnershipResult{Valid: true}},
		{name: "wrong token", card: authed, presented: "not-the-token", want: OwnershipResult{}},
		{name: "empty token", card: authed, presented: "", want: OwnershipResult{}},
	}

	for _, tt := range tests {
		if got := ResolveOwnership(tt.card, tt.presented, secret); got != tt.want {
			t.Fatalf("%s: ResolveOwnership = %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestResolveOwnershipLegacyIsNotVerificationFailure(t *testing.T) {
	empty := ""
	card := &models.Card{ID: "card-3", OwnerTokenDigest: &empty}
	got := ResolveOwnership(card, "anything", "secret")
	if !got.IsLegacy || got.Valid {
		t.Fatalf("empty digest must resolve to the legacy branch, got %+v", got)
	}
}
