package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ameibeauty/cards/app/models"
	"github.com/ameibeauty/cards/internal/pkg/token"
)

// newOwnerGuardApp mounts the owner guard over a trivial handler with the
// card loader pointed at an in-memory fixture set.
func newOwnerGuardApp(t *testing.T, cards map[string]*models.Card) *fiber.App {
	t.Helper()

	orig := loadCard
	loadCard = func(cardID string) (*models.Card, error) {
		card, ok := cards[cardID]
		if !ok {
			return nil, gorm.ErrRecordNotFound
		}
		return card, nil
	}
	t.Cleanup(func() { loadCard = orig })

	app := fiber.New()
	app.Delete("/card/:id", RequireCardOwner(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true})
	})
	return app
}

func mintOwnedCard(t *testing.T, id string) (*models.Card, string) {
	t.Helper()
	ownerToken, err := token.Generate()
	require.NoError(t, err)
	digest, err := token.Digest(ownerToken, AuthSecret())
	require.NoError(t, err)
	return &models.Card{ID: id, OwnerTokenDigest: &digest}, ownerToken
}

func TestRequireCardOwnerTokenRoundTrip(t *testing.T) {
	cardOne, tokenOne := mintOwnedCard(t, "card-1")
	cardTwo, tokenTwo := mintOwnedCard(t, "card-2")
	app := newOwnerGuardApp(t, map[string]*models.Card{
		cardOne.ID: cardOne,
		cardTwo.ID: cardTwo,
	})

	// A valid token for another card must not open this one.
	req := httptest.NewRequest(http.MethodDelete, "/card/card-1", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+tokenTwo)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// The card's own token does.
	req = httptest.NewRequest(http.MethodDelete, "/card/card-1", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+tokenOne)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireCardOwnerMissingHeader(t *testing.T) {
	card, _ := mintOwnedCard(t, "card-1")
	app := newOwnerGuardApp(t, map[string]*models.Card{card.ID: card})

	req := httptest.NewRequest(http.MethodDelete, "/card/card-1", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "unauthorized", body["error"])
	assert.NotContains(t, body, "legacy")
}

func TestRequireCardOwnerLegacyCard(t *testing.T) {
	app := newOwnerGuardApp(t, map[string]*models.Card{
		"card-1": {ID: "card-1"},
	})

	req := httptest.NewRequest(http.MethodDelete, "/card/card-1", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer anything")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["legacy"])
	assert.Contains(t, body["message"], "Re-publish")
}

func TestRequireCardOwnerUnknownCard(t *testing.T) {
	app := newOwnerGuardApp(t, map[string]*models.Card{})

	req := httptest.NewRequest(http.MethodDelete, "/card/missing", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer anything")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// Unknown ids get the same generic body as a wrong token.
	body := decodeBody(t, resp)
	assert.NotContains(t, body, "legacy")
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}
