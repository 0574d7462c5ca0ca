package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/pkg/jwt"
	"go-inventory-ledger/pkg/metrics"
)

func newApp(tokens *jwt.Manager, role string) *fiber.App {
	app := fiber.New()
	app.Get("/who", RequireAuth(tokens), RequireRole(role), func(c *fiber.Ctx) error {
		id, ok := GetIdentity(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.JSON(fiber.Map{"user_id": id.UserID, "role": id.Role})
	})
	return app
}

func token(t *testing.T, tokens *jwt.Manager, role string, companyID *uint) string {
	t.Helper()
	s, err := tokens.GenerateToken(7, "alice", role, companyID)
	require.NoError(t, err)
	return s
}

func TestRequireAuth(t *testing.T) {
	tokens := jwt.NewManager("secret", time.Hour, "test")
	app := newApp(tokens, model.RoleUser)
	good := token(t, tokens, model.RoleUser, nil)

	cases := []struct {
		name   string
		header string
		query  string
		status int
		error  string
	}{
		{"missing", "", "", http.StatusUnauthorized, jwt.ErrMissingToken.Error()},
		{"bad scheme", "Basic " + good, "", http.StatusUnauthorized, errAuthFormat.Error()},
		{"empty bearer", "Bearer ", "", http.StatusUnauthorized, errAuthFormat.Error()},
		{"garbage", "Bearer not-a-jwt", "", http.StatusUnauthorized, jwt.ErrInvalidToken.Error()},
		{"header", "Bearer " + good, "", http.StatusOK, ""},
		{"query", "", good, http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			target := "/who"
			if tc.query != "" {
				target += "?token=" + tc.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
			if tc.error == "" {
				return
			}
			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tc.error, body["error"])
			assert.Equal(t, "UNAUTHORIZED", body["code"])
		})
	}
}

func TestRequireRole(t *testing.T) {
	tokens := jwt.NewManager("secret", time.Hour, "test")
	app := newApp(tokens, model.RoleAdmin)
	companyID := uint(3)

	cases := []struct {
		name   string
		token  string
		status int
	}{
		{"wrong role", token(t, tokens, model.RoleUser, nil), http.StatusForbidden},
		{"admin without company", token(t, tokens, model.RoleAdmin, nil), http.StatusForbidden},
		{"admin", token(t, tokens, model.RoleAdmin, &companyID), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/who", nil)
			req.Header.Set("Authorization", "Bearer "+tc.token)
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestMetricsMiddleware(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	app := fiber.New()
	app.Use(Metrics(m))
	app.Get("/items/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusTeapot) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/items/42", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPRequestDuration))
}
