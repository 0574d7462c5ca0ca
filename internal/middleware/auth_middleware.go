package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/pkg/jwt"
)

const (
	localUserID    = "user_id"
	localUsername  = "username"
	localRole      = "role"
	localCompanyID = "company_id"
)

// Identity is the verified caller of a request.
type Identity struct {
	UserID    uint
	Username  string
	Role      string
	CompanyID *uint
}

// RequireAuth is middleware that validates the JWT token and sets the caller in context.
// Browsers cannot set headers on a websocket upgrade, so the token may also come from
// the `token` query parameter.
func RequireAuth(tokens *jwt.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := bearerToken(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error(), "code": "UNAUTHORIZED"})
		}

		claims, err := tokens.ValidateToken(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error(), "code": "UNAUTHORIZED"})
		}

		c.Locals(localUserID, claims.UserID)
		c.Locals(localUsername, claims.Username)
		c.Locals(localRole, claims.Role)
		c.Locals(localCompanyID, claims.CompanyID)
		return c.Next()
	}
}

var errAuthFormat = errors.New("invalid authorization format, use: Bearer <token>")

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		if token := c.Query("token"); token != "" {
			return token, nil
		}
		return "", jwt.ErrMissingToken
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", errAuthFormat
	}
	return parts[1], nil
}

// RequireRole lets through only callers with the given role. Admins must also belong
// to a company, since every admin route is scoped to one.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := GetIdentity(c)
		if !ok || id.Role != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: requires '" + role + "' role",
				"code":  "FORBIDDEN",
			})
		}
		if role == model.RoleAdmin && id.CompanyID == nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: account is not linked to a company",
				"code":  "FORBIDDEN",
			})
		}
		return c.Next()
	}
}

// GetIdentity returns the caller set by RequireAuth.
func GetIdentity(c *fiber.Ctx) (Identity, bool) {
	userID, ok := c.Locals(localUserID).(uint)
	if !ok {
		return Identity{}, false
	}
	id := Identity{UserID: userID}
	id.Username, _ = c.Locals(localUsername).(string)
	id.Role, _ = c.Locals(localRole).(string)
	id.CompanyID, _ = c.Locals(localCompanyID).(*uint)
	return id, true
}
