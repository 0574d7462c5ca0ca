package handler

import (
	"github.com/gofiber/fiber/v2"

	"go-inventory-ledger/internal/service"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetProfile returns the caller's account and company.
// GET /api/v1/me
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	user, err := h.userService.GetProfile(c.UserContext(), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// ChangePassword handles password change
// PUT /api/v1/me/password
func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	var req service.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	if err := h.userService.ChangePassword(c.UserContext(), userID(c), req); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password updated successfully"})
}
