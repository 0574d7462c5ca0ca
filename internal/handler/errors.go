package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"go-inventory-ledger/internal/middleware"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/pkg/validator"
)

// respondError renders err as {"error", "code"[, "field"]} with the matching status.
func respondError(c *fiber.Ctx, err error) error {
	var (
		vErr     *validator.ValidationError
		stockErr *model.InsufficientStockError
		storeErr *model.StoreUnavailableError
	)
	switch {
	case errors.As(err, &vErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": vErr.Error(),
			"code":  "VALIDATION_ERROR",
			"field": vErr.Field,
		})
	case errors.As(err, &stockErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":     stockErr.Error(),
			"code":      "INSUFFICIENT_STOCK",
			"available": stockErr.Available,
			"requested": stockErr.Requested,
		})
	case errors.As(err, &storeErr):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Storage temporarily unavailable, please retry",
			"code":  "STORE_UNAVAILABLE",
		})
	case errors.Is(err, model.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found", "code": "NOT_FOUND"})
	case errors.Is(err, model.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Already exists", "code": "DUPLICATE"})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error(), "code": "INVALID_CREDENTIALS"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error", "code": "INTERNAL"})
	}
}

func invalidJSON(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON", "code": "VALIDATION_ERROR"})
}

// paramID reads a positive numeric route parameter.
func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, &validator.ValidationError{Field: "id", Value: c.Params(name), Message: "must be a positive integer"}
	}
	return uint(id), nil
}

// companyID is the tenant of an admin request; RequireRole guarantees it is set.
func companyID(c *fiber.Ctx) uint {
	id, _ := middleware.GetIdentity(c)
	if id.CompanyID == nil {
		return 0
	}
	return *id.CompanyID
}

func userID(c *fiber.Ctx) uint {
	id, _ := middleware.GetIdentity(c)
	return id.UserID
}
