package handler

import (
	"github.com/gofiber/fiber/v2"

	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/pkg/validator"
)

type FeedbackHandler struct {
	service service.FeedbackService
}

func NewFeedbackHandler(s service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: s}
}

type feedbackRequest struct {
	ProductID uint   `json:"product_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

// GetCatalog lists every company's products without stock levels.
func (h *FeedbackHandler) GetCatalog(c *fiber.Ctx) error {
	items, err := h.service.GetCatalog(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

func (h *FeedbackHandler) CreateFeedback(c *fiber.Ctx) error {
	var req feedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	if req.ProductID == 0 {
		return respondError(c, &validator.ValidationError{Field: "product_id", Message: "is required"})
	}

	feedback, err := h.service.CreateFeedback(c.UserContext(), userID(c), req.ProductID, req.Rating, req.Comment)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Feedback submitted", "data": feedback})
}

func (h *FeedbackHandler) GetMyFeedback(c *fiber.Ctx) error {
	views, err := h.service.GetFeedbackByUser(c.UserContext(), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(views)
}

func (h *FeedbackHandler) UpdateFeedback(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req feedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	feedback, err := h.service.UpdateFeedback(c.UserContext(), userID(c), id, req.Rating, req.Comment)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Feedback updated", "data": feedback})
}

func (h *FeedbackHandler) DeleteFeedback(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.DeleteFeedback(c.UserContext(), userID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetCompanyFeedback lists feedback left on the admin's own products.
func (h *FeedbackHandler) GetCompanyFeedback(c *fiber.Ctx) error {
	views, err := h.service.GetFeedbackForCompany(c.UserContext(), companyID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(views)
}

func (h *FeedbackHandler) GetReviewAnalytics(c *fiber.Ctx) error {
	analytics, err := h.service.GetReviewAnalytics(c.UserContext(), companyID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(analytics)
}
