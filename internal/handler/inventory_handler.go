package handler

import (
	"bytes"

	"github.com/gofiber/fiber/v2"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/pkg/validator"
)

type InventoryHandler struct {
	service service.InventoryService
}

func NewInventoryHandler(s service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: s}
}

type quantityRequest struct {
	QuantityChange *float64 `json:"quantity_change"`
}

func (h *InventoryHandler) CreateProduct(c *fiber.Ctx) error {
	var in model.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return invalidJSON(c)
	}

	product, err := h.service.CreateProduct(c.UserContext(), companyID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Product created", "data": product})
}

func (h *InventoryHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in model.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return invalidJSON(c)
	}

	updated, err := h.service.EditProduct(c.UserContext(), companyID(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product updated", "data": updated})
}

func (h *InventoryHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.RemoveProduct(c.UserContext(), companyID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product removed"})
}

// UpdateQuantity applies a signed stock change: positive restocks, negative sells.
func (h *InventoryHandler) UpdateQuantity(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req quantityRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	if req.QuantityChange == nil {
		return respondError(c, &validator.ValidationError{Field: "quantity_change", Message: "is required"})
	}

	product, err := h.service.UpdateQuantity(c.UserContext(), companyID(c), id, *req.QuantityChange)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Quantity updated", "data": product})
}

func (h *InventoryHandler) GetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetProductsForCompany(c.UserContext(), companyID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}

func (h *InventoryHandler) SearchProducts(c *fiber.Ctx) error {
	products, err := h.service.SearchProducts(c.UserContext(), companyID(c), c.Query("query"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}

func (h *InventoryHandler) GetProductsByCategory(c *fiber.Ctx) error {
	products, err := h.service.GetProductsByCategory(c.UserContext(), companyID(c), c.Params("category"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}

func (h *InventoryHandler) GetTotalValue(c *fiber.Ctx) error {
	total, err := h.service.GetTotalValue(c.UserContext(), companyID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(total)
}

func (h *InventoryHandler) GetTransactions(c *fiber.Ctx) error {
	transactions, err := h.service.GetTransactions(c.UserContext(), companyID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(transactions)
}

func (h *InventoryHandler) ExportCSV(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.service.ExportToCSV(c.UserContext(), companyID(c), &buf); err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Attachment("inventory.csv")
	return c.Send(buf.Bytes())
}
