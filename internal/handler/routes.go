package handler

import (
	"github.com/gofiber/fiber/v2"

	"go-inventory-ledger/internal/middleware"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/pkg/jwt"
)

type Handlers struct {
	Auth      *AuthHandler
	Inventory *InventoryHandler
	Dashboard *DashboardHandler
	Feedback  *FeedbackHandler
	User      *UserHandler
	WS        *WSHandler
}

// SetupRoutes mounts the /api/v1 surface and the /ws endpoint.
func SetupRoutes(app *fiber.App, h Handlers, tokens *jwt.Manager) {
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)

	requireAuth := middleware.RequireAuth(tokens)
	// Group-level middleware would apply to the whole prefix, so roles are checked per route.
	admin := func(handler fiber.Handler) []fiber.Handler {
		return []fiber.Handler{requireAuth, middleware.RequireRole(model.RoleAdmin), handler}
	}
	user := func(handler fiber.Handler) []fiber.Handler {
		return []fiber.Handler{requireAuth, middleware.RequireRole(model.RoleUser), handler}
	}

	// ============ ACCOUNT ROUTES ============
	// Any signed-in role.
	if h.User != nil {
		api.Get("/me", requireAuth, h.User.GetProfile)
		api.Put("/me/password", requireAuth, h.User.ChangePassword)
	}

	// ============ ADMIN ROUTES ============
	// Tenant comes from the token, never from the request.
	api.Get("/products", admin(h.Inventory.GetProducts)...)
	api.Post("/products", admin(h.Inventory.CreateProduct)...)
	api.Get("/products/search", admin(h.Inventory.SearchProducts)...)
	api.Get("/products/category/:category", admin(h.Inventory.GetProductsByCategory)...)
	api.Put("/products/:id/quantity", admin(h.Inventory.UpdateQuantity)...)
	api.Put("/products/:id", admin(h.Inventory.UpdateProduct)...)
	api.Delete("/products/:id", admin(h.Inventory.DeleteProduct)...)
	api.Get("/total-value", admin(h.Inventory.GetTotalValue)...)
	api.Get("/export", admin(h.Inventory.ExportCSV)...)
	api.Get("/transactions", admin(h.Inventory.GetTransactions)...)
	api.Get("/dashboard/stats", admin(h.Dashboard.GetDashboardStats)...)
	api.Get("/dashboard/stock-movement", admin(h.Dashboard.GetStockMovement)...)
	api.Get("/feedback/company", admin(h.Feedback.GetCompanyFeedback)...)
	api.Get("/analytics/reviews", admin(h.Feedback.GetReviewAnalytics)...)

	// ============ USER ROUTES ============
	api.Get("/catalog", user(h.Feedback.GetCatalog)...)
	api.Post("/feedback", user(h.Feedback.CreateFeedback)...)
	api.Get("/feedback/mine", user(h.Feedback.GetMyFeedback)...)
	api.Put("/feedback/:id", user(h.Feedback.UpdateFeedback)...)
	api.Delete("/feedback/:id", user(h.Feedback.DeleteFeedback)...)

	// WebSocket Route
	if h.WS != nil {
		app.Get("/ws", requireAuth, h.WS.Upgrade, h.WS.Serve())
	}
}
