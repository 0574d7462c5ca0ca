package handler

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository/memstore"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/pkg/jwt"
)

type testEnv struct {
	app *fiber.App
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memstore.New()
	tokens := jwt.NewManager("test-secret", time.Hour, "test")

	inventory := service.NewInventoryService(service.InventoryDeps{
		Products:     store.Products(),
		Transactions: store.Transactions(),
		Tx:           store,
		Log:          zerolog.Nop(),
		StoreTimeout: time.Second,
	})
	feedback := service.NewFeedbackService(store.Feedback(), store.Products(), zerolog.Nop(), nil, time.Second)
	dashboard := service.NewDashboardService(store.Transactions(), 10)
	auth := service.NewAuthService(store.Users(), store, tokens, zerolog.Nop())

	app := fiber.New()
	SetupRoutes(app, Handlers{
		Auth:      NewAuthHandler(auth),
		Inventory: NewInventoryHandler(inventory),
		Dashboard: NewDashboardHandler(dashboard),
		Feedback:  NewFeedbackHandler(feedback),
		User:      NewUserHandler(service.NewUserService(store.Users(), zerolog.Nop())),
	}, tokens)
	return &testEnv{app: app}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (e *testEnv) login(t *testing.T, username, role, company string) string {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/api/v1/auth/register", "", fiber.Map{
		"username": username, "password": "hunter22", "role": role, "company_name": company,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = e.do(t, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"username": username, "password": "hunter22",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var login service.LoginResponse
	require.NoError(t, json.Unmarshal(body, &login))
	return login.Token
}

func errorBody(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &m))
	return m
}

func (e *testEnv) createProduct(t *testing.T, token string, in fiber.Map) model.Product {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/api/v1/products", token, in)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var out struct {
		Data model.Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	return out.Data
}

func TestAuthFlow(t *testing.T) {
	e := newTestEnv(t)
	e.login(t, "owner", model.RoleAdmin, "Acme")

	resp, body := e.do(t, http.MethodPost, "/api/v1/auth/register", "", fiber.Map{
		"username": "owner", "password": "hunter22",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode, string(body))

	resp, body = e.do(t, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"username": "owner", "password": "nope-nope",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_CREDENTIALS", errorBody(t, body)["code"])

	resp, body = e.do(t, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{"username": "owner"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "password", errorBody(t, body)["field"])

	resp, _ = e.do(t, http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProductLifecycle(t *testing.T) {
	e := newTestEnv(t)
	token := e.login(t, "owner", model.RoleAdmin, "Acme")

	p := e.createProduct(t, token, fiber.Map{
		"name": " Widget ", "price": 9.999, "quantity": 10, "category": "Tools", "country": "us",
	})
	assert.Equal(t, "Widget", p.Name)
	assert.Equal(t, "10", p.Price.String())
	assert.Equal(t, "tools", p.Category)
	assert.Equal(t, "US", p.Country)
	path := "/api/v1/products/" + strconv.FormatUint(uint64(p.ID), 10)

	resp, body := e.do(t, http.MethodPut, path+"/quantity", token, fiber.Map{"quantity_change": -15})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", errorBody(t, body)["code"])

	resp, body = e.do(t, http.MethodPut, path+"/quantity", token, fiber.Map{"quantity_change": -4})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = e.do(t, http.MethodPut, path+"/quantity", token, fiber.Map{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "quantity_change", errorBody(t, body)["field"])

	resp, body = e.do(t, http.MethodGet, "/api/v1/transactions", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var txs []model.Transaction
	require.NoError(t, json.Unmarshal(body, &txs))
	require.Len(t, txs, 2)
	assert.Equal(t, model.TxSale, txs[0].Type)
	assert.Equal(t, 4, txs[0].Quantity)

	resp, body = e.do(t, http.MethodGet, "/api/v1/products/search?query=widg", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var found []model.Product
	require.NoError(t, json.Unmarshal(body, &found))
	assert.Len(t, found, 1)

	resp, body = e.do(t, http.MethodGet, "/api/v1/total-value", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var total model.TotalValue
	require.NoError(t, json.Unmarshal(body, &total))
	assert.Equal(t, "60", total.Total.String())

	resp, _ = e.do(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = e.do(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestValidationErrorsNameTheField(t *testing.T) {
	e := newTestEnv(t)
	token := e.login(t, "owner", model.RoleAdmin, "Acme")

	resp, body := e.do(t, http.MethodPost, "/api/v1/products", token, fiber.Map{
		"name": "Widget", "price": 1, "quantity": 1, "category": "tools", "country": "XX",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	m := errorBody(t, body)
	assert.Equal(t, "VALIDATION_ERROR", m["code"])
	assert.Equal(t, "country", m["field"])

	resp, body = e.do(t, http.MethodPut, "/api/v1/products/abc", token, fiber.Map{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "id", errorBody(t, body)["field"])
}

func TestMissingFieldsAreRejected(t *testing.T) {
	e := newTestEnv(t)
	token := e.login(t, "owner", model.RoleAdmin, "Acme")

	resp, body := e.do(t, http.MethodPost, "/api/v1/products", token, fiber.Map{"name": "Bare", "category": "misc"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "price", errorBody(t, body)["field"])

	p := e.createProduct(t, token, fiber.Map{"name": "Widget", "price": 5, "quantity": 10, "category": "tools", "country": "US"})
	path := "/api/v1/products/" + strconv.FormatUint(uint64(p.ID), 10)

	resp, body = e.do(t, http.MethodPut, path, token, fiber.Map{"name": "Renamed", "category": "tools"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	m := errorBody(t, body)
	assert.Equal(t, "VALIDATION_ERROR", m["code"])
	assert.Equal(t, "price", m["field"])

	resp, body = e.do(t, http.MethodPut, path, token, fiber.Map{"name": "Renamed", "price": 5, "category": "tools", "country": "US"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "quantity", errorBody(t, body)["field"])

	resp, body = e.do(t, http.MethodGet, "/api/v1/products", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var products []model.Product
	require.NoError(t, json.Unmarshal(body, &products))
	require.Len(t, products, 1)
	got := products[0]
	assert.Equal(t, "Widget", got.Name)
	assert.Equal(t, 10, got.Quantity)
	assert.Equal(t, "US", got.Country)
	assert.Equal(t, "5", got.Price.String())

	resp, body = e.do(t, http.MethodGet, "/api/v1/transactions", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var txs []model.Transaction
	require.NoError(t, json.Unmarshal(body, &txs))
	assert.Len(t, txs, 1)
}

func TestTenantIsolationOverHTTP(t *testing.T) {
	e := newTestEnv(t)
	acme := e.login(t, "acme", model.RoleAdmin, "Acme")
	globex := e.login(t, "globex", model.RoleAdmin, "Globex")

	p := e.createProduct(t, acme, fiber.Map{"name": "Widget", "price": 1, "quantity": 1, "category": "tools", "country": "US"})
	path := "/api/v1/products/" + strconv.FormatUint(uint64(p.ID), 10)

	resp, _ := e.do(t, http.MethodPut, path+"/quantity", globex, fiber.Map{"quantity_change": 1})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = e.do(t, http.MethodPut, "/api/v1/products/9999/quantity", globex, fiber.Map{"quantity_change": 1})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := e.do(t, http.MethodGet, "/api/v1/products", globex, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, "[]", string(body))
}

func TestRoleSeparation(t *testing.T) {
	e := newTestEnv(t)
	admin := e.login(t, "owner", model.RoleAdmin, "Acme")
	shopper := e.login(t, "shopper", model.RoleUser, "")

	resp, _ := e.do(t, http.MethodGet, "/api/v1/products", shopper, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = e.do(t, http.MethodGet, "/api/v1/catalog", admin, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = e.do(t, http.MethodGet, "/api/v1/catalog", shopper, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFeedbackOverHTTP(t *testing.T) {
	e := newTestEnv(t)
	admin := e.login(t, "owner", model.RoleAdmin, "Acme")
	shopper := e.login(t, "shopper", model.RoleUser, "")
	other := e.login(t, "other", model.RoleUser, "")
	p := e.createProduct(t, admin, fiber.Map{"name": "Widget", "price": 1, "quantity": 1, "category": "tools", "country": "US"})

	resp, body := e.do(t, http.MethodPost, "/api/v1/feedback", shopper, fiber.Map{"product_id": p.ID, "rating": 6})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "rating", errorBody(t, body)["field"])

	resp, body = e.do(t, http.MethodPost, "/api/v1/feedback", shopper, fiber.Map{"product_id": p.ID, "rating": 4, "comment": "nice"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created struct {
		Data model.Feedback `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &created))
	path := "/api/v1/feedback/" + strconv.FormatUint(uint64(created.Data.ID), 10)

	resp, _ = e.do(t, http.MethodDelete, path, other, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = e.do(t, http.MethodGet, "/api/v1/analytics/reviews", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var analytics model.ReviewAnalytics
	require.NoError(t, json.Unmarshal(body, &analytics))
	assert.Len(t, analytics.RatingDistribution, 5)
	assert.Equal(t, int64(1), analytics.RatingDistribution[3].Count)

	resp, _ = e.do(t, http.MethodDelete, path, shopper, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestExportCSV(t *testing.T) {
	e := newTestEnv(t)
	token := e.login(t, "owner", model.RoleAdmin, "Acme")
	e.createProduct(t, token, fiber.Map{"name": "Widget", "price": 2.5, "quantity": 4, "category": "tools", "country": "GB"})

	resp, body := e.do(t, http.MethodGet, "/api/v1/export", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")

	records, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, service.CSVHeader, records[0])
	assert.Equal(t, "£10.00", records[1][7])
}

func TestDashboardOverHTTP(t *testing.T) {
	e := newTestEnv(t)
	token := e.login(t, "owner", model.RoleAdmin, "Acme")
	e.createProduct(t, token, fiber.Map{"name": "Widget", "price": 2, "quantity": 3, "category": "tools", "country": "US"})

	resp, body := e.do(t, http.MethodGet, "/api/v1/dashboard/stats", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	m := errorBody(t, body)
	assert.EqualValues(t, 1, m["total_products"])
	assert.EqualValues(t, 1, m["low_stock_count"])

	resp, body = e.do(t, http.MethodGet, "/api/v1/dashboard/stock-movement?days=abc", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 7, errorBody(t, body)["period"])
}

func TestProfileOverHTTP(t *testing.T) {
	e := newTestEnv(t)
	token := e.login(t, "owner", model.RoleAdmin, "Acme")

	resp, body := e.do(t, http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me model.UserResponse
	require.NoError(t, json.Unmarshal(body, &me))
	assert.Equal(t, "owner", me.Username)
	require.NotNil(t, me.Company)
	assert.Equal(t, "Acme", me.Company.Name)

	resp, _ = e.do(t, http.MethodPut, "/api/v1/me/password", token, fiber.Map{
		"old_password": "wrong-one", "new_password": "next-secret",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPut, "/api/v1/me/password", token, fiber.Map{
		"old_password": "hunter22", "new_password": "next-secret",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
