package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/MoonRock000/E-commerce/internal/cart"
	"github.com/MoonRock000/E-commerce/internal/inventory"
	"github.com/MoonRock000/E-commerce/internal/order"
	"github.com/MoonRock000/E-commerce/internal/product"
)

//
// ---------- TEST WIRING ----------
//

type testEnv struct {
	router   *gin.Engine
	products *product.MemRepo
}

// newTestEnv wires the whole router against the in-memory backends.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	products := product.NewMemRepo()
	carts := cart.NewMemRepo()
	orders := order.NewMemRepo(carts)
	ledger := inventory.NewMemLedger(products)
	locks := cart.NewUserLocks()

	cartSvc := cart.NewService(products, carts, ledger, locks, nil, nil)
	orderSvc := order.NewService(orders, carts, products, ledger, locks, nil, nil, nil, true)

	return &testEnv{
		router:   setupRouter(products, cartSvc, orderSvc),
		products: products,
	}
}

func (e *testEnv) seedProduct(t *testing.T, name, price string, stock int) string {
	t.Helper()
	p := &product.Product{Name: name, Price: price, Stock: stock}
	if err := e.products.Create(context.Background(), p); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p.ID
}

func (e *testEnv) stockOf(t *testing.T, id string) int {
	t.Helper()
	p, err := e.products.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	return p.Stock
}

// do runs a request with the identity headers the gateway would inject.
func (e *testEnv) do(method, path, body, userID, role string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	if role != "" {
		req.Header.Set("X-User-Role", role)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

//
// ---------- CART ----------
//

func TestAddToCart_HappyPath(t *testing.T) {
	env := newTestEnv(t)
	pid := env.seedProduct(t, "Widget", "5.00", 10)

	body := fmt.Sprintf(`{"product_id":%q,"quantity":3}`, pid)
	w := env.do(http.MethodPost, "/cart/add", body, "u1", "user")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	var c cart.Cart
	if err := json.Unmarshal(w.Body.Bytes(), &c); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if len(c.Entries) != 1 || c.Entries[0].Quantity != 3 {
		t.Fatalf("unexpected entries: %+v", c.Entries)
	}
	if c.Price != "15.00" {
		t.Fatalf("price=%s, expected 15.00", c.Price)
	}
	if got := env.stockOf(t, pid); got != 7 {
		t.Fatalf("stock=%d, expected 7", got)
	}
}

func TestAddToCart_UnknownProduct(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/cart/add", `{"product_id":"nope","quantity":1}`, "u1", "user")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%s (expected 404)", w.Code, w.Body.String())
	}
}

func TestAddToCart_OutOfStock(t *testing.T) {
	env := newTestEnv(t)
	pid := env.seedProduct(t, "Widget", "5.00", 2)

	body := fmt.Sprintf(`{"product_id":%q,"quantity":3}`, pid)
	w := env.do(http.MethodPost, "/cart/add", body, "u1", "user")
	if w.Code != http.StatusConflict {
		t.Fatalf("status=%d body=%s (expected 409)", w.Code, w.Body.String())
	}
}

func TestAddToCart_MissingIdentity(t *testing.T) {
	env := newTestEnv(t)
	pid := env.seedProduct(t, "Widget", "5.00", 2)

	body := fmt.Sprintf(`{"product_id":%q,"quantity":1}`, pid)
	w := env.do(http.MethodPost, "/cart/add", body, "", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d body=%s (expected 401)", w.Code, w.Body.String())
	}
}

func TestGetCart_EmptyByDefault(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/cart", "", "u1", "user")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var c cart.Cart
	if err := json.Unmarshal(w.Body.Bytes(), &c); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if len(c.Entries) != 0 || c.Price != "0.00" {
		t.Fatalf("expected empty cart, got %+v", c)
	}
}

func TestUpdateCart_BadQuantity(t *testing.T) {
	env := newTestEnv(t)
	pid := env.seedProduct(t, "Widget", "5.00", 5)
	env.do(http.MethodPost, "/cart/add", fmt.Sprintf(`{"product_id":%q,"quantity":1}`, pid), "u1", "user")

	w := env.do(http.MethodPatch, "/cart", fmt.Sprintf(`{"product_id":%q,"quantity":0}`, pid), "u1", "user")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s (expected 400)", w.Code, w.Body.String())
	}
}

func TestClearCart_ReleasesStock(t *testing.T) {
	env := newTestEnv(t)
	pid := env.seedProduct(t, "Widget", "5.00", 10)
	env.do(http.MethodPost, "/cart/add", fmt.Sprintf(`{"product_id":%q,"quantity":4}`, pid), "u1", "user")

	w := env.do(http.MethodDelete, "/cart", "", "u1", "user")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if got := env.stockOf(t, pid); got != 10 {
		t.Fatalf("stock=%d, expected 10 after clear", got)
	}

	// Clearing again is a no-op.
	w = env.do(http.MethodDelete, "/cart", "", "u1", "user")
	if w.Code != http.StatusOK {
		t.Fatalf("second clear: status=%d body=%s", w.Code, w.Body.String())
	}
}

//
// ---------- CHECKOUT & ORDERS ----------
//

func TestCheckout_HappyPath(t *testing.T) {
	env := newTestEnv(t)
	pid := env.seedProduct(t, "Widget", "5.00", 10)
	env.do(http.MethodPost, "/cart/add", fmt.Sprintf(`{"product_id":%q,"quantity":3}`, pid), "u1", "user")
	env.do(http.MethodPost, "/cart/add", fmt.Sprintf(`{"product_id":%q,"quantity":2}`, pid), "u1", "user")

	w := env.do(http.MethodPost, "/cart/checkout", `{"address":"123 Main St"}`, "u1", "user")
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var o order.Order
	if err := json.Unmarshal(w.Body.Bytes(), &o); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if o.Status != order.StatusProcessing || o.Price != "25.00" {
		t.Fatalf("order=%+v, expected processing/25.00", o)
	}
	if o.Shipping.Company != order.DefaultShippingCompany {
		t.Fatalf("company=%s", o.Shipping.Company)
	}

	// Cart is consumed by checkout.
	w = env.do(http.MethodGet, "/cart", "", "u1", "user")
	var c cart.Cart
	if err := json.Unmarshal(w.Body.Bytes(), &c); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if len(c.Entries) != 0 {
		t.Fatalf("cart should be empty after checkout, got %+v", c.Entries)
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/cart/checkout", `{"address":"123 Main St"}`, "u1", "user")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s (expected 400)", w.Code, w.Body.String())
	}
}

func TestUpdateOrder_InvalidStatus(t *testing.T) {
	env := newTestEnv(t)
	pid := env.seedProduct(t, "Widget", "5.00", 10)
	env.do(http.MethodPost, "/cart/add", fmt.Sprintf(`{"product_id":%q,"quantity":1}`, pid), "u1", "user")
	w := env.do(http.MethodPost, "/cart/checkout", `{"address":"123 Main St"}`, "u1", "user")
	var o order.Order
	if err := json.Unmarshal(w.Body.Bytes(), &o); err != nil {
		t.Fatalf("bad json: %v", err)
	}

	w = env.do(http.MethodPatch, "/orders/"+o.ID, `{"status":"wtf"}`, "admin", "admin")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s (expected 400)", w.Code, w.Body.String())
	}
}

func TestUpdateOrder_ForbiddenForUsers(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPatch, "/orders/any", `{"status":"shipped"}`, "u1", "user")
	if w.Code != http.StatusForbidden {
		t.Fatalf("status=%d body=%s (expected 403)", w.Code, w.Body.String())
	}
}

func TestCancelOrder_OwnerKeepsRecord(t *testing.T) {
	env := newTestEnv(t)
	pid := env.seedProduct(t, "Widget", "5.00", 10)
	env.do(http.MethodPost, "/cart/add", fmt.Sprintf(`{"product_id":%q,"quantity":4}`, pid), "u1", "user")
	w := env.do(http.MethodPost, "/cart/checkout", `{"address":"123 Main St"}`, "u1", "user")
	var o order.Order
	if err := json.Unmarshal(w.Body.Bytes(), &o); err != nil {
		t.Fatalf("bad json: %v", err)
	}

	w = env.do(http.MethodDelete, "/orders/"+o.ID, "", "u1", "user")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if got := env.stockOf(t, pid); got != 10 {
		t.Fatalf("stock=%d, expected 10 after cancel", got)
	}

	w = env.do(http.MethodGet, "/orders/"+o.ID, "", "u1", "user")
	if w.Code != http.StatusOK {
		t.Fatalf("canceled order should still be readable: status=%d", w.Code)
	}
	var got order.Order
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if got.Status != order.StatusCanceled {
		t.Fatalf("status=%s, expected canceled", got.Status)
	}
}

func TestCancelOrder_AdminDeletes(t *testing.T) {
	env := newTestEnv(t)
	pid := env.seedProduct(t, "Widget", "5.00", 10)
	env.do(http.MethodPost, "/cart/add", fmt.Sprintf(`{"product_id":%q,"quantity":2}`, pid), "u1", "user")
	w := env.do(http.MethodPost, "/cart/checkout", `{"address":"123 Main St"}`, "u1", "user")
	var o order.Order
	if err := json.Unmarshal(w.Body.Bytes(), &o); err != nil {
		t.Fatalf("bad json: %v", err)
	}

	w = env.do(http.MethodDelete, "/orders/"+o.ID, "", "admin", "admin")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if got := env.stockOf(t, pid); got != 10 {
		t.Fatalf("stock=%d, expected 10 after admin delete", got)
	}
	w = env.do(http.MethodGet, "/orders/"+o.ID, "", "admin", "admin")
	if w.Code != http.StatusNotFound {
		t.Fatalf("deleted order should be gone: status=%d", w.Code)
	}
}

//
// ---------- CATALOG ----------
//

func TestCreateProduct_RequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	body := `{"name":"Widget","price":"5.00","stock":10}`

	w := env.do(http.MethodPost, "/products", body, "u1", "user")
	if w.Code != http.StatusForbidden {
		t.Fatalf("status=%d body=%s (expected 403)", w.Code, w.Body.String())
	}

	w = env.do(http.MethodPost, "/products", body, "admin", "admin")
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s (expected 201)", w.Code, w.Body.String())
	}
	var p product.Product
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if p.ID == "" || p.Stock != 10 {
		t.Fatalf("unexpected product: %+v", p)
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/products/nope", "", "", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%s (expected 404)", w.Code, w.Body.String())
	}
}

func TestListProducts_Search(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "Blue Widget", "5.00", 1)
	env.seedProduct(t, "Red Gadget", "7.00", 1)

	w := env.do(http.MethodGet, "/products?q=widget", "", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp product.ListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Name != "Blue Widget" {
		t.Fatalf("unexpected items: %+v", resp.Items)
	}
}

// brokenProductRepo simulates a storage outage on reads.
type brokenProductRepo struct {
	*product.MemRepo
}

func (brokenProductRepo) GetByID(context.Context, string) (*product.Product, error) {
	return nil, errors.New("dial tcp 127.0.0.1:5432: connection refused")
}

func TestGetProduct_StorageErrorIsNot404(t *testing.T) {
	products := brokenProductRepo{MemRepo: product.NewMemRepo()}
	carts := cart.NewMemRepo()
	orders := order.NewMemRepo(carts)
	ledger := inventory.NewMemLedger(products)
	locks := cart.NewUserLocks()
	cartSvc := cart.NewService(products, carts, ledger, locks, nil, nil)
	orderSvc := order.NewService(orders, carts, products, ledger, locks, nil, nil, nil, true)
	router := setupRouter(products, cartSvc, orderSvc)

	req := httptest.NewRequest(http.MethodGet, "/products/any", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d body=%s (storage failure must be 500, not 404)", w.Code, w.Body.String())
	}

	// Same classification on the cart path.
	req = httptest.NewRequest(http.MethodPost, "/cart/add", bytes.NewBufferString(`{"product_id":"any","quantity":1}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "u1")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d body=%s (storage failure must be 500, not 404)", w.Code, w.Body.String())
	}
}

func TestUpdateProduct_NegativeStock(t *testing.T) {
	env := newTestEnv(t)
	pid := env.seedProduct(t, "Widget", "5.00", 1)

	w := env.do(http.MethodPut, "/products/"+pid, `{"stock":-1}`, "admin", "admin")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s (expected 400)", w.Code, w.Body.String())
	}
}

func init() {
	gin.SetMode(gin.TestMode)
	gin.DefaultWriter = io.Discard
	log.SetOutput(io.Discard)
}
