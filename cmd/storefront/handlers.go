package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MoonRock000/E-commerce/internal/cart"
	"github.com/MoonRock000/E-commerce/internal/httpx"
	"github.com/MoonRock000/E-commerce/internal/inventory"
	"github.com/MoonRock000/E-commerce/internal/order"
	"github.com/MoonRock000/E-commerce/internal/product"
)

// writeError maps domain errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	var stockErr order.InsufficientStockError
	switch {
	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, cart.ErrNotFound),
		errors.Is(err, cart.ErrEntryNotFound),
		errors.Is(err, order.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, inventory.ErrOutOfStock):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, gin.H{"error": stockErr.Error()})
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, order.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

//
// ===== CATALOG =====
//

// @Summary List products
// @Produce json
// @Param q query string false "search"
// @Param limit query int false "limit"
// @Param offset query int false "offset"
// @Success 200 {object} product.ListResponse
// @Router /products [get]
func listProductsHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		q := product.Query{Q: c.Query("q"), Limit: limit, Offset: offset}
		items, err := repo.List(c.Request.Context(), q)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, product.ListResponse{Q: q.Q, Limit: limit, Offset: offset, Items: items})
	}
}

// @Summary Get a product by id
// @Produce json
// @Param id path string true "product id"
// @Success 200 {object} product.Product
// @Failure 404 {object} product.HTTPError
// @Router /products/{id} [get]
func getProductHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// @Summary Create a product (admin)
// @Accept json
// @Produce json
// @Param body body product.CreateProductRequest true "product"
// @Success 201 {object} product.Product
// @Failure 400 {object} product.HTTPError
// @Router /products [post]
func createProductHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req product.CreateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		if req.Name == "" || req.Price == "" || req.Stock < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name, price and non-negative stock are required"})
			return
		}
		p := &product.Product{
			ID:          uuid.NewString(),
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			Stock:       req.Stock,
			Images:      req.Images,
		}
		if err := repo.Create(c.Request.Context(), p); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

// @Summary Update a product (admin)
// @Accept json
// @Produce json
// @Param id path string true "product id"
// @Param body body product.UpdateProductRequest true "fields"
// @Success 200 {object} product.Product
// @Router /products/{id} [put]
func updateProductHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req product.UpdateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		cur, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		stock := cur.Stock
		if req.Stock != nil {
			if *req.Stock < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "stock must be non-negative"})
				return
			}
			stock = *req.Stock
		}
		p := &product.Product{
			ID:          cur.ID,
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			Stock:       stock,
			Images:      req.Images,
		}
		if err := repo.Update(c.Request.Context(), p, req.Price != ""); err != nil {
			writeError(c, err)
			return
		}
		out, err := repo.GetByID(c.Request.Context(), cur.ID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary Delete a product (admin)
// @Param id path string true "product id"
// @Success 200 {object} map[string]string
// @Failure 404 {object} product.HTTPError
// @Router /products/{id} [delete]
func deleteProductHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := repo.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
	}
}

//
// ===== CART =====
//

// @Summary Add a product to the cart
// @Accept json
// @Produce json
// @Param body body cart.AddToCartRequest true "item"
// @Success 200 {object} cart.Cart
// @Failure 404 {object} product.HTTPError
// @Failure 409 {object} product.HTTPError
// @Router /cart/add [post]
func addToCartHandler(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cart.AddToCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		id := httpx.IdentityFrom(c)
		out, err := svc.AddItem(c.Request.Context(), id.UserID, req.ProductID, req.Quantity)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary Remove a product from the cart
// @Accept json
// @Produce json
// @Param body body cart.RemoveFromCartRequest true "item"
// @Success 200 {object} cart.Cart
// @Router /cart/remove [patch]
func removeFromCartHandler(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cart.RemoveFromCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		id := httpx.IdentityFrom(c)
		out, err := svc.RemoveItem(c.Request.Context(), id.UserID, req.ProductID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary Set an absolute quantity for a cart entry
// @Accept json
// @Produce json
// @Param body body cart.UpdateCartRequest true "item"
// @Success 200 {object} cart.Cart
// @Router /cart [patch]
func updateCartHandler(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cart.UpdateCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		id := httpx.IdentityFrom(c)
		out, err := svc.UpdateQuantity(c.Request.Context(), id.UserID, req.ProductID, req.Quantity)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary Empty the cart, returning reserved stock
// @Produce json
// @Success 200 {object} map[string]string
// @Router /cart [delete]
func clearCartHandler(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := httpx.IdentityFrom(c)
		if err := svc.Clear(c.Request.Context(), id.UserID); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "cart cleared"})
	}
}

// @Summary View the cart
// @Produce json
// @Success 200 {object} cart.Cart
// @Router /cart [get]
func getCartHandler(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := httpx.IdentityFrom(c)
		out, err := svc.View(c.Request.Context(), id.UserID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

//
// ===== ORDERS =====
//

// @Summary Convert the cart into an order
// @Accept json
// @Produce json
// @Param body body order.CheckoutRequest true "shipping"
// @Success 201 {object} order.Order
// @Failure 400 {object} product.HTTPError
// @Router /cart/checkout [post]
func checkoutHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		id := httpx.IdentityFrom(c)
		o, err := svc.Checkout(c.Request.Context(), id, req.Address)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, o)
	}
}

// @Summary List orders (admins see all, users their own)
// @Produce json
// @Success 200 {array} order.Order
// @Router /orders [get]
func listOrdersHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svc.List(c.Request.Context(), httpx.IdentityFrom(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": out})
	}
}

// @Summary Get an order by id
// @Produce json
// @Param id path string true "order id"
// @Success 200 {object} order.Order
// @Failure 403 {object} product.HTTPError
// @Router /orders/{id} [get]
func getOrderHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.Get(c.Request.Context(), c.Param("id"), httpx.IdentityFrom(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// @Summary Patch an order (admin): lines, status, shipping
// @Accept json
// @Produce json
// @Param id path string true "order id"
// @Param body body order.Patch true "patch"
// @Success 200 {object} order.Order
// @Failure 409 {object} product.HTTPError
// @Router /orders/{id} [patch]
func updateOrderHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch order.Patch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		o, err := svc.Update(c.Request.Context(), c.Param("id"), httpx.IdentityFrom(c), patch)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// @Summary Cancel an order (owner) or delete it (admin)
// @Produce json
// @Param id path string true "order id"
// @Success 200 {object} map[string]string
// @Failure 403 {object} product.HTTPError
// @Router /orders/{id} [delete]
func cancelOrderHandler(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := httpx.IdentityFrom(c)
		if err := svc.Cancel(c.Request.Context(), c.Param("id"), id); err != nil {
			writeError(c, err)
			return
		}
		if id.IsAdmin() {
			c.JSON(http.StatusOK, gin.H{"message": "order deleted successfully"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "order canceled successfully"})
	}
}
