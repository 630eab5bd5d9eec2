package cart

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/MoonRock000/E-commerce/internal/inventory"
	"github.com/MoonRock000/E-commerce/internal/metrics"
	"github.com/MoonRock000/E-commerce/internal/product"
)

var (
	ErrInvalidQuantity = errors.New("quantity cannot be less than 1")
)

// Service coordinates cart mutations with stock reservation. Stock is
// consumed the moment an item enters a cart and returned when it leaves;
// checkout converts the reservation without touching stock again.
type Service struct {
	products product.Repository
	carts    Repository
	ledger   inventory.Ledger
	locks    *UserLocks
	metrics  *metrics.StoreMetrics
	logger   *log.Entry
}

func NewService(products product.Repository, carts Repository, ledger inventory.Ledger, locks *UserLocks, m *metrics.StoreMetrics, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger()).WithField("component", "cart")
	}
	return &Service{
		products: products,
		carts:    carts,
		ledger:   ledger,
		locks:    locks,
		metrics:  m,
		logger:   logger,
	}
}

// AddItem puts qty units of a product into the user's cart, creating the
// cart on first use. Merges into an existing entry when the product is
// already present.
func (s *Service) AddItem(ctx context.Context, userID, productID string, qty int) (*Cart, error) {
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}
	unlock := s.locks.Lock(userID)
	defer unlock()

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	price, err := decimal.NewFromString(p.Price)
	if err != nil {
		return nil, err
	}

	c, err := s.carts.GetByUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		c = &Cart{UserID: userID}
	} else if err != nil {
		return nil, err
	}

	if err := s.ledger.Reserve(ctx, productID, qty); err != nil {
		if errors.Is(err, inventory.ErrOutOfStock) {
			s.metrics.StockRejected()
		}
		return nil, err
	}

	lineTotal := price.Mul(decimal.NewFromInt(int64(qty)))
	if e := c.Entry(productID); e != nil {
		cur, err := decimal.NewFromString(e.TotalPrice)
		if err != nil {
			cur = decimal.Zero
		}
		e.Quantity += qty
		e.TotalPrice = cur.Add(lineTotal).StringFixed(2)
	} else {
		c.Entries = append(c.Entries, Entry{
			ProductID:  productID,
			Quantity:   qty,
			TotalPrice: lineTotal.StringFixed(2),
		})
	}
	if err := c.RecomputePrice(); err != nil {
		s.compensate(ctx, productID, qty)
		return nil, err
	}
	if err := s.carts.Save(ctx, c); err != nil {
		s.compensate(ctx, productID, qty)
		return nil, err
	}
	s.metrics.CartMutated("add")
	return c, nil
}

// RemoveItem drops a product from the cart and returns its reserved
// quantity to stock.
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (*Cart, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	c, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	e := c.Entry(productID)
	if e == nil {
		return nil, ErrEntryNotFound
	}
	released := e.Quantity

	if err := s.ledger.Release(ctx, productID, released); err != nil {
		return nil, err
	}
	c.RemoveEntry(productID)
	if err := c.RecomputePrice(); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, c); err != nil {
		s.compensate(ctx, productID, -released)
		return nil, err
	}
	s.metrics.CartMutated("remove")
	return c, nil
}

// UpdateQuantity sets an entry to an absolute quantity, reserving the
// increase or releasing the decrease.
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID string, newQty int) (*Cart, error) {
	if newQty < 1 {
		return nil, ErrInvalidQuantity
	}
	unlock := s.locks.Lock(userID)
	defer unlock()

	c, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	e := c.Entry(productID)
	if e == nil {
		return nil, ErrEntryNotFound
	}
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	price, err := decimal.NewFromString(p.Price)
	if err != nil {
		return nil, err
	}

	delta := newQty - e.Quantity
	switch {
	case delta > 0:
		if err := s.ledger.Reserve(ctx, productID, delta); err != nil {
			if errors.Is(err, inventory.ErrOutOfStock) {
				s.metrics.StockRejected()
			}
			return nil, err
		}
	case delta < 0:
		if err := s.ledger.Release(ctx, productID, -delta); err != nil {
			return nil, err
		}
	}

	e.Quantity = newQty
	e.TotalPrice = price.Mul(decimal.NewFromInt(int64(newQty))).StringFixed(2)
	if err := c.RecomputePrice(); err != nil {
		s.compensate(ctx, productID, delta)
		return nil, err
	}
	if err := s.carts.Save(ctx, c); err != nil {
		s.compensate(ctx, productID, delta)
		return nil, err
	}
	s.metrics.CartMutated("update")
	return c, nil
}

// View returns the cart with product details resolved. An absent cart comes
// back empty, never as an error.
func (s *Service) View(ctx context.Context, userID string) (*Cart, error) {
	c, err := s.carts.GetByUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return &Cart{UserID: userID, Entries: []Entry{}, Price: "0.00"}, nil
	}
	if err != nil {
		return nil, err
	}
	for i := range c.Entries {
		p, err := s.products.GetByID(ctx, c.Entries[i].ProductID)
		if err != nil {
			continue // product removed from catalog; keep the entry raw
		}
		c.Entries[i].Product = p
	}
	return c, nil
}

// Clear deletes the user's cart, releasing every reservation it held.
// Idempotent: clearing an absent cart is a no-op.
func (s *Service) Clear(ctx context.Context, userID string) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	c, err := s.carts.GetByUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, e := range c.Entries {
		if err := s.ledger.Release(ctx, e.ProductID, e.Quantity); err != nil {
			s.logger.WithError(err).WithField("product_id", e.ProductID).Warn("release on clear failed")
		}
	}
	_, err = s.carts.Delete(ctx, userID)
	if err == nil {
		s.metrics.CartMutated("clear")
	}
	return err
}

// compensate undoes a reservation delta after a failed save.
func (s *Service) compensate(ctx context.Context, productID string, delta int) {
	if delta == 0 {
		return
	}
	if err := s.ledger.Adjust(ctx, productID, delta); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"product_id": productID,
			"delta":      delta,
		}).Error("stock compensation failed")
	}
}
