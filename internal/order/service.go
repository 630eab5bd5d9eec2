package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/MoonRock000/E-commerce/internal/cart"
	"github.com/MoonRock000/E-commerce/internal/events"
	"github.com/MoonRock000/E-commerce/internal/identity"
	"github.com/MoonRock000/E-commerce/internal/inventory"
	"github.com/MoonRock000/E-commerce/internal/metrics"
	"github.com/MoonRock000/E-commerce/internal/product"
)

// Service runs the checkout and order update workflows.
type Service struct {
	orders   Repository
	carts    cart.Repository
	products product.Repository
	ledger   inventory.Ledger
	locks    *cart.UserLocks
	pub      events.Publisher
	metrics  *metrics.StoreMetrics
	logger   *log.Entry

	// cartsColocated is true when carts live in the same Postgres database
	// as orders, letting Create drop the cart inside the checkout
	// transaction. With the Redis cart backend the clear happens as a
	// second write after commit.
	cartsColocated bool
}

func NewService(
	orders Repository,
	carts cart.Repository,
	products product.Repository,
	ledger inventory.Ledger,
	locks *cart.UserLocks,
	pub events.Publisher,
	m *metrics.StoreMetrics,
	logger *log.Entry,
	cartsColocated bool,
) *Service {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger()).WithField("component", "order")
	}
	if pub == nil {
		pub = events.Noop{}
	}
	return &Service{
		orders:         orders,
		carts:          carts,
		products:       products,
		ledger:         ledger,
		locks:          locks,
		pub:            pub,
		metrics:        m,
		logger:         logger,
		cartsColocated: cartsColocated,
	}
}

// Checkout converts the user's cart into an order. The cart entries were
// reserved against stock when they were added, so checkout snapshots them
// and clears the cart without touching stock again.
func (s *Service) Checkout(ctx context.Context, actor identity.Identity, address string) (*Order, error) {
	start := time.Now()
	unlock := s.locks.Lock(actor.UserID)
	defer unlock()

	c, err := s.carts.GetByUser(ctx, actor.UserID)
	if errors.Is(err, cart.ErrNotFound) {
		return nil, ErrEmptyCart
	}
	if err != nil {
		s.metrics.CheckoutFailed()
		return nil, err
	}
	if len(c.Entries) == 0 {
		return nil, ErrEmptyCart
	}

	if address == "" {
		address = actor.Address
	}
	if address == "" {
		return nil, ErrValidation
	}

	// Every referenced product must still exist in the catalog.
	for _, e := range c.Entries {
		if _, err := s.products.GetByID(ctx, e.ProductID); err != nil {
			s.metrics.CheckoutFailed()
			return nil, err
		}
	}

	o := &Order{
		ID:     uuid.NewString(),
		UserID: actor.UserID,
		Status: StatusProcessing,
		Shipping: ShippingInfo{
			Address: address,
			Company: DefaultShippingCompany,
		},
		Price: c.Price,
	}
	for _, e := range c.Entries {
		o.Lines = append(o.Lines, Line{ProductID: e.ProductID, Quantity: e.Quantity})
	}

	clearUser := ""
	if s.cartsColocated {
		clearUser = actor.UserID
	}
	if err := s.orders.Create(ctx, o, clearUser); err != nil {
		s.metrics.CheckoutFailed()
		return nil, err
	}
	if !s.cartsColocated {
		if _, err := s.carts.Delete(ctx, actor.UserID); err != nil {
			s.logger.WithError(err).WithField("user_id", actor.UserID).Error("cart clear after checkout failed")
		}
	}

	s.metrics.CheckoutCompleted(time.Since(start))
	s.pub.Publish(events.EventOrderCreated, o.ID, events.OrderCreatedPayload{
		OrderID: o.ID,
		UserID:  o.UserID,
		Price:   o.Price,
		Lines:   linePayloads(o.Lines),
	})
	s.logger.WithFields(log.Fields{"order_id": o.ID, "user_id": o.UserID, "price": o.Price}).Info("order created")
	return o, nil
}

// Update applies an admin patch: line replacement with stock re-validation,
// status overwrite and shipping edits. Line deltas are validated for every
// line before any stock change is applied.
func (s *Service) Update(ctx context.Context, orderID string, actor identity.Identity, patch Patch) (*Order, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if patch.Lines != nil {
		if err := s.applyLines(ctx, o, patch.Lines); err != nil {
			return nil, err
		}
	}

	if patch.Status != "" {
		if !patch.Status.Valid() {
			return nil, ErrValidation
		}
		if patch.Status == StatusCanceled && o.Status != StatusCanceled {
			s.restock(ctx, o)
		}
		o.Status = patch.Status
		s.metrics.OrderStatusChanged(string(patch.Status))
	}

	if patch.Shipping != nil {
		if patch.Shipping.Address == "" {
			return nil, ErrValidation
		}
		if patch.Shipping.Company == "" {
			patch.Shipping.Company = DefaultShippingCompany
		}
		o.Shipping = *patch.Shipping
	}

	if err := s.orders.Update(ctx, o); err != nil {
		return nil, err
	}
	s.pub.Publish(events.EventOrderStatusChanged, o.ID, events.OrderStatusPayload{
		OrderID: o.ID,
		Status:  string(o.Status),
	})
	return o, nil
}

// applyLines replaces the order's line set. Two-pass: validate every delta
// against current stock first, then apply them, so a late failure cannot
// leave a partially adjusted order.
func (s *Service) applyLines(ctx context.Context, o *Order, lines []LineInput) error {
	type change struct {
		p     *product.Product
		qty   int
		delta int
	}
	changes := make([]change, 0, len(lines))
	for _, in := range lines {
		if in.Quantity < 1 {
			return ErrValidation
		}
		p, err := s.products.GetByID(ctx, in.ProductID)
		if err != nil {
			return err
		}
		old := 0
		if l := o.Line(in.ProductID); l != nil {
			old = l.Quantity
		}
		delta := in.Quantity - old
		if delta > 0 && p.Stock < delta {
			s.metrics.StockRejected()
			return InsufficientStockError{Name: p.Name}
		}
		changes = append(changes, change{p: p, qty: in.Quantity, delta: delta})
	}

	applied := make([]change, 0, len(changes))
	for _, ch := range changes {
		if ch.delta == 0 {
			continue
		}
		if err := s.ledger.Adjust(ctx, ch.p.ID, -ch.delta); err != nil {
			// Unwind what already went through.
			for _, a := range applied {
				if cerr := s.ledger.Adjust(ctx, a.p.ID, a.delta); cerr != nil {
					s.logger.WithError(cerr).WithField("product_id", a.p.ID).Error("stock unwind failed")
				}
			}
			if errors.Is(err, inventory.ErrOutOfStock) {
				s.metrics.StockRejected()
				return InsufficientStockError{Name: ch.p.Name}
			}
			return err
		}
		applied = append(applied, ch)
	}

	o.Lines = o.Lines[:0]
	total := decimal.Zero
	for _, ch := range changes {
		o.Lines = append(o.Lines, Line{ProductID: ch.p.ID, Quantity: ch.qty})
		price, err := decimal.NewFromString(ch.p.Price)
		if err != nil {
			return err
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(ch.qty))))
	}
	o.Price = total.StringFixed(2)
	return nil
}

// Cancel is available to the owner and to admins. The owner's cancel keeps
// the record with status canceled; an admin cancel deletes it permanently.
// Both return the line quantities to stock unless the order was already
// canceled.
func (s *Service) Cancel(ctx context.Context, orderID string, actor identity.Identity) error {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if o.UserID != actor.UserID && !actor.IsAdmin() {
		return ErrForbidden
	}
	restock := o.Status != StatusCanceled

	if actor.IsAdmin() {
		if _, err := s.orders.Delete(ctx, orderID); err != nil {
			return err
		}
		if restock {
			s.restock(ctx, o)
		}
		s.pub.Publish(events.EventOrderDeleted, o.ID, events.OrderStatusPayload{OrderID: o.ID, Status: "deleted"})
		return nil
	}

	o.Status = StatusCanceled
	if err := s.orders.Update(ctx, o); err != nil {
		return err
	}
	if restock {
		s.restock(ctx, o)
	}
	s.metrics.OrderStatusChanged(string(StatusCanceled))
	s.pub.Publish(events.EventOrderCanceled, o.ID, events.OrderStatusPayload{
		OrderID: o.ID,
		Status:  string(StatusCanceled),
	})
	return nil
}

// Get returns the order with product details resolved; only the owner and
// admins may read it.
func (s *Service) Get(ctx context.Context, orderID string, actor identity.Identity) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	for i := range o.Lines {
		if p, err := s.products.GetByID(ctx, o.Lines[i].ProductID); err == nil {
			o.Lines[i].Product = p
		}
	}
	return o, nil
}

// List returns all orders for admins and the actor's own orders otherwise.
func (s *Service) List(ctx context.Context, actor identity.Identity) ([]Order, error) {
	if actor.IsAdmin() {
		return s.orders.List(ctx)
	}
	return s.orders.ListByUser(ctx, actor.UserID)
}

func (s *Service) restock(ctx context.Context, o *Order) {
	for _, l := range o.Lines {
		if err := s.ledger.Release(ctx, l.ProductID, l.Quantity); err != nil {
			s.logger.WithError(err).WithFields(log.Fields{
				"order_id":   o.ID,
				"product_id": l.ProductID,
			}).Error("restock on cancel failed")
		}
	}
}

func linePayloads(lines []Line) []events.LinePayload {
	out := make([]events.LinePayload, 0, len(lines))
	for _, l := range lines {
		out = append(out, events.LinePayload{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return out
}
