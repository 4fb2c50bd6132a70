package sale

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/simplepos/simplepos/internal/catalog"
	"github.com/simplepos/simplepos/internal/depletion"
	"github.com/simplepos/simplepos/internal/shared"
	"github.com/simplepos/simplepos/internal/stock"
)

// ProductReader supplies catalog data to the sale flow.
type ProductReader interface {
	Get(ctx context.Context, id string) (catalog.Product, error)
	List(ctx context.Context, query string) ([]catalog.Product, error)
}

// DepletionReader supplies a product's consumption mappings.
type DepletionReader interface {
	ListByProduct(ctx context.Context, productID string) ([]depletion.Depletion, error)
}

// SellabilityEngine computes how many units of a product can be sold.
type SellabilityEngine interface {
	MaxSellable(ctx context.Context, productID string) (int, error)
}

// StockPort reads and writes stock items during commit.
type StockPort interface {
	Get(ctx context.Context, itemID string) (stock.StockItem, error)
	Put(ctx context.Context, item stock.StockItem) error
}

// SaleRecorder receives completed-sale metrics. Optional.
type SaleRecorder interface {
	RecordSale(total float64)
}

// ErrEmptyCart indicates a checkout on a cart with no lines.
var ErrEmptyCart = errors.New("sale: cart is empty")

// ErrInsufficientStock indicates a quantity beyond what linked stock
// can cover. Nothing has been mutated when it is returned.
var ErrInsufficientStock = errors.New("sale: insufficient stock")

// ErrPartialCommit wraps a storage failure that struck after some stock
// items were already written. The applied prefix stands; there is no
// rollback across records.
var ErrPartialCommit = errors.New("sale: storage failed mid-commit, earlier items remain applied")

// Receipt summarises a completed sale.
type Receipt struct {
	CartID      string        `json:"cartId"`
	Lines       []ReceiptLine `json:"lines"`
	Total       float64       `json:"total"`
	CompletedAt time.Time     `json:"completedAt"`
}

// ReceiptLine is one sold product with its line total.
type ReceiptLine struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	LineTotal float64 `json:"lineTotal"`
}

// Service coordinates cart sessions and sale completion.
//
// Commit takes a process-wide mutex around the read-compute-write
// sequence: within one server process the check-then-act gap between
// computing sellability and applying consumption is closed by
// serializing writers, not by compare-and-swap. Concurrent processes
// against the same store remain out of scope.
type Service struct {
	carts      *CartStore
	products   ProductReader
	depletions DepletionReader
	engine     SellabilityEngine
	stock      StockPort
	idem       *shared.IdempotencyStore
	recorder   SaleRecorder
	logger     *slog.Logger

	mu sync.Mutex
}

// NewService builds Service.
func NewService(carts *CartStore, products ProductReader, depletions DepletionReader, engine SellabilityEngine, stockPort StockPort, idem *shared.IdempotencyStore, recorder SaleRecorder, logger *slog.Logger) *Service {
	return &Service{
		carts:      carts,
		products:   products,
		depletions: depletions,
		engine:     engine,
		stock:      stockPort,
		idem:       idem,
		recorder:   recorder,
		logger:     logger,
	}
}

// CreateCart opens a new empty cart session.
func (s *Service) CreateCart(ctx context.Context) (Cart, error) {
	cart := Cart{ID: uuid.NewString(), CreatedAt: time.Now().UTC()}
	if err := s.carts.Save(ctx, cart); err != nil {
		return Cart{}, err
	}
	return cart, nil
}

// GetCart loads one cart session.
func (s *Service) GetCart(ctx context.Context, cartID string) (Cart, error) {
	return s.carts.Get(ctx, cartID)
}

// DeleteCart discards a cart session.
func (s *Service) DeleteCart(ctx context.Context, cartID string) error {
	return s.carts.Delete(ctx, cartID)
}

// AddItem puts quantity units of the product into the cart, merging
// with an existing line. The merged quantity may not exceed the
// product's current sellability.
func (s *Service) AddItem(ctx context.Context, cartID, productID string, quantity int) (Cart, error) {
	if quantity < 1 {
		return Cart{}, fmt.Errorf("%w: quantity must be a positive integer", shared.ErrValidation)
	}
	cart, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return Cart{}, err
	}
	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return Cart{}, err
	}
	max, err := s.engine.MaxSellable(ctx, productID)
	if err != nil {
		return Cart{}, err
	}
	if line := cart.findLine(productID); line != nil {
		if line.Quantity+quantity > max {
			return Cart{}, fmt.Errorf("%w: %w for %q", shared.ErrValidation, ErrInsufficientStock, product.Name)
		}
		line.Quantity += quantity
		line.MaxQuantity = max
	} else {
		if quantity > max {
			return Cart{}, fmt.Errorf("%w: %w for %q", shared.ErrValidation, ErrInsufficientStock, product.Name)
		}
		cart.Lines = append(cart.Lines, Line{
			ProductID:   product.ID,
			Name:        product.Name,
			Price:       product.Price,
			Quantity:    quantity,
			MaxQuantity: max,
		})
	}
	if err := s.carts.Save(ctx, cart); err != nil {
		return Cart{}, err
	}
	return cart, nil
}

// RemoveItem drops the product's line from the cart.
func (s *Service) RemoveItem(ctx context.Context, cartID, productID string) (Cart, error) {
	cart, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return Cart{}, err
	}
	if !cart.removeLine(productID) {
		return Cart{}, fmt.Errorf("%w: product %s not in cart", shared.ErrNotFound, productID)
	}
	if err := s.carts.Save(ctx, cart); err != nil {
		return Cart{}, err
	}
	return cart, nil
}

// CompleteSale validates the whole cart against live stock and applies
// consumption to every affected stock item.
//
// Validation simulates the cart line by line, in cart order, against
// in-memory copies of the stock items, so two lines depleting the same
// scarce item are checked against each other rather than against stale
// snapshots. Only after the whole cart clears does anything get
// persisted.
func (s *Service) CompleteSale(ctx context.Context, cartID string) (Receipt, error) {
	cart, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return Receipt{}, err
	}
	if len(cart.Lines) == 0 {
		return Receipt{}, fmt.Errorf("%w: %w", shared.ErrValidation, ErrEmptyCart)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.idem != nil {
		if err := s.idem.CheckAndInsert(ctx, cartID, "sale"); err != nil {
			return Receipt{}, err
		}
	}

	updated, err := s.simulate(ctx, cart)
	if err != nil {
		// Nothing was written; the cart may be corrected and retried.
		s.releaseIdempotency(ctx, cartID)
		return Receipt{}, err
	}

	for i, item := range updated {
		if err := s.stock.Put(ctx, item); err != nil {
			if i > 0 {
				// The idempotency key stays: retrying would deduct the
				// committed prefix a second time.
				return Receipt{}, fmt.Errorf("%w: %w", ErrPartialCommit, err)
			}
			s.releaseIdempotency(ctx, cartID)
			return Receipt{}, err
		}
	}

	if err := s.carts.Delete(ctx, cartID); err != nil && s.logger != nil {
		s.logger.Warn("clear cart after sale", slog.String("cart", cartID), slog.Any("error", err))
	}

	receipt := Receipt{CartID: cartID, CompletedAt: time.Now().UTC()}
	for _, line := range cart.Lines {
		receipt.Lines = append(receipt.Lines, ReceiptLine{
			ProductID: line.ProductID,
			Name:      line.Name,
			Price:     line.Price,
			Quantity:  line.Quantity,
			LineTotal: line.Price * float64(line.Quantity),
		})
		receipt.Total += line.Price * float64(line.Quantity)
	}
	if s.recorder != nil {
		s.recorder.RecordSale(receipt.Total)
	}
	if s.logger != nil {
		s.logger.Info("sale completed",
			slog.String("cart", cartID),
			slog.Int("lines", len(cart.Lines)),
			slog.Float64("total", receipt.Total))
	}
	return receipt, nil
}

// simulate walks the cart in order against copies of the stock items
// and returns the items to persist, ordered by first touch. Any
// violation aborts before a single write.
func (s *Service) simulate(ctx context.Context, cart Cart) ([]stock.StockItem, error) {
	items := make(map[string]*stock.StockItem)
	var order []string

	fetch := func(itemID string) (*stock.StockItem, error) {
		if item, ok := items[itemID]; ok {
			return item, nil
		}
		item, err := s.stock.Get(ctx, itemID)
		if err != nil {
			return nil, err
		}
		items[itemID] = &item
		order = append(order, itemID)
		return &item, nil
	}

	for _, line := range cart.Lines {
		deps, err := s.depletions.ListByProduct(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if len(deps) == 0 {
			return nil, fmt.Errorf("%w: %w for %q", shared.ErrValidation, ErrInsufficientStock, line.Name)
		}
		// Re-check sellability against the simulated state so earlier
		// lines count against this one.
		for _, dep := range deps {
			if dep.DepletionQuantity <= 0 {
				return nil, fmt.Errorf("%w: %w for %q", shared.ErrValidation, ErrInsufficientStock, line.Name)
			}
			item, err := fetch(dep.StockItemID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return nil, fmt.Errorf("%w: %w for %q", shared.ErrValidation, ErrInsufficientStock, line.Name)
				}
				return nil, err
			}
			possible := int(math.Floor(item.TotalUnits / dep.DepletionQuantity))
			if line.Quantity > possible {
				return nil, fmt.Errorf("%w: %w for %q", shared.ErrValidation, ErrInsufficientStock, line.Name)
			}
		}
		for _, dep := range deps {
			item := items[dep.StockItemID]
			item.TotalUnits = math.Max(0, item.TotalUnits-dep.DepletionQuantity*float64(line.Quantity))
			item.Quantity = item.TotalUnits / item.SubUnitCount
		}
	}

	updated := make([]stock.StockItem, 0, len(order))
	for _, itemID := range order {
		updated = append(updated, *items[itemID])
	}
	return updated, nil
}

func (s *Service) releaseIdempotency(ctx context.Context, cartID string) {
	if s.idem == nil {
		return
	}
	if err := s.idem.Delete(ctx, "sale", cartID); err != nil && s.logger != nil {
		s.logger.Warn("release sale idempotency key", slog.String("cart", cartID), slog.Any("error", err))
	}
}
