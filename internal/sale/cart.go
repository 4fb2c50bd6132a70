// Package sale implements cart sessions and the sale-completion
// transaction that applies depletion consumption to stock.
package sale

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/simplepos/simplepos/internal/shared"
)

// Line is one product entry in a cart. MaxQuantity is the sellability
// snapshot taken when the line was added; commit re-validates against
// live stock regardless.
type Line struct {
	ProductID   string  `json:"productId"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	MaxQuantity int     `json:"maxQuantity"`
}

// Cart is an explicit sale session. Carts are passed by id between
// requests instead of living in ambient state, so several sessions can
// exist side by side.
type Cart struct {
	ID        string    `json:"id"`
	Lines     []Line    `json:"lines"`
	CreatedAt time.Time `json:"createdAt"`
}

// Total returns the cart's grand total.
func (c *Cart) Total() float64 {
	var total float64
	for _, line := range c.Lines {
		total += line.Price * float64(line.Quantity)
	}
	return total
}

func (c *Cart) findLine(productID string) *Line {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return &c.Lines[i]
		}
	}
	return nil
}

func (c *Cart) removeLine(productID string) bool {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return true
		}
	}
	return false
}

// CartStore keeps carts in Redis with a TTL; abandoned carts expire on
// their own.
type CartStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartStore constructs CartStore.
func NewCartStore(client *redis.Client, ttl time.Duration) *CartStore {
	return &CartStore{client: client, ttl: ttl}
}

// Get loads one cart, or shared.ErrNotFound.
func (s *CartStore) Get(ctx context.Context, id string) (Cart, error) {
	data, err := s.client.Get(ctx, cartKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Cart{}, fmt.Errorf("%w: cart %s", shared.ErrNotFound, id)
		}
		return Cart{}, fmt.Errorf("sale: load cart %s: %w", id, err)
	}
	var cart Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return Cart{}, fmt.Errorf("sale: decode cart %s: %w", id, err)
	}
	return cart, nil
}

// Save writes the cart and refreshes its TTL.
func (s *CartStore) Save(ctx context.Context, cart Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("sale: encode cart %s: %w", cart.ID, err)
	}
	if err := s.client.Set(ctx, cartKey(cart.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("sale: save cart %s: %w", cart.ID, err)
	}
	return nil
}

// Delete discards the cart.
func (s *CartStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, cartKey(id)).Err(); err != nil {
		return fmt.Errorf("sale: delete cart %s: %w", id, err)
	}
	return nil
}

func cartKey(id string) string {
	return "simplepos:cart:" + id
}
