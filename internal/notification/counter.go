package notification

import (
	"context"
	"sync"

	"github.com/mbeoliero/kit/log"

	"github.com/mbeoliero/xchange/pkg/constant"
	"github.com/mbeoliero/xchange/sdk"
)

// API is the slice of the backend the counter calls
type API interface {
	GetMyExchanges(ctx context.Context) (*sdk.ExchangeList, error)
}

// Counter holds the number of pending exchange requests addressed to the current user as seller.
// Refresh is the only way the value changes; the poller and channel events both go through it.
type Counter struct {
	api    API
	userId func() string

	// refreshMu keeps concurrent refreshes from publishing out of order
	refreshMu sync.Mutex

	mu       sync.RWMutex
	count    int
	observer func(int)
}

// CounterOption configures a Counter
type CounterOption func(*Counter)

// WithObserver installs a callback invoked with the new count after every refresh
func WithObserver(fn func(int)) CounterOption {
	return func(c *Counter) {
		c.observer = fn
	}
}

func NewCounter(api API, userId func() string, opts ...CounterOption) *Counter {
	c := &Counter{api: api, userId: userId}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Count returns the last computed value
func (c *Counter) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.count
}

// Refresh recomputes the count from the full request list.
// A failed fetch sets the count to zero; the last good value is not kept.
func (c *Counter) Refresh(ctx context.Context) int {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	userId := c.userId()
	if userId == "" {
		return c.set(0)
	}

	list, err := c.api.GetMyExchanges(ctx)
	if err != nil {
		log.CtxWarn(ctx, "notification refresh failed, count reset: user_id=%s, error=%v", userId, err)
		return c.set(0)
	}

	n := CountPendingForSeller(list.Exchanges, userId)
	log.CtxDebug(ctx, "notification refreshed: user_id=%s, pending=%d, total=%d", userId, n, len(list.Exchanges))
	return c.set(n)
}

// Reset zeroes the count, used on logout
func (c *Counter) Reset() {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	c.set(0)
}

func (c *Counter) set(n int) int {
	c.mu.Lock()
	c.count = n
	c.mu.Unlock()
	if c.observer != nil {
		c.observer(n)
	}
	return n
}

// CountPendingForSeller counts the pending requests whose seller is userId
func CountPendingForSeller(exchanges []*sdk.ExchangeRequest, userId string) int {
	n := 0
	for _, e := range exchanges {
		if e != nil && e.Status == constant.ExchangeStatusPending && e.SellerId() == userId {
			n++
		}
	}
	return n
}
