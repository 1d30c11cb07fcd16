package exchange

import (
	"context"
	"sync"

	"github.com/mbeoliero/kit/log"

	"github.com/mbeoliero/xchange/internal/notification"
	"github.com/mbeoliero/xchange/pkg/constant"
	"github.com/mbeoliero/xchange/pkg/errcode"
	"github.com/mbeoliero/xchange/sdk"
)

// API is the slice of the backend the request list calls
type API interface {
	GetMyExchanges(ctx context.Context) (*sdk.ExchangeList, error)
	AcceptExchange(ctx context.Context, exchangeId string) (*sdk.AcceptExchangeResponse, error)
	RejectExchange(ctx context.Context, exchangeId string) error
}

// RequestList is the exchange requests page: every request where the user is buyer or seller,
// with accept and reject for the seller of a pending one.
type RequestList struct {
	api      API
	userId   func() string
	onChange func()

	mu     sync.RWMutex
	items  []*sdk.ExchangeRequest
	counts *sdk.ExchangeCounts
}

// ListOption configures a RequestList
type ListOption func(*RequestList)

// WithOnChange installs a callback run after accept or reject succeeds, e.g. to refresh the notification counter
func WithOnChange(fn func()) ListOption {
	return func(l *RequestList) {
		l.onChange = fn
	}
}

func NewRequestList(api API, userId func() string, opts ...ListOption) *RequestList {
	l := &RequestList{api: api, userId: userId}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches the list. A failure keeps what was shown before.
func (l *RequestList) Load(ctx context.Context) error {
	if l.userId() == "" {
		return errcode.ErrLoginRequired
	}
	list, err := l.api.GetMyExchanges(ctx)
	if err != nil {
		log.CtxWarn(ctx, "exchange list load failed: error=%v", err)
		return err
	}
	items := make([]*sdk.ExchangeRequest, 0, len(list.Exchanges))
	for _, e := range list.Exchanges {
		if e != nil {
			items = append(items, e)
		}
	}
	l.mu.Lock()
	l.items = items
	l.counts = list.Counts
	l.mu.Unlock()
	return nil
}

// Requests returns copies of the loaded requests
func (l *RequestList) Requests() []*sdk.ExchangeRequest {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*sdk.ExchangeRequest, 0, len(l.items))
	for _, e := range l.items {
		cp := *e
		out = append(out, &cp)
	}
	return out
}

// Get returns a copy of one request
func (l *RequestList) Get(exchangeId string) (*sdk.ExchangeRequest, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if e := l.findLocked(exchangeId); e != nil {
		cp := *e
		return &cp, true
	}
	return nil, false
}

func (l *RequestList) findLocked(exchangeId string) *sdk.ExchangeRequest {
	for _, e := range l.items {
		if e != nil && e.Id == exchangeId {
			return e
		}
	}
	return nil
}

// Counts returns the per-status totals, from the server when it sent them
func (l *RequestList) Counts() sdk.ExchangeCounts {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.counts != nil {
		return *l.counts
	}
	var c sdk.ExchangeCounts
	for _, e := range l.items {
		switch e.Status {
		case constant.ExchangeStatusPending:
			c.Pending++
		case constant.ExchangeStatusAccepted:
			c.Accepted++
		case constant.ExchangeStatusRejected:
			c.Rejected++
		case constant.ExchangeStatusCompleted:
			c.Completed++
		}
	}
	return c
}

// PendingForMe counts the pending requests waiting on the current user as seller
func (l *RequestList) PendingForMe() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return notification.CountPendingForSeller(l.items, l.userId())
}

// IsSeller reports whether the current user sells in e
func (l *RequestList) IsSeller(e *sdk.ExchangeRequest) bool {
	userId := l.userId()
	return userId != "" && e.SellerId() == userId
}

// CanAnswer reports whether accept and reject are offered for e
func (l *RequestList) CanAnswer(e *sdk.ExchangeRequest) bool {
	return e != nil && e.Status == constant.ExchangeStatusPending && l.IsSeller(e)
}

// Counterpart returns the other party of e and how to label them
func (l *RequestList) Counterpart(e *sdk.ExchangeRequest) (*sdk.User, string) {
	if l.IsSeller(e) {
		return e.Buyer, "Interested Buyer"
	}
	return e.Seller, "Item Seller"
}

// Accept accepts a pending request and returns the invoice token exactly as issued
func (l *RequestList) Accept(ctx context.Context, exchangeId string) (string, error) {
	if err := l.checkAnswerable(exchangeId); err != nil {
		return "", err
	}
	resp, err := l.api.AcceptExchange(ctx, exchangeId)
	if err != nil {
		log.CtxWarn(ctx, "exchange accept failed: exchange_id=%s, error=%v", exchangeId, err)
		return "", err
	}

	l.mu.Lock()
	if e := l.findLocked(exchangeId); e != nil {
		e.Status = constant.ExchangeStatusAccepted
		e.InvoiceToken = resp.InvoiceToken
	}
	l.mu.Unlock()
	log.CtxInfo(ctx, "exchange accepted: exchange_id=%s, invoice_token=%s", exchangeId, resp.InvoiceToken)

	l.afterAnswer(ctx)
	return resp.InvoiceToken, nil
}

// InvoiceQR renders the invoice of an accepted request as a PNG QR code
func (l *RequestList) InvoiceQR(exchangeId string, size int) ([]byte, error) {
	e, ok := l.Get(exchangeId)
	if !ok {
		return nil, ErrRequestNotFound
	}
	if e.Status != constant.ExchangeStatusAccepted || e.InvoiceToken == "" {
		return nil, errcode.ErrInvalidTransition
	}
	return RenderInvoiceQR(e.InvoiceToken, size)
}

// Reject rejects a pending request
func (l *RequestList) Reject(ctx context.Context, exchangeId string) error {
	if err := l.checkAnswerable(exchangeId); err != nil {
		return err
	}
	if err := l.api.RejectExchange(ctx, exchangeId); err != nil {
		log.CtxWarn(ctx, "exchange reject failed: exchange_id=%s, error=%v", exchangeId, err)
		return err
	}

	l.mu.Lock()
	if e := l.findLocked(exchangeId); e != nil {
		e.Status = constant.ExchangeStatusRejected
	}
	l.mu.Unlock()
	log.CtxInfo(ctx, "exchange rejected: exchange_id=%s", exchangeId)

	l.afterAnswer(ctx)
	return nil
}

func (l *RequestList) checkAnswerable(exchangeId string) error {
	if l.userId() == "" {
		return errcode.ErrLoginRequired
	}
	e, ok := l.Get(exchangeId)
	if !ok {
		return ErrRequestNotFound
	}
	if !l.IsSeller(e) {
		return ErrNotSeller
	}
	if e.Status != constant.ExchangeStatusPending {
		return errcode.ErrInvalidTransition
	}
	return nil
}

// afterAnswer reloads the list; the local status update stands if the reload fails
func (l *RequestList) afterAnswer(ctx context.Context) {
	if err := l.Load(ctx); err != nil {
		log.CtxDebug(ctx, "exchange list refresh after answer failed: error=%v", err)
	}
	if l.onChange != nil {
		l.onChange()
	}
}
