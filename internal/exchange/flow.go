package exchange

import (
	"context"
	"sync"
	"time"

	"github.com/mbeoliero/kit/log"

	"github.com/mbeoliero/xchange/pkg/constant"
	"github.com/mbeoliero/xchange/pkg/errcode"
	"github.com/mbeoliero/xchange/sdk"
)

// State is where a buyer stands with one post
type State int

const (
	StateBrowsing State = iota
	StateSelecting
	StatePending
	StateAccepted
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateBrowsing:
		return "browsing"
	case StateSelecting:
		return "selecting"
	case StatePending:
		return constant.ExchangeStatusPending
	case StateAccepted:
		return constant.ExchangeStatusAccepted
	case StateRejected:
		return constant.ExchangeStatusRejected
	default:
		return "unknown"
	}
}

// Terminal reports whether the flow is over for this post
func (s State) Terminal() bool {
	return s == StateAccepted || s == StateRejected
}

// Starter sends a new exchange request
type Starter interface {
	StartExchange(ctx context.Context, req *sdk.StartExchangeRequest) (*sdk.ExchangeRequest, error)
}

// Flow drives a buyer's exchange request for one post:
// browsing, picking booth and time, pending, then accepted or rejected by the seller.
// Nothing is persisted; Sync rebuilds the state from the request list.
type Flow struct {
	api    Starter
	postId string
	window Window
	now    func() time.Time

	mu         sync.Mutex
	state      State
	sel        *Selection
	request    *sdk.ExchangeRequest
	submitting bool
}

func NewFlow(api Starter, postId string, window Window, now func() time.Time) *Flow {
	if now == nil {
		now = time.Now
	}
	return &Flow{api: api, postId: postId, window: window, now: now}
}

// PostId returns the post this flow is about
func (f *Flow) PostId() string { return f.postId }

// State returns the current state
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Request returns the request sent for the post, nil before submission
func (f *Flow) Request() *sdk.ExchangeRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.request == nil {
		return nil
	}
	cp := *f.request
	return &cp
}

// InvoiceToken returns the token issued when the seller accepted, "" otherwise
func (f *Flow) InvoiceToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateAccepted || f.request == nil {
		return ""
	}
	return f.request.InvoiceToken
}

// InvoiceQR renders the buyer's invoice as a PNG QR code once the seller has accepted
func (f *Flow) InvoiceQR(size int) ([]byte, error) {
	token := f.InvoiceToken()
	if token == "" {
		return nil, errcode.ErrInvalidTransition
	}
	return RenderInvoiceQR(token, size)
}

// OpenSelection starts picking a booth, date and time
func (f *Flow) OpenSelection() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state {
	case StateBrowsing:
		f.sel = NewSelection(f.window, f.now)
		f.state = StateSelecting
		return nil
	case StateSelecting:
		return nil
	default:
		return errcode.ErrInvalidTransition
	}
}

// CancelSelection drops the choices and returns to browsing
func (f *Flow) CancelSelection() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateSelecting && !f.submitting {
		f.sel = nil
		f.state = StateBrowsing
	}
}

func (f *Flow) selection() (*Selection, error) {
	if f.state != StateSelecting || f.sel == nil {
		return nil, ErrNoSelection
	}
	return f.sel, nil
}

// SelectBooth picks a booth from the catalog
func (f *Flow) SelectBooth(id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sel, err := f.selection()
	if err != nil {
		return err
	}
	return sel.SelectBooth(id)
}

// SetDate picks the meeting date
func (f *Flow) SetDate(date string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sel, err := f.selection()
	if err != nil {
		return err
	}
	return sel.SetDate(date)
}

// SetTime picks the meeting time
func (f *Flow) SetTime(clock string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sel, err := f.selection()
	if err != nil {
		return err
	}
	return sel.SetTime(clock)
}

// MinDate is the earliest date offered by the picker
func (f *Flow) MinDate() string {
	return MinDate(f.now())
}

// CanSubmit reports whether the send button is enabled
func (f *Flow) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	sel, err := f.selection()
	return err == nil && !f.submitting && sel.CanSubmit()
}

// Submit sends the request. On failure nothing changes, so the user can fix the selection and retry;
// the returned error carries the server's message.
func (f *Flow) Submit(ctx context.Context) error {
	f.mu.Lock()
	sel, err := f.selection()
	if err != nil {
		f.mu.Unlock()
		return err
	}
	if f.submitting {
		f.mu.Unlock()
		return errcode.ErrInvalidTransition
	}
	if err := sel.Validate(); err != nil {
		f.mu.Unlock()
		return err
	}
	req := &sdk.StartExchangeRequest{
		PostId:      f.postId,
		Booth:       sel.Booth,
		MeetingTime: sel.MeetingTime(),
	}
	f.submitting = true
	f.mu.Unlock()

	created, err := f.api.StartExchange(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false
	if err != nil {
		log.CtxWarn(ctx, "exchange submit failed: post_id=%s, booth=%s, error=%v", f.postId, req.Booth.Name, err)
		return err
	}
	if created == nil {
		created = &sdk.ExchangeRequest{}
	}
	if created.Status == "" {
		created.Status = constant.ExchangeStatusPending
	}
	if created.Booth == nil {
		created.Booth = req.Booth
	}
	if created.MeetingTime == "" {
		created.MeetingTime = req.MeetingTime
	}
	f.request = created
	f.sel = nil
	f.state = StatePending
	log.CtxInfo(ctx, "exchange request sent: post_id=%s, exchange_id=%s, meeting_time=%s", f.postId, created.Id, req.MeetingTime)
	return nil
}

// Sync rebuilds the state from the authoritative list: the newest request by buyerId for this post wins.
// An open selection is kept when the list has nothing for the post.
func (f *Flow) Sync(exchanges []*sdk.ExchangeRequest, buyerId string) {
	var latest *sdk.ExchangeRequest
	for _, e := range exchanges {
		if e == nil || e.Post == nil || e.Post.Id != f.postId || e.BuyerId() != buyerId {
			continue
		}
		if latest == nil || e.CreatedAt.After(latest.CreatedAt) {
			latest = e
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if latest == nil {
		if f.state != StateSelecting {
			f.state = StateBrowsing
			f.request = nil
		}
		return
	}
	cp := *latest
	f.request = &cp
	f.sel = nil
	f.state = stateOf(latest.Status)
}

func stateOf(status string) State {
	switch status {
	case constant.ExchangeStatusAccepted, constant.ExchangeStatusCompleted:
		return StateAccepted
	case constant.ExchangeStatusRejected:
		return StateRejected
	default:
		return StatePending
	}
}
