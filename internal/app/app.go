package app

import (
	"context"
	"sync"
	"time"

	"github.com/mbeoliero/kit/log"

	"github.com/mbeoliero/xchange/internal/chat"
	"github.com/mbeoliero/xchange/internal/config"
	"github.com/mbeoliero/xchange/internal/exchange"
	"github.com/mbeoliero/xchange/internal/notification"
	"github.com/mbeoliero/xchange/internal/realtime"
	"github.com/mbeoliero/xchange/internal/session"
	"github.com/mbeoliero/xchange/pkg/constant"
	"github.com/mbeoliero/xchange/pkg/errcode"
	"github.com/mbeoliero/xchange/sdk"
)

// API is everything the signed-in client calls on the backend
type API interface {
	chat.API
	exchange.API
	exchange.Starter
	Login(ctx context.Context, req *sdk.LoginRequest) (*sdk.AuthResponse, error)
	Signup(ctx context.Context, req *sdk.SignupRequest) (*sdk.AuthResponse, error)
	GetProfile(ctx context.Context) (*sdk.User, error)
	SetToken(token string)
}

// App owns one session at a time: the identity, the realtime channel and every view bound to it.
// The channel is created when a session starts and closed exactly once when it ends.
type App struct {
	cfg    *config.Config
	api    API
	store  session.TokenStore
	dialer realtime.Dialer
	holder *session.Holder
	window exchange.Window
	now    func() time.Time

	chatObserver  func(chat.Update)
	countObserver func(int)

	mu       sync.Mutex
	ch       *realtime.Channel
	chat     *chat.View
	counter  *notification.Counter
	poller   *notification.Poller
	requests *exchange.RequestList
}

// Option configures an App
type Option func(*App)

// WithChatObserver forwards chat view updates. fn runs on library goroutines and must not call back into the App.
func WithChatObserver(fn func(chat.Update)) Option {
	return func(a *App) {
		a.chatObserver = fn
	}
}

// WithCountObserver forwards every new notification count. The same restriction as WithChatObserver applies.
func WithCountObserver(fn func(int)) Option {
	return func(a *App) {
		a.countObserver = fn
	}
}

// WithClock replaces time.Now, for booking dates and token expiry
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}

// New creates a signed-out App
func New(cfg *config.Config, api API, store session.TokenStore, dialer realtime.Dialer, opts ...Option) (*App, error) {
	window, err := exchange.NewWindow(cfg.Exchange.OpenTime, cfg.Exchange.CloseTime)
	if err != nil {
		return nil, err
	}
	a := &App{
		cfg:    cfg,
		api:    api,
		store:  store,
		dialer: dialer,
		holder: session.NewHolder(),
		window: window,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Session exposes the identity holder
func (a *App) Session() *session.Holder { return a.holder }

// Login signs in with email and password and starts the session
func (a *App) Login(ctx context.Context, email, password string) error {
	resp, err := a.api.Login(ctx, &sdk.LoginRequest{Email: email, Password: password})
	if err != nil {
		log.CtxWarn(ctx, "login failed: email=%s, error=%v", email, err)
		return err
	}
	return a.startWithAuth(ctx, resp)
}

// Signup creates an account and starts the session
func (a *App) Signup(ctx context.Context, name, email, password string) error {
	resp, err := a.api.Signup(ctx, &sdk.SignupRequest{Name: name, Email: email, Password: password})
	if err != nil {
		log.CtxWarn(ctx, "signup failed: email=%s, error=%v", email, err)
		return err
	}
	return a.startWithAuth(ctx, resp)
}

// startWithAuth starts the session from a login or signup answer.
// When the answer carries no usable user, the profile is fetched with the new token.
func (a *App) startWithAuth(ctx context.Context, resp *sdk.AuthResponse) error {
	if resp == nil || resp.Token == "" {
		return errcode.ErrRequestFailed.WithMsg("login response has no token")
	}
	user := resp.User
	if user == nil || user.Id == "" {
		a.api.SetToken(resp.Token)
		profile, err := a.api.GetProfile(ctx)
		if err != nil || profile == nil || profile.Id == "" {
			a.api.SetToken("")
			log.CtxWarn(ctx, "auth response without user and profile fetch failed: error=%v", err)
			return errcode.ErrRequestFailed.Wrap(err)
		}
		user = profile
	}
	return a.start(ctx, resp.Token, user)
}

// CompleteOAuth starts a session from the token handed back by the OAuth callback.
// The profile is fetched with it; only if that fails is the user id read from the token itself.
func (a *App) CompleteOAuth(ctx context.Context, token string) error {
	if token == "" {
		return errcode.ErrTokenMissing
	}
	a.api.SetToken(token)
	user, err := a.api.GetProfile(ctx)
	if err != nil || user == nil || user.Id == "" {
		claims, cerr := session.ParseClaims(token)
		if cerr != nil {
			a.api.SetToken("")
			log.CtxWarn(ctx, "oauth profile fetch failed and token unreadable: error=%v, claims_error=%v", err, cerr)
			return cerr
		}
		log.CtxWarn(ctx, "oauth profile fetch failed, using token claims: user_id=%s, error=%v", claims.UserId, err)
		user = &sdk.User{Id: claims.UserId, Email: claims.Email, Name: constant.OAuthUserName}
	}
	return a.start(ctx, token, user)
}

// Restore resumes the session saved by a previous run. It reports false when there is none,
// when the saved token has expired, or when it no longer leads to a user; such tokens are deleted.
func (a *App) Restore(ctx context.Context) (bool, error) {
	token, err := a.store.Load(ctx)
	if err != nil {
		return false, err
	}
	if token == "" {
		return false, nil
	}
	if claims, err := session.ParseClaims(token); err == nil && claims.Expired(a.now()) {
		log.CtxInfo(ctx, "discarding expired session: user_id=%s", claims.UserId)
		a.forgetToken(ctx)
		return false, nil
	}
	if err := a.CompleteOAuth(ctx, token); err != nil {
		if errcode.KindOf(err) == errcode.KindAuth {
			a.forgetToken(ctx)
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (a *App) forgetToken(ctx context.Context) {
	if err := a.store.Delete(ctx); err != nil {
		log.CtxWarn(ctx, "delete saved token failed: error=%v", err)
	}
}

// start installs the identity, then connects the channel and mounts the views.
// A channel or list failure is logged; the session stays up for the HTTP features.
func (a *App) start(ctx context.Context, token string, user *sdk.User) error {
	if user == nil || user.Id == "" {
		return errcode.ErrRequestFailed.WithMsg("signed-in user has no id")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ch != nil {
		a.teardownLocked()
	}

	a.api.SetToken(token)
	a.holder.Set(token, user)
	if err := a.store.Save(ctx, token); err != nil {
		log.CtxWarn(ctx, "save token failed: user_id=%s, error=%v", user.Id, err)
	}

	a.ch = realtime.NewChannel(a.dialer)
	if err := a.ch.Connect(ctx, user.Id, token); err != nil {
		log.CtxWarn(ctx, "realtime connect failed: user_id=%s, error=%v", user.Id, err)
	}

	var chatOpts []chat.ViewOption
	if a.chatObserver != nil {
		chatOpts = append(chatOpts, chat.WithObserver(a.chatObserver))
	}
	a.chat = chat.NewView(a.api, a.ch, a.holder.UserId, chatOpts...)
	if err := a.chat.Mount(ctx); err != nil {
		log.CtxWarn(ctx, "chat mount: user_id=%s, error=%v", user.Id, err)
	}

	var counterOpts []notification.CounterOption
	if a.countObserver != nil {
		counterOpts = append(counterOpts, notification.WithObserver(a.countObserver))
	}
	a.counter = notification.NewCounter(a.api, a.holder.UserId, counterOpts...)
	a.poller = notification.NewPoller(a.counter, a.ch, notification.PollerConfig{
		Interval:      a.cfg.Notification.PollInterval,
		TriggerEvents: a.cfg.Notification.TriggerEvents,
	})
	a.poller.Start(context.Background())

	a.requests = exchange.NewRequestList(a.api, a.holder.UserId, exchange.WithOnChange(a.poller.Trigger))

	log.CtxInfo(ctx, "session started: user_id=%s, name=%s", user.Id, user.Name)
	return nil
}

// Logout ends the session and forgets the saved token
func (a *App) Logout(ctx context.Context) error {
	a.mu.Lock()
	userId := a.holder.UserId()
	a.teardownLocked()
	a.mu.Unlock()

	if err := a.store.Delete(ctx); err != nil {
		return err
	}
	log.CtxInfo(ctx, "logged out: user_id=%s", userId)
	return nil
}

// Shutdown ends the session but keeps the saved token for the next run
func (a *App) Shutdown() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.teardownLocked()
}

func (a *App) teardownLocked() {
	if a.chat != nil {
		a.chat.Unmount()
	}
	if a.poller != nil {
		a.poller.Stop()
	}
	if a.counter != nil {
		a.counter.Reset()
	}
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			log.Debug("realtime close: error=%v", err)
		}
	}
	a.ch, a.chat, a.poller, a.counter, a.requests = nil, nil, nil, nil, nil
	a.holder.Clear()
	a.api.SetToken("")
}

// Channel returns the session's realtime channel, nil when signed out
func (a *App) Channel() *realtime.Channel {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ch
}

// Chat returns the session's chat view, nil when signed out
func (a *App) Chat() *chat.View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.chat
}

// Counter returns the pending request counter, nil when signed out
func (a *App) Counter() *notification.Counter {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counter
}

// Poller returns the counter's poller, nil when signed out
func (a *App) Poller() *notification.Poller {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.poller
}

// Requests returns the exchange requests list, nil when signed out
func (a *App) Requests() *exchange.RequestList {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requests
}

// NewExchangeFlow starts the request flow for a post, rebuilt from the current request list
func (a *App) NewExchangeFlow(postId string) (*exchange.Flow, error) {
	userId, err := a.holder.Require()
	if err != nil {
		return nil, err
	}
	f := exchange.NewFlow(a.api, postId, a.window, a.now)
	if l := a.Requests(); l != nil {
		f.Sync(l.Requests(), userId)
	}
	return f, nil
}
