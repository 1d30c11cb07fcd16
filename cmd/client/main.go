package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mbeoliero/kit/log"

	"github.com/mbeoliero/xchange/internal/app"
	"github.com/mbeoliero/xchange/internal/chat"
	"github.com/mbeoliero/xchange/internal/config"
	"github.com/mbeoliero/xchange/internal/exchange"
	"github.com/mbeoliero/xchange/internal/realtime"
	"github.com/mbeoliero/xchange/pkg/constant"
	"github.com/mbeoliero/xchange/sdk"
)

func main() {
	ctx := context.TODO()

	configPath := os.Getenv("XCHANGE_CONFIG")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.CtxError(ctx, "failed to load config: %v", err)
		panic(err)
	}
	log.CtxInfo(ctx, "config loaded: api=%s, realtime=%s, session_store=%s", cfg.API.BaseURL, cfg.Realtime.URL, cfg.Session.Store)

	// Initialize token store
	store := app.NewStore(cfg)
	defer store.Close()
	if err := store.CheckConnection(ctx); err != nil {
		log.CtxError(ctx, "session store check failed: %v", err)
		panic(err)
	}

	api, err := sdk.NewClient(cfg.API.BaseURL, sdk.WithTimeouts(cfg.API.DialTimeout, cfg.API.ReadTimeout, cfg.API.WriteTimeout))
	if err != nil {
		log.CtxError(ctx, "failed to create api client: %v", err)
		panic(err)
	}

	dialer := realtime.NewWebsocketDialer(cfg.Realtime.URL, realtime.ConnOptions{
		HandshakeTimeout: cfg.Realtime.HandshakeTimeout,
		MaxMessageSize:   cfg.Realtime.MaxMessageSize,
		WriteWait:        cfg.Realtime.WriteWait,
		PongWait:         cfg.Realtime.PongWait,
		PingPeriod:       cfg.Realtime.PingPeriod,
		WriteChannelSize: cfg.Realtime.WriteChannelSize,
	})

	client, err := app.New(cfg, api, store, dialer,
		app.WithChatObserver(logChatUpdate),
		app.WithCountObserver(func(n int) {
			log.Info("pending exchange requests: count=%d", n)
		}),
	)
	if err != nil {
		log.CtxError(ctx, "failed to create client: %v", err)
		panic(err)
	}

	if err := signIn(ctx, client); err != nil {
		log.CtxError(ctx, "sign in failed: %v", err)
		panic(err)
	}

	for _, p := range client.Chat().Previews() {
		log.CtxInfo(ctx, "conversation: id=%s, with=%s, subject=%s, unread=%s", p.ConversationId, p.Title, p.Subject, p.Badge)
	}
	exportInvoices(ctx, client.Requests(), os.Getenv("XCHANGE_INVOICE_DIR"))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	var lost <-chan struct{}
	if ch := client.Channel(); ch.Connected() {
		lost = ch.Done()
	}
	select {
	case <-quit:
	case <-lost:
		log.CtxWarn(ctx, "realtime connection lost")
	}

	log.CtxInfo(ctx, "shutting down client...")
	client.Shutdown()
	log.CtxInfo(ctx, "client stopped")
}

// signIn resumes the saved session, or signs in with XCHANGE_OAUTH_TOKEN or XCHANGE_EMAIL / XCHANGE_PASSWORD
func signIn(ctx context.Context, client *app.App) error {
	ok, err := client.Restore(ctx)
	if err != nil {
		log.CtxWarn(ctx, "restore session failed: %v", err)
	}
	if ok {
		return nil
	}
	if token := os.Getenv("XCHANGE_OAUTH_TOKEN"); token != "" {
		return client.CompleteOAuth(ctx, token)
	}
	return client.Login(ctx, os.Getenv("XCHANGE_EMAIL"), os.Getenv("XCHANGE_PASSWORD"))
}

// exportInvoices renders the QR code of every accepted request. The PNGs are written to dir when it is set.
func exportInvoices(ctx context.Context, requests *exchange.RequestList, dir string) {
	if requests == nil {
		return
	}
	if err := requests.Load(ctx); err != nil {
		log.CtxWarn(ctx, "load exchange requests failed: %v", err)
		return
	}
	for _, e := range requests.Requests() {
		if e.Status != constant.ExchangeStatusAccepted || e.InvoiceToken == "" {
			continue
		}
		png, err := requests.InvoiceQR(e.Id, exchange.InvoiceQRSize)
		if err != nil {
			log.CtxWarn(ctx, "render invoice failed: exchange_id=%s, error=%v", e.Id, err)
			continue
		}
		if dir == "" {
			log.CtxInfo(ctx, "invoice ready: exchange_id=%s, token=%s, png_bytes=%d", e.Id, e.InvoiceToken, len(png))
			continue
		}
		path := filepath.Join(dir, "invoice-"+e.Id+".png")
		if err := os.WriteFile(path, png, 0o644); err != nil {
			log.CtxWarn(ctx, "write invoice failed: path=%s, error=%v", path, err)
			continue
		}
		log.CtxInfo(ctx, "invoice written: exchange_id=%s, path=%s", e.Id, path)
	}
}

func logChatUpdate(u chat.Update) {
	switch u.Kind {
	case chat.UpdateMessages, chat.UpdateUnread:
		if u.Message != nil {
			log.Info("message: conversation_id=%s, from=%s, content=%s", u.ConversationId, chat.DisplayName(u.Message.Sender), u.Message.Content)
		}
	case chat.UpdatePresence:
		log.Debug("presence changed")
	case chat.UpdateConversations:
		log.Debug("conversations reloaded: conversation_id=%s", u.ConversationId)
	}
}
