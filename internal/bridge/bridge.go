// Package bridge implements the order-lifecycle adapter between the host's
// synchronous, integer-trade-id call surface and the brokerage's
// asynchronous, string-identified REST API.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"zorrobridge/internal/broker"
	"zorrobridge/internal/config"
	"zorrobridge/internal/domain"
	"zorrobridge/internal/journal"
	"zorrobridge/internal/ledger"
	"zorrobridge/internal/marketdata"
	"zorrobridge/internal/util"
)

// Login-handshake retry budget: a couple of quick attempts with backoff so
// a transient failure at session start does not refuse the login outright.
const (
	loginAttempts   = 3
	loginRetryDelay = 100 * time.Millisecond
)

// Errors surfaced to callers. Contract violations fail fast; everything
// else degrades to the documented sentinel.
var (
	ErrNotLoggedIn            = errors.New("bridge: no active session")
	ErrStopOrdersNotSupported = errors.New("bridge: stop-distance orders are not supported")
	ErrUnknownTimeInForce     = errors.New("bridge: unknown time-in-force code")
	ErrOrderNotOpen           = errors.New("bridge: tracked order is neither filled nor working")
	ErrDeltaExceedsOrder      = errors.New("bridge: close amount exceeds tracked order quantity")
	ErrReplaceBelowFilled     = errors.New("bridge: replace target below already-filled quantity")
)

// PriceType selects the price source for instrument quotes.
type PriceType int

// Price types.
const (
	PriceQuote PriceType = 1 // best ask from the quote feed
	PriceTrade PriceType = 2 // last trade price
)

// Notifier is the host's callback surface: a diagnostic text sink and a
// progress heartbeat. Neither is used for control flow.
type Notifier interface {
	// Message emits a user-visible diagnostic line.
	Message(text string)

	// Progress signals liveness during a blocking operation.
	Progress(n int)
}

type nopNotifier struct{}

func (nopNotifier) Message(string) {}
func (nopNotifier) Progress(int) {}

// Credentials identify one brokerage session. DataKey/DataSecret are the
// optional auxiliary market-data credentials.
type Credentials struct {
	APIKey     string
	APISecret  string
	Paper      bool
	DataKey    string
	DataSecret string
	BaseURL    string // optional override
	DataURL    string // optional override
}

// Settings is the mutable per-session configuration the host adjusts
// through the command surface.
type Settings struct {
	TimeInForce  domain.TimeInForce
	Multiplier   int64
	PriceType    PriceType
	Diagnostics  int
	FillTimeout  time.Duration
	PollInterval time.Duration
}

// Bridge is the adapter core. It is driven synchronously by a single host
// thread and runs no background work of its own.
type Bridge struct {
	cfg      *config.Config
	settings Settings
	tag      string // order-tag text applied to the next submissions

	brokerClient broker.Client
	data         *marketdata.Gateway
	book         *ledger.Ledger
	journal      *journal.Journal

	sessionID string
	account   string

	notifier Notifier
	log      *slog.Logger

	// Injection points for the fill-resolution loop; tests replace them
	// with a fake clock.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	// Factories so Login can construct the live clients; tests swap these
	// for fakes.
	newBroker  func(creds Credentials) broker.Client
	newGateway func(creds Credentials) *marketdata.Gateway
}

// New creates a Bridge with session defaults taken from cfg. No brokerage
// connection exists until Login.
func New(cfg *config.Config, notifier Notifier, jnl *journal.Journal) *Bridge {
	if notifier == nil {
		notifier = nopNotifier{}
	}

	b := &Bridge{
		cfg: cfg,
		settings: Settings{
			TimeInForce:  domain.TimeInForce(cfg.Trading.TimeInForce),
			Multiplier:   int64(cfg.Trading.Multiplier),
			PriceType:    PriceQuote,
			FillTimeout:  time.Duration(cfg.Trading.FillTimeoutSec) * time.Second,
			PollInterval: time.Duration(cfg.Trading.PollIntervalMS) * time.Millisecond,
		},
		book:     ledger.New(),
		journal:  jnl,
		notifier: notifier,
		log:      slog.Default().With("component", "bridge"),
		now:      time.Now,
		sleep:    sleepCtx,
	}

	b.newBroker = func(creds Credentials) broker.Client {
		baseURL := creds.BaseURL
		if baseURL == "" {
			if creds.Paper {
				baseURL = broker.PaperBaseURL
			} else {
				baseURL = broker.LiveBaseURL
			}
		}
		return broker.NewAlpacaClient(creds.APIKey, creds.APISecret, baseURL, cfg.Trading.RateLimitPerMin)
	}
	b.newGateway = func(creds Credentials) *marketdata.Gateway {
		dataKey, dataSecret := creds.APIKey, creds.APISecret
		if creds.DataKey != "" {
			dataKey, dataSecret = creds.DataKey, creds.DataSecret
		}
		var cache *marketdata.BarCache
		if cfg.Data.CacheDir != "" {
			cache = marketdata.NewBarCache(cfg.Data.CacheDir)
		}
		return marketdata.NewGateway(cache,
			marketdata.NewAlpacaProvider(dataKey, dataSecret, creds.DataURL, marketdata.FeedIEX),
			marketdata.NewAlpacaProvider(dataKey, dataSecret, creds.DataURL, marketdata.FeedSIP),
		)
	}

	return b
}

// Login opens the brokerage session: it constructs the clients, performs
// the account handshake, selects the market-data feed, and resets all
// per-session state. It returns the brokerage account identifier.
func (b *Bridge) Login(ctx context.Context, creds Credentials) (string, error) {
	client := b.newBroker(creds)

	var acct *domain.Account
	err := util.Retry(ctx, loginAttempts, loginRetryDelay, func() error {
		var aerr error
		acct, aerr = client.GetAccount(ctx)
		return aerr
	})
	if err != nil {
		b.notifier.Message("Login failed.")
		b.notifier.Message(err.Error())
		return "", fmt.Errorf("login handshake: %w", err)
	}

	b.brokerClient = client
	b.data = b.newGateway(creds)

	feed := b.cfg.Data.Feed
	if feed == "" {
		feed = marketdata.DefaultFeed(creds.DataKey != "", creds.Paper)
	}
	if err := b.data.Use(feed); err != nil {
		return "", fmt.Errorf("selecting data feed: %w", err)
	}

	b.book.Reset()
	b.tag = ""
	b.sessionID = uuid.NewString()
	b.account = acct.AccountNumber

	b.log.Info("session opened",
		"account", acct.AccountNumber,
		"paper", creds.Paper,
		"feed", feed,
	)
	b.notifier.Message("Account " + acct.AccountNumber)
	return acct.AccountNumber, nil
}

// Logout tears down the session. All per-session state is discarded.
func (b *Bridge) Logout() {
	if b.brokerClient == nil {
		return
	}
	b.log.Info("session closed", "account", b.account)
	b.brokerClient = nil
	b.data = nil
	b.book.Reset()
	b.tag = ""
	b.sessionID = ""
	b.account = ""
}

// Account returns the logged-in account identifier, empty when logged out.
func (b *Bridge) Account() string { return b.account }

// Settings returns the current session settings.
func (b *Bridge) Settings() Settings { return b.settings }

// ready guards operations that need an open session.
func (b *Bridge) ready() error {
	if b.brokerClient == nil {
		return ErrNotLoggedIn
	}
	return nil
}

// diag emits a diagnostic both to the host sink and the logger.
func (b *Bridge) diag(text string) {
	b.notifier.Message(text)
	b.log.Debug(text)
}

// record appends an order event to the journal best-effort. Journal
// failures are logged, never propagated.
func (b *Bridge) record(ctx context.Context, e journal.Event) {
	if b.journal == nil {
		return
	}
	e.SessionID = b.sessionID
	if err := b.journal.Record(ctx, e); err != nil {
		b.log.Warn("journal write failed", "trade_id", e.TradeID, "err", err)
	}
}

// sleepCtx blocks for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
