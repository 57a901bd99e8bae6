// ABOUTME: Wires lookup, sessions, engine, dispatcher, and transports into one bot
// ABOUTME: Runs transports and the health server under an errgroup with graceful drain

package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/2389/chembot/internal/bridge"
	"github.com/2389/chembot/internal/catalog"
	"github.com/2389/chembot/internal/compound"
	"github.com/2389/chembot/internal/config"
	"github.com/2389/chembot/internal/console"
	"github.com/2389/chembot/internal/conversation"
	"github.com/2389/chembot/internal/format"
	"github.com/2389/chembot/internal/matrix"
	"github.com/2389/chembot/internal/pubchem"
	"github.com/2389/chembot/internal/session"
	"github.com/2389/chembot/internal/store"
)

// shutdownTimeout bounds draining queued events and stopping the HTTP server.
const shutdownTimeout = 5 * time.Second

// Transport is a chat adapter run by the bot.
type Transport interface {
	Name() string
	Run(ctx context.Context) error
	Ready() bool
}

// Bot holds every long-lived component.
type Bot struct {
	config     *config.Config
	lookup     compound.Service
	cache      *compound.Cache
	archive    store.Store
	sessions   *session.Store
	formatter  *format.Formatter
	engine     *conversation.Engine
	dispatcher *conversation.Dispatcher
	choices    *bridge.ChoiceMemory
	renderer   *bridge.Renderer
	images     *bridge.ImageFetcher
	logger     *slog.Logger

	mu         sync.Mutex
	transports []Transport
	httpAddr   string
}

// New builds a bot backed by PubChem.
func New(cfg *config.Config, logger *slog.Logger) (*Bot, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client := pubchem.NewClient(pubchem.Config{
		BaseURL:             cfg.PubChem.BaseURL,
		ViewURL:             cfg.PubChem.ViewURL,
		Timeout:             cfg.PubChem.Timeout,
		RequestsPerSecond:   cfg.PubChem.RequestsPerSecond,
		SimilarityThreshold: cfg.PubChem.SimilarityThreshold,
		RandomMaxCID:        cfg.PubChem.RandomMaxCID,
		RandomAttempts:      cfg.PubChem.RandomAttempts,
	}, logger)
	return build(cfg, client, logger)
}

// build wires a bot around any lookup service.
func build(cfg *config.Config, lookup compound.Service, logger *slog.Logger) (*Bot, error) {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bot{
		config:    cfg,
		lookup:    lookup,
		formatter: format.New(cfg.Bot.Locale),
		choices:   bridge.NewChoiceMemory(cfg.Bot.ChoiceTTL),
		renderer:  bridge.NewRenderer(cfg.Matrix.CommandPrefix),
		images:    bridge.NewImageFetcher(cfg.Bot.ImageTimeout),
		logger:    logger.With("component", "bot"),
	}

	if cfg.Cache.Enabled {
		b.cache = compound.NewCache(lookup, cfg.Cache.TTL, cfg.Cache.CleanupInterval)
		b.lookup = b.cache
	}

	cat, err := catalog.Load(cfg.Bot.ExamplesFile)
	if err != nil {
		return nil, fmt.Errorf("loading examples: %w", err)
	}

	sessOpts := session.Options{
		HistoryRetention: cfg.Session.HistoryRetention,
		Logger:           logger,
	}
	if cfg.Session.Database != "" {
		s, err := store.NewSQLiteStore(cfg.Session.Database)
		if err != nil {
			return nil, fmt.Errorf("opening session database: %w", err)
		}
		b.archive = s
		sessOpts.Archive = s
	}
	b.sessions = session.New(sessOpts)

	b.engine = conversation.New(b.lookup, b.sessions, b.formatter, cat, conversation.Options{
		SimilarLimit:   cfg.PubChem.SimilarLimit,
		HistoryDisplay: cfg.Session.HistoryDisplay,
		Logger:         logger,
	})
	b.dispatcher = conversation.NewDispatcher(b.engine, logger)

	b.logger.Info("bot assembled",
		"locale", cfg.Bot.Locale,
		"cache", cfg.Cache.Enabled,
		"persistent", b.archive != nil,
	)
	return b, nil
}

// Lookup returns the (possibly cached) lookup service.
func (b *Bot) Lookup() compound.Service {
	return b.lookup
}

// Formatter returns the bot's response formatter.
func (b *Bot) Formatter() *format.Formatter {
	return b.formatter
}

// AddTransport registers t to be run by Run.
func (b *Bot) AddTransport(t Transport) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transports = append(b.transports, t)
}

// NewMatrix creates a Matrix transport wired to this bot. The caller logs
// it in and adds it with AddTransport.
func (b *Bot) NewMatrix() (*matrix.Transport, error) {
	return matrix.New(matrix.Options{
		Config:     b.config.Matrix,
		Dispatcher: b.dispatcher,
		Renderer:   b.renderer,
		Images:     b.images,
		Choices:    b.choices,
		Logger:     b.logger,
	})
}

// NewConsole creates a console transport reading in and writing out.
func (b *Bot) NewConsole(in io.Reader, out io.Writer) *console.Console {
	return console.New(console.Options{
		In:         in,
		Out:        out,
		Prefix:     b.config.Matrix.CommandPrefix,
		Dispatcher: b.dispatcher,
		Choices:    b.choices,
		Logger:     b.logger,
	})
}

// HTTPAddr returns the health server's bound address once it is listening.
func (b *Bot) HTTPAddr() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.httpAddr
}

// Run runs every transport, plus the health server when configured, until
// ctx is cancelled or any of them stops. Queued events are drained before
// it returns.
func (b *Bot) Run(ctx context.Context) error {
	b.mu.Lock()
	transports := append([]Transport(nil), b.transports...)
	b.mu.Unlock()
	if len(transports) == 0 {
		return errors.New("no transports configured")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	for _, t := range transports {
		g.Go(func() error {
			// One transport stopping stops the bot
			defer cancel()
			b.logger.Info("starting transport", "transport", t.Name())
			if err := t.Run(gctx); err != nil {
				return fmt.Errorf("%s transport: %w", t.Name(), err)
			}
			b.logger.Info("transport stopped", "transport", t.Name())
			return nil
		})
	}

	if addr := b.config.Server.HTTPAddr; addr != "" {
		if err := b.serveHTTP(gctx, g, addr); err != nil {
			cancel()
			_ = g.Wait()
			return err
		}
	}

	runErr := g.Wait()

	drainCtx, drainCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer drainCancel()
	if err := b.dispatcher.Close(drainCtx); err != nil {
		b.logger.Warn("queued events not drained", "error", err)
	}

	return runErr
}

// serveHTTP starts the health server on g and stops it when ctx is done.
func (b *Bot) serveHTTP(ctx context.Context, g *errgroup.Group, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	b.mu.Lock()
	b.httpAddr = ln.Addr().String()
	b.mu.Unlock()

	srv := &http.Server{
		Handler:           b.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		b.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		// The run context is already cancelled here
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down HTTP server: %w", err)
		}
		return nil
	})
	return nil
}

// Close releases the session database, if any.
func (b *Bot) Close() error {
	if b.archive != nil {
		return b.archive.Close()
	}
	return nil
}
