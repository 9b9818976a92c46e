package main

import (
	"context"
	"crypto/rand"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rookgm/checkout/config"
	"github.com/rookgm/checkout/internal/api"
	handler "github.com/rookgm/checkout/internal/handler/http"
	"github.com/rookgm/checkout/internal/locale"
	"github.com/rookgm/checkout/internal/logger"
	"github.com/rookgm/checkout/internal/models"
	"github.com/rookgm/checkout/internal/navigation"
	"github.com/rookgm/checkout/internal/notify"
	"github.com/rookgm/checkout/internal/repository"
	"github.com/rookgm/checkout/internal/repository/postgres"
	"github.com/rookgm/checkout/internal/service"
	"github.com/rookgm/checkout/internal/transport"
	"github.com/rookgm/checkout/internal/worker"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func main() {

	// create new config
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// initialize logger
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer logger.Log.Sync()

	// create context cancelled by signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// dependency injection
	// transport
	locales := locale.NewResolver(cfg.PageURL, "")
	notes := notify.NewCenter(notify.WithLogger(logger.Log))
	client := transport.New(
		transport.BaseURL(cfg.Production, cfg.PageOrigin, cfg.BaseURL),
		transport.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		transport.WithLocale(locales),
		transport.WithNotifier(notes),
		transport.WithLogger(logger.Log),
	)
	orders := api.NewOrderAPI(client)

	// navigation
	recorder := navigation.NewRecorder(nil)
	browser := &navigation.Browser{
		Origin:     cfg.PageOrigin,
		Production: cfg.Production,
		Go:         recorder.Go,
	}

	// session
	opts := []service.SessionOption{service.WithSessionLogger(logger.Log)}
	var handlerOpts []handler.HandlerOption
	if cfg.DatabaseDSN != "" {
		db, err := postgres.New(ctx, cfg.DatabaseDSN)
		if err != nil {
			logger.Log.Fatal("Error initializing database", zap.Error(err))
		}
		defer db.Close()

		// migrate database
		if err := db.Migrate(); err != nil {
			logger.Log.Fatal("Error migrating database", zap.Error(err))
		}
		snapshots := repository.NewSnapshotRepository(db)
		opts = append(opts, service.WithSnapshotSink(snapshots))
		handlerOpts = append(handlerOpts, handler.WithSnapshotSource(snapshots))
	}
	session := service.NewSessionManager(orders, browser, opts...)

	// session token
	tokenKey := cfg.SigningKey()
	if tokenKey == nil {
		tokenKey = make([]byte, 32)
		if _, err := rand.Read(tokenKey); err != nil {
			logger.Log.Fatal("Error generating token key", zap.Error(err))
		}
		logger.Log.Warn("token key is not set, sessions will not survive restart")
	}
	tokens := service.NewJWTTokenService(tokenKey)

	sessionHandler := handler.NewSessionHandler(session, orders, notes, tokens, logger.Log, handlerOpts...)
	router := handler.NewRouter(sessionHandler, tokens, logger.Log)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Log.Info("Running server", zap.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// countdown
	g.Go(func() error {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				session.Tick()
			}
		}
	})

	// status polling of the loaded order
	poller := worker.NewStatusPoller(api.NewOrderAPI(client.Muted()), cfg.PollInterval)
	g.Go(func() error {
		return poller.Watch(gctx, session, func(orderID string, state models.OrderState) {
			logger.Log.Info("order finished", zap.String("order_id", orderID), zap.Stringer("status", state.Status))
			browser.NavigateTo(service.ResultPath(orderID))
		})
	})

	if err := g.Wait(); err != nil {
		logger.Log.Fatal("Error running server", zap.Error(err))
	}
}
