package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/inkwell-apps/daily-reflection/internal/config"
	"github.com/inkwell-apps/daily-reflection/internal/handler"
	"github.com/inkwell-apps/daily-reflection/internal/model/poet"
	"github.com/inkwell-apps/daily-reflection/internal/reveal"
	gateService "github.com/inkwell-apps/daily-reflection/internal/service/gate"
	poemService "github.com/inkwell-apps/daily-reflection/internal/service/poem"
	sessionService "github.com/inkwell-apps/daily-reflection/internal/service/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize the session store: Redis when configured, in-memory otherwise
	var sessions sessionService.Store
	if cfg.Session.RedisAddr != "" {
		sessions, err = sessionService.NewRedisStore(ctx, cfg.Session.RedisAddr, cfg.Session.TTL)
		if err != nil {
			log.Fatalf("failed to initialize redis session store: %v", err)
		}
		log.Printf("session store: redis at %s", cfg.Session.RedisAddr)
	} else {
		sessions = sessionService.NewMemoryStore(cfg.Session.TTL)
		log.Println("session store: in-memory")
	}
	defer func() {
		if err := sessions.Close(); err != nil {
			log.Printf("warning: failed to close session store: %v", err)
		}
	}()

	// The gate stays up even without a password; it reports itself
	// misconfigured and never unlocks.
	gateSvc := gateService.NewService(cfg.App.Password)
	if !gateSvc.Configured() {
		log.Println("warning: APP_PASSWORD is not set, access gate is misconfigured")
	}

	poetStore := poet.NewMemoryStore(poet.Seed())

	// Initialize the poem service when the provider credential is present
	var poemSvc *poemService.Service
	if cfg.AI.Enabled() {
		chatModel, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Printf("warning: failed to initialize chat model: %v", err)
			log.Println("continuing without poem generation")
		} else {
			poemSvc, err = poemService.NewService(ctx, poetStore, poet.NewRandomPicker(), chatModel, cfg.App.SystemPrompt)
			if err != nil {
				log.Printf("warning: failed to initialize poem service: %v", err)
				poemSvc = nil
			} else {
				log.Printf("poem service initialized, model=%s", cfg.AI.Model)
			}
		}
	} else {
		log.Println("OPENAI_API_KEY not configured, poem generation disabled")
	}

	revealer := reveal.New(cfg.App.RevealInterval)

	router := handler.NewRouter(sessions, gateSvc, poemSvc, revealer)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Daily Reflection listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
