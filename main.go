package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	intconfig "busbooking/internal/config"
	intdb "busbooking/internal/db"
	router "busbooking/internal/http"
	"busbooking/internal/http/handlers"
	"busbooking/internal/ledger"
	"busbooking/internal/repositories"

	"github.com/gin-gonic/gin"
)

func main() {
	env := intconfig.LoadEnv()
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	deps, cleanup, err := buildDeps(env)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           router.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	log.Printf("Server listening on http://localhost%s (storage=%s)", env.AppAddr, env.Storage)
	if err := serve(srv, quit); err != nil {
		log.Printf("server stopped with error: %v", err)
		return
	}
	log.Println("Server stopped cleanly.")
}

// serve runs srv until quit fires or listening fails. It always returns so the
// deferred cleanup in main runs.
func serve(srv *http.Server, quit <-chan os.Signal) error {
	failed := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
	}()

	select {
	case err := <-failed:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// buildDeps picks the storage backend and puts the optional Redis tier in front of
// trips. The seat ledger always seeds from the uncached store.
func buildDeps(env intconfig.Env) (handlers.Handlers, func(), error) {
	var (
		trips repositories.TripStore
		users repositories.UserStore
	)
	closers := []func(){}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch env.Storage {
	case "memory":
		mem := repositories.NewMemoryStore()
		trips, users = mem, mem
		n := mem.SeedUsers(env.SeedUsers)
		log.Printf("[MAIN] using in-memory storage (%d seeded users)", n)
	default:
		conn, err := intconfig.ConnectDB(env.DBDSN)
		if err != nil {
			return handlers.Handlers{}, cleanup, err
		}
		closers = append(closers, intconfig.CloseDB)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = intdb.EnsureSchema(ctx, conn)
		cancel()
		if err != nil {
			cleanup()
			return handlers.Handlers{}, func() {}, err
		}
		trips = repositories.TripRepository{DB: conn}
		users = repositories.UserRepository{DB: conn}
	}

	if env.RedisURL != "" {
		rdb, err := intconfig.ConnectRedis(env.RedisURL)
		if err != nil {
			log.Printf("[MAIN] redis unavailable, trip cache disabled: %v", err)
		} else {
			closers = append(closers, func() { _ = rdb.Close() })
			trips = repositories.CachedTripStore{Inner: trips, Redis: rdb, TTL: env.TripCacheTTL}
			log.Println("[MAIN] trip cache enabled")
		}
	}

	return handlers.Handlers{
		Env:    env,
		Trips:  trips,
		Users:  users,
		Ledger: ledger.New(repositories.LedgerSource(trips)),
	}, cleanup, nil
}
