package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	log, err := NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	var (
		db        *DB
		auth      *Auth
		analytics *Analytics
		journal   Journal = nopJournal{}
	)
	if cfg.DBDSN != "" {
		db, err = OpenDB(cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		analytics = NewAnalytics(db, log.Named("journal"))
		journal = analytics
		auth = NewAuth(db, cfg.JWTSecret, log.Named("auth"))
		log.Infow("journal enabled", "driver", db.Dialect().Name())
	} else {
		log.Infow("no database configured, running guest-only")
	}

	catalog := NewCatalog()
	rooms := NewRoomManager(RoomDeps{
		Catalog: catalog,
		Matcher: NewMatcher(catalog),
		Log:     log.Named("room"),
		Journal: journal,
	}, cfg.MaxRooms)

	hub := NewHub(rooms, db, auth, journal, log.Named("hub"))
	go hub.Run()

	server := &http.Server{Addr: cfg.Addr, Handler: SetupRoutes(hub, cfg)}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Infow("server starting", "addr", cfg.Addr, "client", cfg.ClientDir)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	log.Infow("shutting down")
	shutdown(server, rooms, hub, analytics, log)
	return nil
}

func shutdown(server *http.Server, rooms *RoomManager, hub *Hub, analytics *Analytics, log *zap.SugaredLogger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Warnw("http shutdown", "err", err)
	}
	rooms.StopAll()
	hub.Stop()
	if analytics != nil {
		analytics.Stop()
	}
}
