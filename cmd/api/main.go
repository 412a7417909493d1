package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hrportal.org/internal/access"
	"hrportal.org/internal/directory"
	"hrportal.org/internal/httpapi"
	"hrportal.org/internal/identity"
	"hrportal.org/internal/obs"
	"hrportal.org/internal/stream"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	var (
		db    *sql.DB
		store access.Store
		dir   directory.Directory
	)
	if dsn := os.Getenv("HRPORTAL_PG_DSN"); dsn != "" {
		pg, err := access.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db = pg.DB()
		store = pg
		dir = directory.NewPGDirectory(db)
	} else {
		// Development mode keeps everything in process memory.
		store = access.NewInMemory()
		dir = directory.NewInMemory()
		log.Println("HRPORTAL_PG_DSN not set, using in-memory stores")
	}

	svc, err := access.NewService(store, dir)
	if err != nil {
		log.Fatalf("access service: %v", err)
	}

	var admins identity.CurrentAdminProvider = identity.HeaderProvider{}
	if secret := os.Getenv("HRPORTAL_ADMIN_JWT_SECRET"); secret != "" {
		tp, err := identity.NewTokenProvider(secret, os.Getenv("HRPORTAL_ADMIN_JWT_ISSUER"))
		if err != nil {
			log.Fatalf("token provider: %v", err)
		}
		admins = tp
	}

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, svc, dir, admins, stream.New())

	addr := os.Getenv("HRPORTAL_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting hrportal-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
