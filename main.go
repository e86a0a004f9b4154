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

	"BlenderChat/controllers"
	"BlenderChat/pkg/config"
	"BlenderChat/pkg/database"
	svc "BlenderChat/pkg/services"
	"BlenderChat/routes"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// the model must be ready before the port is bound
	model, err := svc.LoadChatModel(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to load model: %v", err)
	}

	// optional store: connect and migrate once, before any request can reach the hook
	var gdb *gorm.DB
	if cfg.PersistenceEnabled() {
		openCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		db, err := database.Open(openCtx, cfg.DatabaseURL, database.Options{MaxConns: cfg.DBMaxConns})
		cancel()
		if err != nil {
			log.Fatalf("failed to connect database: %v", err)
		}
		defer db.Close()
		if err := database.Migrate(db.Gorm); err != nil {
			log.Fatalf("failed migrate: %v", err)
		}
		log.Printf("[store] %s ready, table tests migrated", db.Dialect)
		gdb = db.Gorm
	} else {
		log.Printf("[store] DATA_BASE_URL not set, /insert_test will report not configured")
	}

	app := &controllers.App{
		Model:    model,
		Activity: svc.NewActivityService(gdb),
	}

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           routes.NewEngine(cfg, app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[http] listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("[http] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[http] shutdown error: %v", err)
	}
}
