// Command server runs the campus forum API.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campusforum/internal/bootstrap"
	"campusforum/internal/middleware"
	"campusforum/internal/server"
)

// @title Campus Forum API
// @version 1.0
// @description Forum backend for university communities: categories, posts, comments, moderation reports and analytics.

// @host localhost:8080
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	ctx := context.Background()

	rt, err := bootstrap.InitRuntime(ctx, bootstrap.Options{
		ServiceName:  "campusforum-api",
		ApplySchema:  true,
		SeedBuiltIns: true,
	})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	srv, err := server.NewServerWithDeps(rt.Config, rt.DB, rt.Redis)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		middleware.Logger.Info("shutting down server", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			middleware.Logger.Error("server stopped", "error", err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		middleware.Logger.Error("server shutdown error", "error", err.Error())
	}
	rt.Close(shutdownCtx)
}
