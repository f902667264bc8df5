package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agentgate/agentgate/internal/config"
	"github.com/agentgate/agentgate/internal/permission"
	permissionrepo "github.com/agentgate/agentgate/internal/permission/repositoryimpl"
	"github.com/agentgate/agentgate/internal/profile"
	profilerepo "github.com/agentgate/agentgate/internal/profile/repositoryimpl"
	"github.com/agentgate/agentgate/pkg/clog"
	"github.com/agentgate/agentgate/pkg/docstore"
	"github.com/agentgate/agentgate/pkg/storage"

	server "github.com/agentgate/agentgate/internal"
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewHTTPTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	// Setup storage
	var store storage.Storage
	switch env.StorageEnv.Type {
	case "s3":
		store, err = storage.NewS3Storage(context.Background(), env.StorageEnv.S3Bucket, env.StorageEnv.S3Prefix, env.StorageEnv.S3Region)
		if err != nil {
			slog.Error("failed to create S3 storage", "error", err)
			os.Exit(1)
		}
	default:
		store, err = storage.NewLocalStorage(env.StorageEnv.BaseDir)
		if err != nil {
			slog.Error("failed to create local storage", "error", err)
			os.Exit(1)
		}
	}

	// Setup repositories
	attempts := docstore.WithAttempts(env.StorageEnv.WriteAttempts)
	permissionRepo := permissionrepo.NewJSONRepository(store, env.StorageEnv.PermissionsKey, attempts)
	profileRepo := profilerepo.NewJSONRepository(store, env.StorageEnv.ProfilesKey, attempts)

	// Setup servers
	permissionServer := permission.NewServer(permissionRepo)
	profileServer := profile.NewServer(profileRepo)

	srv := server.NewServer(env, permissionServer, profileServer)

	// Graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	go func() {
		if err := srv.ListenAndServe(ctx); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	// Give in-flight requests time to finish.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
