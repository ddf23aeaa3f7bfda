package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"github.com/photogram/photogram-server/internal/api"
	"github.com/photogram/photogram-server/internal/config"
	"github.com/photogram/photogram-server/internal/logger"
	"github.com/photogram/photogram-server/internal/metrics"
	"github.com/photogram/photogram-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	shutdownTimeout time.Duration
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideAPIServer provides the routed HTTP handler.
func ProvideAPIServer(i do.Injector) (*api.Server, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	verifier := do.MustInvoke[*VerifierHandle](i)
	limiter := do.MustInvoke[*RateLimiterHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	services := &api.Services{
		Likes:    do.MustInvoke[*service.LikeService](i),
		Comments: do.MustInvoke[*service.CommentService](i),
		Photos:   do.MustInvoke[*service.PhotoService](i),
		Users:    do.MustInvoke[*service.UserService](i),
	}

	return api.NewServer(services, verifier, api.Options{
		Development:    cfg.App.IsDevelopment(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Limiter:        limiter.Limiter,
		Metrics:        m,
		Health:         storeHandle.Store,
	}, log.Logger), nil
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	handler := do.MustInvoke[*api.Server](i)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = shutdownTimeout
	}
	return &HTTPServerHandle{Server: srv, shutdownTimeout: timeout}, nil
}
