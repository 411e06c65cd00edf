package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/quillbook/quillbook-server/internal/api"
	"github.com/quillbook/quillbook-server/internal/config"
	"github.com/quillbook/quillbook-server/internal/logger"
	"github.com/quillbook/quillbook-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	api *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.api.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sessionsHandle := do.MustInvoke[*SessionManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Store:     storeHandle.KV,
		Plans:     do.MustInvoke[*service.PlanService](i),
		Works:     do.MustInvoke[*service.WorkService](i),
		Content:   do.MustInvoke[*service.ContentService](i),
		Parts:     do.MustInvoke[*service.PartService](i),
		NoteCards: do.MustInvoke[*service.NoteCardService](i),
		Documents: do.MustInvoke[*service.DocumentService](i),
		Sessions:  sessionsHandle.SessionManager,
		Activity:  do.MustInvoke[*service.ActivityLog](i),
		Search:    do.MustInvoke[*service.SearchService](i),
		AllowList: do.MustInvoke[*service.AllowListService](i),
		Auth:      do.MustInvoke[*service.AuthService](i),
	}

	handler := api.NewServer(services, api.Options{
		CORSOrigins:    cfg.Server.CORSOrigins,
		CallbackSecret: cfg.Auth.CallbackSecret,
	}, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv, api: handler}, nil
}
