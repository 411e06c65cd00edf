package providers

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/quillbook/quillbook-server/internal/config"
	"github.com/quillbook/quillbook-server/internal/logger"
	"github.com/quillbook/quillbook-server/internal/store"
	"github.com/quillbook/quillbook-server/internal/store/sqlite"
)

// StoreHandle wraps the configured KV backend with shutdown capability.
type StoreHandle struct {
	store.KV
	Backend string
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the storage backend named in the config.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	var (
		kv   store.KV
		path string
		err  error
	)
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		kv = store.NewMemory()
		log.Warn("Using in-memory store, content is lost on restart")
	case config.BackendSQLite:
		path = filepath.Join(cfg.Storage.DataPath, "quillbook.db")
		if err := os.MkdirAll(cfg.Storage.DataPath, 0o750); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		kv, err = sqlite.Open(path, log.Logger)
	default:
		path = filepath.Join(cfg.Storage.DataPath, "db")
		kv, err = store.Open(path, log.Logger)
	}
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "backend", cfg.Storage.Backend, "path", path)

	return &StoreHandle{KV: kv, Backend: cfg.Storage.Backend}, nil
}

// ProvideSlogLogger provides access to the underlying slog.Logger for packages that need it.
func ProvideSlogLogger(i do.Injector) (*slog.Logger, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return log.Logger, nil
}
