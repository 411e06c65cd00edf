// Package di provides dependency injection configuration for the Quillbook server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/quillbook/quillbook-server/internal/allowlist"
	"github.com/quillbook/quillbook-server/internal/auth"
	"github.com/quillbook/quillbook-server/internal/config"
	"github.com/quillbook/quillbook-server/internal/di/providers"
	"github.com/quillbook/quillbook-server/internal/logger"
	"github.com/quillbook/quillbook-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchService)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvideAllowListStore)
	do.Provide(injector, providers.ProvideAllowListService)
	do.Provide(injector, providers.ProvideAuthService)

	// Authoring services
	do.Provide(injector, providers.ProvidePlanService)
	do.Provide(injector, providers.ProvideWorkService)
	do.Provide(injector, providers.ProvideActivityLog)
	do.Provide(injector, providers.ProvideContentService)
	do.Provide(injector, providers.ProvidePartService)
	do.Provide(injector, providers.ProvideNoteCardService)
	do.Provide(injector, providers.ProvideDocumentService)
	do.Provide(injector, providers.ProvideSessionManager)

	// Workers
	do.Provide(injector, providers.ProvideFileWatcher)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*service.SearchService](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)
	_ = do.MustInvoke[*allowlist.Store](injector)
	_ = do.MustInvoke[*service.AllowListService](injector)
	_ = do.MustInvoke[*service.AuthService](injector)

	// Authoring services
	_ = do.MustInvoke[*service.PlanService](injector)
	_ = do.MustInvoke[*service.WorkService](injector)
	_ = do.MustInvoke[*service.ActivityLog](injector)
	_ = do.MustInvoke[*service.ContentService](injector)
	_ = do.MustInvoke[*service.PartService](injector)
	_ = do.MustInvoke[*service.NoteCardService](injector)
	_ = do.MustInvoke[*service.DocumentService](injector)
	_ = do.MustInvoke[*providers.SessionManagerHandle](injector)

	// Workers
	_ = do.MustInvoke[*providers.FileWatcherHandle](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
