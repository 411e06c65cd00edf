package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/quillbook/quillbook-server/internal/allowlist"
	"github.com/quillbook/quillbook-server/internal/auth"
	"github.com/quillbook/quillbook-server/internal/config"
	"github.com/quillbook/quillbook-server/internal/logger"
	"github.com/quillbook/quillbook-server/internal/service"
)

// sessionTick is how often writing timers and word goals are checked.
const sessionTick = time.Second

// ProvidePlanService provides the plan service.
func ProvidePlanService(i do.Injector) (*service.PlanService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewPlanService(storeHandle.KV, log.Logger), nil
}

// ProvideWorkService provides the work service.
func ProvideWorkService(i do.Injector) (*service.WorkService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	plans := do.MustInvoke[*service.PlanService](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewWorkService(storeHandle.KV, plans, searchService, log.Logger), nil
}

// ProvideActivityLog provides the recent-activity log.
func ProvideActivityLog(i do.Injector) (*service.ActivityLog, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewActivityLog(storeHandle.KV, log.Logger), nil
}

// ProvideContentService provides the content item service.
func ProvideContentService(i do.Injector) (*service.ContentService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	works := do.MustInvoke[*service.WorkService](i)
	plans := do.MustInvoke[*service.PlanService](i)
	activity := do.MustInvoke[*service.ActivityLog](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewContentService(storeHandle.KV, works, plans, activity, searchService, log.Logger), nil
}

// ProvidePartService provides the part service.
func ProvidePartService(i do.Injector) (*service.PartService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	content := do.MustInvoke[*service.ContentService](i)
	plans := do.MustInvoke[*service.PlanService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewPartService(storeHandle.KV, content, plans, log.Logger), nil
}

// ProvideNoteCardService provides the note card service.
func ProvideNoteCardService(i do.Injector) (*service.NoteCardService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	content := do.MustInvoke[*service.ContentService](i)
	plans := do.MustInvoke[*service.PlanService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewNoteCardService(storeHandle.KV, content, plans, log.Logger), nil
}

// ProvideDocumentService provides manuscript import and export.
func ProvideDocumentService(i do.Injector) (*service.DocumentService, error) {
	content := do.MustInvoke[*service.ContentService](i)
	plans := do.MustInvoke[*service.PlanService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewDocumentService(content, plans, log.Logger), nil
}

// SessionManagerHandle wraps the session manager so open documents are
// flushed on shutdown.
type SessionManagerHandle struct {
	*service.SessionManager
}

// Shutdown implements do.Shutdownable.
func (h *SessionManagerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.SessionManager.Shutdown(ctx)
}

// ProvideSessionManager provides the authoring session manager and
// subscribes it to item edits and deletions.
func ProvideSessionManager(i do.Injector) (*SessionManagerHandle, error) {
	content := do.MustInvoke[*service.ContentService](i)
	works := do.MustInvoke[*service.WorkService](i)
	activity := do.MustInvoke[*service.ActivityLog](i)
	log := do.MustInvoke[*logger.Logger](i)

	sessions := service.NewSessionManager(content, activity, sessionTick, log.Logger)
	content.AddDeleteListener(sessions.ItemDeleted)
	content.AddUpdateListener(sessions.ItemUpdated)
	works.AddDeleteListener(sessions.WorkDeleted)

	return &SessionManagerHandle{SessionManager: sessions}, nil
}

// ProvideAllowListStore provides the file-backed allow-list.
func ProvideAllowListStore(i do.Injector) (*allowlist.Store, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return allowlist.Open(cfg.AllowList.Dir, log.Logger)
}

// ProvideAllowListService provides the allow-list service and seeds the
// configured admins.
func ProvideAllowListService(i do.Injector) (*service.AllowListService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	listStore := do.MustInvoke[*allowlist.Store](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewAllowListService(listStore, cfg.AllowList.SignupDomain, log.Logger)
	if err := svc.SeedAdmins(cfg.AllowList.AdminEmails); err != nil {
		return nil, err
	}

	log.Info("Allow-list loaded",
		"dir", listStore.Dir(),
		"users", len(listStore.Users()),
		"signup_domain", cfg.AllowList.SignupDomain,
	)
	return svc, nil
}

// ProvideAuthService provides the sign-in service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	tokenService := do.MustInvoke[*auth.TokenService](i)
	allowList := do.MustInvoke[*service.AllowListService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(tokenService, allowList, log.Logger), nil
}
