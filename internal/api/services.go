package api

import (
	"github.com/quillbook/quillbook-server/internal/service"
	"github.com/quillbook/quillbook-server/internal/store"
)

// Services groups the business services used by the API server.
type Services struct {
	Store     store.KV
	Plans     *service.PlanService
	Works     *service.WorkService
	Content   *service.ContentService
	Parts     *service.PartService
	NoteCards *service.NoteCardService
	Documents *service.DocumentService
	Sessions  *service.SessionManager
	Activity  *service.ActivityLog
	Search    *service.SearchService // nil when search is disabled
	AllowList *service.AllowListService
	Auth      *service.AuthService
}
