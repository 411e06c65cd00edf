package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/quillbook/quillbook-server/internal/domain"
	domainerrors "github.com/quillbook/quillbook-server/internal/errors"
	"github.com/quillbook/quillbook-server/internal/logger"
	"github.com/quillbook/quillbook-server/internal/richtext"
	"github.com/quillbook/quillbook-server/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUser = "writer@gmail.com"

// testEnv wires the authoring services over an in-memory store.
type testEnv struct {
	kv       *store.Memory
	plans    *PlanService
	works    *WorkService
	activity *ActivityLog
	content  *ContentService
	parts    *PartService
	cards    *NoteCardService
	docs     *DocumentService
	sessions *SessionManager
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := logger.Discard()
	kv := store.NewMemory()
	plans := NewPlanService(kv, log)
	works := NewWorkService(kv, plans, nil, log)
	activity := NewActivityLog(kv, log)
	content := NewContentService(kv, works, plans, activity, nil, log)
	sessions := NewSessionManager(content, activity, 5*time.Millisecond, log)

	content.AddDeleteListener(sessions.ItemDeleted)

	content.AddUpdateListener(sessions.ItemUpdated)
	works.AddDeleteListener(sessions.WorkDeleted)
	t.Cleanup(func() { _ = sessions.Shutdown(context.Background()) })

	return &testEnv{
		kv:       kv,
		plans:    plans,
		works:    works,
		activity: activity,
		content:  content,
		parts:    NewPartService(kv, content, plans, log),
		cards:    NewNoteCardService(kv, content, plans, log),
		docs:     NewDocumentService(content, plans, log),
		sessions: sessions,
	}
}

func (e *testEnv) upgrade(t *testing.T, userKey string) {
	t.Helper()
	require.NoError(t, e.plans.Set(context.Background(), userKey, domain.Plan{Type: domain.PlanPaid}))
}

func (e *testEnv) createBook(t *testing.T, title string) WorkRef {
	t.Helper()
	w, err := e.works.Create(context.Background(), testUser, domain.ScopeBook, WorkInput{Title: title})
	require.NoError(t, err)
	return WorkRef{UserKey: testUser, Scope: domain.ScopeBook, WorkID: w.ID}
}

func (e *testEnv) createItem(t *testing.T, ref WorkRef, kind domain.ContentKind, title string, paragraphs ...string) *domain.ContentItem {
	t.Helper()
	in := ItemInput{Title: title}
	if kind.IsDocument() {
		in.Content = richtext.FromParagraphs(paragraphs)
	}
	item, err := e.content.Create(context.Background(), ref, kind, in)
	require.NoError(t, err)
	return item
}

func (e *testEnv) wordCount(t *testing.T, ref WorkRef) int {
	t.Helper()
	w, err := e.works.Get(context.Background(), ref)
	require.NoError(t, err)
	return w.WordCount
}

// hasActivity reports whether the user's log holds a matching entry.
func (e *testEnv) hasActivity(userKey string, typ domain.ActivityType, title string, action domain.ActivityAction) bool {
	for _, a := range e.activity.List(context.Background(), userKey) {
		if a.Type == typ && a.Title == title && a.Action == action {
			return true
		}
	}
	return false
}

func assertCode(t *testing.T, err error, target *domainerrors.Error) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, target)
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func doc(paragraphs ...string) string {
	return richtext.FromParagraphs(paragraphs)
}
