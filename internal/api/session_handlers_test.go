package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillbook/quillbook-server/internal/domain"
	"github.com/quillbook/quillbook-server/internal/service"
)

func TestSession_EditFlow(t *testing.T) {
	ts := setupTestServer(t)
	workID := ts.createBook(t, "Sessions")
	base := fmt.Sprintf("/api/v1/book/works/%d/session", workID)

	snap := decode[service.SessionSnapshot](t, ts.api.Get(base, ts.bearer(t, writerEmail)))
	assert.Equal(t, service.SessionIdle, snap.State)

	resp := ts.api.Put(base+"/document", ts.bearer(t, writerEmail), map[string]any{"content": doc("orphan")})
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = ts.api.Post(base+"/create", ts.bearer(t, writerEmail), map[string]any{"kind": "chapter", "title": "Morning"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	snap = decode[service.SessionSnapshot](t, resp)
	assert.Equal(t, service.SessionEditing, snap.State)
	assert.Equal(t, domain.KindChapter, snap.Kind)
	assert.Equal(t, "Morning", snap.Title)
	itemID := snap.ItemID

	resp = ts.api.Post(base+"/goal", ts.bearer(t, writerEmail), map[string]any{"target": 5})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Put(base+"/document", ts.bearer(t, writerEmail), map[string]any{"content": doc("The sun rose over the hills")})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	snap = decode[service.SessionSnapshot](t, resp)
	assert.Equal(t, 6, snap.Words)
	assert.False(t, snap.Dirty)
	assert.NotNil(t, snap.LastSavedAt)

	resp = ts.api.Post(base+"/close", ts.bearer(t, writerEmail))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, service.SessionIdle, decode[service.SessionSnapshot](t, resp).State)

	item := decode[domain.ContentItem](t, ts.api.Get(fmt.Sprintf("/api/v1/book/works/%d/chapter/%s", workID, itemID), ts.bearer(t, writerEmail)))
	assert.Equal(t, doc("The sun rose over the hills"), item.Content)

	work := decode[domain.Work](t, ts.api.Get(fmt.Sprintf("/api/v1/book/works/%d", workID), ts.bearer(t, writerEmail)))
	assert.Equal(t, 6, work.WordCount)

	resp = ts.api.Post(base+"/open", ts.bearer(t, writerEmail), map[string]any{"kind": "chapter", "item_id": itemID})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, 6, decode[service.SessionSnapshot](t, resp).Words)
}

func TestSession_Timer(t *testing.T) {
	ts := setupTestServer(t)
	workID := ts.createBook(t, "Timed")
	base := fmt.Sprintf("/api/v1/book/works/%d/session", workID)

	resp := ts.api.Post(base+"/timer", ts.bearer(t, writerEmail), map[string]any{"duration_seconds": 600})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	snap := decode[service.SessionSnapshot](t, resp)
	require.NotNil(t, snap.Timer)
	assert.Equal(t, 600, snap.Timer.DurationSeconds)

	resp = ts.api.Delete(base+"/timer", ts.bearer(t, writerEmail))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Nil(t, decode[service.SessionSnapshot](t, resp).Timer)

	resp = ts.api.Post(base+"/timer", ts.bearer(t, writerEmail), map[string]any{"duration_seconds": 0})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestSession_UnknownWork(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/book/works/99/session", ts.bearer(t, writerEmail))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSession_OpenRejectsNonDocuments(t *testing.T) {
	ts := setupTestServer(t)
	workID := ts.createBook(t, "Ideas")

	resp := ts.api.Post(fmt.Sprintf("/api/v1/book/works/%d/session/open", workID), ts.bearer(t, writerEmail),
		map[string]any{"kind": "idea", "item_id": "idea-1"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}
