package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillbook/quillbook-server/internal/search"
	"github.com/quillbook/quillbook-server/internal/service"
)

const manuscript = `# Arrival

The ship reached the harbor at dawn.

# Departure

They left before the storm.
`

func TestImport_CreatesChapters(t *testing.T) {
	ts := setupTestServer(t)
	workID := ts.createBook(t, "Voyage")
	path := fmt.Sprintf("/api/v1/book/works/%d/import", workID)

	resp := ts.api.Post(path, ts.bearer(t, writerEmail), map[string]any{"format": "markdown", "data": manuscript})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	res := decode[service.ImportResult](t, resp)
	require.Len(t, res.Created, 2)
	assert.Equal(t, "Arrival", res.Created[0].Title)
	assert.Equal(t, "Departure", res.Created[1].Title)

	list := decode[ListItemsResponse](t, ts.api.Get(fmt.Sprintf("/api/v1/book/works/%d/chapter", workID), ts.bearer(t, writerEmail)))
	assert.Len(t, list.Items, 2)
}

func TestImport_TitleConflict(t *testing.T) {
	ts := setupTestServer(t)
	workID := ts.createBook(t, "Voyage")
	path := fmt.Sprintf("/api/v1/book/works/%d/import", workID)
	ts.createItem(t, workID, "chapter", "arrival", "")

	resp := ts.api.Post(path, ts.bearer(t, writerEmail), map[string]any{"format": "markdown", "data": manuscript})
	require.Equal(t, http.StatusConflict, resp.Code, resp.Body.String())
	apiErr := decode[APIError](t, resp)
	assert.Equal(t, "CONFLICT", apiErr.Code)
	details, ok := apiErr.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"Arrival"}, details["titles"])

	resp = ts.api.Post(path, ts.bearer(t, writerEmail), map[string]any{"format": "markdown", "data": manuscript, "on_conflict": "skip"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	res := decode[service.ImportResult](t, resp)
	assert.Equal(t, []string{"Arrival"}, res.Skipped)
	assert.Len(t, res.Created, 1)

	resp = ts.api.Post(path, ts.bearer(t, writerEmail), map[string]any{"format": "markdown", "data": manuscript, "on_conflict": "cancel"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.True(t, decode[service.ImportResult](t, resp).Cancelled)
}

func TestExport(t *testing.T) {
	ts := setupTestServer(t)
	workID := ts.createBook(t, "The Long Voyage")
	ts.createItem(t, workID, "chapter", "Arrival", doc("The ship reached the harbor."))
	path := fmt.Sprintf("/api/v1/book/works/%d/export", workID)

	resp := ts.api.Get(path, ts.bearer(t, writerEmail))
	assert.Equal(t, http.StatusPaymentRequired, resp.Code)

	ts.upgrade(t, writerEmail)

	resp = ts.api.Get(path, ts.bearer(t, writerEmail))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "text/plain; charset=utf-8", resp.Header().Get("Content-Type"))
	assert.Contains(t, resp.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, resp.Header().Get("Content-Disposition"), "the-long-voyage.txt")
	assert.Contains(t, resp.Body.String(), "The Long Voyage")
	assert.Contains(t, resp.Body.String(), "The ship reached the harbor.")

	resp = ts.api.Get(path+"?format=html", ts.bearer(t, writerEmail))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", resp.Header().Get("Content-Type"))
	assert.Contains(t, resp.Header().Get("Content-Disposition"), "the-long-voyage.html")

	resp = ts.api.Get(path+"?format=pdf", ts.bearer(t, writerEmail))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestSearch(t *testing.T) {
	ts := setupTestServer(t)
	workID := ts.createBook(t, "Harbor Tales")
	otherID := ts.createBook(t, "Mountain Tales")
	ts.createItem(t, workID, "chapter", "Arrival", doc("The lighthouse keeper waved."))
	ts.createItem(t, otherID, "idea", "Lighthouse ghost", "")

	resp := ts.api.Get("/api/v1/book/search?q=lighthouse", ts.bearer(t, writerEmail))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	res := decode[search.Result](t, resp)
	assert.Len(t, res.Hits, 2)

	resp = ts.api.Get(fmt.Sprintf("/api/v1/book/works/%d/search?q=lighthouse", workID), ts.bearer(t, writerEmail))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	res = decode[search.Result](t, resp)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "Arrival", res.Hits[0].Title)

	resp = ts.api.Get("/api/v1/book/search?q=lighthouse&kind=idea", ts.bearer(t, writerEmail))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	res = decode[search.Result](t, resp)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, otherID, res.Hits[0].WorkID)

	// Other users never see these items.
	resp = ts.api.Get("/api/v1/book/search?q=lighthouse", ts.bearer(t, adminEmail))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decode[search.Result](t, resp).Hits)

	resp = ts.api.Get("/api/v1/book/search", ts.bearer(t, writerEmail))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestPublicRateLimit(t *testing.T) {
	ts := setupTestServerWithOptions(t, Options{PublicRate: 0.001, PublicBurst: 1})

	body := map[string]any{"email": "someone@gmail.com", "name": "Someone"}
	resp := ts.api.Post("/api/v1/signup", body)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = ts.api.Post("/api/v1/signup", map[string]any{"email": "another@gmail.com", "name": "Another"})
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, codeRateLimited, errorCode(t, resp))
}
