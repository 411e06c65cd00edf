package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/quillbook/quillbook-server/internal/domain"
)

// Params configures a query. Owner is required.
type Params struct {
	Owner  string
	Scope  domain.Scope
	WorkID int // 0 searches every work in the scope
	Query  string
	Kinds  []domain.ContentKind
	Limit  int
}

// Hit is one matching item.
type Hit struct {
	ItemID    string             `json:"item_id"`
	WorkID    int                `json:"work_id"`
	Kind      domain.ContentKind `json:"kind"`
	Title     string             `json:"title"`
	Score     float64            `json:"score"`
	Fragments []string           `json:"fragments,omitempty"`
}

// Result is the outcome of a query.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Search runs a query restricted to the owner's documents.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	if params.Owner == "" {
		return nil, fmt.Errorf("search without owner")
	}
	if params.Limit <= 0 {
		params.Limit = 20
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildQuery(params), params.Limit, 0, false)
	req.Fields = []string{"item_id", "work_id", "kind", "title"}
	req.Highlight = bleve.NewHighlight()
	req.Highlight.AddField("title")
	req.Highlight.AddField("body")
	req.SortBy([]string{"-_score", "-updated_at"})

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	out := &Result{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(res.Hits)),
	}
	for _, h := range res.Hits {
		hit := Hit{Score: h.Score}
		if v, ok := h.Fields["item_id"].(string); ok {
			hit.ItemID = v
		}
		if v, ok := h.Fields["work_id"].(string); ok {
			hit.WorkID, _ = strconv.Atoi(v)
		}
		if v, ok := h.Fields["kind"].(string); ok {
			hit.Kind = domain.ContentKind(v)
		}
		if v, ok := h.Fields["title"].(string); ok {
			hit.Title = v
		}
		for _, field := range []string{"title", "body"} {
			hit.Fragments = append(hit.Fragments, h.Fragments[field]...)
		}
		out.Hits = append(out.Hits, hit)
	}
	return out, nil
}

func buildQuery(params Params) query.Query {
	must := []query.Query{term("owner", params.Owner)}
	if params.Scope != "" {
		must = append(must, term("scope", string(params.Scope)))
	}
	if params.WorkID > 0 {
		must = append(must, term("work_id", strconv.Itoa(params.WorkID)))
	}
	if len(params.Kinds) > 0 {
		kinds := make([]query.Query, len(params.Kinds))
		for i, k := range params.Kinds {
			kinds[i] = term("kind", string(k))
		}
		must = append(must, bleve.NewDisjunctionQuery(kinds...))
	}

	if q := strings.TrimSpace(params.Query); q != "" {
		title := bleve.NewMatchQuery(q)
		title.SetField("title")
		title.SetBoost(3.0)

		body := bleve.NewMatchQuery(q)
		body.SetField("body")

		fuzzy := bleve.NewFuzzyQuery(strings.ToLower(q))
		fuzzy.SetField("title")
		fuzzy.SetFuzziness(1)
		fuzzy.SetBoost(0.8)

		text := []query.Query{title, body, fuzzy}
		if len(q) >= 2 {
			prefix := bleve.NewPrefixQuery(strings.ToLower(q))
			prefix.SetField("title")
			prefix.SetBoost(0.5)
			text = append(text, prefix)
		}
		must = append(must, bleve.NewDisjunctionQuery(text...))
	}

	return bleve.NewConjunctionQuery(must...)
}

func term(field, value string) query.Query {
	q := bleve.NewTermQuery(value)
	q.SetField(field)
	return q
}
