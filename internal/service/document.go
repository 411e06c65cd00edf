package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/quillbook/quillbook-server/internal/domain"
	domainerrors "github.com/quillbook/quillbook-server/internal/errors"
	"github.com/quillbook/quillbook-server/internal/richtext"
	"github.com/quillbook/quillbook-server/internal/util"
)

// ImportFormat is the format of an uploaded manuscript.
type ImportFormat string

const (
	ImportHTML     ImportFormat = "html"
	ImportMarkdown ImportFormat = "markdown"
	ImportText     ImportFormat = "text"
)

// ConflictPolicy says what to do with imported sections whose titles match
// existing items. The empty policy reports the collision instead.
type ConflictPolicy string

const (
	ConflictAsk       ConflictPolicy = ""
	ConflictOverwrite ConflictPolicy = "overwrite"
	ConflictSkip      ConflictPolicy = "skip"
	ConflictCancel    ConflictPolicy = "cancel"
)

// ImportRequest is an uploaded manuscript.
type ImportRequest struct {
	Format     ImportFormat   `json:"format" validate:"oneof=html markdown text"`
	Data       string         `json:"data" validate:"notblank"`
	OnConflict ConflictPolicy `json:"on_conflict,omitempty" validate:"omitempty,oneof=overwrite skip cancel"`
}

// ImportResult lists what an import did.
type ImportResult struct {
	Created     []domain.ContentItem `json:"created"`
	Overwritten []domain.ContentItem `json:"overwritten"`
	Skipped     []string             `json:"skipped"`
	Cancelled   bool                 `json:"cancelled"`
}

// ExportFormat is a download format.
type ExportFormat string

const (
	ExportText     ExportFormat = "txt"
	ExportMarkdown ExportFormat = "md"
	ExportHTML     ExportFormat = "html"
)

// ExportFile is a rendered manuscript.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// DocumentService imports manuscripts as chapters or stories and exports a
// work as a single document.
type DocumentService struct {
	content *ContentService
	plans   *PlanService
	logger  *slog.Logger
}

// NewDocumentService creates a new document service.
func NewDocumentService(content *ContentService, plans *PlanService, logger *slog.Logger) *DocumentService {
	return &DocumentService{content: content, plans: plans, logger: logger}
}

// documentKind is the kind imports create and exports read: chapters in a
// book, stories in a quick story.
func documentKind(scope domain.Scope) domain.ContentKind {
	if scope == domain.ScopeQuickStory {
		return domain.KindStory
	}
	return domain.KindChapter
}

// Import splits the manuscript into sections and merges them into the
// work. Sections whose titles match existing items (ignoring case and
// Unicode form) are handled per req.OnConflict.
func (s *DocumentService) Import(ctx context.Context, ref WorkRef, req ImportRequest) (*ImportResult, error) {
	if err := s.content.validator.Validate(req); err != nil {
		return nil, err
	}

	sections, err := parseSections(req)
	if err != nil {
		return nil, err
	}
	if len(sections) == 0 {
		return nil, domainerrors.Validation("nothing to import")
	}

	kind := documentKind(ref.Scope)
	existing, err := s.content.List(ctx, ref, kind)
	if err != nil {
		return nil, err
	}
	byTitle := make(map[string]*domain.ContentItem, len(existing))
	for i := range existing {
		byTitle[richtext.TitleKey(existing[i].Title)] = &existing[i]
	}

	label := "Chapter"
	if kind == domain.KindStory {
		label = "Story"
	}
	var collisions, repeated []string
	seen := make(map[string]bool, len(sections))
	for i := range sections {
		if strings.TrimSpace(sections[i].Title) == "" {
			sections[i].Title = fmt.Sprintf("%s %d", label, len(existing)+i+1)
		}
		key := richtext.TitleKey(sections[i].Title)
		if seen[key] {
			repeated = append(repeated, sections[i].Title)
			continue
		}
		seen[key] = true
		if _, ok := byTitle[key]; ok {
			collisions = append(collisions, sections[i].Title)
		}
	}
	if len(repeated) > 0 {
		return nil, domainerrors.Validationf("%d section titles appear more than once", len(repeated)).
			WithDetails(map[string][]string{"titles": repeated})
	}

	result := &ImportResult{
		Created:     []domain.ContentItem{},
		Overwritten: []domain.ContentItem{},
		Skipped:     []string{},
	}
	if len(collisions) > 0 {
		switch req.OnConflict {
		case ConflictAsk:
			return nil, domainerrors.Conflictf("%d imported titles already exist", len(collisions)).
				WithDetails(map[string][]string{"titles": collisions})
		case ConflictCancel:
			result.Cancelled = true
			return result, nil
		}
	}

	adding := len(sections)
	if req.OnConflict == ConflictOverwrite || req.OnConflict == ConflictSkip {
		adding -= len(collisions)
	}
	if err := s.plans.CheckItemQuota(ctx, ref.UserKey, kind, len(existing), adding); err != nil {
		return nil, err
	}

	for _, sec := range sections {
		doc := richtext.FromParagraphs(sec.Paragraphs)
		if match, ok := byTitle[richtext.TitleKey(sec.Title)]; ok {
			if req.OnConflict == ConflictSkip {
				result.Skipped = append(result.Skipped, sec.Title)
				continue
			}
			item, err := s.content.Update(ctx, ref, kind, match.ID, ItemPatch{Content: &doc})
			if err != nil {
				return result, err
			}
			result.Overwritten = append(result.Overwritten, *item)
			continue
		}

		item, err := s.content.Create(ctx, ref, kind, ItemInput{Title: sec.Title, Content: doc})
		if err != nil {
			return result, err
		}
		result.Created = append(result.Created, *item)
	}

	s.logger.Info("manuscript imported",
		"work", ref.String(),
		"format", req.Format,
		"created", len(result.Created),
		"overwritten", len(result.Overwritten),
		"skipped", len(result.Skipped),
	)
	return result, nil
}

func parseSections(req ImportRequest) ([]richtext.Section, error) {
	if req.Format == ImportHTML {
		sections, err := richtext.ParseHTML(strings.NewReader(req.Data))
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeValidation, "unreadable HTML")
		}
		return sections, nil
	}
	return richtext.SplitText(req.Data), nil
}

// Export renders the work's chapters (or stories) in stored order as one
// document.
func (s *DocumentService) Export(ctx context.Context, ref WorkRef, format ExportFormat) (*ExportFile, error) {
	if err := s.plans.RequireFeature(ctx, ref.UserKey, domain.FeatureExport); err != nil {
		return nil, err
	}

	work, err := s.content.works.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	items, err := s.content.List(ctx, ref, documentKind(ref.Scope))
	if err != nil {
		return nil, err
	}

	var paragraphs []string
	for _, it := range items {
		paragraphs = append(paragraphs, it.Title)
		paragraphs = append(paragraphs, richtext.Paragraphs(it.Content)...)
	}

	file := &ExportFile{Filename: util.Slug(work.Title) + "." + string(format)}
	switch format {
	case ExportText:
		file.ContentType = "text/plain; charset=utf-8"
		file.Data = []byte(richtext.ToText(work.Title, paragraphs))
	case ExportHTML:
		file.ContentType = "text/html; charset=utf-8"
		file.Data = []byte(richtext.ToHTML(work.Title, paragraphs))
	case ExportMarkdown:
		md, err := richtext.ToMarkdown(work.Title, paragraphs)
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to render markdown")
		}
		file.ContentType = "text/markdown; charset=utf-8"
		file.Data = []byte(md)
	default:
		return nil, domainerrors.Validationf("unknown export format %q", format)
	}
	return file, nil
}
