package api

import (
	"context"
	"mime"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/quillbook/quillbook-server/internal/service"
)

// MaxImportSize caps uploaded manuscripts (10 MB).
const MaxImportSize = 10 << 20

func (s *Server) registerDocumentRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:  "importManuscript",
		Method:       http.MethodPost,
		Path:         "/api/v1/{scope}/works/{id}/import",
		Summary:      "Import manuscript",
		Description:  "Splits an HTML, Markdown or plain-text manuscript into chapters (books) or stories (quick stories). Title collisions are reported unless on_conflict says what to do.",
		Tags:         []string{"Documents"},
		Security:     bearerSecurity,
		MaxBodyBytes: MaxImportSize,
	}, s.handleImport)

	huma.Register(s.api, huma.Operation{
		OperationID: "exportManuscript",
		Method:      http.MethodGet,
		Path:        "/api/v1/{scope}/works/{id}/export",
		Summary:     "Export manuscript",
		Description: "Renders the work as a single text, Markdown or HTML file (paid plans)",
		Tags:        []string{"Documents"},
		Security:    bearerSecurity,
	}, s.handleExport)
}

// === DTOs ===

// ImportInput wraps the import request for Huma.
type ImportInput struct {
	WorkPath
	Body service.ImportRequest
}

// ImportOutput wraps the import result for Huma.
type ImportOutput struct {
	Body *service.ImportResult
}

// ExportInput contains parameters for exporting.
type ExportInput struct {
	WorkPath
	Format string `query:"format" enum:"txt,md,html" default:"txt" doc:"Output format"`
}

// ExportOutput streams the rendered file.
type ExportOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

// === Handlers ===

func (s *Server) handleImport(ctx context.Context, input *ImportInput) (*ImportOutput, error) {
	ref, err := s.workRef(ctx, input.WorkPath)
	if err != nil {
		return nil, err
	}
	res, err := s.services.Documents.Import(ctx, ref, input.Body)
	if err != nil {
		return nil, err
	}
	return &ImportOutput{Body: res}, nil
}

func (s *Server) handleExport(ctx context.Context, input *ExportInput) (*ExportOutput, error) {
	ref, err := s.workRef(ctx, input.WorkPath)
	if err != nil {
		return nil, err
	}
	file, err := s.services.Documents.Export(ctx, ref, service.ExportFormat(input.Format))
	if err != nil {
		return nil, err
	}
	return &ExportOutput{
		ContentType:        file.ContentType,
		ContentDisposition: mime.FormatMediaType("attachment", map[string]string{"filename": file.Filename}),
		Body:               file.Data,
	}, nil
}
