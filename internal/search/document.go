// Package search is a full-text index over a user's writing using Bleve.
// Every document is owned by one user; queries are always filtered by owner.
package search

import (
	"fmt"
	"strconv"
	"time"

	"github.com/quillbook/quillbook-server/internal/domain"
	"github.com/quillbook/quillbook-server/internal/richtext"
)

// Document is the indexed form of a content item.
type Document struct {
	Owner     string
	Scope     domain.Scope
	WorkID    int
	ItemID    string
	Kind      domain.ContentKind
	Title     string
	Body      string
	UpdatedAt time.Time
}

// DocID is the index key for an item: owner/scope/work/item.
func DocID(owner string, scope domain.Scope, workID int, itemID string) string {
	return fmt.Sprintf("%s/%s/%d/%s", owner, scope, workID, itemID)
}

// NewDocument builds the indexed form of item. Document kinds index their
// plain text; ideas and characters index their description.
func NewDocument(owner string, scope domain.Scope, item *domain.ContentItem) *Document {
	body := item.Description
	if item.Kind.IsDocument() {
		body = richtext.PlainText(item.Content)
	}
	if item.Role != "" {
		body = item.Role + "\n" + body
	}
	return &Document{
		Owner:     owner,
		Scope:     scope,
		WorkID:    item.WorkID,
		ItemID:    item.ID,
		Kind:      item.Kind,
		Title:     item.Title,
		Body:      body,
		UpdatedAt: item.UpdatedAt,
	}
}

// ID returns the document's index key.
func (d *Document) ID() string {
	return DocID(d.Owner, d.Scope, d.WorkID, d.ItemID)
}

// toMap converts to the field names used by the mapping.
func (d *Document) toMap() map[string]any {
	return map[string]any{
		"owner":      d.Owner,
		"scope":      string(d.Scope),
		"work_id":    strconv.Itoa(d.WorkID),
		"item_id":    d.ItemID,
		"kind":       string(d.Kind),
		"title":      d.Title,
		"body":       d.Body,
		"updated_at": float64(d.UpdatedAt.UnixMilli()),
	}
}
