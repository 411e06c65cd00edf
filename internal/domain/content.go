package domain

import (
	"slices"
	"time"
)

// ContentKind names the kinds of item a work owns.
type ContentKind string

const (
	KindIdea      ContentKind = "idea"
	KindCharacter ContentKind = "character"
	KindChapter   ContentKind = "chapter"
	KindStory     ContentKind = "story"
	KindOutline   ContentKind = "outline"
)

// ContentKinds lists every item kind in display order.
var ContentKinds = []ContentKind{KindIdea, KindCharacter, KindChapter, KindStory, KindOutline}

// Valid reports whether k is a known kind.
func (k ContentKind) Valid() bool {
	return slices.Contains(ContentKinds, k)
}

// IsDocument reports whether items of this kind carry a rich-text document
// that counts toward the work's word total.
func (k ContentKind) IsDocument() bool {
	return k == KindChapter || k == KindStory || k == KindOutline
}

// ContentItem is an idea, character, chapter, story or outline. One struct
// covers every kind; fields a kind does not use stay empty.
type ContentItem struct {
	ID          string      `json:"id"`
	WorkID      int         `json:"work_id"`
	Kind        ContentKind `json:"kind"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Role        string      `json:"role,omitempty"`    // characters
	Content     string      `json:"content,omitempty"` // serialized rich-text delta
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// FindItem returns the index of the item with id, or -1.
func FindItem(items []ContentItem, id string) int {
	return slices.IndexFunc(items, func(it ContentItem) bool { return it.ID == id })
}
