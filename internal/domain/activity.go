package domain

import "time"

// ActivityType tags which kind of item an activity entry is about.
type ActivityType string

const (
	ActivityIdea      ActivityType = "idea"
	ActivityCharacter ActivityType = "character"
	ActivityStory     ActivityType = "story"
	ActivityChapter   ActivityType = "chapter"
	ActivityOutline   ActivityType = "outline"
	ActivityPart      ActivityType = "part"
	ActivityNoteCard  ActivityType = "notecard"
)

// ActivityAction is what happened to the item.
type ActivityAction string

const (
	ActionCreated  ActivityAction = "created"
	ActionModified ActivityAction = "modified"
	ActionDeleted  ActivityAction = "deleted"
)

// Activity log limits.
const (
	MaxActivityEntries  = 50
	ActivityDedupWindow = 2 * time.Second
)

// ActivityEntry records one create, modify or delete. Entries are immutable;
// Title is a snapshot taken when the entry was written.
type ActivityEntry struct {
	ID        string         `json:"id"`
	Type      ActivityType   `json:"type"`
	Title     string         `json:"title"`
	Action    ActivityAction `json:"action"`
	Timestamp time.Time      `json:"timestamp"`

	// Where the item lived, for linking back from the feed.
	Scope  Scope `json:"scope,omitempty"`
	WorkID int   `json:"work_id,omitempty"`
}

// ActivityTypeFor maps a content kind to its activity tag.
func ActivityTypeFor(kind ContentKind) ActivityType {
	return ActivityType(kind)
}

// Duplicates reports whether e repeats (type, title, action) within the dedup window before now.
func (e *ActivityEntry) Duplicates(t ActivityType, title string, action ActivityAction, now time.Time) bool {
	return e.Type == t && e.Title == title && e.Action == action && now.Sub(e.Timestamp) < ActivityDedupWindow
}
