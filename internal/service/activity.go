package service

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/quillbook/quillbook-server/internal/domain"
	domainerrors "github.com/quillbook/quillbook-server/internal/errors"
	"github.com/quillbook/quillbook-server/internal/id"
	"github.com/quillbook/quillbook-server/internal/store"
)

// ActivityLog keeps each user's most recent creates, edits and deletes,
// newest first. Recording is best effort: it never fails the write it
// describes.
type ActivityLog struct {
	entries *store.Collection[domain.ActivityEntry]
	logger  *slog.Logger
	now     func() time.Time

	// Serializes read-modify-write of a log within this process.
	mu sync.Mutex
}

// NewActivityLog creates an activity log over kv.
func NewActivityLog(kv store.KV, logger *slog.Logger) *ActivityLog {
	return &ActivityLog{
		entries: store.NewCollection[domain.ActivityEntry](kv, logger),
		logger:  logger,
		now:     time.Now,
	}
}

// Append records an entry unless an identical (type, title, action) entry
// was written within the dedup window. Reports whether an entry was added.
func (l *ActivityLog) Append(ctx context.Context, ref WorkRef, t domain.ActivityType, title string, action domain.ActivityAction) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := store.ActivityKey(ref.UserKey)
	now := l.now().UTC().Truncate(time.Millisecond)
	entries := l.entries.Load(ctx, key)

	for i := range entries {
		if entries[i].Duplicates(t, title, action, now) {
			return false
		}
	}

	entryID, err := id.Generate("act")
	if err != nil {
		l.logger.Warn("failed to record activity", "error", err)
		return false
	}

	entry := domain.ActivityEntry{
		ID:        entryID,
		Type:      t,
		Title:     title,
		Action:    action,
		Timestamp: now,
		Scope:     ref.Scope,
		WorkID:    ref.WorkID,
	}
	entries = slices.Insert(entries, 0, entry)
	if len(entries) > domain.MaxActivityEntries {
		entries = entries[:domain.MaxActivityEntries]
	}

	if err := l.entries.Save(ctx, key, entries); err != nil {
		l.logger.Warn("failed to record activity",
			"user", ref.UserKey,
			"type", t,
			"action", action,
			"error", err,
		)
		return false
	}
	return true
}

// List returns the user's entries, newest first. Unreadable logs are empty.
func (l *ActivityLog) List(ctx context.Context, userKey string) []domain.ActivityEntry {
	return l.entries.Load(ctx, store.ActivityKey(userKey))
}

// Remove deletes one entry.
func (l *ActivityLog) Remove(ctx context.Context, userKey, entryID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := store.ActivityKey(userKey)
	entries := l.entries.Load(ctx, key)
	i := slices.IndexFunc(entries, func(e domain.ActivityEntry) bool { return e.ID == entryID })
	if i < 0 {
		return domainerrors.NotFound("activity entry not found")
	}

	if err := l.entries.Save(ctx, key, slices.Delete(entries, i, i+1)); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to remove activity entry")
	}
	return nil
}
