package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quillbook/quillbook-server/internal/domain"
	domainerrors "github.com/quillbook/quillbook-server/internal/errors"
	"github.com/quillbook/quillbook-server/internal/richtext"
)

// Modification logging thresholds for autosaved edits.
const (
	ModifiedLogInterval = 5 * time.Second
	ModifiedLogMinWords = 1 // the word delta must exceed this
)

// Sessions unused for DefaultSessionIdleTTL are flushed and dropped unless a
// writing timer is still running.
const (
	DefaultSessionIdleTTL = 30 * time.Minute
	sessionSweepInterval  = 5 * time.Minute
)

// SessionState says whether a session has an item open.
type SessionState string

const (
	SessionIdle    SessionState = "idle"
	SessionEditing SessionState = "editing"
)

// TimerStatus describes a running writing timer.
type TimerStatus struct {
	DurationSeconds  int `json:"duration_seconds"`
	RemainingSeconds int `json:"remaining_seconds"`
}

// SessionSnapshot is a point-in-time view of a session.
type SessionSnapshot struct {
	Scope        domain.Scope       `json:"scope"`
	WorkID       int                `json:"work_id"`
	State        SessionState       `json:"state"`
	Kind         domain.ContentKind `json:"kind,omitempty"`
	ItemID       string             `json:"item_id,omitempty"`
	Title        string             `json:"title,omitempty"`
	Placeholder  string             `json:"placeholder,omitempty"`
	Words        int                `json:"words"`
	SessionWords int                `json:"session_words"`
	Dirty        bool               `json:"dirty"`
	LastError    string             `json:"last_error,omitempty"`
	LastSavedAt  *time.Time         `json:"last_saved_at,omitempty"`
	Timer        *TimerStatus       `json:"timer,omitempty"`
	Goal         *GoalStatus        `json:"goal,omitempty"`
}

// Session is the editing state of one work. At most one chapter, story or
// outline is open at a time; every edit is saved immediately.
type Session struct {
	ref      WorkRef
	content  *ContentService
	activity *ActivityLog
	logger   *slog.Logger
	now      func() time.Time
	ctx      context.Context

	// Serializes all operations on this session.
	mu             sync.Mutex
	kind           domain.ContentKind
	itemID         string
	title          string
	doc            string
	dirty          bool
	lastErr        error
	lastSavedAt    time.Time
	baseline       int
	wordsAtLastLog int
	lastLoggedAt   time.Time

	// Read by the word goal without taking mu.
	words atomic.Int64

	timer *WritingTimer
	goal  *WordGoal

	// Guarded by the manager's mutex.
	lastUsed time.Time
}

func (s *Session) editing() bool {
	return s.itemID != ""
}

// Snapshot returns the current state.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() SessionSnapshot {
	snap := SessionSnapshot{
		Scope:  s.ref.Scope,
		WorkID: s.ref.WorkID,
		State:  SessionIdle,
	}
	if s.editing() {
		words := int(s.words.Load())
		snap.State = SessionEditing
		snap.Kind = s.kind
		snap.ItemID = s.itemID
		snap.Title = s.title
		snap.Placeholder = fmt.Sprintf("Start writing %q...", s.title)
		snap.Words = words
		snap.SessionWords = words - s.baseline
		snap.Dirty = s.dirty
		if s.lastErr != nil {
			snap.LastError = s.lastErr.Error()
		}
		if !s.lastSavedAt.IsZero() {
			saved := s.lastSavedAt
			snap.LastSavedAt = &saved
		}
	}
	if total, remaining := s.timer.Status(); total > 0 {
		snap.Timer = &TimerStatus{
			DurationSeconds:  int(total.Seconds()),
			RemainingSeconds: int(remaining.Round(time.Second).Seconds()),
		}
	}
	if goal, ok := s.goal.Status(); ok {
		snap.Goal = &goal
	}
	return snap
}

// Open makes an item the active document. Unsaved edits to the previous
// item are flushed first; if that fails the session stays where it was.
func (s *Session) Open(ctx context.Context, kind domain.ContentKind, itemID string) (SessionSnapshot, error) {
	if !kind.IsDocument() {
		return SessionSnapshot{}, domainerrors.Validationf("%s cannot be opened for editing", kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flushLocked(ctx); err != nil {
		return s.snapshotLocked(), err
	}

	item, err := s.content.Get(ctx, s.ref, kind, itemID)
	if err != nil {
		return s.snapshotLocked(), err
	}

	if s.editing() && s.itemID != item.ID {
		s.goal.Stop()
	}

	words := richtext.CountWords(item.Content)
	s.kind, s.itemID, s.title, s.doc = kind, item.ID, item.Title, item.Content
	s.dirty, s.lastErr, s.lastSavedAt = false, nil, time.Time{}
	s.baseline, s.wordsAtLastLog = words, words
	s.lastLoggedAt = time.Time{}
	s.words.Store(int64(words))

	s.logger.Debug("session opened item", "work", s.ref.String(), "kind", kind, "id", item.ID)
	return s.snapshotLocked(), nil
}

// Create adds a new document item, subject to the plan, and opens it.
func (s *Session) Create(ctx context.Context, kind domain.ContentKind, title string) (SessionSnapshot, error) {
	if !kind.IsDocument() {
		return SessionSnapshot{}, domainerrors.Validationf("%s cannot be opened for editing", kind)
	}
	item, err := s.content.Create(ctx, s.ref, kind, ItemInput{Title: title})
	if err != nil {
		return s.Snapshot(), err
	}
	return s.Open(ctx, kind, item.ID)
}

// DocumentChanged stores a new revision of the active document. A failed
// save is logged and reported in the snapshot, not returned: the edit stays
// in memory and is retried on the next change, Open or Close.
func (s *Session) DocumentChanged(ctx context.Context, doc string) (SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.editing() {
		return s.snapshotLocked(), domainerrors.Conflict("no document is open")
	}

	s.doc = doc
	words := richtext.CountWords(doc)
	s.words.Store(int64(words))

	saved, err := s.content.SaveContent(ctx, s.ref, s.kind, s.itemID, doc)
	if err != nil {
		s.dirty, s.lastErr = true, err
		s.logger.Error("autosave failed", "work", s.ref.String(), "kind", s.kind, "id", s.itemID, "error", err)
		return s.snapshotLocked(), nil
	}

	now := s.now()
	s.title = saved.Title
	s.dirty, s.lastErr = false, nil
	s.lastSavedAt = now.UTC().Truncate(time.Millisecond)

	if now.Sub(s.lastLoggedAt) >= ModifiedLogInterval && abs(words-s.wordsAtLastLog) > ModifiedLogMinWords {
		s.activity.Append(ctx, s.ref, domain.ActivityTypeFor(s.kind), s.title, domain.ActionModified)
		s.lastLoggedAt = now
		s.wordsAtLastLog = words
	}
	return s.snapshotLocked(), nil
}

// Close flushes pending edits and returns to idle. If the flush fails the
// item stays open.
func (s *Session) Close(ctx context.Context) (SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flushLocked(ctx); err != nil {
		return s.snapshotLocked(), err
	}
	s.resetLocked()
	return s.snapshotLocked(), nil
}

// ItemDeleted returns to idle, discarding unsaved edits, if the deleted item
// is the one open.
func (s *Session) ItemDeleted(kind domain.ContentKind, itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editing() && s.kind == kind && s.itemID == itemID {
		s.resetLocked()
	}
}

// ItemUpdated follows edits made to the open item outside the session. The
// title is always taken over; the document only when there are no unsaved
// edits, and words it adds do not count toward this session.
func (s *Session) ItemUpdated(kind domain.ContentKind, item domain.ContentItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.editing() || s.kind != kind || s.itemID != item.ID {
		return
	}
	s.title = item.Title
	if s.dirty || item.Content == s.doc {
		return
	}

	words := richtext.CountWords(item.Content)
	delta := words - int(s.words.Load())
	s.doc = item.Content
	s.baseline += delta
	s.wordsAtLastLog += delta
	s.words.Store(int64(words))
}

// StartTimer begins a writing sprint of d.
func (s *Session) StartTimer(d time.Duration) (SessionSnapshot, error) {
	err := s.timer.Start(s.ctx, d, func() {
		s.logger.Info("writing timer finished", "work", s.ref.String(), "duration", d)
	})
	return s.Snapshot(), err
}

// StopTimer cancels the sprint.
func (s *Session) StopTimer() SessionSnapshot {
	s.timer.Stop()
	return s.Snapshot()
}

// StartGoal tracks words written in the open document from now on. Any
// previous goal is replaced.
func (s *Session) StartGoal(target int) (SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.editing() {
		return s.snapshotLocked(), domainerrors.Conflict("open a document before setting a word goal")
	}

	s.goal.Stop()
	err := s.goal.Start(s.ctx, target, int(s.words.Load()),
		func() int { return int(s.words.Load()) },
		func(st GoalStatus) {
			s.logger.Info("word goal reached", "work", s.ref.String(), "target", st.Target, "progress", st.Progress)
		},
	)
	return s.snapshotLocked(), err
}

// StopGoal abandons the goal.
func (s *Session) StopGoal() SessionSnapshot {
	s.goal.Stop()
	return s.Snapshot()
}

// flushLocked saves a pending revision of the active document.
func (s *Session) flushLocked(ctx context.Context) error {
	if !s.editing() || !s.dirty {
		return nil
	}
	saved, err := s.content.SaveContent(ctx, s.ref, s.kind, s.itemID, s.doc)
	if err != nil {
		s.lastErr = err
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to save open document")
	}
	s.title = saved.Title
	s.dirty, s.lastErr = false, nil
	s.lastSavedAt = s.now().UTC().Truncate(time.Millisecond)
	return nil
}

func (s *Session) resetLocked() {
	s.goal.Stop()
	s.kind, s.itemID, s.title, s.doc = "", "", "", ""
	s.dirty, s.lastErr, s.lastSavedAt = false, nil, time.Time{}
	s.baseline, s.wordsAtLastLog = 0, 0
	s.lastLoggedAt = time.Time{}
	s.words.Store(0)
}

// shutdown flushes and stops background work.
func (s *Session) shutdown(ctx context.Context) error {
	s.timer.Stop()
	s.goal.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked(ctx)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// SessionManager owns one Session per work.
type SessionManager struct {
	content  *ContentService
	activity *ActivityLog
	logger   *slog.Logger
	tick     time.Duration
	now      func() time.Time
	idleTTL  time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[WorkRef]*Session
}

// NewSessionManager creates a manager whose timers and goals check their
// state every tick.
func NewSessionManager(content *ContentService, activity *ActivityLog, tick time.Duration, logger *slog.Logger) *SessionManager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &SessionManager{
		content:  content,
		activity: activity,
		logger:   logger,
		tick:     tick,
		now:      time.Now,
		idleTTL:  DefaultSessionIdleTTL,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[WorkRef]*Session),
	}

	go m.cleanup()

	return m
}

// Get returns the work's session, creating an idle one if needed. The
// caller must have checked that the work exists.
func (m *SessionManager) Get(ref WorkRef) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[ref]; ok {
		s.lastUsed = m.now()
		return s
	}
	s := &Session{
		ref:      ref,
		content:  m.content,
		activity: m.activity,
		logger:   m.logger,
		now:      m.now,
		ctx:      m.ctx,
		timer:    NewWritingTimer(m.tick),
		goal:     NewWordGoal(m.tick),
		lastUsed: m.now(),
	}
	m.sessions[ref] = s
	return s
}

func (m *SessionManager) lookup(ref WorkRef) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[ref]
	return s, ok
}

// ItemDeleted tells the work's session that an item is gone.
func (m *SessionManager) ItemDeleted(ref WorkRef, kind domain.ContentKind, itemID string) {
	if s, ok := m.lookup(ref); ok {
		s.ItemDeleted(kind, itemID)
	}
}

// ItemUpdated tells the work's session that an item was edited elsewhere.
func (m *SessionManager) ItemUpdated(ref WorkRef, kind domain.ContentKind, item domain.ContentItem) {
	if s, ok := m.lookup(ref); ok {
		s.ItemUpdated(kind, item)
	}
}

// Len returns the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *SessionManager) cleanup() {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.evictIdle()
		}
	}
}

// evictIdle drops sessions not used within the idle TTL after flushing
// them. Sessions with a running timer or unsaved edits that cannot be
// written stay.
func (m *SessionManager) evictIdle() {
	m.mu.Lock()
	cutoff := m.now().Add(-m.idleTTL)
	var stale []*Session
	for _, s := range m.sessions {
		if s.lastUsed.Before(cutoff) {
			stale = append(stale, s)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		m.evict(s, cutoff)
	}
}

func (m *SessionManager) evict(s *Session, cutoff time.Time) {
	if s.timer.Running() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flushLocked(m.ctx); err != nil {
		m.logger.Warn("keeping idle session with unsaved edits", "work", s.ref.String(), "error", err)
		return
	}

	m.mu.Lock()
	dropped := m.sessions[s.ref] == s && s.lastUsed.Before(cutoff)
	if dropped {
		delete(m.sessions, s.ref)
	}
	m.mu.Unlock()

	if dropped {
		s.resetLocked()
		m.logger.Debug("idle session dropped", "work", s.ref.String())
	}
}

// WorkDeleted drops the work's session without flushing.
func (m *SessionManager) WorkDeleted(ref WorkRef) {
	m.mu.Lock()
	s, ok := m.sessions[ref]
	delete(m.sessions, ref)
	m.mu.Unlock()

	if ok {
		s.timer.Stop()
		s.mu.Lock()
		s.resetLocked()
		s.mu.Unlock()
	}
}

// Shutdown flushes every session and stops all timers and goals.
func (m *SessionManager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := s.shutdown(ctx); err != nil {
			m.logger.Error("failed to flush session", "work", s.ref.String(), "error", err)
			errs = append(errs, err)
		}
	}
	m.cancel()
	return domainerrors.Join(errs...)
}
