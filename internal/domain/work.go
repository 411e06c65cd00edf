package domain

import (
	"slices"
	"strings"
	"time"
)

// Scope separates Book mode from Quick Story mode. The same work id in each
// scope names two unrelated works.
type Scope string

const (
	ScopeBook       Scope = "book"
	ScopeQuickStory Scope = "quickstory"
)

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	return s == ScopeBook || s == ScopeQuickStory
}

// MaxSeriesNumber is the highest position a book can take within a series.
const MaxSeriesNumber = 12

// Work is a Book or Quick Story, the top-level authored unit.
// IDs are integers unique within one user's scope.
type Work struct {
	ID        int       `json:"id"`
	Scope     Scope     `json:"scope"`
	Title     string    `json:"title"`
	Author    string    `json:"author,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// WordCount is derived from the work's chapters, stories and outlines.
	WordCount int `json:"word_count"`

	// Book holds bibliographic metadata. Always nil for quick stories.
	Book *BookMetadata `json:"book,omitempty"`
}

// BookMetadata is the bibliographic information attached to a Book.
type BookMetadata struct {
	Edition      string        `json:"edition,omitempty"`
	ISBN         string        `json:"isbn,omitempty"`
	EbookISBN    string        `json:"ebook_isbn,omitempty"`
	SeriesName   string        `json:"series_name,omitempty"`
	SeriesNumber int           `json:"series_number,omitempty"`
	Contributors []Contributor `json:"contributors,omitempty"`
	Publisher    *Publisher    `json:"publisher,omitempty"`
	Copyright    string        `json:"copyright,omitempty"`
	Dedication   string        `json:"dedication,omitempty"`
	LegalClauses []string      `json:"legal_clauses,omitempty"`
}

// Contributor credits someone other than the author (editor, illustrator, ...).
type Contributor struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// Publisher holds the imprint details printed on a book.
type Publisher struct {
	Name     string `json:"name"`
	Imprint  string `json:"imprint,omitempty"`
	Location string `json:"location,omitempty"`
	Website  string `json:"website,omitempty"`
}

// InSeries reports whether the work is a book with a series name.
func (w *Work) InSeries() bool {
	return w.Book != nil && strings.TrimSpace(w.Book.SeriesName) != ""
}

// Touch updates UpdatedAt.
func (w *Work) Touch(now time.Time) {
	w.UpdatedAt = now
}

// SameSeries compares series names ignoring case and surrounding space.
func SameSeries(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// AvailableSeriesNumbers returns {1..MaxSeriesNumber} minus the numbers other
// works in seriesName already hold. The work with excludeID is ignored so an
// edited book keeps its own number available.
func AvailableSeriesNumbers(works []Work, seriesName string, excludeID int) []int {
	taken := make(map[int]bool)
	for i := range works {
		w := &works[i]
		if w.ID == excludeID || !w.InSeries() || !SameSeries(w.Book.SeriesName, seriesName) {
			continue
		}
		taken[w.Book.SeriesNumber] = true
	}

	available := make([]int, 0, MaxSeriesNumber)
	for n := 1; n <= MaxSeriesNumber; n++ {
		if !taken[n] {
			available = append(available, n)
		}
	}
	return available
}

// NextWorkID returns one more than the highest id in works.
func NextWorkID(works []Work) int {
	maxID := 0
	for _, w := range works {
		maxID = max(maxID, w.ID)
	}
	return maxID + 1
}

// FindWork returns the index of the work with id, or -1.
func FindWork(works []Work, id int) int {
	return slices.IndexFunc(works, func(w Work) bool { return w.ID == id })
}
