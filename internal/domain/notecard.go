package domain

import (
	"slices"
	"time"
)

// NoteCardColor is one of a fixed palette.
type NoteCardColor string

const (
	ColorYellow NoteCardColor = "yellow"
	ColorBlue   NoteCardColor = "blue"
	ColorGreen  NoteCardColor = "green"
	ColorPink   NoteCardColor = "pink"
	ColorPurple NoteCardColor = "purple"
	ColorOrange NoteCardColor = "orange"
)

// NoteCardColors is the palette in picker order.
var NoteCardColors = []NoteCardColor{ColorYellow, ColorBlue, ColorGreen, ColorPink, ColorPurple, ColorOrange}

// Valid reports whether c is in the palette.
func (c NoteCardColor) Valid() bool {
	return slices.Contains(NoteCardColors, c)
}

// NoteCard is a freeform annotation linked to ideas, characters and
// chapters. Links are not exclusive. Slice order is display order.
type NoteCard struct {
	ID           string        `json:"id"`
	Title        string        `json:"title,omitempty"`
	Content      string        `json:"content"`
	Color        NoteCardColor `json:"color"`
	IdeaIDs      []string      `json:"idea_ids"`
	CharacterIDs []string      `json:"character_ids"`
	ChapterIDs   []string      `json:"chapter_ids"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// MoveNoteCard moves the card at fromID to the position of toID, shifting
// the cards in between. Returns false when either id is missing.
func MoveNoteCard(cards []NoteCard, fromID, toID string) ([]NoteCard, bool) {
	from := slices.IndexFunc(cards, func(c NoteCard) bool { return c.ID == fromID })
	to := slices.IndexFunc(cards, func(c NoteCard) bool { return c.ID == toID })
	if from < 0 || to < 0 {
		return cards, false
	}
	if from == to {
		return cards, true
	}

	moved := cards[from]
	out := slices.Delete(slices.Clone(cards), from, from+1)
	return slices.Insert(out, to, moved), true
}

// PruneNoteCardLinks removes references to a deleted item. The bool reports
// whether any card changed.
func PruneNoteCardLinks(cards []NoteCard, kind ContentKind, itemID string) bool {
	changed := false
	drop := func(ids []string) []string {
		out := slices.DeleteFunc(slices.Clone(ids), func(id string) bool { return id == itemID })
		if len(out) != len(ids) {
			changed = true
		}
		return out
	}
	for i := range cards {
		switch kind {
		case KindIdea:
			cards[i].IdeaIDs = drop(cards[i].IdeaIDs)
		case KindCharacter:
			cards[i].CharacterIDs = drop(cards[i].CharacterIDs)
		case KindChapter:
			cards[i].ChapterIDs = drop(cards[i].ChapterIDs)
		}
	}
	return changed
}

// FindNoteCard returns the index of the card with id, or -1.
func FindNoteCard(cards []NoteCard, id string) int {
	return slices.IndexFunc(cards, func(c NoteCard) bool { return c.ID == id })
}
