package domain

import "slices"

// Part groups chapters and stories of a work by reference. An item id
// belongs to at most one part.
type Part struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	ChapterIDs []string `json:"chapter_ids"`
	StoryIDs   []string `json:"story_ids"`
}

// IsEmpty reports whether the part references nothing.
func (p *Part) IsEmpty() bool {
	return len(p.ChapterIDs) == 0 && len(p.StoryIDs) == 0
}

// refs returns the reference slice for kind, or nil for kinds parts do not hold.
func (p *Part) refs(kind ContentKind) *[]string {
	switch kind {
	case KindChapter:
		return &p.ChapterIDs
	case KindStory:
		return &p.StoryIDs
	default:
		return nil
	}
}

// Contains reports whether the part references the item.
func (p *Part) Contains(kind ContentKind, itemID string) bool {
	ids := p.refs(kind)
	return ids != nil && slices.Contains(*ids, itemID)
}

// PartHolding returns the part that references the item, skipping exceptID.
func PartHolding(parts []Part, kind ContentKind, itemID, exceptID string) (*Part, bool) {
	for i := range parts {
		if parts[i].ID != exceptID && parts[i].Contains(kind, itemID) {
			return &parts[i], true
		}
	}
	return nil, false
}

// RemoveFromParts drops the item from every part and deletes parts left
// empty. The bool reports whether anything changed.
func RemoveFromParts(parts []Part, kind ContentKind, itemID string) ([]Part, bool) {
	changed := false
	out := parts[:0:0]
	for _, p := range parts {
		if ids := p.refs(kind); ids != nil {
			before := len(*ids)
			*ids = slices.DeleteFunc(slices.Clone(*ids), func(id string) bool { return id == itemID })
			if len(*ids) != before {
				changed = true
				if p.IsEmpty() {
					continue
				}
			}
		}
		out = append(out, p)
	}
	return out, changed
}

// FindPart returns the index of the part with id, or -1.
func FindPart(parts []Part, id string) int {
	return slices.IndexFunc(parts, func(p Part) bool { return p.ID == id })
}
