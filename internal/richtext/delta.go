// Package richtext reads and writes the editor's serialized documents
// (Quill-style deltas) and converts them to and from HTML, Markdown and
// plain text.
package richtext

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Op is one delta operation. Insert is either a JSON string (text) or an
// object (an embed such as an image).
type Op struct {
	Insert     json.RawMessage `json:"insert,omitempty"`
	Attributes map[string]any  `json:"attributes,omitempty"`
}

// Text returns the op's text insert. ok is false for embeds and non-insert ops.
func (o Op) Text() (string, bool) {
	if len(o.Insert) == 0 || o.Insert[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(o.Insert, &s); err != nil {
		return "", false
	}
	return s, true
}

// Delta is a document as a sequence of operations.
type Delta struct {
	Ops []Op `json:"ops"`
}

// Parse decodes a serialized document. Both {"ops":[...]} and a bare op
// array are accepted.
func Parse(doc string) (Delta, error) {
	raw := bytes.TrimSpace([]byte(doc))
	var d Delta
	if len(raw) > 0 && raw[0] == '[' {
		err := json.Unmarshal(raw, &d.Ops)
		return d, err
	}
	err := json.Unmarshal(raw, &d)
	return d, err
}

// CountWords counts whitespace-separated tokens across every text insert.
// Embeds count zero. Empty or malformed documents count zero.
func CountWords(doc string) int {
	if strings.TrimSpace(doc) == "" {
		return 0
	}
	d, err := Parse(doc)
	if err != nil {
		return 0
	}
	return d.CountWords()
}

// CountWords counts words in d.
func (d Delta) CountWords() int {
	total := 0
	for _, op := range d.Ops {
		if text, ok := op.Text(); ok {
			total += len(strings.Fields(text))
		}
	}
	return total
}

// Line is one editor line. Header is 1..6 for heading lines, 0 otherwise.
type Line struct {
	Text   string
	Header int
}

// Lines splits d into lines. Quill stores line formats on the op holding
// the terminating newline, so a line's header comes from that op.
func (d Delta) Lines() []Line {
	var (
		lines   []Line
		current strings.Builder
	)
	for _, op := range d.Ops {
		text, ok := op.Text()
		if !ok {
			continue
		}
		for {
			before, after, found := strings.Cut(text, "\n")
			current.WriteString(before)
			if !found {
				break
			}
			lines = append(lines, Line{Text: current.String(), Header: headerLevel(op.Attributes)})
			current.Reset()
			text = after
		}
	}
	if current.Len() > 0 {
		lines = append(lines, Line{Text: current.String()})
	}
	return lines
}

func headerLevel(attrs map[string]any) int {
	switch v := attrs["header"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// PlainText returns the document text with one line per editor line.
// Malformed documents yield "".
func PlainText(doc string) string {
	d, err := Parse(doc)
	if err != nil {
		return ""
	}
	lines := d.Lines()
	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.Text
	}
	return strings.TrimSpace(strings.Join(texts, "\n"))
}

// Paragraphs returns the non-blank lines of doc, trimmed.
func Paragraphs(doc string) []string {
	d, err := Parse(doc)
	if err != nil {
		return nil
	}
	var out []string
	for _, l := range d.Lines() {
		if t := strings.TrimSpace(l.Text); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// FromParagraphs builds a serialized document with one line per paragraph.
func FromParagraphs(paragraphs []string) string {
	d := Delta{Ops: make([]Op, 0, len(paragraphs))}
	for _, p := range paragraphs {
		insert, _ := json.Marshal(p + "\n")
		d.Ops = append(d.Ops, Op{Insert: insert})
	}
	if len(d.Ops) == 0 {
		insert, _ := json.Marshal("\n")
		d.Ops = append(d.Ops, Op{Insert: insert})
	}
	out, _ := json.Marshal(d)
	return string(out)
}
