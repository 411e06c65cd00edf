package richtext

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// chapterLine matches "Chapter 3", "CHAPTER 12: The Storm" and similar.
var chapterLine = regexp.MustCompile(`(?i)^chapter\s+(\d+|[ivxlc]+)\b`)

// SplitText splits Markdown or plain text into sections. "# " and "## "
// headings and "Chapter N" lines start a section; blank lines separate
// paragraphs and wrapped lines are joined.
func SplitText(text string) []Section {
	var (
		sections []Section
		para     []string
	)
	current := func() *Section {
		if len(sections) == 0 {
			sections = append(sections, Section{})
		}
		return &sections[len(sections)-1]
	}
	flush := func() {
		if len(para) == 0 {
			return
		}
		cur := current()
		cur.Paragraphs = append(cur.Paragraphs, strings.Join(para, " "))
		para = para[:0]
	}

	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "# ") || strings.HasPrefix(line, "## "):
			flush()
			sections = append(sections, Section{Title: strings.TrimSpace(strings.TrimLeft(line, "#"))})
		case chapterLine.MatchString(line):
			flush()
			sections = append(sections, Section{Title: line})
		default:
			para = append(para, line)
		}
	}
	flush()

	out := sections[:0]
	for _, s := range sections {
		if s.Title != "" || len(s.Paragraphs) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// TitleKey normalizes a title for collision checks: NFKC, case folded,
// whitespace collapsed.
func TitleKey(title string) string {
	return cases.Fold().String(norm.NFKC.String(collapse(title)))
}
