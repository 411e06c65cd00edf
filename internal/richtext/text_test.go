package richtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitText_Markdown(t *testing.T) {
	text := "Preface line.\n\n# The Beginning\nWrapped\nline.\n\nNext paragraph.\n## The Middle\nMore.\n"

	sections := SplitText(text)

	require.Len(t, sections, 3)
	assert.Equal(t, Section{Paragraphs: []string{"Preface line."}}, sections[0])
	assert.Equal(t, Section{Title: "The Beginning", Paragraphs: []string{"Wrapped line.", "Next paragraph."}}, sections[1])
	assert.Equal(t, Section{Title: "The Middle", Paragraphs: []string{"More."}}, sections[2])
}

func TestSplitText_ChapterLines(t *testing.T) {
	text := "CHAPTER 1\r\nHello world.\r\n\r\nChapter IV: Return\r\nBack again."

	sections := SplitText(text)

	require.Len(t, sections, 2)
	assert.Equal(t, "CHAPTER 1", sections[0].Title)
	assert.Equal(t, []string{"Hello world."}, sections[0].Paragraphs)
	assert.Equal(t, "Chapter IV: Return", sections[1].Title)
}

func TestSplitText_Empty(t *testing.T) {
	assert.Empty(t, SplitText("\n\n  \n"))
}

func TestTitleKey(t *testing.T) {
	assert.Equal(t, TitleKey("Chapter  One"), TitleKey(" chapter one "))
	assert.Equal(t, TitleKey("Ｃｈａｐｔｅｒ"), TitleKey("chapter"))
	assert.NotEqual(t, TitleKey("Chapter 1"), TitleKey("Chapter 2"))
}
