package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func book(id int, series string, number int) Work {
	return Work{ID: id, Scope: ScopeBook, Title: "Book", Book: &BookMetadata{SeriesName: series, SeriesNumber: number}}
}

func TestAvailableSeriesNumbers_ExcludesTaken(t *testing.T) {
	works := []Work{
		book(1, "Stormlight", 1),
		book(2, "stormlight ", 2),
		book(3, "Mistborn", 3),
		{ID: 4, Scope: ScopeBook, Title: "Standalone"},
	}

	got := AvailableSeriesNumbers(works, "Stormlight", 0)

	assert.Equal(t, []int{3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, got)
}

func TestAvailableSeriesNumbers_KeepsEditedWorkNumber(t *testing.T) {
	works := []Work{book(1, "Dune", 1), book(2, "Dune", 2)}

	got := AvailableSeriesNumbers(works, "Dune", 2)

	assert.Contains(t, got, 2)
	assert.NotContains(t, got, 1)
}

func TestAvailableSeriesNumbers_Exhausted(t *testing.T) {
	var works []Work
	for n := 1; n <= MaxSeriesNumber; n++ {
		works = append(works, book(n, "Long", n))
	}

	assert.Empty(t, AvailableSeriesNumbers(works, "Long", 0))
}

func TestNextWorkID(t *testing.T) {
	assert.Equal(t, 1, NextWorkID(nil))
	assert.Equal(t, 8, NextWorkID([]Work{{ID: 3}, {ID: 7}, {ID: 2}}))
}

func TestFindWork(t *testing.T) {
	works := []Work{{ID: 3}, {ID: 7}}
	assert.Equal(t, 1, FindWork(works, 7))
	assert.Equal(t, -1, FindWork(works, 4))
}
