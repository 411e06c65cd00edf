package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlanTier(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		plan Plan
		want PlanType
	}{
		{"free", FreePlan(), PlanFree},
		{"paid active", Plan{Type: PlanPaid, Status: PlanActive}, PlanPaid},
		{"paid expired status", Plan{Type: PlanPaid, Status: PlanExpired}, PlanFree},
		{"paid past end date", Plan{Type: PlanPaid, Status: PlanActive, EndDate: &past}, PlanFree},
		{"paid future end date", Plan{Type: PlanPaid, Status: PlanActive, EndDate: &future}, PlanPaid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.plan.Tier(now))
		})
	}
}

func TestFreeLimits(t *testing.T) {
	l := LimitsFor(PlanFree)

	assert.Equal(t, 3, l.Works)
	assert.Equal(t, 3, l.MaxItems(KindIdea))
	assert.Equal(t, 3, l.MaxItems(KindCharacter))
	assert.Equal(t, 3, l.MaxItems(KindChapter))
	assert.Equal(t, 3, l.MaxItems(KindStory))
	assert.Equal(t, 1, l.MaxItems(KindOutline))
	for _, f := range []Feature{FeatureParts, FeatureNoteCards, FeatureContributors, FeaturePublisher, FeatureExport} {
		assert.False(t, l.Allows(f), f)
	}
}

func TestPaidLimits(t *testing.T) {
	l := LimitsFor(PlanPaid)

	assert.True(t, Within(l.Works, 1000))
	assert.True(t, l.Allows(FeatureExport))
}

func TestWithin(t *testing.T) {
	assert.True(t, Within(3, 2))
	assert.False(t, Within(3, 3))
	assert.False(t, Within(1, 1))
	assert.True(t, Within(Unlimited, 99))
}
