package domain

import "time"

// PlanType is the entitlement tier.
type PlanType string

const (
	PlanFree PlanType = "free"
	PlanPaid PlanType = "paid"
)

// PlanStatus tracks whether a paid plan is still in force.
type PlanStatus string

const (
	PlanActive  PlanStatus = "active"
	PlanExpired PlanStatus = "expired"
)

// Feature is a capability reserved for paid plans.
type Feature string

const (
	FeatureParts        Feature = "parts"
	FeatureNoteCards    Feature = "notecards"
	FeatureContributors Feature = "contributors"
	FeaturePublisher    Feature = "publisher"
	FeatureExport       Feature = "export"
)

// Unlimited marks a limit with no cap.
const Unlimited = -1

// Plan is a user's entitlement record.
type Plan struct {
	Type      PlanType   `json:"type"`
	Status    PlanStatus `json:"status"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

// FreePlan is the plan of a user without a stored record.
func FreePlan() Plan {
	return Plan{Type: PlanFree, Status: PlanActive}
}

// Tier returns the tier in force at now. An expired paid plan, or one past
// its end date, counts as free.
func (p Plan) Tier(now time.Time) PlanType {
	if p.Type != PlanPaid || p.Status == PlanExpired {
		return PlanFree
	}
	if p.EndDate != nil && now.After(*p.EndDate) {
		return PlanFree
	}
	return PlanPaid
}

// Limits are the quantity caps and feature flags of a tier.
type Limits struct {
	Works      int // per scope
	Ideas      int // per work, as are the rest
	Characters int
	Chapters   int
	Stories    int
	Outlines   int
	Features   map[Feature]bool
}

var (
	freeLimits = Limits{
		Works:      3,
		Ideas:      3,
		Characters: 3,
		Chapters:   3,
		Stories:    3,
		Outlines:   1,
		Features:   map[Feature]bool{},
	}
	paidLimits = Limits{
		Works:      Unlimited,
		Ideas:      Unlimited,
		Characters: Unlimited,
		Chapters:   Unlimited,
		Stories:    Unlimited,
		Outlines:   Unlimited,
		Features: map[Feature]bool{
			FeatureParts:        true,
			FeatureNoteCards:    true,
			FeatureContributors: true,
			FeaturePublisher:    true,
			FeatureExport:       true,
		},
	}
)

// LimitsFor returns the limits of tier.
func LimitsFor(tier PlanType) Limits {
	if tier == PlanPaid {
		return paidLimits
	}
	return freeLimits
}

// MaxItems returns the per-work cap for kind.
func (l Limits) MaxItems(kind ContentKind) int {
	switch kind {
	case KindIdea:
		return l.Ideas
	case KindCharacter:
		return l.Characters
	case KindChapter:
		return l.Chapters
	case KindStory:
		return l.Stories
	case KindOutline:
		return l.Outlines
	default:
		return 0
	}
}

// Allows reports whether the tier includes f.
func (l Limits) Allows(f Feature) bool {
	return l.Features[f]
}

// Within reports whether one more item fits under limit when count exist.
func Within(limit, count int) bool {
	return limit == Unlimited || count < limit
}
