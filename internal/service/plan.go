package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/quillbook/quillbook-server/internal/domain"
	domainerrors "github.com/quillbook/quillbook-server/internal/errors"
	"github.com/quillbook/quillbook-server/internal/store"
)

// PlanService reads and writes entitlement records and enforces the limits
// they imply. Limits are checked when something is created, never later.
type PlanService struct {
	kv     store.KV
	logger *slog.Logger
	now    func() time.Time
}

// NewPlanService creates a new plan service.
func NewPlanService(kv store.KV, logger *slog.Logger) *PlanService {
	return &PlanService{kv: kv, logger: logger, now: time.Now}
}

// Get returns the user's plan. Users without a readable record are on the
// free plan.
func (s *PlanService) Get(ctx context.Context, userKey string) domain.Plan {
	plan, ok, err := store.LoadValue[domain.Plan](ctx, s.kv, store.PlanKey(userKey))
	if err != nil {
		s.logger.Warn("unreadable plan, using free tier", "user", userKey, "error", err)
		return domain.FreePlan()
	}
	if !ok {
		return domain.FreePlan()
	}
	return plan
}

// Set stores a plan for the user.
func (s *PlanService) Set(ctx context.Context, userKey string, plan domain.Plan) error {
	switch plan.Type {
	case domain.PlanFree, domain.PlanPaid:
	default:
		return domainerrors.Validationf("unknown plan type %q", plan.Type)
	}
	switch plan.Status {
	case "":
		plan.Status = domain.PlanActive
	case domain.PlanActive, domain.PlanExpired:
	default:
		return domainerrors.Validationf("unknown plan status %q", plan.Status)
	}
	if plan.StartDate != nil && plan.EndDate != nil && plan.EndDate.Before(*plan.StartDate) {
		return domainerrors.Validation("plan end date is before its start date")
	}

	if err := store.SaveValue(ctx, s.kv, store.PlanKey(userKey), plan); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to save plan")
	}

	s.logger.Info("plan updated", "user", userKey, "type", plan.Type, "status", plan.Status)
	return nil
}

// Tier returns the tier in force for the user right now.
func (s *PlanService) Tier(ctx context.Context, userKey string) domain.PlanType {
	return s.Get(ctx, userKey).Tier(s.now())
}

// Limits returns the limits in force for the user right now.
func (s *PlanService) Limits(ctx context.Context, userKey string) domain.Limits {
	return domain.LimitsFor(s.Tier(ctx, userKey))
}

// RequireFeature fails with UPGRADE_REQUIRED unless the user's tier includes f.
func (s *PlanService) RequireFeature(ctx context.Context, userKey string, f domain.Feature) error {
	if s.Limits(ctx, userKey).Allows(f) {
		return nil
	}
	return domainerrors.UpgradeRequiredf("%s require a paid plan", f)
}

// CheckWorkQuota fails with UPGRADE_REQUIRED when one more work would exceed
// the per-scope limit.
func (s *PlanService) CheckWorkQuota(ctx context.Context, userKey string, existing int) error {
	limit := s.Limits(ctx, userKey).Works
	if domain.Within(limit, existing) {
		return nil
	}
	return domainerrors.UpgradeRequiredf("your plan allows %d works", limit)
}

// CheckItemQuota fails with UPGRADE_REQUIRED when adding more items of kind
// to a work holding existing ones would exceed the per-work limit.
func (s *PlanService) CheckItemQuota(ctx context.Context, userKey string, kind domain.ContentKind, existing, adding int) error {
	limit := s.Limits(ctx, userKey).MaxItems(kind)
	if adding <= 0 || domain.Within(limit, existing+adding-1) {
		return nil
	}
	return domainerrors.UpgradeRequiredf("your plan allows %d %ss per work", limit, kind)
}
