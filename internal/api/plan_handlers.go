package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/quillbook/quillbook-server/internal/domain"
	domainerrors "github.com/quillbook/quillbook-server/internal/errors"
)

func (s *Server) registerPlanRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getPlan",
		Method:      http.MethodGet,
		Path:        "/api/v1/plan",
		Summary:     "Get plan",
		Description: "Returns the signed-in user's plan and the limits in force",
		Tags:        []string{"Plans"},
		Security:    bearerSecurity,
	}, s.handleGetPlan)

	huma.Register(s.api, huma.Operation{
		OperationID: "setPlan",
		Method:      http.MethodPut,
		Path:        "/api/v1/admin/plans/{email}",
		Summary:     "Set plan",
		Description: "Sets a user's plan (admin only)",
		Tags:        []string{"Plans"},
		Security:    bearerSecurity,
	}, s.handleSetPlan)
}

// === DTOs ===

// LimitsResponse lists the caps of a tier. -1 means unlimited.
type LimitsResponse struct {
	Works      int      `json:"works" doc:"Works per scope"`
	Ideas      int      `json:"ideas" doc:"Ideas per work"`
	Characters int      `json:"characters" doc:"Characters per work"`
	Chapters   int      `json:"chapters" doc:"Chapters per work"`
	Stories    int      `json:"stories" doc:"Stories per work"`
	Outlines   int      `json:"outlines" doc:"Outlines per work"`
	Features   []string `json:"features" doc:"Paid features available"`
}

// PlanResponse describes a user's plan.
type PlanResponse struct {
	Plan   domain.Plan     `json:"plan" doc:"Stored plan record"`
	Tier   domain.PlanType `json:"tier" doc:"Tier in force now"`
	Limits LimitsResponse  `json:"limits" doc:"Limits of the tier in force"`
}

// PlanOutput wraps the plan response for Huma.
type PlanOutput struct {
	Body PlanResponse
}

// SetPlanRequest is the request body for setting a plan.
type SetPlanRequest struct {
	Type      string     `json:"type" enum:"free,paid" doc:"Plan type"`
	Status    string     `json:"status,omitempty" enum:"active,expired" doc:"Plan status (default active)"`
	StartDate *Timestamp `json:"start_date,omitempty" doc:"When the plan started"`
	EndDate   *Timestamp `json:"end_date,omitempty" doc:"When the plan ends"`
}

// SetPlanInput wraps the set plan request for Huma.
type SetPlanInput struct {
	Email string `path:"email" doc:"User email"`
	Body  SetPlanRequest
}

// === Handlers ===

func (s *Server) handleGetPlan(ctx context.Context, _ *struct{}) (*PlanOutput, error) {
	user, err := userKey(ctx)
	if err != nil {
		return nil, err
	}
	return &PlanOutput{Body: s.planResponse(ctx, user)}, nil
}

func (s *Server) handleSetPlan(ctx context.Context, input *SetPlanInput) (*PlanOutput, error) {
	if _, err := RequireAdmin(ctx); err != nil {
		return nil, err
	}

	email := domain.NormalizeEmail(input.Email)
	if !s.services.AllowList.IsAllowed(email) {
		return nil, domainerrors.NotFound("user not found")
	}

	plan := domain.Plan{
		Type:      domain.PlanType(input.Body.Type),
		Status:    domain.PlanStatus(input.Body.Status),
		StartDate: input.Body.StartDate.Ptr(),
		EndDate:   input.Body.EndDate.Ptr(),
	}
	if err := s.services.Plans.Set(ctx, email, plan); err != nil {
		return nil, err
	}
	return &PlanOutput{Body: s.planResponse(ctx, email)}, nil
}

func (s *Server) planResponse(ctx context.Context, user string) PlanResponse {
	limits := s.services.Plans.Limits(ctx, user)
	features := []string{}
	for _, f := range []domain.Feature{
		domain.FeatureParts,
		domain.FeatureNoteCards,
		domain.FeatureContributors,
		domain.FeaturePublisher,
		domain.FeatureExport,
	} {
		if limits.Allows(f) {
			features = append(features, string(f))
		}
	}

	return PlanResponse{
		Plan: s.services.Plans.Get(ctx, user),
		Tier: s.services.Plans.Tier(ctx, user),
		Limits: LimitsResponse{
			Works:      limits.Works,
			Ideas:      limits.Ideas,
			Characters: limits.Characters,
			Chapters:   limits.Chapters,
			Stories:    limits.Stories,
			Outlines:   limits.Outlines,
			Features:   features,
		},
	}
}
