// Package mock provides a func-field extractor for tests.
package mock

import (
	"context"
	"time"

	"github.com/riskdocs/riskdocs/pkg/models"
)

// MockExtractor satisfies models.Extractor for testing. Any nil func
// field falls through to a zero-value response.
type MockExtractor struct {
	Name_ string

	ExtractStepsFunc        func(ctx context.Context, activity string) ([]models.StepDraft, error)
	ExtractHazardsFunc      func(ctx context.Context, steps []models.Step) ([]models.HazardDraft, error)
	SuggestControlsFunc     func(ctx context.Context, hazards []models.HazardContext) ([]models.ControlDraft, error)
	SuggestActionsFunc      func(ctx context.Context, hazards []models.HazardContext) ([]models.ActionDraft, error)
	ExtractJHARowsFunc      func(ctx context.Context, task string) ([]models.JHARowDraft, error)
	ExtractWitnessFactsFunc func(ctx context.Context, statement models.WitnessStatement) ([]models.FactDraft, error)
	ComposeNarrativeFunc    func(ctx context.Context, req models.NarrativeRequest) (string, error)
	MergeTimelineFunc       func(ctx context.Context, facts []models.ExtractedFact) ([]models.TimelineDraft, error)
	CheckConsistencyFunc    func(ctx context.Context, statements []models.WitnessStatement) ([]models.FindingDraft, error)
	CoachCausesFunc         func(ctx context.Context, req models.CoachingRequest) ([]models.CauseDraft, error)
	CoachRootCauseFunc      func(ctx context.Context, causes []models.Cause) (models.CauseDraft, error)
	CoachActionsFunc        func(ctx context.Context, causes []models.Cause) ([]models.ActionDraft, error)
}

func (m *MockExtractor) Name() string { return m.Name_ }

func (m *MockExtractor) ExtractSteps(ctx context.Context, activity string) ([]models.StepDraft, error) {
	if m.ExtractStepsFunc != nil {
		return m.ExtractStepsFunc(ctx, activity)
	}
	return nil, nil
}

func (m *MockExtractor) ExtractHazards(ctx context.Context, steps []models.Step) ([]models.HazardDraft, error) {
	if m.ExtractHazardsFunc != nil {
		return m.ExtractHazardsFunc(ctx, steps)
	}
	return nil, nil
}

func (m *MockExtractor) SuggestControls(ctx context.Context, hazards []models.HazardContext) ([]models.ControlDraft, error) {
	if m.SuggestControlsFunc != nil {
		return m.SuggestControlsFunc(ctx, hazards)
	}
	return nil, nil
}

func (m *MockExtractor) SuggestActions(ctx context.Context, hazards []models.HazardContext) ([]models.ActionDraft, error) {
	if m.SuggestActionsFunc != nil {
		return m.SuggestActionsFunc(ctx, hazards)
	}
	return nil, nil
}

func (m *MockExtractor) ExtractJHARows(ctx context.Context, task string) ([]models.JHARowDraft, error) {
	if m.ExtractJHARowsFunc != nil {
		return m.ExtractJHARowsFunc(ctx, task)
	}
	return nil, nil
}

func (m *MockExtractor) ExtractWitnessFacts(ctx context.Context, statement models.WitnessStatement) ([]models.FactDraft, error) {
	if m.ExtractWitnessFactsFunc != nil {
		return m.ExtractWitnessFactsFunc(ctx, statement)
	}
	return nil, nil
}

func (m *MockExtractor) ComposeNarrative(ctx context.Context, req models.NarrativeRequest) (string, error) {
	if m.ComposeNarrativeFunc != nil {
		return m.ComposeNarrativeFunc(ctx, req)
	}
	return "", nil
}

func (m *MockExtractor) MergeTimeline(ctx context.Context, facts []models.ExtractedFact) ([]models.TimelineDraft, error) {
	if m.MergeTimelineFunc != nil {
		return m.MergeTimelineFunc(ctx, facts)
	}
	return nil, nil
}

func (m *MockExtractor) CheckConsistency(ctx context.Context, statements []models.WitnessStatement) ([]models.FindingDraft, error) {
	if m.CheckConsistencyFunc != nil {
		return m.CheckConsistencyFunc(ctx, statements)
	}
	return nil, nil
}

func (m *MockExtractor) CoachCauses(ctx context.Context, req models.CoachingRequest) ([]models.CauseDraft, error) {
	if m.CoachCausesFunc != nil {
		return m.CoachCausesFunc(ctx, req)
	}
	return nil, nil
}

func (m *MockExtractor) CoachRootCause(ctx context.Context, causes []models.Cause) (models.CauseDraft, error) {
	if m.CoachRootCauseFunc != nil {
		return m.CoachRootCauseFunc(ctx, causes)
	}
	return models.CauseDraft{}, nil
}

func (m *MockExtractor) CoachActions(ctx context.Context, causes []models.Cause) ([]models.ActionDraft, error) {
	if m.CoachActionsFunc != nil {
		return m.CoachActionsFunc(ctx, causes)
	}
	return nil, nil
}

// NewMockExtractor returns a MockExtractor with sensible default
// responses for every operation.
func NewMockExtractor() *MockExtractor {
	return &MockExtractor{
		Name_: "mock",
		ExtractStepsFunc: func(_ context.Context, _ string) ([]models.StepDraft, error) {
			return []models.StepDraft{
				{Position: 1, Description: "Prepare the work area"},
				{Position: 2, Description: "Perform the task"},
				{Position: 3, Description: "Clean up and inspect"},
			}, nil
		},
		ExtractHazardsFunc: func(_ context.Context, steps []models.Step) ([]models.HazardDraft, error) {
			var drafts []models.HazardDraft
			for _, s := range steps {
				drafts = append(drafts, models.HazardDraft{
					StepPosition: s.Position,
					Description:  "Simulated hazard for " + s.Description,
					Severity:     3,
					Likelihood:   2,
				})
			}
			return drafts, nil
		},
		SuggestControlsFunc: func(_ context.Context, hazards []models.HazardContext) ([]models.ControlDraft, error) {
			var drafts []models.ControlDraft
			for _, hc := range hazards {
				drafts = append(drafts, models.ControlDraft{
					HazardID:    hc.Hazard.ID,
					Description: "Simulated control for " + hc.Hazard.Description,
					Type:        models.ControlTypeAdministrative,
				})
			}
			return drafts, nil
		},
		SuggestActionsFunc: func(_ context.Context, hazards []models.HazardContext) ([]models.ActionDraft, error) {
			var drafts []models.ActionDraft
			for _, hc := range hazards {
				drafts = append(drafts, models.ActionDraft{
					HazardID:    hc.Hazard.ID,
					Description: "Simulated action for " + hc.Hazard.Description,
					Priority:    "medium",
				})
			}
			return drafts, nil
		},
		ExtractJHARowsFunc: func(_ context.Context, _ string) ([]models.JHARowDraft, error) {
			return []models.JHARowDraft{
				{
					Position: 1,
					TaskStep: "Simulated task step",
					Hazards:  []string{"Simulated hazard"},
					Controls: []string{"Simulated control"},
				},
			}, nil
		},
		ExtractWitnessFactsFunc: func(_ context.Context, st models.WitnessStatement) ([]models.FactDraft, error) {
			return []models.FactDraft{
				{Fact: "Simulated fact from " + st.WitnessName},
			}, nil
		},
		ComposeNarrativeFunc: func(_ context.Context, _ models.NarrativeRequest) (string, error) {
			return "Simulated incident narrative for testing", nil
		},
		MergeTimelineFunc: func(_ context.Context, facts []models.ExtractedFact) ([]models.TimelineDraft, error) {
			now := time.Now().UTC()
			var drafts []models.TimelineDraft
			for _, f := range facts {
				ts := now
				drafts = append(drafts, models.TimelineDraft{
					OccurredAt:  &ts,
					Description: f.Fact,
					Source:      "statement",
				})
			}
			return drafts, nil
		},
		CheckConsistencyFunc: func(_ context.Context, _ []models.WitnessStatement) ([]models.FindingDraft, error) {
			return []models.FindingDraft{
				{Detail: "Simulated contradiction between statements", Severity: "medium"},
			}, nil
		},
		CoachCausesFunc: func(_ context.Context, _ models.CoachingRequest) ([]models.CauseDraft, error) {
			return []models.CauseDraft{
				{Description: "Simulated contributing cause", Rationale: "Supported by simulated timeline"},
			}, nil
		},
		CoachRootCauseFunc: func(_ context.Context, _ []models.Cause) (models.CauseDraft, error) {
			return models.CauseDraft{
				Description: "Simulated root cause",
				Rationale:   "Most upstream of the contributing causes",
			}, nil
		},
		CoachActionsFunc: func(_ context.Context, _ []models.Cause) ([]models.ActionDraft, error) {
			return []models.ActionDraft{
				{Description: "Simulated corrective action", Priority: "high"},
			}, nil
		},
	}
}

// NewFailingExtractor returns a MockExtractor whose every operation
// returns the given error.
func NewFailingExtractor(err error) *MockExtractor {
	return &MockExtractor{
		Name_: "mock-failing",
		ExtractStepsFunc: func(_ context.Context, _ string) ([]models.StepDraft, error) {
			return nil, err
		},
		ExtractHazardsFunc: func(_ context.Context, _ []models.Step) ([]models.HazardDraft, error) {
			return nil, err
		},
		SuggestControlsFunc: func(_ context.Context, _ []models.HazardContext) ([]models.ControlDraft, error) {
			return nil, err
		},
		SuggestActionsFunc: func(_ context.Context, _ []models.HazardContext) ([]models.ActionDraft, error) {
			return nil, err
		},
		ExtractJHARowsFunc: func(_ context.Context, _ string) ([]models.JHARowDraft, error) {
			return nil, err
		},
		ExtractWitnessFactsFunc: func(_ context.Context, _ models.WitnessStatement) ([]models.FactDraft, error) {
			return nil, err
		},
		ComposeNarrativeFunc: func(_ context.Context, _ models.NarrativeRequest) (string, error) {
			return "", err
		},
		MergeTimelineFunc: func(_ context.Context, _ []models.ExtractedFact) ([]models.TimelineDraft, error) {
			return nil, err
		},
		CheckConsistencyFunc: func(_ context.Context, _ []models.WitnessStatement) ([]models.FindingDraft, error) {
			return nil, err
		},
		CoachCausesFunc: func(_ context.Context, _ models.CoachingRequest) ([]models.CauseDraft, error) {
			return nil, err
		},
		CoachRootCauseFunc: func(_ context.Context, _ []models.Cause) (models.CauseDraft, error) {
			return models.CauseDraft{}, err
		},
		CoachActionsFunc: func(_ context.Context, _ []models.Cause) ([]models.ActionDraft, error) {
			return nil, err
		},
	}
}

// NewBlockingExtractor returns a MockExtractor whose step extraction
// blocks until its context is cancelled, for exercising handler timeouts.
func NewBlockingExtractor() *MockExtractor {
	m := NewMockExtractor()
	m.Name_ = "mock-blocking"
	m.ExtractStepsFunc = func(ctx context.Context, _ string) ([]models.StepDraft, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m
}

// Compile-time check that MockExtractor implements Extractor.
var _ models.Extractor = (*MockExtractor)(nil)
