package jobs

import (
	"context"
	"fmt"

	"github.com/riskdocs/riskdocs/internal/tenant"
	"github.com/riskdocs/riskdocs/pkg/models"
)

// Runner executes job requests against tenant data. It resolves the
// tenant's stores per job through the service factory, calls the
// extractor, and merges the drafts back with upserts so a re-run of the
// same job cannot duplicate rows.
type Runner struct {
	factory   tenant.ServiceFactory
	extractor models.Extractor
}

// NewRunner creates a Runner.
func NewRunner(factory tenant.ServiceFactory, extractor models.Extractor) *Runner {
	return &Runner{factory: factory, extractor: extractor}
}

// Handle dispatches one request to its handler. The request set is
// sealed, so an unknown type here is a programming error.
func (r *Runner) Handle(ctx context.Context, req Request) (any, error) {
	svc, err := r.factory.Services(req.connString())
	if err != nil {
		return nil, fmt.Errorf("resolving tenant services: %w", err)
	}

	switch q := req.(type) {
	case StepExtractionRequest:
		return r.extractSteps(ctx, svc, q)
	case HazardExtractionRequest:
		return r.extractHazards(ctx, svc, q)
	case ControlSuggestionRequest:
		return r.suggestControls(ctx, svc, q)
	case ActionSuggestionRequest:
		return r.suggestActions(ctx, svc, q)
	case JHARowExtractionRequest:
		return r.extractJHARows(ctx, svc, q)
	case WitnessExtractionRequest:
		return r.extractWitnessFacts(ctx, svc, q)
	case NarrativeExtractionRequest:
		return r.composeNarrative(ctx, svc, q)
	case TimelineMergeRequest:
		return r.mergeTimeline(ctx, svc, q)
	case ConsistencyCheckRequest:
		return r.checkConsistency(ctx, svc, q)
	case CauseCoachingRequest:
		return r.coachCauses(ctx, svc, q)
	case RootCauseCoachingRequest:
		return r.coachRootCause(ctx, svc, q)
	case CorrectiveActionCoachingRequest:
		return r.coachActions(ctx, svc, q)
	default:
		return nil, fmt.Errorf("unhandled job type %q", req.Type())
	}
}

func (r *Runner) extractSteps(ctx context.Context, svc tenant.Services, req StepExtractionRequest) (any, error) {
	a, err := svc.RiskAssessments.GetAssessment(ctx, req.AssessmentID)
	if err != nil {
		return nil, fmt.Errorf("loading assessment: %w", err)
	}

	drafts, err := r.extractor.ExtractSteps(ctx, a.Activity)
	if err != nil {
		return nil, fmt.Errorf("extracting steps: %w", err)
	}

	created, err := svc.RiskAssessments.UpsertSteps(ctx, a.ID, drafts)
	if err != nil {
		return nil, fmt.Errorf("storing steps: %w", err)
	}
	return CountResult{Extracted: len(drafts), Created: created}, nil
}

func (r *Runner) extractHazards(ctx context.Context, svc tenant.Services, req HazardExtractionRequest) (any, error) {
	steps, err := svc.RiskAssessments.ListSteps(ctx, req.AssessmentID)
	if err != nil {
		return nil, fmt.Errorf("loading steps: %w", err)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("assessment has no steps to analyze")
	}

	input := make([]models.Step, len(steps))
	for i, s := range steps {
		input[i] = *s
	}

	drafts, err := r.extractor.ExtractHazards(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("extracting hazards: %w", err)
	}

	created, err := svc.RiskAssessments.UpsertHazards(ctx, req.AssessmentID, drafts)
	if err != nil {
		return nil, fmt.Errorf("storing hazards: %w", err)
	}
	return CountResult{Extracted: len(drafts), Created: created}, nil
}

func (r *Runner) suggestControls(ctx context.Context, svc tenant.Services, req ControlSuggestionRequest) (any, error) {
	hazards, err := svc.RiskAssessments.ListHazardContexts(ctx, req.AssessmentID)
	if err != nil {
		return nil, fmt.Errorf("loading hazards: %w", err)
	}
	if len(hazards) == 0 {
		return nil, fmt.Errorf("assessment has no hazards to mitigate")
	}

	drafts, err := r.extractor.SuggestControls(ctx, hazards)
	if err != nil {
		return nil, fmt.Errorf("suggesting controls: %w", err)
	}

	created, err := svc.RiskAssessments.UpsertControls(ctx, drafts)
	if err != nil {
		return nil, fmt.Errorf("storing controls: %w", err)
	}
	return CountResult{Extracted: len(drafts), Created: created}, nil
}

func (r *Runner) suggestActions(ctx context.Context, svc tenant.Services, req ActionSuggestionRequest) (any, error) {
	hazards, err := svc.RiskAssessments.ListHazardContexts(ctx, req.AssessmentID)
	if err != nil {
		return nil, fmt.Errorf("loading hazards: %w", err)
	}
	if len(hazards) == 0 {
		return nil, fmt.Errorf("assessment has no hazards to act on")
	}

	drafts, err := r.extractor.SuggestActions(ctx, hazards)
	if err != nil {
		return nil, fmt.Errorf("suggesting actions: %w", err)
	}

	created, err := svc.RiskAssessments.UpsertActions(ctx, drafts)
	if err != nil {
		return nil, fmt.Errorf("storing actions: %w", err)
	}
	return CountResult{Extracted: len(drafts), Created: created}, nil
}

func (r *Runner) extractJHARows(ctx context.Context, svc tenant.Services, req JHARowExtractionRequest) (any, error) {
	doc, err := svc.JHAs.GetDocument(ctx, req.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("loading jha document: %w", err)
	}

	drafts, err := r.extractor.ExtractJHARows(ctx, doc.TaskDescription)
	if err != nil {
		return nil, fmt.Errorf("extracting jha rows: %w", err)
	}

	created, err := svc.JHAs.UpsertRows(ctx, doc.ID, drafts)
	if err != nil {
		return nil, fmt.Errorf("storing jha rows: %w", err)
	}
	return CountResult{Extracted: len(drafts), Created: created}, nil
}

func (r *Runner) extractWitnessFacts(ctx context.Context, svc tenant.Services, req WitnessExtractionRequest) (any, error) {
	st, err := svc.Incidents.GetWitnessStatement(ctx, req.StatementID)
	if err != nil {
		return nil, fmt.Errorf("loading witness statement: %w", err)
	}

	drafts, err := r.extractor.ExtractWitnessFacts(ctx, *st)
	if err != nil {
		return nil, fmt.Errorf("extracting witness facts: %w", err)
	}

	created, err := svc.Incidents.UpsertFacts(ctx, req.IncidentID, &st.ID, drafts)
	if err != nil {
		return nil, fmt.Errorf("storing facts: %w", err)
	}
	return CountResult{Extracted: len(drafts), Created: created}, nil
}

func (r *Runner) composeNarrative(ctx context.Context, svc tenant.Services, req NarrativeExtractionRequest) (any, error) {
	inc, err := svc.Incidents.GetIncident(ctx, req.IncidentID)
	if err != nil {
		return nil, fmt.Errorf("loading incident: %w", err)
	}
	statements, err := svc.Incidents.ListWitnessStatements(ctx, req.IncidentID)
	if err != nil {
		return nil, fmt.Errorf("loading statements: %w", err)
	}
	facts, err := svc.Incidents.ListFacts(ctx, req.IncidentID)
	if err != nil {
		return nil, fmt.Errorf("loading facts: %w", err)
	}

	nreq := models.NarrativeRequest{Incident: *inc}
	for _, s := range statements {
		nreq.Statements = append(nreq.Statements, *s)
	}
	for _, f := range facts {
		nreq.Facts = append(nreq.Facts, *f)
	}

	narrative, err := r.extractor.ComposeNarrative(ctx, nreq)
	if err != nil {
		return nil, fmt.Errorf("composing narrative: %w", err)
	}

	if err := svc.Incidents.SetNarrative(ctx, inc.ID, narrative); err != nil {
		return nil, fmt.Errorf("storing narrative: %w", err)
	}
	return NarrativeResult{NarrativeLength: len(narrative)}, nil
}

func (r *Runner) mergeTimeline(ctx context.Context, svc tenant.Services, req TimelineMergeRequest) (any, error) {
	facts, err := svc.Incidents.ListFacts(ctx, req.IncidentID)
	if err != nil {
		return nil, fmt.Errorf("loading facts: %w", err)
	}
	if len(facts) == 0 {
		return nil, fmt.Errorf("incident has no extracted facts to merge")
	}

	input := make([]models.ExtractedFact, len(facts))
	for i, f := range facts {
		input[i] = *f
	}

	drafts, err := r.extractor.MergeTimeline(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("merging timeline: %w", err)
	}

	created, err := svc.Incidents.UpsertTimeline(ctx, req.IncidentID, drafts)
	if err != nil {
		return nil, fmt.Errorf("storing timeline: %w", err)
	}
	return CountResult{Extracted: len(drafts), Created: created}, nil
}

func (r *Runner) checkConsistency(ctx context.Context, svc tenant.Services, req ConsistencyCheckRequest) (any, error) {
	statements, err := svc.Incidents.ListWitnessStatements(ctx, req.IncidentID)
	if err != nil {
		return nil, fmt.Errorf("loading statements: %w", err)
	}
	if len(statements) < 2 {
		return nil, fmt.Errorf("consistency check needs at least two statements, got %d", len(statements))
	}

	input := make([]models.WitnessStatement, len(statements))
	for i, s := range statements {
		input[i] = *s
	}

	drafts, err := r.extractor.CheckConsistency(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("checking consistency: %w", err)
	}

	created, err := svc.Incidents.UpsertFindings(ctx, req.IncidentID, drafts)
	if err != nil {
		return nil, fmt.Errorf("storing findings: %w", err)
	}
	return CountResult{Extracted: len(drafts), Created: created}, nil
}

func (r *Runner) coachCauses(ctx context.Context, svc tenant.Services, req CauseCoachingRequest) (any, error) {
	inc, err := svc.Incidents.GetIncident(ctx, req.IncidentID)
	if err != nil {
		return nil, fmt.Errorf("loading incident: %w", err)
	}
	if inc.Narrative == "" {
		return nil, fmt.Errorf("incident has no narrative; compose one first")
	}
	timeline, err := svc.Incidents.ListTimeline(ctx, req.IncidentID)
	if err != nil {
		return nil, fmt.Errorf("loading timeline: %w", err)
	}

	creq := models.CoachingRequest{Narrative: inc.Narrative}
	for _, t := range timeline {
		creq.Timeline = append(creq.Timeline, *t)
	}

	drafts, err := r.extractor.CoachCauses(ctx, creq)
	if err != nil {
		return nil, fmt.Errorf("coaching causes: %w", err)
	}

	created, err := svc.Incidents.UpsertCauses(ctx, req.IncidentID, models.CauseKindContributing, drafts)
	if err != nil {
		return nil, fmt.Errorf("storing causes: %w", err)
	}
	return CountResult{Extracted: len(drafts), Created: created}, nil
}

func (r *Runner) coachRootCause(ctx context.Context, svc tenant.Services, req RootCauseCoachingRequest) (any, error) {
	causes, err := svc.Incidents.ListCauses(ctx, req.IncidentID, models.CauseKindContributing)
	if err != nil {
		return nil, fmt.Errorf("loading causes: %w", err)
	}
	if len(causes) == 0 {
		return nil, fmt.Errorf("incident has no contributing causes; coach causes first")
	}

	input := make([]models.Cause, len(causes))
	for i, c := range causes {
		input[i] = *c
	}

	draft, err := r.extractor.CoachRootCause(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("coaching root cause: %w", err)
	}

	created, err := svc.Incidents.UpsertCauses(ctx, req.IncidentID, models.CauseKindRoot, []models.CauseDraft{draft})
	if err != nil {
		return nil, fmt.Errorf("storing root cause: %w", err)
	}
	return CountResult{Extracted: 1, Created: created}, nil
}

func (r *Runner) coachActions(ctx context.Context, svc tenant.Services, req CorrectiveActionCoachingRequest) (any, error) {
	contributing, err := svc.Incidents.ListCauses(ctx, req.IncidentID, models.CauseKindContributing)
	if err != nil {
		return nil, fmt.Errorf("loading causes: %w", err)
	}
	root, err := svc.Incidents.ListCauses(ctx, req.IncidentID, models.CauseKindRoot)
	if err != nil {
		return nil, fmt.Errorf("loading root cause: %w", err)
	}
	if len(contributing) == 0 && len(root) == 0 {
		return nil, fmt.Errorf("incident has no causes; coach causes first")
	}

	var input []models.Cause
	for _, c := range root {
		input = append(input, *c)
	}
	for _, c := range contributing {
		input = append(input, *c)
	}

	drafts, err := r.extractor.CoachActions(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("coaching actions: %w", err)
	}

	created, err := svc.Incidents.UpsertCorrectiveActions(ctx, req.IncidentID, drafts)
	if err != nil {
		return nil, fmt.Errorf("storing corrective actions: %w", err)
	}
	return CountResult{Extracted: len(drafts), Created: created}, nil
}

var _ Handler = (*Runner)(nil)
