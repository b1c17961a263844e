// Package extract turns unstructured safety text into structured drafts
// via an LLM backend. Vendor packages speak the wire protocols; Service
// owns the prompts and the strict-JSON contract on the way back.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/riskdocs/riskdocs/pkg/models"
)

const systemPrompt = "You are an occupational safety documentation assistant. " +
	"Respond with JSON only: no prose, no markdown fences, no commentary."

// Service implements models.Extractor on top of a Completer. One Service
// is shared by all tenants; tenant data flows through per-call arguments
// only.
type Service struct {
	completer Completer
	timeout   time.Duration
}

// NewService creates a Service. timeout bounds each inference call.
func NewService(completer Completer, timeout time.Duration) *Service {
	return &Service{completer: completer, timeout: timeout}
}

func (s *Service) Name() string { return s.completer.Name() }

func (s *Service) ExtractSteps(ctx context.Context, activity string) ([]models.StepDraft, error) {
	prompt := fmt.Sprintf(
		"Break the following work activity into sequential steps. "+
			"Return a JSON array of objects with fields \"position\" (int, starting at 1) "+
			"and \"description\" (string).\n\nActivity:\n%s", activity)
	return completeList[models.StepDraft](ctx, s, prompt)
}

func (s *Service) ExtractHazards(ctx context.Context, steps []models.Step) ([]models.HazardDraft, error) {
	input, err := json.Marshal(steps)
	if err != nil {
		return nil, fmt.Errorf("encoding steps: %w", err)
	}
	prompt := fmt.Sprintf(
		"Identify hazards for each work step below. "+
			"Return a JSON array of objects with fields \"step_position\" (int), "+
			"\"description\" (string), \"severity\" (1-5) and \"likelihood\" (1-5).\n\nSteps:\n%s", input)
	return completeList[models.HazardDraft](ctx, s, prompt)
}

func (s *Service) SuggestControls(ctx context.Context, hazards []models.HazardContext) ([]models.ControlDraft, error) {
	input, err := json.Marshal(hazards)
	if err != nil {
		return nil, fmt.Errorf("encoding hazards: %w", err)
	}
	prompt := fmt.Sprintf(
		"Suggest control measures for each hazard below, echoing the hazard's id. "+
			"Return a JSON array of objects with fields \"hazard_id\" (uuid), \"description\" (string) "+
			"and \"type\" (one of elimination, substitution, engineering, administrative, ppe).\n\nHazards:\n%s", input)
	return completeList[models.ControlDraft](ctx, s, prompt)
}

func (s *Service) SuggestActions(ctx context.Context, hazards []models.HazardContext) ([]models.ActionDraft, error) {
	input, err := json.Marshal(hazards)
	if err != nil {
		return nil, fmt.Errorf("encoding hazards: %w", err)
	}
	prompt := fmt.Sprintf(
		"Suggest follow-up action items for the hazards below, echoing each hazard's id. "+
			"Return a JSON array of objects with fields \"hazard_id\" (uuid), \"description\" (string) "+
			"and \"priority\" (one of low, medium, high).\n\nHazards:\n%s", input)
	return completeList[models.ActionDraft](ctx, s, prompt)
}

func (s *Service) ExtractJHARows(ctx context.Context, task string) ([]models.JHARowDraft, error) {
	prompt := fmt.Sprintf(
		"Build a job hazard analysis table for the task below. "+
			"Return a JSON array of objects with fields \"position\" (int, starting at 1), "+
			"\"task_step\" (string), \"hazards\" (array of strings) and \"controls\" (array of strings).\n\nTask:\n%s", task)
	return completeList[models.JHARowDraft](ctx, s, prompt)
}

func (s *Service) ExtractWitnessFacts(ctx context.Context, statement models.WitnessStatement) ([]models.FactDraft, error) {
	prompt := fmt.Sprintf(
		"Extract discrete factual claims from the witness statement below. One fact per entry, "+
			"no interpretation. Return a JSON array of objects with field \"fact\" (string).\n\n"+
			"Witness %s said:\n%s", statement.WitnessName, statement.Statement)
	return completeList[models.FactDraft](ctx, s, prompt)
}

func (s *Service) ComposeNarrative(ctx context.Context, req models.NarrativeRequest) (string, error) {
	input, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encoding narrative request: %w", err)
	}
	prompt := fmt.Sprintf(
		"Compose a neutral chronological incident narrative from the material below. "+
			"Return a JSON object with field \"narrative\" (string).\n\nMaterial:\n%s", input)

	raw, err := s.complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	var out struct {
		Narrative string `json:"narrative"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if out.Narrative == "" {
		return "", fmt.Errorf("%w: empty narrative", ErrInvalidResponse)
	}
	return out.Narrative, nil
}

func (s *Service) MergeTimeline(ctx context.Context, facts []models.ExtractedFact) ([]models.TimelineDraft, error) {
	input, err := json.Marshal(facts)
	if err != nil {
		return nil, fmt.Errorf("encoding facts: %w", err)
	}
	prompt := fmt.Sprintf(
		"Merge the extracted facts below into a single ordered timeline, de-duplicating "+
			"events reported by multiple witnesses. Return a JSON array of objects with fields "+
			"\"occurred_at\" (RFC 3339 timestamp or null if unknown), \"description\" (string) "+
			"and \"source\" (string naming the witness or report the entry came from).\n\nFacts:\n%s", input)
	return completeList[models.TimelineDraft](ctx, s, prompt)
}

func (s *Service) CheckConsistency(ctx context.Context, statements []models.WitnessStatement) ([]models.FindingDraft, error) {
	input, err := json.Marshal(statements)
	if err != nil {
		return nil, fmt.Errorf("encoding statements: %w", err)
	}
	prompt := fmt.Sprintf(
		"Compare the witness statements below and report contradictions, gaps and "+
			"corroborations. Return a JSON array of objects with fields \"detail\" (string) "+
			"and \"severity\" (one of low, medium, high).\n\nStatements:\n%s", input)
	return completeList[models.FindingDraft](ctx, s, prompt)
}

func (s *Service) CoachCauses(ctx context.Context, req models.CoachingRequest) ([]models.CauseDraft, error) {
	input, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding coaching request: %w", err)
	}
	prompt := fmt.Sprintf(
		"Propose contributing causes for the incident below, each with its supporting "+
			"evidence. Return a JSON array of objects with fields \"description\" (string) "+
			"and \"rationale\" (string).\n\nIncident:\n%s", input)
	return completeList[models.CauseDraft](ctx, s, prompt)
}

func (s *Service) CoachRootCause(ctx context.Context, causes []models.Cause) (models.CauseDraft, error) {
	input, err := json.Marshal(causes)
	if err != nil {
		return models.CauseDraft{}, fmt.Errorf("encoding causes: %w", err)
	}
	prompt := fmt.Sprintf(
		"From the contributing causes below, identify the single most likely root cause. "+
			"Return a JSON object with fields \"description\" (string) and \"rationale\" (string).\n\nCauses:\n%s", input)

	raw, err := s.complete(ctx, prompt)
	if err != nil {
		return models.CauseDraft{}, err
	}
	var out models.CauseDraft
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return models.CauseDraft{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if out.Description == "" {
		return models.CauseDraft{}, fmt.Errorf("%w: empty root cause", ErrInvalidResponse)
	}
	return out, nil
}

func (s *Service) CoachActions(ctx context.Context, causes []models.Cause) ([]models.ActionDraft, error) {
	input, err := json.Marshal(causes)
	if err != nil {
		return nil, fmt.Errorf("encoding causes: %w", err)
	}
	prompt := fmt.Sprintf(
		"Suggest corrective actions addressing the causes below. "+
			"Return a JSON array of objects with fields \"description\" (string) "+
			"and \"priority\" (one of low, medium, high).\n\nCauses:\n%s", input)
	return completeList[models.ActionDraft](ctx, s, prompt)
}

// complete runs one bounded inference call and normalizes the raw text.
func (s *Service) complete(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.completer.Complete(callCtx, CompletionRequest{
		System: systemPrompt,
		Prompt: prompt,
	})
	if err != nil {
		return "", err
	}
	return stripFences(raw), nil
}

// completeList runs one inference call and decodes the response as a JSON
// array of T.
func completeList[T any](ctx context.Context, s *Service, prompt string) ([]T, error) {
	raw, err := s.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return out, nil
}

// stripFences removes a markdown code fence if the model wrapped its JSON
// in one despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

var _ models.Extractor = (*Service)(nil)
