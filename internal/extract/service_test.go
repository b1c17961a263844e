package extract_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskdocs/riskdocs/internal/extract"
	"github.com/riskdocs/riskdocs/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	name     string
	response string
	err      error
	lastReq  extract.CompletionRequest
}

func (f *fakeCompleter) Name() string { return f.name }

func (f *fakeCompleter) Complete(ctx context.Context, req extract.CompletionRequest) (string, error) {
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func newService(response string) (*extract.Service, *fakeCompleter) {
	c := &fakeCompleter{name: "fake", response: response}
	return extract.NewService(c, time.Second), c
}

func TestService_ExtractStepsParsesArray(t *testing.T) {
	s, c := newService(`[{"position":1,"description":"Isolate power"},{"position":2,"description":"Remove fitting"}]`)

	drafts, err := s.ExtractSteps(context.Background(), "Replace warehouse light fittings")
	require.NoError(t, err)

	require.Len(t, drafts, 2)
	assert.Equal(t, models.StepDraft{Position: 1, Description: "Isolate power"}, drafts[0])
	assert.Contains(t, c.lastReq.Prompt, "Replace warehouse light fittings")
	assert.Contains(t, c.lastReq.System, "JSON only")
}

func TestService_StripsMarkdownFences(t *testing.T) {
	s, _ := newService("```json\n[{\"position\":1,\"description\":\"Isolate power\"}]\n```")

	drafts, err := s.ExtractSteps(context.Background(), "activity")
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "Isolate power", drafts[0].Description)
}

func TestService_InvalidJSONIsInvalidResponse(t *testing.T) {
	s, _ := newService("The steps are: 1. Isolate power")

	_, err := s.ExtractSteps(context.Background(), "activity")
	assert.ErrorIs(t, err, extract.ErrInvalidResponse)
}

func TestService_CompleterErrorPassesThrough(t *testing.T) {
	c := &fakeCompleter{name: "fake", err: extract.ErrProviderUnavailable}
	s := extract.NewService(c, time.Second)

	_, err := s.ExtractSteps(context.Background(), "activity")
	assert.ErrorIs(t, err, extract.ErrProviderUnavailable)
}

func TestService_ComposeNarrative(t *testing.T) {
	s, _ := newService(`{"narrative":"At 14:05 the forklift reversed without sounding its horn."}`)

	narrative, err := s.ComposeNarrative(context.Background(), models.NarrativeRequest{
		Incident: models.Incident{Title: "Forklift near miss", RawReport: "report text"},
	})
	require.NoError(t, err)
	assert.Equal(t, "At 14:05 the forklift reversed without sounding its horn.", narrative)
}

func TestService_ComposeNarrativeRejectsEmpty(t *testing.T) {
	s, _ := newService(`{"narrative":""}`)

	_, err := s.ComposeNarrative(context.Background(), models.NarrativeRequest{})
	assert.ErrorIs(t, err, extract.ErrInvalidResponse)
}

func TestService_CoachRootCauseDecodesObject(t *testing.T) {
	s, _ := newService(`{"description":"Horn disabled during maintenance","rationale":"Upstream of every sighting gap"}`)

	draft, err := s.CoachRootCause(context.Background(), []models.Cause{
		{Kind: models.CauseKindContributing, Description: "No horn sounded"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Horn disabled during maintenance", draft.Description)
	assert.Equal(t, "Upstream of every sighting gap", draft.Rationale)
}

func TestService_CoachRootCauseRejectsEmptyDescription(t *testing.T) {
	s, _ := newService(`{"description":"","rationale":"none"}`)

	_, err := s.CoachRootCause(context.Background(), nil)
	assert.ErrorIs(t, err, extract.ErrInvalidResponse)
}

func TestService_TimeoutCancelsInference(t *testing.T) {
	c := &blockingCompleter{}
	s := extract.NewService(c, 20*time.Millisecond)

	start := time.Now()
	_, err := s.ExtractSteps(context.Background(), "activity")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

type blockingCompleter struct{}

func (b *blockingCompleter) Name() string { return "blocking" }

func (b *blockingCompleter) Complete(ctx context.Context, _ extract.CompletionRequest) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestService_NameComesFromCompleter(t *testing.T) {
	s, _ := newService("[]")
	assert.Equal(t, "fake", s.Name())
}

func TestService_SuggestControlsCarriesHazardIDs(t *testing.T) {
	s, c := newService("[]")

	hazards := []models.HazardContext{
		{Hazard: models.Hazard{Description: "Fall from height"}, StepDescription: "Climb ladder"},
	}
	_, err := s.SuggestControls(context.Background(), hazards)
	require.NoError(t, err)
	assert.Contains(t, c.lastReq.Prompt, "Fall from height")
	assert.Contains(t, c.lastReq.Prompt, "Climb ladder")
}

func TestStripFencesVariants(t *testing.T) {
	s, _ := newService("```\n[]\n```")
	drafts, err := s.ExtractJHARows(context.Background(), "task")
	require.NoError(t, err)
	assert.Empty(t, drafts)
}

func TestService_ExtractWitnessFactsPromptNamesWitness(t *testing.T) {
	s, c := newService(`[{"fact":"The horn did not sound"}]`)

	facts, err := s.ExtractWitnessFacts(context.Background(), models.WitnessStatement{
		WitnessName: "J. Ortiz",
		Statement:   "I never heard the horn.",
	})
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Contains(t, c.lastReq.Prompt, "J. Ortiz")
	assert.Contains(t, c.lastReq.Prompt, "I never heard the horn.")
}

func TestService_CheckConsistencyDecodesFindings(t *testing.T) {
	s, _ := newService(`[{"detail":"Witnesses disagree on the time","severity":"high"}]`)

	findings, err := s.CheckConsistency(context.Background(), []models.WitnessStatement{
		{WitnessName: "A", Statement: "It was 14:00"},
		{WitnessName: "B", Statement: "It was 15:00"},
	})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "high", findings[0].Severity)
}

func TestService_ErrorsDoNotWrapInvalidResponse(t *testing.T) {
	wrapped := errors.New("socket closed")
	c := &fakeCompleter{name: "fake", err: wrapped}
	s := extract.NewService(c, time.Second)

	_, err := s.MergeTimeline(context.Background(), nil)
	assert.ErrorIs(t, err, wrapped)
	assert.NotErrorIs(t, err, extract.ErrInvalidResponse)
}
