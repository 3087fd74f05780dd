package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contentgrade/internal/config"
	"github.com/sells-group/contentgrade/internal/llm"
	"github.com/sells-group/contentgrade/internal/model"
)

const testURL = "https://blog.example.com/posts/acme-agents"

func newState(t *testing.T) *model.PipelineState {
	t.Helper()
	s, err := model.NewPipelineState(testURL)
	require.NoError(t, err)
	return s
}

func TestGraderPrompt_SubstitutesBusinessContext(t *testing.T) {
	p := GraderPrompt("We sell vector databases.")
	assert.Contains(t, p, "\n\nWe sell vector databases.\n\n")
	assert.NotContains(t, p, "{business_context}")
	assert.Contains(t, p, "You are a highly regarded marketing employee.")
}

func TestClassify_Yes(t *testing.T) {
	ctx := context.Background()
	agent := config.DefaultAgent()
	rec := okRecord(testURL)

	fetcher := &mockFetcher{}
	fetcher.On("Fetch", ctx, testURL).Return(rec).Once()

	inv := &mockInvoker{}
	inv.On("InvokeStructured", ctx, agent.GraderModel, mock.Anything, verdictSchema).
		Return(verdictCompletion(model.RelevanceYes, "Uses the SDK."), nil).Once()

	delta, verdict, err := NewClassifier(fetcher, inv).Classify(ctx, newState(t), agent)
	require.NoError(t, err)

	require.NotNil(t, verdict)
	assert.True(t, verdict.IsRelevant())
	assert.Equal(t, []string{testURL}, delta.RelevantLinks)
	if diff := cmp.Diff([]model.ContentRecord{rec}, delta.PageContents); diff != "" {
		t.Errorf("page contents mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, rec.Links, delta.Links)
	assert.Equal(t, 500, delta.Usage.InputTokens)
	fetcher.AssertExpectations(t)
	inv.AssertExpectations(t)
}

func TestClassify_NoLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	agent := config.DefaultAgent()

	fetcher := &mockFetcher{}
	fetcher.On("Fetch", ctx, testURL).Return(okRecord(testURL))

	inv := &mockInvoker{}
	inv.On("InvokeStructured", ctx, agent.GraderModel, mock.Anything, verdictSchema).
		Return(verdictCompletion(model.RelevanceNo, "Unrelated."), nil).Once()

	state := newState(t)
	state.RelevantLinks = []string{"https://earlier.example.com"}
	state.PageContents = []model.ContentRecord{okRecord("https://earlier.example.com")}
	wantLinks := append([]string(nil), state.RelevantLinks...)
	wantContents := append([]model.ContentRecord(nil), state.PageContents...)

	delta, verdict, err := NewClassifier(fetcher, inv).Classify(ctx, state, agent)
	require.NoError(t, err)
	assert.False(t, verdict.IsRelevant())
	assert.True(t, delta.IsEmpty())

	state.Apply(delta)
	if diff := cmp.Diff(wantLinks, state.RelevantLinks); diff != "" {
		t.Errorf("relevant links changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantContents, state.PageContents); diff != "" {
		t.Errorf("page contents changed (-want +got):\n%s", diff)
	}
}

func TestClassify_FetchErrorStillGradesPlaceholder(t *testing.T) {
	ctx := context.Background()
	agent := config.DefaultAgent()
	agent.BusinessContext = "We build observability tooling."

	errRec := model.NewErrorRecord(testURL, errors.New("dial tcp: connection refused"))
	fetcher := &mockFetcher{}
	fetcher.On("Fetch", ctx, testURL).Return(errRec)

	var sent []llm.Message
	inv := &mockInvoker{}
	inv.On("InvokeStructured", ctx, agent.GraderModel, mock.Anything, verdictSchema).
		Run(func(args mock.Arguments) { sent = args.Get(2).([]llm.Message) }).
		Return(verdictCompletion(model.RelevanceNo, "No content."), nil).Once()

	delta, verdict, err := NewClassifier(fetcher, inv).Classify(ctx, newState(t), agent)
	require.NoError(t, err)
	require.NotNil(t, verdict)
	assert.True(t, delta.IsEmpty())

	require.Len(t, sent, 2)
	assert.Equal(t, llm.RoleSystem, sent[0].Role)
	assert.Contains(t, sent[0].Content, agent.BusinessContext)
	assert.Equal(t, llm.User(NoContentPlaceholder), sent[1])
	inv.AssertNumberOfCalls(t, "InvokeStructured", 1)
}

func TestClassify_EmptyTextOnSuccessGradesPlaceholder(t *testing.T) {
	for _, text := range []string{"", "  \n\t "} {
		ctx := context.Background()
		agent := config.DefaultAgent()

		rec := okRecord(testURL)
		rec.Text = text
		fetcher := &mockFetcher{}
		fetcher.On("Fetch", ctx, testURL).Return(rec)

		var sent []llm.Message
		inv := &mockInvoker{}
		inv.On("InvokeStructured", ctx, agent.GraderModel, mock.Anything, verdictSchema).
			Run(func(args mock.Arguments) { sent = args.Get(2).([]llm.Message) }).
			Return(verdictCompletion(model.RelevanceYes, "Title looks on topic."), nil).Once()

		delta, _, err := NewClassifier(fetcher, inv).Classify(ctx, newState(t), agent)
		require.NoError(t, err)

		require.Len(t, sent, 2)
		assert.Equal(t, llm.User(NoContentPlaceholder), sent[1])
		require.Len(t, delta.PageContents, 1)
		assert.False(t, delta.PageContents[0].Failed())
		assert.Equal(t, text, delta.PageContents[0].Text)
	}
}

func TestClassify_FetchErrorYesRecordsErrorRecord(t *testing.T) {
	ctx := context.Background()
	agent := config.DefaultAgent()

	errRec := model.NewErrorRecord(testURL, errors.New("timeout"))
	fetcher := &mockFetcher{}
	fetcher.On("Fetch", ctx, testURL).Return(errRec)

	inv := &mockInvoker{}
	inv.On("InvokeStructured", ctx, agent.GraderModel, mock.Anything, verdictSchema).
		Return(verdictCompletion(model.RelevanceYes, "Assumed."), nil).Once()

	delta, _, err := NewClassifier(fetcher, inv).Classify(ctx, newState(t), agent)
	require.NoError(t, err)
	assert.Equal(t, []string{testURL}, delta.RelevantLinks)
	require.Len(t, delta.PageContents, 1)
	assert.True(t, delta.PageContents[0].Failed())
	assert.Equal(t, "blog.example.com", delta.PageContents[0].Domain)
}

func TestClassify_SchemaViolation(t *testing.T) {
	ctx := context.Background()
	agent := config.DefaultAgent()

	fetcher := &mockFetcher{}
	fetcher.On("Fetch", ctx, testURL).Return(okRecord(testURL))

	inv := &mockInvoker{}
	inv.On("InvokeStructured", ctx, agent.GraderModel, mock.Anything, verdictSchema).
		Return(&llm.Completion{JSON: json.RawMessage(`{"relevant":"maybe","reasoning":"unsure"}`)}, nil).Once()

	delta, verdict, err := NewClassifier(fetcher, inv).Classify(ctx, newState(t), agent)
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrSchemaViolation)
	assert.Nil(t, verdict)
	assert.True(t, delta.IsEmpty())
}

func TestClassify_InvokerError(t *testing.T) {
	ctx := context.Background()
	agent := config.DefaultAgent()

	fetcher := &mockFetcher{}
	fetcher.On("Fetch", ctx, testURL).Return(okRecord(testURL))

	boom := errors.New("upstream unavailable")
	inv := &mockInvoker{}
	inv.On("InvokeStructured", ctx, agent.GraderModel, mock.Anything, verdictSchema).
		Return(nil, boom).Once()

	_, _, err := NewClassifier(fetcher, inv).Classify(ctx, newState(t), agent)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "classify: grade content")
}
