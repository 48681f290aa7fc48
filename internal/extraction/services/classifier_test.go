package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasklens/tasklens/internal/extraction/domain"
	"github.com/tasklens/tasklens/internal/extraction/services"
	ingestdomain "github.com/tasklens/tasklens/internal/ingest/domain"
)

type fakeOracle struct {
	reply   string
	err     error
	prompts []string
}

func (o *fakeOracle) Complete(_ context.Context, _, prompt string) (string, error) {
	o.prompts = append(o.prompts, prompt)
	if o.err != nil {
		return "", o.err
	}
	return o.reply, nil
}

type fakeResolver struct {
	names map[string]string
}

func (r *fakeResolver) ResolveUser(_ context.Context, id string) (string, error) {
	if name, ok := r.names[id]; ok {
		return name, nil
	}
	return "", errors.New("unknown user")
}

func channelSource() ingestdomain.Source {
	return ingestdomain.Source{ID: "C123", Kind: ingestdomain.SourceKindChannel}
}

func message(ref, text string) ingestdomain.Message {
	return ingestdomain.Message{
		Ref:       ref,
		Text:      text,
		AuthorID:  "U1",
		Timestamp: time.Now(),
		Source:    channelSource(),
	}
}

func newTestClassifier(oracle domain.Oracle) *services.Classifier {
	return services.NewClassifier(oracle, nil, services.DefaultClassifierConfig(), nil)
}

func TestClassify_BuildsCandidates(t *testing.T) {
	oracle := &fakeOracle{reply: `[
		{"message_index": 0, "is_task": true, "confidence": 0.85, "title": "Fix the login bug", "task_type": "bug", "priority": "high"}
	]`}
	classifier := newTestClassifier(oracle)

	result, err := classifier.Classify(context.Background(), channelSource(),
		[]ingestdomain.Message{message("1700000001.000100", "can you fix the login bug?")})

	require.NoError(t, err)
	require.Len(t, result.Candidates, 1)
	c := result.Candidates[0]
	assert.Equal(t, "Fix the login bug", c.Title)
	assert.Equal(t, "bug", c.TaskType)
	assert.InDelta(t, 0.75, c.Signal, 0.0001)
	assert.InDelta(t, 0.85, c.Confidence, 0.0001)
	assert.Equal(t, "C123", c.SourceID)
	assert.Equal(t, "1700000001.000100", c.MessageRef)
}

func TestClassify_EmptyBatchSkipsOracle(t *testing.T) {
	oracle := &fakeOracle{reply: "[]"}
	classifier := newTestClassifier(oracle)

	result, err := classifier.Classify(context.Background(), channelSource(), nil)

	require.NoError(t, err)
	assert.Empty(t, result.Candidates)
	assert.Empty(t, oracle.prompts, "no oracle call for an empty batch")
}

func TestClassify_PrefilterSkipsNonTaskMessages(t *testing.T) {
	oracle := &fakeOracle{reply: "[]"}
	classifier := newTestClassifier(oracle)

	result, err := classifier.Classify(context.Background(), channelSource(), []ingestdomain.Message{
		message("1", "lol"),
		message("2", "what a lovely morning everyone"),
		message("3", "don't forget to deploy the fix"),
	})

	require.NoError(t, err)
	assert.Equal(t, 2, result.Prefiltered)
	assert.Equal(t, 1, result.Considered)
}

func TestClassify_ToleratesFencedReply(t *testing.T) {
	oracle := &fakeOracle{reply: "Here you go:\n```json\n[{\"message_index\": 0, \"is_task\": true, \"confidence\": 0.9, \"title\": \"Deploy the fix\"}]\n```"}
	classifier := newTestClassifier(oracle)

	result, err := classifier.Classify(context.Background(), channelSource(),
		[]ingestdomain.Message{message("1", "please deploy the fix")})

	require.NoError(t, err)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "Deploy the fix", result.Candidates[0].Title)
}

func TestClassify_ClampsConfidence(t *testing.T) {
	oracle := &fakeOracle{reply: `[{"message_index": 0, "is_task": true, "confidence": 1.7, "title": "Deploy the fix"}]`}
	classifier := newTestClassifier(oracle)

	result, err := classifier.Classify(context.Background(), channelSource(),
		[]ingestdomain.Message{message("1", "please deploy the fix")})

	require.NoError(t, err)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, 1.0, result.Candidates[0].Confidence)
}

func TestClassify_DropsMalformedRecords(t *testing.T) {
	oracle := &fakeOracle{reply: `[
		{"message_index": 0, "confidence": 0.9, "title": "No is_task field"},
		{"message_index": 0, "is_task": true, "confidence": 0.9},
		{"message_index": 7, "is_task": true, "confidence": 0.9, "title": "Index out of range"},
		{"message_index": 0, "is_task": true, "confidence": 0.9, "title": "Deploy the fix"}
	]`}
	classifier := newTestClassifier(oracle)

	result, err := classifier.Classify(context.Background(), channelSource(),
		[]ingestdomain.Message{message("1", "please deploy the fix")})

	require.NoError(t, err)
	assert.Equal(t, 3, result.Malformed)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "Deploy the fix", result.Candidates[0].Title)
}

func TestClassify_ExplicitNonTaskIsNotMalformed(t *testing.T) {
	oracle := &fakeOracle{reply: `[{"message_index": 0, "is_task": false, "confidence": 0.2}]`}
	classifier := newTestClassifier(oracle)

	result, err := classifier.Classify(context.Background(), channelSource(),
		[]ingestdomain.Message{message("1", "please deploy the fix")})

	require.NoError(t, err)
	assert.Empty(t, result.Candidates)
	assert.Zero(t, result.Malformed)
}

func TestClassify_ThresholdPerSourceKind(t *testing.T) {
	reply := `[{"message_index": 0, "is_task": true, "confidence": 0.65, "title": "Deploy the fix"}]`

	// 0.65 clears the channel bar (0.60)...
	classifier := newTestClassifier(&fakeOracle{reply: reply})
	result, err := classifier.Classify(context.Background(), channelSource(),
		[]ingestdomain.Message{message("1", "please deploy the fix")})
	require.NoError(t, err)
	assert.Len(t, result.Candidates, 1)

	// ...but not the direct-message bar (0.70).
	dm := ingestdomain.Source{ID: "D99", Kind: ingestdomain.SourceKindDM}
	msg := message("1", "please deploy the fix")
	msg.Source = dm
	classifier = newTestClassifier(&fakeOracle{reply: reply})
	result, err = classifier.Classify(context.Background(), dm, []ingestdomain.Message{msg})
	require.NoError(t, err)
	assert.Empty(t, result.Candidates)
	assert.Equal(t, 1, result.BelowThreshold)
}

func TestClassify_OracleFailure(t *testing.T) {
	classifier := newTestClassifier(&fakeOracle{err: errors.New("connection refused")})

	_, err := classifier.Classify(context.Background(), channelSource(),
		[]ingestdomain.Message{message("1", "please deploy the fix")})

	assert.ErrorIs(t, err, domain.ErrClassificationUnavailable)
}

func TestClassify_ResolvesAssigneeNames(t *testing.T) {
	oracle := &fakeOracle{reply: `[{"message_index": 0, "is_task": true, "confidence": 0.9, "title": "Review the deploy", "assignee_hint": "<@U42>"}]`}
	resolver := &fakeResolver{names: map[string]string{"U42": "sam"}}
	classifier := services.NewClassifier(oracle, resolver, services.DefaultClassifierConfig(), nil)

	result, err := classifier.Classify(context.Background(), channelSource(),
		[]ingestdomain.Message{message("1", "<@U42> can you review the deploy?")})

	require.NoError(t, err)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "U42", result.Candidates[0].AssigneeID)
	assert.Equal(t, "sam", result.Candidates[0].AssigneeName)
}

func TestClassify_ResolverFailureKeepsRawID(t *testing.T) {
	oracle := &fakeOracle{reply: `[{"message_index": 0, "is_task": true, "confidence": 0.9, "title": "Review the deploy", "assignee_hint": "<@U42>"}]`}
	resolver := &fakeResolver{names: map[string]string{}}
	classifier := services.NewClassifier(oracle, resolver, services.DefaultClassifierConfig(), nil)

	result, err := classifier.Classify(context.Background(), channelSource(),
		[]ingestdomain.Message{message("1", "<@U42> can you review the deploy?")})

	require.NoError(t, err)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "U42", result.Candidates[0].AssigneeName)
}
