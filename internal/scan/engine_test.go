package scan_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	extraction "github.com/tasklens/tasklens/internal/extraction/domain"
	extractionservices "github.com/tasklens/tasklens/internal/extraction/services"
	ingestdomain "github.com/tasklens/tasklens/internal/ingest/domain"
	"github.com/tasklens/tasklens/internal/scan"
	"github.com/tasklens/tasklens/internal/todos/application/commands"
	"github.com/tasklens/tasklens/internal/todos/application/services"
	"github.com/tasklens/tasklens/internal/todos/domain/todo"
)

type fakeSource struct {
	messages map[string][]ingestdomain.Message
	failing  map[string]error
}

func (s *fakeSource) Fetch(_ context.Context, src ingestdomain.Source, _ int, _ time.Time) ([]ingestdomain.Message, error) {
	if err, ok := s.failing[src.ID]; ok {
		return nil, err
	}
	return s.messages[src.ID], nil
}

type fakeDirectory struct {
	sources []ingestdomain.Source
	err     error
}

func (d *fakeDirectory) Sources(context.Context) ([]ingestdomain.Source, error) {
	return d.sources, d.err
}

// titleClassifier yields one candidate per message, titled after the text.
type titleClassifier struct {
	err error
}

func (c *titleClassifier) Classify(_ context.Context, src ingestdomain.Source, messages []ingestdomain.Message) (extractionservices.Result, error) {
	if c.err != nil {
		return extractionservices.Result{}, c.err
	}
	result := extractionservices.Result{Considered: len(messages)}
	for _, msg := range messages {
		result.Candidates = append(result.Candidates, extraction.Candidate{
			Title:      msg.Text,
			Confidence: 0.9,
			SourceID:   src.ID,
			MessageRef: msg.Ref,
		})
	}
	return result, nil
}

type recordingMerger struct {
	commands []commands.ExtractAndMergeCommand
	err      error
}

func (m *recordingMerger) Handle(_ context.Context, cmd commands.ExtractAndMergeCommand) (*commands.ExtractAndMergeResult, error) {
	m.commands = append(m.commands, cmd)
	if m.err != nil {
		return nil, m.err
	}
	return &commands.ExtractAndMergeResult{
		Summary: services.ChangeSummary{Created: len(cmd.Candidates)},
	}, nil
}

func channelMessages(channelID string, count int) []ingestdomain.Message {
	src := ingestdomain.Source{ID: channelID, Kind: ingestdomain.SourceKindChannel}
	msgs := make([]ingestdomain.Message, 0, count)
	for i := 0; i < count; i++ {
		msgs = append(msgs, ingestdomain.Message{
			Ref:    fmt.Sprintf("%s-msg-%d", channelID, i),
			Text:   fmt.Sprintf("fix issue %d in %s", i, channelID),
			Source: src,
		})
	}
	return msgs
}

func TestScanChannel(t *testing.T) {
	source := &fakeSource{messages: map[string][]ingestdomain.Message{
		"C1": channelMessages("C1", 3),
	}}
	merger := &recordingMerger{}
	engine := scan.NewEngine(source, &fakeDirectory{}, &titleClassifier{}, merger, scan.DefaultConfig(), nil)

	report, err := engine.ScanChannel(context.Background(), "C1")

	require.NoError(t, err)
	assert.Equal(t, "channel:C1", report.Scope.Key())
	assert.Equal(t, 1, report.SourcesScanned)
	assert.Equal(t, 3, report.MessagesFetched)
	assert.Equal(t, 3, report.CandidatesFound)
	assert.Equal(t, 3, report.Summary.Created)

	require.Len(t, merger.commands, 1)
	assert.Equal(t, "channel:C1", merger.commands[0].Scope.Key())
}

func TestScanPersonal_AggregatesAllSources(t *testing.T) {
	sources := []ingestdomain.Source{
		{ID: "C1", Kind: ingestdomain.SourceKindChannel},
		{ID: "C2", Kind: ingestdomain.SourceKindChannel},
		{ID: "D1", Kind: ingestdomain.SourceKindDM},
	}
	source := &fakeSource{messages: map[string][]ingestdomain.Message{
		"C1": channelMessages("C1", 2),
		"C2": channelMessages("C2", 1),
		"D1": channelMessages("D1", 1),
	}}
	merger := &recordingMerger{}
	engine := scan.NewEngine(source, &fakeDirectory{sources: sources}, &titleClassifier{}, merger, scan.DefaultConfig(), nil)

	report, err := engine.ScanPersonal(context.Background(), "U42")

	require.NoError(t, err)
	assert.Equal(t, "personal:U42", report.Scope.Key())
	assert.Equal(t, 3, report.SourcesScanned)
	assert.Equal(t, 4, report.CandidatesFound)
	assert.Empty(t, report.Skipped)

	// Candidates arrive in enumeration order regardless of scheduling.
	require.Len(t, merger.commands, 1)
	refs := make([]string, 0, 4)
	for _, c := range merger.commands[0].Candidates {
		refs = append(refs, c.MessageRef)
	}
	assert.Equal(t, []string{"C1-msg-0", "C1-msg-1", "C2-msg-0", "D1-msg-0"}, refs)
}

func TestScanPersonal_FailingSourceIsSkippedNotFatal(t *testing.T) {
	sources := []ingestdomain.Source{
		{ID: "C1", Kind: ingestdomain.SourceKindChannel},
		{ID: "C2", Kind: ingestdomain.SourceKindChannel},
	}
	source := &fakeSource{
		messages: map[string][]ingestdomain.Message{"C1": channelMessages("C1", 2)},
		failing:  map[string]error{"C2": fmt.Errorf("%w: channel archived", ingestdomain.ErrSourceUnavailable)},
	}
	merger := &recordingMerger{}
	engine := scan.NewEngine(source, &fakeDirectory{sources: sources}, &titleClassifier{}, merger, scan.DefaultConfig(), nil)

	report, err := engine.ScanPersonal(context.Background(), "U42")

	require.NoError(t, err)
	assert.Equal(t, 1, report.SourcesScanned)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "C2", report.Skipped[0].SourceID)
	assert.Contains(t, report.Skipped[0].Reason, "channel archived")
	assert.Equal(t, 2, report.CandidatesFound, "healthy sources still merge")
}

func TestScanPersonal_ClassifierFailureIsSkipped(t *testing.T) {
	sources := []ingestdomain.Source{{ID: "C1", Kind: ingestdomain.SourceKindChannel}}
	source := &fakeSource{messages: map[string][]ingestdomain.Message{"C1": channelMessages("C1", 2)}}
	merger := &recordingMerger{}
	classifier := &titleClassifier{err: fmt.Errorf("%w: oracle down", extraction.ErrClassificationUnavailable)}
	engine := scan.NewEngine(source, &fakeDirectory{sources: sources}, classifier, merger, scan.DefaultConfig(), nil)

	report, err := engine.ScanPersonal(context.Background(), "U42")

	require.NoError(t, err)
	assert.Zero(t, report.SourcesScanned)
	require.Len(t, report.Skipped, 1)
	assert.Zero(t, report.CandidatesFound)
}

func TestScanPersonal_DirectoryFailure(t *testing.T) {
	engine := scan.NewEngine(&fakeSource{}, &fakeDirectory{err: errors.New("token revoked")},
		&titleClassifier{}, &recordingMerger{}, scan.DefaultConfig(), nil)

	_, err := engine.ScanPersonal(context.Background(), "U42")
	require.Error(t, err)
}

func TestExtractAndMerge_Facade(t *testing.T) {
	merger := &recordingMerger{}
	engine := scan.NewEngine(&fakeSource{}, &fakeDirectory{}, &titleClassifier{}, merger, scan.DefaultConfig(), nil)

	result, err := engine.ExtractAndMerge(context.Background(), todo.NewChannelScope("C1"), channelMessages("C1", 2))

	require.NoError(t, err)
	assert.Equal(t, 2, result.Summary.Created)
	require.Len(t, merger.commands, 1)
}

func TestExtractAndMerge_EmptyBatch(t *testing.T) {
	merger := &recordingMerger{}
	engine := scan.NewEngine(&fakeSource{}, &fakeDirectory{}, &titleClassifier{}, merger, scan.DefaultConfig(), nil)

	result, err := engine.ExtractAndMerge(context.Background(), todo.NewChannelScope("C1"), nil)

	require.NoError(t, err)
	assert.Zero(t, result.Summary.Total())
	assert.Empty(t, merger.commands, "no merge for an empty batch")
}

func TestExtractAndMerge_InvalidScope(t *testing.T) {
	engine := scan.NewEngine(&fakeSource{}, &fakeDirectory{}, &titleClassifier{}, &recordingMerger{}, scan.DefaultConfig(), nil)

	_, err := engine.ExtractAndMerge(context.Background(), todo.Scope{}, channelMessages("C1", 1))
	assert.ErrorIs(t, err, todo.ErrInvalidScope)
}
