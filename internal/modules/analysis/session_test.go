package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zovida/core/internal/models"
)

// scriptedOracle answers with a fixed response. When release is set, Ask
// signals started and then blocks until released, which lets tests observe
// the analyzing state from another goroutine.
type scriptedOracle struct {
	response string
	err      error

	started chan struct{}
	release chan struct{}
}

func (o *scriptedOracle) Ask(ctx context.Context, systemPrompt, prompt string) (string, error) {
	if o.started != nil {
		o.started <- struct{}{}
	}
	if o.release != nil {
		<-o.release
	}
	return o.response, o.err
}

// sinkRecorder captures upserted results and can simulate a broken backend.
type sinkRecorder struct {
	mu      sync.Mutex
	results []*models.AnalysisResult
	err     error
}

func (r *sinkRecorder) Upsert(ctx context.Context, result *models.AnalysisResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.results = append(r.results, result)
	return nil
}

func (r *sinkRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

func fixedClock() time.Time {
	return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
}

const goodResponse = "```json\n{\"overallRisk\":\"safe\",\"medicines\":[{\"name\":\"Aspirin\"}],\"interactions\":[],\"recommendations\":[]}\n```"

func TestSessionSubmitSuccess(t *testing.T) {
	sink := &sinkRecorder{}
	session := NewSession(&scriptedOracle{response: goodResponse}, sink, zap.NewNop(), fixedClock)

	outcome, err := session.Submit(context.Background(), "system", "prompt")
	require.NoError(t, err)
	require.NotNil(t, outcome.Result)

	assert.Equal(t, StateReady, session.State())
	assert.Equal(t, models.RiskSafe, outcome.Result.OverallRisk)
	assert.Same(t, outcome.Result, session.CurrentResult())
	assert.Equal(t, 1, sink.count())
	assert.Empty(t, session.Failure())
}

func TestSessionSubmitOracleFailure(t *testing.T) {
	sink := &sinkRecorder{}
	session := NewSession(&scriptedOracle{err: errors.New("connection refused")}, sink, zap.NewNop(), fixedClock)

	_, err := session.Submit(context.Background(), "system", "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOracle)

	assert.Equal(t, StateFailed, session.State())
	assert.Equal(t, MsgUnavailable, session.Failure())
	assert.Nil(t, session.CurrentResult())
	assert.Equal(t, 0, sink.count())
}

func TestSessionSubmitUnintelligibleResponse(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantErr  error
	}{
		{"no json at all", "I am just prose, sorry.", ErrExtraction},
		{"invalid risk level", `{"overallRisk":"mild"}`, ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &sinkRecorder{}
			session := NewSession(&scriptedOracle{response: tt.response}, sink, zap.NewNop(), fixedClock)

			_, err := session.Submit(context.Background(), "system", "prompt")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, StateFailed, session.State())
			assert.Equal(t, MsgUnintelligible, session.Failure())
			assert.Equal(t, 0, sink.count())
		})
	}
}

func TestSessionRejectsConcurrentSubmit(t *testing.T) {
	oracle := &scriptedOracle{
		response: goodResponse,
		started:  make(chan struct{}, 1),
		release:  make(chan struct{}),
	}
	sink := &sinkRecorder{}
	session := NewSession(oracle, sink, zap.NewNop(), fixedClock)

	done := make(chan error, 1)
	go func() {
		_, err := session.Submit(context.Background(), "system", "prompt")
		done <- err
	}()
	<-oracle.started
	assert.Equal(t, StateAnalyzing, session.State())

	_, err := session.Submit(context.Background(), "system", "prompt")
	assert.ErrorIs(t, err, ErrInFlight)

	close(oracle.release)
	require.NoError(t, <-done)
	assert.Equal(t, StateReady, session.State())
	assert.Equal(t, 1, sink.count())
}

func TestSessionResetDiscardsInFlightResult(t *testing.T) {
	oracle := &scriptedOracle{
		response: goodResponse,
		started:  make(chan struct{}, 1),
		release:  make(chan struct{}),
	}
	sink := &sinkRecorder{}
	session := NewSession(oracle, sink, zap.NewNop(), fixedClock)

	done := make(chan error, 1)
	go func() {
		_, err := session.Submit(context.Background(), "system", "prompt")
		done <- err
	}()
	<-oracle.started

	session.Reset()
	close(oracle.release)

	assert.ErrorIs(t, <-done, ErrStale)
	assert.Equal(t, StateIdle, session.State())
	assert.Nil(t, session.CurrentResult())
	assert.Equal(t, 0, sink.count())
}

func TestSessionResetDiscardsInFlightFailure(t *testing.T) {
	oracle := &scriptedOracle{
		err:     errors.New("timeout"),
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	session := NewSession(oracle, &sinkRecorder{}, zap.NewNop(), fixedClock)

	done := make(chan error, 1)
	go func() {
		_, err := session.Submit(context.Background(), "system", "prompt")
		done <- err
	}()
	<-oracle.started

	session.Reset()
	close(oracle.release)

	assert.ErrorIs(t, <-done, ErrStale)
	assert.Equal(t, StateIdle, session.State())
	assert.Empty(t, session.Failure())
}

func TestSessionPersistenceFailureDoesNotBlockReady(t *testing.T) {
	sink := &sinkRecorder{err: errors.New("redis down")}
	session := NewSession(&scriptedOracle{response: goodResponse}, sink, zap.NewNop(), fixedClock)

	outcome, err := session.Submit(context.Background(), "system", "prompt")
	require.NoError(t, err)

	assert.Equal(t, StateReady, session.State())
	assert.NotNil(t, session.CurrentResult())
	assert.Contains(t, outcome.Warnings, "result could not be saved to history")
}

func TestSessionCaptureAndClear(t *testing.T) {
	session := NewSession(&scriptedOracle{response: goodResponse}, &sinkRecorder{}, zap.NewNop(), fixedClock)

	session.Capture("data:image/jpeg;base64,xyz")
	assert.Equal(t, StateCapturing, session.State())
	assert.Equal(t, "data:image/jpeg;base64,xyz", session.CapturedImage())

	_, err := session.Submit(context.Background(), "system", "prompt")
	require.NoError(t, err)

	session.ClearResult()
	assert.Equal(t, StateIdle, session.State())
	assert.Nil(t, session.CurrentResult())
	assert.Empty(t, session.CapturedImage())
}

func TestSessionSetResultAdoptsAndPersists(t *testing.T) {
	sink := &sinkRecorder{}
	session := NewSession(&scriptedOracle{}, sink, zap.NewNop(), fixedClock)

	saved := &models.AnalysisResult{ID: "scan-1", OverallRisk: models.RiskDanger}
	require.NoError(t, session.SetResult(context.Background(), saved))

	assert.Equal(t, StateReady, session.State())
	assert.Same(t, saved, session.CurrentResult())
	assert.Equal(t, 1, sink.count())
}
