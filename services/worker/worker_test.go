package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/pricesheet/helpers"
	"sjsage522/pricesheet/internal/merge"
	"sjsage522/pricesheet/internal/price"
	"sjsage522/pricesheet/internal/schedule"
	"sjsage522/pricesheet/internal/scraper"
	"sjsage522/pricesheet/logger"
	perrors "sjsage522/pricesheet/pkg/errors"
	"sjsage522/pricesheet/services/cache"
	"sjsage522/pricesheet/services/publisher"
)

var runAt = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

// MockSource implements the scraper.Source interface for testing
type MockSource struct {
	mu        sync.Mutex
	batch     *price.Batch
	scrapeErr error
	calls     int
}

// Ensure MockSource implements scraper.Source
var _ scraper.Source = (*MockSource)(nil)

func (m *MockSource) Name() string         { return "mock-source" }
func (m *MockSource) Domain() price.Domain { return price.DomainGold }

func (m *MockSource) Scrape(ctx context.Context) (*price.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.batch, m.scrapeErr
}

func (m *MockSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockMerger implements the Merger interface for testing
type MockMerger struct {
	mu       sync.Mutex
	paths    []string
	runTimes []time.Time
	err      error
}

var _ Merger = (*MockMerger)(nil)

func (m *MockMerger) RunOnce(batch *price.Batch, runAt time.Time, path string) (*merge.RunResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths = append(m.paths, path)
	m.runTimes = append(m.runTimes, runAt)
	if m.err != nil {
		return &merge.RunResult{Workbook: path, CommitErr: m.err}, m.err
	}
	return &merge.RunResult{Workbook: path, Committed: true, Outcomes: merge.Outcomes(batch, nil)}, nil
}

func (m *MockMerger) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.paths)
}

// MockSnapshot implements the Snapshotter interface for testing
type MockSnapshot struct {
	batches []*price.Batch
}

var _ Snapshotter = (*MockSnapshot)(nil)

func (m *MockSnapshot) Write(batch *price.Batch) error {
	m.batches = append(m.batches, batch)
	return nil
}

// MockPublisher implements the publisher.Publisher interface for testing
type MockPublisher struct {
	mu         sync.Mutex
	messages   map[string][]byte
	trims      int
	publishErr error
}

// Ensure MockPublisher implements publisher.Publisher
var _ publisher.Publisher = (*MockPublisher)(nil)

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{messages: make(map[string][]byte)}
}

func (m *MockPublisher) Publish(key string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}

	// Copy the message to ensure thread safety
	messageCopy := make([]byte, len(message))
	copy(messageCopy, message)

	m.messages[key] = messageCopy
	return nil
}

func (m *MockPublisher) TrimStreams() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trims++
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}

// MockLogger implements the helpers.LoggerInterface for testing
type MockLogger struct {
	mu     sync.Mutex
	errors []string
	infos  []string
}

// Ensure MockLogger implements helpers.LoggerInterface
var _ helpers.LoggerInterface = (*MockLogger)(nil)

func NewMockLogger() *MockLogger {
	return &MockLogger{
		errors: make([]string, 0),
		infos:  make([]string, 0),
	}
}

func (m *MockLogger) LogError(source string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, source+": "+err.Error())
}

func (m *MockLogger) LogInfo(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, fmt.Sprintf(format, args...))
}

func (m *MockLogger) Infos() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return strings.Join(m.infos, "\n")
}

func goldBatch() *price.Batch {
	b := price.NewBatch(price.DomainGold, "mock-source", runAt)
	b.Add(price.PricePoint{
		Identity:   "22K",
		Label:      "عيار 22",
		Amounts:    map[string]decimal.Decimal{"QAR": decimal.RequireFromString("494.18")},
		ObservedAt: runAt,
	})
	b.Fail("24K", "عيار 24", perrors.NewFieldNotFound("mock-source", "24K"))
	return b
}

func goldSchedule(t *testing.T) schedule.Schedule {
	t.Helper()
	s, err := schedule.For(price.DomainGold, schedule.Settings{Location: time.UTC, Hour: 9})
	require.NoError(t, err)
	return s
}

func newJob(t *testing.T, src *MockSource, m *MockMerger, snap *MockSnapshot) Job {
	job := Job{
		Source:   src,
		Merger:   m,
		Workbook: "data/gold_prices.xlsx",
		Schedule: goldSchedule(t),
	}
	if snap != nil {
		job.Snapshot = snap
	}
	return job
}

func TestWorkerRunOnce(t *testing.T) {
	src := &MockSource{batch: goldBatch()}
	merger := &MockMerger{}
	snap := &MockSnapshot{}
	mockPublisher := NewMockPublisher()
	mockLogger := NewMockLogger()
	var out bytes.Buffer

	w := NewWorker(context.Background(), nil, mockPublisher, mockLogger, Options{Report: &out})
	result, err := w.RunOnce(newJob(t, src, merger, snap))
	require.NoError(t, err)
	assert.True(t, result.Committed)

	// Merged under the batch's run time into the configured workbook
	assert.Equal(t, []string{"data/gold_prices.xlsx"}, merger.paths)
	assert.Equal(t, []time.Time{runAt}, merger.runTimes)

	// Snapshot stored and batch published to the domain stream
	require.Len(t, snap.batches, 1)
	require.Contains(t, mockPublisher.messages, "gold")
	var published price.Batch
	require.NoError(t, json.Unmarshal(mockPublisher.messages["gold"], &published))
	assert.Equal(t, src.batch.ID, published.ID)
	assert.Equal(t, 1, mockPublisher.trims)

	// The failed identity reaches the error journal
	require.Len(t, mockLogger.errors, 1)
	assert.Contains(t, mockLogger.errors[0], "mock-source: 24K: ")
	assert.Contains(t, mockLogger.errors[0], "field not found")

	assert.Contains(t, out.String(), "494.18")
	assert.Contains(t, mockLogger.Infos(), "scraped data")
}

func TestWorkerScrapeError(t *testing.T) {
	src := &MockSource{scrapeErr: errors.New("test error")}
	merger := &MockMerger{}
	mockPublisher := NewMockPublisher()
	mockLogger := NewMockLogger()

	w := NewWorker(context.Background(), nil, mockPublisher, mockLogger, Options{})
	_, err := w.RunOnce(newJob(t, src, merger, nil))
	require.Error(t, err)

	// Verify that the error was logged
	require.NotEmpty(t, mockLogger.errors, "An error should have been logged")
	assert.Contains(t, mockLogger.errors[0], "mock-source", "Error should mention the source name")
	assert.Contains(t, mockLogger.errors[0], "test error", "Error should contain the error message")

	// Verify that nothing was published or merged
	assert.Empty(t, mockPublisher.messages)
	assert.Zero(t, merger.Calls())
}

func TestWorkerEmptyBatchLeavesWorkbookAlone(t *testing.T) {
	b := price.NewBatch(price.DomainGold, "mock-source", runAt)
	b.Fail("22K", "عيار 22", perrors.NewNetwork("mock-source", "unexpected status code: 502", nil))
	src := &MockSource{batch: b}
	merger := &MockMerger{}
	mockPublisher := NewMockPublisher()

	w := NewWorker(context.Background(), nil, mockPublisher, NewMockLogger(), Options{})
	_, err := w.RunOnce(newJob(t, src, merger, nil))
	require.Error(t, err)
	assert.True(t, perrors.Is(err, perrors.ErrorTypeValidation))
	assert.Zero(t, merger.Calls())
	assert.Empty(t, mockPublisher.messages)
}

func TestWorkerMergeErrorIsReturned(t *testing.T) {
	src := &MockSource{batch: goldBatch()}
	merger := &MockMerger{err: perrors.NewConcurrentRun("data/gold_prices.xlsx", nil)}
	mockLogger := NewMockLogger()

	w := NewWorker(context.Background(), nil, nil, mockLogger, Options{Production: true})
	_, err := w.RunOnce(newJob(t, src, merger, nil))
	require.Error(t, err)
	assert.True(t, perrors.Is(err, perrors.ErrorTypeConcurrentRun))
	assert.Contains(t, strings.Join(mockLogger.errors, "\n"), "Merge: ")
	assert.NotContains(t, mockLogger.Infos(), "scraped data", "sample logging is off in production")
}

func TestWorkerPublishErrorDoesNotStopMerge(t *testing.T) {
	src := &MockSource{batch: goldBatch()}
	merger := &MockMerger{}
	mockPublisher := NewMockPublisher()
	mockPublisher.publishErr = errors.New("redis down")
	mockLogger := NewMockLogger()

	w := NewWorker(context.Background(), nil, mockPublisher, mockLogger, Options{})
	_, err := w.RunOnce(newJob(t, src, merger, nil))
	require.NoError(t, err)
	assert.Equal(t, 1, merger.Calls())
	assert.Contains(t, strings.Join(mockLogger.errors, "\n"), "Publisher: redis down")
	assert.Zero(t, mockPublisher.trims)
}

// TestWorkerStartRunsOnStartOncePerDay checks the start-up run and the
// already-ran guard shared through the run marker.
func TestWorkerStartRunsOnStartOncePerDay(t *testing.T) {
	marker := cache.NewRunMarker(cache.NewMemoryService(), "test", 48*time.Hour)
	clock := func() time.Time { return runAt }

	start := func(src *MockSource, merger *MockMerger, logger *MockLogger) {
		ctx, cancel := context.WithCancel(context.Background())
		w := NewWorker(ctx, []Job{newJob(t, src, merger, nil)}, nil, logger, Options{
			Marker:     marker,
			RunOnStart: true,
			Clock:      clock,
		})

		done := make(chan error, 1)
		go func() { done <- w.Start() }()

		assert.Eventually(t, func() bool {
			return strings.Contains(logger.Infos(), "next gold run at 2026-01-16T09:00:00Z")
		}, time.Second, 10*time.Millisecond)

		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("worker did not stop after cancel")
		}
	}

	first := &MockSource{batch: goldBatch()}
	firstMerger := &MockMerger{}
	start(first, firstMerger, NewMockLogger())
	assert.Equal(t, 1, first.Calls())
	assert.Equal(t, 1, firstMerger.Calls())
	assert.True(t, marker.Ran("gold", "2026-01-15"))

	second := &MockSource{batch: goldBatch()}
	secondLogger := NewMockLogger()
	start(second, &MockMerger{}, secondLogger)
	assert.Zero(t, second.Calls())
	assert.Contains(t, secondLogger.Infos(), "gold already ran on 2026-01-15, skipping")
}

func TestCronLoggerWritesThroughLogger(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	var buf bytes.Buffer
	logger.InitWithOutput(&buf)
	defer logger.Init()
	buf.Reset()

	l := cronLogger{}
	l.Info("schedule", "entry", 1)
	assert.Contains(t, buf.String(), "cron: schedule entry=1")

	buf.Reset()
	l.Error(errors.New("boom"), "panic", "stack", "x")
	assert.Contains(t, buf.String(), `"error":"boom"`)
	assert.Contains(t, buf.String(), "cron: panic stack=x")
}
