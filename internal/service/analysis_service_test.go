package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridoc/doc-audit/forensic-service/internal/models"
	"github.com/veridoc/doc-audit/forensic-service/internal/queue"
)

type fakeRepo struct {
	createErr     error
	markErr       error
	completeErr   error
	failErr       error
	created       *models.Analysis
	completedID   string
	completedText string
	failedID      string
	failedReason  string
}

func (f *fakeRepo) Create(_ context.Context, a *models.Analysis) error {
	f.created = a
	return f.createErr
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*models.Analysis, error) {
	if f.created != nil && f.created.ID == id {
		return f.created, nil
	}
	return nil, models.ErrNotFound
}

func (f *fakeRepo) MarkProcessing(_ context.Context, _ string) error {
	return f.markErr
}

func (f *fakeRepo) Complete(_ context.Context, id string, _ *models.ForensicResult, _ *models.SimilarityResult, text string) error {
	if f.completeErr != nil {
		return f.completeErr
	}
	f.completedID = id
	f.completedText = text
	return nil
}

func (f *fakeRepo) MarkFailed(_ context.Context, id, reason string) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.failedID = id
	f.failedReason = reason
	return nil
}

func (f *fakeRepo) Ping(_ context.Context) error { return nil }

type fakeStorage struct {
	text string
	err  error
}

func (f *fakeStorage) FetchText(_ context.Context, _, _ string) (string, error) {
	return f.text, f.err
}

type fakeForensic struct {
	result *models.ForensicResult
}

func (f *fakeForensic) Analyze(_ string) *models.ForensicResult {
	return f.result
}

type fakeSimilarity struct {
	result *models.SimilarityResult
	err    error
}

func (f *fakeSimilarity) Detect(_ context.Context, _, _ string) (*models.SimilarityResult, error) {
	return f.result, f.err
}

type fakeJobQueue struct {
	enqueued   []queue.Payload
	enqueueErr error
}

func (f *fakeJobQueue) Enqueue(_ context.Context, p queue.Payload) error {
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.enqueued = append(f.enqueued, p)
	return nil
}

func (f *fakeJobQueue) RegisterHandler(_ context.Context, _ queue.Handler, _ int) error {
	return nil
}

func (f *fakeJobQueue) Mode() string { return "memory" }
func (f *fakeJobQueue) Close() error { return nil }

type serviceFixture struct {
	repo       *fakeRepo
	storage    *fakeStorage
	forensic   *fakeForensic
	similarity *fakeSimilarity
	jobs       *fakeJobQueue
	svc        AnalysisService
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		repo:    &fakeRepo{},
		storage: &fakeStorage{text: "the extracted document text"},
		forensic: &fakeForensic{result: &models.ForensicResult{
			AIProbabilityScore: 42,
			RiskTier:           models.RiskTierMedium,
		}},
		similarity: &fakeSimilarity{result: &models.SimilarityResult{Similarity: 0.1}},
		jobs:       &fakeJobQueue{},
	}
	f.svc = NewAnalysisService(f.repo, f.storage, f.forensic, f.similarity, f.jobs, zerolog.Nop())
	return f
}

func TestSubmitCreatesAndEnqueues(t *testing.T) {
	f := newServiceFixture()

	analysis, err := f.svc.Submit(context.Background(), "doc-7", "application/pdf")
	require.NoError(t, err)

	assert.NotEmpty(t, analysis.ID)
	assert.Equal(t, models.StatusPending, analysis.Status)
	assert.Equal(t, "doc-7", analysis.SourceLocator)

	require.NotNil(t, f.repo.created)
	require.Len(t, f.jobs.enqueued, 1)
	assert.Equal(t, analysis.ID, f.jobs.enqueued[0].AnalysisID)
}

func TestSubmitRepositoryError(t *testing.T) {
	f := newServiceFixture()
	f.repo.createErr = errors.New("db down")

	_, err := f.svc.Submit(context.Background(), "doc-7", "application/pdf")
	require.Error(t, err)
	assert.Empty(t, f.jobs.enqueued)
}

func TestSubmitEnqueueError(t *testing.T) {
	f := newServiceFixture()
	f.jobs.enqueueErr = errors.New("broker down")

	_, err := f.svc.Submit(context.Background(), "doc-7", "application/pdf")
	assert.Error(t, err)
}

func TestProcessCompletes(t *testing.T) {
	f := newServiceFixture()

	p := queue.Payload{AnalysisID: "a1", SourceLocator: "doc-7", ContentType: "text/plain"}
	require.NoError(t, f.svc.Process(context.Background(), p))

	assert.Equal(t, "a1", f.repo.completedID)
	assert.Equal(t, "the extracted document text", f.repo.completedText)
	assert.Empty(t, f.repo.failedID)
}

func TestProcessSkipsWhenNotPending(t *testing.T) {
	f := newServiceFixture()
	f.repo.markErr = fmt.Errorf("%w: pending -> processing", models.ErrIllegalTransition)

	p := queue.Payload{AnalysisID: "a1", SourceLocator: "doc-7"}
	require.NoError(t, f.svc.Process(context.Background(), p))

	// Nothing ran: neither completion nor failure was recorded.
	assert.Empty(t, f.repo.completedID)
	assert.Empty(t, f.repo.failedID)
}

func TestProcessMarkProcessingInfraError(t *testing.T) {
	f := newServiceFixture()
	f.repo.markErr = errors.New("db down")

	err := f.svc.Process(context.Background(), queue.Payload{AnalysisID: "a1", SourceLocator: "doc-7"})
	assert.Error(t, err)
}

func TestProcessStorageFailureRecordsFailed(t *testing.T) {
	f := newServiceFixture()
	f.storage.err = errors.New("storage unreachable")

	p := queue.Payload{AnalysisID: "a1", SourceLocator: "doc-7"}
	require.NoError(t, f.svc.Process(context.Background(), p))

	assert.Equal(t, "a1", f.repo.failedID)
	assert.Contains(t, f.repo.failedReason, "storage unreachable")
	assert.Empty(t, f.repo.completedID)
}

func TestProcessSimilarityFailureRecordsFailed(t *testing.T) {
	f := newServiceFixture()
	f.similarity.err = errors.New("corpus query failed")

	require.NoError(t, f.svc.Process(context.Background(), queue.Payload{AnalysisID: "a1", SourceLocator: "doc-7"}))
	assert.Equal(t, "a1", f.repo.failedID)
}

func TestProcessCompleteRaceDiscardsResult(t *testing.T) {
	f := newServiceFixture()
	f.repo.completeErr = fmt.Errorf("%w: processing -> completed", models.ErrIllegalTransition)

	require.NoError(t, f.svc.Process(context.Background(), queue.Payload{AnalysisID: "a1", SourceLocator: "doc-7"}))
	assert.Empty(t, f.repo.failedID)
}

func TestProcessCompleteInfraErrorIsRetryable(t *testing.T) {
	f := newServiceFixture()
	f.repo.completeErr = errors.New("db down")

	err := f.svc.Process(context.Background(), queue.Payload{AnalysisID: "a1", SourceLocator: "doc-7"})
	require.Error(t, err)
	assert.False(t, queue.IsPermanent(err))
}

func TestProcessFailureRecordingError(t *testing.T) {
	f := newServiceFixture()
	f.storage.err = errors.New("storage unreachable")
	f.repo.failErr = errors.New("db down")

	err := f.svc.Process(context.Background(), queue.Payload{AnalysisID: "a1", SourceLocator: "doc-7"})
	assert.Error(t, err)
}
