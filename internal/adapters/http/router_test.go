package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dkozyrev/reg-radar/internal/core/domain"
	"github.com/dkozyrev/reg-radar/internal/core/ports"
)

type fakeGateway struct {
	result ports.AdmitResult
	err    error
}

func (f *fakeGateway) Admit(_ context.Context, _ ports.AdmitRequest) (ports.AdmitResult, error) {
	return f.result, f.err
}

type fakeClassifier struct {
	cls *domain.Classification
	err error
}

func (f *fakeClassifier) Classify(_ context.Context, _ string) (*domain.Classification, error) {
	return f.cls, f.err
}

type fakeAnalyzer struct {
	ga  *domain.GapAnalysis
	err error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _ string) (*domain.GapAnalysis, error) {
	return f.ga, f.err
}

type fakeGenerator struct {
	result    ports.GenerateResult
	generated *domain.Task
	err       error
}

func (f *fakeGenerator) Generate(_ context.Context, _ string) (ports.GenerateResult, error) {
	return f.result, f.err
}

func (f *fakeGenerator) Update(_ context.Context, _ string, _ domain.TaskUpdate) (*domain.Task, error) {
	return f.generated, f.err
}

type fakeRanker struct {
	summaries []domain.DocumentSummary
	err       error
}

func (f *fakeRanker) Rank(_ context.Context) ([]domain.DocumentSummary, error) {
	return f.summaries, f.err
}

type fakeDocReader struct {
	doc  *domain.Document
	docs []domain.Document
	err  error
}

func (f *fakeDocReader) GetByID(_ context.Context, _ string) (*domain.Document, error) {
	return f.doc, f.err
}

func (f *fakeDocReader) List(_ context.Context, _ domain.DocumentFilter) ([]domain.Document, error) {
	return f.docs, f.err
}

type fakeTaskRepo struct {
	task  *domain.Task
	tasks []domain.Task
	err   error
}

func (f *fakeTaskRepo) Create(_ context.Context, _ *domain.Task) (bool, error) { return false, f.err }
func (f *fakeTaskRepo) GetByID(_ context.Context, _ string) (*domain.Task, error) {
	return f.task, f.err
}
func (f *fakeTaskRepo) ListByGapAnalysisID(_ context.Context, _ string) ([]domain.Task, error) {
	return f.tasks, f.err
}
func (f *fakeTaskRepo) Update(_ context.Context, _ *domain.Task) error { return f.err }
func (f *fakeTaskRepo) List(_ context.Context, _ domain.TaskFilter) ([]domain.Task, error) {
	return f.tasks, f.err
}

type fakeClassificationRepo struct {
	cls *domain.Classification
	err error
}

func (f *fakeClassificationRepo) Create(_ context.Context, _ *domain.Classification) error {
	return f.err
}
func (f *fakeClassificationRepo) GetByDocumentID(_ context.Context, _ string) (*domain.Classification, error) {
	return f.cls, f.err
}
func (f *fakeClassificationRepo) DeleteByDocumentID(_ context.Context, _ string) error { return f.err }

type fakeGapAnalysisRepo struct {
	ga  *domain.GapAnalysis
	err error
}

func (f *fakeGapAnalysisRepo) Create(_ context.Context, _ *domain.GapAnalysis) error { return f.err }
func (f *fakeGapAnalysisRepo) GetByID(_ context.Context, _ string) (*domain.GapAnalysis, error) {
	return f.ga, f.err
}
func (f *fakeGapAnalysisRepo) GetByDocumentID(_ context.Context, _ string) (*domain.GapAnalysis, error) {
	return f.ga, f.err
}

type routerFixture struct {
	gateway         *fakeGateway
	classifier      *fakeClassifier
	analyzer        *fakeAnalyzer
	generator       *fakeGenerator
	ranker          *fakeRanker
	docs            *fakeDocReader
	classifications *fakeClassificationRepo
	analyses        *fakeGapAnalysisRepo
	tasks           *fakeTaskRepo
}

func newFixture() *routerFixture {
	return &routerFixture{
		gateway:         &fakeGateway{},
		classifier:      &fakeClassifier{},
		analyzer:        &fakeAnalyzer{},
		generator:       &fakeGenerator{},
		ranker:          &fakeRanker{},
		docs:            &fakeDocReader{},
		classifications: &fakeClassificationRepo{},
		analyses:        &fakeGapAnalysisRepo{},
		tasks:           &fakeTaskRepo{},
	}
}

func (f *routerFixture) handler() http.Handler {
	return NewRouter(
		f.gateway, f.classifier, f.analyzer, f.generator, f.ranker,
		f.docs, f.classifications, f.analyses, f.tasks,
	).Handler()
}

func TestAdmitReturnsCreated(t *testing.T) {
	fixture := newFixture()
	fixture.gateway.result = ports.AdmitResult{
		Document: &domain.Document{ID: "doc-1", Source: domain.SourceFinCEN},
		Created:  true,
	}

	body := bytes.NewBufferString(`{"source":"fincen","external_id":"fin-1","title":"t","content":"body"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	rec := httptest.NewRecorder()
	fixture.handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	var resp struct {
		Created bool `json:"created"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Created {
		t.Fatalf("expected created=true")
	}
}

func TestAdmitDuplicateReturnsOK(t *testing.T) {
	fixture := newFixture()
	fixture.gateway.result = ports.AdmitResult{
		Document: &domain.Document{ID: "doc-1"},
		Created:  false,
	}

	body := bytes.NewBufferString(`{"source":"fincen","external_id":"fin-1","title":"t"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	rec := httptest.NewRecorder()
	fixture.handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestAdmitValidationFailureReturnsBadRequest(t *testing.T) {
	fixture := newFixture()
	fixture.gateway.err = domain.WrapError(domain.ErrInvalidInput, "admit document", errors.New("external_id is required"))

	body := bytes.NewBufferString(`{"source":"fincen"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	rec := httptest.NewRecorder()
	fixture.handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestClassifyRepeatTriggerReturnsExisting(t *testing.T) {
	fixture := newFixture()
	fixture.classifier.cls = &domain.Classification{ID: "cls-1", DocumentID: "doc-1", RelevanceScore: 4}
	fixture.classifier.err = domain.WrapError(domain.ErrAlreadyClassified, "classify document", errors.New("exists"))

	req := httptest.NewRequest(http.MethodPost, "/v1/documents/doc-1/classify", nil)
	rec := httptest.NewRecorder()
	fixture.handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var cls domain.Classification
	if err := json.Unmarshal(rec.Body.Bytes(), &cls); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if cls.ID != "cls-1" {
		t.Fatalf("expected existing classification, got %+v", cls)
	}
}

func TestGetClassificationSubresource(t *testing.T) {
	fixture := newFixture()
	fixture.classifications.cls = &domain.Classification{ID: "cls-1", DocumentID: "doc-1", RelevanceScore: 5}

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/doc-1/classification", nil)
	rec := httptest.NewRecorder()
	fixture.handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var cls domain.Classification
	if err := json.Unmarshal(rec.Body.Bytes(), &cls); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if cls.ID != "cls-1" {
		t.Fatalf("unexpected classification: %+v", cls)
	}
}

func TestGetClassificationMissingReturnsNotFound(t *testing.T) {
	fixture := newFixture()
	fixture.classifications.err = domain.WrapError(domain.ErrClassificationMissing, "get classification", errors.New("no rows"))

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/doc-1/classification", nil)
	rec := httptest.NewRecorder()
	fixture.handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGetGapAnalysisSubresource(t *testing.T) {
	fixture := newFixture()
	fixture.analyses.ga = &domain.GapAnalysis{ID: "ga-1", DocumentID: "doc-1", Severity: domain.SeverityHigh}

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/doc-1/gap-analysis", nil)
	rec := httptest.NewRecorder()
	fixture.handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var ga domain.GapAnalysis
	if err := json.Unmarshal(rec.Body.Bytes(), &ga); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if ga.ID != "ga-1" {
		t.Fatalf("unexpected gap analysis: %+v", ga)
	}
}

func TestAnalyzeNotRelevantReturnsConflict(t *testing.T) {
	fixture := newFixture()
	fixture.analyzer.err = domain.WrapError(domain.ErrNotRelevant, "analyze document", errors.New("below gate"))

	req := httptest.NewRequest(http.MethodPost, "/v1/documents/doc-1/analyze", nil)
	rec := httptest.NewRecorder()
	fixture.handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	fixture := newFixture()
	fixture.docs.err = domain.WrapError(domain.ErrDocumentNotFound, "get document", errors.New("no rows"))

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/missing", nil)
	rec := httptest.NewRecorder()
	fixture.handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGenerateTasksReturnsCreatedCount(t *testing.T) {
	fixture := newFixture()
	fixture.generator.result = ports.GenerateResult{
		Tasks: []domain.Task{
			{ID: "task-1", ControlID: "CDD-01"},
			{ID: "task-2", ControlID: "CDD-02"},
		},
		CreatedCount: 2,
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/gap-analyses/ga-1/tasks", nil)
	rec := httptest.NewRecorder()
	fixture.handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Tasks        []domain.Task `json:"tasks"`
		CreatedCount int           `json:"created_count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.CreatedCount != 2 || len(resp.Tasks) != 2 {
		t.Fatalf("unexpected result: %+v", resp)
	}
}

func TestPatchTaskInvalidTransitionReturnsConflict(t *testing.T) {
	fixture := newFixture()
	fixture.generator.err = domain.WrapError(domain.ErrInvalidTransition, "transition task", errors.New("completed -> pending"))

	body := bytes.NewBufferString(`{"status":"pending"}`)
	req := httptest.NewRequest(http.MethodPatch, "/v1/tasks/task-1", body)
	rec := httptest.NewRecorder()
	fixture.handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestPatchTaskUpdatesFields(t *testing.T) {
	fixture := newFixture()
	due := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	fixture.generator.generated = &domain.Task{
		ID:           "task-1",
		Status:       domain.TaskInProgress,
		AssignedTeam: "Internal Audit",
		DueAt:        &due,
	}

	body := bytes.NewBufferString(`{"status":"in_progress","assigned_team":"Internal Audit"}`)
	req := httptest.NewRequest(http.MethodPatch, "/v1/tasks/task-1", body)
	rec := httptest.NewRecorder()
	fixture.handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var task domain.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &task); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if task.Status != domain.TaskInProgress {
		t.Fatalf("status = %s, want in_progress", task.Status)
	}
}

func TestListTasksRejectsUnknownStatus(t *testing.T) {
	fixture := newFixture()

	req := httptest.NewRequest(http.MethodGet, "/v1/tasks?status=paused", nil)
	rec := httptest.NewRecorder()
	fixture.handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPriorityReturnsRanking(t *testing.T) {
	fixture := newFixture()
	severity := domain.SeverityCritical
	fixture.ranker.summaries = []domain.DocumentSummary{
		{DocumentID: "doc-1", Severity: &severity},
		{DocumentID: "doc-2"},
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/priority", nil)
	rec := httptest.NewRecorder()
	fixture.handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Documents []domain.DocumentSummary `json:"documents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Documents) != 2 || resp.Documents[0].DocumentID != "doc-1" {
		t.Fatalf("unexpected ranking: %+v", resp.Documents)
	}
}

func TestEngineOutageReturnsServiceUnavailable(t *testing.T) {
	fixture := newFixture()
	fixture.classifier.err = domain.WrapError(domain.ErrTemporary, "classify", errors.New("engine overloaded"))

	req := httptest.NewRequest(http.MethodPost, "/v1/documents/doc-1/classify", nil)
	rec := httptest.NewRecorder()
	fixture.handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestRequestIDHeaderIsEchoed(t *testing.T) {
	fixture := newFixture()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "req-42")
	rec := httptest.NewRecorder()
	fixture.handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-Id"); got != "req-42" {
		t.Fatalf("request id header = %q, want req-42", got)
	}
}
