package usecase

import (
	"context"
	"fmt"

	"github.com/dkozyrev/reg-radar/internal/core/domain"
	"github.com/dkozyrev/reg-radar/internal/core/ports"
)

type docRepoFake struct {
	docs        map[string]*domain.Document
	hashMatches []domain.Document
	createErr   error
	createCalls int
	// missFirstLookup makes the first GetByNaturalKey miss, simulating a
	// concurrent writer landing between the fast-path read and the insert.
	missFirstLookup bool
	lookupCalls     int
}

func newDocRepoFake(docs ...*domain.Document) *docRepoFake {
	f := &docRepoFake{docs: map[string]*domain.Document{}}
	for _, d := range docs {
		f.docs[d.ID] = d
	}
	return f
}

func (f *docRepoFake) Create(_ context.Context, doc *domain.Document) error {
	f.createCalls++
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.docs {
		if existing.Source == doc.Source && existing.ExternalID == doc.ExternalID {
			return domain.WrapError(domain.ErrAlreadyExists, "create document",
				fmt.Errorf("natural key taken"))
		}
	}
	f.docs[doc.ID] = doc
	return nil
}

func (f *docRepoFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	if doc, ok := f.docs[id]; ok {
		return doc, nil
	}
	return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id %s", id))
}

func (f *docRepoFake) GetByNaturalKey(_ context.Context, source domain.DocumentSource, externalID string) (*domain.Document, error) {
	f.lookupCalls++
	if f.missFirstLookup && f.lookupCalls == 1 {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document",
			fmt.Errorf("%s/%s", source, externalID))
	}
	for _, doc := range f.docs {
		if doc.Source == source && doc.ExternalID == externalID {
			return doc, nil
		}
	}
	return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document",
		fmt.Errorf("%s/%s", source, externalID))
}

func (f *docRepoFake) FindByContentHash(_ context.Context, _, _ string) ([]domain.Document, error) {
	return f.hashMatches, nil
}

func (f *docRepoFake) BackfillContent(_ context.Context, id, content, hash string) error {
	doc, ok := f.docs[id]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "backfill content", fmt.Errorf("id %s", id))
	}
	doc.Content = content
	doc.ContentHash = hash
	return nil
}

func (f *docRepoFake) List(_ context.Context, _ domain.DocumentFilter) ([]domain.Document, error) {
	var out []domain.Document
	for _, doc := range f.docs {
		out = append(out, *doc)
	}
	return out, nil
}

type queueFake struct {
	published []string
	err       error
}

func (f *queueFake) PublishDocumentAdmitted(_ context.Context, documentID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, documentID)
	return nil
}

func (f *queueFake) SubscribeDocumentAdmitted(_ context.Context, _ func(context.Context, string) error) error {
	return nil
}

type clsRepoFake struct {
	byDocument map[string]*domain.Classification
	// conflictOnCreate simulates losing the insert race: Create reports a
	// conflict and plants the winner's row.
	conflictOnCreate *domain.Classification
	createErr        error
}

func newClsRepoFake() *clsRepoFake {
	return &clsRepoFake{byDocument: map[string]*domain.Classification{}}
}

func (f *clsRepoFake) Create(_ context.Context, cls *domain.Classification) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.conflictOnCreate != nil {
		f.byDocument[f.conflictOnCreate.DocumentID] = f.conflictOnCreate
		return domain.WrapError(domain.ErrAlreadyClassified, "create classification",
			fmt.Errorf("document %s", cls.DocumentID))
	}
	if _, ok := f.byDocument[cls.DocumentID]; ok {
		return domain.WrapError(domain.ErrAlreadyClassified, "create classification",
			fmt.Errorf("document %s", cls.DocumentID))
	}
	f.byDocument[cls.DocumentID] = cls
	return nil
}

func (f *clsRepoFake) GetByDocumentID(_ context.Context, documentID string) (*domain.Classification, error) {
	if cls, ok := f.byDocument[documentID]; ok {
		return cls, nil
	}
	return nil, domain.WrapError(domain.ErrClassificationMissing, "get classification",
		fmt.Errorf("document %s", documentID))
}

func (f *clsRepoFake) DeleteByDocumentID(_ context.Context, documentID string) error {
	if _, ok := f.byDocument[documentID]; !ok {
		return domain.WrapError(domain.ErrClassificationMissing, "delete classification",
			fmt.Errorf("document %s", documentID))
	}
	delete(f.byDocument, documentID)
	return nil
}

type gaRepoFake struct {
	byID             map[string]*domain.GapAnalysis
	byDocument       map[string]*domain.GapAnalysis
	conflictOnCreate *domain.GapAnalysis
	createErr        error
}

func newGARepoFake(analyses ...*domain.GapAnalysis) *gaRepoFake {
	f := &gaRepoFake{
		byID:       map[string]*domain.GapAnalysis{},
		byDocument: map[string]*domain.GapAnalysis{},
	}
	for _, ga := range analyses {
		f.byID[ga.ID] = ga
		f.byDocument[ga.DocumentID] = ga
	}
	return f
}

func (f *gaRepoFake) Create(_ context.Context, ga *domain.GapAnalysis) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.conflictOnCreate != nil {
		f.byID[f.conflictOnCreate.ID] = f.conflictOnCreate
		f.byDocument[f.conflictOnCreate.DocumentID] = f.conflictOnCreate
		return domain.WrapError(domain.ErrAlreadyAnalyzed, "create gap analysis",
			fmt.Errorf("document %s", ga.DocumentID))
	}
	if _, ok := f.byDocument[ga.DocumentID]; ok {
		return domain.WrapError(domain.ErrAlreadyAnalyzed, "create gap analysis",
			fmt.Errorf("document %s", ga.DocumentID))
	}
	f.byID[ga.ID] = ga
	f.byDocument[ga.DocumentID] = ga
	return nil
}

func (f *gaRepoFake) GetByID(_ context.Context, id string) (*domain.GapAnalysis, error) {
	if ga, ok := f.byID[id]; ok {
		return ga, nil
	}
	return nil, domain.WrapError(domain.ErrGapAnalysisNotFound, "get gap analysis", fmt.Errorf("id %s", id))
}

func (f *gaRepoFake) GetByDocumentID(_ context.Context, documentID string) (*domain.GapAnalysis, error) {
	if ga, ok := f.byDocument[documentID]; ok {
		return ga, nil
	}
	return nil, domain.WrapError(domain.ErrGapAnalysisNotFound, "get gap analysis",
		fmt.Errorf("document %s", documentID))
}

type taskRepoFake struct {
	tasks     map[string]*domain.Task // keyed by (gapAnalysisID, controlID)
	byID      map[string]*domain.Task
	createErr error
	updateErr error
}

func newTaskRepoFake() *taskRepoFake {
	return &taskRepoFake{tasks: map[string]*domain.Task{}, byID: map[string]*domain.Task{}}
}

func taskKey(gapAnalysisID, controlID string) string {
	return gapAnalysisID + "/" + controlID
}

func (f *taskRepoFake) Create(_ context.Context, task *domain.Task) (bool, error) {
	if f.createErr != nil {
		return false, f.createErr
	}
	key := taskKey(task.GapAnalysisID, task.ControlID)
	if _, ok := f.tasks[key]; ok {
		return false, nil
	}
	f.tasks[key] = task
	f.byID[task.ID] = task
	return true, nil
}

func (f *taskRepoFake) GetByID(_ context.Context, id string) (*domain.Task, error) {
	if task, ok := f.byID[id]; ok {
		copyTask := *task
		return &copyTask, nil
	}
	return nil, domain.WrapError(domain.ErrTaskNotFound, "get task", fmt.Errorf("id %s", id))
}

func (f *taskRepoFake) ListByGapAnalysisID(_ context.Context, gapAnalysisID string) ([]domain.Task, error) {
	var out []domain.Task
	for _, task := range f.tasks {
		if task.GapAnalysisID == gapAnalysisID {
			out = append(out, *task)
		}
	}
	return out, nil
}

func (f *taskRepoFake) Update(_ context.Context, task *domain.Task) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.byID[task.ID]; !ok {
		return domain.WrapError(domain.ErrTaskNotFound, "update task", fmt.Errorf("id %s", task.ID))
	}
	f.byID[task.ID] = task
	f.tasks[taskKey(task.GapAnalysisID, task.ControlID)] = task
	return nil
}

func (f *taskRepoFake) List(_ context.Context, _ domain.TaskFilter) ([]domain.Task, error) {
	var out []domain.Task
	for _, task := range f.byID {
		out = append(out, *task)
	}
	return out, nil
}

type classifyEngineFake struct {
	result ports.ClassificationResult
	err    error
	calls  int
}

func (f *classifyEngineFake) Classify(_ context.Context, _ ports.ClassificationInput) (ports.ClassificationResult, error) {
	f.calls++
	if f.err != nil {
		return ports.ClassificationResult{}, f.err
	}
	return f.result, nil
}

type assessEngineFake struct {
	result ports.AssessmentResult
	input  ports.AssessmentInput
	err    error
	calls  int
}

func (f *assessEngineFake) Assess(_ context.Context, input ports.AssessmentInput) (ports.AssessmentResult, error) {
	f.calls++
	f.input = input
	if f.err != nil {
		return ports.AssessmentResult{}, f.err
	}
	return f.result, nil
}

type embedderFake struct {
	vector []float32
	err    error
}

func (f *embedderFake) Embed(_ context.Context, _ string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

type indexFake struct {
	upserts   map[string][]float32
	neighbors []ports.Neighbor
	queryErr  error
	upsertErr error
}

func newIndexFake() *indexFake {
	return &indexFake{upserts: map[string][]float32{}}
}

func (f *indexFake) Upsert(_ context.Context, documentID string, embedding []float32) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts[documentID] = embedding
	return nil
}

func (f *indexFake) Query(_ context.Context, _ []float32, _ int) ([]ports.Neighbor, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.neighbors, nil
}

type routerFake struct {
	team string
}

func (f *routerFake) Route(_ string, _ domain.EffortLevel) string {
	if f.team == "" {
		return "BSA Officer"
	}
	return f.team
}
