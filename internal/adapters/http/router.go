// Package httpadapter exposes the ingestion, pipeline trigger and review
// endpoints of the service.
package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dkozyrev/reg-radar/internal/core/domain"
	"github.com/dkozyrev/reg-radar/internal/core/ports"
	"github.com/dkozyrev/reg-radar/internal/observability/metrics"
)

type Router struct {
	gateway         ports.DedupGateway
	classifier      ports.RelevanceClassifier
	analyzer        ports.GapAnalyzer
	generator       ports.TaskGenerator
	ranker          ports.PriorityRanker
	docs            ports.DocumentReader
	classifications ports.ClassificationRepository
	analyses        ports.GapAnalysisRepository
	tasks           ports.TaskRepository

	serverMetrics *metrics.HTTPServerMetrics
	serviceName   string
}

func NewRouter(
	gateway ports.DedupGateway,
	classifier ports.RelevanceClassifier,
	analyzer ports.GapAnalyzer,
	generator ports.TaskGenerator,
	ranker ports.PriorityRanker,
	docs ports.DocumentReader,
	classifications ports.ClassificationRepository,
	analyses ports.GapAnalysisRepository,
	tasks ports.TaskRepository,
) *Router {
	return &Router{
		gateway:         gateway,
		classifier:      classifier,
		analyzer:        analyzer,
		generator:       generator,
		ranker:          ranker,
		docs:            docs,
		classifications: classifications,
		analyses:        analyses,
		tasks:           tasks,
	}
}

// WithMetrics attaches request accounting; nil-safe to skip in tests.
func (rt *Router) WithMetrics(m *metrics.HTTPServerMetrics, serviceName string) *Router {
	rt.serverMetrics = m
	rt.serviceName = serviceName
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.documents)
	mux.HandleFunc("/v1/documents/", rt.documentSubresource)
	mux.HandleFunc("/v1/gap-analyses/", rt.gapAnalysisSubresource)
	mux.HandleFunc("/v1/tasks", rt.listTasks)
	mux.HandleFunc("/v1/tasks/", rt.taskByID)
	mux.HandleFunc("/v1/priority", rt.priority)
	if rt.serverMetrics != nil {
		mux.Handle("/metrics", rt.serverMetrics.Handler())
	}

	var handler http.Handler = mux
	if rt.serverMetrics != nil {
		handler = rt.serverMetrics.Middleware(rt.serviceName, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type admitRequest struct {
	Source      string         `json:"source"`
	ExternalID  string         `json:"external_id"`
	Title       string         `json:"title"`
	URL         string         `json:"url"`
	Content     string         `json:"content"`
	PublishedAt *time.Time     `json:"published_at"`
	Metadata    map[string]any `json:"metadata"`
}

func (rt *Router) documents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.admitDocument(w, r)
	case http.MethodGet:
		rt.listDocuments(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (rt *Router) admitDocument(w http.ResponseWriter, r *http.Request) {
	var req admitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json"))
		return
	}

	result, err := rt.gateway.Admit(r.Context(), ports.AdmitRequest{
		Source:      domain.DocumentSource(req.Source),
		ExternalID:  req.ExternalID,
		Title:       req.Title,
		URL:         req.URL,
		Content:     req.Content,
		PublishedAt: req.PublishedAt,
		Metadata:    req.Metadata,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.serverMetrics != nil {
		rt.serverMetrics.RecordAdmission(rt.serviceName, req.Source, result.Created)
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{
		"document": result.Document,
		"created":  result.Created,
	})
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	filter := domain.DocumentFilter{
		Source: domain.DocumentSource(r.URL.Query().Get("source")),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}
	if filter.Source != "" && !filter.Source.Valid() {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown source"))
		return
	}

	docs, err := rt.docs.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (rt *Router) documentSubresource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("document id is required"))
		return
	}

	switch action {
	case "":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		doc, err := rt.docs.GetByID(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, doc)
	case "classification":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		cls, err := rt.classifications.GetByDocumentID(r.Context(), id)
		if err != nil {
			// On a read, an absent classification is a 404, not the
			// pipeline's precondition conflict.
			if domain.IsKind(err, domain.ErrClassificationMissing) {
				writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
				return
			}
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cls)
	case "gap-analysis":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		ga, err := rt.analyses.GetByDocumentID(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ga)
	case "classify":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		cls, err := rt.classifier.Classify(r.Context(), id)
		if err != nil && !domain.IsKind(err, domain.ErrAlreadyClassified) {
			writeError(w, err)
			return
		}
		// A repeat trigger returns the existing record as a success.
		writeJSON(w, http.StatusOK, cls)
	case "analyze":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		ga, err := rt.analyzer.Analyze(r.Context(), id)
		if err != nil && !domain.IsKind(err, domain.ErrAlreadyAnalyzed) {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ga)
	default:
		http.NotFound(w, r)
	}
}

func (rt *Router) gapAnalysisSubresource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/gap-analyses/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" || action != "tasks" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodPost:
		result, err := rt.generator.Generate(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"tasks":         emptyIfNil(result.Tasks),
			"created_count": result.CreatedCount,
		})
	case http.MethodGet:
		tasks, err := rt.tasks.ListByGapAnalysisID(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"tasks": emptyIfNil(tasks)})
	default:
		methodNotAllowed(w)
	}
}

func (rt *Router) listTasks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	filter := domain.TaskFilter{
		Status:   domain.TaskStatus(r.URL.Query().Get("status")),
		Team:     r.URL.Query().Get("team"),
		Priority: domain.TaskPriority(r.URL.Query().Get("priority")),
		Limit:    queryInt(r, "limit"),
		Offset:   queryInt(r, "offset"),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown status"))
		return
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown priority"))
		return
	}

	tasks, err := rt.tasks.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": emptyIfNil(tasks)})
}

type taskUpdateRequest struct {
	Status       *string    `json:"status"`
	AssignedTeam *string    `json:"assigned_team"`
	Priority     *string    `json:"priority"`
	DueAt        *time.Time `json:"due_at"`
}

func (rt *Router) taskByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/tasks/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		task, err := rt.tasks.GetByID(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	case http.MethodPatch:
		var req taskUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid json"))
			return
		}

		update := domain.TaskUpdate{DueAt: req.DueAt}
		if req.Status != nil {
			status := domain.TaskStatus(*req.Status)
			update.Status = &status
		}
		if req.AssignedTeam != nil {
			update.AssignedTeam = req.AssignedTeam
		}
		if req.Priority != nil {
			priority := domain.TaskPriority(*req.Priority)
			update.Priority = &priority
		}

		task, err := rt.generator.Update(r.Context(), id, update)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	default:
		methodNotAllowed(w)
	}
}

func (rt *Router) priority(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	summaries, err := rt.ranker.Rank(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if summaries == nil {
		summaries = []domain.DocumentSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": summaries})
}

func emptyIfNil(tasks []domain.Task) []domain.Task {
	if tasks == nil {
		return []domain.Task{}
	}
	return tasks
}

func queryInt(r *http.Request, key string) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, errorBody("method not allowed"))
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), errorBody(err.Error()))
}
