// Package handlers реализует REST API сервиса витрины. Маршруты
// регистрируются на стандартном mux с паттернами методов, ошибки
// отдаются единым JSON-конвертом с кодом приложения.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"resonance/pkg/apperror"
	"resonance/pkg/logger"
	"resonance/services/showcase-svc/internal/export"
	"resonance/services/showcase-svc/internal/middleware"
	"resonance/services/showcase-svc/internal/problems"
	"resonance/services/showcase-svc/internal/session"
)

// Handler обработчики REST API
type Handler struct {
	sessions *session.Manager
	exporter *export.Exporter
}

// New создаёт обработчики
func New(sessions *session.Manager, exporter *export.Exporter) *Handler {
	return &Handler{
		sessions: sessions,
		exporter: exporter,
	}
}

// Register регистрирует маршруты
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/problems", h.ListProblems)

	mux.HandleFunc("POST /api/v1/sessions", h.CreateSession)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", h.DeleteSession)
	mux.HandleFunc("GET /api/v1/sessions/{id}/state", h.GetState)
	mux.HandleFunc("POST /api/v1/sessions/{id}/problem", h.SelectProblem)
	mux.HandleFunc("POST /api/v1/sessions/{id}/difficulty", h.SetDifficulty)
	mux.HandleFunc("POST /api/v1/sessions/{id}/regenerate", h.Regenerate)
	mux.HandleFunc("POST /api/v1/sessions/{id}/solve", h.Solve)
	mux.HandleFunc("POST /api/v1/sessions/{id}/reset", h.Reset)
	mux.HandleFunc("GET /api/v1/sessions/{id}/export", h.Export)

	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ready", h.Ready)
}

// ListProblems отдаёт каталог задач
func (h *Handler) ListProblems(w http.ResponseWriter, r *http.Request) {
	catalog := problems.Catalog()

	type problemView struct {
		ID              string         `json:"id"`
		Name            string         `json:"name"`
		Description     string         `json:"description"`
		Type            string         `json:"type"`
		ComplexityClass string         `json:"complexityClass"`
		DefaultLevel    string         `json:"defaultLevel"`
		Levels          []string       `json:"levels"`
		Difficulty      map[string]any `json:"difficulty"`
	}

	views := make([]problemView, 0, len(catalog))
	for i := range catalog {
		def := &catalog[i]

		levels := make([]string, 0, len(problems.AllLevels()))
		difficulty := make(map[string]any, len(def.Difficulty))
		for _, lvl := range problems.AllLevels() {
			params, ok := def.Difficulty[lvl]
			if !ok {
				continue
			}
			levels = append(levels, string(lvl))
			difficulty[string(lvl)] = params
		}

		defaultParams := def.Difficulty[def.DefaultLevel]
		views = append(views, problemView{
			ID:              def.ID,
			Name:            def.Name,
			Description:     problems.DisplayCopy(def, defaultParams),
			Type:            string(def.Type),
			ComplexityClass: def.ComplexityClass,
			DefaultLevel:    string(def.DefaultLevel),
			Levels:          levels,
			Difficulty:      difficulty,
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"problems": views})
}

// CreateSession создаёт новую сессию
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Create()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]any{
		"sessionId": s.ID,
		"state":     s.Orchestrator.Snapshot().State,
	})
}

// DeleteSession удаляет сессию
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	h.sessions.Delete(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

// GetState отдаёт снимок состояния сессии
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, s.Orchestrator.Snapshot())
}

type selectProblemRequest struct {
	ProblemID string `json:"problemId"`
}

// SelectProblem выбирает задачу в сессии
func (h *Handler) SelectProblem(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req selectProblemRequest
	if err := h.decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.ProblemID == "" {
		h.writeError(w, r, apperror.NewWithField(apperror.CodeInvalidArgument, "problemId is required", "problemId"))
		return
	}

	if err := s.Orchestrator.SelectProblem(req.ProblemID); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, s.Orchestrator.Snapshot())
}

type setDifficultyRequest struct {
	Level string `json:"level"`
}

// SetDifficulty меняет уровень сложности
func (h *Handler) SetDifficulty(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req setDifficultyRequest
	if err := h.decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	level, err := problems.ParseLevel(req.Level)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := s.Orchestrator.SetDifficulty(level); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, s.Orchestrator.Snapshot())
}

// Regenerate строит новый экземпляр задачи
func (h *Handler) Regenerate(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := s.Orchestrator.Regenerate(); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, s.Orchestrator.Snapshot())
}

// Solve запускает решение текущего экземпляра
func (h *Handler) Solve(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx := middleware.WithSessionID(r.Context(), s.ID)
	if err := s.Orchestrator.Solve(ctx); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, s.Orchestrator.Snapshot())
}

// Reset возвращает сессию в исходное состояние
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	s.Orchestrator.Reset()
	h.writeJSON(w, http.StatusOK, s.Orchestrator.Snapshot())
}

// Export отдаёт отчёт в запрошенном формате
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out, err := h.exporter.Export(r.Context(), format, s.Orchestrator.Snapshot())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.FileName()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		logger.Log.Error("Failed to write export body", "error", err.Error())
	}
}

// Health liveness-проба
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready readiness-проба: сервис готов, пока реестр сессий жив
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ready",
		"sessions": h.sessions.Count(),
	})
}

// session извлекает сессию по path-параметру
func (h *Handler) session(r *http.Request) (*session.Session, error) {
	return h.sessions.Get(r.PathValue("id"))
}

// decodeBody разбирает JSON тело запроса
func (h *Handler) decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.Wrap(err, apperror.CodeInvalidArgument, "invalid request body")
	}
	return nil
}

// writeJSON пишет успешный ответ
func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Log.Error("Failed to encode response", "error", err.Error())
	}
}

// writeError пишет ошибку в едином конверте
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := toAppError(err)

	logger.Log.Warn("Request error",
		"path", r.URL.Path,
		"code", string(appErr.Code),
		"error", appErr.Error(),
		"request_id", middleware.GetRequestID(r.Context()),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.HTTPStatus())

	resp := map[string]any{
		"error": map[string]any{
			"code":    string(appErr.Code),
			"message": appErr.Message,
		},
	}
	if appErr.Field != "" {
		resp["error"].(map[string]any)["field"] = appErr.Field
	}
	if encErr := json.NewEncoder(w).Encode(resp); encErr != nil {
		logger.Log.Error("Failed to encode error response", "error", encErr.Error())
	}
}

// toAppError нормализует произвольную ошибку в ошибку приложения
func toAppError(err error) *apperror.Error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.Wrap(err, apperror.CodeInternal, "internal server error")
}
