package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"resonance/pkg/apperror"
	"resonance/pkg/logger"
)

// Recovery перехватывает паники обработчиков и отвечает 500, не роняя
// процесс
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Log.Error("Handler panic",
					"panic", rec,
					"path", r.URL.Path,
					"request_id", GetRequestID(r.Context()),
					"stack", string(debug.Stack()),
				)
				writeError(w, apperror.New(apperror.CodeInternal, "internal server error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// writeError пишет ошибку в JSON-конверте, общем для всего сервиса
func writeError(w http.ResponseWriter, err *apperror.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus())

	resp := map[string]any{
		"error": map[string]any{
			"code":    string(err.Code),
			"message": err.Message,
		},
	}
	if encErr := json.NewEncoder(w).Encode(resp); encErr != nil {
		logger.Log.Error("Failed to encode error response", "error", encErr.Error())
	}
}
