package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Стандартные ключи атрибутов
const (
	// Сессия
	AttrSessionID    = "session.id"
	AttrSessionPhase = "session.phase"

	// Экземпляр задачи
	AttrProblemType  = "instance.problem_type"
	AttrDifficulty   = "instance.difficulty"
	AttrInstanceSeed = "instance.seed"
	AttrInstanceSize = "instance.size"
	AttrInstanceHash = "instance.hash"

	// Решение
	AttrSolveRoute  = "solve.route"
	AttrSolveStatus = "solve.status"
	AttrSolverID    = "solve.solver_id"
	AttrFallback    = "solve.fallback"
	AttrAchievedSum = "solve.achieved_sum"
	AttrTourLength  = "solve.tour_length"
	AttrSatisfied   = "solve.satisfied"

	// Экспорт
	AttrExportFormat = "export.format"
	AttrExportBytes  = "export.bytes"
)

// SessionAttributes возвращает атрибуты сессии
func SessionAttributes(sessionID, phase string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrSessionID, sessionID),
		attribute.String(AttrSessionPhase, phase),
	}
}

// InstanceAttributes возвращает атрибуты экземпляра задачи
func InstanceAttributes(problemType, difficulty string, seed int64, size int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrProblemType, problemType),
		attribute.String(AttrDifficulty, difficulty),
		attribute.Int64(AttrInstanceSeed, seed),
		attribute.Int(AttrInstanceSize, size),
	}
}

// SolveAttributes возвращает атрибуты попытки решения
func SolveAttributes(route, status string, fallback bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrSolveRoute, route),
		attribute.String(AttrSolveStatus, status),
		attribute.Bool(AttrFallback, fallback),
	}
}

// ExportAttributes возвращает атрибуты экспорта
func ExportAttributes(format string, bytes int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrExportFormat, format),
		attribute.Int(AttrExportBytes, bytes),
	}
}
