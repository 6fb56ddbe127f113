// Package export генерирует отчёты по результатам оптимизации в четырёх
// форматах: JSON, CSV, Excel и PDF. Формат выбирается клиентом, данные
// берутся из снимка оркестратора.
package export

import (
	"context"
	"fmt"
	"time"

	"resonance/pkg/apperror"
	"resonance/pkg/config"
	"resonance/pkg/metrics"
	"resonance/pkg/telemetry"
	"resonance/services/showcase-svc/internal/generator"
	"resonance/services/showcase-svc/internal/orchestrator"
	"resonance/services/showcase-svc/internal/problems"
)

// Format формат экспорта
type Format string

const (
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
	FormatExcel Format = "xlsx"
	FormatPDF   Format = "pdf"
)

// ParseFormat разбирает формат из строки запроса
func ParseFormat(s string) (Format, error) {
	switch s {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatExcel, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", apperror.New(apperror.CodeUnknownFormat,
			fmt.Sprintf("unknown export format: %q", s))
	}
}

// ContentType возвращает MIME-тип формата
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv"
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// FileName возвращает имя файла для Content-Disposition
func (f Format) FileName() string {
	return "optimization-report." + string(f)
}

// ReportData данные для генерации отчёта
type ReportData struct {
	Title       string
	CompanyName string
	GeneratedAt time.Time

	Problem    *problems.Definition
	Difficulty *problems.DifficultyConfig

	TSPInstance       *generator.TSPInstance
	SubsetSumInstance *generator.SubsetSumInstance

	Solution *orchestrator.OptimizationSolution
	Metrics  *orchestrator.OptimizationMetrics
	State    string
}

// Generator интерфейс генератора отчётов
type Generator interface {
	Generate(ctx context.Context, data *ReportData) ([]byte, error)
	Format() Format
}

// Exporter реестр генераторов
type Exporter struct {
	cfg        config.ExportConfig
	generators map[Format]Generator
	metrics    *metrics.Metrics
}

// New создаёт экспортёр со всеми генераторами
func New(cfg config.ExportConfig) *Exporter {
	e := &Exporter{
		cfg:        cfg,
		generators: make(map[Format]Generator),
		metrics:    metrics.Get(),
	}

	for _, g := range []Generator{
		NewJSONGenerator(cfg),
		NewCSVGenerator(cfg),
		NewExcelGenerator(cfg),
		NewPDFGenerator(cfg),
	} {
		e.generators[g.Format()] = g
	}
	return e
}

// Export генерирует отчёт по снимку оркестратора. Экспортировать нечего,
// пока нет решения.
func (e *Exporter) Export(ctx context.Context, format Format, snap orchestrator.Snapshot) ([]byte, error) {
	gen, ok := e.generators[format]
	if !ok {
		return nil, apperror.New(apperror.CodeUnknownFormat,
			fmt.Sprintf("no generator for format: %q", format))
	}

	if snap.Solution == nil || snap.SelectedProblem == nil {
		return nil, apperror.New(apperror.CodeNothingToExport, "no solved instance to export")
	}

	ctx, span := telemetry.StartSpan(ctx, "Exporter.Export")
	defer span.End()

	data := &ReportData{
		Title:             "Optimization Showcase Report",
		CompanyName:       e.cfg.DefaultCompanyName,
		GeneratedAt:       time.Now(),
		Problem:           snap.SelectedProblem,
		Difficulty:        snap.Difficulty,
		TSPInstance:       snap.TSPInstance,
		SubsetSumInstance: snap.SubsetSumInstance,
		Solution:          snap.Solution,
		Metrics:           snap.Metrics,
		State:             string(snap.State),
	}

	out, err := gen.Generate(ctx, data)
	if err != nil {
		e.metrics.RecordExport(string(format), false)
		telemetry.RecordError(ctx, err)
		return nil, apperror.Wrap(err, apperror.CodeExportFailed,
			fmt.Sprintf("failed to generate %s report", format))
	}

	e.metrics.RecordExport(string(format), true)
	span.SetAttributes(telemetry.ExportAttributes(string(format), len(out))...)
	return out, nil
}

// BaseGenerator базовые утилиты для генераторов
type BaseGenerator struct {
	cfg config.ExportConfig
}

// FormatFloat форматирует число с заданной точностью
func (b *BaseGenerator) FormatFloat(v float64, precision int) string {
	return fmt.Sprintf("%.*f", precision, v)
}

// FormatPercent форматирует долю как процент
func (b *BaseGenerator) FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

// FormatDuration форматирует длительность в миллисекундах
func (b *BaseGenerator) FormatDuration(ms float64) string {
	if ms < 1000 {
		return fmt.Sprintf("%.2f ms", ms)
	}
	return fmt.Sprintf("%.2f s", ms/1000)
}

// FormatTimestamp форматирует время
func (b *BaseGenerator) FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// SolutionKind возвращает человекочитаемое название решения по типу задачи
func (b *BaseGenerator) SolutionKind(data *ReportData) string {
	switch data.Problem.Type {
	case problems.TypeTSP:
		return "Tour"
	case problems.TypeSubsetSum:
		return "Selected Indices"
	case problems.TypeClique:
		return "Clique Vertices"
	default:
		return "True Variables"
	}
}

// difficultyRows пары ключ/значение параметров сложности
func (b *BaseGenerator) difficultyRows(data *ReportData) [][2]string {
	rows := [][2]string{
		{"Level", string(data.Difficulty.Level)},
	}

	p := data.Difficulty.Params
	switch data.Problem.Type {
	case problems.TypeTSP:
		rows = append(rows,
			[2]string{"Cities", fmt.Sprintf("%d", p.CityCount)},
			[2]string{"Clustered", fmt.Sprintf("%v", p.Clustered)},
		)
		if p.Clustered {
			rows = append(rows, [2]string{"Clusters", fmt.Sprintf("%d", p.ClusterCount)})
		}
	case problems.TypeSubsetSum:
		rows = append(rows,
			[2]string{"Set Size", fmt.Sprintf("%d", p.ProblemSize)},
			[2]string{"Max Weight", fmt.Sprintf("%d", p.MaxWeight)},
			[2]string{"Target Range", fmt.Sprintf("[%d, %d]", p.TargetRange[0], p.TargetRange[1])},
		)
	case problems.TypeClique:
		rows = append(rows,
			[2]string{"Vertices", fmt.Sprintf("%d", p.VertexCount)},
			[2]string{"Edge Density", b.FormatFloat(p.EdgeDensity, 2)},
		)
	default:
		rows = append(rows,
			[2]string{"Variables", fmt.Sprintf("%d", p.VariableCount)},
			[2]string{"Clauses", fmt.Sprintf("%d", p.ClauseCount)},
		)
	}
	return rows
}

// metricRows пары ключ/значение метрик решения
func (b *BaseGenerator) metricRows(data *ReportData) [][2]string {
	if data.Metrics == nil {
		return nil
	}
	m := data.Metrics
	return [][2]string{
		{"Solution Time", b.FormatDuration(m.SolutionTimeMs)},
		{"Classical Estimate", b.FormatDuration(m.ClassicalTimeMs)},
		{"Quantum Advantage", b.FormatFloat(m.QuantumAdvantage, 2) + "x"},
		{"Solution Quality", b.FormatPercent(m.SolutionQuality)},
	}
}

// ColName преобразует индекс колонки в буквенное обозначение (0 -> A, 25 -> Z, 26 -> AA)
func ColName(index int) string {
	result := ""
	for {
		result = string(rune('A'+index%26)) + result
		index = index/26 - 1
		if index < 0 {
			break
		}
	}
	return result
}

// Cell возвращает адрес ячейки
func Cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
