package export

import (
	"context"
	"encoding/json"

	"resonance/pkg/config"
)

// JSONGenerator генератор JSON отчётов
type JSONGenerator struct {
	BaseGenerator
}

// NewJSONGenerator создаёт новый генератор
func NewJSONGenerator(cfg config.ExportConfig) *JSONGenerator {
	return &JSONGenerator{BaseGenerator{cfg: cfg}}
}

// Format возвращает формат генератора
func (g *JSONGenerator) Format() Format {
	return FormatJSON
}

// JSONReport структура JSON отчёта
type JSONReport struct {
	Metadata JSONMetadata  `json:"metadata"`
	Problem  JSONProblem   `json:"problem"`
	Instance *JSONInstance `json:"instance,omitempty"`
	Result   JSONResult    `json:"result"`
	Metrics  *JSONMetrics  `json:"metrics,omitempty"`
}

type JSONMetadata struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	GeneratedAt string `json:"generatedAt"`
	State       string `json:"state"`
	Version     string `json:"version"`
}

type JSONProblem struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Type            string            `json:"type"`
	ComplexityClass string            `json:"complexityClass"`
	Difficulty      string            `json:"difficulty"`
	Parameters      map[string]string `json:"parameters"`
}

type JSONInstance struct {
	Seed           int64        `json:"seed"`
	CityCount      int          `json:"cityCount,omitempty"`
	Cities         [][2]float64 `json:"cities,omitempty"`
	DistanceMatrix [][]float64  `json:"distanceMatrix,omitempty"`
	Weights        []int64      `json:"weights,omitempty"`
	Target         int64        `json:"target,omitempty"`
}

type JSONResult struct {
	SolutionKind string `json:"solutionKind"`
	Solution     []int  `json:"solution"`
	Satisfied    bool   `json:"satisfied"`
	Iterations   int    `json:"iterations"`
}

type JSONMetrics struct {
	SolutionTimeMs   float64 `json:"solutionTimeMs"`
	ClassicalTimeMs  float64 `json:"classicalTimeMs"`
	QuantumAdvantage float64 `json:"quantumAdvantage"`
	SolutionQuality  float64 `json:"solutionQuality"`
}

// Generate генерирует JSON отчёт
func (g *JSONGenerator) Generate(ctx context.Context, data *ReportData) ([]byte, error) {
	report := JSONReport{
		Metadata: JSONMetadata{
			Title:       data.Title,
			Company:     data.CompanyName,
			GeneratedAt: g.FormatTimestamp(data.GeneratedAt),
			State:       data.State,
			Version:     "1.0",
		},
		Problem: JSONProblem{
			ID:              data.Problem.ID,
			Name:            data.Problem.Name,
			Type:            string(data.Problem.Type),
			ComplexityClass: data.Problem.ComplexityClass,
			Difficulty:      string(data.Difficulty.Level),
			Parameters:      g.paramMap(data),
		},
		Instance: g.buildInstance(data),
		Result: JSONResult{
			SolutionKind: g.SolutionKind(data),
			Solution:     data.Solution.Solution,
			Satisfied:    data.Solution.Satisfied,
			Iterations:   data.Solution.Iterations,
		},
	}

	if data.Metrics != nil {
		report.Metrics = &JSONMetrics{
			SolutionTimeMs:   data.Metrics.SolutionTimeMs,
			ClassicalTimeMs:  data.Metrics.ClassicalTimeMs,
			QuantumAdvantage: data.Metrics.QuantumAdvantage,
			SolutionQuality:  data.Metrics.SolutionQuality,
		}
	}

	return json.MarshalIndent(report, "", "  ")
}

func (g *JSONGenerator) paramMap(data *ReportData) map[string]string {
	params := make(map[string]string)
	for _, row := range g.difficultyRows(data) {
		params[row[0]] = row[1]
	}
	return params
}

func (g *JSONGenerator) buildInstance(data *ReportData) *JSONInstance {
	switch {
	case data.TSPInstance != nil:
		inst := &JSONInstance{
			Seed:      data.TSPInstance.Seed,
			CityCount: len(data.TSPInstance.Cities),
		}
		for _, c := range data.TSPInstance.Cities {
			inst.Cities = append(inst.Cities, [2]float64{c.X, c.Y})
		}
		if g.cfg.IncludeMatrix {
			inst.DistanceMatrix = data.TSPInstance.DistanceMatrix
		}
		return inst

	case data.SubsetSumInstance != nil:
		return &JSONInstance{
			Seed:    data.SubsetSumInstance.Seed,
			Weights: data.SubsetSumInstance.Weights,
			Target:  data.SubsetSumInstance.Target,
		}

	default:
		return nil
	}
}
