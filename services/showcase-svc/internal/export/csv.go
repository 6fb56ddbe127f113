package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"

	"resonance/pkg/config"
)

// CSVGenerator генератор CSV отчётов
type CSVGenerator struct {
	BaseGenerator
}

// NewCSVGenerator создаёт новый генератор
func NewCSVGenerator(cfg config.ExportConfig) *CSVGenerator {
	return &CSVGenerator{BaseGenerator{cfg: cfg}}
}

// Format возвращает формат генератора
func (g *CSVGenerator) Format() Format {
	return FormatCSV
}

// csvWriter обёртка для отслеживания ошибок
type csvWriter struct {
	w   *csv.Writer
	err error
}

func (cw *csvWriter) Write(record []string) {
	if cw.err != nil {
		return
	}
	cw.err = cw.w.Write(record)
}

func (cw *csvWriter) Flush() {
	if cw.err != nil {
		return
	}
	cw.w.Flush()
	cw.err = cw.w.Error()
}

func (cw *csvWriter) Error() error {
	return cw.err
}

// Generate генерирует CSV отчёт
func (g *CSVGenerator) Generate(ctx context.Context, data *ReportData) ([]byte, error) {
	var buf bytes.Buffer
	cw := &csvWriter{w: csv.NewWriter(&buf)}

	cw.Write([]string{"# " + data.Title})
	cw.Write([]string{"Company", data.CompanyName})
	cw.Write([]string{"Generated", g.FormatTimestamp(data.GeneratedAt)})
	cw.Write([]string{""})

	g.writeProblemCSV(cw, data)
	g.writeResultCSV(cw, data)
	g.writeInstanceCSV(cw, data)

	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("csv write error: %w", err)
	}

	return buf.Bytes(), nil
}

func (g *CSVGenerator) writeProblemCSV(w *csvWriter, data *ReportData) {
	w.Write([]string{"Problem"})
	w.Write([]string{"Name", data.Problem.Name})
	w.Write([]string{"Type", string(data.Problem.Type)})
	w.Write([]string{"Complexity", data.Problem.ComplexityClass})
	for _, row := range g.difficultyRows(data) {
		w.Write([]string{row[0], row[1]})
	}
	w.Write([]string{""})
}

func (g *CSVGenerator) writeResultCSV(w *csvWriter, data *ReportData) {
	w.Write([]string{"Result"})
	w.Write([]string{"State", data.State})
	w.Write([]string{"Satisfied", fmt.Sprintf("%v", data.Solution.Satisfied)})
	w.Write([]string{"Iterations", fmt.Sprintf("%d", data.Solution.Iterations)})
	for _, row := range g.metricRows(data) {
		w.Write([]string{row[0], row[1]})
	}
	w.Write([]string{""})

	w.Write([]string{g.SolutionKind(data)})
	row := make([]string, 0, len(data.Solution.Solution))
	for _, v := range data.Solution.Solution {
		row = append(row, fmt.Sprintf("%d", v))
	}
	w.Write(row)
	w.Write([]string{""})
}

func (g *CSVGenerator) writeInstanceCSV(w *csvWriter, data *ReportData) {
	switch {
	case data.TSPInstance != nil:
		g.writeTSPInstanceCSV(w, data)
	case data.SubsetSumInstance != nil:
		g.writeSubsetSumInstanceCSV(w, data)
	}
}

func (g *CSVGenerator) writeTSPInstanceCSV(w *csvWriter, data *ReportData) {
	inst := data.TSPInstance

	w.Write([]string{"Cities"})
	w.Write([]string{"Index", "X", "Y"})

	limit := g.cfg.MaxCitiesInTable
	if limit <= 0 || limit > len(inst.Cities) {
		limit = len(inst.Cities)
	}
	for i := 0; i < limit; i++ {
		w.Write([]string{
			fmt.Sprintf("%d", i),
			g.FormatFloat(inst.Cities[i].X, 2),
			g.FormatFloat(inst.Cities[i].Y, 2),
		})
	}
	if limit < len(inst.Cities) {
		w.Write([]string{fmt.Sprintf("... and %d more cities", len(inst.Cities)-limit)})
	}
	w.Write([]string{""})

	if g.cfg.IncludeMatrix {
		w.Write([]string{"Distance Matrix"})
		for _, dists := range inst.DistanceMatrix {
			row := make([]string, 0, len(dists))
			for _, d := range dists {
				row = append(row, g.FormatFloat(d, 2))
			}
			w.Write(row)
		}
		w.Write([]string{""})
	}
}

func (g *CSVGenerator) writeSubsetSumInstanceCSV(w *csvWriter, data *ReportData) {
	inst := data.SubsetSumInstance

	selected := make(map[int]bool, len(data.Solution.Solution))
	for _, i := range data.Solution.Solution {
		selected[i] = true
	}

	w.Write([]string{"Target", fmt.Sprintf("%d", inst.Target)})
	w.Write([]string{""})
	w.Write([]string{"Weights"})
	w.Write([]string{"Index", "Weight", "Selected"})

	limit := g.cfg.MaxWeightsInTable
	if limit <= 0 || limit > len(inst.Weights) {
		limit = len(inst.Weights)
	}
	for i := 0; i < limit; i++ {
		w.Write([]string{
			fmt.Sprintf("%d", i),
			fmt.Sprintf("%d", inst.Weights[i]),
			fmt.Sprintf("%v", selected[i]),
		})
	}
	if limit < len(inst.Weights) {
		w.Write([]string{fmt.Sprintf("... and %d more weights", len(inst.Weights)-limit)})
	}
}
