package export

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"resonance/pkg/apperror"
	"resonance/pkg/config"
	"resonance/services/showcase-svc/internal/generator"
	"resonance/services/showcase-svc/internal/orchestrator"
	"resonance/services/showcase-svc/internal/problems"
)

func testExportConfig() config.ExportConfig {
	return config.ExportConfig{
		MaxCitiesInTable:   20,
		MaxWeightsInTable:  30,
		IncludeMatrix:      true,
		DefaultCompanyName: "Resonance Labs",
		PDF: config.PDFConfig{
			PageSize:          "A4",
			Orientation:       "portrait",
			EnablePageNumbers: true,
		},
	}
}

func tspReportData(t *testing.T) *ReportData {
	t.Helper()

	def, err := problems.Lookup("tsp")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	params, err := problems.Resolve(def.Type, problems.LevelBeginner)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	inst, err := generator.GenerateTSP(params, 42)
	if err != nil {
		t.Fatalf("GenerateTSP() error = %v", err)
	}

	return &ReportData{
		Title:       "Optimization Showcase Report",
		CompanyName: "Resonance Labs",
		GeneratedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Problem:     def,
		Difficulty:  &problems.DifficultyConfig{Level: problems.LevelBeginner, Params: params},
		TSPInstance: inst,
		Solution: &orchestrator.OptimizationSolution{
			Solution:   []int{0, 3, 1, 2, 4, 5, 6, 7},
			Satisfied:  true,
			Iterations: 8,
		},
		Metrics: &orchestrator.OptimizationMetrics{
			SolutionTimeMs:   1.5,
			ClassicalTimeMs:  3000,
			QuantumAdvantage: 2000,
			SolutionQuality:  0.95,
		},
		State: "solved",
	}
}

func subsetReportData(t *testing.T) *ReportData {
	t.Helper()

	def, err := problems.Lookup("subset_sum")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	params, err := problems.Resolve(def.Type, problems.LevelBeginner)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	inst, err := generator.GenerateSubsetSum(params, 42, true)
	if err != nil {
		t.Fatalf("GenerateSubsetSum() error = %v", err)
	}

	return &ReportData{
		Title:             "Optimization Showcase Report",
		CompanyName:       "Resonance Labs",
		GeneratedAt:       time.Now(),
		Problem:           def,
		Difficulty:        &problems.DifficultyConfig{Level: problems.LevelBeginner, Params: params},
		SubsetSumInstance: inst,
		Solution: &orchestrator.OptimizationSolution{
			Solution:   []int{0, 2},
			Satisfied:  true,
			Iterations: 12,
		},
		State: "solved",
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"csv", FormatCSV, false},
		{"xlsx", FormatExcel, false},
		{"excel", FormatExcel, false},
		{"pdf", FormatPDF, false},
		{"docx", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseFormat(%q) expected error", tt.input)
			}
			if apperror.Code(err) != apperror.CodeUnknownFormat {
				t.Errorf("ParseFormat(%q) code = %v, want UNKNOWN_FORMAT", tt.input, apperror.Code(err))
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFormat(%q) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFormat_ContentType(t *testing.T) {
	if FormatJSON.ContentType() != "application/json" {
		t.Errorf("json content type = %s", FormatJSON.ContentType())
	}
	if FormatCSV.ContentType() != "text/csv" {
		t.Errorf("csv content type = %s", FormatCSV.ContentType())
	}
	if FormatPDF.ContentType() != "application/pdf" {
		t.Errorf("pdf content type = %s", FormatPDF.ContentType())
	}
	if !strings.Contains(FormatExcel.ContentType(), "spreadsheet") {
		t.Errorf("excel content type = %s", FormatExcel.ContentType())
	}
}

func TestJSONGenerator_Generate(t *testing.T) {
	g := NewJSONGenerator(testExportConfig())

	out, err := g.Generate(context.Background(), tspReportData(t))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	var report JSONReport
	if err := json.Unmarshal(out, &report); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if report.Problem.ID != "tsp" {
		t.Errorf("problem id = %s, want tsp", report.Problem.ID)
	}
	if !report.Result.Satisfied {
		t.Error("result should be satisfied")
	}
	if len(report.Result.Solution) != 8 {
		t.Errorf("solution length = %d, want 8", len(report.Result.Solution))
	}
	if report.Instance == nil || len(report.Instance.Cities) != 8 {
		t.Error("instance should carry 8 cities")
	}
	if len(report.Instance.DistanceMatrix) != 8 {
		t.Error("matrix should be included when configured")
	}
	if report.Metrics == nil || report.Metrics.QuantumAdvantage != 2000 {
		t.Error("metrics should carry quantum advantage")
	}
}

func TestJSONGenerator_MatrixExcluded(t *testing.T) {
	cfg := testExportConfig()
	cfg.IncludeMatrix = false
	g := NewJSONGenerator(cfg)

	out, err := g.Generate(context.Background(), tspReportData(t))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	var report JSONReport
	if err := json.Unmarshal(out, &report); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if report.Instance.DistanceMatrix != nil {
		t.Error("matrix should be omitted when disabled")
	}
}

func TestCSVGenerator_Generate_TSP(t *testing.T) {
	g := NewCSVGenerator(testExportConfig())

	out, err := g.Generate(context.Background(), tspReportData(t))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	csv := string(out)
	if !strings.Contains(csv, "Traveling Salesman") {
		t.Error("CSV should contain problem name")
	}
	if !strings.Contains(csv, "Resonance Labs") {
		t.Error("CSV should contain company name")
	}
	if !strings.Contains(csv, "Distance Matrix") {
		t.Error("CSV should contain matrix section")
	}
	if !strings.Contains(csv, "Tour") {
		t.Error("CSV should contain solution section")
	}
}

func TestCSVGenerator_Generate_SubsetSum(t *testing.T) {
	g := NewCSVGenerator(testExportConfig())

	out, err := g.Generate(context.Background(), subsetReportData(t))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	csv := string(out)
	if !strings.Contains(csv, "Subset Sum") {
		t.Error("CSV should contain problem name")
	}
	if !strings.Contains(csv, "Target") {
		t.Error("CSV should contain target")
	}
	if !strings.Contains(csv, "Selected") {
		t.Error("CSV should mark selected weights")
	}
}

func TestCSVGenerator_CityLimit(t *testing.T) {
	cfg := testExportConfig()
	cfg.MaxCitiesInTable = 3
	g := NewCSVGenerator(cfg)

	out, err := g.Generate(context.Background(), tspReportData(t))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if !strings.Contains(string(out), "and 5 more cities") {
		t.Error("CSV should truncate city table at the configured limit")
	}
}

func TestExcelGenerator_Generate(t *testing.T) {
	g := NewExcelGenerator(testExportConfig())

	out, err := g.Generate(context.Background(), subsetReportData(t))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	// xlsx - это zip-архив
	if !bytes.HasPrefix(out, []byte("PK")) {
		t.Error("xlsx output should be a zip container")
	}
}

func TestPDFGenerator_Generate(t *testing.T) {
	g := NewPDFGenerator(testExportConfig())

	out, err := g.Generate(context.Background(), tspReportData(t))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Error("output should be a PDF document")
	}
}

func TestPDFGenerator_Landscape(t *testing.T) {
	cfg := testExportConfig()
	cfg.PDF.Orientation = "landscape"
	cfg.PDF.PageSize = "Letter"
	g := NewPDFGenerator(cfg)

	out, err := g.Generate(context.Background(), subsetReportData(t))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(out) == 0 {
		t.Error("PDF output should not be empty")
	}
}

func TestExporter_Export(t *testing.T) {
	e := New(testExportConfig())
	data := tspReportData(t)

	snap := orchestrator.Snapshot{
		State:           orchestrator.StateSolved,
		SelectedProblem: data.Problem,
		Difficulty:      data.Difficulty,
		TSPInstance:     data.TSPInstance,
		Solution:        data.Solution,
		Metrics:         data.Metrics,
	}

	for _, format := range []Format{FormatJSON, FormatCSV, FormatExcel, FormatPDF} {
		out, err := e.Export(context.Background(), format, snap)
		if err != nil {
			t.Errorf("Export(%s) error = %v", format, err)
			continue
		}
		if len(out) == 0 {
			t.Errorf("Export(%s) returned empty output", format)
		}
	}
}

func TestExporter_NothingToExport(t *testing.T) {
	e := New(testExportConfig())

	_, err := e.Export(context.Background(), FormatJSON, orchestrator.Snapshot{
		State: orchestrator.StateIdle,
	})
	if apperror.Code(err) != apperror.CodeNothingToExport {
		t.Errorf("code = %v, want NOTHING_TO_EXPORT", apperror.Code(err))
	}
}

func TestExporter_UnknownFormat(t *testing.T) {
	e := New(testExportConfig())
	data := tspReportData(t)

	_, err := e.Export(context.Background(), Format("docx"), orchestrator.Snapshot{
		State:           orchestrator.StateSolved,
		SelectedProblem: data.Problem,
		Difficulty:      data.Difficulty,
		Solution:        data.Solution,
	})
	if apperror.Code(err) != apperror.CodeUnknownFormat {
		t.Errorf("code = %v, want UNKNOWN_FORMAT", apperror.Code(err))
	}
}
