package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"resonance/pkg/config"
)

// ExcelGenerator генератор Excel отчётов
type ExcelGenerator struct {
	BaseGenerator
}

// NewExcelGenerator создаёт новый генератор
func NewExcelGenerator(cfg config.ExportConfig) *ExcelGenerator {
	return &ExcelGenerator{BaseGenerator{cfg: cfg}}
}

// Format возвращает формат генератора
func (g *ExcelGenerator) Format() Format {
	return FormatExcel
}

// Generate генерирует Excel отчёт
func (g *ExcelGenerator) Generate(ctx context.Context, data *ReportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	g.writeSummarySheet(f, data)
	g.writeInstanceSheet(f, data)

	// Удаляем дефолтный лист
	f.DeleteSheet("Sheet1")

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (g *ExcelGenerator) headerStyle(f *excelize.File) int {
	style, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	return style
}

func (g *ExcelGenerator) writeSummarySheet(f *excelize.File, data *ReportData) {
	sheetName := "Summary"
	f.NewSheet(sheetName)
	headerStyle := g.headerStyle(f)

	row := 1

	// Заголовок
	f.SetCellValue(sheetName, Cell("A", row), data.Title)
	f.MergeCell(sheetName, Cell("A", row), Cell("D", row))
	row++
	f.SetCellValue(sheetName, Cell("A", row), "Company")
	f.SetCellValue(sheetName, Cell("B", row), data.CompanyName)
	row++
	f.SetCellValue(sheetName, Cell("A", row), "Generated")
	f.SetCellValue(sheetName, Cell("B", row), g.FormatTimestamp(data.GeneratedAt))
	row += 2

	// Задача
	f.SetCellValue(sheetName, Cell("A", row), "Problem")
	f.SetCellStyle(sheetName, Cell("A", row), Cell("B", row), headerStyle)
	row++
	f.SetCellValue(sheetName, Cell("A", row), "Name")
	f.SetCellValue(sheetName, Cell("B", row), data.Problem.Name)
	row++
	f.SetCellValue(sheetName, Cell("A", row), "Complexity")
	f.SetCellValue(sheetName, Cell("B", row), data.Problem.ComplexityClass)
	row++
	for _, kv := range g.difficultyRows(data) {
		f.SetCellValue(sheetName, Cell("A", row), kv[0])
		f.SetCellValue(sheetName, Cell("B", row), kv[1])
		row++
	}
	row++

	// Результат
	f.SetCellValue(sheetName, Cell("A", row), "Result")
	f.SetCellStyle(sheetName, Cell("A", row), Cell("B", row), headerStyle)
	row++
	f.SetCellValue(sheetName, Cell("A", row), "State")
	f.SetCellValue(sheetName, Cell("B", row), data.State)
	row++
	f.SetCellValue(sheetName, Cell("A", row), "Satisfied")
	f.SetCellValue(sheetName, Cell("B", row), data.Solution.Satisfied)
	row++
	f.SetCellValue(sheetName, Cell("A", row), "Iterations")
	f.SetCellValue(sheetName, Cell("B", row), data.Solution.Iterations)
	row++
	for _, kv := range g.metricRows(data) {
		f.SetCellValue(sheetName, Cell("A", row), kv[0])
		f.SetCellValue(sheetName, Cell("B", row), kv[1])
		row++
	}
	row++

	// Решение одной строкой
	f.SetCellValue(sheetName, Cell("A", row), g.SolutionKind(data))
	f.SetCellStyle(sheetName, Cell("A", row), Cell("A", row), headerStyle)
	row++
	for i, v := range data.Solution.Solution {
		f.SetCellValue(sheetName, Cell(ColName(i), row), v)
	}

	f.SetColWidth(sheetName, "A", "A", 24)
	f.SetColWidth(sheetName, "B", "B", 28)
}

func (g *ExcelGenerator) writeInstanceSheet(f *excelize.File, data *ReportData) {
	switch {
	case data.TSPInstance != nil:
		g.writeTSPSheet(f, data)
	case data.SubsetSumInstance != nil:
		g.writeSubsetSumSheet(f, data)
	}
}

func (g *ExcelGenerator) writeTSPSheet(f *excelize.File, data *ReportData) {
	sheetName := "Cities"
	f.NewSheet(sheetName)
	headerStyle := g.headerStyle(f)
	inst := data.TSPInstance

	row := 1
	headers := []string{"Index", "X", "Y"}
	for i, h := range headers {
		f.SetCellValue(sheetName, Cell(ColName(i), row), h)
	}
	f.SetCellStyle(sheetName, Cell("A", row), Cell("C", row), headerStyle)
	row++

	for i, c := range inst.Cities {
		f.SetCellValue(sheetName, Cell("A", row), i)
		f.SetCellValue(sheetName, Cell("B", row), c.X)
		f.SetCellValue(sheetName, Cell("C", row), c.Y)
		row++
	}

	if g.cfg.IncludeMatrix {
		matrixSheet := "Distance Matrix"
		f.NewSheet(matrixSheet)
		for i, dists := range inst.DistanceMatrix {
			for j, d := range dists {
				f.SetCellValue(matrixSheet, Cell(ColName(j), i+1), d)
			}
		}
	}
}

func (g *ExcelGenerator) writeSubsetSumSheet(f *excelize.File, data *ReportData) {
	sheetName := "Weights"
	f.NewSheet(sheetName)
	headerStyle := g.headerStyle(f)
	inst := data.SubsetSumInstance

	selected := make(map[int]bool, len(data.Solution.Solution))
	for _, i := range data.Solution.Solution {
		selected[i] = true
	}

	row := 1
	f.SetCellValue(sheetName, Cell("A", row), "Target")
	f.SetCellValue(sheetName, Cell("B", row), inst.Target)
	row += 2

	headers := []string{"Index", "Weight", "Selected"}
	for i, h := range headers {
		f.SetCellValue(sheetName, Cell(ColName(i), row), h)
	}
	f.SetCellStyle(sheetName, Cell("A", row), Cell("C", row), headerStyle)
	row++

	for i, w := range inst.Weights {
		f.SetCellValue(sheetName, Cell("A", row), i)
		f.SetCellValue(sheetName, Cell("B", row), w)
		f.SetCellValue(sheetName, Cell("C", row), fmt.Sprintf("%v", selected[i]))
		row++
	}
}
