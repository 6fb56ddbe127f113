package export

import (
	"context"
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	marotocfg "github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/core/entity"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"resonance/pkg/config"
	"resonance/services/showcase-svc/internal/problems"
)

// PDFGenerator генератор PDF отчётов
type PDFGenerator struct {
	BaseGenerator
}

// NewPDFGenerator создаёт новый генератор
func NewPDFGenerator(cfg config.ExportConfig) *PDFGenerator {
	return &PDFGenerator{BaseGenerator{cfg: cfg}}
}

// Format возвращает формат генератора
func (g *PDFGenerator) Format() Format {
	return FormatPDF
}

// Стили
var (
	// Цвета
	primaryColor   = &props.Color{Red: 52, Green: 152, Blue: 219}  // #3498db
	headerBgColor  = &props.Color{Red: 44, Green: 62, Blue: 80}    // #2c3e50
	successColor   = &props.Color{Red: 39, Green: 174, Blue: 96}   // #27ae60
	dangerColor    = &props.Color{Red: 231, Green: 76, Blue: 60}   // #e74c3c
	lightGrayColor = &props.Color{Red: 236, Green: 240, Blue: 241} // #ecf0f1
	darkGrayColor  = &props.Color{Red: 127, Green: 140, Blue: 141} // #7f8c8d

	// Стили текста
	titleStyle = props.Text{
		Size:  24,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: headerBgColor,
	}

	h2Style = props.Text{
		Size:  16,
		Style: fontstyle.Bold,
		Color: headerBgColor,
		Top:   5,
	}

	normalStyle = props.Text{
		Size: 10,
	}

	boldStyle = props.Text{
		Size:  10,
		Style: fontstyle.Bold,
	}

	smallStyle = props.Text{
		Size:  8,
		Color: darkGrayColor,
	}

	metricValueStyle = props.Text{
		Size:  20,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: primaryColor,
	}

	metricLabelStyle = props.Text{
		Size:  9,
		Align: align.Center,
		Color: darkGrayColor,
	}

	tableHeaderStyle = &props.Cell{
		BackgroundColor: primaryColor,
	}

	tableHeaderTextStyle = props.Text{
		Size:  9,
		Style: fontstyle.Bold,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
		Align: align.Center,
	}

	tableCellStyle = &props.Cell{
		BorderType:  border.Bottom,
		BorderColor: lightGrayColor,
	}

	tableCellTextStyle = props.Text{
		Size:  9,
		Align: align.Center,
	}
)

// Generate генерирует PDF отчёт
func (g *PDFGenerator) Generate(ctx context.Context, data *ReportData) ([]byte, error) {
	m := maroto.New(g.buildConfig())

	g.addHeader(m, data)
	g.addProblemSection(m, data)
	g.addResultSection(m, data)
	g.addInstanceSection(m, data)
	g.addFooter(m)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

// buildConfig собирает конфигурацию страницы из настроек экспорта
func (g *PDFGenerator) buildConfig() *entity.Config {
	pdf := g.cfg.PDF

	builder := marotocfg.NewBuilder()

	if pdf.EnablePageNumbers {
		builder = builder.WithPageNumber()
	}

	switch pdf.PageSize {
	case "Letter":
		builder = builder.WithPageSize(pagesize.Letter)
	case "Legal":
		builder = builder.WithPageSize(pagesize.Legal)
	default:
		builder = builder.WithPageSize(pagesize.A4)
	}

	if pdf.Orientation == "landscape" {
		builder = builder.WithOrientation(orientation.Horizontal)
	}

	left, top, right := 15.0, 15.0, 15.0
	if pdf.MarginLeft > 0 {
		left = pdf.MarginLeft
	}
	if pdf.MarginTop > 0 {
		top = pdf.MarginTop
	}
	if pdf.MarginRight > 0 {
		right = pdf.MarginRight
	}

	return builder.
		WithLeftMargin(left).
		WithTopMargin(top).
		WithRightMargin(right).
		Build()
}

func (g *PDFGenerator) addHeader(m core.Maroto, data *ReportData) {
	m.AddRow(15,
		text.NewCol(12, data.Title, titleStyle),
	)

	m.AddRow(5,
		line.NewCol(12),
	)

	m.AddRow(6,
		text.NewCol(6, fmt.Sprintf("Company: %s", data.CompanyName), smallStyle),
		text.NewCol(6, fmt.Sprintf("Generated: %s", g.FormatTimestamp(data.GeneratedAt)),
			props.Text{Size: 8, Color: darkGrayColor, Align: align.Right}),
	)

	m.AddRow(8) // Отступ
}

func (g *PDFGenerator) addProblemSection(m core.Maroto, data *ReportData) {
	g.addSection(m, data.Problem.Name)

	m.AddRow(6,
		text.NewCol(12, problems.DisplayCopy(data.Problem, data.Difficulty.Params), normalStyle),
	)
	m.AddRow(4)

	var kvs []keyValue
	kvs = append(kvs, keyValue{"Complexity Class", data.Problem.ComplexityClass})
	for _, row := range g.difficultyRows(data) {
		kvs = append(kvs, keyValue{row[0], row[1]})
	}
	g.addKeyValueTable(m, kvs)
}

func (g *PDFGenerator) addResultSection(m core.Maroto, data *ReportData) {
	g.addSection(m, "Optimization Results")

	satisfiedStyle := metricValueStyle
	satisfiedValue := "Yes"
	satisfiedStyle.Color = successColor
	if !data.Solution.Satisfied {
		satisfiedValue = "No"
		satisfiedStyle.Color = dangerColor
	}

	if data.Metrics != nil {
		g.addMetricCards(m, []metricCard{
			{Label: "Quantum Advantage", Value: g.FormatFloat(data.Metrics.QuantumAdvantage, 2) + "x", Highlight: true},
			{Label: "Solution Time", Value: g.FormatDuration(data.Metrics.SolutionTimeMs)},
			{Label: "Classical Estimate", Value: g.FormatDuration(data.Metrics.ClassicalTimeMs)},
			{Label: "Quality", Value: g.FormatPercent(data.Metrics.SolutionQuality)},
		})
		m.AddRow(5)
	}

	m.AddRow(20,
		col.New(4).Add(
			text.New(satisfiedValue, satisfiedStyle),
			text.New("Constraints Satisfied", metricLabelStyle),
		),
		col.New(4).Add(
			text.New(fmt.Sprintf("%d", data.Solution.Iterations), metricValueStyle),
			text.New("Iterations", metricLabelStyle),
		),
		col.New(4).Add(
			text.New(data.State, props.Text{Size: 14, Style: fontstyle.Bold, Align: align.Center, Color: darkGrayColor}),
			text.New("Final State", metricLabelStyle),
		),
	)

	m.AddRow(8)
	m.AddRow(6,
		text.NewCol(12, fmt.Sprintf("%s: %s", g.SolutionKind(data), joinInts(data.Solution.Solution)), normalStyle),
	)
}

func (g *PDFGenerator) addInstanceSection(m core.Maroto, data *ReportData) {
	switch {
	case data.TSPInstance != nil:
		g.addTSPTable(m, data)
	case data.SubsetSumInstance != nil:
		g.addSubsetSumTable(m, data)
	}
}

func (g *PDFGenerator) addTSPTable(m core.Maroto, data *ReportData) {
	g.addSection(m, "Cities")

	m.AddRow(8,
		text.NewCol(4, "Index", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(4, "X", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(4, "Y", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
	)

	cities := data.TSPInstance.Cities
	maxRows := g.cfg.MaxCitiesInTable
	if maxRows <= 0 || maxRows > len(cities) {
		maxRows = len(cities)
	}

	for i := 0; i < maxRows; i++ {
		m.AddRow(6,
			text.NewCol(4, fmt.Sprintf("%d", i), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(4, g.FormatFloat(cities[i].X, 2), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(4, g.FormatFloat(cities[i].Y, 2), tableCellTextStyle).WithStyle(tableCellStyle),
		)
	}
	if maxRows < len(cities) {
		m.AddRow(6,
			text.NewCol(12, fmt.Sprintf("... and %d more cities", len(cities)-maxRows), smallStyle),
		)
	}
}

func (g *PDFGenerator) addSubsetSumTable(m core.Maroto, data *ReportData) {
	g.addSection(m, "Weights")

	inst := data.SubsetSumInstance
	selected := make(map[int]bool, len(data.Solution.Solution))
	for _, i := range data.Solution.Solution {
		selected[i] = true
	}

	m.AddRow(6,
		text.NewCol(12, fmt.Sprintf("Target: %d", inst.Target), boldStyle),
	)

	m.AddRow(8,
		text.NewCol(4, "Index", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(4, "Weight", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(4, "Selected", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
	)

	maxRows := g.cfg.MaxWeightsInTable
	if maxRows <= 0 || maxRows > len(inst.Weights) {
		maxRows = len(inst.Weights)
	}

	for i := 0; i < maxRows; i++ {
		selStyle := tableCellTextStyle
		selValue := "no"
		if selected[i] {
			selValue = "yes"
			selStyle.Color = successColor
		}
		m.AddRow(6,
			text.NewCol(4, fmt.Sprintf("%d", i), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(4, fmt.Sprintf("%d", inst.Weights[i]), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(4, selValue, selStyle).WithStyle(tableCellStyle),
		)
	}
	if maxRows < len(inst.Weights) {
		m.AddRow(6,
			text.NewCol(12, fmt.Sprintf("... and %d more weights", len(inst.Weights)-maxRows), smallStyle),
		)
	}
}

func (g *PDFGenerator) addFooter(m core.Maroto) {
	m.AddRow(10)
	m.AddRow(2,
		line.NewCol(12, props.Line{Color: lightGrayColor}),
	)
	m.AddRow(5,
		text.NewCol(12, "Generated by the optimization showcase service", smallStyle),
	)
}

// === Вспомогательные методы ===

type metricCard struct {
	Label     string
	Value     string
	Highlight bool
}

func (g *PDFGenerator) addMetricCards(m core.Maroto, cards []metricCard) {
	if len(cards) == 0 {
		return
	}

	colSize := 12 / len(cards)
	if colSize < 2 {
		colSize = 2
	}

	var cols []core.Col
	for _, card := range cards {
		valueStyle := metricValueStyle
		if !card.Highlight {
			valueStyle.Size = 14
		}

		cols = append(cols,
			col.New(colSize).Add(
				text.New(card.Value, valueStyle),
				text.New(card.Label, metricLabelStyle),
			),
		)
	}

	m.AddRow(20, cols...)
}

type keyValue struct {
	Key   string
	Value string
}

func (g *PDFGenerator) addKeyValueTable(m core.Maroto, items []keyValue) {
	for _, item := range items {
		m.AddRow(6,
			text.NewCol(6, item.Key, boldStyle),
			text.NewCol(6, item.Value, normalStyle),
		)
	}
}

func (g *PDFGenerator) addSection(m core.Maroto, title string) {
	m.AddRow(10,
		text.NewCol(12, title, h2Style),
	)
	m.AddRow(2,
		line.NewCol(12, props.Line{Color: primaryColor}),
	)
	m.AddRow(5)
}

func joinInts(values []int) string {
	out := ""
	for i, v := range values {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%d", v)
	}
	return out
}
