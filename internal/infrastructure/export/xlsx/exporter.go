// Package xlsx renders stored policy comparisons as spreadsheets.
package xlsx

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/policy-bridge/internal/core/comparison"
	"github.com/kirillkom/policy-bridge/internal/core/domain"
)

const (
	summarySheet  = "Summary"
	analysisSheet = "Detailed Analysis"
	maxCellRunes  = 32000
)

type Exporter struct {
	logger *slog.Logger
}

func NewExporter(logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{logger: logger}
}

// ExportComparison returns an XLSX workbook with a summary sheet and one row
// per detailed analysis section.
func (e *Exporter) ExportComparison(_ context.Context, result *domain.ComparisonResult) ([]byte, error) {
	if result == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "export comparison", fmt.Errorf("nil comparison"))
	}
	start := time.Now()

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(analysisSheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	rows := summaryRows(result)
	for i, kv := range rows {
		row := i + 1
		_ = f.SetCellValue(summarySheet, cellName(1, row), kv[0])
		_ = f.SetCellValue(summarySheet, cellName(2, row), kv[1])
		_ = f.SetCellStyle(summarySheet, cellName(1, row), cellName(1, row), bold)
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 26)
	_ = f.SetColWidth(summarySheet, "B", "B", 70)

	_ = f.SetCellValue(analysisSheet, "A1", "Section")
	_ = f.SetCellValue(analysisSheet, "B1", "Analysis")
	_ = f.SetCellStyle(analysisSheet, "A1", "B1", bold)
	for i, title := range sectionOrder(result.DetailedAnalysis) {
		row := i + 2
		_ = f.SetCellValue(analysisSheet, cellName(1, row), title)
		_ = f.SetCellValue(analysisSheet, cellName(2, row), truncate(result.DetailedAnalysis[title], maxCellRunes))
	}
	_ = f.SetColWidth(analysisSheet, "A", "A", 28)
	_ = f.SetColWidth(analysisSheet, "B", "B", 110)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	e.logger.Info("comparison_exported",
		"comparison_id", result.ID,
		"sections", len(result.DetailedAnalysis),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func summaryRows(r *domain.ComparisonResult) [][2]string {
	rows := [][2]string{
		{"Comparison ID", r.ID},
		{"Policy 1", r.Policy1Name},
		{"Policy 2", r.Policy2Name},
		{"Strategy", string(r.Strategy)},
		{"Comparison Score", strconv.Itoa(r.ComparisonScore)},
		{"Similarity Score", strconv.FormatFloat(r.SimilarityScore, 'f', 4, 64)},
		{"Policy 1 Risk", strconv.Itoa(r.RiskAnalysis.Policy1Risk)},
		{"Policy 2 Risk", strconv.Itoa(r.RiskAnalysis.Policy2Risk)},
		{"Policy 1 Efficiency", strconv.Itoa(r.EfficiencyAnalysis.Policy1Efficiency)},
		{"Policy 2 Efficiency", strconv.Itoa(r.EfficiencyAnalysis.Policy2Efficiency)},
		{"Risk Assessment", r.MLInsights.RiskAssessment},
		{"Confidence Level", r.MLInsights.ConfidenceLevel},
		{"Category Valid", strconv.FormatBool(r.CategoryValid)},
		{"Fallback Used", strconv.FormatBool(r.FallbackUsed)},
	}
	if r.Message != "" {
		rows = append(rows, [2]string{"Message", r.Message})
	}
	if r.Recommendation != nil {
		rows = append(rows,
			[2]string{"Recommendation", r.Recommendation.Text},
			[2]string{"Recommendation Confidence", strconv.Itoa(r.Recommendation.Confidence)},
		)
	}
	if r.Verification != nil {
		rows = append(rows, [2]string{"Verification Score", strconv.FormatFloat(r.Verification.Score, 'f', 2, 64)})
	}
	if !r.CreatedAt.IsZero() {
		rows = append(rows, [2]string{"Created At", r.CreatedAt.UTC().Format(time.RFC3339)})
	}
	return rows
}

// sectionOrder lists narrative sections in their canonical order first, then
// any remaining keys alphabetically.
func sectionOrder(sections map[string]string) []string {
	out := make([]string, 0, len(sections))
	seen := make(map[string]bool, len(sections))
	for _, title := range comparison.ExpectedSections {
		if _, ok := sections[title]; ok {
			out = append(out, title)
			seen[title] = true
		}
	}
	rest := make([]string, 0)
	for title := range sections {
		if !seen[title] {
			rest = append(rest, title)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
