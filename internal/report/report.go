// Package report renders the analysis outputs: an XLSX workbook with the
// summary tables, an hourly distribution chart, model diagnostics and run
// metadata, plus a short plain-text digest on stdout. Everything here is
// presentation; it consumes the immutable tables produced upstream and has
// no influence on them.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/urbanstats/nycshootings/internal/logger"
	"github.com/urbanstats/nycshootings/internal/models"
)

// Sheet names in the generated workbook.
const (
	sheetSummary  = "Yearly Summary"
	sheetHourly   = "Hourly"
	sheetMonthly  = "Monthly"
	sheetChanges  = "Rate Changes"
	sheetModel    = "Model Fit"
	sheetMap      = "Map"
	sheetMetadata = "Metadata"
)

// Data bundles everything the report renders.
type Data struct {
	RunID       string
	GeneratedAt time.Time

	Incidents []models.Incident
	Summaries []models.YearlySummary
	Hourly    []models.HourCount
	Monthly   []models.MonthCount
	Changes   []models.RateChange
	Cells     []models.ModelCell
	PseudoR2  float64
}

// Writer renders Data to a workbook on disk. The map API key is supplied
// explicitly by the caller; an empty key simply disables the map sheet.
type Writer struct {
	outputPath string
	maps       *StaticMapClient // nil when no API key is configured
	stdout     io.Writer
}

// NewWriter creates a report writer. mapClient may be nil.
func NewWriter(outputPath string, mapClient *StaticMapClient) *Writer {
	return &Writer{
		outputPath: outputPath,
		maps:       mapClient,
		stdout:     os.Stdout,
	}
}

// Write renders the workbook and prints the stdout digest. The workbook is
// written to a temporary file first and renamed into place so a failed run
// never leaves a truncated report behind.
func (w *Writer) Write(data Data) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := w.writeSummarySheet(f, data.Summaries); err != nil {
		return fmt.Errorf("report: summary sheet: %w", err)
	}
	if err := w.writeHourlySheet(f, data.Hourly); err != nil {
		return fmt.Errorf("report: hourly sheet: %w", err)
	}
	if err := w.writeMonthlySheet(f, data.Monthly); err != nil {
		return fmt.Errorf("report: monthly sheet: %w", err)
	}
	if err := w.writeChangesSheet(f, data.Changes); err != nil {
		return fmt.Errorf("report: changes sheet: %w", err)
	}
	if err := w.writeModelSheet(f, data.Cells, data.PseudoR2); err != nil {
		return fmt.Errorf("report: model sheet: %w", err)
	}
	w.writeMapSheet(f, data.Incidents)
	if err := w.writeMetadataSheet(f, data); err != nil {
		return fmt.Errorf("report: metadata sheet: %w", err)
	}

	if err := w.save(f); err != nil {
		return err
	}

	w.printDigest(data)
	return nil
}

// save writes the workbook atomically: temp file in the target directory,
// then rename.
func (w *Writer) save(f *excelize.File) error {
	dir := filepath.Dir(w.outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("report: create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "report-*.xlsx")
	if err != nil {
		return fmt.Errorf("report: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := f.Write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("report: write workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("report: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, w.outputPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("report: move workbook into place: %w", err)
	}
	return nil
}

// setCell writes v, leaving the cell empty when v is a missing numeric.
func setCell(f *excelize.File, sheet string, col, row int, v interface{}) error {
	if fv, ok := v.(float64); ok && models.IsMissing(fv) {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, v)
}

func writeHeader(f *excelize.File, sheet string, row int, headers []string) error {
	for i, h := range headers {
		if err := setCell(f, sheet, i+1, row, h); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeSummarySheet(f *excelize.File, summaries []models.YearlySummary) error {
	// Reuse the default sheet as the first one.
	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return err
	}
	if err := writeHeader(f, sheetSummary, 1, []string{"Borough", "Year", "Incidents", "Population", "Rate per 1k"}); err != nil {
		return err
	}
	for i, s := range summaries {
		row := i + 2
		values := []interface{}{s.Borough.String(), s.Year, s.Count, s.Population, s.Rate}
		for col, v := range values {
			if err := setCell(f, sheetSummary, col+1, row, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Writer) writeHourlySheet(f *excelize.File, hourly []models.HourCount) error {
	if _, err := f.NewSheet(sheetHourly); err != nil {
		return err
	}
	if err := writeHeader(f, sheetHourly, 1, []string{"Hour", "Incidents"}); err != nil {
		return err
	}
	for i, h := range hourly {
		if err := setCell(f, sheetHourly, 1, i+2, h.Hour); err != nil {
			return err
		}
		if err := setCell(f, sheetHourly, 2, i+2, h.Count); err != nil {
			return err
		}
	}

	chart := &excelize.Chart{
		Type: excelize.Line,
		Series: []excelize.ChartSeries{{
			Name:       "Incidents by hour",
			Categories: fmt.Sprintf("'%s'!$A$2:$A$%d", sheetHourly, len(hourly)+1),
			Values:     fmt.Sprintf("'%s'!$B$2:$B$%d", sheetHourly, len(hourly)+1),
		}},
		Title: []excelize.RichTextRun{{Text: "Shooting incidents by hour of day"}},
	}
	return f.AddChart(sheetHourly, "D2", chart)
}

func (w *Writer) writeMonthlySheet(f *excelize.File, monthly []models.MonthCount) error {
	if _, err := f.NewSheet(sheetMonthly); err != nil {
		return err
	}
	if err := writeHeader(f, sheetMonthly, 1, []string{"Month", "Incidents"}); err != nil {
		return err
	}
	for i, m := range monthly {
		if err := setCell(f, sheetMonthly, 1, i+2, m.Month.String()); err != nil {
			return err
		}
		if err := setCell(f, sheetMonthly, 2, i+2, m.Count); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeChangesSheet(f *excelize.File, changes []models.RateChange) error {
	if _, err := f.NewSheet(sheetChanges); err != nil {
		return err
	}
	if err := writeHeader(f, sheetChanges, 1, []string{"Borough", "Year", "Rate per 1k", "YoY Change"}); err != nil {
		return err
	}
	for i, c := range changes {
		row := i + 2
		values := []interface{}{c.Borough.String(), c.Year, c.Rate, c.Change}
		for col, v := range values {
			if err := setCell(f, sheetChanges, col+1, row, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Writer) writeModelSheet(f *excelize.File, cells []models.ModelCell, pseudoR2 float64) error {
	if _, err := f.NewSheet(sheetModel); err != nil {
		return err
	}
	if err := setCell(f, sheetModel, 1, 1, "Pseudo R²"); err != nil {
		return err
	}
	if err := setCell(f, sheetModel, 2, 1, pseudoR2); err != nil {
		return err
	}
	if err := writeHeader(f, sheetModel, 3, []string{"Borough", "Month", "Hour", "Observed", "Predicted"}); err != nil {
		return err
	}
	for i, c := range cells {
		row := i + 4
		values := []interface{}{c.Borough.String(), c.Month.String(), c.Hour, c.Count, c.Predicted}
		for col, v := range values {
			if err := setCell(f, sheetModel, col+1, row, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeMapSheet embeds a static map scatter of incident locations when a
// map client is configured. Map rendering is decoration: a fetch failure is
// logged and the sheet is skipped, never failing the run.
func (w *Writer) writeMapSheet(f *excelize.File, incidents []models.Incident) {
	if w.maps == nil {
		return
	}

	png, err := w.maps.FetchScatter(incidents)
	if err != nil {
		logger.Warn("report: skipping map sheet: %v", err)
		return
	}

	if _, err := f.NewSheet(sheetMap); err != nil {
		logger.Warn("report: skipping map sheet: %v", err)
		return
	}
	err = f.AddPictureFromBytes(sheetMap, "B2", &excelize.Picture{
		Extension: ".png",
		File:      png,
	})
	if err != nil {
		logger.Warn("report: failed to embed map image: %v", err)
	}
}

func (w *Writer) writeMetadataSheet(f *excelize.File, data Data) error {
	if _, err := f.NewSheet(sheetMetadata); err != nil {
		return err
	}
	rows := [][2]interface{}{
		{"Run ID", data.RunID},
		{"Generated at", data.GeneratedAt.Format(time.RFC3339)},
		{"Incidents analyzed", len(data.Incidents)},
		{"Summary rows", len(data.Summaries)},
		{"Model cells", len(data.Cells)},
	}
	for i, kv := range rows {
		if err := setCell(f, sheetMetadata, 1, i+1, kv[0]); err != nil {
			return err
		}
		if err := setCell(f, sheetMetadata, 2, i+1, kv[1]); err != nil {
			return err
		}
	}
	return nil
}

// printDigest writes the top-line findings to stdout.
func (w *Writer) printDigest(data Data) {
	fmt.Fprintf(w.stdout, "NYC shooting incident analysis (run %s)\n", data.RunID)
	fmt.Fprintf(w.stdout, "Incidents analyzed: %d\n", len(data.Incidents))
	fmt.Fprintf(w.stdout, "Model pseudo-R²: %.4f\n\n", data.PseudoR2)

	fmt.Fprintf(w.stdout, "%-15s %6s %10s %12s\n", "Borough", "Year", "Incidents", "Rate per 1k")
	for _, s := range data.Summaries {
		rate := "n/a"
		if !models.IsMissing(s.Rate) {
			rate = fmt.Sprintf("%.4f", s.Rate)
		}
		fmt.Fprintf(w.stdout, "%-15s %6d %10d %12s\n", s.Borough, s.Year, s.Count, rate)
	}
}
