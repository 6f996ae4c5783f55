// Package workbook renders a built materiality matrix as an XLSX workbook:
// a Points sheet with one row per plotted answer, a Summary sheet and a
// native scatter chart per category.
package workbook

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/turtacn/ESG-Materiality/internal/domain/materiality"
	"github.com/turtacn/ESG-Materiality/pkg/errors"
)

const (
	PointsSheet  = "Points"
	SummarySheet = "Summary"

	chartAnchor = "K2"
)

// PointsHeader is the header row of the Points sheet.
var PointsHeader = []string{
	"Series", "Label", "Source", "Question ID",
	"Priority", "Status quo", "Plot X", "Plot Y",
}

// Meta describes the context a workbook was exported in.
type Meta struct {
	ClientID       int64
	ClientName     string
	Year           int
	SessionID      string
	SnapshotID     string
	SelectedGroups []int64
	GeneratedAt    time.Time
}

// Render returns the workbook bytes for m.
func Render(m *materiality.Matrix, meta Meta) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, m, meta); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write streams the workbook for m to w.
func Write(w io.Writer, m *materiality.Matrix, meta Meta) error {
	if m == nil || m.Layout == nil {
		return errors.New(errors.ErrCodeExportFailed, "matrix is empty")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), PointsSheet); err != nil {
		return wrap(err, "rename points sheet")
	}
	ranges, err := writePoints(f, m)
	if err != nil {
		return err
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return wrap(err, "create summary sheet")
	}
	if err := writeSummary(f, m, meta); err != nil {
		return err
	}
	if err := addChart(f, m, ranges); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return wrap(err, "write workbook")
	}
	return nil
}

// seriesRange is the first and last data row of one series on the Points sheet.
type seriesRange struct {
	name       string
	color      string
	first, end int
}

func writePoints(f *excelize.File, m *materiality.Matrix) ([]seriesRange, error) {
	header := make([]interface{}, len(PointsHeader))
	for i, h := range PointsHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(PointsSheet, "A1", &header); err != nil {
		return nil, wrap(err, "write header")
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(PointsSheet, "A1", "H1", style)
	}

	row := 2
	ranges := make([]seriesRange, 0, len(m.Series))
	for _, s := range m.Series {
		first := row
		for _, p := range s.Points {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return nil, wrap(err, "cell name")
			}
			values := []interface{}{
				s.Name, p.Label, p.SourceName, string(p.QuestionID),
				p.OriginalX, p.OriginalY, p.X, p.Y,
			}
			if err := f.SetSheetRow(PointsSheet, cell, &values); err != nil {
				return nil, wrap(err, "write point row")
			}
			row++
		}
		if row > first {
			ranges = append(ranges, seriesRange{name: s.Name, color: s.Color, first: first, end: row - 1})
		}
	}
	return ranges, nil
}

func writeSummary(f *excelize.File, m *materiality.Matrix, meta Meta) error {
	generated := meta.GeneratedAt
	if generated.IsZero() {
		generated = time.Now().UTC()
	}
	rows := [][]interface{}{
		{"Title", m.Layout.Title},
		{"Client ID", meta.ClientID},
		{"Client", meta.ClientName},
		{"Year", meta.Year},
		{"Session", meta.SessionID},
		{"Snapshot", meta.SnapshotID},
		{"Selected groups", joinIDs(meta.SelectedGroups)},
		{"Groups plotted", m.Stats.GroupCount},
		{"Points", m.Stats.PointCount},
		{"Displaced points", m.Stats.DisplacedCount},
		{"Generated at", generated.Format(time.RFC3339)},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		values := r
		if err := f.SetSheetRow(SummarySheet, cell, &values); err != nil {
			return wrap(err, "write summary row")
		}
	}
	return nil
}

func addChart(f *excelize.File, m *materiality.Matrix, ranges []seriesRange) error {
	if len(ranges) == 0 {
		return nil
	}
	series := make([]excelize.ChartSeries, 0, len(ranges))
	for _, r := range ranges {
		series = append(series, excelize.ChartSeries{
			Name:       strconv.Quote(r.name),
			Categories: fmt.Sprintf("%s!$G$%d:$G$%d", PointsSheet, r.first, r.end),
			Values:     fmt.Sprintf("%s!$H$%d:$H$%d", PointsSheet, r.first, r.end),
			Marker:     excelize.ChartMarker{Symbol: "circle", Size: 7},
		})
	}
	chart := &excelize.Chart{
		Type:   excelize.Scatter,
		Series: series,
		Title:  []excelize.RichTextRun{{Text: m.Layout.Title}},
	}
	if err := f.AddChart(PointsSheet, chartAnchor, chart); err != nil {
		return wrap(err, "add chart")
	}
	return nil
}

func joinIDs(ids []int64) string {
	var b bytes.Buffer
	for i, id := range ids {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(strconv.FormatInt(id, 10))
	}
	return b.String()
}

func wrap(err error, msg string) error {
	return errors.Wrap(err, errors.ErrCodeExportFailed, msg)
}
