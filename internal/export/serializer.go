package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jung-kurt/gofpdf"

	"github.com/fittrack/privacy-rights-api/internal/export/model"
	udmodel "github.com/fittrack/privacy-rights-api/internal/userdata/model"
)

// serializeBundle renders a collected data bundle into the requested
// export format.
func serializeBundle(bundle *udmodel.ExportBundle, format model.ExportFormat) ([]byte, error) {
	switch format {
	case model.ExportFormatJSON:
		return serializeJSON(bundle)
	case model.ExportFormatCSV:
		return serializeCSV(bundle)
	case model.ExportFormatPDF:
		return serializePDF(bundle)
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

func serializeJSON(bundle *udmodel.ExportBundle) ([]byte, error) {
	return json.MarshalIndent(bundle, "", "  ")
}

// serializeCSV writes one titled block per data section. Each block has
// a header row of sorted column names followed by the rows.
func serializeCSV(bundle *udmodel.ExportBundle) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	sections := []struct {
		title string
		rows  []map[string]interface{}
	}{
		{"PROFILE", []map[string]interface{}{bundle.Profile}},
		{"WORKOUTS", bundle.Workouts},
		{"HEALTH_METRICS", bundle.HealthMetrics},
		{"NUTRITION_LOGS", bundle.NutritionLogs},
	}

	for _, section := range sections {
		if err := w.Write([]string{"#", section.title}); err != nil {
			return nil, err
		}
		if len(section.rows) == 0 || section.rows[0] == nil {
			continue
		}
		columns := sortedColumns(section.rows[0])
		if err := w.Write(columns); err != nil {
			return nil, err
		}
		for _, row := range section.rows {
			record := make([]string, 0, len(columns))
			for _, column := range columns {
				record = append(record, stringify(row[column]))
			}
			if err := w.Write(record); err != nil {
				return nil, err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// serializePDF renders a simple tabular report, one section per heading.
func serializePDF(bundle *udmodel.ExportBundle) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Personal Data Export", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Personal Data Export")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("User: %s", bundle.UserID))
	pdf.Ln(10)

	writeSection := func(title string, rows []map[string]interface{}) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, title)
		pdf.Ln(9)
		pdf.SetFont("Helvetica", "", 9)
		if len(rows) == 0 || rows[0] == nil {
			pdf.Cell(0, 5, "No records.")
			pdf.Ln(8)
			return
		}
		columns := sortedColumns(rows[0])
		for _, row := range rows {
			for _, column := range columns {
				pdf.Cell(0, 5, fmt.Sprintf("%s: %s", column, stringify(row[column])))
				pdf.Ln(5)
			}
			pdf.Ln(2)
		}
		pdf.Ln(4)
	}

	writeSection("Profile", []map[string]interface{}{bundle.Profile})
	writeSection("Workouts", bundle.Workouts)
	writeSection("Health Metrics", bundle.HealthMetrics)
	writeSection("Nutrition Logs", bundle.NutritionLogs)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func sortedColumns(row map[string]interface{}) []string {
	columns := make([]string, 0, len(row))
	for column := range row {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}

func stringify(value interface{}) string {
	if value == nil {
		return ""
	}
	return fmt.Sprint(value)
}
