package application

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/tavi/preauth/internal/domain/casefile"
	"github.com/tavi/preauth/internal/platform/imagesize"
)

const (
	examinationSheet = "Examinations"
	XLSXMIMEType     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExaminationSheetHeader is the header row of the examination sheet.
var ExaminationSheetHeader = []string{
	"Section",
	"Type",
	"Label",
	"Date",
	"Summary Line",
	"Lab Findings",
	"Images",
	"First Image (px)",
}

var examinationColumnWidths = []float64{10, 26, 34, 14, 60, 40, 10, 18}

// ExaminationSheet writes one row per examination in document order with
// the section number the record gets in the application.
func ExaminationSheet(c *casefile.Case) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(examinationSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := f.SetSheetRow(examinationSheet, "A1", &ExaminationSheetHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(ExaminationSheetHeader), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(examinationSheet, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("set header style: %w", err)
	}
	for i, w := range examinationColumnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(examinationSheet, col, col, w); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	for i, e := range Ordered(c.Examinations) {
		row := []interface{}{
			i + 1,
			string(e.Type),
			Label(e.Type),
			e.Date,
			firstLine(e.TextContent),
			e.LabFindings,
			len(e.Images),
			"",
		}
		if len(e.Images) > 0 {
			res := imagesize.Inspect(e.Images[0])
			if !res.Fallback {
				row[7] = fmt.Sprintf("%dx%d", res.Width, res.Height)
			}
		}
		for col, v := range row {
			if s, ok := v.(string); ok && s == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(examinationSheet, cell, v); err != nil {
				return nil, fmt.Errorf("write cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SetPanes(examinationSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSuffix(s, "\r")
}

// ExaminationSheetFileName is the download name of the examination sheet.
func ExaminationSheetFileName(p PatientInfo) string {
	return fmt.Sprintf("%s%s - 檢查摘要.xlsx", p.Name, p.ChartNumber)
}
