package workbook

import (
	"bytes"
	"fmt"

	"camionetas/pkg/registro"

	"github.com/xuri/excelize/v2"
)

// ExportFilename is the suggested name of the consolidated download.
const ExportFilename = "uso_camionetas.xlsx"

const exportSheetName = "Consolidado"

// Export renders records as a styled workbook ready to be downloaded.
func Export(recs registro.Records, layout registro.Layout) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheetName); err != nil {
		return nil, err
	}
	if err := writeTable(f, exportSheetName, layout, recs); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#2D004D"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}
	header := layout.Header()
	last := colName(len(header) - 1)
	if err := f.SetCellStyle(exportSheetName, "A1", last+"1", headerStyle); err != nil {
		return nil, err
	}
	for i, h := range header {
		width := 16.0
		switch h {
		case registro.ColumnGestor:
			width = 22
		case registro.ColumnRegion:
			width = 8
		case registro.ColumnActivity:
			width = 48
		}
		col := colName(i)
		if err := f.SetColWidth(exportSheetName, col, col, width); err != nil {
			return nil, err
		}
	}
	if err := f.AutoFilter(exportSheetName, fmt.Sprintf("A1:%s%d", last, len(recs)+1), nil); err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf, nil
}

// writeTable writes the header in row 1 and one record per row below it.
func writeTable(f *excelize.File, sheet string, layout registro.Layout, recs registro.Records) error {
	header := layout.HeaderRow()
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, rec := range recs {
		row := layout.ToRow(rec)
		if rec.Date.IsZero() {
			row[0] = ""
		}
		if err := f.SetSheetRow(sheet, cell("A", i+2), &row); err != nil {
			return err
		}
	}
	return nil
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
