package excel

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/wms-platform/outbound-scan-service/internal/application"
)

const sheetName = "Outbound"

var headers = []string{
	"Outbound ID",
	"Export Date",
	"Material Code",
	"PO Number",
	"Batch",
	"Badge",
	"Production Order",
	"Quantity",
	"Location",
	"Factory",
	"Source",
	"Created At",
}

// Exporter renders committed outbound records as an xlsx workbook.
type Exporter struct{}

// NewExporter creates a new Exporter
func NewExporter() *Exporter {
	return &Exporter{}
}

// Export builds the workbook and returns its bytes.
func (e *Exporter) Export(records []application.OutboundRecordDTO) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, rec := range records {
		values := []interface{}{
			rec.OutboundID,
			rec.ExportDate,
			rec.MaterialCode,
			rec.PONumber,
			rec.BatchToken,
			rec.BadgeID,
			rec.ProductionOrder,
			rec.Quantity,
			rec.Location,
			rec.Factory,
			rec.Source,
			rec.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for colIdx, value := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, err
			}
			f.SetCellValue(sheetName, cell, value)
		}
	}

	for i := range headers {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		f.SetColWidth(sheetName, col, col, 18)
	}

	f.DeleteSheet("Sheet1")

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}
