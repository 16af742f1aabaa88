package export

import (
	"context"

	"github.com/xuri/excelize/v2"

	"sjsage522/catalogworker/internal/catalog"
	"sjsage522/catalogworker/pkg/errors"
)

// SheetName is the worksheet holding the catalog
const SheetName = "Catalog"

// XLSXSink writes the catalog to an Excel workbook
type XLSXSink struct {
	Path string
}

// NewXLSXSink creates a new Excel sink
func NewXLSXSink(path string) *XLSXSink {
	return &XLSXSink{Path: path}
}

// Name implements Sink
func (s *XLSXSink) Name() string {
	return "xlsx"
}

// Write implements Sink
func (s *XLSXSink) Write(ctx context.Context, doc *catalog.Document) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return errors.NewStorage(s.Name(), "failed to name sheet", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return errors.NewStorage(s.Name(), "failed to create header style", err)
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c.name
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return errors.NewStorage(s.Name(), "failed to write header", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(columns))
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return errors.NewStorage(s.Name(), "failed to style header", err)
	}

	for i, r := range doc.Data {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := rowValues(r)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return errors.NewStorage(s.Name(), "failed to write "+r.ID, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return errors.NewStorage(s.Name(), "failed to freeze header", err)
	}

	if err := f.SaveAs(s.Path); err != nil {
		return errors.NewStorage(s.Name(), "failed to save "+s.Path, err)
	}
	return nil
}
