package export

import (
	"fmt"
	"time"

	"skladik/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	itemsSheet    = "Items"
	clockInsSheet = "Clock-Ins"
)

// ItemsWorkbook renders the item catalog as an xlsx workbook, one item
// per row under a header row.
func ItemsWorkbook(items []models.Item) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(itemsSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []string{"ID", "Name", "Description", "Price", "Created At", "Updated At"}
	if err := writeHeaderRow(f, itemsSheet, headers); err != nil {
		f.Close()
		return nil, err
	}

	for i, item := range items {
		row := i + 2
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("A%d", row), item.ID)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("B%d", row), item.Name)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("C%d", row), item.Description)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("D%d", row), item.Price)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("E%d", row), item.CreatedAt.Format(time.RFC3339))
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("F%d", row), item.UpdatedAt.Format(time.RFC3339))
	}

	_ = f.SetColWidth(itemsSheet, "A", "A", 8)
	_ = f.SetColWidth(itemsSheet, "B", "C", 30)
	_ = f.SetColWidth(itemsSheet, "D", "D", 12)
	_ = f.SetColWidth(itemsSheet, "E", "F", 22)

	// Удаляем стандартный лист
	_ = f.DeleteSheet("Sheet1")

	return f, nil
}

// ClockInsWorkbook renders clock-in records as an xlsx workbook.
func ClockInsWorkbook(records []models.ClockInRecord) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(clockInsSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []string{"ID", "Email", "Location", "Clocked In At"}
	if err := writeHeaderRow(f, clockInsSheet, headers); err != nil {
		f.Close()
		return nil, err
	}

	for i, record := range records {
		row := i + 2
		_ = f.SetCellValue(clockInsSheet, fmt.Sprintf("A%d", row), record.ID)
		_ = f.SetCellValue(clockInsSheet, fmt.Sprintf("B%d", row), record.Email)
		_ = f.SetCellValue(clockInsSheet, fmt.Sprintf("C%d", row), record.Location)
		_ = f.SetCellValue(clockInsSheet, fmt.Sprintf("D%d", row), record.InsertDatetime.Format(time.RFC3339))
	}

	_ = f.SetColWidth(clockInsSheet, "A", "A", 8)
	_ = f.SetColWidth(clockInsSheet, "B", "C", 30)
	_ = f.SetColWidth(clockInsSheet, "D", "D", 22)

	_ = f.DeleteSheet("Sheet1")

	return f, nil
}

// Filename builds a timestamped download name for an export.
func Filename(prefix string) string {
	return fmt.Sprintf("%s_export_%s.xlsx", prefix, time.Now().Format("2006-01-02_15-04-05"))
}

func writeHeaderRow(f *excelize.File, sheet string, headers []string) error {
	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, header)
		_ = f.SetCellStyle(sheet, cell, cell, style)
	}
	return nil
}
