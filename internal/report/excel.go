// Package report renders maintenance history as xlsx workbooks for the
// office staff, who live in spreadsheets.
package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"taller-service/internal/domain/fleet"
)

const sheetName = "Historial"

var headers = []string{"Fecha", "Matrícula", "Km", "Categoría", "Intervención", "Descripción", "Neumáticos", "Adjunto"}

// BuildMaintenanceHistory produces a workbook with one row per intervention,
// newest first (the order the logs arrive in).
func BuildMaintenanceHistory(logs []fleet.MaintenanceLog) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for rowIdx, log := range logs {
		values := []interface{}{
			log.CreatedAt.Format("02/01/2006 15:04"),
			log.Plate,
			log.KmAtService,
			string(log.Category),
			log.InterventionName,
			log.Description,
			tirePositionList(log.TirePositions),
			derefOrEmpty(log.AttachmentURL),
		}
		for colIdx, value := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, fmt.Errorf("write row %d: %w", rowIdx+1, err)
			}
		}
	}

	return f, nil
}

func tirePositionList(positions []fleet.TirePosition) string {
	if len(positions) == 0 {
		return ""
	}
	parts := make([]string, 0, len(positions))
	for _, p := range positions {
		parts = append(parts, string(p))
	}
	return strings.Join(parts, ", ")
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
