// internal/export/onboarding_xlsx.go
package export

import (
	"bytes"
	"fmt"

	"hub-backoffice/internal/onboarding"

	"github.com/xuri/excelize/v2"
)

const (
	OnboardingSheet = "Onboarding"
	StagesSheet     = "Stages"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var OnboardingHeader = []string{
	"Tenant ID",
	"Tenant",
	"Hub",
	"Stage",
	"Progress %",
	"Health",
	"Next Action",
	"Last Activity",
}

var columnWidths = []float64{38, 30, 14, 22, 12, 12, 40, 20}

// HubNamer resolves a hub id to the name printed in the sheet.
type HubNamer func(hubID int) string

// OnboardingWorkbook renders the derived rows as an xlsx document with a row
// sheet and a per-stage count sheet.
func OnboardingWorkbook(rows []onboarding.Result, hubName HubNamer) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(OnboardingSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeHeader(f, OnboardingSheet, OnboardingHeader, headerStyle); err != nil {
		return nil, err
	}
	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(OnboardingSheet, col, col, width); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, r := range rows {
		hub := ""
		if hubName != nil {
			hub = hubName(r.HubID)
		}
		if hub == "" {
			hub = fmt.Sprintf("%d", r.HubID)
		}
		lastActivity := ""
		if !r.LastActivity.IsZero() {
			lastActivity = r.LastActivity.UTC().Format("2006-01-02 15:04:05")
		}

		values := []interface{}{
			r.TenantID,
			r.TenantName,
			hub,
			string(r.Stage),
			r.ProgressDisplay,
			string(r.Health),
			r.NextAction,
			lastActivity,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(OnboardingSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(OnboardingSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	if err := writeStageSheet(f, rows, headerStyle); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	return buf.Bytes(), nil
}

func writeStageSheet(f *excelize.File, rows []onboarding.Result, headerStyle int) error {
	if _, err := f.NewSheet(StagesSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := writeHeader(f, StagesSheet, []string{"Stage", "Tenants"}, headerStyle); err != nil {
		return err
	}

	counts := make(map[onboarding.Stage]int)
	for _, r := range rows {
		counts[r.Stage]++
	}
	for i, st := range onboarding.OrderedStages() {
		values := []interface{}{string(st), counts[st]}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(StagesSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write stage row: %w", err)
		}
	}
	return f.SetColWidth(StagesSheet, "A", "A", 22)
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
	}
	return nil
}
