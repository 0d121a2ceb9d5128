// Package services provides external service integrations and technical concerns like tokens and realtime fan-out
package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/talonsoft/fieldops/models"
	"github.com/xuri/excelize/v2"
)

// ReportService renders operational exports
type ReportService interface {
	// OrdersReport renders an xlsx workbook with one row per order and its
	// SLA outcome columns.
	OrdersReport(orders []*models.Order) ([]byte, error)
}

// ReportServiceImpl implements ReportService
type ReportServiceImpl struct{}

// NewReportService creates a new report service
func NewReportService() ReportService {
	return &ReportServiceImpl{}
}

var ordersReportHeader = []string{
	"Order Number", "Client ID", "Site ID", "Status", "Priority",
	"Scheduled Start", "Response Deadline", "Resolution Deadline",
	"Actual Start", "Actual End", "Response Met", "Resolution Met",
}

// OrdersReport renders the orders workbook
func (rs *ReportServiceImpl) OrdersReport(orders []*models.Order) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Orders"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DCE6F1"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, title := range ordersReportHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, err
		}
	}
	lastHeaderCell, _ := excelize.CoordinatesToCellName(len(ordersReportHeader), 1)
	if err := f.SetCellStyle(sheet, "A1", lastHeaderCell, headerStyle); err != nil {
		return nil, err
	}

	for i, order := range orders {
		row := i + 2
		values := []any{
			order.OrderNumber,
			order.ClientID,
			order.SiteID,
			order.GetStatusDisplayName(),
			order.Priority.String(),
			formatReportTime(&order.ScheduledStart),
			formatReportTime(&order.ResponseDeadline),
			formatReportTime(&order.ResolutionDeadline),
			formatReportTime(order.ActualStart),
			formatReportTime(order.ActualEnd),
			responseOutcome(order),
			resolutionOutcome(order),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	if err := f.SetColWidth(sheet, "A", "L", 22); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func formatReportTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

// responseOutcome reports the response SLA outcome for finished milestones,
// blank while still open
func responseOutcome(order *models.Order) string {
	if order.ActualStart != nil {
		if order.ActualStart.After(order.ResponseDeadline) {
			return "no"
		}
		return "yes"
	}
	if order.Status == models.OrderStatusCancelled {
		return "n/a"
	}
	return ""
}

// resolutionOutcome reports the resolution SLA outcome, blank while open
func resolutionOutcome(order *models.Order) string {
	if order.Status == models.OrderStatusCompleted && order.ActualEnd != nil {
		if order.ActualEnd.After(order.ResolutionDeadline) {
			return "no"
		}
		return "yes"
	}
	if order.Status == models.OrderStatusCancelled {
		return "n/a"
	}
	return ""
}
