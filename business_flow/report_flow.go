package businessflow

import (
	"context"
	"fmt"

	"github.com/talonsoft/fieldops/app/dto"
	"github.com/talonsoft/fieldops/app/services"
	"github.com/talonsoft/fieldops/models"
	"github.com/talonsoft/fieldops/repository"
	"github.com/talonsoft/fieldops/utils"
	"gorm.io/gorm"
)

// Export cap keeps a single workbook bounded.
const reportMaxRows = 10000

// ReportFlow produces downloadable order reports
type ReportFlow interface {
	// OrdersReport renders the filtered orders as an xlsx workbook and
	// returns the content with a suggested filename.
	OrdersReport(ctx context.Context, request *dto.ListOrdersRequest) ([]byte, string, error)
}

// ReportFlowImpl implements the report business flow
type ReportFlowImpl struct {
	orderRepo     repository.OrderRepository
	reportService services.ReportService
	db            *gorm.DB
}

// NewReportFlow creates a new report flow instance
func NewReportFlow(
	orderRepo repository.OrderRepository,
	reportService services.ReportService,
	db *gorm.DB,
) ReportFlow {
	return &ReportFlowImpl{
		orderRepo:     orderRepo,
		reportService: reportService,
		db:            db,
	}
}

// OrdersReport builds the orders workbook for the given filter
func (rf *ReportFlowImpl) OrdersReport(ctx context.Context, request *dto.ListOrdersRequest) ([]byte, string, error) {
	filter := models.OrderFilter{
		ClientID:             request.ClientID,
		AssignedTechnicianID: request.TechnicianID,
		Open:                 request.Open,
	}
	if request.Status != nil {
		status := models.OrderStatus(*request.Status)
		filter.Status = &status
	}
	if request.Priority != nil {
		priority := models.OrderPriority(*request.Priority)
		filter.Priority = &priority
	}

	orders, err := rf.orderRepo.ByFilter(ctx, filter, "scheduled_start DESC", reportMaxRows, 0)
	if err != nil {
		return nil, "", NewBusinessError("REPORT_FAILED", "Failed to load orders for report", err)
	}

	content, err := rf.reportService.OrdersReport(orders)
	if err != nil {
		return nil, "", NewBusinessError("REPORT_FAILED", "Failed to render orders report", err)
	}

	filename := fmt.Sprintf("orders_%s.xlsx", utils.UTCNow().Format("20060102_150405"))
	return content, filename, nil
}
