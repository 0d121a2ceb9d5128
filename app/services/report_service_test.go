package services

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talonsoft/fieldops/models"
	"github.com/talonsoft/fieldops/utils"
	"github.com/xuri/excelize/v2"
)

func reportOrder(number string, status models.OrderStatus) *models.Order {
	start := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	return &models.Order{
		OrderNumber:        number,
		ClientID:           1,
		SiteID:             2,
		Status:             status,
		Priority:           models.OrderPriorityHigh,
		ScheduledStart:     start,
		ResponseDeadline:   start.Add(time.Hour),
		ResolutionDeadline: start.Add(4 * time.Hour),
	}
}

func TestOrdersReport(t *testing.T) {
	svc := NewReportService()

	completed := reportOrder("ORD-20240115-AAAAAA", models.OrderStatusCompleted)
	completed.ActualStart = utils.ToPtr(completed.ScheduledStart.Add(30 * time.Minute))
	completed.ActualEnd = utils.ToPtr(completed.ScheduledStart.Add(3 * time.Hour))

	late := reportOrder("ORD-20240115-BBBBBB", models.OrderStatusCompleted)
	late.ActualStart = utils.ToPtr(late.ScheduledStart.Add(2 * time.Hour))
	late.ActualEnd = utils.ToPtr(late.ScheduledStart.Add(6 * time.Hour))

	open := reportOrder("ORD-20240115-CCCCCC", models.OrderStatusPending)

	content, err := svc.OrdersReport([]*models.Order{completed, late, open})
	require.NoError(t, err)
	require.NotEmpty(t, content)

	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Orders")
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, "Order Number", rows[0][0])
	assert.Equal(t, "Resolution Met", rows[0][11])

	assert.Equal(t, "ORD-20240115-AAAAAA", rows[1][0])
	assert.Equal(t, "yes", rows[1][10])
	assert.Equal(t, "yes", rows[1][11])

	assert.Equal(t, "no", rows[2][10])
	assert.Equal(t, "no", rows[2][11])

	// Open orders have no SLA outcome yet; trailing blank cells may be
	// trimmed entirely.
	if len(rows[3]) > 10 {
		assert.Equal(t, "", rows[3][10])
	}
}

func TestOrdersReportEmpty(t *testing.T) {
	svc := NewReportService()

	content, err := svc.OrdersReport(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Orders")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
