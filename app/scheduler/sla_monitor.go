// Package scheduler
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	businessflow "github.com/talonsoft/fieldops/business_flow"
	"github.com/talonsoft/fieldops/models"
	"github.com/talonsoft/fieldops/repository"
	"github.com/talonsoft/fieldops/utils"
	"gorm.io/gorm"
)

var (
	slaSweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fieldops_sla_sweep_duration_seconds",
		Help:    "Duration of SLA monitor sweeps",
		Buckets: prometheus.DefBuckets,
	})
	slaAlertsRaised = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldops_sla_alerts_total",
		Help: "SLA alerts raised by the monitor, by kind and classification",
	}, []string{"kind", "classification"})
	slaOrdersBreached = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fieldops_sla_orders_breached",
		Help: "Open orders currently past at least one deadline",
	})
)

// SLAMonitor periodically sweeps open orders, classifies both deadlines and
// records an alert whenever an order crosses into a worse classification.
// Alerting is edge triggered: the latest alert row per order and kind is the
// monitor's memory, so a sweep never re-alerts an unchanged state and a
// restart never replays old alerts.
type SLAMonitor struct {
	orderRepo repository.OrderRepository
	alertRepo repository.SLAAlertRepository
	logger    *log.Logger
	interval  time.Duration
	batchSize int

	db *gorm.DB
}

// NewSLAMonitor creates the monitor. interval <= 0 falls back to one minute.
func NewSLAMonitor(
	orderRepo repository.OrderRepository,
	alertRepo repository.SLAAlertRepository,
	db *gorm.DB,
	logger *log.Logger,
	interval time.Duration,
) *SLAMonitor {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = log.Default()
	}
	return &SLAMonitor{
		orderRepo: orderRepo,
		alertRepo: alertRepo,
		logger:    logger,
		interval:  interval,
		batchSize: 500,
		db:        db,
	}
}

// Start launches the monitor loop in a background goroutine and returns a stop function
func (m *SLAMonitor) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		m.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.runOnce(ctx)
			}
		}
	}()

	return cancel
}

// runOnce performs a single sweep over all open orders
func (m *SLAMonitor) runOnce(ctx context.Context) {
	started := utils.UTCNow()
	now := started
	breached := 0
	offset := 0

	for {
		orders, err := m.orderRepo.ListOpen(ctx, m.batchSize, offset)
		if err != nil {
			m.logger.Printf("sla monitor: list open orders failed: %v", err)
			return
		}
		if len(orders) == 0 {
			break
		}

		for _, order := range orders {
			if ctx.Err() != nil {
				return
			}
			if m.sweepOrder(ctx, order, now) {
				breached++
			}
		}

		if len(orders) < m.batchSize {
			break
		}
		offset += m.batchSize
	}

	slaOrdersBreached.Set(float64(breached))
	slaSweepDuration.Observe(time.Since(started).Seconds())
}

// sweepOrder classifies one order and raises edge-triggered alerts. Returns
// whether the order is past at least one deadline.
func (m *SLAMonitor) sweepOrder(ctx context.Context, order *models.Order, now time.Time) bool {
	responseMinutes, resolutionMinutes := businessflow.BudgetsFor(order)
	states := businessflow.EvaluateOrder(order, responseMinutes, resolutionMinutes, now)

	anyBreached := false
	for _, state := range states {
		if state.Classification == models.SLAClassBreached && state.Met == nil {
			anyBreached = true
		}
		// Met milestones are settled; nothing left to watch.
		if state.Met != nil {
			continue
		}
		if state.Classification == models.SLAClassOnTrack {
			continue
		}

		last, err := m.alertRepo.LatestByOrderAndKind(ctx, order.ID, state.Kind)
		if err != nil {
			m.logger.Printf("sla monitor: load last alert for order %d failed: %v", order.ID, err)
			continue
		}
		if last != nil && last.Classification.Severity() >= state.Classification.Severity() {
			continue
		}

		alert := &models.SLAAlert{
			OrderID:        order.ID,
			Kind:           state.Kind,
			Classification: state.Classification,
			Deadline:       state.Deadline,
		}
		if err := m.alertRepo.Save(ctx, alert); err != nil {
			m.logger.Printf("sla monitor: save alert for order %d failed: %v", order.ID, err)
			continue
		}

		slaAlertsRaised.WithLabelValues(state.Kind.String(), state.Classification.String()).Inc()
		m.logger.Printf("sla monitor: order %s %s deadline %s (%s)",
			order.OrderNumber, state.Kind, state.Classification, state.Deadline.Format(time.RFC3339))
	}
	return anyBreached
}
