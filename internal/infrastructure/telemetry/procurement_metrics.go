package telemetry

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ProcurementMetrics records purchase order workflow counters.
type ProcurementMetrics struct {
	ordersCreated      metric.Int64Counter
	transitions        metric.Int64Counter
	paymentsRecorded   metric.Int64Counter
	paymentAmount      metric.Float64Counter
	unitsRestocked     metric.Int64Counter
	unitsDamaged       metric.Int64Counter
	compensationQueued metric.Int64Counter
}

// NewProcurementMetrics registers the instruments on meter.
func NewProcurementMetrics(meter metric.Meter) (*ProcurementMetrics, error) {
	m := &ProcurementMetrics{}
	var err error

	if m.ordersCreated, err = meter.Int64Counter("procurement.orders.created",
		metric.WithDescription("Purchase orders created"), metric.WithUnit("{order}")); err != nil {
		return nil, fmt.Errorf("create orders counter: %w", err)
	}
	if m.transitions, err = meter.Int64Counter("procurement.orders.transitions",
		metric.WithDescription("Purchase order status transitions"), metric.WithUnit("{transition}")); err != nil {
		return nil, fmt.Errorf("create transitions counter: %w", err)
	}
	if m.paymentsRecorded, err = meter.Int64Counter("procurement.payments.recorded",
		metric.WithDescription("Installment payments recorded"), metric.WithUnit("{payment}")); err != nil {
		return nil, fmt.Errorf("create payments counter: %w", err)
	}
	if m.paymentAmount, err = meter.Float64Counter("procurement.payments.amount",
		metric.WithDescription("Sum of recorded payment amounts"), metric.WithUnit("{INR}")); err != nil {
		return nil, fmt.Errorf("create payment amount counter: %w", err)
	}
	if m.unitsRestocked, err = meter.Int64Counter("procurement.restock.units_added",
		metric.WithDescription("Usable units added to inventory"), metric.WithUnit("{unit}")); err != nil {
		return nil, fmt.Errorf("create restock counter: %w", err)
	}
	if m.unitsDamaged, err = meter.Int64Counter("procurement.restock.units_damaged",
		metric.WithDescription("Units reported damaged on receipt"), metric.WithUnit("{unit}")); err != nil {
		return nil, fmt.Errorf("create damage counter: %w", err)
	}
	if m.compensationQueued, err = meter.Int64Counter("procurement.media.compensation_queued",
		metric.WithDescription("Blob deletions deferred to the retry queue"), metric.WithUnit("{blob}")); err != nil {
		return nil, fmt.Errorf("create compensation counter: %w", err)
	}
	return m, nil
}

// OrderCreated counts a new purchase order.
func (m *ProcurementMetrics) OrderCreated(ctx context.Context) {
	m.ordersCreated.Add(ctx, 1)
}

// StatusChanged counts a transition into status.
func (m *ProcurementMetrics) StatusChanged(ctx context.Context, from, to string) {
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// PaymentRecorded counts a payment and its amount.
func (m *ProcurementMetrics) PaymentRecorded(ctx context.Context, method string, amount decimal.Decimal) {
	attrs := metric.WithAttributes(attribute.String("method", method))
	m.paymentsRecorded.Add(ctx, 1, attrs)
	m.paymentAmount.Add(ctx, amount.InexactFloat64(), attrs)
}

// Restocked counts usable and damaged units from a reconciliation.
func (m *ProcurementMetrics) Restocked(ctx context.Context, unitsAdded, unitsDamaged int) {
	m.unitsRestocked.Add(ctx, int64(unitsAdded))
	m.unitsDamaged.Add(ctx, int64(unitsDamaged))
}

// CompensationQueued counts a blob deletion deferred to the queue.
func (m *ProcurementMetrics) CompensationQueued(ctx context.Context) {
	m.compensationQueued.Add(ctx, 1)
}
