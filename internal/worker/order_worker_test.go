package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/marketplace-api/internal/events"
	"github.com/flicky/marketplace-api/internal/metrics"
	"github.com/flicky/marketplace-api/internal/model"
)

type memorySeen struct {
	ids map[string]bool
	err error
}

func (m *memorySeen) Claim(_ context.Context, id string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.ids[id] {
		return false, nil
	}
	m.ids[id] = true
	return true, nil
}

func (m *memorySeen) Release(_ context.Context, id string) error {
	delete(m.ids, id)
	return nil
}

type memoryStats struct {
	stats map[int64]*model.SellerStats
	err   error
}

func (m *memoryStats) get(id int64) *model.SellerStats {
	if _, ok := m.stats[id]; !ok {
		m.stats[id] = &model.SellerStats{SellerID: id, Revenue: decimal.Zero}
	}
	return m.stats[id]
}

func (m *memoryStats) RecordPlaced(_ context.Context, sellerID, units int64, revenue decimal.Decimal) error {
	if m.err != nil {
		return m.err
	}
	s := m.get(sellerID)
	s.OrdersReceived++
	s.UnitsSold += units
	s.Revenue = s.Revenue.Add(revenue)
	return nil
}

func (m *memoryStats) RecordDelivered(_ context.Context, sellerID int64) error {
	if m.err != nil {
		return m.err
	}
	m.get(sellerID).OrdersDelivered++
	return nil
}

type productTable map[int64]*model.Product

func (t productTable) GetByID(_ context.Context, id int64) (*model.Product, error) {
	return t[id], nil
}

type workerFixture struct {
	worker  *OrderWorker
	seen    *memorySeen
	stats   *memoryStats
	metrics *metrics.OrderMetrics
}

func newWorkerFixture() *workerFixture {
	seen := &memorySeen{ids: make(map[string]bool)}
	stats := &memoryStats{stats: make(map[int64]*model.SellerStats)}
	products := productTable{
		3: {ID: 3, SellerID: 2},
		5: {ID: 5, SellerID: 2},
		8: {ID: 8, SellerID: 4},
	}
	m := metrics.NewOrderMetrics(prometheus.NewRegistry())
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &workerFixture{
		worker:  NewOrderWorker(seen, stats, products, m, log),
		seen:    seen,
		stats:   stats,
		metrics: m,
	}
}

func sampleOrder() *model.Order {
	return &model.Order{
		ID: 42, UserID: 7, TotalAmount: decimal.RequireFromString("55.00"), Status: model.OrderStatusPending,
		Items: []model.OrderItem{
			{ProductID: 3, Quantity: 2, Price: decimal.RequireFromString("10.00")},
			{ProductID: 5, Quantity: 1, Price: decimal.RequireFromString("20.00")},
			{ProductID: 8, Quantity: 3, Price: decimal.RequireFromString("5.00")},
		},
	}
}

func TestOrderWorker_Placed(t *testing.T) {
	f := newWorkerFixture()
	event := events.NewOrderEvent(events.TypeOrderPlaced, sampleOrder())

	require.NoError(t, f.worker.Handle(context.Background(), event))

	s2 := f.stats.stats[2]
	assert.Equal(t, int64(1), s2.OrdersReceived)
	assert.Equal(t, int64(3), s2.UnitsSold)
	assert.True(t, s2.Revenue.Equal(decimal.RequireFromString("40.00")))

	s4 := f.stats.stats[4]
	assert.Equal(t, int64(3), s4.UnitsSold)
	assert.True(t, s4.Revenue.Equal(decimal.RequireFromString("15.00")))
	assert.True(t, f.seen.ids[event.EventID])
}

func TestOrderWorker_DuplicateIsSkipped(t *testing.T) {
	f := newWorkerFixture()
	event := events.NewOrderEvent(events.TypeOrderPlaced, sampleOrder())

	require.NoError(t, f.worker.Handle(context.Background(), event))
	require.NoError(t, f.worker.Handle(context.Background(), event))

	assert.Equal(t, int64(1), f.stats.stats[2].OrdersReceived)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.EventsHandled.WithLabelValues("order.placed", "duplicate")))
}

func TestOrderWorker_Delivered(t *testing.T) {
	f := newWorkerFixture()
	order := sampleOrder()
	order.Status = model.OrderStatusDelivered

	require.NoError(t, f.worker.Handle(context.Background(), events.NewOrderEvent(events.TypeOrderDelivered, order)))

	assert.Equal(t, int64(1), f.stats.stats[2].OrdersDelivered)
	assert.Equal(t, int64(1), f.stats.stats[4].OrdersDelivered)
	assert.Zero(t, f.stats.stats[2].OrdersReceived)
}

func TestOrderWorker_UnknownProductSkipped(t *testing.T) {
	f := newWorkerFixture()
	order := sampleOrder()
	order.Items = append(order.Items, model.OrderItem{ProductID: 99, Quantity: 1, Price: decimal.NewFromInt(1)})

	require.NoError(t, f.worker.Handle(context.Background(), events.NewOrderEvent(events.TypeOrderPlaced, order)))
	assert.Len(t, f.stats.stats, 2)
}

func TestOrderWorker_StoreErrorReleasesClaim(t *testing.T) {
	f := newWorkerFixture()
	f.stats.err = errors.New("redis down")
	event := events.NewOrderEvent(events.TypeOrderPlaced, sampleOrder())

	err := f.worker.Handle(context.Background(), event)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMalformedEvent))
	assert.False(t, f.seen.ids[event.EventID])

	f.stats.err = nil
	require.NoError(t, f.worker.Handle(context.Background(), event))
	assert.Equal(t, int64(1), f.stats.stats[2].OrdersReceived)
}

func TestDecode(t *testing.T) {
	event := events.NewOrderEvent(events.TypeOrderPlaced, sampleOrder())
	body, err := json.Marshal(event)
	require.NoError(t, err)

	got, err := Decode(body)
	require.NoError(t, err)
	assert.Equal(t, event.EventID, got.EventID)
	assert.Len(t, got.Order.Items, 3)

	for _, raw := range []string{`not json`, `{"type":"order.placed"}`, `{"event_id":"x","type":"order.shipped"}`} {
		_, err := Decode([]byte(raw))
		assert.ErrorIs(t, err, ErrMalformedEvent, raw)
	}
}

func TestRabbitMQConsumer_Dispose(t *testing.T) {
	f := newWorkerFixture()
	c := &RabbitMQConsumer{worker: f.worker}
	body, err := json.Marshal(events.NewOrderEvent(events.TypeOrderPlaced, sampleOrder()))
	require.NoError(t, err)

	assert.Equal(t, ackDeadLetter, c.dispose(context.Background(), []byte(`{`)))
	assert.Equal(t, ackDone, c.dispose(context.Background(), body))

	f.seen.err = errors.New("redis down")
	assert.Equal(t, ackRetry, c.dispose(context.Background(), body))
}

func TestKafkaConsumer_ProcessHandlesEvent(t *testing.T) {
	f := newWorkerFixture()
	c := &KafkaConsumer{worker: f.worker}
	body, err := json.Marshal(events.NewOrderEvent(events.TypeOrderPlaced, sampleOrder()))
	require.NoError(t, err)

	c.process(context.Background(), []byte(`garbage`))
	c.process(context.Background(), body)

	assert.Equal(t, int64(1), f.stats.stats[2].OrdersReceived)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.EventsHandled.WithLabelValues("unknown", "malformed")))
}
