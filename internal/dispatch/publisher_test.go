package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/OrderBridge/internal/domain"
	"github.com/shaiso/OrderBridge/internal/mq"
)

// --- Fakes ---

type fakeStore struct {
	rows    []domain.InvoiceRecord
	listErr error
	markErr error

	marks [][]string
}

func (s *fakeStore) ListUnpublished(ctx context.Context, windowDays int) ([]domain.InvoiceRecord, error) {
	return s.rows, s.listErr
}

func (s *fakeStore) MarkPublished(ctx context.Context, ids []string) (int64, error) {
	if s.markErr != nil {
		return 0, s.markErr
	}
	s.marks = append(s.marks, ids)
	return int64(len(ids)), nil
}

type sent struct {
	key string
	msg amqp.Publishing
}

// fakeSessions — сессия, которая «подтверждает» всё, кроме failIDs.
type fakeSessions struct {
	openErr error
	failIDs map[string]bool
	sent    []sent
}

func (f *fakeSessions) WithSession(ctx context.Context, fn func(s mq.Sender) error) error {
	if f.openErr != nil {
		return f.openErr
	}
	return fn(f)
}

func (f *fakeSessions) Send(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	var rec struct {
		ExtDocNo string `json:"ExtDocNo"`
		LineNo   int    `json:"LineNo"`
	}
	_ = json.Unmarshal(msg.Body, &rec)

	if f.failIDs[rec.ExtDocNo] || f.failIDs[msg.MessageId] {
		return &mq.PublishError{Queue: routingKey, Err: mq.ErrPublishNacked}
	}
	f.sent = append(f.sent, sent{key: routingKey, msg: msg})
	return nil
}

type fakeTopology struct {
	err     error
	ensured []string
}

func (f *fakeTopology) EnsureQueue(ctx context.Context, name, exchange, dlx string, force bool) error {
	if f.err != nil {
		return f.err
	}
	f.ensured = append(f.ensured, name)
	return nil
}

func newTestPublisher(store *fakeStore, sessions *fakeSessions, topo *fakeTopology) *Publisher {
	return New(Config{
		Store:              store,
		Sessions:           sessions,
		Topology:           topo,
		Exchange:           "fcl.exchange.direct",
		DeadLetterExchange: "fcl.exchange.dlx",
	})
}

func invoice(doc string, line int, cust string) domain.InvoiceRecord {
	return domain.InvoiceRecord{ExtDocNo: doc, LineNo: line, CustNo: cust, ItemNo: "FG1", Qty: 1}
}

// --- Tests ---

func TestRouteByCustomerPrefix(t *testing.T) {
	tests := []struct {
		cust string
		want string
	}{
		{"B100", "invoices_cm.bc"},
		{"b100", "invoices_fcl.bc"},
		{" B100", "invoices_fcl.bc"},
		{"C200", "invoices_rmk.bc"},
		{"c7", "invoices_fcl.bc"},
		{"A900", "invoices_fcl.bc"},
		{"Z1", "invoices_fcl.bc"},
		{"", "invoices_fcl.bc"},
	}

	for _, tt := range tests {
		got := RouteByCustomerPrefix(domain.InvoiceRecord{CustNo: tt.cust})
		if got != tt.want {
			t.Errorf("RouteByCustomerPrefix(%q) = %s, want %s", tt.cust, got, tt.want)
		}
	}
}

func TestPublishAndReconcile_AllConfirmed(t *testing.T) {
	store := &fakeStore{}
	sessions := &fakeSessions{}
	p := newTestPublisher(store, sessions, &fakeTopology{})

	rows := []domain.InvoiceRecord{
		invoice("D1", 1, "B1"),
		invoice("D1", 2, "B1"),
		invoice("D2", 1, "C2"),
		invoice("D3", 1, "A9"),
	}

	n, err := p.PublishAndReconcile(context.Background(), rows, RouteByCustomerPrefix)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 4 {
		t.Errorf("expected 4 confirmed rows, got %d", n)
	}

	wantKeys := []string{"invoices_cm.bc", "invoices_cm.bc", "invoices_rmk.bc", "invoices_fcl.bc"}
	for i, s := range sessions.sent {
		if s.key != wantKeys[i] {
			t.Errorf("row %d routed to %s, want %s", i, s.key, wantKeys[i])
		}
	}

	// Один UPDATE с уникальными документами
	if len(store.marks) != 1 {
		t.Fatalf("expected exactly one reconciliation update, got %d", len(store.marks))
	}
	if got := store.marks[0]; len(got) != 3 || got[0] != "D1" || got[1] != "D2" || got[2] != "D3" {
		t.Errorf("unexpected marked ids: %v", got)
	}
}

func TestPublishAndReconcile_PartialFailure(t *testing.T) {
	store := &fakeStore{}
	sessions := &fakeSessions{failIDs: map[string]bool{"D2": true}}
	p := newTestPublisher(store, sessions, &fakeTopology{})

	rows := []domain.InvoiceRecord{
		invoice("D1", 1, "A1"),
		invoice("D2", 1, "A1"),
		invoice("D3", 1, "A1"),
	}

	n, err := p.PublishAndReconcile(context.Background(), rows, RouteByCustomerPrefix)
	if err != nil {
		t.Fatalf("publish failures should not fail the batch: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 confirmed, got %d", n)
	}

	if len(store.marks) != 1 {
		t.Fatalf("expected one update, got %d", len(store.marks))
	}
	for _, id := range store.marks[0] {
		if id == "D2" {
			t.Error("unconfirmed document must not be marked published")
		}
	}
}

func TestPublishAndReconcile_NothingConfirmed(t *testing.T) {
	store := &fakeStore{}
	sessions := &fakeSessions{failIDs: map[string]bool{"D1": true}}
	p := newTestPublisher(store, sessions, &fakeTopology{})

	n, err := p.PublishAndReconcile(context.Background(), []domain.InvoiceRecord{invoice("D1", 1, "A1")}, RouteByCustomerPrefix)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 confirmed, got %d", n)
	}
	if len(store.marks) != 0 {
		t.Error("no update expected when nothing was confirmed")
	}
}

func TestPublishAndReconcile_InvalidRowsSkipped(t *testing.T) {
	store := &fakeStore{}
	sessions := &fakeSessions{}
	p := newTestPublisher(store, sessions, &fakeTopology{})

	rows := []domain.InvoiceRecord{
		invoice("", 1, "A1"),
		invoice("D1", 1, "A1"),
	}

	n, err := p.PublishAndReconcile(context.Background(), rows, RouteByCustomerPrefix)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 || len(sessions.sent) != 1 {
		t.Errorf("expected only D1 published, got %d (%d sent)", n, len(sessions.sent))
	}
	if len(store.marks) != 1 || len(store.marks[0]) != 1 || store.marks[0][0] != "D1" {
		t.Errorf("unexpected marks: %v", store.marks)
	}
}

func TestPublishAndReconcile_PublishedFlagNotFiltered(t *testing.T) {
	store := &fakeStore{}
	sessions := &fakeSessions{}
	p := newTestPublisher(store, sessions, &fakeTopology{})

	// Отбор по Published делает ListUnpublished; здесь строка публикуется как есть
	rec := invoice("D9", 1, "A1")
	rec.Published = true

	n, err := p.PublishAndReconcile(context.Background(), []domain.InvoiceRecord{rec}, RouteByCustomerPrefix)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 || len(sessions.sent) != 1 {
		t.Fatalf("expected row published, got %d (%d sent)", n, len(sessions.sent))
	}
	if sessions.sent[0].key != "invoices_fcl.bc" {
		t.Errorf("expected invoices_fcl.bc, got %s", sessions.sent[0].key)
	}
	if len(store.marks) != 1 || len(store.marks[0]) != 1 || store.marks[0][0] != "D9" {
		t.Errorf("unexpected marks: %v", store.marks)
	}
}

func TestPublishAndReconcile_PayloadMatchesRecord(t *testing.T) {
	sessions := &fakeSessions{}
	p := newTestPublisher(&fakeStore{}, sessions, &fakeTopology{})

	rec := invoice("D1", 3, "B7")
	rec.UnitPrice = 12.5
	if _, err := p.PublishAndReconcile(context.Background(), []domain.InvoiceRecord{rec}, RouteByCustomerPrefix); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got domain.InvoiceRecord
	if err := json.Unmarshal(sessions.sent[0].msg.Body, &got); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if got.ExtDocNo != "D1" || got.LineNo != 3 || got.UnitPrice != 12.5 {
		t.Errorf("unexpected payload: %+v", got)
	}
	if sessions.sent[0].msg.ContentType != "application/json" {
		t.Errorf("unexpected content type %s", sessions.sent[0].msg.ContentType)
	}
}

func TestPublishAndReconcile_SessionError(t *testing.T) {
	store := &fakeStore{}
	sessions := &fakeSessions{openErr: mq.ErrNoConnection}
	p := newTestPublisher(store, sessions, &fakeTopology{})

	n, err := p.PublishAndReconcile(context.Background(), []domain.InvoiceRecord{invoice("D1", 1, "A1")}, RouteByCustomerPrefix)
	if !errors.Is(err, mq.ErrNoConnection) {
		t.Errorf("expected ErrNoConnection, got %v", err)
	}
	if n != 0 || len(store.marks) != 0 {
		t.Errorf("nothing should be confirmed or marked, got n=%d marks=%v", n, store.marks)
	}
}

func TestPublishPending(t *testing.T) {
	store := &fakeStore{rows: []domain.InvoiceRecord{invoice("D1", 1, "C1")}}
	topo := &fakeTopology{}
	p := newTestPublisher(store, &fakeSessions{}, topo)

	n, err := p.PublishPending(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 confirmed, got %d", n)
	}
	if len(topo.ensured) != len(mq.InvoiceQueues) {
		t.Errorf("expected all invoice queues ensured, got %v", topo.ensured)
	}
}

func TestPublishPending_NoRows(t *testing.T) {
	topo := &fakeTopology{}
	p := newTestPublisher(&fakeStore{}, &fakeSessions{}, topo)

	n, err := p.PublishPending(context.Background())
	if err != nil || n != 0 {
		t.Errorf("expected (0, nil), got (%d, %v)", n, err)
	}
	if len(topo.ensured) != 0 {
		t.Error("topology should not be touched without rows")
	}
}

func TestPublishPending_TopologyError(t *testing.T) {
	store := &fakeStore{rows: []domain.InvoiceRecord{invoice("D1", 1, "A1")}}
	topoErr := &mq.TopologyError{Queue: "invoices_fcl.bc", Op: "recreate", Err: mq.ErrNoConnection}
	p := newTestPublisher(store, &fakeSessions{}, &fakeTopology{err: topoErr})

	_, err := p.PublishPending(context.Background())

	var terr *mq.TopologyError
	if !errors.As(err, &terr) {
		t.Errorf("expected TopologyError, got %v", err)
	}
	if len(store.marks) != 0 {
		t.Error("nothing should be marked on topology failure")
	}
}

func TestPublishOrders(t *testing.T) {
	sessions := &fakeSessions{failIDs: map[string]bool{"WPG8900G500_1": true}}
	topo := &fakeTopology{}
	p := newTestPublisher(&fakeStore{}, sessions, topo)

	orders := []domain.ProductionOrder{
		{OrderNo: "SALT01_Salting", ItemNo: "G500", Quantity: 5},
		{OrderNo: "WPG8900G500_1", ItemNo: "G8900", Quantity: 0.1},
	}

	n, err := p.PublishOrders(context.Background(), mq.QueueProductionOrders, orders)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 confirmed order, got %d", n)
	}
	if len(topo.ensured) != 1 || topo.ensured[0] != mq.QueueProductionOrders {
		t.Errorf("expected production_orders ensured, got %v", topo.ensured)
	}

	s := sessions.sent[0]
	if s.key != "production_orders.bc" || s.msg.MessageId != "SALT01_Salting" {
		t.Errorf("unexpected publish %s / %s", s.key, s.msg.MessageId)
	}
}
