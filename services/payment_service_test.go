package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/nmwangi/efootball-league/models"
	"github.com/nmwangi/efootball-league/payments"
)

type fakeGateway struct {
	checkoutID string
	status     payments.TxStatus

	mu      sync.Mutex
	queries int
}

func (g *fakeGateway) InitiateSTKPush(_ context.Context, _ payments.STKPushRequest) (*payments.STKPushResponse, error) {
	return &payments.STKPushResponse{CheckoutID: g.checkoutID, Status: payments.TxPending}, nil
}

func (g *fakeGateway) QueryStatus(_ context.Context, _ string) (*payments.TransactionStatus, error) {
	g.mu.Lock()
	g.queries++
	g.mu.Unlock()
	return &payments.TransactionStatus{CheckoutID: g.checkoutID, Status: g.status}, nil
}

func (g *fakeGateway) queryCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.queries
}

func newPaymentFixture(t *testing.T, baseCtx context.Context, gateway *fakeGateway) (PaymentService, *fakePaymentRepo, *fakePlayerRepo, *fakeStandingRepo) {
	t.Helper()

	alice, err := models.NewPlayer("Alice", "Arsenal", 80)
	if err != nil {
		t.Fatalf("seed player: %v", err)
	}
	players := newFakePlayerRepo(alice)

	tournament := &models.Tournament{
		ID:          7,
		Name:        "Estate Cup",
		Format:      models.FormatLeague,
		Status:      models.StatusRegistration,
		EntryFeeKES: 200,
		RegDate:     time.Now().AddDate(0, 0, -1),
		StartDate:   time.Now().AddDate(0, 0, 7),
		EndDate:     time.Now().AddDate(0, 1, 0),
	}
	tournaments := newFakeTournamentRepo(tournament)

	fixtures := &fakeFixtureRepo{}
	results := &fakeResultRepo{}
	standings := &fakeStandingRepo{}
	paymentsRepo := &fakePaymentRepo{}

	playerSvc := NewPlayerService(newFakeDB(), players, fixtures, results, standings, tournaments, &fakeTokenRepo{}, nil, testLogger())

	poller := payments.NewStatusPoller(gateway, clockwork.NewFakeClock(), time.Second, 3, testLogger())
	svc := NewPaymentService(baseCtx, paymentsRepo, tournaments, players, playerSvc, gateway, poller, nil, testLogger())
	return svc, paymentsRepo, players, standings
}

func TestInitiateEntryPaymentRecordsPending(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{checkoutID: "co-100", status: payments.TxPending}
	baseCtx, cancel := context.WithCancel(context.Background())
	cancel() // keep the detached poller from running in this test

	svc, paymentRepo, _, _ := newPaymentFixture(t, baseCtx, gateway)

	payment, err := svc.InitiateEntryPayment(ctx, 7, "Brian", "Chelsea", "+254700000001")
	if err != nil {
		t.Fatalf("InitiateEntryPayment: %v", err)
	}
	if payment.Status != models.PaymentPending {
		t.Errorf("status: want pending, got %s", payment.Status)
	}
	if payment.CheckoutID != "co-100" {
		t.Errorf("checkout id: want co-100, got %s", payment.CheckoutID)
	}
	if payment.AmountKES != 200 {
		t.Errorf("amount: want 200, got %d", payment.AmountKES)
	}

	stored, err := paymentRepo.GetByCheckoutID(ctx, "co-100")
	if err != nil {
		t.Fatalf("stored payment: %v", err)
	}
	if stored.Reference == "" {
		t.Error("stored payment has no reference")
	}
}

func TestInitiateEntryPaymentRequiresOpenRegistrationAndFee(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{checkoutID: "co-101", status: payments.TxPending}
	svc, _, _, _ := newPaymentFixture(t, ctx, gateway)

	if _, err := svc.InitiateEntryPayment(ctx, 7, "", "Chelsea", "+254700000001"); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("missing name: want ErrValidationFailed, got %v", err)
	}
	if _, err := svc.InitiateEntryPayment(ctx, 99, "Brian", "Chelsea", "+254700000001"); !errors.Is(err, ErrTournamentNotFound) {
		t.Errorf("unknown tournament: want ErrTournamentNotFound, got %v", err)
	}
}

func TestHandleCallbackRegistersPayerAndEntersLeague(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{checkoutID: "co-102", status: payments.TxPending}
	baseCtx, cancel := context.WithCancel(context.Background())
	cancel()

	svc, paymentRepo, players, standings := newPaymentFixture(t, baseCtx, gateway)

	if _, err := svc.InitiateEntryPayment(ctx, 7, "Brian", "Chelsea", "+254700000001"); err != nil {
		t.Fatalf("InitiateEntryPayment: %v", err)
	}

	receipt := "QDX12345"
	if err := svc.HandleCallback(ctx, "co-102", models.PaymentSuccess, &receipt); err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}

	settled, err := paymentRepo.GetByCheckoutID(ctx, "co-102")
	if err != nil {
		t.Fatalf("settled payment: %v", err)
	}
	if settled.Status != models.PaymentSuccess {
		t.Errorf("status: want success, got %s", settled.Status)
	}
	if settled.Receipt == nil || *settled.Receipt != receipt {
		t.Errorf("receipt not stored, got %v", settled.Receipt)
	}

	brian, err := players.GetByName(ctx, "Brian")
	if err != nil {
		t.Fatalf("payer was not registered: %v", err)
	}
	if brian.Phone == nil || *brian.Phone != "+254700000001" {
		t.Errorf("payer phone not carried over, got %v", brian.Phone)
	}

	rows, err := standings.ListByTournament(ctx, 7, false)
	if err != nil {
		t.Fatalf("standings: %v", err)
	}
	found := false
	for _, row := range rows {
		if row.PlayerID == brian.ID {
			found = true
		}
	}
	if !found {
		t.Error("payer has no standing row after successful payment")
	}

	// A repeated callback for a settled payment is a no-op.
	if err := svc.HandleCallback(ctx, "co-102", models.PaymentFailed, nil); err != nil {
		t.Fatalf("repeat callback: %v", err)
	}
	settled, _ = paymentRepo.GetByCheckoutID(ctx, "co-102")
	if settled.Status != models.PaymentSuccess {
		t.Errorf("repeat callback overwrote status: got %s", settled.Status)
	}
}

func TestPollerStopsOnShutdownWithoutSettling(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{checkoutID: "co-103", status: payments.TxPending}
	baseCtx, cancel := context.WithCancel(context.Background())

	svc, paymentRepo, _, _ := newPaymentFixture(t, baseCtx, gateway)

	payment, err := svc.InitiateEntryPayment(ctx, 7, "Brian", "Chelsea", "+254700000001")
	if err != nil {
		t.Fatalf("InitiateEntryPayment: %v", err)
	}

	// Simulate shutdown, then run the poll loop to completion. The fake
	// clock never fires, so the cancelled context is the only exit.
	cancel()
	svc.(*paymentService).pollUntilSettled(payment)

	stored, err := paymentRepo.GetByID(ctx, payment.ID)
	if err != nil {
		t.Fatalf("stored payment: %v", err)
	}
	if stored.Status != models.PaymentPending {
		t.Errorf("shutdown settled the payment: got %s", stored.Status)
	}
	if n := gateway.queryCount(); n > 2 {
		t.Errorf("poller kept querying after shutdown: %d queries", n)
	}
}
