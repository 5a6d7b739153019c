package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

type scriptedGateway struct {
	statuses []TxStatus
	errs     []error
	calls    int
}

func (g *scriptedGateway) InitiateSTKPush(ctx context.Context, req STKPushRequest) (*STKPushResponse, error) {
	return &STKPushResponse{CheckoutID: "co-1", Status: TxPending}, nil
}

func (g *scriptedGateway) QueryStatus(ctx context.Context, checkoutID string) (*TransactionStatus, error) {
	i := g.calls
	g.calls++
	if i < len(g.errs) && g.errs[i] != nil {
		return nil, g.errs[i]
	}
	status := TxPending
	if i < len(g.statuses) {
		status = g.statuses[i]
	}
	return &TransactionStatus{CheckoutID: checkoutID, Status: status}, nil
}

func TestPollerReturnsOnSettled(t *testing.T) {
	gw := &scriptedGateway{statuses: []TxStatus{TxPending, TxPending, TxSuccess}}
	clock := clockwork.NewFakeClock()
	poller := NewStatusPoller(gw, clock, time.Second, 10, nil)

	type pollResult struct {
		status *TransactionStatus
		err    error
	}
	done := make(chan pollResult, 1)
	go func() {
		status, err := poller.Poll(context.Background(), "co-1")
		done <- pollResult{status, err}
	}()

	// Two pending answers mean two waits before the success lands.
	for i := 0; i < 2; i++ {
		clock.BlockUntil(1)
		clock.Advance(time.Second)
	}

	res := <-done
	if res.err != nil {
		t.Fatalf("unexpected error: %v", res.err)
	}
	if res.status.Status != TxSuccess {
		t.Errorf("want success, got %s", res.status.Status)
	}
	if gw.calls != 3 {
		t.Errorf("want 3 queries, got %d", gw.calls)
	}
}

func TestPollerCapsAttempts(t *testing.T) {
	gw := &scriptedGateway{} // pending forever
	clock := clockwork.NewFakeClock()
	poller := NewStatusPoller(gw, clock, time.Second, 4, nil)

	done := make(chan error, 1)
	go func() {
		_, err := poller.Poll(context.Background(), "co-1")
		done <- err
	}()

	for i := 0; i < 3; i++ {
		clock.BlockUntil(1)
		clock.Advance(time.Second)
	}

	err := <-done
	if !errors.Is(err, ErrPollTimeout) {
		t.Fatalf("want ErrPollTimeout, got %v", err)
	}
	if gw.calls != 4 {
		t.Errorf("attempt cap of 4 must mean exactly 4 queries, got %d", gw.calls)
	}
}

func TestPollerErrorsCountAsAttempts(t *testing.T) {
	gw := &scriptedGateway{
		errs:     []error{errors.New("boom"), errors.New("boom")},
		statuses: []TxStatus{TxPending, TxPending, TxFailed},
	}
	clock := clockwork.NewFakeClock()
	poller := NewStatusPoller(gw, clock, time.Second, 5, nil)

	done := make(chan *TransactionStatus, 1)
	go func() {
		status, err := poller.Poll(context.Background(), "co-1")
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		done <- status
	}()

	for i := 0; i < 2; i++ {
		clock.BlockUntil(1)
		clock.Advance(time.Second)
	}

	status := <-done
	if status == nil || status.Status != TxFailed {
		t.Fatalf("want failed status after errors, got %+v", status)
	}
}

func TestPollerHonoursCancellation(t *testing.T) {
	gw := &scriptedGateway{}
	clock := clockwork.NewFakeClock()
	poller := NewStatusPoller(gw, clock, time.Second, 10, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := poller.Poll(ctx, "co-1")
		done <- err
	}()

	clock.BlockUntil(1)
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}
