package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nmwangi/efootball-league/models"
	"github.com/nmwangi/efootball-league/notifications"
	"github.com/nmwangi/efootball-league/payments"
	"github.com/nmwangi/efootball-league/repositories"
)

// defaultStrength is assigned to players registered through a payment,
// before an admin rates them.
const defaultStrength = 70

type PaymentService interface {
	InitiateEntryPayment(ctx context.Context, tournamentID int, playerName, teamName, phone string) (*models.Payment, error)
	GetByID(ctx context.Context, id int) (*models.Payment, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Payment, error)
	HandleCallback(ctx context.Context, checkoutID string, status models.PaymentStatus, receipt *string) error
}

type paymentService struct {
	baseCtx        context.Context
	paymentRepo    repositories.PaymentRepository
	tournamentRepo repositories.TournamentRepository
	playerRepo     repositories.PlayerRepository
	players        PlayerService
	gateway        payments.Gateway
	poller         *payments.StatusPoller
	notify         *notifications.Store
	logger         *slog.Logger
}

// NewPaymentService takes a base context so the detached poll goroutines
// spawned by InitiateEntryPayment stop with the application instead of
// outliving a graceful shutdown.
func NewPaymentService(
	baseCtx context.Context,
	paymentRepo repositories.PaymentRepository,
	tournamentRepo repositories.TournamentRepository,
	playerRepo repositories.PlayerRepository,
	players PlayerService,
	gateway payments.Gateway,
	poller *payments.StatusPoller,
	notify *notifications.Store,
	logger *slog.Logger,
) PaymentService {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &paymentService{
		baseCtx:        baseCtx,
		paymentRepo:    paymentRepo,
		tournamentRepo: tournamentRepo,
		playerRepo:     playerRepo,
		players:        players,
		gateway:        gateway,
		poller:         poller,
		notify:         notify,
		logger:         logger,
	}
}

// InitiateEntryPayment fires an STK push for the tournament's entry fee
// and records the pending payment. A background goroutine then polls the
// gateway and settles the payment when the push resolves, so a lost
// webhook does not strand it in pending forever.
func (s *paymentService) InitiateEntryPayment(ctx context.Context, tournamentID int, playerName, teamName, phone string) (*models.Payment, error) {
	if playerName == "" || phone == "" {
		return nil, fmt.Errorf("%w: player name and phone are required", ErrValidationFailed)
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}
	if tournament.Status != models.StatusRegistration {
		return nil, ErrRegistrationNotOpen
	}
	if tournament.EntryFeeKES <= 0 {
		return nil, fmt.Errorf("%w: tournament has no entry fee", ErrValidationFailed)
	}

	reference := uuid.NewString()
	push, err := s.gateway.InitiateSTKPush(ctx, payments.STKPushRequest{
		Phone:       phone,
		AmountKES:   tournament.EntryFeeKES,
		Reference:   reference,
		Description: fmt.Sprintf("Entry fee: %s", tournament.Name),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initiate STK push: %w", err)
	}

	payment := &models.Payment{
		TournamentID: tournamentID,
		PlayerName:   playerName,
		TeamName:     teamName,
		Phone:        phone,
		AmountKES:    tournament.EntryFeeKES,
		CheckoutID:   push.CheckoutID,
		Reference:    reference,
		Status:       models.PaymentPending,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	go s.pollUntilSettled(payment)

	s.logger.InfoContext(ctx, "entry payment initiated",
		slog.Int("tournament_id", tournamentID),
		slog.String("checkout_id", push.CheckoutID),
		slog.String("reference", reference))
	return payment, nil
}

func (s *paymentService) GetByID(ctx context.Context, id int) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPaymentNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to load payment %d: %w", id, err)
	}
	return payment, nil
}

func (s *paymentService) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Payment, error) {
	list, err := s.paymentRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments for tournament %d: %w", tournamentID, err)
	}
	return list, nil
}

// HandleCallback is the webhook path; it settles the payment immediately
// instead of waiting for the poller. Repeated callbacks for an already
// settled payment are ignored.
func (s *paymentService) HandleCallback(ctx context.Context, checkoutID string, status models.PaymentStatus, receipt *string) error {
	payment, err := s.paymentRepo.GetByCheckoutID(ctx, checkoutID)
	if err != nil {
		if errors.Is(err, repositories.ErrPaymentNotFound) {
			return ErrPaymentNotFound
		}
		return fmt.Errorf("failed to load payment for checkout %s: %w", checkoutID, err)
	}
	if payment.Status != models.PaymentPending {
		return nil
	}
	return s.settle(ctx, payment, status, receipt)
}

// pollUntilSettled runs detached from the request. Its lifetime is capped
// by the poller's attempt budget plus slack, and it stops early when the
// service's base context is cancelled at shutdown.
func (s *paymentService) pollUntilSettled(payment *models.Payment) {
	ctx, cancel := context.WithTimeout(s.baseCtx, 5*time.Minute)
	defer cancel()

	status, err := s.poller.Poll(ctx, payment.CheckoutID)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		if errors.Is(err, payments.ErrPollTimeout) {
			if settleErr := s.settle(ctx, payment, models.PaymentTimeout, nil); settleErr != nil {
				s.logger.ErrorContext(ctx, "failed to mark payment as timed out",
					slog.Int("payment_id", payment.ID), slog.Any("error", settleErr))
			}
			return
		}
		s.logger.ErrorContext(ctx, "payment polling failed",
			slog.Int("payment_id", payment.ID), slog.Any("error", err))
		return
	}

	// The webhook may have settled it while we were polling.
	current, err := s.paymentRepo.GetByID(ctx, payment.ID)
	if err == nil && current.Status != models.PaymentPending {
		return
	}

	next := models.PaymentFailed
	if status.Status == payments.TxSuccess {
		next = models.PaymentSuccess
	}
	if err := s.settle(ctx, payment, next, status.Receipt); err != nil {
		s.logger.ErrorContext(ctx, "failed to settle polled payment",
			slog.Int("payment_id", payment.ID), slog.Any("error", err))
	}
}

// settle finalizes the payment and, on success, registers the payer and
// enters them into the league.
func (s *paymentService) settle(ctx context.Context, payment *models.Payment, status models.PaymentStatus, receipt *string) error {
	if err := s.paymentRepo.UpdateStatus(ctx, payment.ID, status, receipt); err != nil {
		return fmt.Errorf("failed to update payment %d: %w", payment.ID, err)
	}
	payment.Status = status

	s.logger.InfoContext(ctx, "payment settled",
		slog.Int("payment_id", payment.ID),
		slog.String("status", string(status)))

	if status != models.PaymentSuccess {
		return nil
	}

	player, err := s.playerRepo.GetByName(ctx, payment.PlayerName)
	if err != nil {
		if !errors.Is(err, repositories.ErrPlayerNotFound) {
			return fmt.Errorf("failed to look up payer %s: %w", payment.PlayerName, err)
		}
		player, err = models.NewPlayer(payment.PlayerName, payment.TeamName, defaultStrength)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrValidationFailed, err)
		}
		player.Phone = &payment.Phone
		if err = s.players.Create(ctx, player); err != nil {
			return fmt.Errorf("failed to register payer %s: %w", payment.PlayerName, err)
		}
	}

	if _, err := s.players.JoinLeague(ctx, payment.TournamentID, player.ID); err != nil {
		return fmt.Errorf("failed to enter payer %d into tournament %d: %w", player.ID, payment.TournamentID, err)
	}

	if s.notify != nil {
		body := fmt.Sprintf("%s has joined the league", payment.PlayerName)
		if qErr := s.notify.Queue(ctx, nil, "New entry", body, "payment", payment.ID); qErr != nil {
			s.logger.WarnContext(ctx, "failed to queue entry notification",
				slog.Int("payment_id", payment.ID), slog.Any("error", qErr))
		}
	}
	return nil
}
