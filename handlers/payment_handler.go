package handlers

import (
	"errors"
	"net/http"

	"github.com/nmwangi/efootball-league/models"
	"github.com/nmwangi/efootball-league/payments"
	"github.com/nmwangi/efootball-league/services"
)

type PaymentHandler struct {
	paymentService services.PaymentService
}

func NewPaymentHandler(ps services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: ps}
}

// InitiateHandler handles POST /tournaments/{tournamentID}/payments and
// fires an M-Pesa STK push at the supplied phone number.
func (h *PaymentHandler) InitiateHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		PlayerName string `json:"player_name"`
		TeamName   string `json:"team_name"`
		Phone      string `json:"phone"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.PlayerName == "" || input.Phone == "" {
		badRequestResponse(w, r, errors.New("player_name and phone are required"))
		return
	}

	payment, err := h.paymentService.InitiateEntryPayment(r.Context(), tournamentID, input.PlayerName, input.TeamName, input.Phone)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusAccepted, jsonResponse{"payment": payment}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler handles GET /payments/{paymentID}
func (h *PaymentHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "paymentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	payment, err := h.paymentService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"payment": payment}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListByTournamentHandler handles GET /tournaments/{tournamentID}/payments
func (h *PaymentHandler) ListByTournamentHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	list, err := h.paymentService.ListByTournament(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"payments": list}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CallbackHandler handles POST /payments/payflow/callback, the PayFlow webhook.
// The gateway retries on non-2xx, so unknown checkout ids are acknowledged
// rather than rejected.
func (h *PaymentHandler) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		CheckoutID string           `json:"checkout_id"`
		Status     payments.TxStatus `json:"status"`
		Receipt    *string          `json:"receipt"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.CheckoutID == "" {
		badRequestResponse(w, r, errors.New("checkout_id is required"))
		return
	}

	var status models.PaymentStatus
	switch input.Status {
	case payments.TxSuccess:
		status = models.PaymentSuccess
	case payments.TxFailed:
		status = models.PaymentFailed
	case payments.TxPending:
		// Nothing to apply yet; acknowledge so the gateway stops retrying.
		w.WriteHeader(http.StatusOK)
		return
	default:
		badRequestResponse(w, r, errors.New("unknown transaction status"))
		return
	}

	err := h.paymentService.HandleCallback(r.Context(), input.CheckoutID, status, input.Receipt)
	if err != nil && !errors.Is(err, services.ErrPaymentNotFound) {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"acknowledged": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
