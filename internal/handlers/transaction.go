package handlers

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"walletcore/internal/apperrors"
	"walletcore/internal/handlers/render"
	"walletcore/internal/handlers/userctx"
	"walletcore/internal/logger"
	"walletcore/internal/models"
	"walletcore/internal/service/transaction"
)

type flowResponse struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	ReferenceCode string    `json:"reference_code"`
	Status        string    `json:"status"`
}

type transactionResponse struct {
	ID               uuid.UUID       `json:"id"`
	Kind             string          `json:"kind"`
	Status           string          `json:"status"`
	Amount           decimal.Decimal `json:"amount"`
	Fee              decimal.Decimal `json:"fee"`
	Currency         string          `json:"currency"`
	SenderWalletID   *int64          `json:"sender_wallet_id,omitempty"`
	ReceiverWalletID *int64          `json:"receiver_wallet_id,omitempty"`
	ReferenceCode    string          `json:"reference_code"`
	Description      string          `json:"description,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

func toTransactionResponse(t models.Transaction) transactionResponse {
	return transactionResponse{
		ID:               t.ID,
		Kind:             t.Kind,
		Status:           t.Status,
		Amount:           t.Amount,
		Fee:              t.Fee,
		Currency:         t.CurrencyCode,
		SenderWalletID:   t.SenderWalletID,
		ReceiverWalletID: t.ReceiverWalletID,
		ReferenceCode:    t.ReferenceCode,
		Description:      t.Description,
		CreatedAt:        t.CreatedAt,
	}
}

// clientIP returns the remote address without the port part
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// renderFlowError maps flow errors to HTTP statuses. All three money flows
// share the same error surface.
func renderFlowError(w http.ResponseWriter, l logger.Logger, result transaction.Result, err error) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidAmount):
		render.ServiceError(w, "Amount must be positive", http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrInvalidIBAN):
		render.ServiceError(w, "Destination IBAN is not valid", http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrSameWallet):
		render.ServiceError(w, "Sender and receiver wallets must differ", http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrCurrencyMismatch):
		render.ServiceError(w, "Currency doesn't match the wallet", http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrWalletNotFound):
		render.ServiceError(w, "Wallet not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrWalletInactive):
		render.ServiceError(w, "Wallet is deactivated", http.StatusConflict)
	case errors.Is(err, apperrors.ErrInsufficientBalance):
		render.ServiceError(w, "Insufficient balance", http.StatusPaymentRequired)
	case errors.Is(err, apperrors.ErrLimitExceeded):
		render.ServiceError(w, err.Error(), http.StatusUnprocessableEntity)
	case result.TransactionID != uuid.Nil:
		// The flow produced a transaction but could not complete it.
		// Return the reference so the caller may check its state later.
		l.Error("Flow not completed", "transaction_id", result.TransactionID, "error", err)
		render.JSONWithStatus(w, flowResponse(result), http.StatusBadGateway)
	default:
		l.Error("Flow failed", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func handleTopUp(transactionService transactionService, walletService walletService, l logger.Logger) http.Handler {
	type request struct {
		WalletID    int64           `json:"wallet_id" validate:"required"`
		Amount      decimal.Decimal `json:"amount" validate:"required"`
		Currency    string          `json:"currency" validate:"required,len=3"`
		SourceRef   string          `json:"source_ref" validate:"required"`
		Description string          `json:"description" validate:"max=255"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		if _, err := walletService.GetOwned(r.Context(), data.WalletID, user.ID); err != nil {
			renderOwnershipError(w, l, err)
			return
		}

		result, err := transactionService.TopUp(r.Context(), transaction.TopUpRequest{
			WalletID:     data.WalletID,
			Amount:       data.Amount,
			SourceRef:    data.SourceRef,
			CurrencyCode: data.Currency,
			Description:  data.Description,
			IPAddress:    clientIP(r),
		})
		if err != nil {
			renderFlowError(w, l, result, err)
			return
		}

		render.JSON(w, flowResponse(result))
	})
}

func handleTransfer(transactionService transactionService, walletService walletService, l logger.Logger) http.Handler {
	type request struct {
		SenderWalletID       int64           `json:"sender_wallet_id" validate:"required"`
		ReceiverWalletNumber string          `json:"receiver_wallet_number" validate:"required"`
		Amount               decimal.Decimal `json:"amount" validate:"required"`
		Currency             string          `json:"currency" validate:"required,len=3"`
		Description          string          `json:"description" validate:"max=255"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		if _, err := walletService.GetOwned(r.Context(), data.SenderWalletID, user.ID); err != nil {
			renderOwnershipError(w, l, err)
			return
		}

		result, err := transactionService.Transfer(r.Context(), transaction.TransferRequest{
			SenderWalletID:       data.SenderWalletID,
			ReceiverWalletNumber: data.ReceiverWalletNumber,
			Amount:               data.Amount,
			CurrencyCode:         data.Currency,
			Description:          data.Description,
			IPAddress:            clientIP(r),
		})
		if err != nil {
			renderFlowError(w, l, result, err)
			return
		}

		render.JSON(w, flowResponse(result))
	})
}

func handleWithdraw(transactionService transactionService, walletService walletService, l logger.Logger) http.Handler {
	type request struct {
		WalletID        int64           `json:"wallet_id" validate:"required"`
		Amount          decimal.Decimal `json:"amount" validate:"required"`
		Currency        string          `json:"currency" validate:"required,len=3"`
		DestinationIBAN string          `json:"destination_iban" validate:"required,iban"`
		Description     string          `json:"description" validate:"max=255"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		if _, err := walletService.GetOwned(r.Context(), data.WalletID, user.ID); err != nil {
			renderOwnershipError(w, l, err)
			return
		}

		result, err := transactionService.Withdraw(r.Context(), transaction.WithdrawRequest{
			WalletID:        data.WalletID,
			Amount:          data.Amount,
			DestinationIBAN: data.DestinationIBAN,
			CurrencyCode:    data.Currency,
			Description:     data.Description,
			IPAddress:       clientIP(r),
		})
		if err != nil {
			renderFlowError(w, l, result, err)
			return
		}

		render.JSON(w, flowResponse(result))
	})
}

func handleListWalletTransactions(transactionService transactionService, walletService walletService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		walletID, err := walletIDFromPath(r)
		if err != nil {
			render.ServiceError(w, "Invalid wallet id", http.StatusBadRequest)
			return
		}

		if _, err := walletService.GetOwned(r.Context(), walletID, user.ID); err != nil {
			renderOwnershipError(w, l, err)
			return
		}

		transactions, err := transactionService.ListWalletTransactions(r.Context(), walletID)
		if err != nil {
			l.Error("Failed to list transactions", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		response := make([]transactionResponse, 0, len(transactions))
		for _, t := range transactions {
			response = append(response, toTransactionResponse(t))
		}
		render.JSON(w, response)
	})
}

func handleGetTransaction(transactionService transactionService, walletService walletService, l logger.Logger) http.Handler {
	type response struct {
		transactionResponse
		SenderWalletNumber   *string `json:"sender_wallet_number,omitempty"`
		ReceiverWalletNumber *string `json:"receiver_wallet_number,omitempty"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		id, err := uuid.Parse(r.PathValue("transactionID"))
		if err != nil {
			render.ServiceError(w, "Invalid transaction id", http.StatusBadRequest)
			return
		}

		detail, err := transactionService.GetTransaction(r.Context(), id)
		switch {
		case err == nil:
		case errors.Is(err, apperrors.ErrTransactionNotFound):
			render.ServiceError(w, "Transaction not found", http.StatusNotFound)
			return
		default:
			l.Error("Failed to get transaction", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		// A transaction is visible only to owners of the wallets it touches.
		// Respond with not found so strangers can't probe for existence.
		if !ownsTransactionSide(r, walletService, detail, user.ID) {
			render.ServiceError(w, "Transaction not found", http.StatusNotFound)
			return
		}

		render.JSON(w, response{
			transactionResponse:  toTransactionResponse(detail.Transaction),
			SenderWalletNumber:   detail.SenderWalletNumber,
			ReceiverWalletNumber: detail.ReceiverWalletNumber,
		})
	})
}

func ownsTransactionSide(r *http.Request, walletService walletService, detail models.TransactionDetail, userID uuid.UUID) bool {
	for _, walletID := range []*int64{detail.SenderWalletID, detail.ReceiverWalletID} {
		if walletID == nil {
			continue
		}
		if _, err := walletService.GetOwned(r.Context(), *walletID, userID); err == nil {
			return true
		}
	}
	return false
}

func renderOwnershipError(w http.ResponseWriter, l logger.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrWalletNotFound):
		render.ServiceError(w, "Wallet not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrUnauthorizedWallet):
		render.ServiceError(w, "Wallet belongs to another user", http.StatusForbidden)
	default:
		l.Error("Failed to check wallet ownership", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}
