package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"walletcore/internal/apperrors"
	"walletcore/internal/handlers/render"
	"walletcore/internal/handlers/userctx"
	"walletcore/internal/logger"
	"walletcore/internal/models"
)

type walletResponse struct {
	ID          int64           `json:"id"`
	Number      string          `json:"number"`
	VirtualIBAN *string         `json:"virtual_iban,omitempty"`
	Balance     decimal.Decimal `json:"balance"`
	Currency    string          `json:"currency"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toWalletResponse(w models.Wallet) walletResponse {
	return walletResponse{
		ID:          w.ID,
		Number:      w.Number,
		VirtualIBAN: w.VirtualIBAN,
		Balance:     w.Balance,
		Currency:    w.CurrencyCode,
		IsActive:    w.IsActive,
		CreatedAt:   w.CreatedAt,
	}
}

// walletIDFromPath parses the {walletID} path segment
func walletIDFromPath(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("walletID"), 10, 64)
}

func handleCreateWallet(walletService walletService, l logger.Logger) http.Handler {
	type request struct {
		Currency string `json:"currency" validate:"required,len=3"`
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

		wallet, err := walletService.Create(r.Context(), user.ID, data.Currency)
		if err != nil {
			l.Error("Failed to create wallet", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSONWithStatus(w, toWalletResponse(wallet), http.StatusCreated)
	})
}

func handleListWallets(walletService walletService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		wallets, err := walletService.ListForUser(r.Context(), user.ID)
		if err != nil {
			l.Error("Failed to list wallets", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		response := make([]walletResponse, 0, len(wallets))
		for _, wallet := range wallets {
			response = append(response, toWalletResponse(wallet))
		}
		render.JSON(w, response)
	})
}

func handleDeactivateWallet(walletService walletService, l logger.Logger) http.Handler {
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

		err = walletService.Deactivate(r.Context(), walletID, user.ID)
		switch {
		case err == nil:
			w.WriteHeader(http.StatusNoContent)
		case errors.Is(err, apperrors.ErrWalletNotFound):
			render.ServiceError(w, "Wallet not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrUnauthorizedWallet):
			render.ServiceError(w, "Wallet belongs to another user", http.StatusForbidden)
		default:
			l.Error("Failed to deactivate wallet", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
