// internal/api/handler/wallet.go
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tochcoin-wallet/internal/api/middleware"
	"tochcoin-wallet/internal/api/respond"
	"tochcoin-wallet/internal/api/types"
	"tochcoin-wallet/internal/domain"
	"tochcoin-wallet/internal/service"
)

// WalletHandler handles HTTP requests related to wallet operations.
type WalletHandler struct {
	service service.WalletService
	logger  *slog.Logger
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(svc service.WalletService, logger *slog.Logger) *WalletHandler {
	return &WalletHandler{
		service: svc,
		logger:  logger,
	}
}

// GetWallet returns the caller's wallet, creating it on first access.
// GET /v1/wallet
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.service.GetOrCreateWallet(r.Context(), middleware.UserIDFrom(r.Context()))
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, h.logger, http.StatusOK, wallet)
}

// ListTransactions returns the caller's newest ledger entries.
// GET /v1/wallet/transactions?limit=N
func (h *WalletHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	if limit == 0 {
		limit = service.DefaultHistoryLimit
	}
	if limit > service.MaxHistoryLimit {
		limit = service.MaxHistoryLimit
	}

	transactions, err := h.service.ListTransactions(r.Context(), middleware.UserIDFrom(r.Context()), limit)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, h.logger, http.StatusOK, types.ListResponse[domain.Transaction]{Data: transactions, Limit: limit})
}

// Redeem spends TCN from the caller's wallet.
// POST /v1/wallet/redemptions
func (h *WalletHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req types.RedeemRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	h.process(w, r, domain.TransactionRequest{
		UserID:      middleware.UserIDFrom(r.Context()),
		Amount:      int64(req.Amount),
		Type:        domain.TransactionTypeDebit,
		Source:      domain.SourceRedeemPromo,
		Description: req.Description,
	})
}

// Adjust applies an admin correction to any wallet.
// POST /v1/admin/wallets/{userId}/adjustments
func (h *WalletHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req types.AdjustmentRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	userID := chi.URLParam(r, "userId")
	h.logger.Info("admin adjustment requested",
		"user_id", userID,
		"admin_id", middleware.UserIDFrom(r.Context()),
		"amount", int64(req.Amount),
		"type", req.Type,
	)
	h.process(w, r, domain.TransactionRequest{
		UserID:      userID,
		Amount:      int64(req.Amount),
		Type:        domain.TransactionType(req.Type),
		Source:      domain.SourceAdminAdjustment,
		Description: req.Description,
	})
}

func (h *WalletHandler) process(w http.ResponseWriter, r *http.Request, req domain.TransactionRequest) {
	res, err := h.service.ProcessTransaction(r.Context(), req)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, h.logger, http.StatusCreated, types.TransactionResponse{
		Transaction: res.Transaction,
		NewBalance:  res.NewBalance,
	})
}
