package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	apperrors "github.com/gamepub/chain-middleware/pkg/app/errors"
	apphttp "github.com/gamepub/chain-middleware/pkg/app/http"
	"github.com/gamepub/chain-middleware/pkg/broadcast"
	"github.com/gamepub/chain-middleware/pkg/convert"
	"github.com/gamepub/chain-middleware/pkg/ledger"
	"github.com/gamepub/chain-middleware/pkg/lock"
	"github.com/gamepub/chain-middleware/pkg/mint"
)

// HTTP wraps the wallet services to provide HTTP endpoints
type HTTP struct {
	mint      mint.Service
	convert   convert.Service
	lock      lock.Service
	broadcast *broadcast.Service
	ledger    *ledger.Service
	validate  *validator.Validate
	logger    *zap.Logger
}

// RegisterRoutes registers the wallet endpoints on the given chi router
func RegisterRoutes(
	r chi.Router,
	mintSvc mint.Service,
	convertSvc convert.Service,
	lockSvc lock.Service,
	broadcastSvc *broadcast.Service,
	ledgerSvc *ledger.Service,
	logger *zap.Logger,
) {
	h := &HTTP{
		mint:      mintSvc,
		convert:   convertSvc,
		lock:      lockSvc,
		broadcast: broadcastSvc,
		ledger:    ledgerSvc,
		validate:  validator.New(),
		logger:    logger,
	}

	r.Post("/mint/confirm", apphttp.HandleError(h.confirmMint))
	r.Post("/mint/execute", apphttp.HandleError(h.executeMint))
	r.Post("/burn", apphttp.HandleError(h.burn))
	r.Post("/convert/to-currency", apphttp.HandleError(h.convertToCurrency))
	r.Post("/convert/to-token", apphttp.HandleError(h.convertToToken))
	r.Post("/lock", apphttp.HandleError(h.lockToken))
	r.Post("/unlock", apphttp.HandleError(h.unlockToken))
	r.Post("/broadcast", apphttp.HandleError(h.broadcastTx))
	r.Get("/transactions/{requestId}", apphttp.HandleError(h.getTransaction))
}

func (h *HTTP) confirmMint(w http.ResponseWriter, r *http.Request) error {
	var req mint.ConfirmRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	resp, err := h.mint.ConfirmItems(r.Context(), &req)
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, resp)
}

func (h *HTTP) executeMint(w http.ResponseWriter, r *http.Request) error {
	var req mint.ExecuteRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	resp, err := h.mint.MintNft(r.Context(), &req)
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, resp)
}

func (h *HTTP) burn(w http.ResponseWriter, r *http.Request) error {
	var req mint.BurnRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	resp, err := h.mint.BurnNft(r.Context(), &req)
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, resp)
}

func (h *HTTP) convertToCurrency(w http.ResponseWriter, r *http.Request) error {
	var req convert.ToCurrencyRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	resp, err := h.convert.ToCurrency(r.Context(), &req)
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, resp)
}

func (h *HTTP) convertToToken(w http.ResponseWriter, r *http.Request) error {
	var req convert.ToTokenRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	resp, err := h.convert.ToToken(r.Context(), &req)
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, resp)
}

func (h *HTTP) lockToken(w http.ResponseWriter, r *http.Request) error {
	var req lock.LockRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	resp, err := h.lock.Lock(r.Context(), &req)
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, resp)
}

func (h *HTTP) unlockToken(w http.ResponseWriter, r *http.Request) error {
	var req lock.UnlockRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	resp, err := h.lock.Unlock(r.Context(), &req)
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, resp)
}

func (h *HTTP) broadcastTx(w http.ResponseWriter, r *http.Request) error {
	var req broadcast.Request
	if err := h.decode(r, &req); err != nil {
		return err
	}
	resp, err := h.broadcast.Broadcast(r.Context(), &req)
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, resp)
}

func (h *HTTP) getTransaction(w http.ResponseWriter, r *http.Request) error {
	requestID := chi.URLParam(r, "requestId")
	if requestID == "" {
		return apperrors.BadRequestError(nil, "requestId is required")
	}
	tx, err := h.ledger.Get(r.Context(), requestID)
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, tx)
}

// decode reads, parses and validates a JSON request body
func (h *HTTP) decode(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB limit
	if err != nil {
		return apperrors.BadRequestError(err, "failed to read request")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperrors.BadRequestError(err, "invalid JSON")
	}
	if err := h.validate.Struct(dst); err != nil {
		return apperrors.BadRequestError(err, "missing or invalid fields")
	}
	return nil
}
