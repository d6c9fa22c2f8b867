package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"stakeledger/models"

	log "github.com/sirupsen/logrus"
)

// noticeRequest is the wire form of an inbound transfer notification.
type noticeRequest struct {
	From      string `json:"from"`
	Amount    int64  `json:"amount"`
	Symbol    string `json:"symbol"`
	Precision uint8  `json:"precision"`
	Memo      string `json:"memo"`
}

// Server receives transfer notifications over HTTP and feeds them to the
// handler. The external token ledger (or its bridge) posts here after each
// confirmed transfer into the contract account.
type Server struct {
	srv *http.Server
}

// NewServer creates the notification HTTP server.
func NewServer(addr string, handler *Handler) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/transfers", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req noticeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "malformed body", http.StatusBadRequest)
			return
		}

		notice := TransferNotice{
			From:     req.From,
			Quantity: models.NewAsset(req.Amount, models.Symbol{Code: req.Symbol, Precision: req.Precision}),
			Memo:     req.Memo,
		}

		if err := handler.HandleTransfer(r.Context(), notice); err != nil {
			log.WithFields(log.Fields{
				"from": notice.From,
				"memo": notice.Memo,
			}).WithError(err).Warn("transfer notice rejected")
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	return &Server{srv: &http.Server{Addr: addr, Handler: mux}}
}

func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNoAuth):
		return http.StatusForbidden
	case errors.Is(err, models.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrParam), errors.Is(err, models.ErrNotPositive):
		return http.StatusBadRequest
	default:
		return http.StatusConflict
	}
}
