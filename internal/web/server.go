// Package web exposes the sync pipeline over HTTP and maps typed failures
// onto response statuses.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/finbase/nobisync/internal/domain"
	"github.com/finbase/nobisync/internal/services/syncer"
)

// BalanceFetcher lists a user's holdings.
type BalanceFetcher interface {
	FetchUserBalances(ctx context.Context, apiKey string) ([]domain.Balance, error)
}

// ValueFetcher returns current market values for the requested assets.
type ValueFetcher interface {
	FetchAssetValues(ctx context.Context, requested []string) ([]domain.AssetValue, error)
}

// TransactionSyncer returns transactions newer than the caller's cursors.
type TransactionSyncer interface {
	Sync(ctx context.Context, req syncer.Request) ([]domain.Transaction, error)
}

// Enricher attaches prices to a batch of transactions.
type Enricher interface {
	EnrichBatch(ctx context.Context, txs []domain.Transaction) []domain.Transaction
}

// Server exposes balance, value and sync endpoints.
type Server struct {
	addr     string
	balances BalanceFetcher
	values   ValueFetcher
	syncer   TransactionSyncer
	enricher Enricher
	logger   *zap.Logger
}

// NewServer creates the HTTP layer over the pipeline services.
func NewServer(addr string, balances BalanceFetcher, values ValueFetcher, sync TransactionSyncer, enrich Enricher, logger *zap.Logger) *Server {
	return &Server{
		addr:     addr,
		balances: balances,
		values:   values,
		syncer:   sync,
		enricher: enrich,
		logger:   logger,
	}
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is
// cancelled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/balances", s.handleBalances)
	mux.HandleFunc("/values", s.handleValues)
	mux.HandleFunc("/transactions/sync", s.handleSync)

	server := &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"msg": "method not allowed"})
		return
	}

	apiKey, err := apiKeyFromRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	balances, err := s.balances.FetchUserBalances(r.Context(), apiKey)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"balances": balances})
}

func (s *Server) handleValues(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"msg": "method not allowed"})
		return
	}

	requested := strings.Split(r.URL.Query().Get("assets"), ",")
	if len(requested) == 1 && requested[0] == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "assets query parameter is required"})
		return
	}

	values, err := s.values.FetchAssetValues(r.Context(), requested)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"values": values})
}

type syncResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
	Errors       []string             `json:"errors,omitempty"`
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"msg": "method not allowed"})
		return
	}

	var req syncer.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "malformed request body"})
		return
	}

	txs, err := s.syncer.Sync(r.Context(), req)
	if err != nil {
		var serr *domain.SyncError
		if !errors.As(err, &serr) {
			// not a per-wallet failure, the whole call is broken
			s.writeError(w, err)
			return
		}
	}

	resp := syncResponse{Transactions: s.enricher.EnrichBatch(r.Context(), txs)}
	if resp.Transactions == nil {
		resp.Transactions = []domain.Transaction{}
	}
	if err != nil {
		for _, werr := range multierr.Errors(err) {
			resp.Errors = append(resp.Errors, werr.Error())
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// writeError renders typed failures with their status and hides everything
// else behind a generic message, recording it for diagnostics.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		verr *domain.ValidationError
		rerr *domain.RemoteError
		serr *domain.SyncError
		perr *domain.ParseError
	)

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": verr.Error()})
	case errors.As(err, &serr):
		writeJSON(w, http.StatusBadGateway, map[string]string{"msg": serr.Error()})
	case errors.As(err, &rerr):
		writeJSON(w, http.StatusBadGateway, map[string]string{"msg": rerr.Error()})
	case errors.As(err, &perr):
		writeJSON(w, http.StatusBadGateway, map[string]string{"msg": perr.Error()})
	default:
		s.logger.Error("unhandled error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"msg": "error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func apiKeyFromRequest(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Token ")
	if !ok || token == "" {
		return "", &domain.ValidationError{Reason: "Authorization header must be 'Token <apiKey>'"}
	}
	return token, nil
}
