// Package api serves the remote sync endpoint the desktop ledger pushes to.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IlyasAtabaev731/khata/internal/config"
	"github.com/IlyasAtabaev731/khata/internal/lib/logctx"
	"github.com/IlyasAtabaev731/khata/internal/remote"
	"github.com/gorilla/mux"
)

const (
	SyncPath = "/sync/transactions"

	maxBodyBytes = 32 << 20
)

type Storage interface {
	TransactionsByIDs(ctx context.Context, ids []int64) ([]remote.Transaction, error)
	ApplySync(ctx context.Context, runID string, req remote.SyncRequest) error
}

type APIServer struct {
	config  *config.Config
	logger  *slog.Logger
	server  *http.Server
	storage Storage
}

func New(config *config.Config, logger *slog.Logger, storage Storage) *APIServer {
	return &APIServer{
		config: config,
		logger: logger,
		server: &http.Server{
			Addr:              net.JoinHostPort(config.Server.Host, strconv.Itoa(config.Server.Port)),
			ReadHeaderTimeout: 10 * time.Second,
		},
		storage: storage,
	}
}

func (s *APIServer) Start() error {
	s.logger.Info("Starting server", slog.String("addr", s.server.Addr))

	s.configureRouter()

	return s.server.ListenAndServe()
}

func (s *APIServer) MustStart() {
	err := s.Start()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic("Failed to start server: " + err.Error())
	}
}

func (s *APIServer) Stop(ctx context.Context) error {
	defer s.logger.Info("Server successfully stopped")
	return s.server.Shutdown(ctx)
}

func (s *APIServer) configureRouter() {
	s.server.Handler = s.router()
}

func (s *APIServer) router() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.withLogger)
	router.HandleFunc(SyncPath, s.syncHandler()).Methods(http.MethodPost)
	return router
}

// withLogger tags the request logger with the sync run the client sent.
func (s *APIServer) withLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := s.logger
		if run := r.Header.Get(remote.RunHeader); run != "" {
			log = log.With(slog.String("run", run))
		}
		next.ServeHTTP(w, r.WithContext(logctx.WithLogger(r.Context(), log)))
	})
}

func (s *APIServer) syncHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logctx.FromContext(r.Context())

		var req remote.Request
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			log.Warn("Malformed sync request", "error", err)
			writeJSON(w, r, http.StatusBadRequest, remote.SyncResponse{Success: false, Error: "malformed request body"})
			return
		}

		switch req.Type {
		case remote.TypeGet:
			txns, err := s.storage.TransactionsByIDs(r.Context(), req.LocalIDs)
			if err != nil {
				log.Error("Failed to load transactions", "error", err)
				writeJSON(w, r, http.StatusInternalServerError, remote.SyncResponse{Success: false, Error: "failed to load transactions"})
				return
			}
			log.Debug("Existence query", slog.Int("asked", len(req.LocalIDs)), slog.Int("found", len(txns)))
			writeJSON(w, r, http.StatusOK, txns)

		case remote.TypeSync:
			push := remote.NewSyncRequest(req.Create, req.Update, req.Delete)
			if err := s.storage.ApplySync(r.Context(), r.Header.Get(remote.RunHeader), push); err != nil {
				log.Error("Failed to apply sync", "error", err)
				writeJSON(w, r, http.StatusInternalServerError, remote.SyncResponse{Success: false, Error: "failed to apply sync"})
				return
			}
			log.Info("Sync applied",
				slog.Int("create", len(push.Create)),
				slog.Int("update", len(push.Update)),
				slog.Int("delete", len(push.Delete)),
			)
			writeJSON(w, r, http.StatusOK, remote.SyncResponse{Success: true})

		default:
			writeJSON(w, r, http.StatusBadRequest, remote.SyncResponse{Success: false, Error: "unknown request type: " + req.Type})
		}
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logctx.FromContext(r.Context()).Error("Failed to write response", slog.Int("status", status), "error", err)
	}
}
