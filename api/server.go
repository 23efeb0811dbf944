package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stakeledger/blockchain"
	"stakeledger/mempool"
	"stakeledger/utils"
)

// Server exposes the node's chain and pool over HTTP
type Server struct {
	Router  *mux.Router
	Chain   *blockchain.Blockchain
	Mempool *mempool.Mempool
	Address string // Local wallet address, reported by /status
	Port    int

	// AcceptTimeout bounds how long POST /blocks waits for the writer slot
	AcceptTimeout time.Duration

	httpServer *http.Server
}

// NewServer creates a server and registers its routes
func NewServer(chain *blockchain.Blockchain, pool *mempool.Mempool, address string, port int) *Server {
	s := &Server{
		Router:        mux.NewRouter(),
		Chain:         chain,
		Mempool:       pool,
		Address:       address,
		Port:          port,
		AcceptTimeout: 5 * time.Second,
	}
	s.SetupRoutes()
	return s
}

// SetupRoutes configures the API routes
func (s *Server) SetupRoutes() {
	s.Router.Use(instrument)

	// Chain inspection
	s.Router.HandleFunc("/status", s.StatusHandler).Methods("GET")
	s.Router.HandleFunc("/chain", s.ChainHandler).Methods("GET")
	s.Router.HandleFunc("/blocks/{index:[0-9]+}", s.BlockHandler).Methods("GET")
	s.Router.HandleFunc("/accounts", s.AccountsHandler).Methods("GET")
	s.Router.HandleFunc("/accounts/{id}", s.AccountHandler).Methods("GET")
	s.Router.HandleFunc("/forger/next", s.NextForgerHandler).Methods("GET")

	// Submission
	s.Router.HandleFunc("/transactions", s.TransactionHandler).Methods("POST")
	s.Router.HandleFunc("/mempool", s.MempoolHandler).Methods("GET")
	s.Router.HandleFunc("/blocks", s.AddBlockHandler).Methods("POST")

	s.Router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Handler:      s.Router,
		Addr:         fmt.Sprintf(":%d", s.Port),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.LogInfo("Server starting on port %d", s.Port)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		utils.LogInfo("Shutting down HTTP server")
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
