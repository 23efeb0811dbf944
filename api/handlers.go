package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"stakeledger/blockchain"
	"stakeledger/mempool"
	"stakeledger/utils"
)

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error     string `json:"error"`
	Predicate string `json:"predicate,omitempty"`
}

// AccountResponse reports an identity's ledger state
type AccountResponse struct {
	ID      string  `json:"id"`
	Balance float64 `json:"balance"`
	Stake   float64 `json:"stake"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		utils.LogError("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// StatusHandler returns a summary of the local chain
func (s *Server) StatusHandler(w http.ResponseWriter, r *http.Request) {
	last := s.Chain.GetLastBlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"length":        s.Chain.GetLength(),
		"lastBlockHash": last.Hash(),
		"lastForger":    last.Forger,
		"mempoolSize":   s.Mempool.GetSize(),
		"address":       s.Address,
	})
}

// ChainHandler returns the entire chain
func (s *Server) ChainHandler(w http.ResponseWriter, r *http.Request) {
	utils.LogDebug("Received request for blockchain from %s", r.RemoteAddr)
	writeJSON(w, http.StatusOK, s.Chain.ToJSON())
}

// BlockHandler returns one block by index
func (s *Server) BlockHandler(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.ParseUint(mux.Vars(r)["index"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	block, ok := s.Chain.GetBlockByIndex(index)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("block not found"))
		return
	}
	writeJSON(w, http.StatusOK, block.ToJSON())
}

// AccountHandler returns an identity's balance and stake
func (s *Server) AccountHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	writeJSON(w, http.StatusOK, AccountResponse{
		ID:      id,
		Balance: s.Chain.GetBalance(id),
		Stake:   s.Chain.GetStake(id),
	})
}

// AccountsHandler lists every identity holding a balance or a stake, ordered by id
func (s *Server) AccountsHandler(w http.ResponseWriter, r *http.Request) {
	balances := s.Chain.Accounts()
	stakes := s.Chain.Stakers()

	ids := make([]string, 0, len(balances)+len(stakes))
	for id := range balances {
		ids = append(ids, id)
	}
	for id := range stakes {
		if _, seen := balances[id]; !seen {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	accounts := make([]AccountResponse, 0, len(ids))
	for _, id := range ids {
		accounts = append(accounts, AccountResponse{ID: id, Balance: balances[id], Stake: stakes[id]})
	}
	writeJSON(w, http.StatusOK, accounts)
}

// NextForgerHandler returns the identity selected to forge the next block
func (s *Server) NextForgerHandler(w http.ResponseWriter, r *http.Request) {
	forger, err := s.Chain.FindNextForger()
	if errors.Is(err, blockchain.ErrNoEligibleForger) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"forger": forger,
		"index":  s.Chain.GetLastBlock().Index + 1,
	})
}

// TransactionHandler adds a new transaction to the mempool
func (s *Server) TransactionHandler(w http.ResponseWriter, r *http.Request) {
	var tx blockchain.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		utils.LogError("Error decoding transaction: %v", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	if tx.Timestamp == 0 {
		tx.Timestamp = time.Now().UTC().Unix()
	}

	err := s.Mempool.AddTransaction(&tx)
	switch {
	case errors.Is(err, mempool.ErrDuplicateTransaction):
		writeError(w, http.StatusConflict, err)
		return
	case err != nil:
		utils.LogError("Transaction rejected: %v", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}

	utils.LogInfo("Transaction added to mempool: %s", tx.ID)
	writeJSON(w, http.StatusCreated, tx.ToJSON())
}

// MempoolHandler returns the pending transactions in forging order
func (s *Server) MempoolHandler(w http.ResponseWriter, r *http.Request) {
	pending := s.Mempool.GetPendingTransactions(0)
	txs := make([]map[string]any, 0, len(pending))
	for _, tx := range pending {
		txs = append(txs, tx.ToJSON())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"size":         len(txs),
		"transactions": txs,
	})
}

// AddBlockHandler admits a block forged by another node
func (s *Server) AddBlockHandler(w http.ResponseWriter, r *http.Request) {
	var block blockchain.Block
	if err := json.NewDecoder(r.Body).Decode(&block); err != nil {
		utils.LogError("Error decoding block: %v", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.AcceptTimeout)
	defer cancel()

	err := s.Chain.AcceptBlock(ctx, &block)
	var rejected *blockchain.BlockRejectedError
	switch {
	case errors.As(err, &rejected):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Predicate: rejected.Predicate})
		return
	case errors.Is(err, blockchain.ErrWriterBusy):
		writeError(w, http.StatusServiceUnavailable, err)
		return
	case err != nil:
		utils.LogError("Failed to add block #%d: %v", block.Index, err)
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.Mempool.RemoveProcessed(block.Transactions)
	utils.LogInfo("Added block #%d from forger %s", block.Index, block.Forger)
	writeJSON(w, http.StatusCreated, map[string]any{"index": block.Index, "hash": block.Hash()})
}
