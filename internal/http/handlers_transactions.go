package http

import (
	"net/http"

	"fintrack/internal/core"
)

// handleListTransactions returns the transactions passing the active
// filter, in store order.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, emptyList(s.agg.FilteredTransactions()))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var tx core.Transaction
	if err := decodeBody(r, &tx); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	created, err := s.store.AddTransaction(tx)
	if err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var tx core.Transaction
	if err := decodeBody(r, &tx); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	tx.ID = r.PathValue("id")
	if err := s.store.UpdateTransaction(tx); err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RemoveTransaction(r.PathValue("id")); err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// handleTransactionsOn returns transactions dated exactly on ?date=.
func (s *Server) handleTransactionsOn(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateQuery(r, "date")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, emptyList(s.agg.TransactionsOn(date)))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, emptyList(s.agg.Categories()))
}
