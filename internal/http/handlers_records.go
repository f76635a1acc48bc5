package http

import (
	"net/http"

	"fintrack/internal/core"
)

// The plan, debt, and goal collections share the same CRUD shape: list
// the snapshot, create with a store-assigned id, update or delete by the
// id in the path.

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, emptyList(s.store.Expenses()))
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var e core.Expense
	if err := decodeBody(r, &e); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	created, err := s.store.AddExpense(e)
	if err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var e core.Expense
	if err := decodeBody(r, &e); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	e.ID = r.PathValue("id")
	if err := s.store.UpdateExpense(e); err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RemoveExpense(r.PathValue("id")); err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, emptyList(s.store.Incomes()))
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	var in core.Income
	if err := decodeBody(r, &in); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	created, err := s.store.AddIncome(in)
	if err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	var in core.Income
	if err := decodeBody(r, &in); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	in.ID = r.PathValue("id")
	if err := s.store.UpdateIncome(in); err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RemoveIncome(r.PathValue("id")); err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListCreditCards(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, emptyList(s.store.CreditCards()))
}

func (s *Server) handleCreateCreditCard(w http.ResponseWriter, r *http.Request) {
	var c core.CreditCard
	if err := decodeBody(r, &c); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	created, err := s.store.AddCreditCard(c)
	if err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateCreditCard(w http.ResponseWriter, r *http.Request) {
	var c core.CreditCard
	if err := decodeBody(r, &c); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	c.ID = r.PathValue("id")
	if err := s.store.UpdateCreditCard(c); err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCreditCard(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RemoveCreditCard(r.PathValue("id")); err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListLoans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, emptyList(s.store.Loans()))
}

func (s *Server) handleCreateLoan(w http.ResponseWriter, r *http.Request) {
	var l core.Loan
	if err := decodeBody(r, &l); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	created, err := s.store.AddLoan(l)
	if err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateLoan(w http.ResponseWriter, r *http.Request) {
	var l core.Loan
	if err := decodeBody(r, &l); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	l.ID = r.PathValue("id")
	if err := s.store.UpdateLoan(l); err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleDeleteLoan(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RemoveLoan(r.PathValue("id")); err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, emptyList(s.store.Goals()))
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var g core.FinancialGoal
	if err := decodeBody(r, &g); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	created, err := s.store.AddGoal(g)
	if err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var g core.FinancialGoal
	if err := decodeBody(r, &g); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	g.ID = r.PathValue("id")
	if err := s.store.UpdateGoal(g); err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RemoveGoal(r.PathValue("id")); err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
