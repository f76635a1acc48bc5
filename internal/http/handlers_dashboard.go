package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/metrics"
)

func (s *Server) handleGetFilters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.agg.Filter())
}

// handleSetFilters merges the submitted criteria into the active filter.
func (s *Server) handleSetFilters(w http.ResponseWriter, r *http.Request) {
	var f core.FilterState
	if err := decodeBody(r, &f); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if f.Kind != "" && !f.Kind.IsValid() {
		writeBadRequest(w, "kind must be all, income, or expense")
		return
	}
	s.agg.SetFilters(f)
	writeJSON(w, http.StatusOK, s.agg.Filter())
}

func (s *Server) handleResetFilters(w http.ResponseWriter, r *http.Request) {
	s.agg.ResetFilters()
	writeJSON(w, http.StatusOK, s.agg.Filter())
}

// summaryResponse carries every headline figure in one payload. Realized
// and planned families stay in separate fields.
type summaryResponse struct {
	TotalIncome            core.Money `json:"total_income"`
	TotalExpenses          core.Money `json:"total_expenses"`
	NetCashFlow            core.Money `json:"net_cash_flow"`
	FilteredIncome         core.Money `json:"filtered_income"`
	FilteredExpenses       core.Money `json:"filtered_expenses"`
	FilteredNetCashFlow    core.Money `json:"filtered_net_cash_flow"`
	PlannedMonthlyIncome   core.Money `json:"planned_monthly_income"`
	PlannedMonthlyExpenses core.Money `json:"planned_monthly_expenses"`
	TotalDebt              core.Money `json:"total_debt"`
	MonthlyDebtPayments    core.Money `json:"monthly_debt_payments"`
	TotalCreditLimit       core.Money `json:"total_credit_limit"`
	TotalCreditBalance     core.Money `json:"total_credit_balance"`
	CreditUtilization      float64    `json:"credit_utilization"`
}

func (s *Server) buildSummary() summaryResponse {
	return summaryResponse{
		TotalIncome:            s.agg.TotalIncome(false),
		TotalExpenses:          s.agg.TotalExpenses(false),
		NetCashFlow:            s.agg.NetCashFlow(false),
		FilteredIncome:         s.agg.TotalIncome(true),
		FilteredExpenses:       s.agg.TotalExpenses(true),
		FilteredNetCashFlow:    s.agg.NetCashFlow(true),
		PlannedMonthlyIncome:   s.agg.PlannedMonthlyIncome(),
		PlannedMonthlyExpenses: s.agg.PlannedMonthlyExpenses(),
		TotalDebt:              s.agg.TotalDebt(),
		MonthlyDebtPayments:    s.agg.TotalMonthlyDebtPayments(),
		TotalCreditLimit:       s.agg.TotalCreditLimit(),
		TotalCreditBalance:     s.agg.TotalCreditBalance(),
		CreditUtilization:      s.agg.CreditUtilization(),
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.buildSummary())
}

type dashboardResponse struct {
	Summary  summaryResponse         `json:"summary"`
	Health   metrics.HealthReport    `json:"health"`
	Alerts   []metrics.Alert         `json:"alerts"`
	Forecast []metrics.ForecastPoint `json:"forecast"`
}

const dashboardCacheKey = "dashboard"
const forecastMonths = 6

// handleDashboard serves the combined dashboard payload from the LRU
// cache when nothing has changed since the last request.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if body, ok := s.dashCache.Get(dashboardCacheKey); ok {
		slog.DebugContext(r.Context(), "Dashboard cache hit")
		writeRawJSON(w, http.StatusOK, body)
		return
	}

	today := core.DateOf(s.now())
	payload := dashboardResponse{
		Summary:  s.buildSummary(),
		Health:   s.agg.HealthScore(s.thresholds),
		Alerts:   emptyList(s.agg.Alerts(s.thresholds, today)),
		Forecast: emptyList(s.agg.Forecast(today, forecastMonths)),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(r.Context(), "Encode dashboard failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "encode dashboard"})
		return
	}

	s.dashCache.Set(dashboardCacheKey, body)
	writeRawJSON(w, http.StatusOK, body)
}
