package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/finsight/finsight-backend/internal/domain"
	"github.com/finsight/finsight-backend/internal/usecase/budget"
	"github.com/finsight/finsight-backend/internal/usecase/cashflow"
	"github.com/finsight/finsight-backend/internal/usecase/ledger"
	"github.com/finsight/finsight-backend/internal/usecase/valuation"
)

const dateFormat = "2006-01-02"
const monthFormat = "2006-01"

// Server adapts the report and ledger services to REST. It is a thin
// translation layer: parse, delegate, serialize.
type Server struct {
	Ledger    *ledger.Service
	Valuation *valuation.Service
	Cashflow  *cashflow.Service
	Budget    *budget.Service
	Log       *logrus.Logger
}

// NewServer creates a new HTTP adapter instance.
func NewServer(
	ledgerSvc *ledger.Service,
	valuationSvc *valuation.Service,
	cashflowSvc *cashflow.Service,
	budgetSvc *budget.Service,
	log *logrus.Logger,
) *Server {
	return &Server{
		Ledger:    ledgerSvc,
		Valuation: valuationSvc,
		Cashflow:  cashflowSvc,
		Budget:    budgetSvc,
		Log:       log,
	}
}

// Router builds the route table. The caller wraps it with middleware.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.Health).Methods("GET")
	r.HandleFunc("/reports/equity-summary", s.GetEquitySummary).Methods("GET")
	r.HandleFunc("/reports/monthly-breakdown", s.GetMonthlyBreakdown).Methods("GET")
	r.HandleFunc("/grants", s.RecordGrant).Methods("POST")
	r.HandleFunc("/lots/{id}/realize", s.RealizeLot).Methods("POST")
	r.HandleFunc("/budgets/evaluate", s.EvaluateBudget).Methods("POST")
	return r
}

// Health reports service liveness.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetEquitySummary serves GET /reports/equity-summary?as_of=YYYY-MM-DD.
func (s *Server) GetEquitySummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	asOf := time.Now().UTC()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := time.Parse(dateFormat, raw)
		if err != nil {
			http.Error(w, "invalid as_of date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		asOf = parsed
	}

	summary, err := s.Valuation.GetEquitySummary(r.Context(), userID, asOf)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// GetMonthlyBreakdown serves GET /reports/monthly-breakdown?from=YYYY-MM&to=YYYY-MM.
// A single month can be requested with month=YYYY-MM.
func (s *Server) GetMonthlyBreakdown(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	fromRaw, toRaw := query.Get("from"), query.Get("to")
	if month := query.Get("month"); month != "" {
		fromRaw, toRaw = month, month
	}

	from, err := time.Parse(monthFormat, fromRaw)
	if err != nil {
		http.Error(w, "invalid from month, expected YYYY-MM", http.StatusBadRequest)
		return
	}
	to, err := time.Parse(monthFormat, toRaw)
	if err != nil {
		http.Error(w, "invalid to month, expected YYYY-MM", http.StatusBadRequest)
		return
	}
	if to.Before(from) {
		http.Error(w, "to month precedes from month", http.StatusBadRequest)
		return
	}

	breakdowns, err := s.Cashflow.GetMonthlyBreakdown(r.Context(), userID, from, to, time.Now().UTC())
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, breakdowns)
}

// recordGrantRequest is the POST /grants payload.
type recordGrantRequest struct {
	ID               uuid.UUID        `json:"id"`
	SecurityID       string           `json:"security_id"`
	Type             string           `json:"type"`
	GrantDate        string           `json:"grant_date"`
	TotalShares      decimal.Decimal  `json:"total_shares"`
	CliffMonths      int              `json:"cliff_months"`
	DurationMonths   int              `json:"duration_months"`
	IntervalMonths   int              `json:"interval_months"`
	GrantPrice       domain.Money     `json:"grant_price"`
	PurchasePrice    *domain.Money    `json:"purchase_price,omitempty"`
	PurchaseDiscount *decimal.Decimal `json:"purchase_discount,omitempty"`
}

// RecordGrant serves POST /grants.
func (s *Server) RecordGrant(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req recordGrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	grantDate, err := time.Parse(dateFormat, req.GrantDate)
	if err != nil {
		http.Error(w, "invalid grant_date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	grant := &domain.Grant{
		ID:               req.ID,
		UserID:           userID,
		SecurityID:       req.SecurityID,
		Type:             domain.EquityType(req.Type),
		GrantDate:        grantDate,
		TotalShares:      req.TotalShares,
		CliffMonths:      req.CliffMonths,
		DurationMonths:   req.DurationMonths,
		IntervalMonths:   req.IntervalMonths,
		GrantPrice:       req.GrantPrice,
		PurchasePrice:    req.PurchasePrice,
		PurchaseDiscount: req.PurchaseDiscount,
	}
	if grant.ID == uuid.Nil {
		grant.ID = uuid.New()
	}

	if err := s.Ledger.RecordGrant(r.Context(), grant); err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": grant.ID.String()})
}

// realizeRequest is the POST /lots/{id}/realize payload.
type realizeRequest struct {
	Shares decimal.Decimal `json:"shares"`
	Price  domain.Money    `json:"price"`
	Date   string          `json:"date"`
}

// RealizeLot serves POST /lots/{id}/realize.
func (s *Server) RealizeLot(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.userID(w, r); !ok {
		return
	}

	lotID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid lot id", http.StatusBadRequest)
		return
	}

	var req realizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	date, err := time.Parse(dateFormat, req.Date)
	if err != nil {
		http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	event, err := s.Ledger.Realize(r.Context(), lotID, req.Shares, req.Price, date)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":         event.ID.String(),
		"shares":     event.Shares,
		"proceeds":   event.Proceeds(),
		"cost_basis": event.CostBasis(),
	})
}

// evaluateBudgetRequest is the POST /budgets/evaluate payload.
type evaluateBudgetRequest struct {
	RuleType  string       `json:"rule_type"`
	Amount    domain.Money `json:"amount"`
	Category  string       `json:"category,omitempty"`
	AccountID *uuid.UUID   `json:"account_id,omitempty"`
	StartDate string       `json:"start_date"`
	EndDate   string       `json:"end_date"`
}

// EvaluateBudget serves POST /budgets/evaluate.
func (s *Server) EvaluateBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req evaluateBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	start, err := time.Parse(dateFormat, req.StartDate)
	if err != nil {
		http.Error(w, "invalid start_date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	end, err := time.Parse(dateFormat, req.EndDate)
	if err != nil {
		http.Error(w, "invalid end_date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	rule := &domain.BudgetRule{
		ID:        uuid.New(),
		UserID:    userID,
		RuleType:  domain.BudgetRuleType(req.RuleType),
		Amount:    req.Amount,
		Category:  req.Category,
		AccountID: req.AccountID,
	}

	evaluation, err := s.Budget.Evaluate(r.Context(), userID, rule, start, end)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, evaluation)
}

// userID extracts the authenticated user identity forwarded by the upstream
// auth layer. Requests without it are rejected.
func (s *Server) userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		http.Error(w, "missing X-User-ID header", http.StatusUnauthorized)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		http.Error(w, "invalid X-User-ID header", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps domain errors to HTTP statuses. Errors stay local to the
// request: nothing here aborts processing for other users.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var scheduleErr *domain.InvalidScheduleError
	var sharesErr *domain.InsufficientSharesError
	var priceErr *domain.MissingPriceError

	switch {
	case errors.As(err, &scheduleErr):
		http.Error(w, scheduleErr.Error(), http.StatusBadRequest)
	case errors.As(err, &sharesErr):
		http.Error(w, sharesErr.Error(), http.StatusConflict)
	case errors.As(err, &priceErr):
		http.Error(w, priceErr.Error(), http.StatusBadGateway)
	default:
		s.Log.WithError(err).Error("request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
