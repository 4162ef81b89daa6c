package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/finsight-backend/internal/domain"
	"github.com/finsight/finsight-backend/internal/usecase/budget"
	"github.com/finsight/finsight-backend/internal/usecase/cashflow"
	"github.com/finsight/finsight-backend/internal/usecase/ledger"
	"github.com/finsight/finsight-backend/internal/usecase/valuation"
)

// In-memory repository fakes so the full request path can be exercised
// without a database.

type memGrantRepo struct {
	grants map[uuid.UUID]*domain.Grant
}

func newMemGrantRepo() *memGrantRepo {
	return &memGrantRepo{grants: make(map[uuid.UUID]*domain.Grant)}
}

func (r *memGrantRepo) Create(_ context.Context, grant *domain.Grant) error {
	r.grants[grant.ID] = grant
	return nil
}

func (r *memGrantRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Grant, error) {
	grant, ok := r.grants[id]
	if !ok {
		return nil, fmt.Errorf("grant %s not found", id)
	}
	return grant, nil
}

func (r *memGrantRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.Grant, error) {
	out := make([]*domain.Grant, 0)
	for _, grant := range r.grants {
		if grant.UserID == userID {
			out = append(out, grant)
		}
	}
	return out, nil
}

type memLotRepo struct {
	lots map[uuid.UUID]*domain.Lot
}

func newMemLotRepo() *memLotRepo {
	return &memLotRepo{lots: make(map[uuid.UUID]*domain.Lot)}
}

func (r *memLotRepo) Create(_ context.Context, lot *domain.Lot) error {
	copied := *lot
	r.lots[lot.ID] = &copied
	return nil
}

func (r *memLotRepo) Update(_ context.Context, lot *domain.Lot) error {
	copied := *lot
	r.lots[lot.ID] = &copied
	return nil
}

func (r *memLotRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Lot, error) {
	lot, ok := r.lots[id]
	if !ok {
		return nil, fmt.Errorf("lot %s not found", id)
	}
	copied := *lot
	return &copied, nil
}

func (r *memLotRepo) ListByGrant(_ context.Context, grantID uuid.UUID) ([]*domain.Lot, error) {
	out := make([]*domain.Lot, 0)
	for _, lot := range r.lots {
		if lot.GrantID == grantID {
			copied := *lot
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memLotRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.Lot, error) {
	out := make([]*domain.Lot, 0)
	for _, lot := range r.lots {
		if lot.UserID == userID {
			copied := *lot
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memLotRepo) ListUnvestedBefore(_ context.Context, asOf time.Time) ([]*domain.Lot, error) {
	out := make([]*domain.Lot, 0)
	for _, lot := range r.lots {
		if lot.Status == domain.LotStatusUnvested && !lot.VestDate.After(asOf) {
			out = append(out, lot)
		}
	}
	return out, nil
}

type memRealizationRepo struct {
	events []*domain.RealizationEvent
}

func (r *memRealizationRepo) Create(_ context.Context, event *domain.RealizationEvent) error {
	r.events = append(r.events, event)
	return nil
}

func (r *memRealizationRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.RealizationEvent, error) {
	out := make([]*domain.RealizationEvent, 0)
	for _, event := range r.events {
		if event.UserID == userID {
			out = append(out, event)
		}
	}
	return out, nil
}

type staticPrices map[string]domain.Money

func (p staticPrices) GetCurrentPrice(_ context.Context, securityID string) (domain.Money, error) {
	price, ok := p[securityID]
	if !ok {
		return domain.Money{}, &domain.MissingPriceError{SecurityID: securityID}
	}
	return price, nil
}

type memTransactionRepo struct {
	transactions []*domain.Transaction
}

func (r *memTransactionRepo) Create(_ context.Context, tx *domain.Transaction) error {
	r.transactions = append(r.transactions, tx)
	return nil
}

func (r *memTransactionRepo) ListByUserAndRange(_ context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.Transaction, error) {
	out := make([]*domain.Transaction, 0)
	for _, tx := range r.transactions {
		if tx.UserID == userID && !tx.Date.Before(from) && !tx.Date.After(to) {
			out = append(out, tx)
		}
	}
	return out, nil
}

type memRuleRepo struct {
	rules []*domain.RecurringRule
}

func (r *memRuleRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.RecurringRule, error) {
	out := make([]*domain.RecurringRule, 0)
	for _, rule := range r.rules {
		if rule.UserID == userID {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (r *memRuleRepo) ListActive(_ context.Context, _ time.Time) ([]*domain.RecurringRule, error) {
	return r.rules, nil
}

func (r *memRuleRepo) UpdateLastGenerated(_ context.Context, ruleID uuid.UUID, lastGenerated time.Time) error {
	for _, rule := range r.rules {
		if rule.ID == ruleID {
			cursor := lastGenerated
			rule.LastGeneratedAt = &cursor
		}
	}
	return nil
}

type staticGroups map[string]domain.CategoryGroup

func (g staticGroups) GroupOf(_ context.Context, category string) (domain.CategoryGroup, error) {
	group, ok := g[category]
	if !ok {
		return domain.CategoryGroupUncategorized, nil
	}
	return group, nil
}

type testEnv struct {
	server       *Server
	grants       *memGrantRepo
	lots         *memLotRepo
	realizations *memRealizationRepo
	transactions *memTransactionRepo
	prices       staticPrices
}

func newTestEnv() *testEnv {
	log := logrus.New()
	log.SetOutput(io.Discard)

	grants := newMemGrantRepo()
	lots := newMemLotRepo()
	realizations := &memRealizationRepo{}
	transactions := &memTransactionRepo{}
	rules := &memRuleRepo{}
	prices := staticPrices{"ACME": domain.MoneyFromInt(35)}
	groups := staticGroups{"rent": domain.CategoryGroupNeeds, "dining": domain.CategoryGroupWants}

	ledgerSvc := ledger.NewService(grants, lots, realizations)
	valuationSvc := valuation.NewService(lots, realizations, prices)
	cashflowSvc := cashflow.NewService(transactions, rules, groups)
	budgetSvc := budget.NewService(transactions)

	return &testEnv{
		server:       NewServer(ledgerSvc, valuationSvc, cashflowSvc, budgetSvc, log),
		grants:       grants,
		lots:         lots,
		realizations: realizations,
		transactions: transactions,
		prices:       prices,
	}
}

func (e *testEnv) do(t *testing.T, method, target string, userID uuid.UUID, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, target, reader)
	if userID != uuid.Nil {
		req.Header.Set("X-User-ID", userID.String())
	}
	rec := httptest.NewRecorder()
	e.server.Router().ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware_RejectsMissingAndBadTokens(t *testing.T) {
	env := newTestEnv()
	handler := AuthMiddleware("secret")(env.server.Router())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetEquitySummary_RequiresUserHeader(t *testing.T) {
	env := newTestEnv()
	rec := env.do(t, http.MethodGet, "/reports/equity-summary", uuid.Nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetEquitySummary_RejectsBadDate(t *testing.T) {
	env := newTestEnv()
	rec := env.do(t, http.MethodGet, "/reports/equity-summary?as_of=not-a-date", uuid.New(), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetEquitySummary_ReturnsBucketedReport(t *testing.T) {
	env := newTestEnv()
	userID := uuid.New()

	env.lots.lots[uuid.New()] = &domain.Lot{
		ID:                uuid.New(),
		GrantID:           uuid.New(),
		UserID:            userID,
		SecurityID:        "ACME",
		Type:              domain.EquityTypeRSU,
		VestDate:          time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		Shares:            decimal.NewFromInt(10),
		SharesRemaining:   decimal.NewFromInt(10),
		CostBasisPerShare: domain.MoneyFromInt(20),
		Status:            domain.LotStatusVested,
	}

	rec := env.do(t, http.MethodGet, "/reports/equity-summary?as_of=2024-06-01", userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var payload struct {
		VestedUnrealized struct {
			RSU struct {
				Shares    decimal.Decimal `json:"shares"`
				Value     string          `json:"value"`
				CostBasis string          `json:"cost_basis"`
				PnL       string          `json:"pnl"`
				PnLPct    decimal.Decimal `json:"pnl_pct"`
			} `json:"rsu"`
		} `json:"vested_unrealized"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))

	rsu := payload.VestedUnrealized.RSU
	assert.True(t, rsu.Shares.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "350.00", rsu.Value)
	assert.Equal(t, "200.00", rsu.CostBasis)
	assert.Equal(t, "150.00", rsu.PnL)
	assert.True(t, rsu.PnLPct.Equal(decimal.NewFromFloat(0.75)))
}

func TestGetEquitySummary_MissingPriceIsBadGateway(t *testing.T) {
	env := newTestEnv()
	userID := uuid.New()

	env.lots.lots[uuid.New()] = &domain.Lot{
		ID:                uuid.New(),
		UserID:            userID,
		SecurityID:        "NOPRICE",
		Type:              domain.EquityTypeRSU,
		VestDate:          time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		Shares:            decimal.NewFromInt(5),
		SharesRemaining:   decimal.NewFromInt(5),
		CostBasisPerShare: domain.MoneyFromInt(20),
		Status:            domain.LotStatusVested,
	}

	rec := env.do(t, http.MethodGet, "/reports/equity-summary?as_of=2024-06-01", userID, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestRecordGrant_CreatesLotsAndIsIdempotent(t *testing.T) {
	env := newTestEnv()
	userID := uuid.New()
	grantID := uuid.New()

	body := map[string]interface{}{
		"id":              grantID.String(),
		"security_id":     "ACME",
		"type":            "RSU",
		"grant_date":      "2024-01-15",
		"total_shares":    "48",
		"cliff_months":    12,
		"duration_months": 48,
		"interval_months": 1,
		"grant_price":     "20.00",
	}

	rec := env.do(t, http.MethodPost, "/grants", userID, body)
	require.Equal(t, http.StatusCreated, rec.Code)

	lots, err := env.lots.ListByGrant(context.Background(), grantID)
	require.NoError(t, err)
	assert.Len(t, lots, 37)

	// Replaying the same grant must not duplicate lots.
	rec = env.do(t, http.MethodPost, "/grants", userID, body)
	require.Equal(t, http.StatusCreated, rec.Code)

	lots, err = env.lots.ListByGrant(context.Background(), grantID)
	require.NoError(t, err)
	assert.Len(t, lots, 37)
}

func TestRecordGrant_InvalidScheduleIsBadRequest(t *testing.T) {
	env := newTestEnv()

	body := map[string]interface{}{
		"security_id":     "ACME",
		"type":            "RSU",
		"grant_date":      "2024-01-15",
		"total_shares":    "48",
		"cliff_months":    60, // exceeds duration
		"duration_months": 48,
		"interval_months": 1,
		"grant_price":     "20.00",
	}

	rec := env.do(t, http.MethodPost, "/grants", uuid.New(), body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRealizeLot_OversellIsConflict(t *testing.T) {
	env := newTestEnv()
	userID := uuid.New()
	lotID := uuid.New()

	env.lots.lots[lotID] = &domain.Lot{
		ID:                lotID,
		UserID:            userID,
		SecurityID:        "ACME",
		Type:              domain.EquityTypeRSU,
		VestDate:          time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		Shares:            decimal.NewFromInt(10),
		SharesRemaining:   decimal.NewFromInt(10),
		CostBasisPerShare: domain.MoneyFromInt(20),
		Status:            domain.LotStatusVested,
	}

	body := map[string]interface{}{
		"shares": "11",
		"price":  "35.00",
		"date":   "2024-06-01",
	}

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/lots/%s/realize", lotID), userID, body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRealizeLot_RecordsEvent(t *testing.T) {
	env := newTestEnv()
	userID := uuid.New()
	lotID := uuid.New()

	env.lots.lots[lotID] = &domain.Lot{
		ID:                lotID,
		UserID:            userID,
		SecurityID:        "ACME",
		Type:              domain.EquityTypeRSU,
		VestDate:          time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		Shares:            decimal.NewFromInt(10),
		SharesRemaining:   decimal.NewFromInt(10),
		CostBasisPerShare: domain.MoneyFromInt(20),
		Status:            domain.LotStatusVested,
	}

	body := map[string]interface{}{
		"shares": "4",
		"price":  "35.00",
		"date":   "2024-06-01",
	}

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/lots/%s/realize", lotID), userID, body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var payload struct {
		Proceeds  string `json:"proceeds"`
		CostBasis string `json:"cost_basis"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "140.00", payload.Proceeds)
	assert.Equal(t, "80.00", payload.CostBasis)

	updated, err := env.lots.GetByID(context.Background(), lotID)
	require.NoError(t, err)
	assert.True(t, updated.SharesRemaining.Equal(decimal.NewFromInt(6)))
}

func TestGetMonthlyBreakdown_RejectsInvertedRange(t *testing.T) {
	env := newTestEnv()
	rec := env.do(t, http.MethodGet, "/reports/monthly-breakdown?from=2024-06&to=2024-03", uuid.New(), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMonthlyBreakdown_ReturnsMonths(t *testing.T) {
	env := newTestEnv()
	userID := uuid.New()

	env.transactions.transactions = append(env.transactions.transactions, &domain.Transaction{
		ID:       uuid.New(),
		UserID:   userID,
		Amount:   domain.MoneyFromInt(1500),
		Type:     domain.TransactionTypeExpense,
		Category: "rent",
		Date:     time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC),
	})

	rec := env.do(t, http.MethodGet, "/reports/monthly-breakdown?month=2024-03", userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload []struct {
		Month         string `json:"month"`
		TotalExpenses string `json:"total_expenses"`
		NeedsTotal    string `json:"needs_total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload, 1)
	assert.Equal(t, "2024-03", payload[0].Month)
	assert.Equal(t, "1500.00", payload[0].TotalExpenses)
	assert.Equal(t, "1500.00", payload[0].NeedsTotal)
}

func TestEvaluateBudget_CategoryCap(t *testing.T) {
	env := newTestEnv()
	userID := uuid.New()

	env.transactions.transactions = append(env.transactions.transactions, &domain.Transaction{
		ID:        uuid.New(),
		UserID:    userID,
		AccountID: uuid.New(),
		Amount:    domain.MoneyFromInt(200),
		Type:      domain.TransactionTypeExpense,
		Category:  "dining",
		Date:      time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC),
	})

	body := map[string]interface{}{
		"rule_type":  "CATEGORY_CAP",
		"amount":     "300.00",
		"category":   "dining",
		"start_date": "2024-03-01",
		"end_date":   "2024-03-31",
	}

	rec := env.do(t, http.MethodPost, "/budgets/evaluate", userID, body)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		CurrentValue string `json:"current_value"`
		Remaining    string `json:"remaining"`
		Status       string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "200.00", payload.CurrentValue)
	assert.Equal(t, "100.00", payload.Remaining)
	assert.Equal(t, "ok", payload.Status)
}
