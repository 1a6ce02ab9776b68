package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/fundledger/internal/auth"
	"github.com/josh-kwaku/fundledger/internal/domain"
	"github.com/josh-kwaku/fundledger/internal/leaderboard"
	"github.com/josh-kwaku/fundledger/internal/rewards"
	"github.com/josh-kwaku/fundledger/internal/service/ledger"
)

type mockLedger struct {
	fundraiser  *domain.Fundraiser
	fundraisers []domain.Fundraiser
	donation    *ledger.DonationResult
	donations   []domain.Donation
	withdrawal  *ledger.WithdrawalResult
	withdrawals []domain.Withdrawal
	donors      []leaderboard.DonorAggregate
	summary     *rewards.Summary
	err         error

	createReq   ledger.CreateFundraiserRequest
	donateReq   ledger.DonateRequest
	withdrawReq ledger.WithdrawRequest
	updateReq   ledger.UpdateFundraiserRequest
	filter      leaderboard.Filter
	listFilter  domain.FundraiserFilter
	relatedID   uuid.UUID
}

func (m *mockLedger) CreateFundraiser(_ context.Context, req ledger.CreateFundraiserRequest) (*domain.Fundraiser, error) {
	m.createReq = req
	return m.fundraiser, m.err
}

func (m *mockLedger) GetFundraiser(context.Context, uuid.UUID) (*domain.Fundraiser, error) {
	return m.fundraiser, m.err
}

func (m *mockLedger) ListFundraisers(_ context.Context, filter domain.FundraiserFilter) ([]domain.Fundraiser, error) {
	m.listFilter = filter
	return m.fundraisers, m.err
}

func (m *mockLedger) RelatedFundraisers(_ context.Context, id uuid.UUID) ([]domain.Fundraiser, error) {
	m.relatedID = id
	return m.fundraisers, m.err
}

func (m *mockLedger) UpdateFundraiser(_ context.Context, req ledger.UpdateFundraiserRequest) (*domain.Fundraiser, error) {
	m.updateReq = req
	return m.fundraiser, m.err
}

func (m *mockLedger) ListFundraisersByCreator(context.Context, uuid.UUID) ([]domain.Fundraiser, error) {
	return m.fundraisers, m.err
}

func (m *mockLedger) DeleteFundraiser(context.Context, uuid.UUID, uuid.UUID) error {
	return m.err
}

func (m *mockLedger) Donate(_ context.Context, req ledger.DonateRequest) (*ledger.DonationResult, error) {
	m.donateReq = req
	return m.donation, m.err
}

func (m *mockLedger) ListDonationsForFundraiser(context.Context, uuid.UUID) ([]domain.Donation, error) {
	return m.donations, m.err
}

func (m *mockLedger) ListDonationsByDonor(context.Context, uuid.UUID) ([]domain.Donation, error) {
	return m.donations, m.err
}

func (m *mockLedger) Withdraw(_ context.Context, req ledger.WithdrawRequest) (*ledger.WithdrawalResult, error) {
	m.withdrawReq = req
	return m.withdrawal, m.err
}

func (m *mockLedger) ListWithdrawalsForFundraiser(context.Context, uuid.UUID, uuid.UUID) ([]domain.Withdrawal, error) {
	return m.withdrawals, m.err
}

func (m *mockLedger) BuildLeaderboard(_ context.Context, f leaderboard.Filter) ([]leaderboard.DonorAggregate, error) {
	m.filter = f
	return m.donors, m.err
}

func (m *mockLedger) UnlockedTiers(context.Context, uuid.UUID) (*rewards.Summary, error) {
	return m.summary, m.err
}

func testMoney(t *testing.T) *MoneyFormatter {
	t.Helper()
	m, err := NewMoneyFormatter("INR")
	require.NoError(t, err)
	return m
}

// newRequest builds a request with chi path params and, when user is not
// uuid.Nil, an authenticated caller.
func newRequest(method, target, body string, user uuid.UUID, params map[string]string) *http.Request {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	if user != uuid.Nil {
		ctx = auth.ContextWithUserID(ctx, user)
	}
	return r.WithContext(ctx)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (APIResponse, json.RawMessage) {
	t.Helper()
	var raw struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *APIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	return APIResponse{Success: raw.Success, Error: raw.Error}, raw.Data
}

func sampleFundraiser() *domain.Fundraiser {
	return &domain.Fundraiser{
		ID:        uuid.New(),
		CreatorID: uuid.New(),
		Title:     "School roof",
		Category:  "Education",
		Goal:      5000,
		Raised:    1250,
		Withdrawn: 250,
		Status:    domain.FundraiserStatusOpen,
		CreatedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestFundraiserHandler_Create(t *testing.T) {
	user := uuid.New()

	tests := []struct {
		name       string
		body       string
		user       uuid.UUID
		svcErr     error
		wantStatus int
		wantCode   string
		wantField  string
	}{
		{
			name:       "created",
			body:       `{"title":" School roof ","category":"Education","description":"Fix it","goal":5000}`,
			user:       user,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing token",
			body:       `{}`,
			wantStatus: http.StatusUnauthorized,
			wantCode:   "MISSING_TOKEN",
		},
		{
			name:       "malformed json",
			body:       `{"title":`,
			user:       user,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "unknown field",
			body:       `{"title":"a","category":"b","description":"c","goal":5000,"raised":10}`,
			user:       user,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "missing title",
			body:       `{"category":"b","description":"c","goal":5000}`,
			user:       user,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
			wantField:  "title",
		},
		{
			name:       "fractional goal",
			body:       `{"title":"a","category":"b","description":"c","goal":10.5}`,
			user:       user,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
			wantField:  "goal",
		},
		{
			name:       "goal below minimum",
			body:       `{"title":"a","category":"b","description":"c","goal":5}`,
			user:       user,
			svcErr:     fmt.Errorf("CreateFundraiser: %w", domain.ErrInvalidGoal),
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_GOAL",
		},
		{
			name:       "duplicate title",
			body:       `{"title":"a","category":"b","description":"c","goal":5000}`,
			user:       user,
			svcErr:     fmt.Errorf("CreateFundraiser: %w", domain.ErrDuplicateTitle),
			wantStatus: http.StatusConflict,
			wantCode:   "DUPLICATE_TITLE",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockLedger{fundraiser: sampleFundraiser(), err: tc.svcErr}
			h := NewFundraiserHandler(svc, testMoney(t))

			rec := httptest.NewRecorder()
			h.Create(rec, newRequest(http.MethodPost, "/api/v1/fundraisers", tc.body, tc.user, nil))

			assert.Equal(t, tc.wantStatus, rec.Code)
			resp, _ := decodeEnvelope(t, rec)
			if tc.wantCode == "" {
				assert.True(t, resp.Success)
				assert.Equal(t, "School roof", svc.createReq.Title)
				assert.Equal(t, int64(5000), svc.createReq.Goal)
				assert.Equal(t, user, svc.createReq.CreatorID)
				return
			}
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.wantCode, resp.Error.Code)
			if tc.wantField != "" {
				assert.Contains(t, rec.Body.String(), `"field":"`+tc.wantField+`"`)
			}
		})
	}
}

func TestFundraiserHandler_GetRendersDerivedFields(t *testing.T) {
	f := sampleFundraiser()
	h := NewFundraiserHandler(&mockLedger{fundraiser: f}, testMoney(t))

	rec := httptest.NewRecorder()
	h.Get(rec, newRequest(http.MethodGet, "/", "", uuid.Nil, map[string]string{"id": f.ID.String()}))

	require.Equal(t, http.StatusOK, rec.Code)
	_, data := decodeEnvelope(t, rec)
	var dto fundraiserDTO
	require.NoError(t, json.Unmarshal(data, &dto))
	assert.Equal(t, int64(1000), dto.Available)
	assert.Equal(t, int64(3750), dto.Remaining)
	assert.Equal(t, "25.00", dto.PercentFunded)
	assert.Equal(t, "INR", dto.Currency)
	assert.Contains(t, dto.GoalDisplay, "5,000.00")
	assert.Contains(t, dto.RaisedDisplay, "1,250.00")
}

func TestFundraiserHandler_GetErrors(t *testing.T) {
	h := NewFundraiserHandler(&mockLedger{err: fmt.Errorf("GetByID: %w", domain.ErrNotFound)}, testMoney(t))

	for _, id := range []string{"not-a-uuid", uuid.NewString()} {
		rec := httptest.NewRecorder()
		h.Get(rec, newRequest(http.MethodGet, "/", "", uuid.Nil, map[string]string{"id": id}))
		assert.Equal(t, http.StatusNotFound, rec.Code, id)
	}
}

func TestFundraiserHandler_ListPassesFilter(t *testing.T) {
	svc := &mockLedger{fundraisers: []domain.Fundraiser{*sampleFundraiser()}}
	h := NewFundraiserHandler(svc, testMoney(t))

	rec := httptest.NewRecorder()
	h.List(rec, newRequest(http.MethodGet, "/api/v1/fundraisers?search=roof&category=Education", "", uuid.Nil, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.FundraiserFilter{Search: "roof", Category: "Education"}, svc.listFilter)
	_, data := decodeEnvelope(t, rec)
	var dtos []fundraiserDTO
	require.NoError(t, json.Unmarshal(data, &dtos))
	assert.Len(t, dtos, 1)
}

func TestFundraiserHandler_Related(t *testing.T) {
	svc := &mockLedger{fundraisers: []domain.Fundraiser{*sampleFundraiser()}}
	h := NewFundraiserHandler(svc, testMoney(t))
	id := uuid.New()

	rec := httptest.NewRecorder()
	h.Related(rec, newRequest(http.MethodGet, "/", "", uuid.Nil, map[string]string{"id": id.String()}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, svc.relatedID)
}

func TestFundraiserHandler_Update(t *testing.T) {
	user := uuid.New()
	id := uuid.New()
	params := map[string]string{"id": id.String()}

	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{"title only", `{"title":"New roof"}`, nil, http.StatusOK, ""},
		{"goal is not editable", `{"goal":9000}`, nil, http.StatusBadRequest, "INVALID_REQUEST"},
		{"status is not editable", `{"status":"open"}`, nil, http.StatusBadRequest, "INVALID_REQUEST"},
		{"title too long", `{"title":"` + strings.Repeat("x", 121) + `"}`, nil, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"not creator", `{"title":"New roof"}`, fmt.Errorf("UpdateFundraiser: %w", domain.ErrUnauthorized), http.StatusForbidden, "FORBIDDEN"},
		{"duplicate title", `{"title":"New roof"}`, fmt.Errorf("UpdateFundraiser: %w", domain.ErrDuplicateTitle), http.StatusConflict, "DUPLICATE_TITLE"},
		{"empty edit", `{}`, fmt.Errorf("UpdateFundraiser: %w", domain.ErrInvalidRequest), http.StatusBadRequest, "INVALID_REQUEST"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockLedger{fundraiser: sampleFundraiser(), err: tc.svcErr}
			h := NewFundraiserHandler(svc, testMoney(t))

			rec := httptest.NewRecorder()
			h.Update(rec, newRequest(http.MethodPatch, "/", tc.body, user, params))

			assert.Equal(t, tc.wantStatus, rec.Code)
			resp, _ := decodeEnvelope(t, rec)
			if tc.wantCode != "" {
				require.NotNil(t, resp.Error)
				assert.Equal(t, tc.wantCode, resp.Error.Code)
				return
			}
			assert.Equal(t, id, svc.updateReq.ID)
			assert.Equal(t, user, svc.updateReq.RequesterID)
			require.NotNil(t, svc.updateReq.Details.Title)
			assert.Equal(t, "New roof", *svc.updateReq.Details.Title)
			assert.Nil(t, svc.updateReq.Details.Category)
		})
	}
}

func TestFundraiserHandler_DeleteForbidden(t *testing.T) {
	h := NewFundraiserHandler(&mockLedger{err: fmt.Errorf("DeleteFundraiser: %w", domain.ErrUnauthorized)}, testMoney(t))

	rec := httptest.NewRecorder()
	h.Delete(rec, newRequest(http.MethodDelete, "/", "", uuid.New(), map[string]string{"id": uuid.NewString()}))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDonationHandler_Donate(t *testing.T) {
	donor := uuid.New()
	fundraiserID := uuid.New()
	params := map[string]string{"id": fundraiserID.String()}

	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{"recorded", `{"amount":300}`, nil, http.StatusCreated, ""},
		{"exponent form accepted", `{"amount":3e2}`, nil, http.StatusCreated, ""},
		{"numeric string accepted", `{"amount":"300"}`, nil, http.StatusCreated, ""},
		{"zero", `{"amount":0}`, nil, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"negative", `{"amount":-5}`, nil, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"fraction", `{"amount":10.5}`, nil, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"not a number", `{"amount":"abc"}`, nil, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"boolean", `{"amount":true}`, nil, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"missing", `{}`, nil, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"null", `{"amount":null}`, nil, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"exceeds goal", `{"amount":300}`, fmt.Errorf("Donate: %w", domain.ErrExceedsGoal), http.StatusUnprocessableEntity, "EXCEEDS_GOAL"},
		{"closed", `{"amount":300}`, fmt.Errorf("Donate: %w", domain.ErrAlreadyClosed), http.StatusUnprocessableEntity, "ALREADY_CLOSED"},
		{"unknown fundraiser", `{"amount":300}`, fmt.Errorf("Donate: %w", domain.ErrNotFound), http.StatusNotFound, "RESOURCE_NOT_FOUND"},
		{"contention", `{"amount":300}`, fmt.Errorf("Donate: %w", domain.ErrTransientConflict), http.StatusServiceUnavailable, "TRANSIENT_CONFLICT"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockLedger{
				err: tc.svcErr,
				donation: &ledger.DonationResult{
					NewRaised: 5000,
					Closed:    true,
					Donation:  &domain.Donation{ID: uuid.New(), FundraiserID: fundraiserID, DonorID: donor, Amount: 300},
				},
			}
			h := NewDonationHandler(svc, testMoney(t))

			rec := httptest.NewRecorder()
			h.Donate(rec, newRequest(http.MethodPost, "/", tc.body, donor, params))

			assert.Equal(t, tc.wantStatus, rec.Code)
			resp, data := decodeEnvelope(t, rec)
			if tc.wantCode != "" {
				require.NotNil(t, resp.Error)
				assert.Equal(t, tc.wantCode, resp.Error.Code)
				return
			}
			assert.Equal(t, ledger.DonateRequest{FundraiserID: fundraiserID, DonorID: donor, Amount: 300}, svc.donateReq)
			var dto donationResultDTO
			require.NoError(t, json.Unmarshal(data, &dto))
			assert.True(t, dto.Closed)
			assert.Equal(t, int64(5000), dto.NewRaised)
		})
	}
}

func TestDonationHandler_TransientConflictSetsRetryAfter(t *testing.T) {
	h := NewDonationHandler(&mockLedger{err: domain.ErrTransientConflict}, testMoney(t))

	rec := httptest.NewRecorder()
	h.Donate(rec, newRequest(http.MethodPost, "/", `{"amount":1}`, uuid.New(), map[string]string{"id": uuid.NewString()}))

	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestWithdrawalHandler_Withdraw(t *testing.T) {
	creator := uuid.New()
	params := map[string]string{"id": uuid.NewString()}

	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{"recorded", `{"amount":100,"method":"UPI"}`, nil, http.StatusCreated, ""},
		{"missing method", `{"amount":100}`, nil, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"missing amount", `{"method":"UPI"}`, nil, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"zero amount", `{"amount":0,"method":"UPI"}`, nil, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"fractional amount", `{"amount":99.5,"method":"UPI"}`, nil, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"non-numeric amount", `{"amount":"lots","method":"UPI"}`, nil, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"unknown method", `{"amount":100,"method":"Cash"}`, fmt.Errorf("Withdraw: %w", domain.ErrInvalidMethod), http.StatusBadRequest, "INVALID_METHOD"},
		{"not creator", `{"amount":100,"method":"UPI"}`, fmt.Errorf("Withdraw: %w", domain.ErrUnauthorized), http.StatusForbidden, "FORBIDDEN"},
		{"over available", `{"amount":100,"method":"UPI"}`, fmt.Errorf("Withdraw: %w", domain.ErrInsufficientAvailableBalance), http.StatusUnprocessableEntity, "INSUFFICIENT_AVAILABLE_BALANCE"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockLedger{
				err: tc.svcErr,
				withdrawal: &ledger.WithdrawalResult{
					NewWithdrawn: 100,
					Withdrawal:   &domain.Withdrawal{ID: uuid.New(), Amount: 100, Method: domain.WithdrawalMethodUPI},
				},
			}
			h := NewWithdrawalHandler(svc, testMoney(t))

			rec := httptest.NewRecorder()
			h.Withdraw(rec, newRequest(http.MethodPost, "/", tc.body, creator, params))

			assert.Equal(t, tc.wantStatus, rec.Code)
			resp, _ := decodeEnvelope(t, rec)
			if tc.wantCode != "" {
				require.NotNil(t, resp.Error)
				assert.Equal(t, tc.wantCode, resp.Error.Code)
				return
			}
			assert.Equal(t, creator, svc.withdrawReq.RequesterID)
			assert.Equal(t, domain.WithdrawalMethodUPI, svc.withdrawReq.Method)
		})
	}
}

func TestLeaderboardHandler_Get(t *testing.T) {
	donorA := leaderboard.Identity{ID: uuid.New(), Name: "Asha"}
	donorB := leaderboard.Identity{ID: uuid.New(), Name: leaderboard.AnonymousName}
	svc := &mockLedger{donors: []leaderboard.DonorAggregate{
		{Donor: donorA, TotalAmount: 900, Donations: []leaderboard.Entry{{FundraiserID: uuid.New(), Amount: 900}}},
		{Donor: donorB, TotalAmount: 400},
	}}
	h := NewLeaderboardHandler(svc, testMoney(t))

	rec := httptest.NewRecorder()
	h.Get(rec, newRequest(http.MethodGet, "/api/v1/leaderboard?search=ash&min_total=100&sort=az", "", uuid.Nil, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, leaderboard.Filter{Search: "ash", MinTotal: 100, Sort: leaderboard.SortNameAsc}, svc.filter)

	_, data := decodeEnvelope(t, rec)
	var rows []donorAggregateDTO
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, "Asha", rows[0].Donor.Name)
	assert.Len(t, rows[0].Donations, 1)
	assert.Equal(t, 2, rows[1].Rank)
	assert.Empty(t, rows[1].Donations)
}

func TestLeaderboardHandler_RejectsBadQuery(t *testing.T) {
	for _, q := range []string{"sort=sideways", "min_total=-1", "min_total=lots"} {
		t.Run(q, func(t *testing.T) {
			h := NewLeaderboardHandler(&mockLedger{}, testMoney(t))
			rec := httptest.NewRecorder()
			h.Get(rec, newRequest(http.MethodGet, "/api/v1/leaderboard?"+q, "", uuid.Nil, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRewardsHandler_Get(t *testing.T) {
	summary := rewards.Evaluate(16_000)
	h := NewRewardsHandler(&mockLedger{summary: &summary}, testMoney(t))

	creator := uuid.New()
	rec := httptest.NewRecorder()
	h.Get(rec, newRequest(http.MethodGet, "/", "", uuid.Nil, map[string]string{"id": creator.String()}))

	require.Equal(t, http.StatusOK, rec.Code)
	_, data := decodeEnvelope(t, rec)
	var dto rewardsDTO
	require.NoError(t, json.Unmarshal(data, &dto))
	assert.Equal(t, creator, dto.CreatorID)
	assert.Equal(t, []string{"Bronze", "Silver"}, dto.Unlocked)
	require.NotNil(t, dto.Next)
	assert.Equal(t, "Gold", dto.Next.Name)
	assert.Equal(t, int64(14_000), dto.Next.Remaining)
	assert.Len(t, dto.Tiers, 4)
}

func TestRewardsHandler_NoTiersRendersEmptyList(t *testing.T) {
	summary := rewards.Evaluate(0)
	h := NewRewardsHandler(&mockLedger{summary: &summary}, testMoney(t))

	rec := httptest.NewRecorder()
	h.Get(rec, newRequest(http.MethodGet, "/", "", uuid.Nil, map[string]string{"id": uuid.NewString()}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"unlocked":[]`)
}
