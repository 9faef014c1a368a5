package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bankpulse/bankpulse/internal/compliance"
	"github.com/bankpulse/bankpulse/internal/config"
	"github.com/bankpulse/bankpulse/internal/engine"
	"github.com/bankpulse/bankpulse/internal/generator"
	"github.com/bankpulse/bankpulse/internal/randutil"
	"github.com/bankpulse/bankpulse/internal/stream"
	"github.com/bankpulse/bankpulse/internal/underwriting"
	"github.com/bankpulse/bankpulse/internal/workerpool"
	"github.com/bankpulse/bankpulse/pkg/models"
)

func newTestServer(t *testing.T, jwtSecret string) *Server {
	t.Helper()

	cfg := config.LoadFromEnv()
	cfg.Server.JWTSecret = jwtSecret
	cfg.Generator.DefaultCustomers = 10
	cfg.Generator.DefaultTransactions = 20

	rng := randutil.New(1)
	gen := generator.New(rng)
	detector := compliance.NewDetector(nil)
	pool := workerpool.New(2, 16)
	t.Cleanup(pool.Stop)
	eng := engine.New(gen, detector, underwriting.NewModel(nil), pool)
	coord := stream.NewCoordinator(&stream.Config{
		MinInterval: time.Millisecond,
		MaxInterval: 2 * time.Millisecond,
		PoolSize:    10,
	}, gen, detector, rng)
	t.Cleanup(coord.Stop)

	return NewServer(cfg, eng, coord)
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body["status"] != "healthy" || body["service"] != "bankpulse" {
		t.Errorf("unexpected health payload: %v", body)
	}
}

func TestGenerateDataset(t *testing.T) {
	s := newTestServer(t, "")

	payload := `{"customer_count": 5, "transaction_count": 30}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bankpulse/generate", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var ds models.Dataset
	if err := json.NewDecoder(rec.Body).Decode(&ds); err != nil {
		t.Fatalf("invalid dataset response: %v", err)
	}
	if len(ds.Customers) != 5 {
		t.Errorf("expected 5 customers, got %d", len(ds.Customers))
	}
	if len(ds.Transactions) != 30 {
		t.Errorf("expected 30 transactions, got %d", len(ds.Transactions))
	}
}

func TestGenerateDataset_DefaultsApplied(t *testing.T) {
	s := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bankpulse/generate", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var ds models.Dataset
	if err := json.NewDecoder(rec.Body).Decode(&ds); err != nil {
		t.Fatalf("invalid dataset response: %v", err)
	}
	if len(ds.Customers) != 10 || len(ds.Transactions) != 20 {
		t.Errorf("expected configured defaults 10/20, got %d/%d", len(ds.Customers), len(ds.Transactions))
	}
}

func TestGenerateDataset_RejectsOversized(t *testing.T) {
	s := newTestServer(t, "")

	payload := `{"customer_count": 999999}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bankpulse/generate", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGenerateDataset_InvalidBody(t *testing.T) {
	s := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bankpulse/generate", bytes.NewBufferString("not json"))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestStreamLifecycle(t *testing.T) {
	s := newTestServer(t, "")

	start := httptest.NewRequest(http.MethodPost, "/api/v1/bankpulse/stream/start", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, start)
	if rec.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d", rec.Code)
	}

	snapshot := httptest.NewRequest(http.MethodGet, "/api/v1/bankpulse/stream/snapshot", nil)
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, snapshot)
	if rec.Code != http.StatusOK {
		t.Fatalf("snapshot: expected 200, got %d", rec.Code)
	}

	var snapBody struct {
		Streaming bool `json:"streaming"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&snapBody); err != nil {
		t.Fatalf("invalid snapshot response: %v", err)
	}
	if !snapBody.Streaming {
		t.Error("expected streaming=true after start")
	}

	stop := httptest.NewRequest(http.MethodPost, "/api/v1/bankpulse/stream/stop", nil)
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, stop)
	if rec.Code != http.StatusOK {
		t.Fatalf("stop: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/bankpulse/stream/snapshot", nil))
	if err := json.NewDecoder(rec.Body).Decode(&snapBody); err != nil {
		t.Fatalf("invalid snapshot response: %v", err)
	}
	if snapBody.Streaming {
		t.Error("expected streaming=false after stop")
	}
}

func TestUnderwrite(t *testing.T) {
	s := newTestServer(t, "")

	app := models.LoanApplication{
		BusinessName:             "Cascade Outfitters",
		RequestedAmount:          100000,
		LoanTerm:                 48,
		Industry:                 "retail",
		AnnualRevenue:            800000,
		MonthlyRevenue:           66000,
		YearsInBusiness:          5,
		EmployeeCount:            12,
		CreditScore:              720,
		DebtServiceCoverageRatio: 2.0,
		ExistingDebt:             40000,
		CashFlow:                 30000,
	}
	body, _ := json.Marshal(app)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bankpulse/underwrite", bytes.NewBuffer(body))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var decision models.UnderwritingDecision
	if err := json.NewDecoder(rec.Body).Decode(&decision); err != nil {
		t.Fatalf("invalid decision response: %v", err)
	}
	if decision.Decision == "" {
		t.Error("decision outcome should be set")
	}
	if len(decision.FeatureImpacts) == 0 {
		t.Error("decision should include feature attribution")
	}
}

func TestUnderwriteBatch(t *testing.T) {
	s := newTestServer(t, "")

	apps := []models.LoanApplication{
		{
			RequestedAmount:          50000,
			LoanTerm:                 36,
			AnnualRevenue:            600000,
			MonthlyRevenue:           50000,
			YearsInBusiness:          4,
			EmployeeCount:            10,
			CreditScore:              700,
			DebtServiceCoverageRatio: 1.8,
			CashFlow:                 25000,
		},
		{
			RequestedAmount:          300000,
			LoanTerm:                 24,
			AnnualRevenue:            120000,
			MonthlyRevenue:           10000,
			YearsInBusiness:          1,
			EmployeeCount:            2,
			CreditScore:              520,
			DebtServiceCoverageRatio: 0.7,
			ExistingDebt:             100000,
			CashFlow:                 1500,
		},
	}
	body, _ := json.Marshal(apps)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bankpulse/underwrite/batch", bytes.NewBuffer(body))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var decisions []models.UnderwritingDecision
	if err := json.NewDecoder(rec.Body).Decode(&decisions); err != nil {
		t.Fatalf("invalid batch response: %v", err)
	}
	if len(decisions) != 2 {
		t.Fatalf("expected 2 decisions, got %d", len(decisions))
	}
	if decisions[0].Probability <= decisions[1].Probability {
		t.Error("strong application should outscore weak one in order")
	}
}

func TestUnderwriteBatch_EmptyRejected(t *testing.T) {
	s := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bankpulse/underwrite/batch", bytes.NewBufferString(`[]`))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty batch, got %d", rec.Code)
	}
}

func TestUnderwrite_NegativeAmountRejected(t *testing.T) {
	s := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bankpulse/underwrite",
		bytes.NewBufferString(`{"requested_amount": -100}`))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	const secret = "test-secret"
	s := newTestServer(t, secret)

	// No token
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bankpulse/stream/start", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	// Malformed header
	req = httptest.NewRequest(http.MethodPost, "/api/v1/bankpulse/stream/start", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for malformed header, got %d", rec.Code)
	}

	// Valid token
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "tester",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/bankpulse/stream/start", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid token, got %d: %s", rec.Code, rec.Body.String())
	}

	// Snapshot stays public
	req = httptest.NewRequest(http.MethodGet, "/api/v1/bankpulse/stream/snapshot", nil)
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected snapshot to be public, got %d", rec.Code)
	}
}
