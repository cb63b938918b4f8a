package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"timebank/internal/auth"
	"timebank/internal/config"
	"timebank/internal/middleware"
	"timebank/internal/models"
	"timebank/internal/services"
	"timebank/internal/store"
	"timebank/internal/websocket"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type fakeTxRunner struct {
	withTxFn func(ctx context.Context, fn func(*sqlx.Tx) error) error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.withTxFn != nil {
		return f.withTxFn(ctx, fn)
	}
	return fn(nil)
}

type stubUserStore struct {
	createFn          func(ctx context.Context, tx store.Execer, u models.User) error
	getByNameFn       func(ctx context.Context, name string) (models.User, error)
	getByIDFn         func(ctx context.Context, userID string) (models.User, error)
	hasAnyFn          func(ctx context.Context) (bool, error)
	setCapabilitiesFn func(ctx context.Context, userID string, flags [5]bool) (int64, error)
}

func (s stubUserStore) Create(ctx context.Context, tx store.Execer, u models.User) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, u)
}

func (s stubUserStore) GetByName(ctx context.Context, name string) (models.User, error) {
	if s.getByNameFn == nil {
		return models.User{}, nil
	}
	return s.getByNameFn(ctx, name)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	if s.getByIDFn == nil {
		return models.User{}, nil
	}
	return s.getByIDFn(ctx, userID)
}

func (s stubUserStore) HasAny(ctx context.Context) (bool, error) {
	if s.hasAnyFn == nil {
		return false, nil
	}
	return s.hasAnyFn(ctx)
}

func (s stubUserStore) SetCapabilities(ctx context.Context, tx store.Execer, userID string, canRequest, canAllocate, canHold, canCharge, canRefund bool) (int64, error) {
	if s.setCapabilitiesFn == nil {
		return 1, nil
	}
	return s.setCapabilitiesFn(ctx, userID, [5]bool{canRequest, canAllocate, canHold, canCharge, canRefund})
}

type stubAllocationReader struct {
	listSummariesFn func(ctx context.Context, projectID, resourceID string) ([]store.AllocationSummary, error)
	getByIDFn       func(ctx context.Context, allocationID string) (models.Allocation, error)
}

func (s stubAllocationReader) ListSummaries(ctx context.Context, projectID, resourceID string) ([]store.AllocationSummary, error) {
	if s.listSummariesFn == nil {
		return nil, nil
	}
	return s.listSummariesFn(ctx, projectID, resourceID)
}

func (s stubAllocationReader) GetByID(ctx context.Context, allocationID string) (models.Allocation, error) {
	if s.getByIDFn == nil {
		return models.Allocation{}, nil
	}
	return s.getByIDFn(ctx, allocationID)
}

type stubHoldReader struct {
	listFn func(ctx context.Context, allocationID string, activeOnly bool) ([]models.Hold, error)
}

func (s stubHoldReader) ListByAllocation(ctx context.Context, allocationID string, activeOnly bool) ([]models.Hold, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, allocationID, activeOnly)
}

type stubChargeReader struct {
	listFn func(ctx context.Context, allocationID string) ([]models.Charge, error)
}

func (s stubChargeReader) ListByAllocation(ctx context.Context, allocationID string) ([]models.Charge, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, allocationID)
}

type stubRefundReader struct {
	listFn func(ctx context.Context, chargeID string) ([]models.Refund, error)
}

func (s stubRefundReader) ListByCharge(ctx context.Context, chargeID string) ([]models.Refund, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, chargeID)
}

type stubCreditLimitReader struct {
	listFn func(ctx context.Context, projectID string) ([]models.CreditLimit, error)
}

func (s stubCreditLimitReader) ListByProject(ctx context.Context, projectID string) ([]models.CreditLimit, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, projectID)
}

type stubUnitFactorReader struct {
	listFn func(ctx context.Context, resourceID string) ([]models.UnitFactor, error)
}

func (s stubUnitFactorReader) ListByResource(ctx context.Context, resourceID string) ([]models.UnitFactor, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, resourceID)
}

type stubJobReader struct {
	listFn func(ctx context.Context, projectID string, limit, offset int) ([]models.Job, error)
}

func (s stubJobReader) ListByProject(ctx context.Context, projectID string, limit, offset int) ([]models.Job, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, projectID, limit, offset)
}

type stubAuditReader struct {
	listFn func(ctx context.Context, entityType string, limit, offset int) ([]map[string]any, error)
}

func (s stubAuditReader) List(ctx context.Context, entityType string, limit, offset int) ([]map[string]any, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, entityType, limit, offset)
}

type stubDirectoryAdmin struct {
	resolveUserFn     func(ctx context.Context, name string) (string, error)
	resolveProjectFn  func(ctx context.Context, name string) (string, error)
	resolveResourceFn func(ctx context.Context, name string) (string, error)
}

func (s stubDirectoryAdmin) ResolveUser(ctx context.Context, name string) (string, error) {
	if s.resolveUserFn == nil {
		return name, nil
	}
	return s.resolveUserFn(ctx, name)
}

func (s stubDirectoryAdmin) ResolveProject(ctx context.Context, name string) (string, error) {
	if s.resolveProjectFn == nil {
		return name, nil
	}
	return s.resolveProjectFn(ctx, name)
}

func (s stubDirectoryAdmin) ResolveResource(ctx context.Context, name string) (string, error) {
	if s.resolveResourceFn == nil {
		return name, nil
	}
	return s.resolveResourceFn(ctx, name)
}

func (s stubDirectoryAdmin) RegisterProject(ctx context.Context, tx store.Execer, id, name string) error {
	return nil
}

func (s stubDirectoryAdmin) RegisterResource(ctx context.Context, tx store.Execer, id, name string) error {
	return nil
}

func (s stubDirectoryAdmin) AddMember(ctx context.Context, tx store.Execer, projectID, userID string, isManager bool) error {
	return nil
}

type stubService struct {
	createAllocationFn func(ctx context.Context, req services.CreateAllocationRequest) (string, error)
	createHoldFn       func(ctx context.Context, req services.HoldRequest) ([]services.HoldResult, error)
	releaseHoldFn      func(ctx context.Context, actingUserID, holdID string) error
	createChargeFn     func(ctx context.Context, req services.ChargeRequest) ([]services.ChargeResult, error)
	refundFn           func(ctx context.Context, req services.RefundRequest) (string, error)
	setCreditLimitFn   func(ctx context.Context, req services.SetCreditLimitRequest) (string, error)
	setUnitFactorFn    func(ctx context.Context, req services.SetUnitFactorRequest) (string, error)
	projectBalanceFn   func(ctx context.Context, projectID, resourceID string) (services.Balance, error)
	resourceFactorFn   func(ctx context.Context, resourceID string) (decimal.Decimal, error)
	ingestJobFn        func(ctx context.Context, req services.IngestJobRequest) (services.IngestJobResult, error)
	usageReportFn      func(ctx context.Context, actingUserID string, filter store.UsageFilter) (services.UsageReport, error)
}

func (s stubService) CreateAllocation(ctx context.Context, req services.CreateAllocationRequest) (string, error) {
	if s.createAllocationFn == nil {
		return "", nil
	}
	return s.createAllocationFn(ctx, req)
}

func (s stubService) CreateHold(ctx context.Context, req services.HoldRequest) ([]services.HoldResult, error) {
	if s.createHoldFn == nil {
		return nil, nil
	}
	return s.createHoldFn(ctx, req)
}

func (s stubService) ReleaseHold(ctx context.Context, actingUserID, holdID string) error {
	if s.releaseHoldFn == nil {
		return nil
	}
	return s.releaseHoldFn(ctx, actingUserID, holdID)
}

func (s stubService) CreateCharge(ctx context.Context, req services.ChargeRequest) ([]services.ChargeResult, error) {
	if s.createChargeFn == nil {
		return nil, nil
	}
	return s.createChargeFn(ctx, req)
}

func (s stubService) Refund(ctx context.Context, req services.RefundRequest) (string, error) {
	if s.refundFn == nil {
		return "", nil
	}
	return s.refundFn(ctx, req)
}

func (s stubService) SetCreditLimit(ctx context.Context, req services.SetCreditLimitRequest) (string, error) {
	if s.setCreditLimitFn == nil {
		return "", nil
	}
	return s.setCreditLimitFn(ctx, req)
}

func (s stubService) SetUnitFactor(ctx context.Context, req services.SetUnitFactorRequest) (string, error) {
	if s.setUnitFactorFn == nil {
		return "", nil
	}
	return s.setUnitFactorFn(ctx, req)
}

func (s stubService) ProjectBalance(ctx context.Context, projectID, resourceID string) (services.Balance, error) {
	if s.projectBalanceFn == nil {
		return services.Balance{}, nil
	}
	return s.projectBalanceFn(ctx, projectID, resourceID)
}

func (s stubService) ResourceFactor(ctx context.Context, resourceID string) (decimal.Decimal, error) {
	if s.resourceFactorFn == nil {
		return decimal.NewFromInt(1), nil
	}
	return s.resourceFactorFn(ctx, resourceID)
}

func (s stubService) IngestJob(ctx context.Context, req services.IngestJobRequest) (services.IngestJobResult, error) {
	if s.ingestJobFn == nil {
		return services.IngestJobResult{}, nil
	}
	return s.ingestJobFn(ctx, req)
}

func (s stubService) UsageReport(ctx context.Context, actingUserID string, filter store.UsageFilter) (services.UsageReport, error) {
	if s.usageReportFn == nil {
		return services.UsageReport{}, nil
	}
	return s.usageReportFn(ctx, actingUserID, filter)
}

func newTestHandler(users UserStore, dir DirectoryAdmin, service LedgerService) *Handler {
	cfg := config.Config{
		AppEnv:         "test",
		Port:           "0",
		JWTSecret:      "secret",
		TokenTTL:       time.Minute,
		AllowedOrigins: "*",
	}
	return New(cfg, fakeTxRunner{}, users,
		stubAllocationReader{}, stubHoldReader{}, stubChargeReader{}, stubRefundReader{},
		stubCreditLimitReader{}, stubUnitFactorReader{}, stubJobReader{}, stubAuditReader{},
		dir, service, websocket.NewHub())
}

func serveAuthedJSON(t *testing.T, handler http.HandlerFunc, method, body, userID string) *httptest.ResponseRecorder {
	t.Helper()
	token, err := auth.GenerateToken("secret", userID, time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, "/", reader)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	middleware.Auth("secret")(handler).ServeHTTP(rr, req)
	return rr
}
