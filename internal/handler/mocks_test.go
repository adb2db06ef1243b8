package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"recibo/internal/model"
	"recibo/internal/reconcile"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockIdentifyService is a mock implementation of IdentifyService.
type MockIdentifyService struct {
	mock.Mock
}

func (m *MockIdentifyService) Identify(ctx context.Context, req model.IdentifyItemRequest) (model.Identification, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.Identification), args.Error(1)
}

// MockVerifyService is a mock implementation of VerifyService.
type MockVerifyService struct {
	mock.Mock
}

func (m *MockVerifyService) Verify(ctx context.Context, req model.VerifyReceiptRequest) reconcile.Outcome {
	args := m.Called(ctx, req)
	return args.Get(0).(reconcile.Outcome)
}

// MockAuditService is a mock implementation of AuditService.
type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) Enabled() bool {
	return m.Called().Bool(0)
}

func (m *MockAuditService) List(ctx context.Context, limit, offset int) ([]model.AuditRecord, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AuditRecord), args.Error(1)
}

func (m *MockAuditService) GetByID(ctx context.Context, id uuid.UUID) (*model.AuditRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuditRecord), args.Error(1)
}

// MockSessionService is a mock implementation of SessionService.
type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) Create(storeContext string) model.SessionView {
	return m.Called(storeContext).Get(0).(model.SessionView)
}

func (m *MockSessionService) Get(id uuid.UUID) (model.SessionView, error) {
	args := m.Called(id)
	return args.Get(0).(model.SessionView), args.Error(1)
}

func (m *MockSessionService) Delete(id uuid.UUID) error {
	return m.Called(id).Error(0)
}

func (m *MockSessionService) Reset(id uuid.UUID) (model.SessionView, error) {
	args := m.Called(id)
	return args.Get(0).(model.SessionView), args.Error(1)
}

func (m *MockSessionService) Scan(ctx context.Context, id uuid.UUID, req model.IdentifyItemRequest) (int64, error) {
	args := m.Called(ctx, id, req)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSessionService) AddItem(id uuid.UUID, req model.ItemRequest) (int64, error) {
	args := m.Called(id, req)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSessionService) EditItem(id uuid.UUID, itemID int64, req model.ItemRequest) error {
	return m.Called(id, itemID, req).Error(0)
}

func (m *MockSessionService) RemoveItem(id uuid.UUID, itemID int64) error {
	return m.Called(id, itemID).Error(0)
}

func (m *MockSessionService) Verify(ctx context.Context, id uuid.UUID, req model.VerifyReceiptRequest) (reconcile.Outcome, error) {
	args := m.Called(ctx, id, req)
	return args.Get(0).(reconcile.Outcome), args.Error(1)
}

func (m *MockSessionService) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// serve routes a single request through a mux registered with pattern so
// that path values are populated.
func serve(pattern string, h http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}
