package service

import (
	"context"

	"recibo/internal/model"
	"recibo/internal/oracle"
	"recibo/internal/reconcile"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockItemIdentifier is a mock implementation of oracle.ItemIdentifier.
type MockItemIdentifier struct {
	mock.Mock
}

func (m *MockItemIdentifier) Identify(ctx context.Context, req oracle.IdentifyRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// MockIdentifyService is a mock implementation of IdentifyService.
type MockIdentifyService struct {
	mock.Mock
}

func (m *MockIdentifyService) Identify(ctx context.Context, req model.IdentifyItemRequest) (model.Identification, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.Identification), args.Error(1)
}

// MockVerifier is a mock implementation of Verifier.
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, req reconcile.Request) reconcile.Outcome {
	args := m.Called(ctx, req)
	return args.Get(0).(reconcile.Outcome)
}

// MockAuditRepository is a mock implementation of AuditRepository.
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Save(ctx context.Context, record model.AuditRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockAuditRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.AuditRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuditRecord), args.Error(1)
}

func (m *MockAuditRepository) List(ctx context.Context, limit, offset int) ([]model.AuditRecord, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AuditRecord), args.Error(1)
}

func (m *MockAuditRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
