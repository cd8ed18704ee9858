// Package mocks provides test doubles for the linking use cases.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	linkingDomain "github.com/finboard/finboard/internal/linking/domain"
)

// MockItemUseCase is a mock implementation of usecase.ItemUseCase.
type MockItemUseCase struct {
	mock.Mock
}

// NewMockItemUseCase creates a MockItemUseCase whose expectations are asserted on test cleanup.
func NewMockItemUseCase(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockItemUseCase {
	m := &MockItemUseCase{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockItemUseCase) CreateLinkToken(ctx context.Context, userID string) (*linkingDomain.LinkToken, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*linkingDomain.LinkToken), args.Error(1)
}

func (m *MockItemUseCase) Link(ctx context.Context, input *linkingDomain.LinkInput) (*linkingDomain.Item, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*linkingDomain.Item), args.Error(1)
}

func (m *MockItemUseCase) List(ctx context.Context, userID string) ([]*linkingDomain.Item, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*linkingDomain.Item), args.Error(1)
}

func (m *MockItemUseCase) Accounts(ctx context.Context, userID, itemID string) ([]linkingDomain.Account, error) {
	args := m.Called(ctx, userID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]linkingDomain.Account), args.Error(1)
}

func (m *MockItemUseCase) Summary(
	ctx context.Context,
	input *linkingDomain.SummaryInput,
) (*linkingDomain.Summary, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*linkingDomain.Summary), args.Error(1)
}

func (m *MockItemUseCase) Unlink(ctx context.Context, userID, itemID string) error {
	args := m.Called(ctx, userID, itemID)
	return args.Error(0)
}

func (m *MockItemUseCase) VerifyCredentials(
	ctx context.Context,
	batchSize int,
	markUnusable bool,
) (*linkingDomain.VerifyReport, error) {
	args := m.Called(ctx, batchSize, markUnusable)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*linkingDomain.VerifyReport), args.Error(1)
}
