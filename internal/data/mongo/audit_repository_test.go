package mongo

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/custodia-wallet-engine/internal/domain/audit"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"
)

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Record(ctx context.Context, event *audit.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockAuditRepository) GetByWalletID(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*audit.Event, error) {
	args := m.Called(ctx, walletID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*audit.Event), args.Error(1)
}

func (m *MockAuditRepository) GetByReference(ctx context.Context, reference string) ([]*audit.Event, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*audit.Event), args.Error(1)
}

func TestNewAuditRepository(t *testing.T) {
	db := &mongo.Database{}
	logger := slog.Default()

	repo := NewAuditRepository(logger, db)

	assert.NotNil(t, repo)
	assert.IsType(t, &AuditRepository{}, repo)
}

func TestAuditRepository_Record(t *testing.T) {
	event := audit.NewEvent(audit.ActionDepositSettled, uuid.New(), uuid.New(),
		"ref_rec", decimal.RequireFromString("250.00"), map[string]any{"settled_via": "webhook"})

	tests := []struct {
		name          string
		setupMocks    func(m *MockAuditRepository)
		expectedError error
	}{
		{
			name: "successful record",
			setupMocks: func(m *MockAuditRepository) {
				m.On("Record", mock.Anything, event).Return(nil)
			},
			expectedError: nil,
		},
		{
			name: "database error",
			setupMocks: func(m *MockAuditRepository) {
				m.On("Record", mock.Anything, event).Return(errors.New("insert failed"))
			},
			expectedError: errors.New("insert failed"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockAuditRepository{}
			tt.setupMocks(mockRepo)

			err := mockRepo.Record(context.Background(), event)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError.Error())
			} else {
				assert.NoError(t, err)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuditRepository_GetByReference(t *testing.T) {
	txID := uuid.New()
	walletID := uuid.New()
	trail := []*audit.Event{
		audit.NewEvent(audit.ActionDepositSettled, txID, walletID, "ref_get", decimal.RequireFromString("75.00"), nil),
		audit.NewEvent(audit.ActionDepositOpened, txID, walletID, "ref_get", decimal.RequireFromString("75.00"), nil),
	}

	tests := []struct {
		name           string
		setupMocks     func(m *MockAuditRepository)
		expectedEvents []*audit.Event
		expectedError  error
	}{
		{
			name: "trail found",
			setupMocks: func(m *MockAuditRepository) {
				m.On("GetByReference", mock.Anything, "ref_get").Return(trail, nil)
			},
			expectedEvents: trail,
			expectedError:  nil,
		},
		{
			name: "empty trail",
			setupMocks: func(m *MockAuditRepository) {
				m.On("GetByReference", mock.Anything, "ref_get").Return([]*audit.Event{}, nil)
			},
			expectedEvents: []*audit.Event{},
			expectedError:  nil,
		},
		{
			name: "database error",
			setupMocks: func(m *MockAuditRepository) {
				m.On("GetByReference", mock.Anything, "ref_get").Return(nil, errors.New("find failed"))
			},
			expectedEvents: nil,
			expectedError:  errors.New("find failed"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockAuditRepository{}
			tt.setupMocks(mockRepo)

			events, err := mockRepo.GetByReference(context.Background(), "ref_get")

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError.Error())
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedEvents, events)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuditRepository_GetByWalletID(t *testing.T) {
	walletID := uuid.New()
	trail := []*audit.Event{
		audit.NewEvent(audit.ActionTransferCompleted, uuid.New(), walletID, "", decimal.RequireFromString("10.00"), nil),
	}

	mockRepo := &MockAuditRepository{}
	mockRepo.On("GetByWalletID", mock.Anything, walletID, 20, 0).Return(trail, nil)

	events, err := mockRepo.GetByWalletID(context.Background(), walletID, 20, 0)

	assert.NoError(t, err)
	assert.Equal(t, trail, events)
	mockRepo.AssertExpectations(t)
}
