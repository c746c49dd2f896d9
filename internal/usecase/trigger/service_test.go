package trigger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/simaogato/rebalance-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockHistoryRepository is a mock implementation of HistoryRepository for testing
type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) Create(ctx context.Context, entry *domain.RebalanceHistoryEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockHistoryRepository) List(ctx context.Context, limit, offset int) ([]*domain.RebalanceHistoryEntry, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RebalanceHistoryEntry), args.Error(1)
}

func (m *MockHistoryRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func newTestService(repo domain.HistoryRepository) *Service {
	return NewService(newTestEvaluator(nil), repo, domain.RebalanceSchedule{
		Enabled:  true,
		Interval: domain.IntervalDaily,
		Triggers: []domain.TriggerKind{domain.TriggerMacro, domain.TriggerSignal},
	})
}

func TestService_ProposeRegistersPending(t *testing.T) {
	service := newTestService(new(MockHistoryRepository))

	proposal := service.Propose(nil, nil, map[string]float64{"VWCE": 1.0}, nil)

	require.NotNil(t, proposal)
	pending := service.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, proposal.ID, pending[0].ID)
}

func TestService_ProposeNilWhenNothingFires(t *testing.T) {
	service := NewService(newTestEvaluator(nil), new(MockHistoryRepository), domain.RebalanceSchedule{
		Enabled:  true,
		Triggers: []domain.TriggerKind{domain.TriggerMacro},
	})

	proposal := service.Propose(nil, nil, nil, nil)

	assert.Nil(t, proposal)
	assert.Empty(t, service.Pending())
}

func TestService_ConfirmRecordsHistoryAndAdvancesLastRebalance(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockHistoryRepository)
	service := newTestService(mockRepo)

	proposal := service.Propose(nil, nil, map[string]float64{"VWCE": 1.0}, nil)
	require.NotNil(t, proposal)

	mockRepo.On("Create", ctx, mock.MatchedBy(func(entry *domain.RebalanceHistoryEntry) bool {
		return entry.ID == proposal.ID && entry.Confirmed && !entry.Skipped
	})).Return(nil).Once()

	entry, err := service.Confirm(ctx, proposal.ID)

	require.NoError(t, err)
	assert.True(t, entry.Confirmed)
	assert.False(t, entry.Skipped)
	assert.Empty(t, service.Pending())

	schedule := service.Schedule()
	require.NotNil(t, schedule.LastRebalance)
	assert.Equal(t, proposal.Timestamp, *schedule.LastRebalance)
	mockRepo.AssertExpectations(t)
}

func TestService_SkipRecordsHistoryWithoutAdvancing(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockHistoryRepository)
	service := newTestService(mockRepo)

	proposal := service.Propose(nil, nil, map[string]float64{"VWCE": 1.0}, nil)
	require.NotNil(t, proposal)

	mockRepo.On("Create", ctx, mock.MatchedBy(func(entry *domain.RebalanceHistoryEntry) bool {
		return entry.ID == proposal.ID && entry.Skipped && !entry.Confirmed
	})).Return(nil).Once()

	entry, err := service.Skip(ctx, proposal.ID)

	require.NoError(t, err)
	assert.True(t, entry.Skipped)
	assert.Empty(t, service.Pending())
	assert.Nil(t, service.Schedule().LastRebalance)
	mockRepo.AssertExpectations(t)
}

func TestService_ConfirmUnknownProposal(t *testing.T) {
	service := newTestService(new(MockHistoryRepository))

	_, err := service.Confirm(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrProposalNotFound)
}

func TestService_SetScheduleKeepsLastRebalance(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockHistoryRepository)
	service := newTestService(mockRepo)

	proposal := service.Propose(nil, nil, nil, nil)
	require.NotNil(t, proposal)
	mockRepo.On("Create", ctx, mock.Anything).Return(nil).Once()
	_, err := service.Confirm(ctx, proposal.ID)
	require.NoError(t, err)

	err = service.SetSchedule(domain.RebalanceSchedule{
		Enabled:  true,
		Interval: domain.IntervalMonthly,
	})

	require.NoError(t, err)
	schedule := service.Schedule()
	assert.Equal(t, domain.IntervalMonthly, schedule.Interval)
	assert.NotNil(t, schedule.LastRebalance)
}

func TestService_SetScheduleRejectsInvalid(t *testing.T) {
	service := newTestService(new(MockHistoryRepository))

	err := service.SetSchedule(domain.RebalanceSchedule{
		Interval: "fortnightly",
	})

	assert.Error(t, err)
}

func TestService_HistoryPassesThroughPagination(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockHistoryRepository)
	service := newTestService(mockRepo)

	stored := []*domain.RebalanceHistoryEntry{
		{RebalanceProposal: domain.RebalanceProposal{ID: uuid.New(), Confirmed: true}},
	}
	mockRepo.On("Count", ctx).Return(7, nil)
	mockRepo.On("List", ctx, 5, 0).Return(stored, nil)

	entries, total, err := service.History(ctx, 5, 0)

	require.NoError(t, err)
	assert.Equal(t, 7, total)
	assert.Equal(t, stored, entries)
	mockRepo.AssertExpectations(t)
}
