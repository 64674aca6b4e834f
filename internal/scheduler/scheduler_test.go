package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/martofrog/tennis-predictions/internal/logger"
	"github.com/martofrog/tennis-predictions/internal/models"
	"github.com/martofrog/tennis-predictions/internal/service"
)

type MockTrainer struct {
	mock.Mock
}

func (m *MockTrainer) Retrain(ctx context.Context, full bool) (*service.TrainingResult, error) {
	args := m.Called(ctx, full)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TrainingResult), args.Error(1)
}

type MockScanner struct {
	mock.Mock
}

func (m *MockScanner) ScanValueBets(ctx context.Context, opts service.ScanOptions) (*service.ScanResult, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ScanResult), args.Error(1)
}

func TestUpdateRetrainsThenScans(t *testing.T) {
	trainer := new(MockTrainer)
	scanner := new(MockScanner)
	trainer.On("Retrain", mock.Anything, false).Return(&service.TrainingResult{RunID: "run-1", Version: 2}, nil).Once()
	scanner.On("ScanValueBets", mock.Anything, service.ScanOptions{Window: 24 * time.Hour, BestPerMatch: true}).Return(&service.ScanResult{Markets: 4}, nil).Once()

	s := NewScheduler(trainer, scanner, time.Minute, logger.Discard())
	s.runUpdate()

	trainer.AssertExpectations(t)
	scanner.AssertExpectations(t)
}

func TestUpdateSkipsScanWhenTrainingFails(t *testing.T) {
	for _, err := range []error{models.ErrTrainingInProgress, errors.New("source offline")} {
		trainer := new(MockTrainer)
		scanner := new(MockScanner)
		trainer.On("Retrain", mock.Anything, false).Return(nil, err).Once()

		s := NewScheduler(trainer, scanner, time.Minute, logger.Discard())
		s.runUpdate()

		trainer.AssertExpectations(t)
		scanner.AssertNotCalled(t, "ScanValueBets", mock.Anything, mock.Anything)
	}
}

func TestScheduleJobs(t *testing.T) {
	trainer := new(MockTrainer)
	s := NewScheduler(trainer, new(MockScanner), 0, logger.Discard())

	assert.Error(t, s.ScheduleTraining("not a cron"))
	require.NoError(t, s.ScheduleTraining("0 6 * * *"))
	require.NoError(t, s.ScheduleValueBetScan(5))
	assert.Equal(t, 2, s.Jobs())
	assert.True(t, s.NextRun().IsZero())

	require.NoError(t, s.Start())
	defer s.Stop()
	assert.True(t, s.IsRunning())
	assert.False(t, s.NextRun().IsZero())
	assert.Error(t, s.Start())
	assert.Error(t, s.ScheduleTraining("0 7 * * *"))
}

func TestScheduleScanRequiresScanner(t *testing.T) {
	s := NewScheduler(new(MockTrainer), nil, time.Minute, logger.Discard())
	assert.Error(t, s.ScheduleValueBetScan(60))
	assert.Error(t, s.Start())
}
