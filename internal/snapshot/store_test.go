package snapshot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/martofrog/tennis-predictions/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepository struct {
	mu      sync.Mutex
	saved   *models.RatingSnapshot
	saveErr error
	loadErr error
}

func (r *memoryRepository) Load(ctx context.Context) (*models.RatingSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	if r.saved == nil {
		return models.EmptySnapshot(), nil
	}
	return r.saved, nil
}

func (r *memoryRepository) Save(ctx context.Context, snap *models.RatingSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = snap
	return nil
}

func withPlayer(key string, overall float64) TrainFunc {
	return func(current *models.RatingSnapshot) (*models.RatingSnapshot, error) {
		players := current.Players()
		p := models.NewPlayerRating(key, key)
		p.Overall = overall
		players = append(players, p)
		return models.NewRatingSnapshot(0, time.Time{}, players, current.AppliedKeys()), nil
	}
}

func TestStoreStartsEmpty(t *testing.T) {
	s := NewStore(nil, nil)
	assert.Equal(t, uint64(0), s.Current().Version())
	assert.Zero(t, s.Current().Len())
	assert.False(t, s.IsTraining())
}

func TestTrainPublishesNextVersion(t *testing.T) {
	repo := &memoryRepository{}
	s := NewStore(repo, nil)

	snap, err := s.Train(context.Background(), withPlayer("A", 1600))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Version())
	assert.Same(t, snap, s.Current())
	assert.Same(t, snap, repo.saved)

	snap, err = s.Train(context.Background(), withPlayer("B", 1400))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), snap.Version())
	assert.Equal(t, 2, s.Current().Len())
}

func TestFailedTrainingKeepsPreviousSnapshot(t *testing.T) {
	s := NewStore(nil, nil)
	first, err := s.Train(context.Background(), withPlayer("A", 1600))
	require.NoError(t, err)

	_, err = s.Train(context.Background(), func(*models.RatingSnapshot) (*models.RatingSnapshot, error) {
		return nil, errors.New("source unavailable")
	})
	require.Error(t, err)
	assert.Same(t, first, s.Current())

	_, err = s.Train(context.Background(), func(*models.RatingSnapshot) (*models.RatingSnapshot, error) {
		return nil, nil
	})
	assert.ErrorIs(t, err, models.ErrTrainingFailed)
	assert.Same(t, first, s.Current())
}

func TestSaveFailureIsNotPublished(t *testing.T) {
	repo := &memoryRepository{}
	s := NewStore(repo, nil)
	first, err := s.Train(context.Background(), withPlayer("A", 1600))
	require.NoError(t, err)

	repo.saveErr = errors.New("disk full")
	_, err = s.Train(context.Background(), withPlayer("B", 1400))
	require.Error(t, err)
	assert.Same(t, first, s.Current())
	assert.Same(t, first, repo.saved)
}

func TestConcurrentTrainingIsRejected(t *testing.T) {
	s := NewStore(nil, nil)
	first, err := s.Train(context.Background(), withPlayer("A", 1600))
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		_, err := s.Train(context.Background(), func(cur *models.RatingSnapshot) (*models.RatingSnapshot, error) {
			close(started)
			<-release
			return withPlayer("B", 1400)(cur)
		})
		done <- err
	}()

	<-started
	assert.True(t, s.IsTraining())
	// Readers keep seeing the previous snapshot while the pass runs.
	assert.Same(t, first, s.Current())

	_, err = s.Train(context.Background(), withPlayer("C", 1500))
	assert.ErrorIs(t, err, models.ErrTrainingInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, uint64(2), s.Current().Version())
	_, ok := s.Current().Player("C")
	assert.False(t, ok)
}

func TestTrainHonoursCancelledContext(t *testing.T) {
	s := NewStore(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, err := s.Train(ctx, func(cur *models.RatingSnapshot) (*models.RatingSnapshot, error) {
		called = true
		return cur, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestRestore(t *testing.T) {
	p := models.NewPlayerRating("A", "A")
	repo := &memoryRepository{saved: models.NewRatingSnapshot(5, time.Now(), []*models.PlayerRating{p}, nil)}
	s := NewStore(repo, nil)

	require.NoError(t, s.Restore(context.Background()))
	assert.Equal(t, uint64(5), s.Current().Version())

	snap, err := s.Train(context.Background(), withPlayer("B", 1500))
	require.NoError(t, err)
	assert.Equal(t, uint64(6), snap.Version())

	repo.loadErr = errors.New("boom")
	assert.Error(t, s.Restore(context.Background()))
	assert.Equal(t, uint64(6), s.Current().Version())
}
