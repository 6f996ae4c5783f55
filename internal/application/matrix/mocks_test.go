package matrix

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/turtacn/ESG-Materiality/internal/domain/materiality"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/database/redis"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ESG-Materiality/internal/infrastructure/storage/minio"
)

// MockDashboardRepository is a mock implementation of materiality.DashboardRepository.
type MockDashboardRepository struct {
	mock.Mock
}

func (m *MockDashboardRepository) Get(ctx context.Context, clientID int64, year int) (*materiality.StoredDashboard, error) {
	args := m.Called(ctx, clientID, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*materiality.StoredDashboard), args.Error(1)
}

func (m *MockDashboardRepository) Save(ctx context.Context, payload *materiality.DashboardPayload) (int64, error) {
	args := m.Called(ctx, payload)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDashboardRepository) UpdateGroupVisibility(ctx context.Context, clientID int64, year int, changes []materiality.VisibilityChange) (int64, error) {
	args := m.Called(ctx, clientID, year, changes)
	return args.Get(0).(int64), args.Error(1)
}

// MockSnapshotRepository is a mock implementation of materiality.SnapshotRepository.
type MockSnapshotRepository struct {
	mock.Mock
}

func (m *MockSnapshotRepository) Create(ctx context.Context, s *materiality.Snapshot) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockSnapshotRepository) ListByDashboard(ctx context.Context, clientID int64, year int, limit int) ([]*materiality.Snapshot, error) {
	args := m.Called(ctx, clientID, year, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*materiality.Snapshot), args.Error(1)
}

// MockSnapshotArchive is a mock implementation of SnapshotArchive.
type MockSnapshotArchive struct {
	mock.Mock
}

func (m *MockSnapshotArchive) Put(ctx context.Context, obj *minio.SnapshotObjects) (*minio.StoredSnapshot, error) {
	args := m.Called(ctx, obj)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*minio.StoredSnapshot), args.Error(1)
}

func (m *MockSnapshotArchive) DownloadURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

// memorySelectionStore keeps selections in a map.
type memorySelectionStore struct {
	mu      sync.Mutex
	states  map[string]materiality.SelectionState
	saves   int
	saveErr error
}

func newMemorySelectionStore() *memorySelectionStore {
	return &memorySelectionStore{states: map[string]materiality.SelectionState{}}
}

func selKey(sessionID string, clientID int64, year int) string {
	return fmt.Sprintf("%s:%d:%d", sessionID, clientID, year)
}

func (s *memorySelectionStore) Load(_ context.Context, sessionID string, clientID int64, year int) (*materiality.SelectionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[selKey(sessionID, clientID, year)]
	if !ok {
		return nil, nil
	}
	out := st.Clone()
	return &out, nil
}

func (s *memorySelectionStore) Save(_ context.Context, sessionID string, clientID int64, year int, state materiality.SelectionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.states[selKey(sessionID, clientID, year)] = state.Clone()
	return nil
}

func (s *memorySelectionStore) Delete(_ context.Context, sessionID string, clientID int64, year int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, selKey(sessionID, clientID, year))
	return nil
}

func (s *memorySelectionStore) get(sessionID string, clientID int64, year int) (materiality.SelectionState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[selKey(sessionID, clientID, year)]
	return st, ok
}

// memoryMatrixCache keeps built matrices in a map.
type memoryMatrixCache struct {
	mu     sync.Mutex
	items  map[string]*materiality.Matrix
	builds int
}

func newMemoryMatrixCache() *memoryMatrixCache {
	return &memoryMatrixCache{items: map[string]*materiality.Matrix{}}
}

func (c *memoryMatrixCache) GetOrBuild(ctx context.Context, key string, build func(ctx context.Context) (*materiality.Matrix, error)) (*materiality.Matrix, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.items[key]; ok {
		return m, true, nil
	}
	m, err := build(ctx)
	if err != nil {
		return nil, false, err
	}
	c.builds++
	c.items[key] = m
	return m, false, nil
}

// fakeLockFactory hands out locks that are held while their name is in held.
type fakeLockFactory struct {
	mu    sync.Mutex
	held  map[string]bool
	names []string
}

func newFakeLockFactory() *fakeLockFactory {
	return &fakeLockFactory{held: map[string]bool{}}
}

func (f *fakeLockFactory) NewMutex(name string, _ ...redis.LockOption) redis.DistributedLock {
	f.mu.Lock()
	f.names = append(f.names, name)
	f.mu.Unlock()
	return &fakeLock{factory: f, name: name}
}

func (f *fakeLockFactory) isHeld(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.held[name]
}

type fakeLock struct {
	factory *fakeLockFactory
	name    string
}

func (l *fakeLock) Lock(ctx context.Context) error {
	ok, err := l.TryLock(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return redis.ErrLockNotAcquired
	}
	return nil
}

func (l *fakeLock) TryLock(context.Context) (bool, error) {
	l.factory.mu.Lock()
	defer l.factory.mu.Unlock()
	if l.factory.held[l.name] {
		return false, nil
	}
	l.factory.held[l.name] = true
	return true, nil
}

func (l *fakeLock) Unlock(context.Context) error {
	l.factory.mu.Lock()
	defer l.factory.mu.Unlock()
	if !l.factory.held[l.name] {
		return redis.ErrLockNotHeld
	}
	delete(l.factory.held, l.name)
	return nil
}

func (l *fakeLock) Extend(context.Context, time.Duration) (bool, error) { return true, nil }

// recordingPublisher captures published messages.
type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*kafka.ProducerMessage
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, msg *kafka.ProducerMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.msgs))
	for _, m := range p.msgs {
		out = append(out, m.Topic)
	}
	return out
}

func (p *recordingPublisher) envelope(i int) *kafka.EventEnvelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	env, err := kafka.MessageToEventEnvelope(&kafka.Message{Topic: p.msgs[i].Topic, Value: p.msgs[i].Value})
	if err != nil {
		panic(err)
	}
	return env
}
