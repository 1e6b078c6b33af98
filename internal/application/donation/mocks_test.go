package donation

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/sharehub/backend/internal/domain/donation"
	"github.com/stretchr/testify/mock"
)

// MockDonationRepository is a mock implementation of donation.Repository
type MockDonationRepository struct {
	mock.Mock
}

func (m *MockDonationRepository) Create(ctx context.Context, d *donation.Donation) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDonationRepository) FindAll(ctx context.Context) ([]donation.Donation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]donation.Donation), args.Error(1)
}

func (m *MockDonationRepository) FindByID(ctx context.Context, id uuid.UUID) (*donation.Donation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*donation.Donation), args.Error(1)
}

func (m *MockDonationRepository) Update(ctx context.Context, id uuid.UUID, patch donation.Patch) (*donation.Donation, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*donation.Donation), args.Error(1)
}

func (m *MockDonationRepository) Delete(ctx context.Context, id uuid.UUID) (*donation.Donation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*donation.Donation), args.Error(1)
}

// MockImageStore is a mock implementation of ImageStore
type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Store(ctx context.Context, name, contentType string, data []byte) (string, error) {
	args := m.Called(ctx, name, contentType, data)
	return args.String(0), args.Error(1)
}

func (m *MockImageStore) Resolve(ctx context.Context, ref string) (string, error) {
	args := m.Called(ctx, ref)
	return args.String(0), args.Error(1)
}

func (m *MockImageStore) Delete(ctx context.Context, ref string) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

// recordingNotifier keeps every queued message
type recordingNotifier struct {
	mu       sync.Mutex
	messages []EmailMessage
	fail     bool
}

func (n *recordingNotifier) Enqueue(_ context.Context, msg EmailMessage) error {
	if n.fail {
		return errors.New("queue full")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return nil
}

func (n *recordingNotifier) sent() []EmailMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]EmailMessage(nil), n.messages...)
}
