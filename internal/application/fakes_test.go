package application

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/oksasatya/cofre-digital/internal/domain/entity"
	"github.com/oksasatya/cofre-digital/pkg/mailer"
)

type fakeGateway struct {
	CreateFn func(ctx context.Context, in entity.CheckoutIntent) (*entity.Checkout, error)
	FetchFn  func(ctx context.Context, id string) (*entity.Payment, error)
}

func (f *fakeGateway) CreateCheckout(ctx context.Context, in entity.CheckoutIntent) (*entity.Checkout, error) {
	return f.CreateFn(ctx, in)
}

func (f *fakeGateway) FetchPayment(ctx context.Context, id string) (*entity.Payment, error) {
	return f.FetchFn(ctx, id)
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []mailer.EmailJob
}

func (q *recordingQueue) Enqueue(_ context.Context, job mailer.EmailJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) templates() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, len(q.jobs))
	for i, j := range q.jobs {
		out[i] = j.Template
	}
	return out
}

type memRevocations struct {
	mu  sync.Mutex
	at  map[string]time.Time
	err error
}

func (m *memRevocations) Revoke(_ context.Context, uid string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.at == nil {
		m.at = map[string]time.Time{}
	}
	m.at[uid] = time.UnixMilli(at.UnixMilli())
	return nil
}

func (m *memRevocations) RevokedAfter(_ context.Context, uid string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return time.Time{}, m.err
	}
	return m.at[uid], nil
}

type recordingStore struct {
	calls       int
	key         string
	contentType string
	body        []byte
	err         error
}

func (s *recordingStore) Put(_ context.Context, key, contentType string, r io.Reader, _ int64) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.key, s.contentType, s.body = key, contentType, b
	return "https://storage.example/" + key, nil
}
