package mailer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompose_Welcome(t *testing.T) {
	subject, text, html, err := Compose(WelcomeJob("ana@example.com", "Cofre Digital", "https://cofre.example"))
	require.NoError(t, err)
	assert.Equal(t, "Cofre Digital: sua conta foi criada", subject)
	assert.Contains(t, text, "ana@example.com")
	assert.Contains(t, html, "https://cofre.example/dashboard")
}

func TestCompose_PaymentApproved(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	_, text, _, err := Compose(PaymentApprovedJob("ana@example.com", "", "https://cofre.example", "cs_test_1", 19.9, at))
	require.NoError(t, err)
	assert.Contains(t, text, "R$ 19,90")
	assert.Contains(t, text, "cs_test_1")
	assert.Contains(t, text, "2025-03-01T12:00:00Z")
}

func TestCompose_RejectsEmptyJobs(t *testing.T) {
	_, _, _, err := Compose(EmailJob{Subject: "x", Text: "y"})
	assert.ErrorIs(t, err, ErrEmptyJob)

	_, _, _, err = Compose(EmailJob{To: "a@b.c"})
	assert.ErrorIs(t, err, ErrEmptyJob)
}

func TestCompose_UnknownTemplate(t *testing.T) {
	_, _, _, err := Compose(EmailJob{To: "a@b.c", Template: "nope"})
	assert.Error(t, err)
}

type recordingPublisher struct {
	kinds  []string
	bodies []any
}

func (p *recordingPublisher) Publish(_ context.Context, kind string, body any) error {
	p.kinds = append(p.kinds, kind)
	p.bodies = append(p.bodies, body)
	return nil
}

func TestQueue_Enqueue(t *testing.T) {
	var nilQueue *Queue
	require.NoError(t, nilQueue.Enqueue(context.Background(), EmailJob{To: "a@b.c"}))
	require.NoError(t, NewQueue(nil).Enqueue(context.Background(), EmailJob{To: "a@b.c"}))

	pub := &recordingPublisher{}
	require.NoError(t, NewQueue(pub).Enqueue(context.Background(), WelcomeJob("a@b.c", "x", "y")))
	require.Len(t, pub.bodies, 1)
	assert.Equal(t, []string{TemplateWelcome}, pub.kinds)
	assert.Equal(t, TemplateWelcome, pub.bodies[0].(EmailJob).Template)
}
