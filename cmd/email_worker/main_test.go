package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/cofre-digital/pkg/mailer"
)

type sendFunc func(ctx context.Context, to, subject, text, html string) error

func (f sendFunc) Send(ctx context.Context, to, subject, text, html string) error {
	return f(ctx, to, subject, text, html)
}

func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestProcess(t *testing.T) {
	job, err := json.Marshal(mailer.WelcomeJob("ana@example.com", "Cofre Digital", "https://cofre.example"))
	require.NoError(t, err)

	t.Run("sends and acks", func(t *testing.T) {
		var gotTo, gotSubject string
		s := sendFunc(func(_ context.Context, to, subject, _, html string) error {
			gotTo, gotSubject = to, subject
			assert.NotEmpty(t, html)
			return nil
		})
		assert.Equal(t, ack, process(context.Background(), s, quiet(), job))
		assert.Equal(t, "ana@example.com", gotTo)
		assert.NotEmpty(t, gotSubject)
	})

	t.Run("requeues on send failure", func(t *testing.T) {
		s := sendFunc(func(context.Context, string, string, string, string) error { return errors.New("mailgun 503") })
		assert.Equal(t, requeue, process(context.Background(), s, quiet(), job))
	})

	t.Run("drops malformed json", func(t *testing.T) {
		s := sendFunc(func(context.Context, string, string, string, string) error {
			t.Fatal("must not send")
			return nil
		})
		assert.Equal(t, drop, process(context.Background(), s, quiet(), []byte("{")))
	})

	t.Run("drops unknown template", func(t *testing.T) {
		body, _ := json.Marshal(mailer.EmailJob{To: "a@b.c", Template: "nope"})
		s := sendFunc(func(context.Context, string, string, string, string) error {
			t.Fatal("must not send")
			return nil
		})
		assert.Equal(t, drop, process(context.Background(), s, quiet(), body))
	})
}

func TestSettle(t *testing.T) {
	assert.Equal(t, requeue, settle(requeue, false), "first failure is retried")
	assert.Equal(t, drop, settle(requeue, true), "second failure is dropped")
	assert.Equal(t, ack, settle(ack, true))
	assert.Equal(t, drop, settle(drop, false))
}
