package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/cofre-digital/config"
	"github.com/oksasatya/cofre-digital/pkg/helpers"
	"github.com/oksasatya/cofre-digital/pkg/mailer"
	"github.com/oksasatya/cofre-digital/pkg/telemetry"
)

// sender is satisfied by mailer.Mailgun.
type sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

type outcome int

const (
	ack     outcome = iota
	drop            // malformed or unrenderable, never retried
	requeue         // transient send failure
)

// process decodes, renders and sends one queued job.
func process(ctx context.Context, s sender, logger logrus.FieldLogger, body []byte) outcome {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		logger.WithError(err).Warn("bad email message")
		telemetry.EmailJobs.WithLabelValues("unknown", "malformed").Inc()
		return drop
	}
	subject, text, html, err := mailer.Compose(job)
	if err != nil {
		logger.WithError(err).WithField("template", job.Template).Warn("render email failed")
		telemetry.EmailJobs.WithLabelValues(job.Template, "render_failed").Inc()
		return drop
	}
	if err := s.Send(ctx, job.To, subject, text, html); err != nil {
		logger.WithError(err).WithField("template", job.Template).Warn("send email failed")
		telemetry.EmailJobs.WithLabelValues(job.Template, "send_failed").Inc()
		return requeue
	}
	telemetry.EmailJobs.WithLabelValues(job.Template, "sent").Inc()
	return ack
}

// settle retries a failed send once; a redelivered message that fails again
// is dropped so one bad recipient cannot spin the queue.
func settle(o outcome, redelivered bool) outcome {
	if o == requeue && redelivered {
		return drop
	}
	return o
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env)

	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; email worker disabled (no real emails will be sent)")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}
	mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	if !mg.Configured() {
		logger.Fatal("Mailgun not configured")
	}

	if err := telemetry.InitSentry(cfg.SentryDSN, cfg.AppName+"-email-worker", cfg.Env, cfg.Release); err != nil {
		logger.WithError(err).Warn("sentry init failed")
	}
	defer telemetry.Flush()

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatalf("amqp channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	// Prefetch for fair dispatch across workers
	if err := ch.Qos(16, 0, false); err != nil {
		logger.Fatalf("qos: %v", err)
	}
	if err := helpers.DeclareDurableQueue(ch, cfg.RabbitMQEmailQueue); err != nil {
		logger.Fatalf("queue declare: %v", err)
	}
	msgs, err := ch.Consume(cfg.RabbitMQEmailQueue, "", false, false, false, false, nil)
	if err != nil {
		logger.Fatalf("consume: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for msg := range msgs {
			log := logger.WithFields(logrus.Fields{"message_id": msg.MessageId, "type": msg.Type})
			o := process(ctx, mg, log, msg.Body)
			if settled := settle(o, msg.Redelivered); settled != o {
				log.Warn("send failed after redelivery, dropping")
				o = settled
			}
			switch o {
			case ack:
				_ = msg.Ack(false)
			case drop:
				_ = msg.Nack(false, false)
			case requeue:
				_ = msg.Nack(false, true)
			}
		}
		if ctx.Err() == nil {
			telemetry.CaptureError(errors.New("amqp delivery channel closed"), map[string]string{"queue": cfg.RabbitMQEmailQueue})
		}
	}()

	logger.WithField("queue", cfg.RabbitMQEmailQueue).Info("email worker listening")
	select {
	case <-stop:
	case <-done:
		logger.Warn("delivery channel closed")
	}
	logger.Info("shutting down...")
	cancel()
	_ = ch.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}
