package worker

import (
	"Go_Vault/config"
	"Go_Vault/internal/mq"
	"Go_Vault/internal/service"
	"Go_Vault/utils"
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/time/rate"
)

type dlqMessage struct {
	PermissionID   uint64    `json:"permission_id"`
	RecipientEmail string    `json:"recipient_email"`
	Attempt        int       `json:"attempt"`
	Error          string    `json:"error"`
	FailedAt       time.Time `json:"failed_at"`
}

// publisher is the part of *mq.Client the retry path needs.
type publisher interface {
	PublishRetry(ctx context.Context, body []byte, delay time.Duration) error
	PublishDLQ(ctx context.Context, body []byte) error
}

// sendMail is swapped in tests.
var sendMail = utils.SendShareMail

type outcome int

const (
	outcomeAck outcome = iota
	outcomeRequeue
)

// RunNotifyWorker consumes share notifications from RabbitMQ and emails recipients.
func RunNotifyWorker(ctx context.Context) error {
	client, err := mq.Dial()
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.DeclareTopology(); err != nil {
		return err
	}

	deliveries, err := client.ConsumeNotifications(config.AppConfig.RabbitMQPrefetch)
	if err != nil {
		return err
	}

	concurrency := config.AppConfig.NotifyConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	limiter := newLimiter(config.AppConfig.NotifyRate, config.AppConfig.NotifyBurst)

	for {
		select {
		case <-ctx.Done():
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("notify worker: delivery channel closed")
			}
			sem <- struct{}{}
			go func(d amqp.Delivery) {
				defer func() { <-sem }()
				if handleNotifyMessage(ctx, client, limiter, d.Body) == outcomeRequeue {
					_ = d.Nack(false, true)
					return
				}
				_ = d.Ack(false)
			}(delivery)
		}
	}
}

func newLimiter(perSecond float64, burst int) *rate.Limiter {
	if burst <= 0 {
		burst = 1
	}
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, burst)
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

func handleNotifyMessage(ctx context.Context, pub publisher, limiter *rate.Limiter, body []byte) outcome {
	var msg service.ShareNotification
	if err := json.Unmarshal(body, &msg); err != nil {
		log.Printf("notify worker: invalid message: %v", err)
		return outcomeAck
	}

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return outcomeRequeue
		}
	}

	err := sendMail(utils.ShareMail{
		To:         msg.RecipientEmail,
		SharedBy:   msg.SharedBy,
		FileName:   msg.FileName,
		Permission: msg.Permission,
		Message:    msg.Message,
		InboxURL:   inboxURL(),
	})
	if err == nil {
		log.Printf("notify worker: mailed %s about share %d", msg.RecipientEmail, msg.PermissionID)
		return outcomeAck
	}

	if shouldRetry(err) {
		err = scheduleRetry(ctx, pub, msg, err)
	} else {
		err = markFailed(ctx, pub, msg, err)
	}
	if err != nil {
		log.Printf("notify worker: reschedule share %d failed: %v", msg.PermissionID, err)
		return outcomeRequeue
	}
	return outcomeAck
}

func inboxURL() string {
	if config.AppConfig.AppBaseURL == "" {
		return ""
	}
	return config.AppConfig.AppBaseURL + "/api/share/received"
}

func shouldRetry(err error) bool {
	return !errors.Is(err, utils.ErrSMTPConfigMissing)
}

func scheduleRetry(ctx context.Context, pub publisher, msg service.ShareNotification, sendErr error) error {
	maxRetry := config.AppConfig.NotifyRetryMax
	if maxRetry < 0 {
		maxRetry = 0
	}
	nextAttempt := msg.Attempt + 1
	if maxRetry == 0 || nextAttempt > maxRetry {
		return markFailed(ctx, pub, msg, sendErr)
	}

	delay := pickRetryDelay(nextAttempt, config.AppConfig.NotifyRetryDelays)
	log.Printf("notify worker: share %d attempt %d failed (%v), retrying in %s",
		msg.PermissionID, nextAttempt, sendErr, delay)

	msg.Attempt = nextAttempt
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return pub.PublishRetry(ctx, body, delay)
}

func markFailed(ctx context.Context, pub publisher, msg service.ShareNotification, sendErr error) error {
	log.Printf("notify worker: giving up on share %d: %v", msg.PermissionID, sendErr)
	dlq := dlqMessage{
		PermissionID:   msg.PermissionID,
		RecipientEmail: msg.RecipientEmail,
		Attempt:        msg.Attempt,
		Error:          sendErr.Error(),
		FailedAt:       time.Now(),
	}
	body, err := json.Marshal(dlq)
	if err != nil {
		return err
	}
	if err := pub.PublishDLQ(ctx, body); err != nil {
		log.Printf("notify worker: dlq publish failed: %v", err)
	}
	return nil
}

func pickRetryDelay(attempt int, delays []time.Duration) time.Duration {
	if len(delays) == 0 {
		return 0
	}
	index := attempt - 1
	if index < 0 {
		index = 0
	}
	if index >= len(delays) {
		return delays[len(delays)-1]
	}
	return delays[index]
}
