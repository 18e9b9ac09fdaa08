// Package queue also contains the background consumer that listens to the
// reservation confirmation queue and appends one line per event to a log
// file.
package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"

    "github.com/iliyamo/car-rental-reservation/internal/config"
)

// StartReservationConsumer connects to RabbitMQ, declares the durable
// queue and consumes until ctx is cancelled.  Connection failures are
// retried with exponential backoff capped at 30s.  A message that cannot
// be handled is rejected without requeue so one bad payload cannot stall
// the queue.
func StartReservationConsumer(ctx context.Context, cfg config.BrokerConfig, logger *zap.Logger) error {
    if logger == nil {
        logger = zap.NewNop()
    }
    backoff := time.Second
    for {
        conn, err := amqp.Dial(cfg.URL)
        if err != nil {
            logger.Warn("reservation consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = consumeLoop(ctx, conn, cfg, logger)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        logger.Warn("reservation consumer: loop ended, reconnecting", zap.Error(err))
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, cfg config.BrokerConfig, logger *zap.Logger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        logger.Warn("reservation consumer: set QoS failed", zap.Error(err))
    }
    if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(cfg.Queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := handleMessage(cfg.LogPath, d.Body); err != nil {
                logger.Error("reservation consumer: handle message failed", zap.Error(err))
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func handleMessage(logPath string, body []byte) error {
    var ev ReservationConfirmedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.ReservationID == "" {
        return errors.New("event without reservation_id")
    }
    if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatLine renders ev as one human-friendly log line.
func FormatLine(ev ReservationConfirmedEvent) string {
    extras := "[" + strings.Join(ev.Extras, ",") + "]"
    coupon := ev.CouponCode
    if coupon == "" {
        coupon = "-"
    }
    return fmt.Sprintf("[%s] Reservation confirmed | reservation_id=%s | user_id=%d | vehicle=%q | pickup=%q at %s | return=%q at %s | extras=%s | coupon=%s | total=%s\n",
        ev.ConfirmedAt, ev.ReservationID, ev.UserID, ev.Vehicle, ev.PickupLocation, ev.PickupAt,
        ev.ReturnLocation, ev.ReturnAt, extras, coupon, ev.TotalPrice.StringFixed(2))
}
