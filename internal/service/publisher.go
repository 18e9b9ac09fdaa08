// Package service publishes domain events to RabbitMQ.  Errors are logged
// and returned so callers may ignore them without interrupting the request.
package service

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"

    "github.com/iliyamo/car-rental-reservation/internal/config"
    q "github.com/iliyamo/car-rental-reservation/internal/queue"
)

// Publisher sends reservation events.  Each publish opens its own
// connection; confirmations are rare enough that pooling is not needed.
type Publisher struct {
    cfg    config.BrokerConfig
    logger *zap.Logger
}

func NewPublisher(cfg config.BrokerConfig, logger *zap.Logger) *Publisher {
    if logger == nil {
        logger = zap.NewNop()
    }
    return &Publisher{cfg: cfg, logger: logger}
}

// PublishReservationConfirmed sends event to the confirmation queue as a
// persistent message.
func (p *Publisher) PublishReservationConfirmed(ctx context.Context, event q.ReservationConfirmedEvent) error {
    log := p.logger.With(zap.String("reservation_id", event.ReservationID))

    conn, err := amqp.Dial(p.cfg.URL)
    if err != nil {
        log.Warn("rabbitmq: dial failed", zap.Error(err))
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Warn("rabbitmq: channel open failed", zap.Error(err))
        return err
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(
        p.cfg.Queue, // name
        true,        // durable
        false,       // autoDelete
        false,       // exclusive
        false,       // noWait
        nil,         // args
    ); err != nil {
        log.Warn("rabbitmq: queue declare failed", zap.Error(err))
        return err
    }

    body, err := json.Marshal(event)
    if err != nil {
        log.Error("rabbitmq: marshal event failed", zap.Error(err))
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        MessageId:    event.ReservationID,
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", p.cfg.Queue, false, false, pub); err != nil {
        log.Warn("rabbitmq: publish failed", zap.Error(err))
        return err
    }
    log.Debug("reservation confirmation published")
    return nil
}
