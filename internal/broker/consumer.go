package broker

import (
	"context"
	"errors"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrPermanent marca mensagens que nunca vão dar certo: vão para nack sem requeue.
var ErrPermanent = errors.New("permanent failure")

type Handler func(ctx context.Context, d amqp.Delivery) error

type Consumer struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	queue    string
	tag      string
	prefetch int
	log      *slog.Logger
}

func NewConsumer(uri, queue, tag string, prefetch int, log *slog.Logger) (*Consumer, error) {
	conn, ch, err := dialQueue(uri, queue)
	if err != nil {
		return nil, err
	}
	if prefetch <= 0 {
		prefetch = 50
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Consumer{conn: conn, ch: ch, queue: queue, tag: tag, prefetch: prefetch, log: log.With("cmp", "consumer")}, nil
}

// Run consome até ctx ser cancelado ou o canal fechar. Ack manual: sucesso
// confirma, falha permanente descarta, falha transitória volta para a fila.
func (c *Consumer) Run(ctx context.Context, h Handler) error {
	deliveries, err := c.ch.Consume(c.queue, c.tag, false, false, false, false, nil)
	if err != nil {
		return err
	}
	c.log.Info("rabbit_consumer_started", "queue", c.queue, "prefetch", c.prefetch)

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				c.log.Warn("deliveries_channel_closed")
				return errors.New("deliveries channel closed")
			}
			c.handle(ctx, h, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, h Handler, d amqp.Delivery) {
	err := h(ctx, d)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, ErrPermanent):
		c.log.Warn("message_dropped", "message_id", d.MessageId, "err", err)
		_ = d.Nack(false, false)
	default:
		c.log.Error("message_requeued", "message_id", d.MessageId, "err", err)
		_ = d.Nack(false, !d.Redelivered)
	}
}

func (c *Consumer) Close() error {
	var errCh, errConn error
	if c.ch != nil {
		errCh = c.ch.Close()
	}
	if c.conn != nil {
		errConn = c.conn.Close()
	}
	return errors.Join(errCh, errConn)
}
