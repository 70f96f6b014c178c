package infrastructure

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"user-service/internal/config"
)

// NewAMQPConnection dials the message broker. Callers only reach this when
// an AMQP URL is configured, so a dial failure is fatal at startup.
func NewAMQPConnection(cfg *config.Config, l *zap.Logger) (*amqp.Connection, error) {
	conn, err := amqp.Dial(cfg.Events.AMQPURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to AMQP broker: %w", err)
	}

	l.Info("AMQP broker connected successfully")
	return conn, nil
}
