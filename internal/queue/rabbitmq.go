package queue

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

func connect(url string) (*amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	return conn, nil
}

// openEventChannel declares the durable event queue and starts a manual-ack
// consumer on it with a prefetch of one. The channel is closed on failure.
func openEventChannel(conn *amqp.Connection, queueName string) (*amqp.Channel, <-chan amqp.Delivery, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open event channel: %w", err)
	}

	msgs, err := consumeEvents(ch, queueName)
	if err != nil {
		ch.Close()
		return nil, nil, err
	}
	return ch, msgs, nil
}

func consumeEvents(ch *amqp.Channel, queueName string) (<-chan amqp.Delivery, error) {
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set qos on %s: %w", queueName, err)
	}

	msgs, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to consume %s: %w", queueName, err)
	}
	return msgs, nil
}

// openStatusChannel opens the channel a single worker publishes its status
// messages on, declaring the direct exchange first.
func openStatusChannel(conn *amqp.Connection, exchange string) (*amqp.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open status channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare status exchange %s: %w", exchange, err)
	}
	return ch, nil
}
