/**
 * @description
 * Reusable RabbitMQ consumer. Sets up a durable topic exchange, a durable
 * queue (optionally backed by a dead-letter exchange) and the binding
 * between them, then delivers messages to a handler one at a time with
 * manual acknowledgement.
 */
package rabbitmq

import (
	"errors"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Verdict is the handler's decision about a delivery.
type Verdict int

const (
	// Ack marks the message as processed. Also used for poison messages
	// that can never succeed and should be dropped.
	Ack Verdict = iota
	// Requeue returns the message to the queue for another attempt.
	Requeue
	// DeadLetter rejects the message without requeueing so the broker
	// routes it to the queue's dead-letter exchange for reconciliation.
	DeadLetter
)

// ConsumeOptions describes the topology a consumer binds to.
type ConsumeOptions struct {
	Exchange   string
	Queue      string
	RoutingKey string
	// DeadLetterExchange, when set, is declared as a fanout exchange with a
	// matching ".dlq" queue, and failed messages are routed to it.
	DeadLetterExchange string
}

// Consumer holds the connection and channel for RabbitMQ.
type Consumer struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewConsumer dials RabbitMQ and opens a channel.
func NewConsumer(amqpURL string) (*Consumer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp.Dial(cleanURL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &Consumer{conn: conn, ch: ch}, nil
}

// Consume declares the topology and blocks delivering messages to the
// handler. It returns when the delivery channel closes.
func (c *Consumer) Consume(opts ConsumeOptions, handler func(body []byte) Verdict) error {
	if err := c.ch.ExchangeDeclare(opts.Exchange, "topic", true, false, false, false, nil); err != nil {
		return err
	}

	var queueArgs amqp.Table
	if opts.DeadLetterExchange != "" {
		if err := c.ch.ExchangeDeclare(opts.DeadLetterExchange, "fanout", true, false, false, false, nil); err != nil {
			return err
		}
		dlq, err := c.ch.QueueDeclare(opts.Queue+".dlq", true, false, false, false, nil)
		if err != nil {
			return err
		}
		if err := c.ch.QueueBind(dlq.Name, "", opts.DeadLetterExchange, false, nil); err != nil {
			return err
		}
		queueArgs = amqp.Table{"x-dead-letter-exchange": opts.DeadLetterExchange}
	}

	q, err := c.ch.QueueDeclare(opts.Queue, true, false, false, false, queueArgs)
	if err != nil {
		return err
	}

	if err := c.ch.QueueBind(q.Name, opts.RoutingKey, opts.Exchange, false, nil); err != nil {
		return err
	}

	msgs, err := c.ch.Consume(
		q.Name,
		"",    // consumer tag
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return err
	}

	for d := range msgs {
		switch handler(d.Body) {
		case Ack:
			d.Ack(false)
		case Requeue:
			log.Printf("Handler requested requeue for routing key %s", d.RoutingKey)
			d.Nack(false, true)
		case DeadLetter:
			log.Printf("Handler rejected message with routing key %s. Routing to dead letter.", d.RoutingKey)
			d.Nack(false, false)
		}
	}
	return errors.New("delivery channel closed")
}

// Close closes the RabbitMQ channel and connection.
func (c *Consumer) Close() {
	if c.ch != nil {
		c.ch.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
