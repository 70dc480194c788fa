package rabbitmq

import (
	"context"

	"github.com/streadway/amqp"
)

// Publisher публикует события в обменник уведомлений.
type Publisher struct {
	ch *amqp.Channel
}

// NewPublisher создает Publisher поверх открытого канала.
func NewPublisher(ch *amqp.Channel) *Publisher {
	return &Publisher{ch: ch}
}

// Publish сериализует сообщение и отправляет его с указанным ключом маршрутизации.
func (p *Publisher) Publish(_ context.Context, routingKey string, message any) error {
	return PublishMessage(p.ch, Exchange, routingKey, message)
}
