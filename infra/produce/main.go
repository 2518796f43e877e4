package produce

import amqp "github.com/rabbitmq/amqp091-go"

type Produce struct {
	SessionEvents *SessionEventService
}

var produceInstance *Produce

func InitProduce(channel *amqp.Channel) *Produce {
	if produceInstance != nil {
		return produceInstance
	}

	sessionEvents := InitSessionEventService(channel)
	if sessionEvents == nil {
		panic("Failed to initialize Session Events service")
	}

	produceInstance = &Produce{
		SessionEvents: sessionEvents,
	}

	return produceInstance
}

func GetProduce() *Produce {
	if produceInstance == nil {
		panic("Produce not initialized. Call InitProduce() first.")
	}
	return produceInstance
}
