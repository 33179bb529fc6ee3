package message

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"
)

type RouterDeps struct {
	Logger      watermill.LoggerAdapter
	RedisClient *redis.Client
	SalesRepo   SalesRepo
}

type Router struct {
	*message.Router
}

func NewRouter(deps RouterDeps) (*Router, error) {
	if deps.SalesRepo == nil {
		return nil, fmt.Errorf("missing sales repo")
	}

	router, err := message.NewRouter(message.RouterConfig{}, deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("creating router: %w", err)
	}

	poisonPublisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
		Client: deps.RedisClient,
	}, deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("creating poison queue publisher: %w", err)
	}

	if err := addMiddlewares(router, poisonPublisher, deps.Logger); err != nil {
		return nil, err
	}

	config := cqrs.EventProcessorConfig{
		SubscriberConstructor: func(params cqrs.EventProcessorSubscriberConstructorParams) (message.Subscriber, error) {
			return redisstream.NewSubscriber(redisstream.SubscriberConfig{
				Client:        deps.RedisClient,
				ConsumerGroup: "cursedticket." + params.HandlerName,
			}, deps.Logger)
		},
		GenerateSubscribeTopic: func(params cqrs.EventProcessorGenerateSubscribeTopicParams) (string, error) {
			return params.EventName, nil
		},
		Marshaler: marshaler,
		Logger:    deps.Logger,
	}

	ep, err := cqrs.NewEventProcessorWithConfig(router, config)
	if err != nil {
		return nil, fmt.Errorf("creating event processor: %w", err)
	}

	handlers := []cqrs.EventHandler{
		cqrs.NewEventHandler("sales-tickets-issued", handleProjectTicketsIssued(deps.SalesRepo)),
		cqrs.NewEventHandler("sales-ticket-canceled", handleProjectTicketCanceled(deps.SalesRepo)),
		cqrs.NewEventHandler("sales-event-deleted", handleProjectEventDeleted(deps.SalesRepo)),
	}

	if err := ep.AddHandlers(handlers...); err != nil {
		return nil, fmt.Errorf("adding handlers: %w", err)
	}

	return &Router{router}, nil
}
