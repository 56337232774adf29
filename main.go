package main

import (
	"context"
	"expvar"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"gitcord/internal"
	"gitcord/pkg/discord"
	"gitcord/pkg/storage/hooks"
	"gitcord/pkg/worker"
	"gitcord/webhook"

	"github.com/ThreeDotsLabs/watermill/message"
	_ "github.com/lib/pq"
)

func main() {
	logger := internal.NewLogger("server")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Parse()

	config, err := internal.LoadConfig(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	muteEngine, err := internal.NewMuteEngine(config.Mutes, logger)
	if err != nil {
		logger.Fatalf("compile mute rules: %v", err)
	}

	var hookStore *hooks.Store
	if config.Storage.Enabled {
		hookStore, err = hooks.Open(hooks.Config{
			Driver:      config.Storage.Driver,
			DSN:         config.Storage.DSN,
			Dialect:     config.Storage.Dialect,
			Table:       config.Storage.Table,
			AutoMigrate: config.Storage.AutoMigrate,
		})
		if err != nil {
			logger.Fatalf("hook storage: %v", err)
		}
		defer hookStore.Close()
		logger.Printf("hook registry enabled (table %s)", config.Storage.Table)
	}

	// With the in-process driver the publisher and the subscriber must
	// share one pub/sub instance, otherwise messages never arrive.
	var publisher internal.Publisher
	var subscriber message.Subscriber
	if config.Watermill.PrimaryDriver() == "gochannel" && len(config.Watermill.Drivers) == 0 {
		channel := internal.NewGoChannel(config.Watermill)
		publisher = internal.WrapPublisher(channel)
		subscriber = channel
	} else {
		publisher, err = internal.NewPublisher(config.Watermill)
		if err != nil {
			logger.Fatalf("publisher: %v", err)
		}
		subscriber, err = worker.BuildSubscriber(worker.SubscriberConfig{
			Driver:    config.Watermill.Driver,
			Drivers:   config.Watermill.Drivers,
			GoChannel: worker.GoChannelConfig(config.Watermill.GoChannel),
			Kafka:     worker.KafkaConfig(config.Watermill.Kafka),
			NATS:      worker.NATSConfig(config.Watermill.NATS),
			AMQP:      worker.AMQPConfig(config.Watermill.AMQP),
			SQL:       worker.SQLConfig(config.Watermill.SQL),
		})
		if err != nil {
			logger.Fatalf("subscriber: %v", err)
		}
	}
	defer publisher.Close()

	client := discord.NewClient(discord.ClientConfig{
		WebhookURL: config.Discord.WebhookURL,
		MaxRetries: config.Discord.MaxRetries,
		Timeout:    time.Duration(config.Discord.TimeoutMS) * time.Millisecond,
		Logger:     internal.NewLogger("discord"),
	})

	var resolver internal.HookResolver
	if hookStore != nil {
		resolver = hookStore
	}
	processor := internal.NewProcessor(internal.ProcessorConfig{
		Secret:     config.GitLab.Secret,
		WebhookURL: config.Discord.WebhookURL,
		Mutes:      muteEngine,
		Hooks:      resolver,
		Deliverer:  client,
		Logger:     internal.NewLogger("processor"),
	})

	consumer := worker.New(
		worker.WithSubscriber(subscriber),
		worker.WithTopics(config.Watermill.Topic),
		worker.WithConcurrency(config.Worker.Concurrency),
		worker.WithRetry(worker.AlwaysAck{}),
		worker.WithLogger(internal.NewLogger("worker")),
	)
	consumer.HandleTopic(config.Watermill.Topic, func(ctx context.Context, evt *worker.Event) error {
		return processor.Process(ctx, internal.Notification{
			Label:     evt.Label,
			Token:     evt.Token,
			HookID:    evt.HookID,
			RequestID: evt.RequestID,
			Payload:   evt.Payload,
		})
	})

	mux := http.NewServeMux()

	glHandler, err := webhook.NewGitLabHandler(
		config.GitLab.Secret,
		config.Watermill.Topic,
		publisher,
		logger,
	)
	if err != nil {
		logger.Fatalf("gitlab handler: %v", err)
	}
	mux.Handle("POST "+config.GitLab.Path, glHandler)
	logger.Printf("gitlab webhook enabled on %s", config.GitLab.Path)

	if hookStore != nil {
		mux.Handle("POST /hooks/{id}", &webhook.HookHandler{
			Store:     hookStore,
			Topic:     config.Watermill.Topic,
			Publisher: publisher,
			Logger:    logger,
		})
		if config.Storage.AdminAPI {
			api := &webhook.HooksAPIHandler{Store: hookStore, Logger: logger}
			mux.HandleFunc("GET /api/hooks", api.List)
			mux.HandleFunc("PUT /api/hooks", api.Upsert)
			mux.HandleFunc("DELETE /api/hooks/{id}", api.Delete)
			logger.Printf("hook admin api enabled")
		}
	}

	if config.Server.MetricsEnabled {
		mux.Handle("GET "+config.Server.MetricsPath, expvar.Handler())
	}

	var handler http.Handler = mux
	if config.Server.RateLimitRPS > 0 {
		handler = internal.NewRateLimitHandler(handler, config.Server.RateLimitRPS, config.Server.RateLimitBurst)
	}
	handler = http.MaxBytesHandler(handler, config.Server.MaxBodyBytes)

	addr := ":" + strconv.Itoa(config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       time.Duration(config.Server.ReadTimeoutMS) * time.Millisecond,
		WriteTimeout:      time.Duration(config.Server.WriteTimeoutMS) * time.Millisecond,
		IdleTimeout:       time.Duration(config.Server.IdleTimeoutMS) * time.Millisecond,
		ReadHeaderTimeout: time.Duration(config.Server.ReadHeaderMS) * time.Millisecond,
	}

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := consumer.Run(runCtx); err != nil {
			logger.Fatalf("worker: %v", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Printf("listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("listen: %v", err)
		}
	}()

	<-shutdown
	ctx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctx); err != nil {
		logger.Printf("shutdown: %v", err)
	}
	cancel()
	if err := consumer.Close(); err != nil {
		logger.Printf("worker close: %v", err)
	}
}
