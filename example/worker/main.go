package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitcord/internal"
	"gitcord/pkg/discord"
	"gitcord/pkg/storage/hooks"
	worker "gitcord/pkg/worker"

	_ "github.com/lib/pq"
)

// Standalone delivery worker. Pairs with a server publishing to a shared
// broker (amqp, nats, kafka or sql), so webhook intake and Discord
// delivery can scale separately.
func main() {
	configPath := flag.String("config", "config.yaml", "Path to app config")
	driver := flag.String("driver", "", "Override subscriber driver (amqp|nats|kafka|sql)")
	flag.Parse()

	log.SetPrefix("gitcord/worker-example ")
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	appCfg, err := internal.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	subCfg, err := worker.LoadSubscriberConfig(*configPath)
	if err != nil {
		log.Fatalf("load subscriber config: %v", err)
	}
	if *driver != "" {
		subCfg.Driver = *driver
		subCfg.Drivers = nil
	}

	sub, err := worker.BuildSubscriber(subCfg)
	if err != nil {
		log.Fatalf("subscriber: %v", err)
	}

	muteEngine, err := internal.NewMuteEngine(appCfg.Mutes, nil)
	if err != nil {
		log.Fatalf("compile mute rules: %v", err)
	}

	var resolver internal.HookResolver
	if appCfg.Storage.Enabled {
		store, err := hooks.Open(hooks.Config{
			Driver:      appCfg.Storage.Driver,
			DSN:         appCfg.Storage.DSN,
			Dialect:     appCfg.Storage.Dialect,
			Table:       appCfg.Storage.Table,
			AutoMigrate: appCfg.Storage.AutoMigrate,
		})
		if err != nil {
			log.Fatalf("hook storage: %v", err)
		}
		defer store.Close()
		resolver = store
	}

	processor := internal.NewProcessor(internal.ProcessorConfig{
		Secret:     appCfg.GitLab.Secret,
		WebhookURL: appCfg.Discord.WebhookURL,
		Mutes:      muteEngine,
		Hooks:      resolver,
		Deliverer: discord.NewClient(discord.ClientConfig{
			WebhookURL: appCfg.Discord.WebhookURL,
			MaxRetries: appCfg.Discord.MaxRetries,
			Timeout:    time.Duration(appCfg.Discord.TimeoutMS) * time.Millisecond,
		}),
	})

	wk := worker.New(
		worker.WithSubscriber(sub),
		worker.WithTopics(appCfg.Watermill.Topic),
		worker.WithConcurrency(appCfg.Worker.Concurrency),
		worker.WithRetry(worker.AlwaysAck{}),
		worker.WithListener(worker.Listener{
			OnStart: func(ctx context.Context) { log.Println("worker started") },
			OnExit:  func(ctx context.Context) { log.Println("worker stopped") },
			OnError: func(ctx context.Context, evt *worker.Event, err error) {
				log.Printf("worker error: %v", err)
			},
		}),
	)
	wk.HandleTopic(appCfg.Watermill.Topic, func(ctx context.Context, evt *worker.Event) error {
		if driver := evt.Metadata["driver"]; driver != "" {
			log.Printf("driver=%s topic=%s label=%s", driver, evt.Topic, evt.Label)
		}
		return processor.Process(ctx, internal.Notification{
			Label:     evt.Label,
			Token:     evt.Token,
			HookID:    evt.HookID,
			RequestID: evt.RequestID,
			Payload:   evt.Payload,
		})
	})

	if err := wk.Run(ctx); err != nil {
		log.Fatalf("worker: %v", err)
	}
	if err := wk.Close(); err != nil {
		log.Printf("worker close: %v", err)
	}
}
