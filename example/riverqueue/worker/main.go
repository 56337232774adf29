package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitcord/internal"
	"gitcord/pkg/discord"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
)

var jobKind = "gitcord.notification"

// NotificationArgs carries the queue envelope written by the riverqueue
// publisher.
type NotificationArgs struct {
	Label     string          `json:"label"`
	Token     string          `json:"token"`
	HookID    string          `json:"hook_id"`
	RequestID string          `json:"request_id"`
	Payload   json.RawMessage `json:"payload"`
}

func (NotificationArgs) Kind() string { return jobKind }

// NotificationWorker delivers one queued notification to Discord.
type NotificationWorker struct {
	river.WorkerDefaults[NotificationArgs]
	processor *internal.Processor
}

func (w *NotificationWorker) Work(ctx context.Context, job *river.Job[NotificationArgs]) error {
	log.Printf("job=%d queue=%s kind=%s label=%s", job.ID, job.Queue, job.Kind, job.Args.Label)
	return w.processor.Process(ctx, internal.Notification{
		Label:     job.Args.Label,
		Token:     job.Args.Token,
		HookID:    job.Args.HookID,
		RequestID: job.Args.RequestID,
		Payload:   job.Args.Payload,
	})
}

func main() {
	configPath := flag.String("config", "config.yaml", "Path to app config")
	dsn := flag.String("dsn", "", "Postgres DSN (defaults to watermill.riverqueue.dsn)")
	maxWorkers := flag.Int("max-workers", 5, "Max workers for the queue")
	flag.Parse()

	log.SetPrefix("gitcord/riverqueue-worker ")
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	appCfg, err := internal.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	jobKind = appCfg.Watermill.RiverQueue.Kind
	if *dsn == "" {
		*dsn = appCfg.Watermill.RiverQueue.DSN
	}
	if *dsn == "" {
		log.Fatalf("a postgres dsn is required")
	}

	muteEngine, err := internal.NewMuteEngine(appCfg.Mutes, nil)
	if err != nil {
		log.Fatalf("compile mute rules: %v", err)
	}

	processor := internal.NewProcessor(internal.ProcessorConfig{
		Secret:     appCfg.GitLab.Secret,
		WebhookURL: appCfg.Discord.WebhookURL,
		Mutes:      muteEngine,
		Deliverer: discord.NewClient(discord.ClientConfig{
			WebhookURL: appCfg.Discord.WebhookURL,
			MaxRetries: appCfg.Discord.MaxRetries,
			Timeout:    time.Duration(appCfg.Discord.TimeoutMS) * time.Millisecond,
		}),
	})

	dbPool, err := pgxpool.New(ctx, *dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer dbPool.Close()

	workers := river.NewWorkers()
	river.AddWorker(workers, &NotificationWorker{processor: processor})

	client, err := river.NewClient(riverpgxv5.New(dbPool), &river.Config{
		Logger: slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})),
		Queues: map[string]river.QueueConfig{
			appCfg.Watermill.RiverQueue.Queue: {MaxWorkers: *maxWorkers},
		},
		Workers: workers,
	})
	if err != nil {
		log.Fatalf("river client: %v", err)
	}

	if err := client.Start(ctx); err != nil {
		log.Fatalf("river start: %v", err)
	}

	<-ctx.Done()
	stopCtx, cancelStop := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelStop()
	if err := client.Stop(stopCtx); err != nil {
		log.Printf("river stop: %v", err)
	}
}
