package internal

import (
	"context"
	"log"

	"gitcord/pkg/discord"
	"gitcord/pkg/gitlab"
	"gitcord/pkg/payload"
	"gitcord/pkg/storage"
)

// Deliverer sends one embed to a webhook URL. Satisfied by
// *discord.Client.
type Deliverer interface {
	DeliverTo(ctx context.Context, url string, embed discord.Embed)
}

// HookResolver looks up registered hooks by id. Satisfied by the hooks
// store; nil when the registry is disabled.
type HookResolver interface {
	Get(ctx context.Context, id string) (*storage.HookRecord, error)
}

// Processor runs one notification end-to-end: classify, mute check,
// build, deliver. Every outcome is terminal for the message; nothing a
// single event does can fail another event or the queue.
type Processor struct {
	classifier *gitlab.Classifier
	mutes      *MuteEngine
	deliverer  Deliverer
	defaultURL string
	hooks      HookResolver
	logger     *log.Logger
}

// ProcessorConfig wires a Processor.
type ProcessorConfig struct {
	// Secret is the process-wide shared secret; empty disables the
	// token check on the default route.
	Secret string
	// WebhookURL is the default outbound destination.
	WebhookURL string
	// Mutes drops accepted events matching operator rules. Optional.
	Mutes *MuteEngine
	// Hooks resolves per-hook routes. Optional.
	Hooks HookResolver
	// Deliverer performs the outbound POST.
	Deliverer Deliverer
	Logger    *log.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Processor{
		classifier: gitlab.NewClassifier(cfg.Secret),
		mutes:      cfg.Mutes,
		deliverer:  cfg.Deliverer,
		defaultURL: cfg.WebhookURL,
		hooks:      cfg.Hooks,
		logger:     logger,
	}
}

// Process handles one dequeued notification. It always returns nil:
// rejections and delivery failures are reported to the operator, never
// to the queue, so the source system sees success either way.
func (p *Processor) Process(ctx context.Context, notification Notification) error {
	classifier := p.classifier
	destination := p.defaultURL

	if notification.HookID != "" {
		if p.hooks == nil {
			p.logger.Printf("hook %s: registry is disabled, dropping event", notification.HookID)
			IncDropped("unknown_hook")
			return nil
		}
		record, err := p.hooks.Get(ctx, notification.HookID)
		if err != nil {
			p.logger.Printf("hook %s: lookup failed: %v", notification.HookID, err)
			IncDropped("hook_lookup")
			return nil
		}
		if record == nil {
			p.logger.Printf("hook %s: not registered, dropping event", notification.HookID)
			IncDropped("unknown_hook")
			return nil
		}
		classifier = gitlab.NewClassifier(record.GitLabToken)
		destination = record.DiscordURL
	}

	tree, err := payload.Parse(notification.Payload)
	if err != nil {
		p.logger.Printf("event %q: malformed payload: %v", notification.Label, err)
		IncDropped("malformed")
		return nil
	}

	outcome := classifier.Classify(notification.Label, tree, notification.Token)
	switch outcome.State {
	case gitlab.Ignored:
		p.logger.Printf("event %q: not a known kind, ignoring", notification.Label)
		IncDropped("ignored")
		return nil
	case gitlab.Rejected:
		if outcome.Rejection == gitlab.RejectInvalidToken {
			p.logger.Printf("event %q: %s", notification.Label, outcome.Reason)
			IncDropped("invalid_token")
			return nil
		}
		p.logger.Printf("event %q: skipping: %s", notification.Label, outcome.Reason)
		IncDropped("unsupported")
		return nil
	}

	IncEvent(string(outcome.Event.Kind))

	if p.mutes.Muted(tree) {
		p.logger.Printf("event %q: muted by operator rule", notification.Label)
		IncDropped("muted")
		return nil
	}

	embed, ok := discord.Build(outcome.Event.Kind, outcome.Event.Payload)
	if !ok {
		p.logger.Printf("event %q: no embed for kind %s", notification.Label, outcome.Event.Kind)
		IncDropped("no_embed")
		return nil
	}

	p.deliverer.DeliverTo(ctx, destination, embed)
	IncDelivery("dispatched")
	return nil
}
