package gitlab

import (
	"fmt"

	"gitcord/pkg/payload"
)

// OutcomeState tags the result of classification.
type OutcomeState int

const (
	// Accepted means the event is notification-worthy and carries an
	// InboundEvent for the embed builder.
	Accepted OutcomeState = iota
	// Ignored means the label is outside the known enumeration; the
	// event is silently dropped and the source still sees success.
	Ignored
	// Rejected means the event failed validation or a worthiness
	// filter; Reason says why.
	Rejected
)

// RejectionKind distinguishes the two rejection causes.
type RejectionKind int

const (
	// RejectInvalidToken is a shared-secret mismatch.
	RejectInvalidToken RejectionKind = iota
	// RejectUnsupported is an event occurrence that is not worth a
	// notification (empty push, pending pipeline, ...).
	RejectUnsupported
)

// Outcome is the tagged result of Classify. Exactly one of the three
// states applies; Event is only valid when State is Accepted.
type Outcome struct {
	State     OutcomeState
	Event     InboundEvent
	Rejection RejectionKind
	Reason    string
}

// Classifier validates and filters inbound events against a configured
// shared secret. The zero secret disables token validation.
type Classifier struct {
	secret string
}

// NewClassifier creates a Classifier. An empty secret skips the token
// check entirely.
func NewClassifier(secret string) *Classifier {
	return &Classifier{secret: secret}
}

// Classify checks the presented token, normalizes the label, and applies
// the per-kind worthiness filter. It never fails for malformed payload
// fields; a missing field simply fails the filter it feeds.
func (c *Classifier) Classify(label string, tree payload.Tree, token string) Outcome {
	if c.secret != "" && token != c.secret {
		return Outcome{
			State:     Rejected,
			Rejection: RejectInvalidToken,
			Reason:    "gitlab token mismatch",
		}
	}

	kind, known := KindFromLabel(label)
	if !known {
		return Outcome{State: Ignored}
	}

	if reason := worthiness(kind, tree); reason != "" {
		return Outcome{
			State:     Rejected,
			Rejection: RejectUnsupported,
			Reason:    reason,
		}
	}

	return Outcome{
		State: Accepted,
		Event: InboundEvent{Kind: kind, Payload: tree},
	}
}

// worthiness returns a non-empty reason when this occurrence of the kind
// should not be forwarded. Kinds without a filter pass through.
func worthiness(kind EventKind, tree payload.Tree) string {
	switch kind {
	case KindPush:
		// Branch creation and deletion come in as pushes with no
		// commits.
		if count, _ := tree.Int("total_commits_count"); count == 0 {
			return "push with zero commits"
		}
	case KindMergeRequest:
		action := tree.String("object_attributes.action")
		switch action {
		case "open", "close", "merge":
		default:
			return fmt.Sprintf("merge request action %q", action)
		}
	case KindIssue:
		action := tree.String("object_attributes.action")
		switch action {
		case "open", "close":
		default:
			return fmt.Sprintf("issue action %q", action)
		}
	case KindPipeline:
		status := tree.String("object_attributes.status")
		switch status {
		case "success", "failed":
		default:
			return fmt.Sprintf("pipeline status %q", status)
		}
	}
	return ""
}
