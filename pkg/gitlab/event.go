// Package gitlab classifies inbound GitLab webhook events: it maps the
// free-form event header to a canonical kind, checks the shared secret,
// and decides whether a given occurrence is worth forwarding.
package gitlab

import (
	"strings"

	"gitcord/pkg/payload"
)

// EventKind is the canonical name of a GitLab webhook event, derived
// from the X-Gitlab-Event header by lower-casing and collapsing
// whitespace to underscores.
type EventKind string

// The closed set of event kinds this service understands.
const (
	KindPush         EventKind = "push_hook"
	KindTagPush      EventKind = "tag_push_hook"
	KindIssue        EventKind = "issue_hook"
	KindNote         EventKind = "note_hook"
	KindMergeRequest EventKind = "merge_request_hook"
	KindWikiPage     EventKind = "wiki_page_hook"
	KindPipeline     EventKind = "pipeline_hook"
	KindBuild        EventKind = "build_hook"
)

var knownKinds = map[EventKind]struct{}{
	KindPush:         {},
	KindTagPush:      {},
	KindIssue:        {},
	KindNote:         {},
	KindMergeRequest: {},
	KindWikiPage:     {},
	KindPipeline:     {},
	KindBuild:        {},
}

// NormalizeLabel canonicalizes an event label: "Merge Request Hook"
// becomes "merge_request_hook".
func NormalizeLabel(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(label))), "_")
}

// KindFromLabel resolves a label to a known kind. The second return is
// false for labels outside the closed enumeration.
func KindFromLabel(label string) (EventKind, bool) {
	kind := EventKind(NormalizeLabel(label))
	_, ok := knownKinds[kind]
	return kind, ok
}

// InboundEvent is one accepted webhook occurrence, handed to the embed
// builder. It is immutable and discarded after processing.
type InboundEvent struct {
	Kind    EventKind
	Payload payload.Tree
}
