package discord

import (
	"encoding/json"
	"strings"
	"testing"

	"gitcord/pkg/gitlab"
	"gitcord/pkg/payload"
)

const pushFixture = `{
	"ref": "refs/heads/master",
	"total_commits_count": 5,
	"user_name": "Testmaster",
	"user_username": "testmaster",
	"user_avatar": "http://example.com/testmaster.png",
	"project": {
		"name": "Project",
		"web_url": "https://gitlab.com/testmaster/project",
		"path_with_namespace": "testmaster/project",
		"avatar_url": "https://gitlab.com/testmaster/project/avatar.png"
	},
	"commits": [
		{"id": "679ac842ad4e77a9", "url": "https://gitlab.com/testmaster/project/commit/679ac842ad4e77a9", "message": "More fixes\n", "author": {"name": "Testmaster"}},
		{"id": "4528084858866822", "url": "https://gitlab.com/testmaster/project/commit/4528084858866822", "message": "Fixed stuff\n", "author": {"name": "Testmaster"}},
		{"id": "89e617d5b82ee14c", "url": "https://gitlab.com/testmaster/project/commit/89e617d5b82ee14c", "message": "Why is everything broken?\n", "author": {"name": "Testmaster"}},
		{"id": "df9eb9704fa4cf59", "url": "https://gitlab.com/testmaster/project/commit/df9eb9704fa4cf59", "message": "Added some stuff\n", "author": {"name": "Testmaster"}},
		{"id": "244a1db7f5de8052", "url": "https://gitlab.com/testmaster/project/commit/244a1db7f5de8052", "message": "Witty commit message\n", "author": {"name": "Testmaster"}}
	]
}`

func mrFixture(action, state string) string {
	return `{
		"user": {"name": "Testmaster", "username": "testmaster", "avatar_url": "http://example.com/testmaster.png"},
		"project": {
			"name": "Project",
			"web_url": "https://gitlab.com/testmaster/project",
			"path_with_namespace": "testmaster/project",
			"avatar_url": "https://gitlab.com/testmaster/project/avatar.png"
		},
		"object_attributes": {
			"iid": 4,
			"title": "Implement anti-cheat system",
			"description": "Add a anti-cheat system to keep those cheaters in check.\nAuto-ban included!",
			"url": "https://gitlab.com/testmaster/project/merge_requests/4",
			"created_at": "2018-06-19 12:28:46 UTC",
			"action": "` + action + `",
			"state": "` + state + `"
		}
	}`
}

func buildFixture(t *testing.T, kind gitlab.EventKind, raw string) Embed {
	t.Helper()
	tree, err := payload.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	embed, ok := Build(kind, tree)
	if !ok {
		t.Fatalf("expected a builder for kind %q", kind)
	}
	return embed
}

// TestBuildPush tests the push embed against the reference fixture.
func TestBuildPush(t *testing.T) {
	embed := buildFixture(t, gitlab.KindPush, pushFixture)

	if embed.Title != "Project - 5 new commits in master" {
		t.Fatalf("unexpected title %q", embed.Title)
	}
	if embed.Color != ColorInfo {
		t.Fatalf("expected info color, got %#x", embed.Color)
	}
	if embed.URL != "https://gitlab.com/testmaster/project" {
		t.Fatalf("unexpected url %q", embed.URL)
	}
	if embed.Author.Name != "Testmaster" || embed.Author.IconURL != "http://example.com/testmaster.png" {
		t.Fatalf("unexpected author %+v", embed.Author)
	}
	if embed.Footer.Text != "testmaster/project" {
		t.Fatalf("unexpected footer %+v", embed.Footer)
	}
	if embed.Timestamp != "" {
		t.Fatalf("push embeds carry no timestamp, got %q", embed.Timestamp)
	}

	wantDescription := strings.Join([]string{
		"[679ac842](https://gitlab.com/testmaster/project/commit/679ac842ad4e77a9) More fixes - **Testmaster**",
		"[45280848](https://gitlab.com/testmaster/project/commit/4528084858866822) Fixed stuff - **Testmaster**",
		"[89e617d5](https://gitlab.com/testmaster/project/commit/89e617d5b82ee14c) Why is everything broken? - **Testmaster**",
		"[df9eb970](https://gitlab.com/testmaster/project/commit/df9eb9704fa4cf59) Added some stuff - **Testmaster**",
		"[244a1db7](https://gitlab.com/testmaster/project/commit/244a1db7f5de8052) Witty commit message - **Testmaster**",
	}, "\n")
	if embed.Description != wantDescription {
		t.Fatalf("unexpected description:\nwant %q\ngot  %q", wantDescription, embed.Description)
	}
}

// TestBuildMergeRequest tests title, color, and description omission per
// merge request state.
func TestBuildMergeRequest(t *testing.T) {
	open := buildFixture(t, gitlab.KindMergeRequest, mrFixture("open", "opened"))
	if open.Title != "Project - Merge request opened: !4 Implement anti-cheat system" {
		t.Fatalf("unexpected open title %q", open.Title)
	}
	if open.Color != ColorInfo {
		t.Fatalf("expected info color for open, got %#x", open.Color)
	}
	if open.Description != "Add a anti-cheat system to keep those cheaters in check.\nAuto-ban included!" {
		t.Fatalf("expected request description verbatim, got %q", open.Description)
	}
	if open.Timestamp != "2018-06-19T12:28:46Z" {
		t.Fatalf("unexpected timestamp %q", open.Timestamp)
	}
	if open.URL != "https://gitlab.com/testmaster/project/merge_requests/4" {
		t.Fatalf("unexpected url %q", open.URL)
	}

	closed := buildFixture(t, gitlab.KindMergeRequest, mrFixture("close", "closed"))
	if closed.Title != "Project - Merge request closed: !4 Implement anti-cheat system" {
		t.Fatalf("unexpected closed title %q", closed.Title)
	}
	if closed.Color != ColorAlert {
		t.Fatalf("expected alert color for closed, got %#x", closed.Color)
	}
	if closed.Description != "" {
		t.Fatalf("expected no description for closed, got %q", closed.Description)
	}

	merged := buildFixture(t, gitlab.KindMergeRequest, mrFixture("merge", "merged"))
	if merged.Color != ColorGood {
		t.Fatalf("expected good color for merged, got %#x", merged.Color)
	}
	if merged.Description != "" {
		t.Fatalf("expected no description for merged, got %q", merged.Description)
	}
}

func issueFixture(state string) string {
	return `{
		"user": {"name": "Testmaster", "username": "testmaster", "avatar_url": "http://example.com/testmaster.png"},
		"project": {
			"name": "Project",
			"path_with_namespace": "testmaster/project",
			"avatar_url": "https://gitlab.com/testmaster/project/avatar.png"
		},
		"object_attributes": {
			"iid": 3,
			"title": "Anti cheat not working",
			"description": "Anti cheat system is not detecting cheaters\nPls fix!",
			"url": "https://gitlab.com/testmaster/project/issues/3",
			"created_at": "2018-06-19 12:28:46 UTC",
			"state": "` + state + `"
		}
	}`
}

// TestBuildIssue tests the issue embed for open and closed states.
func TestBuildIssue(t *testing.T) {
	open := buildFixture(t, gitlab.KindIssue, issueFixture("opened"))
	if open.Title != "Project - Issue opened: #3 Anti cheat not working" {
		t.Fatalf("unexpected open title %q", open.Title)
	}
	if open.Color != ColorInfo {
		t.Fatalf("expected info color, got %#x", open.Color)
	}
	if open.Description != "Anti cheat system is not detecting cheaters\nPls fix!" {
		t.Fatalf("unexpected description %q", open.Description)
	}

	closed := buildFixture(t, gitlab.KindIssue, issueFixture("closed"))
	if closed.Color != ColorGood {
		t.Fatalf("expected good color for closed, got %#x", closed.Color)
	}
	if closed.Description != "" {
		t.Fatalf("expected no description for closed issue, got %q", closed.Description)
	}
}

// TestBuildNote tests the comment embed, including noteable humanization.
func TestBuildNote(t *testing.T) {
	fixture := `{
		"user": {"name": "Testmaster", "avatar_url": "http://example.com/testmaster.png"},
		"project": {"name": "Project", "path_with_namespace": "testmaster/project"},
		"object_attributes": {
			"note": "Looks good to me!",
			"noteable_type": "MergeRequest",
			"url": "https://gitlab.com/testmaster/project/merge_requests/4#note_1",
			"created_at": "2018-06-19 12:28:46 UTC"
		}
	}`
	embed := buildFixture(t, gitlab.KindNote, fixture)
	if embed.Title != "Project - New comment on merge request" {
		t.Fatalf("unexpected title %q", embed.Title)
	}
	if embed.Description != "Looks good to me!" {
		t.Fatalf("unexpected description %q", embed.Description)
	}
	if embed.Color != ColorNote {
		t.Fatalf("expected note accent color, got %#x", embed.Color)
	}
}

func pipelineFixture(status, detailed string) string {
	return `{
		"user": {"name": "Testmaster", "avatar_url": "http://example.com/testmaster.png"},
		"project": {
			"name": "Project",
			"path_with_namespace": "testmaster/project",
			"avatar_url": "https://gitlab.com/testmaster/project/avatar.png"
		},
		"commit": {"url": "https://gitlab.com/testmaster/project/commit/679ac842ad4e77a9"},
		"object_attributes": {
			"id": 12345678,
			"ref": "master",
			"status": "` + status + `",
			"detailed_status": "` + detailed + `",
			"created_at": "2018-06-19 12:28:46 UTC"
		}
	}`
}

// TestBuildPipeline tests the pipeline embed for both final states.
func TestBuildPipeline(t *testing.T) {
	success := buildFixture(t, gitlab.KindPipeline, pipelineFixture("success", "passed"))
	if success.Title != "Project - Pipeline for master passed (12345678)" {
		t.Fatalf("unexpected title %q", success.Title)
	}
	if success.Color != ColorGood {
		t.Fatalf("expected good color, got %#x", success.Color)
	}
	if success.URL != "https://gitlab.com/testmaster/project/commit/679ac842ad4e77a9" {
		t.Fatalf("expected triggering commit url, got %q", success.URL)
	}

	failed := buildFixture(t, gitlab.KindPipeline, pipelineFixture("failed", "failed"))
	if failed.Title != "Project - Pipeline for master failed (12345678)" {
		t.Fatalf("unexpected title %q", failed.Title)
	}
	if failed.Color != ColorBad {
		t.Fatalf("expected bad color, got %#x", failed.Color)
	}
}

// TestBuildUnhandledKinds tests that kinds without a builder produce no
// embed.
func TestBuildUnhandledKinds(t *testing.T) {
	tree, err := payload.Parse([]byte(`{}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, kind := range []gitlab.EventKind{gitlab.KindTagPush, gitlab.KindWikiPage, gitlab.KindBuild} {
		if _, ok := Build(kind, tree); ok {
			t.Fatalf("expected no builder for %q", kind)
		}
	}
}

// TestEmbedJSONShape tests that absent optional fields are omitted from
// the wire JSON rather than serialized as null.
func TestEmbedJSONShape(t *testing.T) {
	embed := buildFixture(t, gitlab.KindMergeRequest, mrFixture("close", "closed"))

	raw, err := json.Marshal(embed)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var object map[string]interface{}
	if err := json.Unmarshal(raw, &object); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if _, present := object["description"]; present {
		t.Fatalf("expected description to be omitted, got %s", raw)
	}
	if _, present := object["timestamp"]; !present {
		t.Fatalf("expected timestamp, got %s", raw)
	}
	author, ok := object["author"].(map[string]interface{})
	if !ok || author["icon_url"] != "http://example.com/testmaster.png" {
		t.Fatalf("unexpected author json %s", raw)
	}
	if _, ok := object["color"].(float64); !ok {
		t.Fatalf("expected integer color, got %s", raw)
	}
}

// TestTruncate tests rune-safe budget truncation.
func TestTruncate(t *testing.T) {
	if got := Truncate("short", 256); got != "short" {
		t.Fatalf("expected pass-through, got %q", got)
	}

	long := strings.Repeat("ü", 300)
	got := Truncate(long, 256)
	runes := []rune(got)
	if len(runes) != 256 {
		t.Fatalf("expected 256 runes, got %d", len(runes))
	}
	if runes[len(runes)-1] != '…' {
		t.Fatalf("expected ellipsis marker, got %q", string(runes[len(runes)-1]))
	}
	for _, r := range runes[:len(runes)-1] {
		if r != 'ü' {
			t.Fatalf("multi-byte character was split: %q", string(r))
		}
	}
}
