package discord

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"gitcord/pkg/gitlab"
	"gitcord/pkg/payload"
)

// Build maps one accepted event to an embed. Kinds without a builder
// (tag pushes, wiki pages, builds) return ok=false and produce no
// notification. Builders never fail on malformed or missing payload
// fields; the corresponding embed field is simply omitted.
func Build(kind gitlab.EventKind, tree payload.Tree) (Embed, bool) {
	switch kind {
	case gitlab.KindPush:
		return buildPush(tree), true
	case gitlab.KindMergeRequest:
		return buildMergeRequest(tree), true
	case gitlab.KindIssue:
		return buildIssue(tree), true
	case gitlab.KindNote:
		return buildNote(tree), true
	case gitlab.KindPipeline:
		return buildPipeline(tree), true
	default:
		return Embed{}, false
	}
}

func buildPush(tree payload.Tree) Embed {
	count, _ := tree.Int("total_commits_count")
	branch := lastSegment(tree.String("ref"))

	commits := make([]Commit, 0)
	for _, entry := range tree.Slice("commits") {
		commits = append(commits, CommitFromTree(entry))
	}

	name := tree.String("user_name")
	if name == "" {
		name = tree.String("user_username")
	}

	return Embed{
		Author:      author(name, tree.String("user_avatar")),
		Title:       title(tree, fmt.Sprintf("%d new commits in %s", count, branch)),
		URL:         tree.String("project.web_url"),
		Description: PackCommits(commits),
		Color:       ColorInfo,
		Footer:      footer(tree),
	}
}

func buildMergeRequest(tree payload.Tree) Embed {
	mr := tree.Sub("object_attributes")
	state := mr.String("state")
	iid, _ := mr.Int("iid")

	embed := Embed{
		Author:    eventAuthor(tree),
		Title:     title(tree, fmt.Sprintf("Merge request %s: !%d %s", state, iid, mr.String("title"))),
		URL:       mr.String("url"),
		Color:     ColorInfo,
		Footer:    footer(tree),
		Timestamp: isoTimestamp(mr.String("created_at")),
	}
	switch state {
	case "closed":
		embed.Color = ColorAlert
	case "merged":
		embed.Color = ColorGood
	default:
		embed.Description = Truncate(mr.String("description"), DescriptionMax)
	}
	return embed
}

func buildIssue(tree payload.Tree) Embed {
	issue := tree.Sub("object_attributes")
	state := issue.String("state")
	iid, _ := issue.Int("iid")

	embed := Embed{
		Author:    eventAuthor(tree),
		Title:     title(tree, fmt.Sprintf("Issue %s: #%d %s", state, iid, issue.String("title"))),
		URL:       issue.String("url"),
		Color:     ColorInfo,
		Footer:    footer(tree),
		Timestamp: isoTimestamp(issue.String("created_at")),
	}
	if state == "closed" {
		embed.Color = ColorGood
	} else {
		embed.Description = Truncate(issue.String("description"), DescriptionMax)
	}
	return embed
}

func buildNote(tree payload.Tree) Embed {
	comment := tree.Sub("object_attributes")

	return Embed{
		Author:      eventAuthor(tree),
		Title:       title(tree, "New comment on "+humanize(comment.String("noteable_type"))),
		URL:         comment.String("url"),
		Description: Truncate(comment.String("note"), DescriptionMax),
		Color:       ColorNote,
		Footer:      footer(tree),
		Timestamp:   isoTimestamp(comment.String("created_at")),
	}
}

func buildPipeline(tree payload.Tree) Embed {
	pipeline := tree.Sub("object_attributes")
	id, _ := pipeline.Int("id")

	embed := Embed{
		Author: eventAuthor(tree),
		Title: title(tree, fmt.Sprintf("Pipeline for %s %s (%d)",
			pipeline.String("ref"), pipeline.String("detailed_status"), id)),
		URL:       tree.String("commit.url"),
		Color:     ColorInfo,
		Footer:    footer(tree),
		Timestamp: isoTimestamp(pipeline.String("created_at")),
	}
	switch pipeline.String("status") {
	case "success":
		embed.Color = ColorGood
	case "failed":
		embed.Color = ColorBad
	}
	return embed
}

// title prefixes the project display name and bounds the result.
func title(tree payload.Tree, rest string) string {
	project := tree.String("project.name")
	if project == "" {
		return Truncate(rest, TitleMax)
	}
	return Truncate(project+" - "+rest, TitleMax)
}

func author(name, icon string) Author {
	return Author{Name: Truncate(name, AuthorMax), IconURL: icon}
}

// eventAuthor reads the nested user object used by every kind except
// pushes.
func eventAuthor(tree payload.Tree) Author {
	name := tree.String("user.name")
	if name == "" {
		name = tree.String("user.username")
	}
	return author(name, tree.String("user.avatar_url"))
}

func footer(tree payload.Tree) Footer {
	return Footer{
		Text:    Truncate(tree.String("project.path_with_namespace"), FooterMax),
		IconURL: tree.String("project.avatar_url"),
	}
}

func lastSegment(ref string) string {
	if ref == "" {
		return ""
	}
	parts := strings.Split(ref, "/")
	return parts[len(parts)-1]
}

// createdAtLayouts covers the timestamp formats GitLab has shipped in
// webhook payloads.
var createdAtLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05 -0700",
}

// isoTimestamp converts a payload timestamp to ISO-8601, or "" when the
// value is absent or unparseable.
func isoTimestamp(value string) string {
	if value == "" {
		return ""
	}
	for _, layout := range createdAtLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC().Format(time.RFC3339)
		}
	}
	return ""
}

// humanize turns a noteable type like "MergeRequest" into
// "merge request".
func humanize(camel string) string {
	var b strings.Builder
	for i, r := range camel {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteRune(' ')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
