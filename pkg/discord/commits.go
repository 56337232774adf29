package discord

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"gitcord/pkg/payload"
)

// Commit is the slice of a payload commit entry the formatter needs.
type Commit struct {
	ShortID    string
	URL        string
	FirstLine  string
	AuthorName string
}

// CommitFromTree extracts a Commit from one payload commit entry. The
// short id is the first 8 characters of the commit identifier; the first
// line of the message has its trailing newline stripped.
func CommitFromTree(tree payload.Tree) Commit {
	id := tree.String("id")
	if len(id) > 8 {
		id = id[:8]
	}
	message := tree.String("message")
	firstLine, _, _ := strings.Cut(message, "\n")
	return Commit{
		ShortID:    id,
		URL:        tree.String("url"),
		FirstLine:  strings.TrimRight(firstLine, "\r"),
		AuthorName: tree.String("author.name"),
	}
}

// CommitLine renders one commit as a single markdown line.
func CommitLine(commit Commit) string {
	return fmt.Sprintf("[%s](%s) %s - **%s**", commit.ShortID, commit.URL, commit.FirstLine, commit.AuthorName)
}

// PackCommits joins commit lines in their original order, keeping the
// longest prefix whose total length, counting a one-character newline
// separator per line, stays within the description budget. The first
// commit that would overflow, and everything after it, is dropped.
func PackCommits(commits []Commit) string {
	var lines []string
	total := 0
	for _, commit := range commits {
		line := CommitLine(commit)
		if total+utf8.RuneCountInString(line)+1 > DescriptionMax {
			break
		}
		total += utf8.RuneCountInString(line) + 1
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
