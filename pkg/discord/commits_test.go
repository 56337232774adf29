package discord

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"gitcord/pkg/payload"
)

func syntheticCommits(n int) []Commit {
	commits := make([]Commit, 0, n)
	for i := 0; i < n; i++ {
		commits = append(commits, Commit{
			ShortID:    fmt.Sprintf("%08d", i),
			URL:        fmt.Sprintf("https://gitlab.com/testmaster/project/commit/%08d", i),
			FirstLine:  "Just a test commit",
			AuthorName: "Testmaster",
		})
	}
	return commits
}

// TestCommitLine tests the single-line commit format.
func TestCommitLine(t *testing.T) {
	commit := Commit{
		ShortID:    "679ac842",
		URL:        "https://gitlab.com/testmaster/project/commit/679ac842ad4e77a9",
		FirstLine:  "More fixes",
		AuthorName: "Testmaster",
	}
	want := "[679ac842](https://gitlab.com/testmaster/project/commit/679ac842ad4e77a9) More fixes - **Testmaster**"
	if got := CommitLine(commit); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

// TestCommitFromTree tests extraction from a payload commit entry.
func TestCommitFromTree(t *testing.T) {
	tree, err := payload.Parse([]byte(`{
		"id": "679ac842ad4e77a9deadbeef",
		"url": "https://gitlab.com/testmaster/project/commit/679ac842ad4e77a9",
		"message": "More fixes\n\nLonger explanation here.\n",
		"author": {"name": "Testmaster"}
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	commit := CommitFromTree(tree)
	if commit.ShortID != "679ac842" {
		t.Fatalf("expected 8-char short id, got %q", commit.ShortID)
	}
	if commit.FirstLine != "More fixes" {
		t.Fatalf("expected first message line, got %q", commit.FirstLine)
	}
	if commit.AuthorName != "Testmaster" {
		t.Fatalf("expected author name, got %q", commit.AuthorName)
	}
}

// TestPackCommitsShortInput tests that short inputs pass through whole,
// in original order.
func TestPackCommitsShortInput(t *testing.T) {
	commits := syntheticCommits(5)
	lines := make([]string, 0, len(commits))
	for _, commit := range commits {
		lines = append(lines, CommitLine(commit))
	}
	want := strings.Join(lines, "\n")

	if got := PackCommits(commits); got != want {
		t.Fatalf("expected full join for short input:\nwant %q\ngot  %q", want, got)
	}
}

// TestPackCommitsBudget tests that output never exceeds the description
// budget, for any input size.
func TestPackCommitsBudget(t *testing.T) {
	for _, n := range []int{0, 1, 20, 1000} {
		packed := PackCommits(syntheticCommits(n))
		if size := utf8.RuneCountInString(packed); size > DescriptionMax {
			t.Fatalf("%d commits: packed length %d exceeds budget", n, size)
		}
	}
}

// TestPackCommitsPrefix tests that packing keeps a strict prefix of the
// input lines and drops the rest.
func TestPackCommitsPrefix(t *testing.T) {
	commits := syntheticCommits(40)
	line := CommitLine(commits[0])
	perLine := utf8.RuneCountInString(line) + 1
	expectFit := DescriptionMax / perLine

	packed := PackCommits(commits)
	got := strings.Split(packed, "\n")
	if len(got) != expectFit {
		t.Fatalf("expected %d lines to fit, got %d", expectFit, len(got))
	}
	for i, gotLine := range got {
		if want := CommitLine(commits[i]); gotLine != want {
			t.Fatalf("line %d is not the input prefix:\nwant %q\ngot  %q", i, want, gotLine)
		}
	}
	if strings.Contains(packed, CommitLine(commits[expectFit])) {
		t.Fatalf("expected commit %d and beyond to be dropped", expectFit)
	}
}

// TestPackCommitsEmpty tests the zero-commit edge.
func TestPackCommitsEmpty(t *testing.T) {
	if got := PackCommits(nil); got != "" {
		t.Fatalf("expected empty pack, got %q", got)
	}
}
