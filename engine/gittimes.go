package engine

import (
	"bufio"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// gitDateLayout matches the default "Date:" line of git log.
const gitDateLayout = "Mon Jan _2 15:04:05 2006 -0700"

type Commit struct {
	Hash    string
	Author  string
	Date    string
	Message string
}

// History looks up the commits touching a file, newest first. An empty
// result means the file is not tracked.
type History interface {
	Blame(path string) ([]Commit, error)
}

// GitHistory runs `git log --follow` in the directory of the file.
type GitHistory struct{}

func (GitHistory) Blame(path string) ([]Commit, error) {
	cmd := exec.Command("git", "log", "--follow", filepath.Base(path))
	cmd.Dir = filepath.Dir(path)
	out, err := cmd.Output()
	if err != nil {
		// not a repository, or git is missing
		return nil, err
	}
	return parseCommits(string(out)), nil
}

// NoHistory treats every file as new.
type NoHistory struct{}

func (NoHistory) Blame(string) ([]Commit, error) { return nil, nil }

func parseCommits(out string) []Commit {
	var (
		commits []Commit
		cur     Commit
	)
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		l := sc.Text()
		switch {
		case strings.HasPrefix(l, "commit"):
			cur.Hash = restAfterSpace(l)
		case strings.HasPrefix(l, "Author: "):
			cur.Author = restAfterSpace(l)
		case strings.HasPrefix(l, "Date: "):
			cur.Date = restAfterSpace(l)
		case l == "":
			var msg strings.Builder
			for sc.Scan() {
				next := sc.Text()
				if next == "" {
					break
				}
				msg.WriteString(strings.TrimSpace(next))
			}
			cur.Message = msg.String()
			commits = append(commits, cur)
			cur = Commit{}
		}
	}
	return commits
}

func restAfterSpace(s string) string {
	_, rest, ok := strings.Cut(s, " ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(rest)
}

func parseGitDate(s string) (time.Time, bool) {
	t, err := time.Parse(gitDateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ModificationTime is the date of the newest commit, or now when there is no
// history.
func ModificationTime(commits []Commit, now time.Time) time.Time {
	if len(commits) == 0 {
		return now
	}
	if t, ok := parseGitDate(commits[0].Date); ok {
		return t
	}
	return now
}

// CreationTime is the date of the oldest commit, or now when there is no
// history.
func CreationTime(commits []Commit, now time.Time) time.Time {
	if len(commits) == 0 {
		return now
	}
	if t, ok := parseGitDate(commits[len(commits)-1].Date); ok {
		return t
	}
	return now
}
