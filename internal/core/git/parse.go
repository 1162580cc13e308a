package git

import (
	"strconv"
	"strings"
)

// parseCommits parses rev-list output produced with
// --format=%h%x09%s. Each commit spans two lines: the standard
// "commit <hash>" header and the formatted body line.
func parseCommits(out string) []Commit {
	var commits []Commit
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}

		if hash, ok := strings.CutPrefix(line, "commit "); ok {
			commits = append(commits, Commit{Hash: strings.TrimSpace(hash)})
			continue
		}

		if len(commits) == 0 {
			continue
		}
		c := &commits[len(commits)-1]
		if c.Short != "" {
			continue
		}
		c.Short, c.Subject, _ = strings.Cut(line, "\t")
	}
	return commits
}

// parseNameStatus parses `diff --name-status` output into statuses.
// Lines that do not carry a tab-separated tag and path are skipped.
func parseNameStatus(out string) []Status {
	var statuses []Status
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		if st, ok := parseStatusLine(line); ok {
			statuses = append(statuses, st)
		}
	}
	return statuses
}

func parseStatusLine(line string) (Status, bool) {
	parts := strings.Split(line, "\t")
	if len(parts) < 2 || parts[0] == "" {
		return Status{}, false
	}

	tag := parts[0]
	st := Status{Code: tag[0]}
	if len(tag) > 1 {
		if score, err := strconv.Atoi(tag[1:]); err == nil {
			st.Score = score
		}
	}

	if st.IsRename() && len(parts) >= 3 {
		st.OldPath = parts[1]
		st.Path = parts[2]
		return st, true
	}

	st.Path = parts[1]
	return st, true
}

// parseCommitFiles parses `log --format=%H --name-status` output into
// per-commit change sets. Hash lines are bare 40-char hex; status lines
// always contain a tab, so the two cannot collide.
func parseCommitFiles(out string) map[string][]Status {
	files := make(map[string][]Status)
	var hash string

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		switch {
		case line == "":
		case isFullHash(line):
			hash = line
			if _, ok := files[hash]; !ok {
				files[hash] = nil
			}
		case hash != "":
			if st, ok := parseStatusLine(line); ok {
				files[hash] = append(files[hash], st)
			}
		}
	}
	return files
}

func isFullHash(s string) bool {
	if len(s) != 40 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
