package git

import "strings"

// ExtractOwnerRepo parses a git remote URL into its owner and repository
// name. Both ssh (git@host:owner/repo.git) and https forms are handled;
// for nested groups the last two path segments win. Unparseable remotes
// return empty strings.
func ExtractOwnerRepo(remote string) (owner, repo string) {
	path := remote

	switch {
	case strings.Contains(path, "://"):
		idx := strings.Index(path, "://")
		path = path[idx+3:]
		slash := strings.Index(path, "/")
		if slash == -1 {
			return "", ""
		}
		path = path[slash+1:]
	case strings.Contains(path, ":") && strings.Contains(path[:strings.Index(path, ":")], "@"):
		path = path[strings.Index(path, ":")+1:]
	default:
		return "", ""
	}

	path = strings.TrimSuffix(path, ".git")
	path = strings.Trim(path, "/")

	parts := strings.Split(path, "/")
	if len(parts) < 2 {
		return "", ""
	}
	return parts[len(parts)-2], parts[len(parts)-1]
}

// ExtractRepoName returns just the repository name from a remote URL.
func ExtractRepoName(remote string) string {
	_, repo := ExtractOwnerRepo(remote)
	return repo
}
