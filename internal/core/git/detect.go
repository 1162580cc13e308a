package git

import "context"

// baseCandidates are tried in order when no explicit base is given.
// Origin refs win over same-named local branches so review targets
// what the team sees, not a stale local main.
var baseCandidates = []string{"origin/main", "origin/master", "main", "master"}

// DetectBase resolves the ref a branch should be reviewed against.
// The origin HEAD symbolic ref is authoritative when set; otherwise
// well-known branch names are probed. Returns ErrNoBase when nothing
// resolves.
func DetectBase(ctx context.Context, g Git, dir string) (string, error) {
	if ref, err := g.SymbolicRef(ctx, dir, "refs/remotes/origin/HEAD"); err == nil && ref != "" {
		return ref, nil
	}

	for _, name := range baseCandidates {
		if g.RefExists(ctx, dir, name) {
			return name, nil
		}
	}
	return "", ErrNoBase
}
