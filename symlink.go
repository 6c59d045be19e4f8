package fspath

import "context"

// MaxSymlinkHops bounds the number of links ResolveSymlinks follows.
const MaxSymlinkHops = 16

// SymlinkTarget returns the immediate target of the link p. It returns the
// empty path and a nil error when p exists but is not a link.
func (p FilePath) SymlinkTarget(ctx context.Context) (FilePath, error) {
	return p.device(ctx).SymlinkTarget(ctx, p)
}

// ResolveSymlinks follows symbolic links starting at p for at most
// MaxSymlinkHops steps and returns the last path reached. A dangling link
// resolves to its (missing) target; a cycle stops at the hop limit.
func (p FilePath) ResolveSymlinks(ctx context.Context) FilePath {
	current := p
	for range MaxSymlinkHops {
		target, err := current.SymlinkTarget(ctx)
		if err != nil || target.IsEmpty() {
			break
		}
		current = target
	}
	return current
}
