// Package gitfs provides a read-only fspath.Device over the committed trees
// of git repositories.
//
// The host of a path names the repository and, optionally, the revision to
// read, separated by '@'. Any revision git understands works: branches, tags,
// abbreviated hashes and expressions such as "HEAD~2".
//
//	git://app/go.mod             go.mod of app at HEAD
//	git://v1.4.0@app/go.mod      go.mod of app at tag v1.4.0
//	git://main~1@app/cmd/        directory cmd of app one commit before main
//
// Usage:
//
//	dev := gitfs.NewLocal("git", "/srv/repos")
//	if err := fspath.Default().Register(dev); err != nil {
//	    return err
//	}
//
//	data, err := fspath.FromString("git://v1.4.0@app/go.mod").ReadContents(ctx)
//
// Every entry reports the commit time of its revision as its modification
// time. Symbolic links resolve inside the same revision. Operations that
// modify the tree fail with an error matching fspath.ErrNotSupported, so
// copying out of a revision works while copying into one does not.
package gitfs
