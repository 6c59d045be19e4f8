// Package ghfs provides an fspath.Device backed by the GitHub repository
// contents API.
//
// The host of a path is the repository owner, optionally prefixed by a
// branch, tag or commit and '@'. The first path element is the repository:
//
//	github://jmgilman/go/README.md          README.md on the default branch
//	github://v0.2.0@jmgilman/go/go.mod      go.mod at tag v0.2.0
//	github://jmgilman/                      the owner's repositories
//
// Usage:
//
//	dev, err := ghfs.New(ghfs.Config{Token: os.Getenv("GITHUB_TOKEN")})
//	if err != nil {
//	    return err
//	}
//	if err := fspath.Default().Register(dev); err != nil {
//	    return err
//	}
//
// Every write or removal is a commit on the branch named by the path, or on
// the default branch when the path names none. Removing a directory
// recursively commits once per file. Git cannot hold empty directories, so
// directories appear when the first file below them is written.
//
// GitHub Enterprise servers are reached by setting Config.BaseURL.
package ghfs
