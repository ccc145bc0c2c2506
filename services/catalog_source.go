package services

import (
	"context"
	"io/fs"
	"log/slog"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/pkg/errors"
)

// CatalogSource provides the descriptor tree. The returned cleanup must be called once the tree is no longer needed.
type CatalogSource interface {
	Open(ctx context.Context) (fs.FS, func(), error)
}

type FSCatalogSource struct {
	FS fs.FS
}

func NewDirCatalogSource(dir string) FSCatalogSource {
	return FSCatalogSource{FS: os.DirFS(dir)}
}

func (s FSCatalogSource) Open(context.Context) (fs.FS, func(), error) {
	return s.FS, func() {}, nil
}

// GitCatalogSource shallow clones a repository into a temporary directory.
type GitCatalogSource struct {
	URL string
}

func NewGitCatalogSource(url string) GitCatalogSource {
	return GitCatalogSource{URL: url}
}

func (s GitCatalogSource) Open(ctx context.Context) (fs.FS, func(), error) {
	dir, err := os.MkdirTemp("", "imagecatalog-os-release")
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not create temporary directory")
	}
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			slog.Warn("could not remove catalog checkout", "dir", dir, "err", err)
		}
	}

	slog.Info("cloning catalog repository", "url", s.URL)
	_, err = git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:          s.URL,
		Depth:        1,
		SingleBranch: true,
		Tags:         git.NoTags,
	})
	if err != nil {
		cleanup()
		return nil, nil, errors.Wrapf(err, "could not clone %s", s.URL)
	}
	return os.DirFS(dir), cleanup, nil
}
