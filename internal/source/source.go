// Package source materializes component sources into per-component
// workspace directories. Filesystem sources are used in place or copied;
// version-control sources are resolved to an exact commit, cloned and
// checked out via go-git.
package source

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/bundlepacker/internal/config"
	"git.home.luguber.info/inful/bundlepacker/internal/fsutil"
	"git.home.luguber.info/inful/bundlepacker/internal/logfields"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Resolved is a materialized component source.
type Resolved struct {
	Dir    string // workspace directory holding the source tree
	Commit string // resolved commit hash for version-control sources, else empty
}

// Resolver materializes sources. The zero value is usable.
type Resolver struct{}

// NewResolver creates a source resolver.
func NewResolver() *Resolver { return &Resolver{} }

// ResolveCommit returns the exact commit a git source pins to, querying the
// remote tip of the source's ref (default "master") when no commit is given.
// The returned hash is the single pin used for both version assignment and
// the later checkout, so a ref moving between query and clone cannot split
// the two.
func (r *Resolver) ResolveCommit(ctx context.Context, src *config.Source) (string, error) {
	if src.Kind() != config.SourceGit {
		return "", fmt.Errorf("commit resolution requires a git source, got %s", src)
	}
	if src.Commit != "" {
		return src.Commit, nil
	}
	ref := src.Ref
	if ref == "" {
		ref = "master"
	}
	commit, err := remoteTip(ctx, src.Git, ref)
	if err != nil {
		return "", err
	}
	slog.Debug("Resolved remote tip", logfields.URL(src.Git), logfields.Ref(ref), logfields.Commit(commit))
	return commit, nil
}

// Resolve materializes the source for component id into workDir.
//
// Filesystem sources are returned in place unless isolate is set; isolation
// copies the tree into workDir so that the re-versioning step cannot mutate
// the user's checkout. Git sources are cloned into workDir and pinned to
// commit (which must have been resolved via ResolveCommit beforehand when
// absent from the source).
func (r *Resolver) Resolve(ctx context.Context, id string, src *config.Source, workDir string, isolate bool) (*Resolved, error) {
	switch src.Kind() {
	case config.SourceFilesystem:
		slog.Info("Will checkout from local directory", logfields.Component(id), logfields.Path(src.Dir))
		if !isolate {
			return &Resolved{Dir: src.Dir}, nil
		}
		if err := fsutil.CopyTree(src.Dir, workDir); err != nil {
			return nil, &ResolutionError{ID: id, Op: "copy", Err: err}
		}
		return &Resolved{Dir: workDir}, nil

	case config.SourceGit:
		slog.Info("Will checkout from git", logfields.Component(id), logfields.URL(src.Git))
		commit, err := r.ResolveCommit(ctx, src)
		if err != nil {
			return nil, &ResolutionError{ID: id, Op: "resolve-ref", Err: err}
		}
		if err := r.checkout(ctx, src, commit, workDir); err != nil {
			return nil, &ResolutionError{ID: id, Op: "checkout", Err: err}
		}
		slog.Info("Checked out", logfields.Component(id), logfields.Commit(commit))
		return &Resolved{Dir: workDir, Commit: commit}, nil

	default:
		return nil, &UnsupportedSourceError{ID: id, Source: src}
	}
}

// checkout clones the remote into workDir and pins the worktree to commit.
// The ref checkout is best-effort staging before the precise commit pin.
func (r *Resolver) checkout(ctx context.Context, src *config.Source, commit, workDir string) error {
	repo, err := gogit.PlainCloneContext(ctx, workDir, false, &gogit.CloneOptions{
		URL: src.Git,
	})
	if err != nil {
		return classifyCloneError(src.Git, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	if src.Ref != "" {
		branchErr := worktree.Checkout(&gogit.CheckoutOptions{
			Branch: plumbing.NewBranchReferenceName(src.Ref),
		})
		if branchErr != nil {
			slog.Debug("Ref checkout failed, pinning commit directly", logfields.Ref(src.Ref), logfields.Error(branchErr))
		}
	}

	// Not every transport advertises peeled tag refs; a hash naming an
	// annotated tag object must be peeled to its commit before checkout.
	hash := plumbing.NewHash(commit)
	if tag, tagErr := repo.TagObject(hash); tagErr == nil {
		hash = tag.Target
	}

	if err := worktree.Checkout(&gogit.CheckoutOptions{
		Hash: hash,
	}); err != nil {
		return fmt.Errorf("failed to checkout commit %s: %w", commit, err)
	}
	return nil
}
