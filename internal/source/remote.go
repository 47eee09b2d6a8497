package source

import (
	"context"
	"fmt"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
)

// remoteTip queries the remote for the tip commit of ref without a checkout.
// Branches are preferred over tags when both share a short name. For
// annotated tags the peeled entry carries the commit, so it wins over the
// tag-object hash.
func remoteTip(ctx context.Context, remoteURL, ref string) (string, error) {
	remote := gogit.NewRemote(memory.NewStorage(), &gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{remoteURL},
	})

	refs, err := remote.ListContext(ctx, &gogit.ListOptions{
		PeelingOption: gogit.AppendPeeled,
	})
	if err != nil {
		return "", fmt.Errorf("failed to list remote references for %s: %w", remoteURL, err)
	}

	var tagHash, peeledTagHash string
	for _, r := range refs {
		if r.Type() == plumbing.SymbolicReference {
			continue
		}
		name := r.Name().String()
		switch {
		case name == "refs/heads/"+ref:
			return r.Hash().String(), nil
		case name == "refs/tags/"+ref+"^{}":
			peeledTagHash = r.Hash().String()
		case name == "refs/tags/"+ref:
			tagHash = r.Hash().String()
		case !strings.HasPrefix(name, "refs/"):
			// Some transports return the short name directly.
			if name == ref {
				tagHash = r.Hash().String()
			}
		}
	}
	if peeledTagHash != "" {
		return peeledTagHash, nil
	}
	if tagHash != "" {
		return tagHash, nil
	}
	return "", fmt.Errorf("ref %q not found on remote %s", ref, remoteURL)
}
