// Package git is the repository collaborator of the release pipeline: it reads
// tags and history and writes the release commit and tag.
package git

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	giturl "github.com/kubescape/go-git-url"

	"github.com/rohankatakam/semrel/internal/commits"
	"github.com/rohankatakam/semrel/internal/errors"
	"github.com/rohankatakam/semrel/internal/version"
)

// DefaultRemote is the remote pushed to when none is configured.
const DefaultRemote = "origin"

// Repository is an opened working tree.
type Repository struct {
	repo      *git.Repository
	root      string
	remote    string
	committer *object.Signature
}

// Open opens the repository containing path.
func Open(path, remote string) (*Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, errors.RepositoryErrorf(err, "not a git repository: %s", path)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, errors.RepositoryError(err, "bare repositories are not supported")
	}

	if remote == "" {
		remote = DefaultRemote
	}
	return &Repository{repo: repo, root: wt.Filesystem.Root(), remote: remote}, nil
}

// Root is the top-level directory of the working tree.
func (r *Repository) Root() string {
	return r.root
}

// CurrentBranch returns the short name of the checked out branch.
func (r *Repository) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", errors.RepositoryError(err, "cannot resolve HEAD")
	}
	if !head.Name().IsBranch() {
		return "", errors.RepositoryErrorf(nil, "HEAD is detached at %s", head.Hash().String()[:7])
	}
	return head.Name().Short(), nil
}

// LatestRelease returns the highest version among the release tags and the
// tag name it came from. ok is false when the repository has no release tag.
// Pre-release tags are ignored.
func (r *Repository) LatestRelease() (v version.Version, tag string, ok bool, err error) {
	refs, err := r.repo.Tags()
	if err != nil {
		return v, "", false, errors.RepositoryError(err, "cannot list tags")
	}

	var best *semver.Version
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		sv, perr := semver.NewVersion(name)
		if perr != nil || sv.Prerelease() != "" {
			return nil
		}
		if best == nil || sv.GreaterThan(best) {
			best, tag = sv, name
		}
		return nil
	})
	if err != nil {
		return v, "", false, errors.RepositoryError(err, "cannot list tags")
	}
	if best == nil {
		return v, "", false, nil
	}

	return version.Version{Major: best.Major(), Minor: best.Minor(), Patch: best.Patch()}, tag, true, nil
}

func (r *Repository) tagCommit(tag string) (plumbing.Hash, error) {
	ref, err := r.repo.Tag(tag)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	obj, err := r.repo.TagObject(ref.Hash())
	switch {
	case err == nil:
		c, err := obj.Commit()
		if err != nil {
			return plumbing.ZeroHash, err
		}
		return c.Hash, nil
	case stderrors.Is(err, plumbing.ErrObjectNotFound):
		// lightweight tag
		return ref.Hash(), nil
	default:
		return plumbing.ZeroHash, err
	}
}

// CommitsSince lists the commits reachable from HEAD but not from tag, newest
// first. An empty tag lists the whole history.
func (r *Repository) CommitsSince(tag string) ([]commits.Commit, error) {
	head, err := r.repo.Head()
	if err != nil {
		return nil, errors.RepositoryError(err, "cannot resolve HEAD")
	}

	released := make(map[plumbing.Hash]struct{})
	if tag != "" {
		from, err := r.tagCommit(tag)
		if err != nil {
			return nil, errors.RepositoryErrorf(err, "cannot resolve tag %s", tag)
		}
		iter, err := r.repo.Log(&git.LogOptions{From: from})
		if err != nil {
			return nil, errors.RepositoryErrorf(err, "cannot read history of %s", tag)
		}
		err = iter.ForEach(func(c *object.Commit) error {
			released[c.Hash] = struct{}{}
			return nil
		})
		if err != nil {
			return nil, errors.RepositoryErrorf(err, "cannot read history of %s", tag)
		}
	}

	iter, err := r.repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, errors.RepositoryError(err, "cannot read commit log")
	}

	var out []commits.Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if _, ok := released[c.Hash]; ok {
			return nil
		}
		out = append(out, commits.Commit{Hash: c.Hash.String(), Message: c.Message})
		return nil
	})
	if err != nil {
		return nil, errors.RepositoryError(err, "cannot read commit log")
	}
	return out, nil
}

// Signature resolves the committer identity from GIT_COMMITTER_NAME and
// GIT_COMMITTER_EMAIL, falling back to the user section of git config
// (local, then global, then system).
func (r *Repository) Signature() (*object.Signature, error) {
	name := os.Getenv("GIT_COMMITTER_NAME")
	email := os.Getenv("GIT_COMMITTER_EMAIL")

	if name == "" || email == "" {
		cfg, err := r.repo.ConfigScoped(config.SystemScope)
		if err == nil {
			if name == "" {
				name = cfg.User.Name
			}
			if email == "" {
				email = cfg.User.Email
			}
		}
	}

	if name == "" || email == "" {
		return nil, errors.ConfigError("committer identity is not configured: set GIT_COMMITTER_NAME and GIT_COMMITTER_EMAIL or user.name and user.email")
	}
	return &object.Signature{Name: name, Email: email, When: time.Now()}, nil
}

// UseCommitter fixes the identity of release commits and tags to a
// "name <email>" string instead of resolving it on every write.
func (r *Repository) UseCommitter(identity string) error {
	var sig object.Signature
	sig.Decode([]byte(identity))
	if sig.Name == "" || sig.Email == "" {
		return errors.ConfigErrorf("invalid committer identity %q: want \"name <email>\"", identity)
	}
	r.committer = &sig
	return nil
}

func (r *Repository) identity() (*object.Signature, error) {
	if r.committer == nil {
		return r.Signature()
	}
	sig := *r.committer
	sig.When = time.Now()
	return &sig, nil
}

// Commit stages paths (relative to the root) and commits them.
func (r *Repository) Commit(message string, paths ...string) (string, error) {
	sig, err := r.identity()
	if err != nil {
		return "", err
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return "", errors.RepositoryError(err, "cannot open worktree")
	}
	for _, p := range paths {
		if _, err := wt.Add(p); err != nil {
			return "", errors.RepositoryErrorf(err, "cannot stage %s", p)
		}
	}

	hash, err := wt.Commit(message, &git.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		return "", errors.RepositoryError(err, "cannot create commit")
	}
	return hash.String(), nil
}

// Tag creates an annotated tag on HEAD.
func (r *Repository) Tag(name, message string) error {
	sig, err := r.identity()
	if err != nil {
		return err
	}
	head, err := r.repo.Head()
	if err != nil {
		return errors.RepositoryError(err, "cannot resolve HEAD")
	}
	if strings.TrimSpace(message) == "" {
		message = name
	}

	if _, err := r.repo.CreateTag(name, head.Hash(), &git.CreateTagOptions{
		Tagger:  sig,
		Message: message,
	}); err != nil {
		return errors.RepositoryErrorf(err, "cannot create tag %s", name)
	}
	return nil
}

// Push sends HEAD to branch on the remote, along with tag. HEAD may be
// detached, as in most CI checkouts. token authenticates http(s) remotes;
// other transports use their own credentials.
func (r *Repository) Push(ctx context.Context, branch, tag, token string) error {
	head, err := r.repo.Head()
	if err != nil {
		return errors.RepositoryError(err, "cannot resolve HEAD")
	}
	specs := []config.RefSpec{
		config.RefSpec(fmt.Sprintf("%s:refs/heads/%s", head.Hash(), branch)),
	}
	if tag != "" {
		specs = append(specs, config.RefSpec(fmt.Sprintf("refs/tags/%s:refs/tags/%s", tag, tag)))
	}

	opts := &git.PushOptions{RemoteName: r.remote, RefSpecs: specs}
	if url, err := r.RemoteURL(); err == nil && token != "" && strings.HasPrefix(url, "http") {
		opts.Auth = &http.BasicAuth{Username: "x-access-token", Password: token}
	}

	err = r.repo.PushContext(ctx, opts)
	if err != nil && !stderrors.Is(err, git.NoErrAlreadyUpToDate) {
		return errors.RepositoryErrorf(err, "push to %s failed", r.remote)
	}
	return nil
}

// RemoteURL returns the first URL of the configured remote.
func (r *Repository) RemoteURL() (string, error) {
	remote, err := r.repo.Remote(r.remote)
	if err != nil {
		return "", errors.RepositoryErrorf(err, "remote %s not found", r.remote)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 || urls[0] == "" {
		return "", errors.RepositoryErrorf(nil, "remote %s has no url", r.remote)
	}
	return urls[0], nil
}

// OwnerRepo derives the hosting owner and repository name from the remote.
func (r *Repository) OwnerRepo() (owner, repo string, err error) {
	url, err := r.RemoteURL()
	if err != nil {
		return "", "", err
	}
	return ParseRepoURL(url)
}

var (
	httpsRegex = regexp.MustCompile(`https?://[^/]+/([^/]+)/([^/]+)`)
	sshRegex   = regexp.MustCompile(`[\w.-]+@[^:]+:([^/]+)/([^/]+)`)
	gitRegex   = regexp.MustCompile(`(?:git|ssh)://(?:[^@/]+@)?[^/]+/([^/]+)/([^/]+)`)
)

// ParseRepoURL extracts owner and repo name from a git remote URL
// Supports multiple URL formats:
//   - HTTPS: https://github.com/owner/repo.git
//   - SSH: git@github.com:owner/repo.git
//   - Git protocol: git://github.com/owner/repo.git
//
// Known hosting providers are parsed by go-git-url; other hosts fall back to
// pattern matching.
func ParseRepoURL(remoteURL string) (owner, repo string, err error) {
	if u, err := giturl.NewGitURL(remoteURL); err == nil && u.GetOwnerName() != "" && u.GetRepoName() != "" {
		return u.GetOwnerName(), strings.TrimSuffix(u.GetRepoName(), ".git"), nil
	}

	trimmed := strings.TrimSuffix(strings.TrimRight(remoteURL, "/"), ".git")
	for _, re := range []*regexp.Regexp{httpsRegex, sshRegex, gitRegex} {
		if m := re.FindStringSubmatch(trimmed); len(m) == 3 {
			return m[1], m[2], nil
		}
	}

	return "", "", errors.ValidationErrorf("unrecognized git URL format: %s", remoteURL)
}
