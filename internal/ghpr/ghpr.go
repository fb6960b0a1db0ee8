// Package ghpr is the GitHub collaborator (G4, SPEC_FULL.md §4.11): pull
// request discovery by head SHA, and idempotent comment upsert.
package ghpr

import (
	"context"
	"strings"

	"github.com/google/go-github/v66/github"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/scttnlsn/sql-critic/internal/render"
)

// Repo is a GitHub repository addressed by owner/name, authenticated with a
// single static token (mirrors the original adapter's PyGithub usage).
type Repo struct {
	owner, name string
	client      *github.Client
}

func New(ctx context.Context, owner, name, token string) *Repo {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(ctx, ts)
	return &Repo{owner: owner, name: name, client: github.NewClient(httpClient)}
}

// newWithClient builds a Repo around an already-configured *github.Client,
// letting tests point it at a fake server instead of api.github.com.
func newWithClient(owner, name string, client *github.Client) *Repo {
	return &Repo{owner: owner, name: name, client: client}
}

// Pull is one open pull request targeted by a push, carrying enough of its
// identity for the driver to build a Comparator and render a comment.
type Pull struct {
	repo   *Repo
	Number int
	BaseSHA string
	HeadSHA string
}

// Pulls lists open pull requests and filters to those whose head SHA equals
// sha (spec.md/SPEC_FULL.md §4.11, mirroring action.py's push-event pull
// discovery).
func (r *Repo) Pulls(ctx context.Context, sha string) ([]Pull, error) {
	opts := &github.PullRequestListOptions{
		State:       "open",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var matched []Pull
	for {
		prs, resp, err := r.client.PullRequests.List(ctx, r.owner, r.name, opts)
		if err != nil {
			return nil, errors.Wrap(err, "list pull requests")
		}
		for _, pr := range prs {
			if pr.GetHead().GetSHA() != sha {
				continue
			}
			matched = append(matched, Pull{
				repo:    r,
				Number:  pr.GetNumber(),
				BaseSHA: pr.GetBase().GetSHA(),
				HeadSHA: pr.GetHead().GetSHA(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return matched, nil
}

// Comment upserts body as the single sql-critic comment on the pull
// request: finds an existing comment carrying render.CommentMarker and
// edits it, else creates a new one.
func (p Pull) Comment(ctx context.Context, body string) error {
	existing, err := p.findOwnComment(ctx)
	if err != nil {
		return err
	}

	if existing != nil {
		_, _, err := p.repo.client.Issues.EditComment(ctx, p.repo.owner, p.repo.name, existing.GetID(), &github.IssueComment{
			Body: github.String(body),
		})
		return errors.Wrap(err, "edit pull request comment")
	}

	_, _, err = p.repo.client.Issues.CreateComment(ctx, p.repo.owner, p.repo.name, p.Number, &github.IssueComment{
		Body: github.String(body),
	})
	return errors.Wrap(err, "create pull request comment")
}

func (p Pull) findOwnComment(ctx context.Context) (*github.IssueComment, error) {
	opts := &github.IssueListCommentsOptions{ListOptions: github.ListOptions{PerPage: 100}}
	for {
		comments, resp, err := p.repo.client.Issues.ListComments(ctx, p.repo.owner, p.repo.name, p.Number, opts)
		if err != nil {
			return nil, errors.Wrap(err, "list pull request comments")
		}
		for _, c := range comments {
			if strings.Contains(c.GetBody(), render.CommentMarker) {
				return c, nil
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return nil, nil
}
