// Package github implements the platform adapter for GitHub repositories.
//
// Requests go through a caching proxy that mirrors the GitHub REST API, so the
// base URL is configurable. A repository has no real shop: the owner account
// stands in for one.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v67/github"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/erazemk/setupcatalog/internal/model"
	"github.com/erazemk/setupcatalog/internal/platform"
)

// DefaultBaseURL is the public GitHub REST API.
const DefaultBaseURL = "https://api.github.com/"

// maxContributors bounds the contributor list kept as item authors.
const maxContributors = 10

// Options configures the adapter.
type Options struct {
	// BaseURL points at the caching proxy (or the API itself).
	BaseURL string
	Token   string
	Timeout time.Duration
	// RequestsPerSecond throttles calls to the proxy; zero means unlimited.
	RequestsPerSecond float64
	Client            *http.Client
}

// Adapter fetches repository metadata through go-github.
type Adapter struct {
	client  *gh.Client
	limiter *rate.Limiter
}

// New creates a GitHub adapter.
func New(opts Options) (*Adapter, error) {
	httpClient := opts.Client
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	client := gh.NewClient(httpClient)
	if opts.Token != "" {
		client = client.WithAuthToken(opts.Token)
	}

	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid github base url: %w", err)
	}
	client.BaseURL = u

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &Adapter{client: client, limiter: rate.NewLimiter(limit, 4)}, nil
}

// Platform implements platform.Adapter.
func (a *Adapter) Platform() model.Platform {
	return model.PlatformGitHub
}

// Fetch implements platform.Adapter. id is "owner/repo".
func (a *Adapter) Fetch(ctx context.Context, id string) (*platform.Listing, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(id), "/")
	if !ok || owner == "" || name == "" {
		return nil, fmt.Errorf("github: item id must be owner/repo, got %q", id)
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("github: waiting for rate limiter: %w", err)
	}
	repo, resp, err := a.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, wrapError(err, resp, "getting repository "+id)
	}
	if repo.GetPrivate() {
		return nil, fmt.Errorf("github: repository %s is private: %w", id, platform.ErrUnavailable)
	}

	var (
		authors []string
		version string
		readme  string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		authors, err = a.contributors(gctx, owner, name)
		return err
	})
	g.Go(func() error {
		var err error
		version, err = a.latestRelease(gctx, owner, name)
		return err
	})
	g.Go(func() error {
		var err error
		readme, err = a.readme(gctx, owner, name)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	description := repo.GetDescription()
	if readme != "" {
		description = strings.TrimSpace(description + "\n\n" + readme)
	}

	ownerLogin := repo.GetOwner().GetLogin()
	if ownerLogin == "" {
		ownerLogin = owner
	}

	return &platform.Listing{
		ID:          repo.GetFullName(),
		Name:        repo.GetName(),
		Description: platform.PlainText(description),
		ImageURL:    repo.GetOwner().GetAvatarURL(),
		Likes:       repo.GetStargazersCount(),
		Version:     version,
		Authors:     authors,
		Shop: model.Shop{
			ID:       ownerLogin,
			Platform: model.PlatformGitHub,
			Name:     ownerLogin,
			ImageURL: repo.GetOwner().GetAvatarURL(),
			Verified: repo.GetOwner().GetType() == "Organization",
		},
	}, nil
}

func (a *Adapter) contributors(ctx context.Context, owner, name string) ([]string, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("github: waiting for rate limiter: %w", err)
	}
	list, resp, err := a.client.Repositories.ListContributors(ctx, owner, name, &gh.ListContributorsOptions{
		ListOptions: gh.ListOptions{PerPage: maxContributors},
	})
	if err != nil {
		if isNotFound(resp) {
			return nil, nil
		}
		return nil, wrapError(err, resp, "listing contributors")
	}

	logins := make([]string, 0, len(list))
	for _, c := range list {
		if login := c.GetLogin(); login != "" {
			logins = append(logins, login)
		}
	}
	return logins, nil
}

func (a *Adapter) latestRelease(ctx context.Context, owner, name string) (string, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("github: waiting for rate limiter: %w", err)
	}
	release, resp, err := a.client.Repositories.GetLatestRelease(ctx, owner, name)
	if err != nil {
		if isNotFound(resp) {
			return "", nil
		}
		return "", wrapError(err, resp, "getting latest release")
	}
	return release.GetTagName(), nil
}

func (a *Adapter) readme(ctx context.Context, owner, name string) (string, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("github: waiting for rate limiter: %w", err)
	}
	content, resp, err := a.client.Repositories.GetReadme(ctx, owner, name, nil)
	if err != nil {
		if isNotFound(resp) {
			return "", nil
		}
		return "", wrapError(err, resp, "getting readme")
	}
	text, err := content.GetContent()
	if err != nil {
		return "", fmt.Errorf("github: decoding readme: %w", err)
	}
	return text, nil
}

func isNotFound(resp *gh.Response) bool {
	return resp != nil && resp.StatusCode == http.StatusNotFound
}

// wrapError maps a go-github failure onto the adapter contract: 404 and 451
// mean the repository is gone or blocked, anything else is a transport error.
func wrapError(err error, resp *gh.Response, action string) error {
	if resp != nil {
		switch resp.StatusCode {
		case http.StatusNotFound, http.StatusGone, http.StatusUnavailableForLegalReasons:
			return fmt.Errorf("github: %s: http %d: %w", action, resp.StatusCode, platform.ErrUnavailable)
		}
	}
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return fmt.Errorf("github: %s: http %d: %s", action, ghErr.Response.StatusCode, ghErr.Message)
	}
	return fmt.Errorf("github: %s: %w", action, err)
}
