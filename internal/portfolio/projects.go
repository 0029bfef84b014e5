package portfolio

import (
	"context"
	"log/slog"
	"time"

	"github.com/dshills/folio/internal/github"
	"github.com/dshills/folio/internal/store"
	"github.com/dshills/folio/internal/swr"
)

// ProjectCacheKey is the storage key for enriched projects. Bumping the
// version suffix orphans envelopes written by older layouts.
const ProjectCacheKey = "github_projects_v3"

// DefaultProjectTTL is how long enriched project data is considered fresh.
const DefaultProjectTTL = 24 * time.Hour

// RepoSource fetches repository metadata.
type RepoSource interface {
	GetRepo(ctx context.Context, owner, repo string) (github.Repo, error)
}

// ProjectCacheConfig configures NewProjectCache.
type ProjectCacheConfig struct {
	Store    store.Store
	Source   RepoSource
	TTL      time.Duration
	Baseline []Project
	Now      func() time.Time
	Logger   *slog.Logger
}

// ProjectCache is a stale-while-revalidate view of the project list.
type ProjectCache = swr.Controller[Project, string]

// NewProjectCache builds the project cache. Projects whose RepoURL names a
// repository are enriched; the rest keep their baseline fields.
func NewProjectCache(cfg ProjectCacheConfig) (*ProjectCache, error) {
	baseline := cfg.Baseline
	if baseline == nil {
		baseline = BaselineProjects()
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultProjectTTL
	}
	src := cfg.Source
	return swr.New(swr.Config[Project, string]{
		Store:    cfg.Store,
		Key:      ProjectCacheKey,
		TTL:      ttl,
		Baseline: baseline,
		KeyOf:    projectSlug,
		Overlay:  overlayProject,
		Complete: func(payload []Project) bool {
			return completeProjects(payload, len(baseline))
		},
		NeedsEnrich: hasRepo,
		Enrich: func(ctx context.Context, p Project) (Project, error) {
			return enrichProject(ctx, src, p)
		},
		Now:    cfg.Now,
		Logger: cfg.Logger,
	})
}

func projectSlug(p Project) string { return p.Slug }

// overlayProject copies the enrichable fields of in onto base when in holds
// fetched data, zero values included. Anything else leaves base untouched.
func overlayProject(base, in Project) Project {
	if !in.Enriched {
		return base
	}
	base.Description = in.Description
	base.Stars = in.Stars
	base.UpdatedAt = in.UpdatedAt
	base.Enriched = true
	return base
}

func completeProjects(payload []Project, want int) bool {
	if len(payload) < want {
		return false
	}
	for _, p := range payload {
		if p.Slug == SentinelSlug {
			return true
		}
	}
	return false
}

func hasRepo(p Project) bool {
	_, _, err := github.ParseRepoURL(p.RepoURL)
	return err == nil
}

func enrichProject(ctx context.Context, src RepoSource, p Project) (Project, error) {
	owner, name, err := github.ParseRepoURL(p.RepoURL)
	if err != nil {
		return p, err
	}
	repo, err := src.GetRepo(ctx, owner, name)
	if err != nil {
		return p, err
	}
	p.Description = repo.Description
	p.Stars = repo.Stars
	p.UpdatedAt = repo.UpdatedAt
	p.Enriched = true
	return p, nil
}
