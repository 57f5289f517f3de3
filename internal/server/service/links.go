package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"shorts/internal/server/database"
)

// Sentinel errors for link operations.
var (
	ErrLinkNotFound   = errors.New("link not found")
	ErrDuplicateShort = errors.New("short token already in use")
	ErrInvalidShort   = errors.New("short token must not be empty")
	ErrInvalidURL     = errors.New("target must be an absolute http(s) URL")
)

// Overview is the data backing the index page.
type Overview struct {
	Links     []database.Link
	TotalHits int64
}

// LinkService contains the business logic for link management and
// resolution.
type LinkService struct {
	repo *database.Repository
}

// NewLinkService creates a new link service.
func NewLinkService(repo *database.Repository) *LinkService {
	return &LinkService{repo: repo}
}

// Create validates and inserts a new short link.
func (s *LinkService) Create(ctx context.Context, short, original string) error {
	short = strings.TrimSpace(short)
	if short == "" {
		return ErrInvalidShort
	}
	if err := validateTarget(original); err != nil {
		return err
	}

	if err := s.repo.CreateLink(ctx, short, original); err != nil {
		if errors.Is(err, database.ErrDuplicateShort) {
			return ErrDuplicateShort
		}
		return fmt.Errorf("failed to create link: %w", err)
	}

	slog.Info("link created", "short", short, "original", original)
	return nil
}

// Delete removes a link by token. Removing an unknown token is not an
// error; the returned bool reports whether anything was deleted.
func (s *LinkService) Delete(ctx context.Context, short string) (bool, error) {
	affected, err := s.repo.DeleteLink(ctx, short)
	if err != nil {
		return false, fmt.Errorf("failed to delete link: %w", err)
	}
	if affected > 0 {
		slog.Info("link deleted", "short", short)
	}
	return affected > 0, nil
}

// Resolve looks up the redirect target for a short token and records a
// hit tagged with the visitor's user agent. Hit recording is best-effort:
// a storage failure there is logged and never blocks the redirect, which
// is decided by the lookup alone.
func (s *LinkService) Resolve(ctx context.Context, short string, userAgent *string) (string, error) {
	link, err := s.repo.GetLink(ctx, short)
	if err != nil {
		if errors.Is(err, database.ErrLinkNotFound) {
			return "", ErrLinkNotFound
		}
		return "", fmt.Errorf("failed to resolve link: %w", err)
	}

	if err := s.repo.RecordHit(ctx, link.ID, userAgent); err != nil {
		slog.Error("failed to record hit", "short", short, "error", err)
	}

	return link.Original, nil
}

// Overview returns all links with their hit counts plus the total hit
// count. The total is best-effort: if the aggregate fails the page still
// renders with zero.
func (s *LinkService) Overview(ctx context.Context) (*Overview, error) {
	links, err := s.repo.ListLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}

	total, err := s.repo.TotalHitCount(ctx)
	if err != nil {
		slog.Error("failed to count total hits", "error", err)
		total = 0
	}

	return &Overview{Links: links, TotalHits: total}, nil
}

// validateTarget rejects targets that would produce dead or dangerous
// redirects: only absolute http/https URLs with a host are accepted.
func validateTarget(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return ErrInvalidURL
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}
	return nil
}
