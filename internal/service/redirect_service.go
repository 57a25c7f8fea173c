package service

import (
	"context"
	"errors"
	"time"

	"github.com/SergeiKhy/hashlink/internal/models"
	"github.com/SergeiKhy/hashlink/internal/repository"
	"go.uber.org/zap"
)

// RedirectService resolves short codes and reports link statistics.
type RedirectService interface {
	Resolve(ctx context.Context, code string) (string, error)
	Stats(ctx context.Context, code string) (*models.Link, error)
	StatsAll(ctx context.Context) ([]models.Link, error)
}

type redirectService struct {
	linkRepo  repository.LinkRepository
	cacheRepo repository.CacheRepository
	cacheTTL  time.Duration
	logger    *zap.Logger
}

func NewRedirectService(linkRepo repository.LinkRepository, cacheRepo repository.CacheRepository, cacheTTL time.Duration, logger *zap.Logger) RedirectService {
	if cacheRepo == nil {
		cacheRepo = repository.NewNopCache()
	}
	if cacheTTL <= 0 {
		cacheTTL = defaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &redirectService{
		linkRepo:  linkRepo,
		cacheRepo: cacheRepo,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// Resolve counts a click and returns the original URL. The click is recorded
// before the URL is read.
func (s *redirectService) Resolve(ctx context.Context, code string) (string, error) {
	found, err := s.linkRepo.IncrementClicks(ctx, code)
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrNotFound
	}

	link, err := s.cacheRepo.Get(ctx, code)
	if err == nil {
		return link.OriginalURL, nil
	}
	if !errors.Is(err, repository.ErrCacheMiss) {
		s.logger.Warn("Cache read failed", zap.String("code", code), zap.Error(err))
	}

	link, err = s.linkRepo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}

	if err := s.cacheRepo.Set(ctx, link, s.cacheTTL); err != nil {
		s.logger.Warn("Failed to cache link", zap.String("code", code), zap.Error(err))
	}

	return link.OriginalURL, nil
}

// Stats always reads from the store so the click count is current.
func (s *redirectService) Stats(ctx context.Context, code string) (*models.Link, error) {
	link, err := s.linkRepo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return link, nil
}

// StatsAll returns every link, newest first.
func (s *redirectService) StatsAll(ctx context.Context) ([]models.Link, error) {
	return s.linkRepo.ListAll(ctx)
}
