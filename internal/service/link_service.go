package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/SergeiKhy/hashlink/internal/codegen"
	"github.com/SergeiKhy/hashlink/internal/models"
	"github.com/SergeiKhy/hashlink/internal/repository"
	"go.uber.org/zap"
)

const (
	// maxRetries is the number of salted candidates tried after the unsalted one.
	maxRetries = 5
	defaultTTL = 24 * time.Hour
)

// LinkService shortens URLs.
type LinkService interface {
	Shorten(ctx context.Context, rawURL string) (*models.Link, error)
}

// LinkServiceConfig holds optional dependencies of the link service.
type LinkServiceConfig struct {
	Generate codegen.Func
	CacheTTL time.Duration
	Logger   *zap.Logger
}

type linkService struct {
	linkRepo  repository.LinkRepository
	cacheRepo repository.CacheRepository
	generate  codegen.Func
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewLinkService создаёт новый экземпляр сервиса
func NewLinkService(linkRepo repository.LinkRepository, cacheRepo repository.CacheRepository, cfg LinkServiceConfig) LinkService {
	if cfg.Generate == nil {
		cfg.Generate = codegen.Generate
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cacheRepo == nil {
		cacheRepo = repository.NewNopCache()
	}

	return &linkService{
		linkRepo:  linkRepo,
		cacheRepo: cacheRepo,
		generate:  cfg.Generate,
		cacheTTL:  cfg.CacheTTL,
		logger:    cfg.Logger,
	}
}

// NormalizeURL trims the input and prefixes https:// unless it already has an
// http or https scheme.
func NormalizeURL(raw string) (string, error) {
	u := strings.TrimSpace(raw)
	if u == "" {
		return "", ErrInvalidInput
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "https://" + u
	}
	return u, nil
}

// Shorten returns the existing link for the URL or creates one.
func (s *linkService) Shorten(ctx context.Context, rawURL string) (*models.Link, error) {
	originalURL, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	link, err := s.linkRepo.FindByURL(ctx, originalURL)
	if err == nil {
		return link, nil
	}
	if !errors.Is(err, repository.ErrLinkNotFound) {
		return nil, err
	}

	for attempt := -1; attempt < maxRetries; attempt++ {
		salt := ""
		if attempt >= 0 {
			salt = strconv.Itoa(attempt)
		}
		code := s.generate(originalURL, salt)

		exists, err := s.linkRepo.CodeExists(ctx, code)
		if err != nil {
			return nil, err
		}
		if exists {
			s.logger.Debug("Short code collision",
				zap.String("code", code),
				zap.Int("attempt", attempt+1),
			)
			continue
		}

		link, err := s.linkRepo.Insert(ctx, originalURL, code)
		switch {
		case err == nil:
			s.cache(ctx, link)
			return link, nil

		case errors.Is(err, repository.ErrURLExists):
			return s.linkRepo.FindByURL(ctx, originalURL)

		case errors.Is(err, repository.ErrCodeExists):
			// Lost a race for the code; the winner may have been shortening the same URL.
			existing, findErr := s.linkRepo.FindByURL(ctx, originalURL)
			if findErr == nil {
				return existing, nil
			}
			if !errors.Is(findErr, repository.ErrLinkNotFound) {
				return nil, findErr
			}
			s.logger.Debug("Short code taken concurrently",
				zap.String("code", code),
				zap.Int("attempt", attempt+1),
			)

		default:
			return nil, err
		}
	}

	s.logger.Warn("Short code candidates exhausted", zap.String("url", originalURL))
	return nil, ErrCodeGenerationExhausted
}

func (s *linkService) cache(ctx context.Context, link *models.Link) {
	if err := s.cacheRepo.Set(ctx, link, s.cacheTTL); err != nil {
		s.logger.Warn("Failed to cache link", zap.String("code", link.ShortCode), zap.Error(err))
	}
}
