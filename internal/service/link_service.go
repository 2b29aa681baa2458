package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/SergeiKhy/sus/internal/models"
	"github.com/SergeiKhy/sus/internal/repository"
	"github.com/SergeiKhy/sus/internal/shortcode"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Ошибки сервиса
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidURL   = fmt.Errorf("%w: invalid URL", ErrInvalidInput)
	ErrSlugTooShort = fmt.Errorf("%w: custom slug must be at least %d characters", ErrInvalidInput, minSlugLength)
	ErrInvalidSlug  = fmt.Errorf("%w: custom slug can only contain letters, numbers, hyphens, and underscores", ErrInvalidInput)

	ErrSlugTaken           = errors.New("this custom slug is already taken")
	ErrAllocationExhausted = errors.New("failed to generate unique short code")
	ErrLinkNotFound        = errors.New("link not found or unauthorized")
	ErrUnauthorized        = errors.New("unauthorized")
)

// Константы сервиса
const (
	minSlugLength   = 3
	maxCodeAttempts = 10
	cacheTTL        = 24 * time.Hour
)

var slugRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// LinkService интерфейс сервиса ссылок
type LinkService interface {
	CreateLink(ctx context.Context, input *models.CreateLinkInput) (*models.Link, error)
	Resolve(ctx context.Context, code string) (string, error)
	ListLinks(ctx context.Context, ownerID string) ([]models.Link, error)
	GetLinkStats(ctx context.Context, id, ownerID string) (*models.LinkStats, error)
	DeleteLink(ctx context.Context, id, ownerID string) error
}

// Option настраивает linkService
type Option func(*linkService)

// WithGenerator подменяет генератор коротких кодов (используется в тестах)
func WithGenerator(gen shortcode.Generator) Option {
	return func(s *linkService) {
		s.gen = gen
	}
}

// linkService реализация сервиса ссылок
type linkService struct {
	linkRepo  repository.LinkRepository
	cacheRepo repository.CacheRepository
	gen       shortcode.Generator
	logger    *zap.Logger
}

// NewLinkService создаёт новый экземпляр сервиса
func NewLinkService(
	linkRepo repository.LinkRepository,
	cacheRepo repository.CacheRepository,
	logger *zap.Logger,
	opts ...Option,
) LinkService {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &linkService{
		linkRepo:  linkRepo,
		cacheRepo: cacheRepo,
		gen:       shortcode.NewRandom(shortcode.Length),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// CreateLink создаёт новую короткую ссылку.
// Кастомный slug не перегенерируется: занятый slug сразу даёт ErrSlugTaken.
func (s *linkService) CreateLink(ctx context.Context, input *models.CreateLinkInput) (*models.Link, error) {
	if input.OwnerUserID == "" {
		return nil, ErrUnauthorized
	}

	if err := validateURL(input.OriginalURL); err != nil {
		return nil, err
	}

	if input.CustomSlug != nil && *input.CustomSlug != "" {
		return s.createWithSlug(ctx, input, *input.CustomSlug)
	}

	return s.createWithRandomCode(ctx, input)
}

func (s *linkService) createWithSlug(ctx context.Context, input *models.CreateLinkInput, slug string) (*models.Link, error) {
	if err := validateSlug(slug); err != nil {
		return nil, err
	}

	taken, err := s.slugTaken(ctx, slug)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrSlugTaken
	}

	link := newLink(input, slug)
	if err := s.linkRepo.Create(ctx, link); err != nil {
		// Гонка: slug заняли между проверкой и вставкой
		if errors.Is(err, repository.ErrCodeExists) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}

	s.remember(ctx, link)
	return link, nil
}

func (s *linkService) createWithRandomCode(ctx context.Context, input *models.CreateLinkInput) (*models.Link, error) {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code := s.gen.NewCode()

		taken, err := s.codeTaken(ctx, code)
		if err != nil {
			return nil, err
		}
		if taken {
			s.logger.Debug("Short code collision",
				zap.String("short_code", code),
				zap.Int("attempt", attempt),
			)
			continue
		}

		link := newLink(input, code)
		err = s.linkRepo.Create(ctx, link)
		if err == nil {
			s.remember(ctx, link)
			return link, nil
		}
		if !errors.Is(err, repository.ErrCodeExists) {
			return nil, err
		}

		s.logger.Debug("Short code taken on insert",
			zap.String("short_code", code),
			zap.Int("attempt", attempt),
		)
	}

	s.logger.Warn("Short code allocation exhausted", zap.Int("attempts", maxCodeAttempts))
	return nil, ErrAllocationExhausted
}

// Resolve засчитывает переход и возвращает исходный URL
func (s *linkService) Resolve(ctx context.Context, code string) (string, error) {
	// Такой код не мог быть выдан, в базу не ходим
	if !slugRe.MatchString(code) {
		return "", ErrLinkNotFound
	}

	originalURL, err := s.linkRepo.IncrementClicks(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return "", ErrLinkNotFound
		}
		return "", err
	}

	return originalURL, nil
}

// ListLinks возвращает ссылки владельца, новые первыми
func (s *linkService) ListLinks(ctx context.Context, ownerID string) ([]models.Link, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	return s.linkRepo.ListByOwner(ctx, ownerID)
}

// GetLinkStats возвращает счётчик переходов ссылки владельца
func (s *linkService) GetLinkStats(ctx context.Context, id, ownerID string) (*models.LinkStats, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}

	linkID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrLinkNotFound
	}

	link, err := s.linkRepo.Get(ctx, linkID.String(), ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}

	return &models.LinkStats{
		ID:            link.ID,
		ShortCode:     link.ShortCode,
		Clicks:        link.Clicks,
		LastClickedAt: link.LastClickedAt,
	}, nil
}

// DeleteLink удаляет ссылку владельца.
// Чужая и несуществующая ссылка неразличимы: обе дают ErrLinkNotFound.
func (s *linkService) DeleteLink(ctx context.Context, id, ownerID string) error {
	if ownerID == "" {
		return ErrUnauthorized
	}

	linkID, err := uuid.Parse(id)
	if err != nil {
		return ErrLinkNotFound
	}

	code, err := s.linkRepo.Delete(ctx, linkID.String(), ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return ErrLinkNotFound
		}
		return err
	}

	if err := s.cacheRepo.Delete(ctx, code); err != nil {
		s.logger.Warn("Failed to evict short code from cache",
			zap.String("short_code", code),
			zap.Error(err),
		)
	}

	return nil
}

// codeTaken проверяет случайный код сначала в кэше, затем в БД.
// Ложное попадание в кэш стоит лишь одной попытки; окончательно решает уникальный индекс.
func (s *linkService) codeTaken(ctx context.Context, code string) (bool, error) {
	if _, err := s.cacheRepo.Get(ctx, code); err == nil {
		return true, nil
	}

	exists, err := s.linkRepo.Exists(ctx, code)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// slugTaken решает только по БД: попадание в кэш лишь подсказка.
// Устаревшая запись (например, удаление при недоступном Redis) вычищается.
func (s *linkService) slugTaken(ctx context.Context, slug string) (bool, error) {
	_, cacheErr := s.cacheRepo.Get(ctx, slug)

	exists, err := s.linkRepo.Exists(ctx, slug)
	if err != nil {
		return false, err
	}

	if !exists && cacheErr == nil {
		s.logger.Info("Dropping stale short code from cache", zap.String("short_code", slug))
		if err := s.cacheRepo.Delete(ctx, slug); err != nil {
			s.logger.Warn("Failed to evict short code from cache",
				zap.String("short_code", slug),
				zap.Error(err),
			)
		}
	}

	return exists, nil
}

// remember кэширует выданный код; ошибка кэша не прерывает создание
func (s *linkService) remember(ctx context.Context, link *models.Link) {
	if err := s.cacheRepo.Set(ctx, link.ShortCode, link, cacheTTL); err != nil {
		s.logger.Warn("Failed to cache short code",
			zap.String("short_code", link.ShortCode),
			zap.Error(err),
		)
	}
}

func newLink(input *models.CreateLinkInput, code string) *models.Link {
	return &models.Link{
		ShortCode:         code,
		OriginalURL:       input.OriginalURL,
		OwnerUserID:       input.OwnerUserID,
		ExternalAccountID: input.ExternalAccountID,
	}
}

// validateURL требует абсолютный URL со схемой и хостом (или opaque-частью, как у mailto:)
func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return ErrInvalidURL
	}
	if u.Host == "" && u.Opaque == "" {
		return ErrInvalidURL
	}
	return nil
}

// validateSlug проверяет длину и допустимые символы кастомного slug
func validateSlug(slug string) error {
	if len(slug) < minSlugLength {
		return ErrSlugTooShort
	}
	if !slugRe.MatchString(slug) {
		return ErrInvalidSlug
	}
	return nil
}
