package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"shortlink/internal/cache"
	"shortlink/internal/model"
	"shortlink/internal/repository"
	"shortlink/internal/shortener"
)

var (
	// ErrInvalidInput covers malformed URLs and custom names.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAlreadyExists signals a custom-name collision with a different URL.
	ErrAlreadyExists = errors.New("already exists")

	// ErrNotFound signals an unknown short code.
	ErrNotFound = errors.New("not found")
)

// Store is the durable mapping store the service orchestrates. Absent rows
// surface as repository.ErrNotFound, uniqueness races as
// repository.ErrConflict.
type Store interface {
	GetByShortCode(ctx context.Context, code string) (*model.URLMapping, error)
	GetByOriginalURL(ctx context.Context, original string) (*model.URLMapping, error)
	Create(ctx context.Context, code, original string) (*model.URLMapping, error)
	ReassignCode(ctx context.Context, m *model.URLMapping, newCode string) (*model.URLMapping, error)
	IncrementClick(ctx context.Context, m *model.URLMapping) error
	List(ctx context.Context, offset, limit int) ([]model.URLMapping, error)
	DailyClicks(ctx context.Context, m *model.URLMapping) ([]model.DayClicks, error)
}

// Cache is the ephemeral read accelerator. It holds no authoritative state
// and every failure is swallowed by the service.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) (int64, error)
}

// Timestamps in list/analytics responses render in IST.
var displayZone = time.FixedZone("IST", 5*3600+1800)

const (
	displayTimeFormat = "02/01/2006 : 03:04:05 PM"
	displayDateFormat = "02/01/2006"
)

// Service implements create/resolve/list/analytics over the store, cache,
// and code generator.
type Service struct {
	store     Store
	cache     Cache // may be nil if disabled
	gen       *shortener.Generator
	baseURL   string
	cacheTTL  time.Duration
	suffixLen int
}

func New(store Store, c Cache, gen *shortener.Generator, baseURL string, cacheTTL time.Duration, suffixLen int) *Service {
	return &Service{
		store:     store,
		cache:     c,
		gen:       gen,
		baseURL:   baseURL,
		cacheTTL:  cacheTTL,
		suffixLen: suffixLen,
	}
}

// PageItem is one presentation row of the admin listing.
type PageItem struct {
	ID             int64  `json:"id"`
	ShortCode      string `json:"short_code"`
	OriginalURL    string `json:"original_url"`
	ClickCount     int64  `json:"click_count"`
	LastAccessedAt string `json:"last_accessed_at"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
	Analytics      string `json:"analytics"`
}

// DayRow is one day of the click series for a mapping.
type DayRow struct {
	Date        string `json:"date"`
	TotalClicks int64  `json:"total_clicks"`
	URL         string `json:"url"`
	ShortURL    string `json:"short_url"`
}

// CreateShortenURL returns the short URL for rawURL, creating a mapping if
// needed. The same URL always maps back to one code; a custom name either
// claims the code for the URL or fails with ErrAlreadyExists when another
// URL holds it.
func (s *Service) CreateShortenURL(ctx context.Context, rawURL, customName string) (string, error) {
	original := shortener.NormalizeURL(rawURL)
	if !shortener.ValidateURL(original) {
		return "", fmt.Errorf("url %q: %w", rawURL, ErrInvalidInput)
	}

	if customName != "" {
		if !shortener.ValidateCustomName(customName) {
			return "", fmt.Errorf("custom name %q: %w", customName, ErrInvalidInput)
		}
		short, err := s.claimCustomName(ctx, original, customName)
		if err != nil {
			return "", err
		}
		if short != "" {
			s.cachePut(ctx, cache.Key(customName), original)
			return short, nil
		}
		// Neither branch claimed the name; continue on the hash path.
	}

	existing, err := s.store.GetByOriginalURL(ctx, original)
	if err == nil {
		s.cachePut(ctx, cache.Key(existing.ShortCode), existing.OriginalURL)
		return s.shortURL(existing.ShortCode), nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}

	code := s.gen.Generate(original, "")
	if _, err := s.store.GetByShortCode(ctx, code); err == nil {
		// Code taken by a different URL; one salted retry.
		salt, serr := s.gen.RandomSuffix(s.suffixLen)
		if serr != nil {
			return "", serr
		}
		code = s.gen.Generate(original, salt)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}

	created, err := s.store.Create(ctx, code, original)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// Lost a creation race. If the winner bound the same URL,
			// hand back its mapping instead of erroring.
			if winner, gerr := s.store.GetByOriginalURL(ctx, original); gerr == nil {
				s.cachePut(ctx, cache.Key(winner.ShortCode), winner.OriginalURL)
				return s.shortURL(winner.ShortCode), nil
			}
		}
		return "", err
	}

	s.cachePut(ctx, cache.Key(created.ShortCode), created.OriginalURL)
	return s.shortURL(created.ShortCode), nil
}

// claimCustomName resolves the custom-name slot. It returns the short URL
// when the name was claimed (or already bound to the same URL), an empty
// string to fall through to deterministic generation, or an error.
func (s *Service) claimCustomName(ctx context.Context, original, name string) (string, error) {
	byURL, err := s.store.GetByOriginalURL(ctx, original)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}
	byCode, err := s.store.GetByShortCode(ctx, name)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}

	switch {
	case byCode == nil && byURL != nil:
		updated, err := s.store.ReassignCode(ctx, byURL, name)
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return "", fmt.Errorf("custom name %q: %w", name, ErrAlreadyExists)
			}
			return "", err
		}
		return s.shortURL(updated.ShortCode), nil
	case byCode != nil && byCode.OriginalURL != original:
		return "", fmt.Errorf("custom name %q: %w", name, ErrAlreadyExists)
	case byCode != nil:
		// Name already bound to this URL; idempotent.
		return s.shortURL(byCode.ShortCode), nil
	}
	return "", nil
}

// Resolve returns the original URL for code. A cache hit records the click
// in the background so the redirect never waits on the store; a miss reads
// through to the store, records synchronously, and back-fills the cache.
func (s *Service) Resolve(ctx context.Context, code string) (string, error) {
	if s.cache != nil {
		original, ok, err := s.cache.Get(ctx, cache.Key(code))
		if err != nil {
			log.Warn().Err(err).Str("code", code).Msg("cache get failed, falling back to store")
		} else if ok {
			go s.recordClickByCode(code)
			return original, nil
		}
	}

	m, err := s.store.GetByShortCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", fmt.Errorf("code %q: %w", code, ErrNotFound)
		}
		return "", err
	}

	if err := s.store.IncrementClick(ctx, m); err != nil {
		return "", err
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.cachePut(ctx, cache.Key(m.ShortCode), m.OriginalURL)
	}()

	return m.OriginalURL, nil
}

// List returns a presentation page of mappings, newest first.
func (s *Service) List(ctx context.Context, page, limit int) ([]PageItem, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}
	// Offset is the page number minus one, not (page-1)*limit.
	// TODO: confirm intended paging with product before changing; existing
	// admin tooling consumes these pages.
	offset := page - 1

	mappings, err := s.store.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}

	items := make([]PageItem, 0, len(mappings))
	for _, m := range mappings {
		items = append(items, PageItem{
			ID:             m.ID,
			ShortCode:      s.shortURL(m.ShortCode),
			OriginalURL:    m.OriginalURL,
			ClickCount:     m.ClickCount,
			LastAccessedAt: displayTime(m.LastAccessedAt),
			CreatedAt:      displayTime(&m.CreatedAt),
			UpdatedAt:      displayTime(&m.UpdatedAt),
			Analytics:      s.baseURL + "/get-analytics/" + m.ShortCode,
		})
	}
	return items, nil
}

// DailyAnalytics returns the day-bucketed click series for code.
func (s *Service) DailyAnalytics(ctx context.Context, code string) ([]DayRow, error) {
	m, err := s.store.GetByShortCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("code %q: %w", code, ErrNotFound)
		}
		return nil, err
	}

	days, err := s.store.DailyClicks(ctx, m)
	if err != nil {
		return nil, err
	}

	rows := make([]DayRow, 0, len(days))
	for _, d := range days {
		rows = append(rows, DayRow{
			Date:        d.Day.UTC().Format(displayDateFormat),
			TotalClicks: d.TotalClicks,
			URL:         m.OriginalURL,
			ShortURL:    s.shortURL(m.ShortCode),
		})
	}
	return rows, nil
}

// recordClickByCode runs off the request path after a cache hit. Failures
// are logged, never surfaced to the redirect.
func (s *Service) recordClickByCode(code string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	m, err := s.store.GetByShortCode(ctx, code)
	if err != nil {
		log.Warn().Err(err).Str("code", code).Msg("background click lookup failed")
		return
	}
	if err := s.store.IncrementClick(ctx, m); err != nil {
		log.Warn().Err(err).Str("code", code).Msg("background click record failed")
	}
}

func (s *Service) cachePut(ctx context.Context, key, value string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Put(ctx, key, value, s.cacheTTL); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache put failed")
	}
}

func (s *Service) shortURL(code string) string {
	return s.baseURL + "/" + code
}

func displayTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.In(displayZone).Format(displayTimeFormat)
}
