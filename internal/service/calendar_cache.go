package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/marigot-labs/school-report-api/internal/dto"
	"github.com/marigot-labs/school-report-api/internal/models"
)

// cachedResolution is the redis-serializable form of a Resolution.
type cachedResolution struct {
	YearID     uint   `json:"year_id"`
	YearLabel  string `json:"year_label"`
	StartYear  int    `json:"start_year"`
	SchoolID   uint   `json:"school_id"`
	TermID     *uint  `json:"term_id"`
	TermNumber *int   `json:"term_number"`
	Vacation   string `json:"vacation"`
}

// CachedCalendarService layers a redis cache over a CalendarService. The
// cache is owned here, not by the resolver: year mutations must call
// Invalidate so stale periods never outlive a calendar change.
type CachedCalendarService struct {
	inner    CalendarService
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewCachedCalendarService wraps inner with a resolution cache. A nil redis
// client disables caching entirely.
func NewCachedCalendarService(inner CalendarService, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) *CachedCalendarService {
	return &CachedCalendarService{
		inner:    inner,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "calendar_cache").Logger(),
	}
}

func resolveCacheKey(schoolID uint, day time.Time) string {
	return fmt.Sprintf("calendar:resolve:%d:%s", schoolID, day.Format(time.DateOnly))
}

// ResolveDTO resolves a date and returns the wire form, serving repeated
// lookups from redis.
func (s *CachedCalendarService) ResolveDTO(ctx context.Context, schoolID uint, date time.Time) (dto.ResolveResponse, error) {
	day := models.DateOnly(date)
	key := resolveCacheKey(schoolID, day)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Result(); err == nil {
			var entry cachedResolution
			if unmarshalErr := json.Unmarshal([]byte(cached), &entry); unmarshalErr == nil {
				s.logger.Debug().Uint("school_id", schoolID).Str("date", day.Format(time.DateOnly)).Msg("resolution cache hit")
				return entry.toResponse(day), nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read resolution cache")
		}
	}

	res, err := s.inner.Resolve(ctx, schoolID, date)
	if err != nil {
		return dto.ResolveResponse{}, err
	}

	entry := cachedResolution{
		YearID:    res.Year.ID,
		YearLabel: res.Year.Label(),
		StartYear: res.Year.StartYear,
		SchoolID:  schoolID,
		Vacation:  res.Vacation,
	}
	if res.Term != nil {
		entry.TermID = &res.Term.ID
		n := res.Term.TermNumber
		entry.TermNumber = &n
	}

	if s.cache != nil {
		if payload, marshalErr := json.Marshal(entry); marshalErr == nil {
			if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store resolution cache")
			}
		}
	}

	return entry.toResponse(day), nil
}

// Invalidate drops every cached resolution for a school. Called after year
// or term mutations.
func (s *CachedCalendarService) Invalidate(ctx context.Context, schoolID uint) {
	if s.cache == nil {
		return
	}

	pattern := fmt.Sprintf("calendar:resolve:%d:*", schoolID)
	iter := s.cache.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		s.logger.Warn().Err(err).Uint("school_id", schoolID).Msg("failed to scan resolution cache")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("school_id", schoolID).Msg("failed to drop resolution cache")
		return
	}
	s.logger.Debug().Uint("school_id", schoolID).Int("keys", len(keys)).Msg("resolution cache invalidated")
}

// CreateYear delegates to the inner service and invalidates the school's
// cached resolutions on success.
func (s *CachedCalendarService) CreateYear(ctx context.Context, schoolID uint, payload dto.YearCreateRequest) (dto.YearResponse, error) {
	resp, err := s.inner.CreateYear(ctx, schoolID, payload)
	if err != nil {
		return dto.YearResponse{}, err
	}
	s.Invalidate(ctx, schoolID)
	return resp, nil
}

// ListYears delegates to the inner service.
func (s *CachedCalendarService) ListYears(ctx context.Context, schoolID uint) ([]dto.YearResponse, error) {
	return s.inner.ListYears(ctx, schoolID)
}

func (e cachedResolution) toResponse(day time.Time) dto.ResolveResponse {
	return dto.ResolveResponse{
		Date:       day.Format(time.DateOnly),
		YearID:     e.YearID,
		YearLabel:  e.YearLabel,
		TermID:     e.TermID,
		TermNumber: e.TermNumber,
		Vacation:   e.Vacation,
	}
}
