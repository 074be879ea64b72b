package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/marigot-labs/school-report-api/internal/dto"
	"github.com/marigot-labs/school-report-api/internal/models"
	"github.com/marigot-labs/school-report-api/internal/observability"
	"github.com/marigot-labs/school-report-api/internal/repository"
)

// Vacation kinds reported by Resolve for dates between terms.
const (
	VacationChristmas = "christmas"
	VacationEaster    = "easter"
	VacationSummer    = "summer"
)

// Resolution locates a calendar date inside a school's academic structure.
// Term is nil during vacations, in which case Vacation names the break.
type Resolution struct {
	Year     models.AcademicYear
	Term     *models.Term
	Vacation string
}

// CalendarService resolves dates to academic periods and administers years.
type CalendarService interface {
	Resolve(ctx context.Context, schoolID uint, date time.Time) (Resolution, error)
	CreateYear(ctx context.Context, schoolID uint, payload dto.YearCreateRequest) (dto.YearResponse, error)
	ListYears(ctx context.Context, schoolID uint) ([]dto.YearResponse, error)
}

type calendarService struct {
	repo      repository.AcademicRepository
	schools   repository.SchoolRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCalendarService constructs the calendar service.
func NewCalendarService(repo repository.AcademicRepository, schools repository.SchoolRepository, validator *validator.Validate, logger zerolog.Logger) CalendarService {
	return &calendarService{
		repo:      repo,
		schools:   schools,
		validator: validator,
		logger:    logger.With().Str("component", "calendar_service").Logger(),
	}
}

// Resolve finds the academic year and term containing date, creating missing
// years with the default term pattern when the date falls beyond existing
// data. Repeated calls with the same arguments never create duplicate years.
func (s *calendarService) Resolve(ctx context.Context, schoolID uint, date time.Time) (Resolution, error) {
	if _, err := s.schools.GetSchool(ctx, schoolID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Resolution{}, ErrSchoolNotFound
		}
		return Resolution{}, err
	}

	day := models.DateOnly(date)

	// Fast path: the date sits inside an existing term.
	term, err := s.repo.FindTermContaining(ctx, schoolID, day)
	if err == nil {
		t := term
		return Resolution{Year: term.Year, Term: &t}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Resolution{}, err
	}

	// Walk existing years, then extend the calendar forward one year at a
	// time until the date is covered. The switchover rule bounds the walk:
	// once a year starting past the date's academic year exists, locate
	// lands the date in a term, an inter-term gap, or the summer stretch.
	for {
		years, err := s.repo.ListYears(ctx, schoolID)
		if err != nil {
			return Resolution{}, err
		}

		if len(years) == 0 {
			if err := s.createDefaultYear(ctx, schoolID, switchoverYear(day)); err != nil {
				return Resolution{}, err
			}
			continue
		}

		for _, year := range years {
			if res, ok := locate(year, day); ok {
				return res, nil
			}
		}

		last := years[len(years)-1]
		if last.StartYear > switchoverYear(day) {
			break
		}
		if err := s.createDefaultYear(ctx, schoolID, last.StartYear+1); err != nil {
			return Resolution{}, err
		}
	}

	s.logger.Error().Uint("school_id", schoolID).Time("date", day).Msg("date still unresolved after extending calendar")
	return Resolution{}, ErrYearUnresolved
}

// locate places day inside one year: a term hit, an inter-term gap, or the
// summer stretch before the first term.
func locate(year models.AcademicYear, day time.Time) (Resolution, bool) {
	if len(year.Terms) == 0 {
		return Resolution{}, false
	}

	for i := range year.Terms {
		if year.Terms[i].Contains(day) {
			t := year.Terms[i]
			return Resolution{Year: year, Term: &t}, true
		}
	}

	first := models.DateOnly(year.Terms[0].StartDate)
	lastEnd := models.DateOnly(year.Terms[len(year.Terms)-1].EndDate)

	if day.Before(first) {
		return Resolution{Year: year, Vacation: VacationSummer}, true
	}
	if day.After(lastEnd) {
		return Resolution{}, false
	}

	// Inside the year span but outside every term.
	vacation := "vacation"
	for i := 0; i+1 < len(year.Terms); i++ {
		gapStart := models.DateOnly(year.Terms[i].EndDate)
		gapEnd := models.DateOnly(year.Terms[i+1].StartDate)
		if day.After(gapStart) && day.Before(gapEnd) {
			switch year.Terms[i].TermNumber {
			case 1:
				vacation = VacationChristmas
			case 2:
				vacation = VacationEaster
			}
		}
	}
	return Resolution{Year: year, Vacation: vacation}, true
}

func (s *calendarService) createDefaultYear(ctx context.Context, schoolID uint, startYear int) error {
	year := models.AcademicYear{
		SchoolID:  schoolID,
		StartYear: startYear,
		Terms:     defaultTerms(startYear),
	}
	if err := s.repo.CreateYearWithTerms(ctx, &year); err != nil {
		return err
	}
	observability.YearsAutoCreated().Inc()
	s.logger.Info().Uint("school_id", schoolID).Int("start_year", startYear).Msg("academic year auto-created")
	return nil
}

// switchoverYear maps a calendar date to the academic year it belongs to:
// September onward starts a new year, earlier months belong to the previous.
func switchoverYear(day time.Time) int {
	if day.Month() >= time.September {
		return day.Year()
	}
	return day.Year() - 1
}

// defaultTerms builds the standard three-term pattern for startYear.
func defaultTerms(startYear int) []models.Term {
	date := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return []models.Term{
		{TermNumber: 1, StartDate: date(startYear, time.September, 1), EndDate: date(startYear, time.December, 15), SchoolDays: 70},
		{TermNumber: 2, StartDate: date(startYear+1, time.January, 8), EndDate: date(startYear+1, time.April, 12), SchoolDays: 65},
		{TermNumber: 3, StartDate: date(startYear+1, time.April, 22), EndDate: date(startYear+1, time.July, 5), SchoolDays: 55},
	}
}

// CreateYear registers an explicitly configured year. Term spans must be
// well formed; malformed calendars are rejected here so resolve never has
// to arbitrate overlapping data.
func (s *calendarService) CreateYear(ctx context.Context, schoolID uint, payload dto.YearCreateRequest) (dto.YearResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.YearResponse{}, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}
	if _, err := s.schools.GetSchool(ctx, schoolID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.YearResponse{}, ErrSchoolNotFound
		}
		return dto.YearResponse{}, err
	}

	terms := make([]models.Term, 0, len(payload.Terms))
	for _, input := range payload.Terms {
		start, err := time.ParseInLocation(time.DateOnly, input.StartDate, time.UTC)
		if err != nil {
			return dto.YearResponse{}, fmt.Errorf("%w: term %d start date: %s", ErrConfiguration, input.TermNumber, err.Error())
		}
		end, err := time.ParseInLocation(time.DateOnly, input.EndDate, time.UTC)
		if err != nil {
			return dto.YearResponse{}, fmt.Errorf("%w: term %d end date: %s", ErrConfiguration, input.TermNumber, err.Error())
		}
		terms = append(terms, models.Term{
			TermNumber: input.TermNumber,
			StartDate:  start,
			EndDate:    end,
			SchoolDays: input.SchoolDays,
		})
	}

	sort.Slice(terms, func(i, j int) bool { return terms[i].TermNumber < terms[j].TermNumber })
	if err := validateTermSpans(terms); err != nil {
		return dto.YearResponse{}, err
	}

	if _, err := s.repo.GetYearByStart(ctx, schoolID, payload.StartYear); err == nil {
		return dto.YearResponse{}, fmt.Errorf("%w: year %d already exists for school", ErrConflict, payload.StartYear)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.YearResponse{}, err
	}

	year := models.AcademicYear{SchoolID: schoolID, StartYear: payload.StartYear, Terms: terms}
	if err := s.repo.CreateYearWithTerms(ctx, &year); err != nil {
		return dto.YearResponse{}, err
	}

	s.logger.Info().Uint("school_id", schoolID).Int("start_year", payload.StartYear).Msg("academic year created")
	return dto.NewYearResponse(year), nil
}

func validateTermSpans(terms []models.Term) error {
	seen := make(map[int]bool, len(terms))
	for _, t := range terms {
		if seen[t.TermNumber] {
			return fmt.Errorf("%w: duplicate term number %d", ErrConfiguration, t.TermNumber)
		}
		seen[t.TermNumber] = true
		if !t.StartDate.Before(t.EndDate) {
			return fmt.Errorf("%w: term %d starts on or after its end", ErrConfiguration, t.TermNumber)
		}
	}
	for n := 1; n < len(terms); n++ {
		prev, cur := terms[n-1], terms[n]
		if cur.TermNumber != prev.TermNumber+1 {
			return fmt.Errorf("%w: term numbers must be consecutive", ErrConfiguration)
		}
		if !prev.EndDate.Before(cur.StartDate) {
			return fmt.Errorf("%w: term %d overlaps term %d", ErrConfiguration, prev.TermNumber, cur.TermNumber)
		}
	}
	return nil
}

func (s *calendarService) ListYears(ctx context.Context, schoolID uint) ([]dto.YearResponse, error) {
	if _, err := s.schools.GetSchool(ctx, schoolID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSchoolNotFound
		}
		return nil, err
	}

	years, err := s.repo.ListYears(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	responses := make([]dto.YearResponse, 0, len(years))
	for _, y := range years {
		responses = append(responses, dto.NewYearResponse(y))
	}
	return responses, nil
}
