package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/marigot-labs/school-report-api/internal/dto"
	"github.com/marigot-labs/school-report-api/internal/models"
	"github.com/marigot-labs/school-report-api/internal/repository"
)

// SubjectService administers the subjects taught to a class in a year.
type SubjectService interface {
	Create(ctx context.Context, payload dto.SubjectCreateRequest, actor ActivityActor) (dto.SubjectResponse, error)
	List(ctx context.Context, yearID, standardID uint) ([]dto.SubjectResponse, error)
}

type subjectService struct {
	repo      repository.StandardSubjectRepository
	academic  repository.AcademicRepository
	schools   repository.SchoolRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSubjectService constructs the subject service.
func NewSubjectService(repo repository.StandardSubjectRepository, academic repository.AcademicRepository, schools repository.SchoolRepository, validator *validator.Validate, logger zerolog.Logger) SubjectService {
	return &subjectService{
		repo:      repo,
		academic:  academic,
		schools:   schools,
		validator: validator,
		logger:    logger.With().Str("component", "subject_service").Logger(),
	}
}

func (s *subjectService) Create(ctx context.Context, payload dto.SubjectCreateRequest, actor ActivityActor) (dto.SubjectResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubjectResponse{}, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	year, err := s.academic.GetYear(ctx, payload.YearID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubjectResponse{}, fmt.Errorf("%w: year %d", ErrValidation, payload.YearID)
		}
		return dto.SubjectResponse{}, err
	}
	standard, err := s.schools.GetStandard(ctx, payload.StandardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubjectResponse{}, ErrStandardNotFound
		}
		return dto.SubjectResponse{}, err
	}
	if standard.SchoolID != year.SchoolID {
		return dto.SubjectResponse{}, fmt.Errorf("%w: standard %d belongs to another school", ErrValidation, payload.StandardID)
	}

	name := strings.TrimSpace(payload.Name)
	existing, err := s.repo.ListByStandardYear(ctx, payload.StandardID, payload.YearID)
	if err != nil {
		return dto.SubjectResponse{}, err
	}
	for _, subj := range existing {
		if strings.EqualFold(subj.Name, name) {
			return dto.SubjectResponse{}, fmt.Errorf("%w: subject %q already registered", ErrConflict, name)
		}
	}

	subject := models.StandardSubject{
		YearID:      payload.YearID,
		StandardID:  payload.StandardID,
		Name:        name,
		Description: strings.TrimSpace(payload.Description),
		CreatedBy:   actor.ID,
	}
	if err := s.repo.Create(ctx, &subject); err != nil {
		return dto.SubjectResponse{}, err
	}

	s.logger.Info().Uint("year_id", payload.YearID).Uint("standard_id", payload.StandardID).Str("name", name).Msg("subject registered")
	return dto.NewSubjectResponse(subject), nil
}

func (s *subjectService) List(ctx context.Context, yearID, standardID uint) ([]dto.SubjectResponse, error) {
	subjects, err := s.repo.ListByStandardYear(ctx, standardID, yearID)
	if err != nil {
		return nil, err
	}
	responses := make([]dto.SubjectResponse, 0, len(subjects))
	for _, subj := range subjects {
		responses = append(responses, dto.NewSubjectResponse(subj))
	}
	return responses, nil
}
