package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iliyamo/careers-portal/internal/access"
	"github.com/iliyamo/careers-portal/internal/model"
)

// IndustryInput is the editable part of an industry.
type IndustryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

// DeleteResult reports how many jobs lost their industry.  Warning is set
// when that number is non-zero.
type DeleteResult struct {
	AffectedJobs int64  `json:"affected_jobs"`
	Warning      string `json:"warning,omitempty"`
}

type IndustryService struct {
	industries IndustryStore
	cache      CacheInvalidator
	log        zerolog.Logger
}

func NewIndustryService(industries IndustryStore, cache CacheInvalidator, log zerolog.Logger) *IndustryService {
	if cache == nil {
		cache = noopCache{}
	}
	return &IndustryService{industries: industries, cache: cache, log: log.With().Str("service", "industries").Logger()}
}

func (in *IndustryInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return invalid("name is required")
	}
	if len(in.Name) > 150 {
		return invalid("name must be at most 150 characters")
	}
	return nil
}

// List returns every industry to staff and only active ones otherwise.
func (s *IndustryService) List(ctx context.Context, actor *access.Actor) ([]*model.Industry, error) {
	activeOnly := actor == nil || !access.HasPermission(*actor, access.IndustriesView)
	out, err := s.industries.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*model.Industry{}
	}
	return out, nil
}

func (s *IndustryService) Get(ctx context.Context, actor access.Actor, id uint64) (*model.Industry, error) {
	if err := require(actor, access.IndustriesView); err != nil {
		return nil, err
	}
	return s.industries.GetByID(ctx, id)
}

func (s *IndustryService) Create(ctx context.Context, actor access.Actor, in IndustryInput) (*model.Industry, error) {
	if err := require(actor, access.IndustriesManage); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	ind := &model.Industry{Name: in.Name, Description: in.Description, IsActive: true}
	if in.IsActive != nil {
		ind.IsActive = *in.IsActive
	}
	if err := s.industries.Create(ctx, ind); err != nil {
		return nil, err
	}
	s.log.Info().Uint64("industry_id", ind.ID).Str("name", ind.Name).Uint64("actor", actor.UserID).Msg("industry created")
	return ind, nil
}

func (s *IndustryService) Update(ctx context.Context, actor access.Actor, id uint64, in IndustryInput) (*model.Industry, error) {
	if err := require(actor, access.IndustriesManage); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	ind, err := s.industries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ind.Name, ind.Description = in.Name, in.Description
	if in.IsActive != nil {
		ind.IsActive = *in.IsActive
	}
	if err := s.industries.Update(ctx, ind); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.log.Info().Uint64("industry_id", id).Uint64("actor", actor.UserID).Msg("industry updated")
	return s.industries.GetByID(ctx, id)
}

// Delete removes an industry.  Its jobs stay, without an industry.
func (s *IndustryService) Delete(ctx context.Context, actor access.Actor, id uint64) (DeleteResult, error) {
	if err := require(actor, access.IndustriesManage); err != nil {
		return DeleteResult{}, err
	}
	n, err := s.industries.Delete(ctx, id)
	if err != nil {
		return DeleteResult{}, err
	}
	res := DeleteResult{AffectedJobs: n}
	if n > 0 {
		res.Warning = "jobs previously in this industry are now uncategorized"
		s.invalidate(ctx)
	}
	s.log.Info().Uint64("industry_id", id).Int64("affected_jobs", n).Uint64("actor", actor.UserID).Msg("industry deleted")
	return res, nil
}

func (s *IndustryService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("job cache invalidation failed")
	}
}
