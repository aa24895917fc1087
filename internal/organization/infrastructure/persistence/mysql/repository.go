// Package mysql 主数据的 GORM 持久化实现
package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/wyfcoding/cashflow/internal/organization/domain"
	"github.com/wyfcoding/cashflow/pkg/errs"
)

type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) Save(ctx context.Context, org *domain.Organization) error {
	if err := r.db.WithContext(ctx).Save(org).Error; err != nil {
		return errs.Upstreamf(err, "save organization")
	}
	return nil
}

func (r *OrganizationRepository) GetByID(ctx context.Context, id uint) (*domain.Organization, error) {
	var org domain.Organization
	if err := r.db.WithContext(ctx).First(&org, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFoundf("organization %d", id)
		}
		return nil, errs.Upstreamf(err, "get organization")
	}
	return &org, nil
}

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Save(ctx context.Context, project *domain.Project) error {
	if err := r.db.WithContext(ctx).Save(project).Error; err != nil {
		return errs.Upstreamf(err, "save project")
	}
	return nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id uint) (*domain.Project, error) {
	var project domain.Project
	if err := r.db.WithContext(ctx).First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFoundf("project %d", id)
		}
		return nil, errs.Upstreamf(err, "get project")
	}
	return &project, nil
}

func (r *ProjectRepository) ListByOrganization(ctx context.Context, orgID uint) ([]domain.Project, error) {
	var projects []domain.Project
	if err := r.db.WithContext(ctx).Where("organization_id = ?", orgID).Find(&projects).Error; err != nil {
		return nil, errs.Upstreamf(err, "list projects")
	}
	return projects, nil
}

type MilestoneRepository struct {
	db *gorm.DB
}

func NewMilestoneRepository(db *gorm.DB) *MilestoneRepository {
	return &MilestoneRepository{db: db}
}

func (r *MilestoneRepository) Save(ctx context.Context, milestone *domain.Milestone) error {
	if err := r.db.WithContext(ctx).Save(milestone).Error; err != nil {
		return errs.Upstreamf(err, "save milestone")
	}
	return nil
}

func (r *MilestoneRepository) GetByID(ctx context.Context, id uint) (*domain.Milestone, error) {
	var milestone domain.Milestone
	if err := r.db.WithContext(ctx).First(&milestone, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFoundf("milestone %d", id)
		}
		return nil, errs.Upstreamf(err, "get milestone")
	}
	return &milestone, nil
}

func (r *MilestoneRepository) ListByOrganization(ctx context.Context, orgID uint) ([]domain.Milestone, error) {
	var milestones []domain.Milestone
	if err := r.db.WithContext(ctx).Where("organization_id = ?", orgID).Find(&milestones).Error; err != nil {
		return nil, errs.Upstreamf(err, "list milestones")
	}
	return milestones, nil
}

func (r *MilestoneRepository) ListByProject(ctx context.Context, projectID uint) ([]domain.Milestone, error) {
	var milestones []domain.Milestone
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Find(&milestones).Error; err != nil {
		return nil, errs.Upstreamf(err, "list milestones by project")
	}
	return milestones, nil
}

type SupplierClaimRepository struct {
	db *gorm.DB
}

func NewSupplierClaimRepository(db *gorm.DB) *SupplierClaimRepository {
	return &SupplierClaimRepository{db: db}
}

func (r *SupplierClaimRepository) Save(ctx context.Context, claim *domain.SupplierClaim) error {
	if err := r.db.WithContext(ctx).Save(claim).Error; err != nil {
		return errs.Upstreamf(err, "save supplier claim")
	}
	return nil
}

func (r *SupplierClaimRepository) GetByID(ctx context.Context, id uint) (*domain.SupplierClaim, error) {
	var claim domain.SupplierClaim
	if err := r.db.WithContext(ctx).First(&claim, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFoundf("supplier claim %d", id)
		}
		return nil, errs.Upstreamf(err, "get supplier claim")
	}
	return &claim, nil
}

func (r *SupplierClaimRepository) ListByOrganization(ctx context.Context, orgID uint) ([]domain.SupplierClaim, error) {
	var claims []domain.SupplierClaim
	if err := r.db.WithContext(ctx).Where("organization_id = ?", orgID).Find(&claims).Error; err != nil {
		return nil, errs.Upstreamf(err, "list supplier claims")
	}
	return claims, nil
}

func (r *SupplierClaimRepository) ListByProject(ctx context.Context, projectID uint) ([]domain.SupplierClaim, error) {
	var claims []domain.SupplierClaim
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Find(&claims).Error; err != nil {
		return nil, errs.Upstreamf(err, "list supplier claims by project")
	}
	return claims, nil
}

type ForecastLineRepository struct {
	db *gorm.DB
}

func NewForecastLineRepository(db *gorm.DB) *ForecastLineRepository {
	return &ForecastLineRepository{db: db}
}

func (r *ForecastLineRepository) Save(ctx context.Context, line *domain.ForecastLine) error {
	if err := r.db.WithContext(ctx).Save(line).Error; err != nil {
		return errs.Upstreamf(err, "save forecast line")
	}
	return nil
}

func (r *ForecastLineRepository) GetByID(ctx context.Context, id uint) (*domain.ForecastLine, error) {
	var line domain.ForecastLine
	if err := r.db.WithContext(ctx).First(&line, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFoundf("forecast line %d", id)
		}
		return nil, errs.Upstreamf(err, "get forecast line")
	}
	return &line, nil
}

func (r *ForecastLineRepository) ListByOrganization(ctx context.Context, orgID uint) ([]domain.ForecastLine, error) {
	var lines []domain.ForecastLine
	if err := r.db.WithContext(ctx).Where("organization_id = ?", orgID).Find(&lines).Error; err != nil {
		return nil, errs.Upstreamf(err, "list forecast lines")
	}
	return lines, nil
}

func (r *ForecastLineRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&domain.ForecastLine{}, id).Error; err != nil {
		return errs.Upstreamf(err, "delete forecast line")
	}
	return nil
}
