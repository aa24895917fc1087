package domain

import (
	"context"
)

type OrganizationRepository interface {
	Save(ctx context.Context, org *Organization) error
	GetByID(ctx context.Context, id uint) (*Organization, error)
}

type ProjectRepository interface {
	Save(ctx context.Context, project *Project) error
	GetByID(ctx context.Context, id uint) (*Project, error)
	ListByOrganization(ctx context.Context, orgID uint) ([]Project, error)
}

type MilestoneRepository interface {
	Save(ctx context.Context, milestone *Milestone) error
	GetByID(ctx context.Context, id uint) (*Milestone, error)
	ListByOrganization(ctx context.Context, orgID uint) ([]Milestone, error)
	ListByProject(ctx context.Context, projectID uint) ([]Milestone, error)
}

type SupplierClaimRepository interface {
	Save(ctx context.Context, claim *SupplierClaim) error
	GetByID(ctx context.Context, id uint) (*SupplierClaim, error)
	ListByOrganization(ctx context.Context, orgID uint) ([]SupplierClaim, error)
	ListByProject(ctx context.Context, projectID uint) ([]SupplierClaim, error)
}

type ForecastLineRepository interface {
	Save(ctx context.Context, line *ForecastLine) error
	GetByID(ctx context.Context, id uint) (*ForecastLine, error)
	ListByOrganization(ctx context.Context, orgID uint) ([]ForecastLine, error)
	Delete(ctx context.Context, id uint) error
}
