package domain

import (
	"context"
)

type ScenarioRepository interface {
	Save(ctx context.Context, scenario *Scenario) error
	GetByID(ctx context.Context, id uint) (*Scenario, error)
	// GetBase 返回组织的基准情景，不存在时返回 errs.ErrNotFound
	GetBase(ctx context.Context, orgID uint) (*Scenario, error)
	ListByOrganization(ctx context.Context, orgID uint) ([]Scenario, error)
}

type ShiftRepository interface {
	// Upsert 以 (scenario, entity_type, entity_id) 为键写入偏移
	Upsert(ctx context.Context, shift *Shift) error
	Delete(ctx context.Context, scenarioID uint, entityType EntityType, entityID uint) error
	ListByScenario(ctx context.Context, scenarioID uint) ([]Shift, error)
}
