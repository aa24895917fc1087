// Package mysql 情景与偏移的 GORM 持久化实现
package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wyfcoding/cashflow/internal/scenario/domain"
	"github.com/wyfcoding/cashflow/pkg/errs"
)

type ScenarioRepository struct {
	db *gorm.DB
}

func NewScenarioRepository(db *gorm.DB) *ScenarioRepository {
	return &ScenarioRepository{db: db}
}

func (r *ScenarioRepository) Save(ctx context.Context, scenario *domain.Scenario) error {
	if err := r.db.WithContext(ctx).Save(scenario).Error; err != nil {
		return errs.Upstreamf(err, "save scenario")
	}
	return nil
}

func (r *ScenarioRepository) GetByID(ctx context.Context, id uint) (*domain.Scenario, error) {
	var scenario domain.Scenario
	if err := r.db.WithContext(ctx).First(&scenario, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFoundf("scenario %d", id)
		}
		return nil, errs.Upstreamf(err, "get scenario")
	}
	return &scenario, nil
}

func (r *ScenarioRepository) GetBase(ctx context.Context, orgID uint) (*domain.Scenario, error) {
	var scenario domain.Scenario
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND is_base = ?", orgID, true).
		First(&scenario).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFoundf("base scenario for organization %d", orgID)
		}
		return nil, errs.Upstreamf(err, "get base scenario")
	}
	return &scenario, nil
}

func (r *ScenarioRepository) ListByOrganization(ctx context.Context, orgID uint) ([]domain.Scenario, error) {
	var scenarios []domain.Scenario
	if err := r.db.WithContext(ctx).Where("organization_id = ?", orgID).Find(&scenarios).Error; err != nil {
		return nil, errs.Upstreamf(err, "list scenarios")
	}
	return scenarios, nil
}

type ShiftRepository struct {
	db *gorm.DB
}

func NewShiftRepository(db *gorm.DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

// Upsert 冲突时更新偏移量而不是追加，保证同一实体只有一个生效偏移
func (r *ShiftRepository) Upsert(ctx context.Context, shift *domain.Shift) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "scenario_id"},
			{Name: "entity_type"},
			{Name: "entity_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"days_shift", "amount_shift", "updated_at"}),
	}).Create(shift).Error
	if err != nil {
		return errs.Upstreamf(err, "upsert shift")
	}
	return nil
}

func (r *ShiftRepository) Delete(ctx context.Context, scenarioID uint, entityType domain.EntityType, entityID uint) error {
	err := r.db.WithContext(ctx).
		Where("scenario_id = ? AND entity_type = ? AND entity_id = ?", scenarioID, entityType, entityID).
		Delete(&domain.Shift{}).Error
	if err != nil {
		return errs.Upstreamf(err, "delete shift")
	}
	return nil
}

func (r *ShiftRepository) ListByScenario(ctx context.Context, scenarioID uint) ([]domain.Shift, error) {
	var shifts []domain.Shift
	if err := r.db.WithContext(ctx).Where("scenario_id = ?", scenarioID).Find(&shifts).Error; err != nil {
		return nil, errs.Upstreamf(err, "list shifts")
	}
	return shifts, nil
}
