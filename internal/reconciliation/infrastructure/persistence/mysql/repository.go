// Package mysql 对账匹配结果的 GORM 持久化实现
package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/wyfcoding/cashflow/internal/reconciliation/domain"
	"github.com/wyfcoding/cashflow/pkg/errs"
)

type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(db *gorm.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// ReplaceForOrganization 事务内替换组织的全部匹配结果，
// 对账重跑不会留下上一轮的残留记录
func (r *MatchRepository) ReplaceForOrganization(ctx context.Context, orgID uint, matches []domain.VarianceMatch) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().
			Where("organization_id = ?", orgID).
			Delete(&domain.VarianceMatch{}).Error; err != nil {
			return err
		}
		if len(matches) == 0 {
			return nil
		}
		return tx.Create(&matches).Error
	})
	if err != nil {
		return errs.Upstreamf(err, "replace variance matches")
	}
	return nil
}

func (r *MatchRepository) ListByOrganization(ctx context.Context, orgID, projectID uint) ([]domain.VarianceMatch, error) {
	db := r.db.WithContext(ctx).Where("organization_id = ?", orgID)
	if projectID != 0 {
		db = db.Where("project_id = ?", projectID)
	}

	var matches []domain.VarianceMatch
	if err := db.Order("forecast_date, id").Find(&matches).Error; err != nil {
		return nil, errs.Upstreamf(err, "list variance matches")
	}
	return matches, nil
}

func (r *MatchRepository) GetByID(ctx context.Context, id uint) (*domain.VarianceMatch, error) {
	var match domain.VarianceMatch
	if err := r.db.WithContext(ctx).First(&match, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFoundf("variance match %d not found", id)
		}
		return nil, errs.Upstreamf(err, "get variance match")
	}
	return &match, nil
}

func (r *MatchRepository) Save(ctx context.Context, match *domain.VarianceMatch) error {
	if err := r.db.WithContext(ctx).Save(match).Error; err != nil {
		return errs.Upstreamf(err, "save variance match")
	}
	return nil
}
