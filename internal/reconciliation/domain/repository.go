package domain

import "context"

// MatchRepository 匹配结果持久化。ReplaceForOrganization 在单个事务里
// 清掉组织的旧结果再写入新一轮，失败时整体回滚。
type MatchRepository interface {
	ReplaceForOrganization(ctx context.Context, orgID uint, matches []VarianceMatch) error
	ListByOrganization(ctx context.Context, orgID, projectID uint) ([]VarianceMatch, error)
	GetByID(ctx context.Context, id uint) (*VarianceMatch, error)
	Save(ctx context.Context, match *VarianceMatch) error
}
