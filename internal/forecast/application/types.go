package application

import (
	"time"

	"github.com/wyfcoding/cashflow/internal/forecast/domain"
)

// GenerateQuery 一次预测请求。Now 为空时取服务时钟
type GenerateQuery struct {
	OrganizationID uint
	ProjectID      uint
	ScenarioID     uint
	Start          time.Time
	End            time.Time
	Granularity    domain.Granularity
	Basis          domain.Basis
	Now            time.Time
}

type ForecastResult struct {
	Periods []domain.Period `json:"periods"`
	Summary domain.Summary  `json:"summary"`
}
