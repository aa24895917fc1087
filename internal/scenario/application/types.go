package application

import (
	"github.com/shopspring/decimal"

	"github.com/wyfcoding/cashflow/internal/scenario/domain"
)

type UpsertShiftCmd struct {
	ScenarioID  uint
	EntityType  domain.EntityType
	EntityID    uint
	DaysShift   int
	AmountShift decimal.Decimal
}
