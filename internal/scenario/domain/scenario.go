// Package domain 假设情景（what-if）：针对单个计划事件的日期/金额偏移，
// 以及把偏移应用到事件快照上的纯函数解析器
package domain

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	forecast "github.com/wyfcoding/cashflow/internal/forecast/domain"
	"github.com/wyfcoding/cashflow/pkg/errs"
)

type EntityType string

const (
	EntityMilestone     EntityType = "milestone"
	EntitySupplierClaim EntityType = "supplier_claim"
	EntityMaterialOrder EntityType = "material_order"
)

// Scenario 情景。每个组织恰好有一个 IsBase 情景，基准情景不可修改也不挂偏移。
type Scenario struct {
	gorm.Model
	OrganizationID uint   `gorm:"column:organization_id;uniqueIndex:idx_org_name;not null"`
	Name           string `gorm:"column:name;type:varchar(128);uniqueIndex:idx_org_name;not null"`
	IsBase         bool   `gorm:"column:is_base;not null;default:false"`
}

func (Scenario) TableName() string { return "scenarios" }

// Shift 情景偏移。(scenario, entity_type, entity_id) 唯一，写入即 upsert，
// 重复提交同一偏移只保留一份，不会叠加。
type Shift struct {
	gorm.Model
	ScenarioID  uint            `gorm:"column:scenario_id;uniqueIndex:idx_scenario_entity;not null"`
	EntityType  EntityType      `gorm:"column:entity_type;type:varchar(32);uniqueIndex:idx_scenario_entity;not null"`
	EntityID    uint            `gorm:"column:entity_id;uniqueIndex:idx_scenario_entity;not null"`
	DaysShift   int             `gorm:"column:days_shift;not null;default:0"`
	AmountShift decimal.Decimal `gorm:"column:amount_shift;type:decimal(20,2)"`
}

func (Shift) TableName() string { return "scenario_shifts" }

type shiftKey struct {
	entityType EntityType
	entityID   uint
}

// Resolver 把情景偏移应用到事件快照上。构造后不可变，Apply 无副作用。
type Resolver struct {
	orgID  uint
	isBase bool
	shifts map[shiftKey]Shift
}

// NewResolver 从已加载的情景与偏移构造解析器。基准情景忽略一切偏移。
func NewResolver(scenario *Scenario, shifts []Shift) *Resolver {
	r := &Resolver{
		orgID:  scenario.OrganizationID,
		isBase: scenario.IsBase,
		shifts: make(map[shiftKey]Shift, len(shifts)),
	}
	if scenario.IsBase {
		return r
	}
	for _, s := range shifts {
		// map 语义保证同一实体至多一个生效偏移
		r.shifts[shiftKey{s.EntityType, s.EntityID}] = s
	}
	return r
}

// Apply 返回应用偏移后的事件副本：日期加 DaysShift，金额加 AmountShift。
// 金额下限为零——偏移只能削减到零，不能反转收支方向（设计取舍：
// 静默丢弃事件会让情景对比失真，反号则破坏方向不变量）。
// 偏移引用了不属于该情景所属组织的实体时返回校验错误。
func (r *Resolver) Apply(ev forecast.CashEvent) (forecast.CashEvent, error) {
	if r.isBase {
		return ev, nil
	}

	shift, ok := r.shifts[shiftKey{EntityType(ev.Kind), ev.EntityID}]
	if !ok {
		return ev, nil
	}
	if ev.OrganizationID != r.orgID {
		return ev, errs.Validationf("shift on %s %d references an entity outside organization %d",
			ev.Kind, ev.EntityID, r.orgID)
	}

	adjusted := ev
	adjusted.Date = ev.Date.AddDate(0, 0, shift.DaysShift)
	adjusted.Amount = ev.Amount.Add(shift.AmountShift)
	if adjusted.Amount.IsNegative() {
		adjusted.Amount = decimal.Zero
	}
	return adjusted, nil
}
