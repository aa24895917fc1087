package application

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/cashflow/internal/organization/domain"
)

type CreateOrganizationCmd struct {
	Name            string
	StartingBalance decimal.Decimal
}

type CreateProjectCmd struct {
	OrganizationID uint
	Name           string
}

type CreateMilestoneCmd struct {
	OrganizationID       uint
	ProjectID            uint
	Name                 string
	Amount               decimal.Decimal
	Percentage           decimal.Decimal
	ExpectedDate         time.Time
	RetentionAmount      decimal.Decimal
	RetentionPercentage  decimal.Decimal
	RetentionReleaseDays int
}

type CreateClaimCmd struct {
	OrganizationID uint
	ProjectID      uint
	Supplier       string
	Amount         decimal.Decimal
	ExpectedDate   time.Time
}

type CreateLineCmd struct {
	OrganizationID uint
	Name           string
	Direction      domain.Direction
	Amount         decimal.Decimal
	Frequency      domain.Frequency
	StartDate      time.Time
	InflationRate  decimal.Decimal
	EscalationRate decimal.Decimal
}
