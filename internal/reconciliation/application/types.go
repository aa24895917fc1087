package application

import (
	ledgerdomain "github.com/wyfcoding/cashflow/internal/ledger/domain"
)

type ReconcileCmd struct {
	OrganizationID uint
	Basis          ledgerdomain.Basis
}

type ReconcileResult struct {
	MatchedCount           int `json:"matched_count"`
	UnmatchedForecastCount int `json:"unmatched_forecast_count"`
	UnmatchedActualCount   int `json:"unmatched_actual_count"`
}
