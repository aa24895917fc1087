package application

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/cashflow/internal/reconciliation/domain"
	"github.com/wyfcoding/cashflow/pkg/errs"
)

// WriteVarianceCSV 导出方差报告，置信度以百分比呈现
func WriteVarianceCSV(matches []domain.VarianceMatch) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"ProjectID", "ItemType", "ItemID",
		"ForecastAmount", "ForecastDate", "ActualAmount", "ActualDate",
		"AmountVariance", "TimingVarianceDays", "Confidence",
		"Status", "ExternalTxnID", "ExternalTxnType",
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	hundred := decimal.NewFromInt(100)
	for _, m := range matches {
		record := []string{
			strconv.FormatUint(uint64(m.ProjectID), 10),
			m.CashEventType,
			strconv.FormatUint(uint64(m.CashEventID), 10),
			m.ForecastAmount.StringFixed(2),
			m.ForecastDate.Format("2006-01-02"),
			m.ActualAmount.StringFixed(2),
			m.ActualDate.Format("2006-01-02"),
			m.AmountVariance.StringFixed(2),
			strconv.Itoa(m.TimingVarianceDays),
			m.ConfidenceScore.Mul(hundred).StringFixed(1) + "%",
			string(m.Status),
			m.ExternalID,
			m.ExternalType,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errs.Upstreamf(err, "flush variance csv")
	}
	return buf.Bytes(), nil
}
