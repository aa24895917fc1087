package application

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/wyfcoding/cashflow/internal/forecast/domain"
	"github.com/wyfcoding/cashflow/pkg/errs"
)

// WriteCSV 把分桶结果导出为表格，金额两位小数
func WriteCSV(periods []domain.Period) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"Period", "Income", "Outgo", "Net", "Balance"}); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, p := range periods {
		record := []string{
			p.Key,
			p.Income.StringFixed(2),
			p.Outgo.StringFixed(2),
			p.Net.StringFixed(2),
			p.Balance.StringFixed(2),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errs.Upstreamf(err, "flush forecast csv")
	}
	return buf.Bytes(), nil
}
