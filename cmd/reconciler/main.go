// 批处理对账入口：对单个组织跑一轮匹配，可选导出方差报告，
// 供定时任务在账本同步完成后调用。
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	ledgerdomain "github.com/wyfcoding/cashflow/internal/ledger/domain"
	ledgermysql "github.com/wyfcoding/cashflow/internal/ledger/infrastructure/persistence/mysql"
	orgmysql "github.com/wyfcoding/cashflow/internal/organization/infrastructure/persistence/mysql"
	reconapp "github.com/wyfcoding/cashflow/internal/reconciliation/application"
	recondomain "github.com/wyfcoding/cashflow/internal/reconciliation/domain"
	reconmsg "github.com/wyfcoding/cashflow/internal/reconciliation/infrastructure/messaging"
	reconmysql "github.com/wyfcoding/cashflow/internal/reconciliation/infrastructure/persistence/mysql"

	"github.com/wyfcoding/cashflow/pkg/config"
	"github.com/wyfcoding/cashflow/pkg/db"
	"github.com/wyfcoding/cashflow/pkg/logger"
)

func main() {
	var (
		configPath string
		orgID      uint
		basis      string
		csvPath    string
	)
	flag.StringVar(&configPath, "config", "configs/config.toml", "path to config file")
	flag.UintVar(&orgID, "org", 0, "organization id to reconcile")
	flag.StringVar(&basis, "basis", "accrual", "accounting basis: cash or accrual")
	flag.StringVar(&csvPath, "csv", "", "optional path to write the variance report")
	flag.Parse()

	if orgID == 0 {
		fmt.Fprintln(os.Stderr, "usage: reconciler -org <id> [-basis cash|accrual] [-csv report.csv]")
		os.Exit(2)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}
	log := logger.Get().With("service", "reconciler")

	database, err := db.Init(db.Config{
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect db failed: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	service := reconapp.NewReconciliationService(
		reconmysql.NewMatchRepository(database.DB),
		orgmysql.NewOrganizationRepository(database.DB),
		orgmysql.NewProjectRepository(database.DB),
		orgmysql.NewMilestoneRepository(database.DB),
		orgmysql.NewSupplierClaimRepository(database.DB),
		ledgermysql.NewTransactionRepository(database.DB),
		recondomain.Config{
			WindowDays:    cfg.Reconcile.WindowDays,
			AmountWeight:  cfg.Reconcile.AmountWeight,
			TimingWeight:  cfg.Reconcile.TimingWeight,
			MinConfidence: cfg.Reconcile.MinConfidence,
		},
		log,
	)
	if cfg.Kafka.Enabled {
		publisher := reconmsg.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.ReconcileTopic, log)
		defer publisher.Close()
		service.WithPublisher(publisher)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := service.Reconcile(ctx, reconapp.ReconcileCmd{
		OrganizationID: orgID,
		Basis:          ledgerdomain.Basis(basis),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "reconciliation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("matched=%d unmatched_forecast=%d unmatched_actual=%d\n",
		result.MatchedCount, result.UnmatchedForecastCount, result.UnmatchedActualCount)

	if csvPath != "" {
		matches, err := service.Matches(ctx, orgID, 0)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load matches failed: %v\n", err)
			os.Exit(1)
		}
		data, err := reconapp.WriteVarianceCSV(matches)
		if err != nil {
			fmt.Fprintf(os.Stderr, "write variance report failed: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(csvPath, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "write %s failed: %v\n", csvPath, err)
			os.Exit(1)
		}
		fmt.Printf("variance report written to %s\n", csvPath)
	}
}
