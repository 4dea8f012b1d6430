package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	jsoniter "github.com/json-iterator/go"

	"portfolio_aggregator/internal/app/bootstrap"
	"portfolio_aggregator/internal/domain/entity"
	"portfolio_aggregator/internal/infrastructure/configloader"
	"portfolio_aggregator/internal/pkg/logger"
)

// report is what the checker prints to stdout.
type report struct {
	Portfolios []entity.WalletPortfolio `json:"portfolios"`
	Errors     []entity.PortfolioError  `json:"errors,omitempty"`
	Jobs       []entity.JobStatus       `json:"jobs"`
}

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()

	cfgPath := flag.String("config", configloader.PathFromEnv(), "path to the YAML configuration")
	timeout := flag.Duration("timeout", 3*time.Minute, "overall deadline for jobs and fetchers")
	pretty := flag.Bool("pretty", false, "indent JSON output")
	flag.Parse()

	cfg, err := configloader.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration from %s: %v\n", *cfgPath, err)
		return 1
	}
	zapLogger, err := logger.NewZap(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize zap logger: %v\n", err)
		return 1
	}
	defer zapLogger.Sync() //nolint:errcheck
	logger.SetDefault(zapLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	app, err := bootstrap.New(ctx, cfg, zapLogger, bootstrap.Options{})
	if err != nil {
		logger.Error("Failed to build application", "error", err)
		return 1
	}
	defer func() {
		if err := app.Close(context.Background()); err != nil {
			logger.Error("Failed to release resources", "error", err)
		}
	}()

	owners := flag.Args()
	if len(owners) == 0 {
		wallets, err := app.Wallets.GetWallets()
		if err != nil {
			logger.Error("Failed to load wallets", "file", cfg.WalletsFile, "error", err)
			return 1
		}
		for _, w := range wallets {
			owners = append(owners, w.Address)
		}
	}
	if len(owners) == 0 {
		logger.Error("No owners given: pass addresses as arguments or fill the wallets file", "file", cfg.WalletsFile)
		return 1
	}

	// Один прогон всех задач заполняет кэш перед чтением позиций.
	if err := app.Jobs.RunAll(ctx); err != nil {
		logger.Warn("Some jobs failed, portfolios may be incomplete", "error", err)
	}

	portfolios, perrs := app.Portfolio.FetchPortfolios(ctx, owners)
	out := report{Portfolios: portfolios, Errors: perrs, Jobs: app.Jobs.Statuses()}

	var data []byte
	if *pretty {
		data, err = jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(out, "", "  ")
	} else {
		data, err = jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(out)
	}
	if err != nil {
		logger.Error("Failed to encode report", "error", err)
		return 1
	}
	fmt.Println(string(data))

	if len(perrs) > 0 {
		return 2
	}
	return 0
}
