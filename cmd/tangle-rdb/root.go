package main

import (
	"context"
	"fmt"
	"hash/fnv"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tangle-rdb/ingester/internal/config"
	"github.com/tangle-rdb/ingester/internal/counters"
	"github.com/tangle-rdb/ingester/internal/logging"
	"github.com/tangle-rdb/ingester/internal/mapper"
	"github.com/tangle-rdb/ingester/internal/metrics"
	"github.com/tangle-rdb/ingester/internal/pipeline"
	"github.com/tangle-rdb/ingester/internal/store"
	"github.com/tangle-rdb/ingester/internal/ternary"
	"github.com/tangle-rdb/ingester/internal/transport"
)

func bindFlags(cmd *cobra.Command) error {
	return config.BindFlags(cmd.Flags())
}

func runRoot(cmd *cobra.Command, args []string) error {
	logCfg, err := logging.LoadConfig(config.String(config.KeyLogConfig))
	if err != nil {
		return fmt.Errorf("load log config: %w", err)
	}
	log := logging.New(logCfg, config.Int(config.KeyVerbose) > 0)
	defer log.Sync()

	if config.String(config.KeyZMQ) == "" || config.String(config.KeyMySQL) == "" {
		return fmt.Errorf("--%s and --%s are required", config.KeyZMQ, config.KeyMySQL)
	}

	milestoneTag, err := ternary.TritsString(config.Int(config.KeyMilestoneStartIndex), 27)
	if err != nil {
		return fmt.Errorf("convert milestone start index: %w", err)
	}

	// Guard against two instances racing the same store: the app-side id
	// Counters scheme has no protection against concurrent writers, so a
	// second process against the same DSN would corrupt id allocation.
	lockPath := instanceLockPath(config.String(config.KeyMySQL))
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring instance lock %s: %w", lockPath, err)
	}
	if !locked {
		return fmt.Errorf("another tangle-rdb instance is already running against this store (lock held: %s)", lockPath)
	}
	defer lock.Unlock()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	stores, err := store.Open(ctx, store.Config{
		Driver: "mysql",
		DSN:    config.String(config.KeyMySQL),
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer stores.Close()

	alloc, err := counters.New(ctx, stores)
	if err != nil {
		return fmt.Errorf("seed counters: %w", err)
	}

	m := metrics.New()
	events := pipeline.NewRecorder(stores.Event, m, nowMillis, log)

	txMapper := mapper.NewTransactionMapper(stores.Tx, alloc.NextTx)
	addrMapper := mapper.NewAddressMapper(stores.Address, alloc.NextAddress, log)
	bundleMapper := mapper.NewBundleMapper(stores.Bundle, alloc.NextBundle)

	approveCh := make(chan []uint64, 64)
	solidateCh := make(chan []pipeline.SolidateEntry, 64)
	calculateCh := make(chan uint64, 64)

	ingest := &pipeline.Ingest{
		Tx:               txMapper,
		Address:          addrMapper,
		Bundle:           bundleMapper,
		MilestoneAddress: config.String(config.KeyMilestoneAddress),
		MilestoneTag:     milestoneTag,
		RetryInterval:    config.Duration(config.KeyRetryInterval),
		Events:           events,
		Log:              log,
		ApproveCh:        approveCh,
		SolidateCh:       solidateCh,
		CalculateCh:      calculateCh,
	}
	approve := &pipeline.Approve{Tx: txMapper, Bundle: bundleMapper, Events: events, Log: log, NowMs: nowMillis}
	solidate := &pipeline.Solidate{Tx: txMapper, Events: events, Log: log, SolidateCh: solidateCh}
	calculate := &pipeline.Calculate{Tx: txMapper, CalculationLimit: config.Int(config.KeyCalculationLimit), Log: log}
	scheduler := &pipeline.Scheduler{
		Mappers:         []pipeline.Flusher{txMapper, addrMapper, bundleMapper},
		UpdateInterval:  config.Duration(config.KeyUpdateInterval),
		GenerationLimit: config.Uint32(config.KeyGenerationLimit),
		Metrics:         m,
		Log:             log,
	}

	sub := transport.NewSubscriber(config.String(config.KeyZMQ), log, 256)

	go sub.Run(ctx)
	go ingest.Run(ctx, sub.Frames)
	go approve.Run(ctx, approveCh)
	go solidate.Run(ctx, solidateCh)
	for i := 0; i < config.Int(config.KeyCalculationThreads); i++ {
		go calculate.Run(ctx, calculateCh)
	}
	go scheduler.Run(ctx)

	metricsSrv := &http.Server{Addr: config.String(config.KeyMetricsAddr), Handler: m.Handler()}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn("metrics server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
	return nil
}

func nowMillis() float64 { return float64(time.Now().UnixMilli()) }

// instanceLockPath derives a stable, per-DSN lock file path so running
// against two different stores never contends, while two processes
// pointed at the same DSN always do.
func instanceLockPath(dsn string) string {
	h := fnv.New32a()
	h.Write([]byte(dsn))
	return filepath.Join(os.TempDir(), fmt.Sprintf("tangle-rdb-%08x.lock", h.Sum32()))
}
