package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nesterrovv/currencyexchange/internal/exchange/application"
	"github.com/nesterrovv/currencyexchange/internal/exchange/domain"
	persistence "github.com/nesterrovv/currencyexchange/internal/exchange/infrastructure/persistence/mysql"
	"github.com/nesterrovv/currencyexchange/internal/exchange/infrastructure/publisher"
	httpserver "github.com/nesterrovv/currencyexchange/internal/exchange/interfaces/http"
	"github.com/nesterrovv/currencyexchange/pkg/config"
	"github.com/nesterrovv/currencyexchange/pkg/db"
	"github.com/nesterrovv/currencyexchange/pkg/logger"
	"github.com/nesterrovv/currencyexchange/pkg/metrics"
	"github.com/nesterrovv/currencyexchange/pkg/middleware"
	"github.com/nesterrovv/currencyexchange/pkg/mq"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/exchange/config.toml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("load config failed: %v", err))
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		panic(fmt.Sprintf("init logger failed: %v", err))
	}

	ctx := context.Background()

	instruments := configuredInstruments(cfg)
	if cfg.Database.DSN != "" {
		loaded, err := loadCatalog(ctx, cfg, instruments)
		if err != nil {
			logger.Fatal(ctx, "instrument catalog load failed", "error", err)
		}
		instruments = loaded
	}

	var marketPublisher domain.MarketDataPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := mq.NewProducer(mq.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			MaxRetries:   cfg.Kafka.MaxRetries,
			RetryBackoff: cfg.Kafka.RetryBackoff,
		})
		if err != nil {
			logger.Fatal(ctx, "kafka producer init failed", "error", err)
		}
		defer producer.Close()
		marketPublisher = publisher.NewKafkaMarketDataPublisher(producer)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.ServiceName)
	}

	svc := application.New(application.Config{
		Instruments:    instruments,
		BookInstrument: cfg.Simulation.BookInstrument,
		TickInterval:   time.Duration(cfg.Simulation.TickIntervalMs) * time.Millisecond,
		BookInterval:   time.Duration(cfg.Simulation.BookIntervalMs) * time.Millisecond,
		SampleInterval: time.Duration(cfg.Simulation.SampleIntervalMs) * time.Millisecond,
		Omega:          cfg.Simulation.Omega,
		NoiseBound:     cfg.Simulation.NoiseBound,
		ImpactFactor:   cfg.Simulation.ImpactFactor,
		AutoGenerate:   cfg.Simulation.AutoGenerate,
	}, marketPublisher, m)
	svc.Start(ctx)
	defer svc.Stop()

	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.GinRecovery(), middleware.GinLogging(), middleware.CORS())
	httpserver.NewHandler(r, svc)
	if m != nil {
		r.GET(cfg.Metrics.Path, gin.WrapH(m.Handler()))
	}

	srv := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:     r,
		ReadTimeout: time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		// No write timeout: the event streams are long-lived.
	}

	go func() {
		logger.Info(ctx, "starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "HTTP server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "server forced to shutdown", "error", err)
	}

	logger.Info(ctx, "server exiting")
}

func configuredInstruments(cfg *config.Config) []domain.Instrument {
	instruments := make([]domain.Instrument, 0, len(cfg.Instruments))
	for _, inst := range cfg.Instruments {
		instruments = append(instruments, domain.Instrument{
			Symbol:    inst.Symbol,
			Median:    inst.Median,
			Amplitude: inst.Amplitude,
		})
	}
	return instruments
}

// loadCatalog seeds the configured instruments into the database and reads
// the catalog back, so operator-managed rows take precedence.
func loadCatalog(ctx context.Context, cfg *config.Config, fromConfig []domain.Instrument) ([]domain.Instrument, error) {
	conn, err := db.Open(db.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("connect db failed: %w", err)
	}

	repo := persistence.NewInstrumentRepository(conn)
	if err := repo.Migrate(); err != nil {
		return nil, fmt.Errorf("migrate db failed: %w", err)
	}
	if err := repo.Seed(ctx, fromConfig); err != nil {
		return nil, fmt.Errorf("seed instruments failed: %w", err)
	}
	return repo.Load(ctx)
}
