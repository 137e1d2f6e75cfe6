package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chronoswap/skillflux/internal/analysis"
	"github.com/chronoswap/skillflux/internal/analysis/genai"
	"github.com/chronoswap/skillflux/internal/cache"
	"github.com/chronoswap/skillflux/internal/chain/rpc"
	"github.com/chronoswap/skillflux/internal/configs"
	"github.com/chronoswap/skillflux/internal/metrics"
	"github.com/chronoswap/skillflux/internal/models"
	"github.com/chronoswap/skillflux/internal/notify"
	"github.com/chronoswap/skillflux/internal/oracle"
	"github.com/chronoswap/skillflux/internal/pricefeed"
	"github.com/chronoswap/skillflux/internal/skills"
	"github.com/chronoswap/skillflux/internal/storage"
)

// App ties the analysis core to its optional side outputs.
type App struct {
	config    *configs.Config
	engine    *analysis.Engine
	pricefeed *pricefeed.Client
	storage   *storage.PostgresStorage
	publisher *notify.Publisher
}

// Run analyzes the configured skill set on every refresh tick, archiving and
// publishing each result. Rate-limit rejections are expected between close
// ticks and only logged.
func (a *App) Run(ctx context.Context) error {
	refreshInterval, err := time.ParseDuration(a.config.RefreshInterval)
	if err != nil {
		refreshInterval = time.Minute
	}

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	// First cycle immediately, then on the ticker.
	a.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.runCycle(ctx)
		}
	}
}

func (a *App) runCycle(ctx context.Context) {
	result, err := a.engine.AnalyzeMarket(ctx, a.config.Skills)
	if err != nil {
		if errors.Is(err, models.ErrRateLimited) {
			log.Debug("analysis skipped, oracle rate limit in effect")
			return
		}
		log.Error("market analysis failed", "err", err)
		return
	}

	quote := a.pricefeed.GetLatestQuote(ctx, a.config.Oracle.ChainID)
	log.Debug("native quote resolved", "price_usd", quote.Price, "round", quote.RoundID)

	if a.storage != nil {
		if err := a.storage.SaveAnalysis(ctx, a.config.Oracle.ContractAddress, result); err != nil {
			log.Error("failed to archive analysis", "err", err)
		}
		if err := a.storage.SaveQuote(ctx, a.config.Oracle.ChainID, quote); err != nil {
			log.Error("failed to archive quote", "err", err)
		}
	}

	if a.publisher != nil {
		if err := a.publisher.PublishAnalysis(ctx, result); err != nil {
			log.Error("failed to publish summary", "err", err)
		}
	}
}

var (
	flagconf string

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   true,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
)

func init() {
	flag.StringVar(&flagconf, "conf", "config.json", "config path, eg: -conf config.json")
}

func main() {
	flag.Parse()

	// 加载配置
	config := &configs.Config{}
	configFile, err := os.ReadFile(flagconf)
	if err != nil {
		log.Error("Error reading config file", "err", err)
		return
	}

	if err := json.Unmarshal(configFile, config); err != nil {
		log.Error("Error parsing config file", "err", err)
		return
	}

	if config.Proxy != "" {
		_ = os.Setenv("HTTP_PROXY", config.Proxy)
		_ = os.Setenv("HTTPS_PROXY", config.Proxy)
		log.Debug("set proxy ok", "proxy", config.Proxy)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)
	if config.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(config.MetricsAddr, mux); err != nil {
				log.Error("metrics server stopped", "err", err)
			}
		}()
		log.Debug("metrics listening", "addr", config.MetricsAddr)
	}

	enricher, err := skills.LoadEnricher(config.Oracle.BaselinesFile)
	if err != nil {
		log.Error("Error loading skill baselines", "err", err)
		return
	}

	chainClient := rpc.NewClient(config.Oracle.RPCURL)
	parser := oracle.NewParser(enricher)

	log.Debug("init chain client", "rpc", config.Oracle.RPCURL)

	var results cache.Cache[*models.MarketAnalysisResult]
	if config.Redis.Addr != "" {
		redisStore, err := cache.NewRedisStore[*models.MarketAnalysisResult](
			ctx, config.Redis.Addr, config.Redis.Password, config.Redis.DB,
			"skillflux:analysis", analysis.ResultTTL)
		if err != nil {
			log.Error("Error connecting to redis", "err", err)
			return
		}
		defer redisStore.Close()
		results = redisStore
		log.Debug("init redis analysis cache", "addr", config.Redis.Addr)
	} else {
		results = cache.NewStore[*models.MarketAnalysisResult](analysis.ResultTTL)
	}

	var synthesizer analysis.Synthesizer
	if config.AIConfig.APIKey != "" {
		synthesizer = genai.NewSynthesizer(config.AIConfig.APIKey, config.AIConfig.ModelType)
		log.Debug("init generative synthesizer", "model", config.AIConfig.ModelType)
	}

	engine := analysis.NewEngine(
		config.Oracle.ContractAddress,
		chainClient,
		parser,
		synthesizer,
		results,
		cache.NewLimiter(cache.DefaultInterval),
		m,
		log,
	)

	feedClient := pricefeed.NewClient(chainClient, m, log)

	app := &App{
		config:    config,
		engine:    engine,
		pricefeed: feedClient,
	}

	if config.Database.ConnStr != "" {
		storager, err := storage.NewPostgresStorage(config.Database.ConnStr)
		if err != nil {
			log.Error("Error creating storage", "err", err)
			return
		}
		defer storager.Close()
		app.storage = storager
		log.Debug("init storager")
	}

	if len(config.Kafka.Brokers) > 0 {
		publisher := notify.NewPublisher(config.Kafka.Brokers, config.Kafka.Topic)
		defer publisher.Close()
		app.publisher = publisher
		log.Debug("init publisher", "topic", config.Kafka.Topic)
	}

	log.Debug("running", "skills", config.Skills, "contract", config.Oracle.ContractAddress)

	if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("System error", "err", err)
	}
}
