package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"prism/internal/attestation/handler"
	"prism/internal/attestation/intake"
	attmetrics "prism/internal/attestation/metrics"
	"prism/internal/audit"
	"prism/internal/platform/health"
	"prism/internal/platform/kafka"
	"prism/internal/platform/kafka/consumer"
	"prism/internal/platform/kafka/producer"
	"prism/internal/platform/redis"
	dErrors "prism/pkg/domain-errors"
	"prism/pkg/platform/middleware/request"
)

const (
	auditBuffer       = 256
	shutdownTimeout   = 15 * time.Second
	requestTimeout    = 30 * time.Second
	poolStatsInterval = 15 * time.Second
)

func (a *app) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Consume verification outcomes from Kafka and mint attestations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	if len(cfg.KafkaBrokers) == 0 {
		return dErrors.New(dErrors.CodeConfiguration, "invalid configuration: PRISM_KAFKA_BROKERS is required for serve")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	client, closeLedger, err := a.ledgerClient(ctx, false, reg)
	if err != nil {
		return err
	}
	defer closeLedger()

	rc, err := redis.New(ctx, redis.Config{URL: cfg.RedisURL}, redis.NewPoolMetrics(reg))
	if err != nil {
		return err
	}
	backing := a.backends(ctx, rc)
	defer backing.close()

	auditor := audit.NewPublisher(backing.audit,
		audit.WithAsyncBuffer(auditBuffer),
		audit.WithPublisherLogger(a.logger),
	)
	defer auditor.Close()

	mt := attmetrics.NewWithRegisterer(reg)
	minter := a.minter(client, mt, auditor)

	pcfg := kafka.DefaultProducerConfig()
	pcfg.Brokers = cfg.KafkaBrokers
	prod, err := producer.New(pcfg, a.logger)
	if err != nil {
		return err
	}
	defer prod.Close() //nolint:errcheck // flush errors are logged by the producer

	worker := intake.NewWorker(minter, prod, cfg.KafkaResultTopic,
		intake.WithCache(backing.results, cfg.ResultCacheTTL),
		intake.WithRateLimit(cfg.IntakeRatePerSecond, cfg.IntakeBurst),
		intake.WithRetryMaxElapsed(cfg.IntakeRetryMaxElapsed),
		intake.WithMetrics(mt),
		intake.WithLogger(a.logger),
	)

	ccfg := kafka.DefaultConsumerConfig()
	ccfg.Brokers = cfg.KafkaBrokers
	ccfg.GroupID = cfg.KafkaGroupID
	ccfg.Topics = []string{cfg.KafkaRequestTopic}
	cons, err := consumer.New(ccfg, worker, a.logger)
	if err != nil {
		return err
	}
	defer cons.Close()

	hh := health.New(cfg.Environment)
	hh.RegisterCheck("ledger", client.Check)
	hh.RegisterCheck("kafka_consumer", cons.Healthy)
	hh.RegisterCheck("kafka_producer", prod.Healthy)
	if rc != nil {
		hh.RegisterCheck("redis", rc.Health)
	}

	srv := &http.Server{
		Addr:              cfg.OpsAddr,
		Handler:           a.opsRouter(reg, hh, handler.New(minter, auditor, a.logger)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return cons.Run(gctx)
	})
	g.Go(func() error {
		a.logger.Info("ops listener starting", "addr", cfg.OpsAddr, "checks", hh.Names())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	a.logger.Info("prism minter started",
		"request_topic", cfg.KafkaRequestTopic,
		"result_topic", cfg.KafkaResultTopic,
		"group", cfg.KafkaGroupID,
	)
	err = g.Wait()
	a.logger.Info("prism minter stopped")
	return err
}

type backends struct {
	results intake.ResultCache
	audit   audit.Store
	close   func()
}

// backends backs the result cache and audit log with Redis when a client is
// configured and with process memory otherwise.
func (a *app) backends(ctx context.Context, rc *redis.Client) backends {
	if rc == nil {
		a.logger.Info("result cache and audit log: in-memory")
		return backends{
			results: intake.NewMemoryCache(),
			audit:   audit.NewInMemoryStore(),
			close:   func() {},
		}
	}
	go rc.RunPoolStats(ctx, poolStatsInterval)
	a.logger.Info("result cache and audit log: redis")
	return backends{
		results: intake.NewRedisCache(rc),
		audit:   audit.NewRedisStore(rc),
		close:   func() { _ = rc.Close() },
	}
}

func (a *app) opsRouter(reg *prometheus.Registry, hh *health.Handler, ah *handler.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(request.Recovery(a.logger))
	r.Use(request.RequestID)
	r.Use(request.Logger(a.logger, request.NewMetricsWithRegisterer(reg)))
	r.Use(request.Timeout(requestTimeout))

	hh.Register(r)
	ah.Register(r)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return r
}
