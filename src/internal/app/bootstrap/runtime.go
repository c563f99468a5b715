// Package bootstrap wires configuration, storage, adapters and use cases
// into a runnable service.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	affiliateapp "github.com/fortyseven/affiliate_ledger/src/internal/application/affiliate"
	"github.com/fortyseven/affiliate_ledger/src/internal/application/ingest"
	"github.com/fortyseven/affiliate_ledger/src/internal/application/notification"
	partnerapp "github.com/fortyseven/affiliate_ledger/src/internal/application/partner"
	"github.com/fortyseven/affiliate_ledger/src/internal/application/uow"
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
	"github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/cache"
	"github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/config"
	"github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/events"
	"github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/jobs"
	"github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/logging"
	"github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/notify"
	"github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/payment"
	"github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/persistence"
	affiliatestore "github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/persistence/affiliate"
	"github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/persistence/gormtx"
	partnerstore "github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/persistence/partner"
	"github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/storage"
	"github.com/fortyseven/affiliate_ledger/src/internal/interfaces/httpapi"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Runtime holds every long-lived component. Optional adapters are nil when
// their configuration is absent.
type Runtime struct {
	Config *config.Config
	Log    *zap.Logger
	DB     *gorm.DB

	Services  *httpapi.Services
	Auth      *httpapi.Authenticator
	Router    *ingest.Router
	Reconcile *affiliateapp.ReconcileUseCase

	redis     *redis.Client
	publisher *events.KafkaPublisher
	consumer  *events.KafkaConsumer
	scheduler *jobs.Scheduler
}

// NewRuntime loads configFile and builds the service.
func NewRuntime(ctx context.Context, configFile string) (*Runtime, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	rt, err := build(ctx, cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	return rt, nil
}

func build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Runtime, error) {
	rt := &Runtime{Config: cfg, Log: log}

	db, err := persistence.Open(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	rt.DB = db

	var publisher shared.EventPublisher = events.NewLogPublisher(log.Named("events"))
	if len(cfg.Kafka.Brokers) > 0 {
		rt.publisher, err = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic)
		if err != nil {
			return nil, rt.abort(err)
		}
		publisher = rt.publisher
	}

	dispatcher := uow.NewDispatcher(publisher, buildNotifier(cfg.Notify, log), log)
	tx := gormtx.NewManager(db)

	policy, err := cfg.Affiliate.TierPolicy()
	if err != nil {
		return nil, rt.abort(err)
	}
	rewards, err := affiliateapp.NewRewards(
		cfg.Affiliate.Points.ReferralSignup,
		cfg.Affiliate.Points.ReferralPurchase,
		cfg.Affiliate.Points.ProConversion,
	)
	if err != nil {
		return nil, rt.abort(err)
	}
	aff := affiliateapp.Dependencies{
		Accounts:     affiliatestore.NewAccountRepository(db),
		Transactions: affiliatestore.NewTransactionRepository(db),
		Runner:       uow.NewRunner(tx, cfg.Affiliate.WriteRetries),
		Dispatcher:   dispatcher,
		Policy:       policy,
		Rewards:      rewards,
		CodeAttempts: cfg.Affiliate.CodeRetries,
	}

	part := partnerapp.Dependencies{
		Partners:             partnerstore.NewPartnerRepository(db),
		Commissions:          partnerstore.NewCommissionRepository(db),
		Payouts:              partnerstore.NewPayoutRepository(db),
		Runner:               uow.NewRunner(tx, cfg.Affiliate.WriteRetries),
		Dispatcher:           dispatcher,
		Currency:             cfg.Partner.Currency,
		PayoutNumberAttempts: cfg.Partner.NumberRetries,
	}
	if cfg.Stripe.SecretKey != "" {
		rail, err := payment.NewStripeRail(payment.Config{SecretKey: cfg.Stripe.SecretKey, BaseURL: cfg.Stripe.BaseURL})
		if err != nil {
			return nil, rt.abort(err)
		}
		part.Rail = rail
	} else {
		log.Info("stripe not configured, payouts can only be marked paid manually")
	}
	if cfg.Storage.Bucket != "" {
		archive, err := storage.NewS3Archive(storage.Config{
			Endpoint:  cfg.Storage.Endpoint,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			AccessKey: cfg.Storage.AccessKeyID,
			SecretKey: cfg.Storage.SecretAccessKey,
			Prefix:    cfg.Storage.Prefix,
		})
		if err != nil {
			return nil, rt.abort(err)
		}
		part.Archive = archive
	}

	rt.Services = httpapi.NewServices(aff, part, persistence.NewBrowser(db), log)
	rt.Reconcile = rt.Services.Reconcile

	if cfg.Auth.JWTSecret != "" {
		rt.Auth, err = httpapi.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
		if err != nil {
			return nil, rt.abort(err)
		}
	} else {
		log.Warn("auth.jwt_secret not set, admin API disabled")
	}

	var dedup ingest.Deduplicator
	if cfg.Redis.Addr != "" {
		rt.redis, err = cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, rt.abort(err)
		}
		dedup = cache.NewRedisDeduplicator(rt.redis, cfg.Redis.DedupTTL)
	}
	rt.Router = ingest.NewRouter(ingest.Handlers{
		ReferralSignup:   affiliateapp.NewRecordReferralSignupUseCase(aff),
		ReferralPurchase: affiliateapp.NewRecordReferralPurchaseUseCase(aff),
		ProConversion:    affiliateapp.NewRecordProConversionUseCase(aff),
		Commission:       rt.Services.RecordCommission,
	}, dedup, log.Named("ingest"))

	if len(cfg.Kafka.Brokers) > 0 && len(cfg.Kafka.InboundTopics) > 0 {
		rt.consumer, err = events.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.InboundTopics, rt.Router.HandleMessage, log.Named("consumer"))
		if err != nil {
			return nil, rt.abort(err)
		}
	}

	rt.scheduler, err = jobs.NewScheduler(log.Named("jobs"))
	if err != nil {
		return nil, rt.abort(err)
	}
	job := jobs.NewReconcileJob(rt.Reconcile, cfg.Jobs.ReconcileInterval, cfg.Jobs.ReconcileBatchSize, log.Named("reconcile"))
	if err := rt.scheduler.Register(job); err != nil {
		return nil, rt.abort(err)
	}

	return rt, nil
}

func buildNotifier(cfg config.NotifyConfig, log *zap.Logger) notification.Notifier {
	channels := []notification.Notifier{notify.NewLog(log.Named("notify"))}
	if cfg.Resend.APIKey != "" {
		channels = append(channels, notify.NewResendEmail(cfg.Resend.APIKey, cfg.Resend.From, cfg.Resend.BaseURL))
	}
	if cfg.Twilio.AccountSID != "" {
		channels = append(channels, notify.NewTwilioSMS(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.From, cfg.Twilio.BaseURL))
	}
	return notify.NewFanout(channels...)
}

// abort releases what was opened so far and returns err.
func (rt *Runtime) abort(err error) error {
	return multierr.Append(err, rt.Close())
}

// Run serves HTTP, consumes inbound events and runs the scheduler until ctx
// is cancelled, then shuts everything down.
func (rt *Runtime) Run(ctx context.Context) error {
	cfg := rt.Config
	handler := httpapi.NewRouter(httpapi.NewHandler(rt.Services, rt.Log.Named("http")), rt.Auth, rt.Log.Named("http"))
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 2)
	go func() {
		rt.Log.Info("http server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	consumeCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()
	consumerDone := make(chan struct{})
	if rt.consumer != nil {
		go func() {
			defer close(consumerDone)
			rt.Log.Info("kafka consumer started", zap.Strings("topics", cfg.Kafka.InboundTopics))
			if err := rt.consumer.Run(consumeCtx); err != nil {
				errCh <- err
			}
		}()
	} else {
		close(consumerDone)
	}

	rt.scheduler.Start()

	var runErr error
	select {
	case <-ctx.Done():
		rt.Log.Info("shutting down")
	case runErr = <-errCh:
		rt.Log.Error("component failed, shutting down", zap.Error(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		runErr = multierr.Append(runErr, fmt.Errorf("http shutdown: %w", err))
	}
	stopConsumer()
	select {
	case <-consumerDone:
	case <-time.After(cfg.Server.ShutdownTimeout):
		rt.Log.Warn("kafka consumer did not stop in time")
	}
	return multierr.Append(runErr, rt.Close())
}

// Close releases every resource. Safe to call on a partially built runtime.
func (rt *Runtime) Close() error {
	var err error
	if rt.scheduler != nil {
		err = multierr.Append(err, rt.scheduler.Stop())
		rt.scheduler = nil
	}
	if rt.consumer != nil {
		err = multierr.Append(err, rt.consumer.Close())
		rt.consumer = nil
	}
	if rt.publisher != nil {
		err = multierr.Append(err, rt.publisher.Close())
		rt.publisher = nil
	}
	if rt.redis != nil {
		err = multierr.Append(err, rt.redis.Close())
		rt.redis = nil
	}
	if rt.DB != nil {
		if sqlDB, dbErr := rt.DB.DB(); dbErr == nil {
			err = multierr.Append(err, sqlDB.Close())
		}
		rt.DB = nil
	}
	_ = rt.Log.Sync()
	return err
}
