package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ignite/customer-console/internal/api"
	"github.com/ignite/customer-console/internal/auth"
	"github.com/ignite/customer-console/internal/config"
	"github.com/ignite/customer-console/internal/metrics"
	"github.com/ignite/customer-console/internal/pkg/distlock"
	"github.com/ignite/customer-console/internal/pkg/flash"
	"github.com/ignite/customer-console/internal/pkg/hooks"
	"github.com/ignite/customer-console/internal/pkg/logger"
	"github.com/ignite/customer-console/internal/repository/postgres"
	"github.com/ignite/customer-console/internal/service/blacklist"
	"github.com/ignite/customer-console/internal/service/campaigngroup"
	"github.com/ignite/customer-console/internal/service/dashboard"
	"github.com/ignite/customer-console/internal/service/favorite"
	"github.com/ignite/customer-console/internal/service/listpage"
	"github.com/ignite/customer-console/internal/service/quota"
	"github.com/ignite/customer-console/internal/service/segment"
	"github.com/ignite/customer-console/internal/service/sendingdomain"
	"github.com/ignite/customer-console/internal/service/server"
	"github.com/ignite/customer-console/internal/service/subscribercopy"
	"github.com/ignite/customer-console/internal/service/suppression"
	"github.com/ignite/customer-console/internal/ses"
	"github.com/ignite/customer-console/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("address %s is already in use: %v\n"+
			"  Hint: Run 'lsof -i :<port>' to find the blocking process", addr, err)
	}
	ln.Close()
	return nil
}

// extractHost returns the host part of a postgres DSN for logging.
func extractHost(dsn string) string {
	at := strings.Index(dsn, "@")
	if at < 0 {
		return "(unknown)"
	}
	rest := dsn[at+1:]
	if slash := strings.Index(rest, "/"); slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}

func openRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		opts = &redis.Options{Addr: url}
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	logger.SetRedactPII(!cfg.Log.DisableRedaction)

	addr := cfg.Server.Addr()
	if err := checkPortAvailable(addr); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("database connected", "host", extractHost(cfg.Database.URL))

	// Redis backs flash messages, caches, locks and copy progress. Without
	// it the server runs single-instance on in-process fallbacks.
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		redisClient, err = openRedis(ctx, cfg.Redis.URL)
		if err != nil {
			logger.Warn("redis unavailable, using in-process fallbacks", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			logger.Info("redis connected")
		}
	}

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	var registrar sendingdomain.Registrar
	if cfg.SES.Enabled {
		sesClient, err := ses.NewClient(ctx, cfg.SES)
		if err != nil {
			logger.Warn("SES registration disabled", "error", err)
		} else {
			registrar = sesClient
			logger.Info("SES identity registration enabled", "region", cfg.SES.Region)
		}
	}

	checker := quota.NewChecker(postgres.NewQuotaRepo(db), cfg.Quotas.Defaults, redisClient, cfg.Quotas.CacheTTL())

	var progress subscribercopy.Progress = subscribercopy.NewMemoryProgress()
	var notes flash.Store = flash.NewMemoryStore()
	if redisClient != nil {
		progress = subscribercopy.NewRedisProgress(redisClient, time.Duration(cfg.Copy.ProgressTTLMinutes)*time.Minute)
		notes = flash.NewRedisStore(redisClient, time.Duration(cfg.Redis.FlashTTLMinutes)*time.Minute)
	}
	locker := distlock.NewLocker(redisClient, db, time.Duration(cfg.Copy.LockTTLSeconds)*time.Second)

	lists := postgres.NewListRepo(db)
	favorites := favorite.NewService(postgres.NewFavoriteRepo(db))
	dash := dashboard.NewService(postgres.NewDashboardRepo(db), favorites, redisClient, dashboard.Options{
		CacheTTL:       cfg.Dashboard.CacheTTL(),
		TimelineLimit:  cfg.Dashboard.TimelineLimit,
		CampaignsLimit: cfg.Dashboard.CampaignsLimit,
		GrowthDays:     cfg.Dashboard.GrowthDays,
	})

	services := api.Services{
		CampaignGroups: campaigngroup.NewService(postgres.NewCampaignGroupRepo(db)),
		Dashboard:      dash,
		Servers: server.NewService(postgres.NewServerRepo(db), postgres.NewServerRefs(db), checker,
			server.NewDialTester(15*time.Second)),
		Blacklist: blacklist.NewService(postgres.NewBlacklistRepo(db)),
		Favorites: favorites,
		SendingDomains: sendingdomain.NewService(postgres.NewSendingDomainRepo(db), checker,
			sendingdomain.NewThrottledResolver(cfg.SendingDomains.DNSLookupsPerSecond, cfg.SendingDomains.DNSBurst),
			registrar, sendingdomain.Options{
				Selector: cfg.SendingDomains.DKIMSelector,
				KeyBits:  cfg.SendingDomains.DKIMKeyBits,
				Blocked:  cfg.SendingDomains.BlockedDomains,
			}),
		Suppression:    suppression.NewService(postgres.NewSuppressionRepo(db), checker, store),
		ListPages:      listpage.NewService(lists, postgres.NewListPageRepo(db), listpage.NewRenderer(), cfg.Server.PublicURL),
		Segments:       segment.NewService(postgres.NewSegmentRepo(db), lists, postgres.NewSurveyRepo(db), checker),
		SubscriberCopy: subscribercopy.NewService(postgres.NewSubscriberCopyRepo(db), checker, locker, progress, cfg.Copy.BatchSize),
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	bus := hooks.New()
	bus.On(hooks.Any, dash.Listener())
	bus.On(hooks.Any, m.Listener())

	h := api.NewHandlers(services, bus, notes, m, api.Options{
		ExportBatchSize: cfg.Export.BatchSize,
		MaxUploadBytes:  cfg.Import.MaxBytes(),
	})
	authManager := auth.NewManager(cfg.Auth, cfg.Server.DevMode, postgres.NewCustomerRepo(db))
	if cfg.Server.DevMode {
		logger.Warn("dev mode: requests without a token act as the dev customer", "customer_uid", cfg.Auth.DevCustomerUID)
	}

	srv := api.NewServer(cfg.Server, h, authManager, api.NewHealthChecker(db, redisClient))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("server stopped")
}
