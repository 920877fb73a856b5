package cmd

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"time"

	"github.com/AzielCF/az-postr/agent/application"
	"github.com/AzielCF/az-postr/agent/domain"
	"github.com/AzielCF/az-postr/agent/providers"
	agentRepo "github.com/AzielCF/az-postr/agent/repository"
	"github.com/AzielCF/az-postr/analytics"
	globalConfig "github.com/AzielCF/az-postr/config"
	coreconfig "github.com/AzielCF/az-postr/core/config"
	coreDB "github.com/AzielCF/az-postr/core/database"
	settingsApp "github.com/AzielCF/az-postr/core/settings/application"
	"github.com/AzielCF/az-postr/infrastructure/valkey"
	"github.com/AzielCF/az-postr/integrations/twitterx"
	"github.com/AzielCF/az-postr/pkg/eventworker"
	"github.com/AzielCF/az-postr/pkg/spamfilter"
	"github.com/AzielCF/az-postr/pkg/utils"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"
)

var (
	cfg *coreconfig.Config

	// Storage
	agentDB      *sql.DB
	repo         domain.IAgentRepository
	valkeyClient *valkey.Client

	// Analytics
	recorder *analytics.Recorder

	// Dynamic settings (operator overrides)
	settingsService *settingsApp.SettingsService

	// Services
	source      domain.ContentSource
	platform    domain.PlatformClient
	ledger      domain.ReplyLedger
	filter      *spamfilter.Filter
	limiter     *rate.Limiter
	pool        *eventworker.EventWorkerPool
	planner     *application.Planner
	dispatcher  *application.Dispatcher
	responder   *application.Responder
	postService *application.PostService

	scheduleLoc *time.Location
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "az-postr",
	Short: "Autonomous social posting agent",
	Long: `az-postr plans a daily posting schedule, generates content with an AI
provider, publishes it to the platform and replies to mentions and DMs.`,
}

func init() {
	// Load environment variables first
	utils.LoadConfig(".")

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Initialize flags first, before any subcommands are added
	initFlags()

	// Then initialize other components
	cobra.OnInitialize(initEnvConfig, initApp)
}

// initEnvConfig loads configuration from environment variables
func initEnvConfig() {
	if envPort := viper.GetString("app_port"); envPort != "" {
		globalConfig.AppPort = envPort
	}
	if envDebug := viper.GetBool("app_debug"); envDebug {
		globalConfig.AppDebug = envDebug
	}
	envBasicAuth := viper.GetString("app_basic_auth")
	if envBasicAuth == "" {
		envBasicAuth = os.Getenv("APP_BASIC_AUTH")
	}
	if envBasicAuth != "" {
		credential := strings.Split(envBasicAuth, ",")
		globalConfig.AppBasicAuthCredential = credential
	}
	if envBasePath := viper.GetString("app_base_path"); envBasePath != "" {
		globalConfig.AppBasePath = envBasePath
	}
	if envTrustedProxies := viper.GetString("app_trusted_proxies"); envTrustedProxies != "" {
		proxies := strings.Split(envTrustedProxies, ",")
		globalConfig.AppTrustedProxies = proxies
	}
	if envDBURI := viper.GetString("db_uri"); envDBURI != "" {
		globalConfig.DBURI = envDBURI
	}
}

func initFlags() {
	// Application flags
	rootCmd.PersistentFlags().StringVarP(
		&globalConfig.AppPort,
		"port", "p",
		globalConfig.AppPort,
		"change port number with --port <number> | example: --port=8080",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&globalConfig.AppDebug,
		"debug", "d",
		globalConfig.AppDebug,
		"hide or displaying log with --debug <true/false> | example: --debug=true",
	)
	rootCmd.PersistentFlags().StringSliceVarP(
		&globalConfig.AppBasicAuthCredential,
		"basic-auth", "b",
		globalConfig.AppBasicAuthCredential,
		"basic auth credential | -b=yourUsername:yourPassword",
	)
	rootCmd.PersistentFlags().StringVarP(
		&globalConfig.AppBasePath,
		"base-path", "",
		globalConfig.AppBasePath,
		`base path for subpath deployment --base-path <string> | example: --base-path="/postr"`,
	)
	rootCmd.PersistentFlags().StringVarP(
		&globalConfig.DBURI,
		"db-uri", "",
		globalConfig.DBURI,
		`the database uri for the post store --db-uri <string> | example: --db-uri="file:storages/agent.db?_foreign_keys=on"`,
	)
	rootCmd.PersistentFlags().BoolVarP(
		&globalConfig.TwitterDryRun,
		"dry-run", "",
		globalConfig.TwitterDryRun,
		"log outbound calls instead of hitting the platform --dry-run=true",
	)
}

func initApp() {
	if globalConfig.AppDebug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	var err error
	cfg, err = coreconfig.LoadConfig()
	if err != nil {
		logrus.Fatalf("failed to load configuration: %v", err)
	}
	if globalConfig.TwitterDryRun {
		cfg.Platform.DryRun = true
	}

	if err := utils.CreateFolder(globalConfig.PathStorages); err != nil {
		logrus.Errorln(err)
	}

	ctx := context.Background()

	scheduleLoc, err = time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		logrus.Warnf("[APP] Unknown timezone %q, using UTC", cfg.Schedule.Timezone)
		scheduleLoc = time.UTC
	}

	// Post store
	agentDB, err = sql.Open("sqlite3", globalConfig.DBURI)
	if err != nil {
		logrus.Fatalf("failed to open agent db: %v", err)
	}
	sqliteRepo := agentRepo.NewSQLiteRepository(agentDB)
	if err := sqliteRepo.Init(ctx); err != nil {
		logrus.Fatalf("failed to init agent repo: %v", err)
	}
	repo = sqliteRepo

	// Analytics store (gorm, sqlite or postgres)
	analyticsGorm, err := coreDB.NewDatabaseWithCustomPath(cfg, cfg.Database.AnalyticsName)
	if err != nil {
		logrus.Fatalf("failed to open analytics db: %v", err)
	}
	recorder = analytics.NewRecorder(analyticsGorm)
	if err := recorder.InitSchema(ctx); err != nil {
		logrus.Fatalf("failed to init analytics schema: %v", err)
	}

	// Dynamic settings live next to the analytics tables and override env values
	settingsService = settingsApp.NewSettingsService(analyticsGorm)
	dynamic, err := settingsService.GetDynamicSettings(ctx)
	if err != nil {
		logrus.WithError(err).Warn("[APP] Could not load dynamic settings, using environment values")
		dynamic = nil
	}
	if dynamic != nil {
		if dynamic.ReplyHint != "" {
			cfg.Responses.ReplyHint = dynamic.ReplyHint
		}
		if dynamic.AutoResponse != nil {
			cfg.Responses.AutoResponse = *dynamic.AutoResponse
		}
		if dynamic.MaxRepliesPerUser != nil {
			cfg.Responses.MaxRepliesPerUser = *dynamic.MaxRepliesPerUser
		}
		if len(dynamic.Topics) > 0 {
			cfg.Schedule.Topics = dynamic.Topics
		}
	}

	// Reply ledger: Valkey when configured, otherwise in-memory
	if cfg.Database.ValkeyEnabled {
		valkeyClient, err = valkey.NewClient(valkey.Config{
			Address:   cfg.Database.ValkeyAddress,
			Password:  cfg.Database.ValkeyPassword,
			DB:        cfg.Database.ValkeyDB,
			KeyPrefix: cfg.Database.ValkeyKeyPrefix,
		})
		if err != nil {
			logrus.Fatalf("failed to connect to valkey: %v", err)
		}
		ledger = agentRepo.NewValkeyReplyLedger(valkeyClient)
	} else {
		ledger = agentRepo.NewMemoryReplyLedger()
	}

	// Content provider
	providerKey := cfg.APIKeys.OpenAI
	providerModel := cfg.Platform.Model
	switch cfg.Platform.Provider {
	case "gemini":
		providerKey = cfg.APIKeys.Gemini
		if providerModel == "" {
			providerModel = globalConfig.GeminiModel
		}
	default:
		if providerModel == "" {
			providerModel = globalConfig.OpenAIModel
		}
	}
	if providerKey == "" {
		providerKey = cfg.APIKeys.AI
	}
	source, err = providers.New(cfg.Platform.Provider, providers.Config{
		APIKey:           providerKey,
		Model:            providerModel,
		Language:         cfg.Responses.Language,
		MaxTextLength:    cfg.Responses.MaxTextLength,
		PostTemperature:  globalConfig.ContentTemperature,
		ReplyTemperature: globalConfig.ReplyTemperature,
	})
	if err != nil {
		logrus.Fatalf("failed to build content provider: %v", err)
	}

	// Platform client
	platform = twitterx.NewClient(twitterx.Config{
		BaseURL:     cfg.Platform.BaseURL,
		BearerToken: cfg.Platform.BearerToken,
		AccountID:   cfg.Platform.AccountID,
		DryRun:      cfg.Platform.DryRun,
	})

	filter = spamfilter.New(cfg.Responses.BlacklistedWords, cfg.Responses.MaxTextLength, cfg.Responses.MaxHashtags)
	limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.Dispatch.OutboundPerMin)), 1)
	pool = eventworker.NewEventWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize)

	planner = application.NewPlanner(repo, application.PlannerConfig{
		PrimaryHour:    cfg.Schedule.Hour,
		PrimaryMinute:  cfg.Schedule.Minute,
		MaxPostsPerDay: cfg.Schedule.MaxPostsPerDay,
		WindowStart:    cfg.Schedule.WindowStart,
		WindowEnd:      cfg.Schedule.WindowEnd,
		Topics:         scheduleTopics(),
		QuotaRollover:  cfg.Schedule.QuotaRollover,
		Location:       scheduleLoc,
	})

	dispatcher = application.NewDispatcher(repo, source, platform, recorder, filter, limiter, application.DispatcherConfig{
		MaxRetries:      cfg.Dispatch.MaxRetries,
		BaseBackoff:     time.Duration(cfg.Dispatch.BaseBackoffMs) * time.Millisecond,
		MaxBackoff:      time.Duration(cfg.Dispatch.MaxBackoffMs) * time.Millisecond,
		StaleClaimAfter: time.Duration(cfg.Dispatch.StaleClaimMs) * time.Millisecond,
		MaxPostsPerDay:  cfg.Schedule.MaxPostsPerDay,
		QuotaRollover:   cfg.Schedule.QuotaRollover,
		GenerateTimeout: time.Duration(cfg.Dispatch.GenerateTimeoutMs) * time.Millisecond,
		Location:        scheduleLoc,
	})

	responder = application.NewResponder(repo, source, platform, recorder, ledger, filter, limiter, pool, application.ResponderConfig{
		AutoResponse:      cfg.Responses.AutoResponse,
		MaxRepliesPerUser: cfg.Responses.MaxRepliesPerUser,
		MaxTextLength:     cfg.Responses.MaxTextLength,
		PollInterval:      time.Duration(cfg.Responses.PollMs) * time.Millisecond,
		GenerateTimeout:   time.Duration(cfg.Dispatch.GenerateTimeoutMs) * time.Millisecond,
		ReplyHint:         cfg.Responses.ReplyHint,
	})

	postService = application.NewPostService(repo, source, cfg.Responses.MaxTextLength,
		time.Duration(cfg.Dispatch.GenerateTimeoutMs)*time.Millisecond)
}

func scheduleTopics() []string {
	if len(cfg.Schedule.Topics) > 0 {
		return cfg.Schedule.Topics
	}
	return globalConfig.Topics
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// StopApp performs a clean shutdown of all connections and services.
func StopApp() {
	logrus.Info("[APP] Stopping application...")

	if pool != nil {
		pool.Stop()
	}
	if recorder != nil {
		recorder.Stop()
	}
	if valkeyClient != nil {
		valkeyClient.Close()
	}
	if agentDB != nil {
		_ = agentDB.Close()
	}

	logrus.Info("[APP] Application stopped cleanly.")
}
