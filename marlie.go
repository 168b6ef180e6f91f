// Package marlie wires the salon booking assistant: WhatsApp transport,
// message understanding, conversation state, the Trinks agenda and the
// booking audit log.
package marlie

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NextMind-AI/marlie/audit"
	"github.com/NextMind-AI/marlie/aws"
	"github.com/NextMind-AI/marlie/booking"
	"github.com/NextMind-AI/marlie/catalog"
	"github.com/NextMind-AI/marlie/config"
	"github.com/NextMind-AI/marlie/dialog"
	"github.com/NextMind-AI/marlie/elevenlabs"
	"github.com/NextMind-AI/marlie/execution"
	"github.com/NextMind-AI/marlie/metrics"
	"github.com/NextMind-AI/marlie/openai"
	"github.com/NextMind-AI/marlie/processor"
	"github.com/NextMind-AI/marlie/redis"
	"github.com/NextMind-AI/marlie/server"
	"github.com/NextMind-AI/marlie/trinks"
	"github.com/NextMind-AI/marlie/vonage"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Marlie represents a running assistant for one salon.
type Marlie struct {
	config      *config.Config
	server      *server.Server
	syncer      *catalog.Syncer
	redisClient *redis.Client
	pool        *pgxpool.Pool
}

// New loads the configuration from the environment and builds every component.
func New() *Marlie {
	appConfig := config.Load()
	setLogLevel(appConfig.LogLevel)

	httpClient := http.Client{Timeout: 30 * time.Second}
	location := appConfig.Location()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	redisClient := redis.NewClient(
		appConfig.RedisAddr,
		appConfig.RedisPassword,
		appConfig.RedisDB,
	)
	stateStore := redis.NewStateStore(redisClient, appConfig.StateTTL)
	catalogStore := redis.NewCatalogStore(redisClient)

	trinksClient := trinks.NewClient(trinks.Config{
		APIKey:            appConfig.TrinksAPIKey,
		EstabelecimentoID: appConfig.TrinksEstabelecimentoID,
		BaseURL:           appConfig.TrinksBaseURL,
		Timeout:           appConfig.TrinksTimeout,
		Location:          location,
	}, m)

	recorder, pool := newRecorder(appConfig)
	committer := booking.NewCommitter(trinksClient, recorder, m)

	localCatalog := catalog.NewLocal(catalogStore)
	resolver := catalog.NewResolver(localCatalog, trinksClient)
	syncer := catalog.NewSyncer(trinksClient, catalogStore)

	openAIClient := openai.NewClient(appConfig.OpenAIKey, httpClient)
	extractor := openai.NewExtractor(openAIClient, location, m)

	orchestrator := dialog.NewOrchestrator(
		dialog.Deps{
			Store:     stateStore,
			Extractor: extractor,
			Resolver:  resolver,
			Catalog:   localCatalog,
			Booker:    committer,
			Locker:    execution.NewManager(),
		},
		dialog.Options{
			TenantID:      appConfig.TenantID,
			HistoryLimit:  appConfig.HistoryLimit,
			ContextTurns:  appConfig.ContextTurns,
			Location:      location,
			BusinessHours: appConfig.BusinessHours,
			Metrics:       m,
		},
	)

	vonageClient := vonage.NewClient(vonage.Config{
		VonageJWT:                 appConfig.VonageJWT,
		GeospecificMessagesAPIURL: appConfig.GeospecificMessagesAPIURL,
		MessagesAPIURL:            appConfig.MessagesAPIURL,
		SenderID:                  appConfig.VonageSenderID,
	}, httpClient)

	var transcriber processor.Transcriber
	if appConfig.ElevenLabsAPIKey != "" {
		elevenLabsClient := elevenlabs.NewClient(appConfig.ElevenLabsAPIKey, httpClient)
		transcriber = &elevenLabsClient
	} else {
		log.Warn().Msg("ELEVENLABS_API_KEY not set, audio messages will not be transcribed")
	}

	messageProcessor := processor.NewMessageProcessor(&vonageClient, transcriber, orchestrator, m)

	srv := server.New(appConfig.TenantID, server.Deps{
		Processor:     messageProcessor,
		Conversations: stateStore,
		Catalog:       syncer,
		Metrics:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	return &Marlie{
		config:      appConfig,
		server:      srv,
		syncer:      syncer,
		redisClient: redisClient,
		pool:        pool,
	}
}

// newRecorder fans booking attempts out to every configured sink. The log
// sink is always present.
func newRecorder(appConfig *config.Config) (booking.Recorder, *pgxpool.Pool) {
	sinks := audit.Multi{audit.LogRecorder{}}
	var pool *pgxpool.Pool

	if appConfig.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		p, err := audit.Connect(ctx, appConfig.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to audit database")
		}
		pool = p
		sinks = append(sinks, audit.NewPostgresRecorder(p))
	} else {
		log.Warn().Msg("DATABASE_URL not set, booking attempts are only logged")
	}

	if appConfig.S3Bucket != "" {
		awsClient := aws.NewClient(appConfig.S3Region, appConfig.S3Bucket)
		sinks = append(sinks, audit.NewS3Recorder(awsClient, appConfig.S3Prefix))
	}

	return sinks, pool
}

func setLogLevel(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}

// Start refreshes the service catalog in the background and serves HTTP
// until SIGINT or SIGTERM.
func (m *Marlie) Start() {
	go m.refreshCatalog()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-done
		log.Info().Msg("Shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := m.server.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Error shutting down server")
		}
	}()

	m.server.Start(m.config.Port)
	m.Close()
}

func (m *Marlie) refreshCatalog() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	count, err := m.syncer.Refresh(ctx, m.config.TenantID)
	if err != nil {
		log.Error().Err(err).Msg("Initial catalog refresh failed, using stored snapshot")
		return
	}
	log.Info().Int("services", count).Msg("Service catalog refreshed")
}

// Close releases the database pool and the Redis connection.
func (m *Marlie) Close() {
	if m.pool != nil {
		m.pool.Close()
	}
	if err := m.redisClient.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing Redis client")
	}
}
