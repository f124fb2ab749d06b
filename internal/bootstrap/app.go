package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"triage-backend/internal/llm"
	"triage-backend/internal/llm/azure"
	openai "triage-backend/internal/llm/openai"
	"triage-backend/internal/notices"
	"triage-backend/internal/pricing"
	"triage-backend/internal/prompts"
	"triage-backend/internal/services/health"
	"triage-backend/internal/sessions"
	"triage-backend/internal/shared/config"
	"triage-backend/internal/shared/server"
	"triage-backend/internal/shared/storage/db"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB

	Registry *sessions.Registry

	PromptsRepo  prompts.PromptsRepo
	NoticesRepo  notices.NoticesRepo
	SessionsRepo sessions.Repo

	PromptsService  *prompts.Service
	NoticesService  *notices.Service
	SessionsService *sessions.Service
	HealthService   *health.Service

	PromptsHandler  *prompts.Handler
	NoticesHandler  *notices.Handler
	SessionsHandler *sessions.Handler
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		DB:       sqlDB,
		Registry: sessions.NewRegistry(),
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		Health:          app.HealthService,
		PromptsHandler:  app.PromptsHandler,
		NoticesHandler:  app.NoticesHandler,
		SessionsHandler: app.SessionsHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return sqlDB, nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	var promptsRepo prompts.PromptsRepo
	var noticesRepo notices.NoticesRepo
	var sessionsRepo sessions.Repo

	if app.DB != nil {
		promptsRepo = &prompts.PGRepo{DB: app.DB}
		noticesRepo = &notices.PGRepo{DB: app.DB}
		sessionsRepo = &sessions.PGRepo{DB: app.DB}
	} else {
		promptsRepo = prompts.NewMemoryRepo()
		noticesRepo = notices.NewMemoryRepo()
		sessionsRepo = sessions.NewMemoryRepo()
	}

	llmClient, err := BuildLLMClient(app.Config)
	if err != nil {
		return err
	}

	promptsSvc := prompts.NewService(promptsRepo)
	noticesSvc := notices.NewService(noticesRepo)
	sessionsSvc := &sessions.Service{
		Registry: app.Registry,
		Repo:     sessionsRepo,
		Prompts:  promptsRepo,
		Notices:  noticesRepo,
		Client:   llmClient,
		Prices:   pricing.Default(),
		Provider: app.Config.LLMProvider,
		Retry:    sessions.DefaultRetryPolicy(),
	}

	app.PromptsRepo = promptsRepo
	app.NoticesRepo = noticesRepo
	app.SessionsRepo = sessionsRepo
	app.PromptsService = promptsSvc
	app.NoticesService = noticesSvc
	app.SessionsService = sessionsSvc
	app.HealthService = health.NewService(app.DB)
	app.PromptsHandler = prompts.NewHandler(promptsSvc)
	app.NoticesHandler = notices.NewHandler(noticesSvc)
	app.SessionsHandler = sessions.NewHandler(sessionsSvc)

	return nil
}

// BuildLLMClient selects the provider implementation from configuration.
// Missing credentials fall back to a placeholder client so the rest of the
// API stays usable; session starts will fail item-by-item until keys are set.
func BuildLLMClient(cfg config.Config) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "azure":
		if strings.TrimSpace(cfg.AzureAPIKey) == "" || strings.TrimSpace(cfg.AzureEndpoint) == "" {
			log.Printf("bootstrap: azure credentials missing; llm calls will fail")
			return llm.PlaceholderClient{}, nil
		}
		return azure.NewClient(cfg.AzureAPIKey, cfg.AzureEndpoint, cfg.AzureAPIVersion)
	default:
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			log.Printf("bootstrap: OPENAI_API_KEY missing; llm calls will fail")
			return llm.PlaceholderClient{}, nil
		}
		return openai.NewClient(cfg.OpenAIAPIKey)
	}
}
