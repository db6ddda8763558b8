// funneld serves the quiz funnel editor API: the stage and component tree,
// theme tokens, event capture, and funnel analytics, backed by JSON snapshots
// on local disk.
package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/giselegal/quiz-sell-genius-66-sub005/internal/admin"
	"github.com/giselegal/quiz-sell-genius-66-sub005/internal/api"
	"github.com/giselegal/quiz-sell-genius-66-sub005/internal/cms"
	"github.com/giselegal/quiz-sell-genius-66-sub005/internal/config"
	"github.com/giselegal/quiz-sell-genius-66-sub005/internal/editor"
	"github.com/giselegal/quiz-sell-genius-66-sub005/internal/events"
	"github.com/giselegal/quiz-sell-genius-66-sub005/internal/funnel"
	"github.com/giselegal/quiz-sell-genius-66-sub005/internal/persist"
	"github.com/giselegal/quiz-sell-genius-66-sub005/internal/theme"
	"github.com/giselegal/quiz-sell-genius-66-sub005/pkg/memstore"
	"github.com/giselegal/quiz-sell-genius-66-sub005/pkg/webcore"
	"github.com/giselegal/quiz-sell-genius-66-sub005/pkg/webhook"
)

func main() {
	flags := webcore.ParseFlags("funneld")
	if flags.Port == 0 {
		flags.Port = 8712
	}

	appCfg, err := config.Load(flags.ConfigFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	server := webcore.New(flags)
	logger := server.Logger
	clock := memstore.NewClock()

	if err := os.MkdirAll(appCfg.StorageDir, 0o755); err != nil {
		log.Fatalf("failed to create storage dir: %v", err)
	}

	// Editor state: snapshot on disk if present, default quiz otherwise.
	editorStore := editor.NewStore()
	themeManager := theme.NewManager()
	snapshots := persist.NewSnapshotStore(appCfg.SnapshotPath(), logger)
	if st, found, loadErr := snapshots.Load(); loadErr != nil {
		logger.Warn("state snapshot unreadable, starting from defaults", "err", loadErr)
		seedDefaults(editorStore, logger)
	} else if found {
		if err := editorStore.Replace(st.Stages); err != nil {
			logger.Warn("state snapshot rejected, starting from defaults", "err", err)
			seedDefaults(editorStore, logger)
		} else if err := themeManager.Replace(st.Theme); err != nil {
			logger.Warn("snapshot theme rejected, keeping default theme", "err", err)
		}
	} else {
		seedDefaults(editorStore, logger)
	}

	// Analytics event log with its on-disk journal.
	eventStore := events.NewStore(appCfg.JournalPath(), clock, logger)
	eventStore.Load()

	var dispatcher *webhook.Dispatcher
	if appCfg.WebhookURL != "" {
		dispatcher = webhook.NewDispatcher(webhook.Config{
			URL:         appCfg.WebhookURL,
			Secret:      appCfg.WebhookSecret,
			Signer:      webhook.NewHMACSigner(),
			Logger:      logger,
			AutoDeliver: true,
		})
	}

	refresher := funnel.NewRefresher(eventStore.All, funnel.DefaultSteps(),
		appCfg.RefreshInterval, clock.Now, logger)
	refresher.Start()
	defer refresher.Stop()

	var cmsClient *cms.Client
	if appCfg.CMS.BaseURL != "" {
		cmsClient = cms.New(appCfg.CMS.BaseURL)
	}

	apiHandler := api.NewHandler(api.Deps{
		Editor:     editorStore,
		Themes:     themeManager,
		Events:     eventStore,
		Snapshots:  snapshots,
		Dispatcher: dispatcher,
		Refresher:  refresher,
		CMSClient:  cmsClient,
		CMSModel:   appCfg.CMS.Model,
		Auth:       api.NewAuth(appCfg.AdminSecret, clock.Now),
		Middleware: server.Middleware(),
		Logger:     logger,
	})
	apiHandler.Routes(server.Router)

	appState := &admin.AppState{
		Editor: editorStore,
		Themes: themeManager,
		Events: eventStore,
		Logger: logger,
	}
	adminHandler := admin.NewHandler(appState, server.Middleware(), clock)
	adminHandler.SetConfigProvider(server)
	if dispatcher != nil {
		adminHandler.SetFlusher(dispatcher)
	}
	adminHandler.Routes(server.Router)

	// Seed data overrides whatever the snapshot provided.
	if flags.SeedFile != "" {
		data, err := os.ReadFile(flags.SeedFile)
		if err != nil {
			log.Fatalf("failed to read seed file: %v", err)
		}
		if err := appState.LoadState(data); err != nil {
			log.Fatalf("failed to load seed data: %v", err)
		}
		logger.Info("loaded seed data", "file", flags.SeedFile)
	}

	logger.Info("funneld ready",
		"port", flags.Port,
		"storage_dir", appCfg.StorageDir,
		"stages", len(editorStore.Stages()),
		"events", eventStore.Count(),
		"auth", appCfg.AdminSecret != "",
	)

	if err := server.Serve(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func seedDefaults(s *editor.Store, logger *slog.Logger) {
	if err := s.Replace(editor.DefaultStages()); err != nil {
		log.Fatalf("default stages invalid: %v", err)
	}
	logger.Info("seeded default quiz stages")
}
