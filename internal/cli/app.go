package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/amterp/crack/internal/booster"
	"github.com/amterp/crack/internal/catalog"
	"github.com/amterp/crack/internal/config"
	crackerr "github.com/amterp/crack/internal/errors"
	"github.com/amterp/crack/internal/model"
	"github.com/amterp/crack/internal/prompt"
	"github.com/amterp/crack/internal/resolver"
	"github.com/amterp/crack/internal/scryfall"
	"github.com/amterp/crack/internal/service"
	"github.com/amterp/crack/internal/store"
)

// App holds all the dependencies for the CLI.
// Uses interfaces for testability.
type App struct {
	Paths    *config.Paths
	Settings *model.Settings
	Logger   *slog.Logger
	Registry *booster.Registry
	Catalog  *catalog.Catalog
	Client   *scryfall.Client

	SettingsStore   store.SettingsStore
	CollectionStore store.CollectionStore
	InventoryStore  store.InventoryStore
	PendingStore    store.PendingRevealStore
	WalletStore     store.WalletStore
	SetCache        store.SetCache
	Ledger          *service.Ledger

	Prompter          prompt.Prompter
	InitService       *service.InitService
	OpeningService    *service.OpeningService
	ShopService       *service.ShopService
	CollectionService *service.CollectionService
	DoctorService     *service.DoctorService
	PackResolver      *resolver.PackResolver
	CardResolver      *resolver.CardResolver
}

// NewApp creates a new App with all dependencies wired up.
// If interactive is false, uses NoopPrompter that fails on prompts.
func NewApp(interactive bool) (*App, error) {
	return newApp(interactive, true)
}

// NewDiagnosticApp wires an App that leaves unreadable settings on disk
// instead of moving them aside, so the doctor can report them.
func NewDiagnosticApp() (*App, error) {
	return newApp(false, false)
}

func newApp(interactive bool, repair bool) (*App, error) {
	env := config.LoadEnv()
	paths := config.NewPaths(env.DataDir())

	// Settings decide the log level, so load them with a bootstrap logger.
	bootLogger := config.NewLogger(os.Stderr, firstNonEmpty(env.LogLevel, model.DefaultLogLevel))
	settingsStore := store.NewSettingsStore(paths, bootLogger)
	settings := model.DefaultSettings()
	if repair || settingsStore.Check() == nil {
		loaded, err := settingsStore.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load settings: %w", err)
		}
		settings = loaded
	}
	if env.APIURL != "" {
		settings.APIBaseURL = env.APIURL
	}
	logger := config.NewLogger(os.Stderr, firstNonEmpty(env.LogLevel, settings.LogLevel))

	registry := booster.NewRegistry()
	cat, err := catalog.Load(paths.PacksPath(), registry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load pack catalog: %w", err)
	}

	client := scryfall.NewClient(&http.Client{}, scryfall.Options{
		BaseURL:           settings.APIBaseURL,
		Timeout:           settings.RequestTimeout.Std(),
		FallbackTimeout:   settings.FallbackTimeout.Std(),
		RequestsPerSecond: settings.RequestsPerSecond,
	}, logger)
	engine := booster.NewEngine(client, registry, booster.SystemRNG{}, booster.Options{
		Concurrency:   settings.FetchConcurrency,
		PadShortPacks: settings.PadShortPacks,
	}, logger)

	collectionStore := store.NewCollectionStore(paths, logger)
	inventoryStore := store.NewInventoryStore(paths, logger)
	pendingStore := store.NewPendingRevealStore(paths, logger)
	walletStore := store.NewWalletStore(paths, logger)
	setCache := store.NewSetCache(paths, settings.SetCacheTTL.Std(), logger)
	ledger := service.NewLedger()

	var prompter prompt.Prompter
	if interactive {
		prompter = prompt.NewHuhPrompter()
	} else {
		prompter = &prompt.NoopPrompter{}
	}

	openingService := service.NewOpeningService(cat, engine, inventoryStore, collectionStore, pendingStore, ledger,
		service.OpeningOptions{
			MaxCollectionSize:    settings.MaxCollectionSize,
			RefundOnTotalFailure: settings.RefundOnTotalFailure,
		}, logger)
	shopService := service.NewShopService(cat, inventoryStore, collectionStore, pendingStore, walletStore, ledger,
		service.ShopOptions{
			FreePackKey:      settings.FreePackKey,
			FreePackCooldown: settings.FreePackCooldown.Std(),
		})

	return &App{
		Paths:    paths,
		Settings: settings,
		Logger:   logger,
		Registry: registry,
		Catalog:  cat,
		Client:   client,

		SettingsStore:   settingsStore,
		CollectionStore: collectionStore,
		InventoryStore:  inventoryStore,
		PendingStore:    pendingStore,
		WalletStore:     walletStore,
		SetCache:        setCache,
		Ledger:          ledger,

		Prompter:          prompter,
		InitService:       service.NewInitService(paths, cat, settingsStore, walletStore, inventoryStore),
		OpeningService:    openingService,
		ShopService:       shopService,
		CollectionService: service.NewCollectionService(collectionStore, client, setCache, logger),
		DoctorService: service.NewDoctorService(paths, registry, cat, settingsStore,
			collectionStore, inventoryStore, pendingStore, walletStore, ledger),
		PackResolver: resolver.NewPackResolver(cat, inventoryStore, prompter),
		CardResolver: resolver.NewCardResolver(collectionStore),
	}, nil
}

// RequireInit ensures the data directory has been initialized.
func (a *App) RequireInit() error {
	if !a.InitService.IsInitialized() {
		return &crackerr.NotInitializedError{Path: a.Paths.Root()}
	}
	return nil
}

// signalContext is cancelled on Ctrl+C so in-flight requests stop early.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Fatal prints an error and exits.
func Fatal(err error) {
	PrintError("%v", err)
	os.Exit(1)
}
