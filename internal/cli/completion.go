package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/amterp/ra"

	"github.com/amterp/crack/internal/booster"
	"github.com/amterp/crack/internal/catalog"
	"github.com/amterp/crack/internal/config"
	"github.com/amterp/crack/internal/model"
	"github.com/amterp/crack/internal/store"
)

// completionCtx provides lightweight store access for shell completion.
// Completion functions run during ParseOrExit, before NewApp() is called,
// so we can't use the full App. Nothing here writes to disk or logs.
type completionCtx struct {
	once       sync.Once
	catalog    *catalog.Catalog
	inventory  *store.FileInventoryStore
	collection *store.FileCollectionStore
}

var compCtx completionCtx

func initCompletionCtx() {
	compCtx.once.Do(func() {
		quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
		paths := config.NewPaths(config.LoadEnv().DataDir())

		cat, err := catalog.Load(paths.PacksPath(), booster.NewRegistry(), quiet)
		if err == nil {
			compCtx.catalog = cat
		}
		compCtx.inventory = store.NewInventoryStore(paths, quiet)
		compCtx.collection = store.NewCollectionStore(paths, quiet)
	})
}

// completePacks returns catalog pack keys matching the given prefix.
func completePacks(toComplete string) ([]string, ra.CompletionDirective) {
	initCompletionCtx()
	if compCtx.catalog == nil {
		return nil, ra.CompletionDirectiveNoFileComp
	}
	return filterPrefix(compCtx.catalog.Keys(), toComplete), ra.CompletionDirectiveNoFileComp
}

// completeOwnedPacks returns keys of packs the user owns at least one of.
func completeOwnedPacks(toComplete string) ([]string, ra.CompletionDirective) {
	initCompletionCtx()
	if compCtx.catalog == nil || compCtx.inventory.Check() != nil {
		return nil, ra.CompletionDirectiveNoFileComp
	}
	inv, err := compCtx.inventory.Load()
	if err != nil {
		return nil, ra.CompletionDirectiveNoFileComp
	}
	return filterPrefix(ownedKeys(compCtx.catalog.Keys(), inv), toComplete), ra.CompletionDirectiveNoFileComp
}

// completeCards returns instance IDs matching the given prefix.
func completeCards(toComplete string) ([]string, ra.CompletionDirective) {
	initCompletionCtx()
	// A corrupt file would be moved aside by Load; leave that to a real command.
	if compCtx.collection.Check() != nil {
		return nil, ra.CompletionDirectiveNoFileComp
	}
	cards, err := compCtx.collection.Load()
	if err != nil {
		return nil, ra.CompletionDirectiveNoFileComp
	}
	ids := make([]string, 0, len(cards))
	for _, c := range cards {
		ids = append(ids, c.InstanceID)
	}
	return filterPrefix(ids, toComplete), ra.CompletionDirectiveNoFileComp
}

func ownedKeys(keys []string, inv model.Inventory) []string {
	var owned []string
	for _, k := range keys {
		if inv.Count(k) > 0 {
			owned = append(owned, k)
		}
	}
	return owned
}

func filterPrefix(values []string, prefix string) []string {
	var result []string
	for _, v := range values {
		if strings.HasPrefix(v, prefix) {
			result = append(result, v)
		}
	}
	return result
}

// registerCompletion adds the "crack completion <shell>" command.
func registerCompletion(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("completion")
	cmd.SetDescription("Output shell completion script")

	ctx.CompletionShell, _ = ra.NewString("shell").
		SetUsage("Shell type").
		SetEnumConstraint([]string{"bash", "zsh"}).
		Register(cmd)

	ctx.CompletionUsed, _ = parent.RegisterCmd(cmd)
}

// runCompletion outputs the shell completion script to stdout.
func runCompletion(shell string, rootCmd *ra.Cmd) {
	var err error
	switch shell {
	case "bash":
		err = rootCmd.GenBashCompletion(os.Stdout)
	case "zsh":
		err = rootCmd.GenZshCompletion(os.Stdout)
	default:
		Fatal(fmt.Errorf("unsupported shell: %s (supported: bash, zsh)", shell))
	}
	if err != nil {
		Fatal(fmt.Errorf("failed to generate completion script: %w", err))
	}
}
