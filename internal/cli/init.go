package cli

import (
	"fmt"
	"strings"

	"github.com/amterp/ra"
)

func registerInit(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("init")
	cmd.SetDescription("Set up the data directory with a starting balance and packs")

	ctx.InitForce, _ = ra.NewBool("force").
		SetShort("f").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Reset settings, wallet and inventory (the collection is kept)").
		Register(cmd)

	ctx.InitUsed, _ = parent.RegisterCmd(cmd)
}

func runInit(force bool, jsonOutput bool) {
	app, err := NewApp(false)
	if err != nil {
		Fatal(err)
	}

	result, err := app.InitService.Initialize(force)
	if err != nil {
		Fatal(err)
	}

	if jsonOutput {
		if err := printJson(result); err != nil {
			Fatal(err)
		}
		return
	}

	if result.AlreadyInitialized {
		PrintInfo("Already initialized in %s (use --force to reset)", result.Root)
		return
	}

	PrintSuccess("Initialized crack in %s", result.Root)
	fmt.Println(LabelValue("Balance", RenderMoney(result.Balance), 9))

	var packs []string
	for _, key := range app.Catalog.Keys() {
		if n := result.Inventory.Count(key); n > 0 {
			packs = append(packs, fmt.Sprintf("%s ×%d", key, n))
		}
	}
	if len(packs) > 0 {
		fmt.Println(LabelValue("Packs", strings.Join(packs, ", "), 9))
	}
}
