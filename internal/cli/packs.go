package cli

import (
	"fmt"
	"sort"

	"github.com/amterp/ra"

	"github.com/amterp/crack/internal/model"
)

func registerPacks(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("packs")
	cmd.SetDescription("List the pack types in the catalog")

	ctx.PacksUsed, _ = parent.RegisterCmd(cmd)
}

func registerInventory(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("inventory")
	cmd.SetDescription("Show unopened packs and wallet balance")

	ctx.InventoryUsed, _ = parent.RegisterCmd(cmd)
}

func runPacks(jsonOutput bool) {
	app, err := NewApp(false)
	if err != nil {
		Fatal(err)
	}

	inv, err := app.InventoryStore.Load()
	if err != nil {
		Fatal(err)
	}
	packs := app.Catalog.List()

	if jsonOutput {
		if err := printJson(NewPacksOutput(packs, inv)); err != nil {
			Fatal(err)
		}
		return
	}

	for _, p := range packs {
		line := fmt.Sprintf("%-16s %s  %s  %s",
			RenderBold(p.Key), p.Name,
			RenderMuted(fmt.Sprintf("%d cards", p.NominalSize())),
			RenderMoney(p.Price))
		if n := inv.Count(p.Key); n > 0 {
			line += StyleSuccess.Render(fmt.Sprintf("  owned ×%d", n))
		}
		fmt.Println(line)
	}
}

func runInventory(jsonOutput bool) {
	app, err := NewApp(false)
	if err != nil {
		Fatal(err)
	}
	if err := app.RequireInit(); err != nil {
		Fatal(err)
	}

	inv, err := app.InventoryStore.Load()
	if err != nil {
		Fatal(err)
	}
	out := NewInventoryOutput(app.Catalog, inv)

	if jsonOutput {
		if err := printJson(out); err != nil {
			Fatal(err)
		}
		return
	}

	wallet, err := app.ShopService.Wallet()
	if err != nil {
		Fatal(err)
	}
	fmt.Println(LabelValue("Balance", RenderMoney(wallet.Balance), 9))

	if len(out.Packs) == 0 {
		PrintInfo("No unopened packs (try 'crack buy' or 'crack claim')")
		return
	}
	for _, entry := range out.Packs {
		name := entry.Name
		if name == "" {
			name = RenderMuted("(not in catalog)")
		}
		fmt.Printf("  %-16s %s ×%d\n", RenderBold(entry.Key), name, entry.Count)
	}

	if next, err := app.ShopService.NextFreeClaim(); err == nil && next == 0 {
		PrintInfo("A free pack is ready to claim")
	}
}

func sortedInventoryKeys(inv model.Inventory) []string {
	keys := make([]string, 0, len(inv))
	for k := range inv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
