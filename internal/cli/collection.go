package cli

import (
	"fmt"
	"strings"

	"github.com/amterp/ra"

	crackerr "github.com/amterp/crack/internal/errors"
	"github.com/amterp/crack/internal/model"
	"github.com/amterp/crack/internal/service"
)

func registerCollection(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("collection")
	cmd.SetDescription("List the cards you own")

	ctx.CollectionSort, _ = ra.NewString("sort").
		SetShort("s").
		SetOptional(true).
		SetFlagOnly(true).
		SetDefault(service.SortNewest).
		SetEnumConstraint(service.SortOrders).
		SetUsage("Sort order").
		Register(cmd)

	ctx.CollectionSet, _ = ra.NewString("set").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Only cards from this set code").
		Register(cmd)

	ctx.CollectionRarity, _ = ra.NewString("rarity").
		SetShort("r").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Only cards of this rarity (common, uncommon, rare, mythic)").
		Register(cmd)

	ctx.CollectionFoil, _ = ra.NewBool("foil").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Only foil cards").
		Register(cmd)

	ctx.CollectionUsed, _ = parent.RegisterCmd(cmd)
}

func registerSet(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("set")
	cmd.SetDescription("Show how much of a set you have collected")

	ctx.SetCode, _ = ra.NewString("code").
		SetUsage("Set code, e.g. dmu").
		Register(cmd)

	ctx.SetUsed, _ = parent.RegisterCmd(cmd)
}

func runCollection(sortOrder, setCode, rarityStr string, foilOnly bool, jsonOutput bool) {
	filter := service.CollectionFilter{Sort: sortOrder, SetCode: setCode, FoilOnly: foilOnly}
	if rarityStr != "" {
		rarity, ok := model.ParseRarity(rarityStr)
		if !ok {
			Fatal(crackerr.InvalidField("rarity", fmt.Sprintf("unknown rarity %q", rarityStr)))
		}
		filter.Rarity = rarity
	}

	app, err := NewApp(false)
	if err != nil {
		Fatal(err)
	}
	if err := app.RequireInit(); err != nil {
		Fatal(err)
	}

	cards, err := app.CollectionService.List(filter)
	if err != nil {
		Fatal(err)
	}
	summary, err := app.CollectionService.Summary()
	if err != nil {
		Fatal(err)
	}

	if jsonOutput {
		if err := printJson(NewCollectionOutput(cards, summary)); err != nil {
			Fatal(err)
		}
		return
	}

	if len(cards) == 0 {
		if summary.Count == 0 {
			PrintInfo("Your collection is empty (open a pack with 'crack open')")
		} else {
			PrintInfo("No cards match")
		}
		return
	}

	printCards(cards)
	fmt.Println()
	fmt.Println(LabelValue("Showing", fmt.Sprintf("%d of %d", len(cards), summary.Count), 8))
	fmt.Println(LabelValue("Value", RenderMoney(summary.Value), 8))

	var counts []string
	for i := len(model.Rarities) - 1; i >= 0; i-- {
		r := model.Rarities[i]
		if n := summary.ByRarity[r]; n > 0 {
			counts = append(counts, RenderRarity(fmt.Sprintf("%d %s", n, r), r))
		}
	}
	if summary.Foils > 0 {
		counts = append(counts, StyleFoil.Render(fmt.Sprintf("%d foil", summary.Foils)))
	}
	fmt.Println(LabelValue("Rarity", strings.Join(counts, ", "), 8))
}

func runSet(code string, jsonOutput bool) {
	app, err := NewApp(false)
	if err != nil {
		Fatal(err)
	}

	ctx, stop := signalContext()
	defer stop()

	progress, err := app.CollectionService.SetProgress(ctx, code)
	if err != nil {
		Fatal(err)
	}

	if jsonOutput {
		if err := printJson(progress); err != nil {
			Fatal(err)
		}
		return
	}

	title := strings.ToUpper(progress.SetCode)
	if progress.SetName != "" {
		title = fmt.Sprintf("%s (%s)", progress.SetName, title)
	}
	fmt.Println(TitleBox(title))
	fmt.Println(LabelValue("Owned", fmt.Sprintf("%d / %d prints (%.1f%%)", progress.Owned, progress.Total, progress.Percent()), 7))

	if len(progress.Missing) == 0 {
		PrintSuccess("Set complete")
		return
	}

	const maxListed = 20
	fmt.Println()
	fmt.Println(RenderBold("Missing:"))
	for i, m := range progress.Missing {
		if i == maxListed {
			fmt.Println(RenderMuted(fmt.Sprintf("  ... and %d more", len(progress.Missing)-maxListed)))
			break
		}
		fmt.Printf("  %s %s %s\n", RarityTag(m.Rarity), RenderRarity(m.Name, m.Rarity), RenderMuted("#"+m.CollectorNumber))
	}
}
