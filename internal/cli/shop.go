package cli

import (
	"fmt"
	"time"

	"github.com/amterp/ra"

	crackerr "github.com/amterp/crack/internal/errors"
	"github.com/amterp/crack/internal/prompt"
	"github.com/amterp/crack/internal/service"
)

func registerBuy(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("buy")
	cmd.SetDescription("Buy packs with your balance")

	ctx.BuyPack, _ = ra.NewString("pack").
		SetUsage("Pack key, name or unique key prefix").
		SetCompletionFunc(completePacks).
		Register(cmd)

	ctx.BuyQuantity, _ = ra.NewInt("quantity").
		SetShort("n").
		SetOptional(true).
		SetDefault(1).
		SetFlagOnly(true).
		SetUsage("Number of packs to buy").
		Register(cmd)

	ctx.BuyUsed, _ = parent.RegisterCmd(cmd)
}

func registerClaim(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("claim")
	cmd.SetDescription("Claim the free pack when it is available")

	ctx.ClaimUsed, _ = parent.RegisterCmd(cmd)
}

func registerSell(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("sell")
	cmd.SetDescription("Sell cards for their listed price")

	ctx.SellIDs, _ = ra.NewStringSlice("ids").
		SetOptional(true).
		SetUsage("Instance IDs or unique prefixes (prompts when omitted)").
		SetCompletionFunc(completeCards).
		Register(cmd)

	ctx.SellYes, _ = ra.NewBool("yes").
		SetShort("y").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Skip the confirmation prompt").
		Register(cmd)

	ctx.SellUsed, _ = parent.RegisterCmd(cmd)
}

func runBuy(packInput string, qty int, nonInteractive bool, jsonOutput bool) {
	app, err := NewApp(!nonInteractive && !jsonOutput)
	if err != nil {
		Fatal(err)
	}
	if err := app.RequireInit(); err != nil {
		Fatal(err)
	}

	packKey, err := app.PackResolver.Resolve(packInput, !nonInteractive && !jsonOutput)
	if err != nil {
		Fatal(err)
	}

	result, err := app.ShopService.Buy(packKey, qty)
	if err != nil {
		Fatal(err)
	}

	if jsonOutput {
		if err := printJson(result); err != nil {
			Fatal(err)
		}
		return
	}
	PrintSuccess("Bought %d × %s for %s (now own %d)", result.Quantity, RenderBold(result.PackKey), RenderMoney(result.Cost), result.Owned)
	fmt.Println(LabelValue("Balance", RenderMoney(result.Balance), 9))
}

func runClaim(jsonOutput bool) {
	app, err := NewApp(false)
	if err != nil {
		Fatal(err)
	}
	if err := app.RequireInit(); err != nil {
		Fatal(err)
	}

	result, err := app.ShopService.ClaimFree()
	if err != nil {
		Fatal(err)
	}

	if jsonOutput {
		if err := printJson(result); err != nil {
			Fatal(err)
		}
		return
	}
	PrintSuccess("Claimed a free %s pack (now own %d)", RenderBold(result.PackKey), result.Owned)
	if next, err := app.ShopService.NextFreeClaim(); err == nil && next > 0 {
		PrintInfo("Next free pack in %s", next.Round(time.Minute))
	}
}

func runSell(refs []string, yes bool, nonInteractive bool, jsonOutput bool) {
	interactive := !nonInteractive && !jsonOutput
	app, err := NewApp(interactive)
	if err != nil {
		Fatal(err)
	}
	if err := app.RequireInit(); err != nil {
		Fatal(err)
	}

	var ids []string
	if len(refs) == 0 {
		if !interactive {
			Fatal(crackerr.InvalidField("ids", "at least one card is required in non-interactive mode"))
		}
		ids, err = pickCardsToSell(app)
	} else {
		ids, err = app.CardResolver.ResolveAll(refs)
	}
	if err != nil {
		Fatal(err)
	}
	if len(ids) == 0 {
		PrintInfo("Nothing selected")
		return
	}

	if interactive && !yes {
		value, err := saleValue(app.CollectionService, ids)
		if err != nil {
			Fatal(err)
		}
		ok, err := app.Prompter.Confirm(fmt.Sprintf("Sell %d card(s) for %s?", len(ids), FormatMoney(value)), false)
		if err != nil {
			Fatal(err)
		}
		if !ok {
			PrintInfo("Cancelled")
			return
		}
	}

	result, err := app.ShopService.Sell(ids)
	if err != nil {
		Fatal(err)
	}

	if jsonOutput {
		if err := printJson(NewSaleOutput(result)); err != nil {
			Fatal(err)
		}
		return
	}
	for i := range result.Sold {
		fmt.Printf("  %s %s  %s\n", RarityTag(result.Sold[i].Rarity), RenderCardName(&result.Sold[i]), RenderMoney(result.Sold[i].Price))
	}
	PrintSuccess("Sold %d card(s) for %s", len(result.Sold), RenderMoney(result.Credit))
	fmt.Println(LabelValue("Balance", RenderMoney(result.Balance), 9))
}

// pickCardsToSell offers every revealed card, most valuable first.
func pickCardsToSell(app *App) ([]string, error) {
	cards, err := app.CollectionService.List(service.CollectionFilter{Sort: service.SortPrice})
	if err != nil {
		return nil, err
	}
	pending, err := app.OpeningService.PendingRevealIDs()
	if err != nil {
		return nil, err
	}
	hidden := make(map[string]bool, len(pending))
	for _, id := range pending {
		hidden[id] = true
	}

	options := make([]prompt.Option, 0, len(cards))
	for _, c := range cards {
		if hidden[c.InstanceID] {
			continue
		}
		label := fmt.Sprintf("%s (%s #%s, %s) %s", c.Name, c.SetCode, c.CollectorNumber, c.Rarity, FormatMoney(c.Price))
		if c.Foil {
			label += " foil"
		}
		options = append(options, prompt.Option{Label: label, Value: c.InstanceID})
	}
	if len(options) == 0 {
		return nil, nil
	}
	return app.Prompter.MultiSelect("Select cards to sell", options)
}

func saleValue(collection *service.CollectionService, ids []string) (float64, error) {
	total := 0.0
	for _, id := range ids {
		c, err := collection.Get(id)
		if err != nil {
			return 0, err
		}
		total += c.Price
	}
	return total, nil
}
