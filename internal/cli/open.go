package cli

import (
	"fmt"

	"github.com/amterp/ra"

	"github.com/amterp/crack/internal/model"
	"github.com/amterp/crack/internal/service"
	"github.com/amterp/crack/internal/util"
)

func registerOpen(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("open")
	cmd.SetDescription("Open one unopened pack")

	ctx.OpenPack, _ = ra.NewString("pack").
		SetOptional(true).
		SetUsage("Pack key, name or unique key prefix (prompts when omitted)").
		SetCompletionFunc(completeOwnedPacks).
		Register(cmd)

	ctx.OpenUsed, _ = parent.RegisterCmd(cmd)
}

func registerReveal(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("reveal")
	cmd.SetDescription("Show cards from the last opening that have not been revealed")

	ctx.RevealAck, _ = ra.NewBool("ack").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Mark the pending cards as revealed").
		Register(cmd)

	ctx.RevealUsed, _ = parent.RegisterCmd(cmd)
}

func runOpen(packInput string, nonInteractive bool, jsonOutput bool) {
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
	pack, err := app.Catalog.Get(packKey)
	if err != nil {
		Fatal(err)
	}

	ctx, stop := signalContext()
	defer stop()

	if !jsonOutput {
		PrintInfo("Opening %s...", pack.Name)
	}
	result, err := app.OpeningService.OpenPack(ctx, packKey)
	if err != nil {
		Fatal(err)
	}

	if jsonOutput {
		// Scripts acknowledge explicitly with 'crack reveal --ack'.
		if err := printJson(NewOpenOutput(result)); err != nil {
			Fatal(err)
		}
		return
	}

	fmt.Println(TitleBox(pack.Name))
	printCards(result.Cards)
	printOpenReport(result)

	// The cards are on screen now. Cards left pending by an earlier
	// 'open --json' stay for 'crack reveal'.
	ids := make([]string, len(result.Cards))
	for i, c := range result.Cards {
		ids[i] = c.InstanceID
	}
	if err := app.OpeningService.AcknowledgeCards(ids); err != nil {
		PrintWarning("Could not clear the reveal marker: %v", err)
		return
	}
	if left, err := app.OpeningService.PendingRevealIDs(); err == nil && len(left) > 0 {
		PrintInfo("%d earlier card(s) still pending; run 'crack reveal'", len(left))
	}
}

func runReveal(ack bool, jsonOutput bool) {
	app, err := NewApp(false)
	if err != nil {
		Fatal(err)
	}
	if err := app.RequireInit(); err != nil {
		Fatal(err)
	}

	cards, err := app.OpeningService.PendingReveal()
	if err != nil {
		Fatal(err)
	}
	if ack {
		if err := app.OpeningService.AcknowledgeReveal(); err != nil {
			Fatal(err)
		}
	}

	if jsonOutput {
		if err := printJson(NewRevealOutput(cards, ack)); err != nil {
			Fatal(err)
		}
		return
	}

	if len(cards) == 0 {
		PrintInfo("Nothing to reveal")
		return
	}
	if opened := cards[0].ObtainedAtMillis; opened > 0 {
		fmt.Println(RenderMuted("Opened " + util.FormatMillis(opened)))
	}
	printCards(cards)
	if ack {
		PrintSuccess("Revealed %d card(s)", len(cards))
	} else {
		PrintInfo("Run 'crack reveal --ack' to mark these as revealed")
	}
}

func printCards(cards []model.Card) {
	for i := range cards {
		c := &cards[i]
		fmt.Printf("  %s %s  %s  %s  %s\n",
			RarityTag(c.Rarity),
			RenderCardName(c),
			RenderMuted(fmt.Sprintf("%s #%s", c.SetCode, c.CollectorNumber)),
			RenderMoney(c.Price),
			RenderID(c.InstanceID))
	}
}

func printOpenReport(result *service.OpenResult) {
	fmt.Println()
	fmt.Println(LabelValue("Value", RenderMoney(cardsValue(result.Cards)), 7))

	report := result.Report
	if report.Dropped > 0 {
		PrintWarning("%d of %d slots could not be filled", report.Dropped, report.Nominal)
	}
	if report.Padded > 0 {
		PrintInfo("%d slot(s) filled with a random card", report.Padded)
	}
	if result.Invalid > 0 {
		PrintWarning("%d card(s) came back incomplete and were skipped", result.Invalid)
	}
	if result.Discarded > 0 {
		PrintWarning("Collection is full: %d card(s) were not kept", result.Discarded)
	}
}
