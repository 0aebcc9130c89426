package cli

import (
	"os"

	"github.com/amterp/ra"
)

// CommandContext holds parsed values and used flags for all commands.
type CommandContext struct {
	// Global flags
	NonInteractive *bool
	JSON           *bool

	// init command
	InitUsed  *bool
	InitForce *bool

	// packs command
	PacksUsed *bool

	// inventory command
	InventoryUsed *bool

	// open command
	OpenUsed *bool
	OpenPack *string

	// reveal command
	RevealUsed *bool
	RevealAck  *bool

	// collection command
	CollectionUsed   *bool
	CollectionSort   *string
	CollectionSet    *string
	CollectionRarity *string
	CollectionFoil   *bool

	// set command
	SetUsed *bool
	SetCode *string

	// buy command
	BuyUsed     *bool
	BuyPack     *string
	BuyQuantity *int

	// claim command
	ClaimUsed *bool

	// sell command
	SellUsed *bool
	SellIDs  *[]string
	SellYes  *bool

	// doctor command
	DoctorUsed   *bool
	DoctorFix    *bool
	DoctorDryRun *bool

	// settings command
	SettingsUsed *bool
	SettingsEdit *bool

	// serve command
	ServeUsed   *bool
	ServePort   *int
	ServeNoOpen *bool

	// completion command
	CompletionUsed  *bool
	CompletionShell *string
}

// Run is the main entry point for the CLI.
func Run() {
	ctx := &CommandContext{}

	cmd := ra.NewCmd("crack")
	cmd.SetDescription("Open virtual booster packs of real cards")

	// Global flag for non-interactive mode
	ctx.NonInteractive, _ = ra.NewBool("non-interactive").
		SetShort("I").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Fail instead of prompting for missing input").
		Register(cmd, ra.WithGlobal(true))

	ctx.JSON, _ = ra.NewBool("json").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Print machine-readable JSON").
		Register(cmd, ra.WithGlobal(true))

	// Register all subcommands
	registerInit(cmd, ctx)
	registerPacks(cmd, ctx)
	registerInventory(cmd, ctx)
	registerOpen(cmd, ctx)
	registerReveal(cmd, ctx)
	registerCollection(cmd, ctx)
	registerSet(cmd, ctx)
	registerBuy(cmd, ctx)
	registerClaim(cmd, ctx)
	registerSell(cmd, ctx)
	registerDoctor(cmd, ctx)
	registerSettings(cmd, ctx)
	registerServe(cmd, ctx)
	registerCompletion(cmd, ctx)

	// Parse command line
	cmd.ParseOrExit(os.Args[1:])

	// Execute the appropriate command
	executeCommand(ctx, cmd)
}

func executeCommand(ctx *CommandContext, rootCmd *ra.Cmd) {
	jsonOutput := *ctx.JSON

	switch {
	case *ctx.InitUsed:
		runInit(*ctx.InitForce, jsonOutput)

	case *ctx.PacksUsed:
		runPacks(jsonOutput)

	case *ctx.InventoryUsed:
		runInventory(jsonOutput)

	case *ctx.OpenUsed:
		runOpen(*ctx.OpenPack, *ctx.NonInteractive, jsonOutput)

	case *ctx.RevealUsed:
		runReveal(*ctx.RevealAck, jsonOutput)

	case *ctx.CollectionUsed:
		runCollection(*ctx.CollectionSort, *ctx.CollectionSet, *ctx.CollectionRarity, *ctx.CollectionFoil, jsonOutput)

	case *ctx.SetUsed:
		runSet(*ctx.SetCode, jsonOutput)

	case *ctx.BuyUsed:
		runBuy(*ctx.BuyPack, *ctx.BuyQuantity, *ctx.NonInteractive, jsonOutput)

	case *ctx.ClaimUsed:
		runClaim(jsonOutput)

	case *ctx.SellUsed:
		runSell(*ctx.SellIDs, *ctx.SellYes, *ctx.NonInteractive, jsonOutput)

	case *ctx.DoctorUsed:
		runDoctor(*ctx.DoctorFix, *ctx.DoctorDryRun, jsonOutput)

	case *ctx.SettingsUsed:
		if jsonOutput {
			warnJsonNotSupported("settings")
		}
		runSettings(*ctx.SettingsEdit, *ctx.NonInteractive)

	case *ctx.ServeUsed:
		if jsonOutput {
			warnJsonNotSupported("serve")
		}
		runServe(*ctx.ServePort, *ctx.ServeNoOpen)

	case *ctx.CompletionUsed:
		runCompletion(*ctx.CompletionShell, rootCmd)
	}
}
