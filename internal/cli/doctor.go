package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/amterp/ra"

	"github.com/amterp/crack/internal/service"
)

func registerDoctor(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("doctor")
	cmd.SetDescription("Check saved data for consistency issues. Exit 0 if healthy, 1 if errors found.")

	ctx.DoctorFix, _ = ra.NewBool("fix").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Apply automatic fixes for issues with deterministic solutions").
		Register(cmd)

	ctx.DoctorDryRun, _ = ra.NewBool("dry-run").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Show what fixes would be applied without making changes").
		Register(cmd)

	ctx.DoctorUsed, _ = parent.RegisterCmd(cmd)
}

func runDoctor(fix bool, dryRun bool, jsonOutput bool) {
	// --fix and --dry-run are mutually exclusive
	if fix && dryRun {
		Fatal(fmt.Errorf("--fix and --dry-run cannot be used together"))
	}

	app, err := NewDiagnosticApp()
	if err != nil {
		Fatal(err)
	}

	report, err := app.DoctorService.Diagnose()
	if err != nil {
		Fatal(err)
	}

	// Apply fixes if requested (not in dry-run mode)
	if fix && len(report.Issues) > 0 {
		report, err = app.DoctorService.Fix(report)
		if err != nil {
			Fatal(err)
		}
	}

	if jsonOutput {
		if err := printJson(report); err != nil {
			Fatal(err)
		}
	} else {
		printDoctorReport(app.Paths.Root(), report, fix, dryRun)
	}

	if report.HasErrors() {
		os.Exit(1)
	}
}

func printDoctorReport(root string, report *service.DiagnosticReport, didFix bool, dryRun bool) {
	fmt.Printf("Checking %s...\n", RenderBold(root))
	fmt.Printf("  Cards: %d, unopened packs: %d, awaiting reveal: %d\n",
		report.State.Cards, report.State.UnopenedPack, report.State.Pending)
	fmt.Println()

	fixedCount := 0
	if didFix {
		fixedCount = report.Summary.Fixed
	}
	if fixedCount > 0 {
		PrintSuccess("Fixed %d issue(s)", fixedCount)
		fmt.Println()
	}

	if dryRun {
		if n := countFixable(report); n > 0 {
			PrintInfo("Dry run: %d issue(s) would be fixed", n)
			fmt.Println()
		}
	}

	if len(report.Issues) == 0 {
		if fixedCount == 0 {
			PrintSuccess("No issues found")
		} else {
			PrintSuccess("All issues resolved")
		}
		return
	}

	// Errors first, then warnings
	for _, severity := range []service.IssueSeverity{service.SeverityError, service.SeverityWarning} {
		for _, issue := range report.Issues {
			if issue.Severity == severity {
				printIssue(root, issue)
			}
		}
	}

	fmt.Println()
	var parts []string
	if report.Summary.Errors > 0 {
		parts = append(parts, StyleError.Render(fmt.Sprintf("%d error(s)", report.Summary.Errors)))
	}
	if report.Summary.Warnings > 0 {
		parts = append(parts, StyleWarning.Render(fmt.Sprintf("%d warning(s)", report.Summary.Warnings)))
	}
	if fixedCount > 0 {
		parts = append(parts, StyleSuccess.Render(fmt.Sprintf("%d fixed", fixedCount)))
	}
	if report.Summary.FixFailed > 0 {
		parts = append(parts, StyleError.Render(fmt.Sprintf("%d fix failed", report.Summary.FixFailed)))
	}
	fmt.Printf("Summary: %s\n", strings.Join(parts, ", "))

	if !didFix && countFixable(report) > 0 {
		fmt.Println()
		if dryRun {
			PrintInfo("Run 'crack doctor --fix' to apply these fixes")
		} else {
			PrintInfo("Run 'crack doctor --fix' to apply automatic fixes")
		}
	}
}

func printIssue(root string, issue service.Issue) {
	style, icon := StyleWarning, IconWarning
	if issue.Severity == service.SeverityError {
		style, icon = StyleError, IconError
	}

	location := ""
	if issue.File != "" {
		name := issue.File
		if rel, err := filepath.Rel(root, issue.File); err == nil && !strings.HasPrefix(rel, "..") {
			name = rel
		}
		location = " " + RenderMuted(name)
		if issue.CardID != "" {
			location += "/" + RenderID(issue.CardID)
		}
	}

	fmt.Printf("%s %s%s %s\n", style.Render(icon), style.Render("["+issue.Code+"]"), location, issue.Message)

	if issue.FixError != "" {
		fmt.Printf("  %s Fix failed: %s\n", StyleError.Render(IconInfo), issue.FixError)
	} else if issue.FixAction != "" {
		if issue.Fixable {
			fmt.Printf("  %s Fix: %s\n", RenderMuted(IconInfo), issue.FixAction)
		} else {
			fmt.Printf("  %s %s\n", RenderMuted(IconInfo), issue.FixAction)
		}
	}
}

func countFixable(report *service.DiagnosticReport) int {
	n := 0
	for _, issue := range report.Issues {
		if issue.Fixable {
			n++
		}
	}
	return n
}
