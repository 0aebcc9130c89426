package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/amterp/ra"

	"github.com/amterp/crack/internal/config"
	"github.com/amterp/crack/internal/editor"
	crackerr "github.com/amterp/crack/internal/errors"
	"github.com/amterp/crack/internal/store"
	"github.com/amterp/crack/internal/util"
)

func registerSettings(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("settings")
	cmd.SetDescription("Show or edit settings.toml")

	ctx.SettingsEdit, _ = ra.NewBool("edit").
		SetShort("e").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Open settings.toml in $VISUAL or $EDITOR and validate it before saving").
		Register(cmd)

	ctx.SettingsUsed, _ = parent.RegisterCmd(cmd)
}

func runSettings(edit bool, nonInteractive bool) {
	app, err := NewApp(!nonInteractive)
	if err != nil {
		Fatal(err)
	}
	if err := app.RequireInit(); err != nil {
		Fatal(err)
	}

	if !edit {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(app.Settings); err != nil {
			Fatal(err)
		}
		fmt.Println(RenderMuted("# " + app.Paths.SettingsPath() + " (defaults filled in)"))
		fmt.Print(buf.String())
		return
	}

	path := app.Paths.SettingsPath()
	original, err := os.ReadFile(path)
	if err != nil {
		Fatal(err)
	}

	ed := editor.NewEditor("")
	content := string(original)
	for {
		edited, err := ed.Edit(content, "crack-settings-*.toml")
		if err != nil {
			Fatal(err)
		}
		if edited == string(original) {
			PrintInfo("No changes")
			return
		}

		verr := validateSettings(app, path, edited)
		if verr == nil {
			if err := util.WriteFileAtomic(path, []byte(edited), 0644); err != nil {
				Fatal(err)
			}
			PrintSuccess("Saved %s", path)
			return
		}

		PrintError("%v", verr)
		again, err := app.Prompter.Confirm("Edit again? (No discards your changes)", true)
		if err != nil || !again {
			PrintInfo("Settings left unchanged")
			os.Exit(1)
		}
		content = edited
	}
}

// validateSettings parses edited settings and checks references into the catalog.
func validateSettings(app *App, path, content string) error {
	settings, err := store.ParseSettings(path, []byte(content))
	if err != nil {
		return err
	}
	if settings.FreePackKey != "" && !app.Catalog.Has(settings.FreePackKey) {
		return crackerr.InvalidField("free_pack_key", fmt.Sprintf("unknown pack %q", settings.FreePackKey))
	}
	if _, err := config.ParseLogLevel(settings.LogLevel); err != nil {
		return crackerr.InvalidField("log_level", err.Error())
	}
	return nil
}
