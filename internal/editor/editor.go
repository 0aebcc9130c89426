package editor

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// DefaultCommand is used when neither $VISUAL nor $EDITOR is set.
const DefaultCommand = "vi"

// Editor handles editor resolution and invocation.
type Editor struct {
	command string
}

// NewEditor creates a new Editor. An empty command defers to the environment.
func NewEditor(command string) *Editor {
	return &Editor{command: command}
}

// Resolve returns the editor command to use.
// Order: explicit command > $VISUAL > $EDITOR > vi
func (e *Editor) Resolve() string {
	if e.command != "" {
		return e.command
	}
	if editor := os.Getenv("VISUAL"); editor != "" {
		return editor
	}
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor
	}
	return DefaultCommand
}

// Edit opens the editor on a temp copy of content and returns the edited
// content. pattern names the temp file as in os.CreateTemp, so the editor
// can pick a syntax from its extension.
func (e *Editor) Edit(content, pattern string) (string, error) {
	tmpFile, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpFile.WriteString(content); err != nil {
		tmpFile.Close()
		return "", err
	}
	tmpFile.Close()

	// Commands like "code --wait" carry their own arguments.
	args := strings.Fields(e.Resolve())
	if len(args) == 0 {
		return "", fmt.Errorf("no editor configured")
	}
	cmd := exec.Command(args[0], append(args[1:], tmpPath)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("editor %q failed: %w", args[0], err)
	}

	edited, err := os.ReadFile(tmpPath)
	if err != nil {
		return "", err
	}
	return string(edited), nil
}
