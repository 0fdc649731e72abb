// Package editor hands the assembled document to an interactive editor so
// the operator can review and reword it before it is sent.
package editor

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/chesscom/workreport/internal/domain"
)

// Editor writes the document to a scratch file and runs an interactive
// editor against it. Whatever the file holds after the editor exits is the
// final document.
type Editor struct {
	Path    string
	Command string
}

// New resolves the editor command from $VISUAL, then $EDITOR, falling back
// to vi, and uses a fixed scratch path under the temp directory. The file is
// left behind after the run so the text can be recovered.
func New() Editor {
	return Editor{
		Path:    filepath.Join(os.TempDir(), "workreport.md"),
		Command: resolveCommand(),
	}
}

func resolveCommand() string {
	if v := os.Getenv("VISUAL"); v != "" {
		return v
	}
	if e := os.Getenv("EDITOR"); e != "" {
		return e
	}
	return "vi"
}

// Open writes content to the scratch path, blocks until the editor exits,
// and returns the file's contents afterwards.
func (e Editor) Open(content string) (string, error) {
	if err := os.WriteFile(e.Path, []byte(content), 0o600); err != nil {
		return "", fmt.Errorf("%w: write %s: %v", domain.ErrDelivery, e.Path, err)
	}

	// $VISUAL/$EDITOR may carry arguments, e.g. "code --wait".
	parts := strings.Fields(e.Command)
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: no editor command configured", domain.ErrDelivery)
	}
	cmd := exec.Command(parts[0], append(parts[1:], e.Path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: editor %s: %v", domain.ErrDelivery, e.Command, err)
	}

	edited, err := os.ReadFile(e.Path)
	if err != nil {
		return "", fmt.Errorf("%w: read back %s: %v", domain.ErrDelivery, e.Path, err)
	}
	return string(edited), nil
}
