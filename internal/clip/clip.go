// Package clip copies workout summaries to the user's clipboard.
package clip

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	atotto "github.com/atotto/clipboard"
	osc52 "github.com/aymanbagabas/go-osc52/v2"
	"golang.org/x/term"
)

// Method is the mechanism that made the text available.
type Method string

const (
	MethodNative Method = "native" // OS clipboard via atotto/clipboard
	MethodOSC52  Method = "osc52"  // terminal clipboard escape sequence
	MethodFile   Method = "file"   // temp file, when no clipboard is reachable
)

// Result reports how the text was copied.
type Result struct {
	Method   Method `json:"method"`
	FilePath string `json:"file_path,omitempty"`
}

// Terminals drop or block larger OSC52 payloads.
const osc52LimitBytes = 100_000

// Copier tries the native clipboard, then OSC52, then a temp file.
type Copier struct {
	native     func(text string) error
	terminal   io.Writer
	isTerminal func() bool
	getenv     func(string) string
	tempDir    string
}

// New creates a copier that writes OSC52 sequences to stderr, leaving stdout
// to command output.
func New() *Copier {
	return &Copier{
		native:     atotto.WriteAll,
		terminal:   os.Stderr,
		isTerminal: func() bool { return term.IsTerminal(int(os.Stderr.Fd())) },
		getenv:     os.Getenv,
	}
}

// Copy makes text available to paste.
func (c *Copier) Copy(text string) (Result, error) {
	if text == "" {
		return Result{}, errors.New("nothing to copy")
	}

	if err := c.native(text); err == nil {
		return Result{Method: MethodNative}, nil
	}

	if err := c.writeOSC52(text); err == nil {
		return Result{Method: MethodOSC52}, nil
	}

	path, err := c.writeTempFile(text)
	if err != nil {
		return Result{}, fmt.Errorf("copying text: %w", err)
	}
	return Result{Method: MethodFile, FilePath: path}, nil
}

func (c *Copier) writeOSC52(text string) error {
	if !c.isTerminal() {
		return errors.New("not a terminal")
	}
	if len(text) > osc52LimitBytes {
		return fmt.Errorf("text too large for OSC52 (%d bytes > %d)", len(text), osc52LimitBytes)
	}

	seq := osc52.New(text).Limit(osc52LimitBytes)
	switch {
	case c.getenv("TMUX") != "":
		seq = seq.Tmux()
	case c.getenv("STY") != "":
		seq = seq.Screen()
	}
	_, err := seq.WriteTo(c.terminal)
	return err
}

func (c *Copier) writeTempFile(text string) (path string, err error) {
	f, err := os.CreateTemp(c.tempDir, "pinlog-workout-*.txt")
	if err != nil {
		return "", err
	}
	path = f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(path)
		}
	}()

	if _, err = f.WriteString(text); err != nil {
		return "", err
	}
	if err = f.Close(); err != nil {
		return "", err
	}
	return filepath.Clean(path), nil
}
