// Package console implements the upload workflow user interface on a
// terminal: a single redrawn progress line, notifications on their own
// lines and optional opening of the final page in a browser.
package console

import (
	"fmt"
	"io"
	"os"
	"sync"

	// Packages
	schema "github.com/mutablelogic/go-datahub/pkg/schema"
	workflow "github.com/mutablelogic/go-datahub/pkg/workflow"
	browser "github.com/pkg/browser"
	term "golang.org/x/term"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// UI writes workflow progress and notifications to a writer
type UI struct {
	sync.Mutex
	w        io.Writer
	tty      bool
	open     func(string) error
	name     string
	size     int64
	pct      int
	active   bool
	disabled bool
	target   string
}

// Opt is a functional option for New
type Opt func(*UI)

var _ workflow.UI = (*UI)(nil)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New returns a UI writing to w. Progress is redrawn in place when w is a
// terminal.
func New(w io.Writer, opts ...Opt) *UI {
	ui := &UI{w: w, tty: isTerminal(w), pct: -1}
	for _, opt := range opts {
		opt(ui)
	}
	return ui
}

// WithTerminal overrides terminal detection
func WithTerminal(tty bool) Opt {
	return func(ui *UI) {
		ui.tty = tty
	}
}

// WithBrowser opens the final page in the default browser
func WithBrowser() Opt {
	return func(ui *UI) {
		ui.open = browser.OpenURL
	}
}

// WithOpener sets the function used to open the final page
func WithOpener(fn func(url string) error) Opt {
	return func(ui *UI) {
		ui.open = fn
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// SaveDisabled reports whether a run is in progress
func (ui *UI) SaveDisabled() bool {
	ui.Lock()
	defer ui.Unlock()
	return ui.disabled
}

// Target returns the last navigation target
func (ui *UI) Target() string {
	ui.Lock()
	defer ui.Unlock()
	return ui.target
}

func (ui *UI) SetSaveDisabled(disabled bool) {
	ui.Lock()
	defer ui.Unlock()
	ui.disabled = disabled
}

func (ui *UI) Notify(level schema.Level, message string) {
	ui.Lock()
	defer ui.Unlock()
	ui.clear()
	if ui.tty {
		fmt.Fprintf(ui.w, "%s%s\x1b[0m  %s\n", levelColor(level), levelTag(level), message)
	} else {
		fmt.Fprintf(ui.w, "%s  %s\n", levelTag(level), message)
	}
	ui.redraw()
}

func (ui *UI) Start(name string, size int64) {
	ui.Lock()
	defer ui.Unlock()
	ui.name, ui.size, ui.pct, ui.active = name, size, -1, true
	ui.draw(0)
}

func (ui *UI) Update(fraction float64) {
	ui.Lock()
	defer ui.Unlock()
	if ui.active {
		ui.draw(fraction)
	}
}

func (ui *UI) Done() {
	ui.Lock()
	defer ui.Unlock()
	if !ui.active {
		return
	}
	ui.active = false
	size := fmt.Sprintf("%6s", HumanSize(ui.size))
	if ui.tty {
		fmt.Fprintf(ui.w, "\r\x1b[K  %s  \x1b[1m%s\x1b[0m\n", size, ui.name)
	} else {
		fmt.Fprintf(ui.w, "  %s  %s\n", size, ui.name)
	}
}

func (ui *UI) Fail(error) {
	ui.Lock()
	defer ui.Unlock()
	ui.clear()
	ui.active = false
}

func (ui *UI) Navigate(target string) {
	ui.Lock()
	ui.target = target
	open := ui.open
	ui.Unlock()

	if open == nil {
		return
	}
	if err := open(target); err != nil {
		ui.Notify(schema.LevelWarning, fmt.Sprintf("unable to open %s: %v", target, err))
	}
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// draw redraws the progress line when the percentage changed
func (ui *UI) draw(fraction float64) {
	if !ui.tty {
		return
	}
	pct := int(fraction * 100)
	if pct == ui.pct {
		return
	}
	ui.pct = pct
	fmt.Fprintf(ui.w, "\r\x1b[K  %5d%%  \x1b[1m%s\x1b[0m", pct, ui.name)
}

// clear removes the progress line
func (ui *UI) clear() {
	if ui.tty && ui.active {
		fmt.Fprint(ui.w, "\r\x1b[K")
	}
}

// redraw puts the progress line back after a notification
func (ui *UI) redraw() {
	if ui.tty && ui.active {
		fmt.Fprintf(ui.w, "\r\x1b[K  %5d%%  \x1b[1m%s\x1b[0m", max(ui.pct, 0), ui.name)
	}
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

func levelTag(level schema.Level) string {
	switch level {
	case schema.LevelSuccess:
		return "[ok]"
	case schema.LevelWarning:
		return "[warn]"
	case schema.LevelError:
		return "[error]"
	default:
		return "[info]"
	}
}

func levelColor(level schema.Level) string {
	switch level {
	case schema.LevelSuccess:
		return "\x1b[32m"
	case schema.LevelWarning:
		return "\x1b[33m"
	case schema.LevelError:
		return "\x1b[31m"
	default:
		return "\x1b[36m"
	}
}
