package tray

import (
	_ "embed"
	"log/slog"
	"os/exec"
	"runtime"
	"sync"
	"sync/atomic"

	"fyne.io/systray"
)

//go:embed icon.ico
var iconData []byte

// Icon returns the embedded tray icon data
func Icon() []byte {
	return iconData
}

// ShutdownFunc is called when "Exit" is clicked
type ShutdownFunc func()

// Bindings is the subset of the behavior router the tray menu drives.
type Bindings interface {
	Names() []string
	Active() string
	Select(name string) bool
	OnSelect(fn func(name string))
}

// Tray manages the system tray icon and menu
type Tray struct {
	shutdownFunc ShutdownFunc
	url          string
	bindings     Bindings
	logger       *slog.Logger
	once         sync.Once
	shuttingDown atomic.Bool
	menuOpen     *systray.MenuItem
	menuExit     *systray.MenuItem
	menuBindings map[string]*systray.MenuItem
}

// New creates a new Tray instance
func New(shutdownFn ShutdownFunc, url string, bindings Bindings, logger *slog.Logger) *Tray {
	return &Tray{
		shutdownFunc: shutdownFn,
		url:          url,
		bindings:     bindings,
		logger:       logger,
		menuBindings: make(map[string]*systray.MenuItem),
	}
}

// Run initializes and runs the system tray (blocks until Quit())
func (t *Tray) Run(iconData []byte) {
	systray.Run(func() {
		t.onReady(iconData)
	}, func() {
		t.onExit()
	})
}

// onReady is called when the tray is ready
func (t *Tray) onReady(iconData []byte) {
	if iconData != nil {
		systray.SetIcon(iconData)
	}
	systray.SetTitle("pdincr")
	systray.SetTooltip("pdincr - " + t.url)

	t.menuOpen = systray.AddMenuItem("Open Browser", "Open web interface")
	systray.AddSeparator()
	active := t.bindings.Active()
	for _, name := range t.bindings.Names() {
		item := systray.AddMenuItemCheckbox(name, "Use the "+name+" behavior", name == active)
		t.menuBindings[name] = item
		go t.handleBindingClicks(name, item)
	}
	systray.AddSeparator()
	t.menuExit = systray.AddMenuItem("Exit", "Quit application")

	// Keep the check marks in sync with selections made from the browser
	t.bindings.OnSelect(t.markActive)

	// Handle menu clicks in separate goroutines to prevent blocking
	go t.handleMenuClicks()

	t.logger.Info("System tray initialized")
}

// handleMenuClicks processes menu item clicks without blocking
func (t *Tray) handleMenuClicks() {
	for {
		select {
		case <-t.menuOpen.ClickedCh:
			if !t.shuttingDown.Load() {
				t.openBrowser()
			}
		case <-t.menuExit.ClickedCh:
			if t.shuttingDown.CompareAndSwap(false, true) {
				t.once.Do(t.shutdownFunc)
				systray.Quit()
				return
			}
		}
	}
}

func (t *Tray) handleBindingClicks(name string, item *systray.MenuItem) {
	for range item.ClickedCh {
		if t.shuttingDown.Load() {
			return
		}
		t.bindings.Select(name)
		// Re-check even when nothing changed; systray toggles nothing itself
		t.markActive(t.bindings.Active())
	}
}

func (t *Tray) markActive(active string) {
	for name, item := range t.menuBindings {
		if name == active {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
}

// onExit is called when the tray is exiting
func (t *Tray) onExit() {
	t.shuttingDown.Store(true)
	t.logger.Info("System tray exiting")
}

// openBrowser opens the default web browser
func (t *Tray) openBrowser() {
	// Prevent multiple browser launches during shutdown
	if t.shuttingDown.Load() {
		return
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", t.url)
	case "darwin":
		cmd = exec.Command("open", t.url)
	default:
		cmd = exec.Command("xdg-open", t.url)
	}

	if err := cmd.Start(); err != nil {
		t.logger.Warn("Failed to open browser", "error", err)
	}
}
