package ui

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"github.com/vrcdolly/dolly-agent/internal/dolly"
	"github.com/vrcdolly/dolly-agent/internal/library"
)

const saveTimeout = 10 * time.Second

type Tray struct {
	manager *dolly.Manager
	library *library.Service
	logger  *slog.Logger

	countsItem   *systray.MenuItem
	documentItem *systray.MenuItem

	mu          sync.Mutex
	changed     chan struct{}
	unsubscribe func()

	onPlay func() error
	onPush func() error
	onPull func() error
	onQuit func()
}

type TrayConfig struct {
	Manager *dolly.Manager
	Library *library.Service
	Logger  *slog.Logger
	OnPlay  func() error
	OnPush  func() error
	OnPull  func() error
	OnQuit  func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		manager: cfg.Manager,
		library: cfg.Library,
		logger:  cfg.Logger,
		onPlay:  cfg.OnPlay,
		onPush:  cfg.OnPush,
		onPull:  cfg.OnPull,
		onQuit:  cfg.OnQuit,
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Dolly")
	systray.SetTooltip("Dolly Agent")

	t.countsItem = systray.AddMenuItem(countsLabel(0, 0), "Paths and points in the collection")
	t.countsItem.Disable()

	t.documentItem = systray.AddMenuItem(documentLabel(library.Document{}), "Current document")
	t.documentItem.Disable()

	systray.AddSeparator()

	playItem := systray.AddMenuItem("Play", "Start playback in VRChat")
	pushItem := systray.AddMenuItem("Push to VRChat", "Send the collection to VRChat")
	pullItem := systray.AddMenuItem("Pull from VRChat", "Ask VRChat to export its paths")
	saveItem := systray.AddMenuItem("Save", "Save the current document")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Dolly Agent")

	// Listeners run on the mutating goroutine, so menu updates are
	// coalesced and applied from the loop below.
	t.changed = make(chan struct{}, 1)
	t.unsubscribe = t.manager.Subscribe(func([]dolly.Path) {
		select {
		case t.changed <- struct{}{}:
		default:
		}
	})
	t.refresh()

	go func() {
		for {
			select {
			case <-t.changed:
				t.refresh()
			case <-playItem.ClickedCh:
				t.run("play", t.onPlay)
			case <-pushItem.ClickedCh:
				t.run("push", t.onPush)
			case <-pullItem.ClickedCh:
				t.run("pull", t.onPull)
			case <-saveItem.ClickedCh:
				t.save()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	if t.unsubscribe != nil {
		t.unsubscribe()
	}
	t.logger.Info("system tray exiting")
}

func (t *Tray) run(action string, fn func() error) {
	if fn == nil {
		return
	}
	if err := fn(); err != nil {
		t.logger.Error("tray action failed", "action", action, "error", err)
	}
}

// save writes to the current file. Unsaved documents need a path, which
// only the API can supply.
func (t *Tray) save() {
	if t.library == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if _, err := t.library.Save(ctx); err != nil {
		t.logger.Warn("save from tray failed", "error", err)
	}
	t.refresh()
}

func (t *Tray) refresh() {
	t.mu.Lock()
	defer t.mu.Unlock()

	paths := t.manager.Paths()
	t.countsItem.SetTitle(countsLabel(len(paths), dolly.CountPoints(paths)))
	if t.library != nil {
		t.documentItem.SetTitle(documentLabel(t.library.Current()))
	}
}

func (t *Tray) Quit() {
	systray.Quit()
}

func countsLabel(paths, points int) string {
	return fmt.Sprintf("Paths: %d  Points: %d/%d", paths, points, dolly.MaxTotalPoints)
}

func documentLabel(doc library.Document) string {
	name := "Untitled"
	if doc.Path != "" {
		name = filepath.Base(doc.Path)
	}
	if doc.Dirty {
		name += " *"
	}
	return "Document: " + name
}
