package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/ayusman/swipectl/internal/app"
	"github.com/ayusman/swipectl/internal/capture"
	"github.com/ayusman/swipectl/internal/config"
	"github.com/ayusman/swipectl/internal/log"
	"github.com/ayusman/swipectl/internal/plugin"
	"github.com/ayusman/swipectl/internal/server"
	"github.com/ayusman/swipectl/internal/server/api"
	"github.com/ayusman/swipectl/internal/store"
	"github.com/ayusman/swipectl/internal/swipe"
	"github.com/ayusman/swipectl/internal/tray"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "swipectl:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}
	log.Init(cfg.LogLevel)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	st, err := store.New(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close()

	if n, err := st.Bindings().SeedDefaults(); err != nil {
		return fmt.Errorf("seed bindings: %w", err)
	} else if n > 0 {
		log.Info("seeded default bindings", "count", n)
	}

	plugins := plugin.NewManager(cfg.PluginDir)
	if err := plugins.Discover(); err != nil {
		return fmt.Errorf("discover plugins: %w", err)
	}
	log.Info("plugins discovered", "dir", cfg.PluginDir, "count", len(plugins.List()))

	a := app.New(app.Config{
		Store:    st,
		Plugins:  plugins,
		Executor: plugin.NewExecutor(plugin.DefaultTimeoutMs),
		Capture: capture.Options{
			DeviceID: cfg.CameraID,
			FPS:      cfg.FPS,
			Mirror:   cfg.Mirror,
		},
		Recognizer: swipe.Config{
			Velocity: cfg.Velocity,
			Gap:      cfg.GapPolicy(),
		},
	})
	// Unresolvable bindings are skipped; the rest still work.
	if err := a.ReloadBindings(); err != nil {
		log.Warn("some bindings could not be loaded", "error", err)
	}

	hub := server.NewHub()
	a.OnEvent(hub.Broadcast)

	var (
		t    *tray.Tray
		ctrl api.Controller = a
	)
	if !cfg.NoTray {
		t = tray.New(a.Enabled())
		ctrl = trayController{App: a, tray: t}
	}

	srv := server.New(server.Config{
		StaticDir:         findWebDir(cfg.DataDir),
		Store:             st,
		Plugins:           plugins,
		OnBindingsChanged: a.ReloadBindings,
		Controller:        ctrl,
		Frames:            a,
		FPS:               cfg.FPS,
		Events:            hub,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return err
	}
	defer a.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(ctx, cfg.Addr)
	}()

	if t == nil {
		select {
		case <-ctx.Done():
		case err := <-errCh:
			return err
		}
		return <-errCh
	}

	t.OnToggle(func(enabled bool) {
		if err := a.SetEnabled(enabled); err != nil {
			log.Error("saving enabled state", "error", err)
		}
	})
	t.OnSettings(func() { openBrowser(settingsURL(cfg.Addr)) })
	t.OnQuit(stop)
	a.OnEvent(t.SetLastSwipe)

	go func() {
		select {
		case <-ctx.Done():
		case err := <-errCh:
			if err != nil {
				log.Error("server stopped", "error", err)
			}
			stop()
		}
		t.Quit()
	}()

	// systray must own the main thread on macOS.
	t.Run()
	stop()
	return nil
}

// trayController keeps the tray toggle in step with changes made through
// the web API.
type trayController struct {
	*app.App
	tray *tray.Tray
}

func (c trayController) SetEnabled(enabled bool) error {
	err := c.App.SetEnabled(enabled)
	c.tray.SetEnabled(enabled)
	return err
}

func settingsURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	default:
		log.Warn("cannot open a browser on this platform", "url", url)
		return
	}
	if err := cmd.Start(); err != nil {
		log.Error("opening settings", "url", url, "error", err)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks "web", "../web", "../../web" and <data-dir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	candidates := []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
