// Package app wires capture, detection, recognition and plugins into the
// running swipe controller.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ayusman/swipectl/internal/capture"
	"github.com/ayusman/swipectl/internal/detector"
	"github.com/ayusman/swipectl/internal/log"
	"github.com/ayusman/swipectl/internal/plugin"
	"github.com/ayusman/swipectl/internal/store"
	"github.com/ayusman/swipectl/internal/swipe"
)

// Config holds configuration options for the application.
type Config struct {
	Store    *store.Store
	Plugins  *plugin.Manager
	Executor *plugin.Executor

	// Camera and Detector default to the gocv camera and the MediaPipe
	// service (falling back to a mock detector when it is not installed).
	Camera   capture.Camera
	Detector detector.Detector

	Capture    capture.Options
	Recognizer swipe.Config
}

// App runs the frame loop and owns the recognizer.
type App struct {
	config     Config
	camera     capture.Camera
	detector   detector.Detector
	actions    *swipe.ActionTable
	recognizer *swipe.Recognizer

	mu        sync.RWMutex
	enabled   bool
	last      *swipe.Event
	listeners []func(swipe.Event)

	preview *preview

	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates a new App. Recognition starts enabled unless the store
// remembers it being switched off.
func New(config Config) *App {
	if config.Executor == nil {
		config.Executor = plugin.NewExecutor(0)
	}
	if config.Capture.FPS <= 0 {
		config.Capture.FPS = capture.DefaultFPS
	}

	a := &App{
		config:   config,
		camera:   config.Camera,
		detector: config.Detector,
		actions:  swipe.NewActionTable(),
		enabled:  true,
		preview:  newPreview(),
	}
	a.recognizer = swipe.NewRecognizer(config.Recognizer, a.actions)

	if a.camera == nil {
		a.camera = capture.NewCamera(config.Capture)
	}

	// Try MediaPipe first, fall back to mock detector
	if a.detector == nil {
		if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
			a.detector = mp
			log.Info("using MediaPipe hand detection")
		} else {
			log.Warn("MediaPipe not available, using mock detector", "error", err)
			a.detector = detector.NewMockDetector()
		}
	}

	if config.Store != nil {
		a.enabled = config.Store.Settings().GetBool(store.SettingEnabled, true)
	}

	return a
}

// ReloadBindings rebuilds the action table from the stored bindings.
// Bindings whose plugin or action cannot be resolved are skipped and
// reported in the returned error; the rest are still installed.
func (a *App) ReloadBindings() error {
	if a.config.Store == nil || a.config.Plugins == nil {
		return nil
	}

	stored, err := a.config.Store.Bindings().List()
	if err != nil {
		return fmt.Errorf("list bindings: %w", err)
	}

	var (
		bindings []swipe.Binding
		errs     []error
	)
	for _, b := range stored {
		if !b.Enabled {
			continue
		}
		d, err := swipe.ParseDirection(b.Direction)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		p, err := a.config.Plugins.Resolve(b.PluginName, b.ActionName)
		if err != nil {
			log.Warn("skipping binding", "direction", d, "plugin", b.PluginName, "action", b.ActionName, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", d, err))
			continue
		}
		bindings = append(bindings, swipe.Binding{
			Direction:   d,
			Description: describe(b),
			Action:      plugin.NewAction(a.config.Executor, p, b.ActionName, b.Direction, b.Params),
		})
	}

	if err := a.actions.Replace(bindings); err != nil {
		return err
	}
	log.Info("bindings loaded", "active", len(bindings), "stored", len(stored))

	return errors.Join(errs...)
}

func describe(b *store.Binding) string {
	if b.Description != "" {
		return b.Description
	}
	return b.PluginName + "/" + b.ActionName
}

// Actions returns the live action table.
func (a *App) Actions() *swipe.ActionTable {
	return a.actions
}

// SetEnabled pauses or resumes recognition and persists the choice.
func (a *App) SetEnabled(enabled bool) error {
	a.mu.Lock()
	changed := a.enabled != enabled
	a.enabled = enabled
	a.mu.Unlock()

	if changed {
		log.Info("recognition toggled", "enabled", enabled)
	}

	if a.config.Store != nil {
		return a.config.Store.Settings().SetBool(store.SettingEnabled, enabled)
	}
	return nil
}

// Enabled reports whether recognition is running.
func (a *App) Enabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// LastEvent returns the most recent fired swipe.
func (a *App) LastEvent() (swipe.Event, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.last == nil {
		return swipe.Event{}, false
	}
	return *a.last, true
}

// OnEvent registers fn to receive every fired swipe. Listeners run on the
// frame loop goroutine and must not block.
func (a *App) OnEvent(fn func(swipe.Event)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// LatestJPEG returns the most recent annotated preview frame.
func (a *App) LatestJPEG() []byte {
	return a.preview.get()
}

// Start opens the camera and begins the frame loop.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.run(ctx, a.stopCh, a.doneCh)

	log.Info("frame loop started", "fps", a.camera.FPS())
	return nil
}

// Stop halts the frame loop and releases the camera and detector.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		select {
		case <-doneCh:
		case <-time.After(2 * time.Second):
			log.Warn("frame loop did not stop in time")
		}
	}

	if err := a.camera.Close(); err != nil {
		log.Error("closing camera", "error", err)
	}
	if err := a.detector.Close(); err != nil {
		log.Error("closing detector", "error", err)
	}

	log.Info("frame loop stopped")
}

func (a *App) record(ev swipe.Event) {
	a.mu.Lock()
	a.last = &ev
	listeners := append(([]func(swipe.Event))(nil), a.listeners...)
	a.mu.Unlock()

	for _, fn := range listeners {
		fn(ev)
	}
}
