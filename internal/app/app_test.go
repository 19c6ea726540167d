package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/swipectl/internal/capture"
	"github.com/ayusman/swipectl/internal/detector"
	"github.com/ayusman/swipectl/internal/plugin"
	"github.com/ayusman/swipectl/internal/store"
	"github.com/ayusman/swipectl/internal/swipe"
)

// frameClock advances by one frame interval on every reading.
type frameClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *frameClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second / capture.DefaultFPS)
	return c.t
}

func newTestApp(t *testing.T, cfg Config) (*App, *detector.MockDetector) {
	t.Helper()

	mock := detector.NewMockDetector()
	cfg.Detector = mock
	if cfg.Camera == nil {
		cfg.Camera = capture.NewMockCamera(nil, false)
	}
	clock := &frameClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	cfg.Recognizer.Now = clock.Now

	return New(cfg), mock
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// newTestPlugins writes manifests for the named plugins and discovers them.
func newTestPlugins(t *testing.T, manifests map[string]string) *plugin.Manager {
	t.Helper()
	dir := t.TempDir()
	for name, manifest := range manifests {
		if err := os.MkdirAll(filepath.Join(dir, name), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, name, "plugin.json"), []byte(manifest), 0644); err != nil {
			t.Fatal(err)
		}
	}
	m := plugin.NewManager(dir)
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	return m
}

const (
	keyboardManifest = `{"name":"keyboard","executable":"keyboard","actions":["keystroke","shortcut"]}`
	scrollManifest   = `{"name":"scroll","executable":"scroll","actions":["scroll-up","scroll-down"]}`
)

// sweep feeds n frames moving the fingertip by (dx, dy) per frame.
func sweep(ctx context.Context, a *App, mock *detector.MockDetector, x, y, dx, dy float64, n int) []swipe.Event {
	var events []swipe.Event
	for i := 0; i < n; i++ {
		mock.SetFingertip(x+float64(i)*dx, y+float64(i)*dy, true)
		if ev := a.ProcessFrame(ctx, nil); ev.Fired() {
			events = append(events, ev)
		}
	}
	return events
}

func TestApp_ProcessFrame_FiresBoundAction(t *testing.T) {
	a, mock := newTestApp(t, Config{})

	calls := 0
	if err := a.Actions().Bind(swipe.Right, "next tab", swipe.ActionFunc(func(ctx context.Context) error {
		calls++
		return nil
	})); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	var heard []swipe.Event
	a.OnEvent(func(ev swipe.Event) { heard = append(heard, ev) })

	events := sweep(context.Background(), a, mock, 0.2, 0.5, 0.02, 0, swipe.HistoryLen)
	if len(events) != 1 {
		t.Fatalf("expected 1 fired event, got %d", len(events))
	}

	ev := events[0]
	if ev.Direction != swipe.Right || ev.Label != "RIGHT" || ev.Action != "next tab" {
		t.Errorf("unexpected event %+v", ev)
	}
	if calls != 1 {
		t.Errorf("action ran %d times, want 1", calls)
	}
	if len(heard) != 1 {
		t.Errorf("listener heard %d events, want 1", len(heard))
	}

	last, ok := a.LastEvent()
	if !ok || last.Direction != swipe.Right {
		t.Errorf("LastEvent() = %+v, %v", last, ok)
	}
}

func TestApp_ProcessFrame_NoHand(t *testing.T) {
	a, mock := newTestApp(t, Config{})
	mock.SetFingertip(0, 0, false)

	for i := 0; i < swipe.HistoryLen*2; i++ {
		if ev := a.ProcessFrame(context.Background(), nil); ev.Fired() {
			t.Fatalf("frame %d fired %v without a hand", i, ev.Direction)
		}
	}
	if n := a.recognizer.Buffer().Len(); n != 0 {
		t.Errorf("buffer holds %d positions, want 0", n)
	}
	if _, ok := a.LastEvent(); ok {
		t.Error("LastEvent() should be empty")
	}
}

func TestApp_ProcessFrame_FingertipOutsideFrame(t *testing.T) {
	a, mock := newTestApp(t, Config{})

	mock.SetFingertip(1.2, 0.5, true)
	a.ProcessFrame(context.Background(), nil)

	if n := a.recognizer.Buffer().Len(); n != 0 {
		t.Errorf("off-frame fingertip was buffered, len = %d", n)
	}
}

func TestApp_ProcessFrame_DetectorError(t *testing.T) {
	a, mock := newTestApp(t, Config{})

	mock.SetFingertip(0.5, 0.5, true)
	a.ProcessFrame(context.Background(), nil)

	mock.SetError(errors.New("service crashed"))
	ev := a.ProcessFrame(context.Background(), nil)
	if ev.Fired() {
		t.Error("failed detection should not fire")
	}
	// Stamped by the recognizer's clock, which starts on 2026-01-01.
	if want := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC); !ev.At.Before(want) {
		t.Errorf("event time %v is not from the recognizer clock", ev.At)
	}
	if n := a.recognizer.Buffer().Len(); n != 1 {
		t.Errorf("buffer len = %d, want 1 (failed frame skipped)", n)
	}
}

func TestApp_SetEnabled(t *testing.T) {
	s := newTestStore(t)
	a, _ := newTestApp(t, Config{Store: s})

	if !a.Enabled() {
		t.Fatal("new app should start enabled")
	}

	if err := a.SetEnabled(false); err != nil {
		t.Fatalf("SetEnabled() error = %v", err)
	}
	if a.Enabled() {
		t.Error("Enabled() = true after disabling")
	}

	// The choice survives a restart.
	b, _ := newTestApp(t, Config{Store: s})
	if b.Enabled() {
		t.Error("restarted app should remember being disabled")
	}
}

func TestApp_ReloadBindings(t *testing.T) {
	t.Run("all plugins present", func(t *testing.T) {
		s := newTestStore(t)
		if _, err := s.Bindings().SeedDefaults(); err != nil {
			t.Fatal(err)
		}
		a, _ := newTestApp(t, Config{
			Store:   s,
			Plugins: newTestPlugins(t, map[string]string{"keyboard": keyboardManifest, "scroll": scrollManifest}),
		})

		if err := a.ReloadBindings(); err != nil {
			t.Fatalf("ReloadBindings() error = %v", err)
		}

		bindings := a.Actions().Bindings()
		if len(bindings) != 4 {
			t.Fatalf("expected 4 bindings, got %d", len(bindings))
		}
		b, ok := a.Actions().Lookup(swipe.Up)
		if !ok || b.Description != "scroll up" {
			t.Errorf("Lookup(up) = %+v, %v", b, ok)
		}
	})

	t.Run("missing plugin", func(t *testing.T) {
		s := newTestStore(t)
		if _, err := s.Bindings().SeedDefaults(); err != nil {
			t.Fatal(err)
		}
		a, _ := newTestApp(t, Config{
			Store:   s,
			Plugins: newTestPlugins(t, map[string]string{"scroll": scrollManifest}),
		})

		err := a.ReloadBindings()
		if !errors.Is(err, plugin.ErrPluginNotFound) {
			t.Errorf("ReloadBindings() error = %v, want ErrPluginNotFound", err)
		}
		if n := len(a.Actions().Bindings()); n != 2 {
			t.Errorf("expected the 2 scroll bindings to load, got %d", n)
		}
	})

	t.Run("disabled binding and rebinding", func(t *testing.T) {
		s := newTestStore(t)
		a, _ := newTestApp(t, Config{
			Store:   s,
			Plugins: newTestPlugins(t, map[string]string{"scroll": scrollManifest}),
		})

		if err := s.Bindings().Create(&store.Binding{
			Direction: "down", PluginName: "scroll", ActionName: "scroll-down", Enabled: true,
		}); err != nil {
			t.Fatal(err)
		}
		if err := a.ReloadBindings(); err != nil {
			t.Fatalf("ReloadBindings() error = %v", err)
		}
		b, ok := a.Actions().Lookup(swipe.Down)
		if !ok || b.Description != "scroll/scroll-down" {
			t.Errorf("Lookup(down) = %+v, %v", b, ok)
		}

		if err := s.Bindings().Upsert(&store.Binding{
			Direction: "down", PluginName: "scroll", ActionName: "scroll-down", Enabled: false,
		}); err != nil {
			t.Fatal(err)
		}
		if err := a.ReloadBindings(); err != nil {
			t.Fatalf("ReloadBindings() error = %v", err)
		}
		if _, ok := a.Actions().Lookup(swipe.Down); ok {
			t.Error("disabled binding should be unbound")
		}
	})
}

func TestPreview_LabelHold(t *testing.T) {
	p := newPreview()
	start := time.Now()

	if got := p.labelAt(swipe.Event{At: start}, start); got != "" {
		t.Errorf("label before any swipe = %q", got)
	}

	fired := swipe.Event{Direction: swipe.Up, Label: "UP", At: start}
	tests := []struct {
		name  string
		ev    swipe.Event
		at    time.Time
		label string
	}{
		{name: "firing frame", ev: fired, at: start, label: "UP"},
		{name: "within hold", ev: swipe.Event{}, at: start.Add(labelHold / 2), label: "UP"},
		{name: "after hold", ev: swipe.Event{}, at: start.Add(labelHold), label: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.labelAt(tt.ev, tt.at); got != tt.label {
				t.Errorf("labelAt() = %q, want %q", got, tt.label)
			}
		})
	}
}

func TestApp_StartStop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping frame loop test in short mode")
	}

	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()

	cam := capture.NewMockCamera([]*gocv.Mat{&frame}, true)
	cam.SetFPS(60)

	a, mock := newTestApp(t, Config{Camera: cam})
	mock.SetFingertip(0.5, 0.5, true)

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	// A second Start is a no-op.
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for a.LatestJPEG() == nil && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	a.Stop()

	if a.LatestJPEG() == nil {
		t.Error("expected a preview frame after running")
	}
	if cam.Reads() == 0 {
		t.Error("camera was never read")
	}
	if mock.Calls() == 0 {
		t.Error("detector was never called")
	}
	if cam.IsOpen() {
		t.Error("camera should be closed after Stop")
	}
}

func TestApp_PausedFramesAreNotBuffered(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping frame loop test in short mode")
	}

	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()

	cam := capture.NewMockCamera([]*gocv.Mat{&frame}, true)
	cam.SetFPS(60)

	a, mock := newTestApp(t, Config{Camera: cam})
	mock.SetFingertip(0.5, 0.5, true)
	if err := a.SetEnabled(false); err != nil {
		t.Fatal(err)
	}

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for cam.Reads() < 5 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	a.Stop()

	if mock.Calls() != 0 {
		t.Errorf("detector called %d times while paused", mock.Calls())
	}
	if n := a.recognizer.Buffer().Len(); n != 0 {
		t.Errorf("buffer len = %d while paused, want 0", n)
	}
}
