package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/swipectl/internal/capture"
	"github.com/ayusman/swipectl/internal/detector"
	"github.com/ayusman/swipectl/internal/log"
	"github.com/ayusman/swipectl/internal/overlay"
	"github.com/ayusman/swipectl/internal/swipe"
)

// labelHold keeps the swipe label on the preview for the length of the
// cooldown instead of a single frame.
const labelHold = swipe.Cooldown

// preview holds the latest annotated frame and the label being shown.
type preview struct {
	mu        sync.RWMutex
	jpeg      []byte
	label     string
	labelTill time.Time
}

func newPreview() *preview {
	return &preview{}
}

func (p *preview) get() []byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.jpeg
}

func (p *preview) set(buf []byte) {
	p.mu.Lock()
	p.jpeg = buf
	p.mu.Unlock()
}

// labelAt returns the label to draw at t, remembering ev's label when it fired.
func (p *preview) labelAt(ev swipe.Event, t time.Time) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if ev.Fired() {
		p.label = ev.Label
		p.labelTill = t.Add(labelHold)
	}
	if t.Before(p.labelTill) {
		return p.label
	}
	return ""
}

// run is the frame loop. It is the only goroutine that touches the recognizer.
func (a *App) run(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(time.Second / time.Duration(a.camera.FPS()))
	defer ticker.Stop()

	wasEnabled := a.Enabled()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
		}

		frame, err := a.camera.ReadFrame()
		if err != nil {
			if !errors.Is(err, capture.ErrNoFrames) {
				log.Debug("frame read failed", "error", err)
			}
			continue
		}

		enabled := a.Enabled()
		if enabled && !wasEnabled {
			// Motion from before the pause must not combine with new motion.
			a.recognizer.Buffer().Reset()
		}
		wasEnabled = enabled

		if enabled {
			a.ProcessFrame(ctx, frame)
		} else {
			a.publish(frame, nil, "")
		}
		frame.Close()
	}
}

// ProcessFrame runs one frame through detection and recognition, annotates
// it and publishes the preview. A nil frame is allowed when the detector does
// not need pixels.
func (a *App) ProcessFrame(ctx context.Context, frame *gocv.Mat) swipe.Event {
	hands, err := a.detector.Detect(frame)
	if err != nil {
		// Skip the frame entirely; a failed detection is not an absent hand.
		log.Debug("hand detection failed", "error", err)
		return swipe.Event{At: a.recognizer.Now()}
	}

	var (
		hand *detector.HandLandmarks
		pos  *swipe.Position
	)
	if len(hands) > 0 {
		hand = &hands[0]
		// Landmarks extrapolated past the frame edge count as no hand.
		if tip := hand.Fingertip(); tip.InFrame() {
			pos = &swipe.Position{X: tip.X, Y: tip.Y}
		}
	}

	ev := a.recognizer.OnFrame(ctx, pos)
	a.publish(frame, hand, a.preview.labelAt(ev, ev.At))

	if ev.Fired() {
		a.record(ev)
	}
	return ev
}

// publish draws the overlay onto frame and stores it as the preview JPEG.
func (a *App) publish(frame *gocv.Mat, hand *detector.HandLandmarks, label string) {
	if frame == nil || frame.Empty() {
		return
	}

	overlay.DrawHand(frame, hand)
	overlay.DrawLabel(frame, label)

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		log.Debug("preview encode failed", "error", err)
		return
	}
	defer buf.Close()

	a.preview.set(append([]byte(nil), buf.GetBytes()...))
}
