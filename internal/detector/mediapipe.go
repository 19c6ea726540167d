package detector

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/swipectl/internal/log"
)

// ErrServiceNotFound is returned when mediapipe_service.py cannot be located.
var ErrServiceNotFound = errors.New("mediapipe_service.py not found")

// idleTimeout stops the Python process when no frames arrive, e.g. while
// recognition is paused.
const idleTimeout = 30 * time.Second

// MediaPipeDetector runs hand tracking in a Python MediaPipe process. The
// process starts on the first frame, restarts after it dies and stops after
// idleTimeout without frames.
type MediaPipeDetector struct {
	config Config
	python string
	script string

	mu       sync.Mutex
	svc      *service
	idle     *time.Timer
	lastUsed time.Time
}

// NewMediaPipeDetector locates the landmark service. Nothing is started until
// the first Detect.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	python, script := locateService()
	if script == "" {
		return nil, ErrServiceNotFound
	}
	if config.MaxHands <= 0 {
		config.MaxHands = 1
	}

	return &MediaPipeDetector{
		config: config,
		python: python,
		script: script,
	}, nil
}

// Detect sends frame to the service and returns the hands it found.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	if frame == nil || frame.Empty() {
		return nil, errors.New("empty frame")
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.svc == nil {
		svc, err := startService(d.python, d.script, d.config.Args())
		if err != nil {
			return nil, err
		}
		log.Info("mediapipe service started", "python", d.python, "script", d.script, "max_hands", d.config.MaxHands)
		d.svc = svc
	}

	hands, err := d.svc.detect(buf.GetBytes())
	if err != nil {
		// Drop the process; the next frame starts a fresh one.
		d.stopLocked()
		return nil, err
	}

	d.touchLocked()
	return hands, nil
}

// Close stops the service process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopLocked()
}

func (d *MediaPipeDetector) stopLocked() error {
	if d.idle != nil {
		d.idle.Stop()
		d.idle = nil
	}
	if d.svc == nil {
		return nil
	}
	err := d.svc.stop()
	d.svc = nil
	return err
}

func (d *MediaPipeDetector) touchLocked() {
	d.lastUsed = time.Now()
	if d.idle != nil {
		d.idle.Reset(idleTimeout)
		return
	}
	d.idle = time.AfterFunc(idleTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		// A frame may have arrived while this callback waited for the lock.
		if time.Since(d.lastUsed) < idleTimeout {
			return
		}
		log.Debug("mediapipe service idle, stopping")
		if err := d.stopLocked(); err != nil {
			log.Warn("mediapipe service exit", "error", err)
		}
	})
}
