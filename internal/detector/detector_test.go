package detector

import (
	"bufio"
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const epsilon = 1e-9

func TestHandLandmarks_Fingertip(t *testing.T) {
	hand := HandLandmarks{}
	hand.Points[IndexTip] = Point3D{X: 0.42, Y: 0.31, Z: -0.05}
	hand.Points[ThumbTip] = Point3D{X: 0.9, Y: 0.9}

	tip := hand.Fingertip()
	if tip != hand.Points[IndexTip] {
		t.Errorf("Fingertip() = %+v, want index tip %+v", tip, hand.Points[IndexTip])
	}
}

func TestPoint3D_InFrame(t *testing.T) {
	tests := []struct {
		name string
		p    Point3D
		want bool
	}{
		{name: "center", p: Point3D{X: 0.5, Y: 0.5}, want: true},
		{name: "corner", p: Point3D{X: 0, Y: 1}, want: true},
		{name: "left of frame", p: Point3D{X: -0.01, Y: 0.5}, want: false},
		{name: "below frame", p: Point3D{X: 0.5, Y: 1.2}, want: false},
		{name: "depth ignored", p: Point3D{X: 0.5, Y: 0.5, Z: -3}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.InFrame(); got != tt.want {
				t.Errorf("InFrame() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfig_Defaults(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MaxHands != 1 {
		t.Errorf("MaxHands = %d, want 1", cfg.MaxHands)
	}
	if math.Abs(cfg.MinConfidence-0.78) > epsilon {
		t.Errorf("MinConfidence = %f, want 0.78", cfg.MinConfidence)
	}
	if math.Abs(cfg.MinTrackingConf-0.78) > epsilon {
		t.Errorf("MinTrackingConf = %f, want 0.78", cfg.MinTrackingConf)
	}
}

func TestConfig_Args(t *testing.T) {
	args := DefaultConfig().Args()

	want := []string{
		"--max-hands", "1",
		"--min-detection-confidence", "0.78",
		"--min-tracking-confidence", "0.78",
	}
	if len(args) != len(want) {
		t.Fatalf("Args() = %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("Args()[%d] = %q, want %q", i, args[i], want[i])
		}
	}
}

func TestWireHand_Landmarks(t *testing.T) {
	t.Run("copies points and metadata", func(t *testing.T) {
		h := wireHand{Handedness: "Left", Score: 0.88}
		for i := 0; i < NumLandmarks; i++ {
			h.Points = append(h.Points, Point3D{X: float64(i) / 100, Y: 0.5})
		}

		lm := h.landmarks()
		if lm.Handedness != "Left" || lm.Score != 0.88 {
			t.Errorf("metadata not copied: %+v", lm)
		}
		if math.Abs(lm.Fingertip().X-0.08) > epsilon {
			t.Errorf("Fingertip().X = %f, want 0.08", lm.Fingertip().X)
		}
	})

	t.Run("short point list leaves the rest zero", func(t *testing.T) {
		h := wireHand{Points: []Point3D{{X: 0.1, Y: 0.2}}}

		lm := h.landmarks()
		if lm.Points[Wrist].X != 0.1 {
			t.Errorf("wrist X = %f, want 0.1", lm.Points[Wrist].X)
		}
		if lm.Fingertip() != (Point3D{}) {
			t.Errorf("expected zero fingertip, got %+v", lm.Fingertip())
		}
	})
}

func TestWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	if err := writeFrame(&buf, []byte("jpeg")); err != nil {
		t.Fatalf("writeFrame() error = %v", err)
	}

	want := []byte{0, 0, 0, 4, 'j', 'p', 'e', 'g'}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("writeFrame() wrote %v, want %v", buf.Bytes(), want)
	}
}

func TestReadHands(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "no hands", input: `{"hands":[]}` + "\n", want: 0},
		{name: "one hand", input: `{"hands":[{"points":[{"x":0.1,"y":0.2,"z":0}],"handedness":"Right","score":0.9}]}` + "\n", want: 1},
		{name: "malformed", input: "not json\n", wantErr: true},
		{name: "closed pipe", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hands, err := readHands(bufio.NewReader(strings.NewReader(tt.input)))
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("readHands() error = %v", err)
			}
			if len(hands) != tt.want {
				t.Errorf("got %d hands, want %d", len(hands), tt.want)
			}
		})
	}
}

func TestLocateService_EnvOverride(t *testing.T) {
	t.Setenv("SWIPECTL_MEDIAPIPE_SCRIPT", "/opt/svc.py")
	t.Setenv("SWIPECTL_PYTHON", "/opt/python")

	python, script := locateService()
	if python != "/opt/python" || script != "/opt/svc.py" {
		t.Errorf("locateService() = %q, %q", python, script)
	}
}

func TestFirstExisting(t *testing.T) {
	empty := t.TempDir()
	withScript := t.TempDir()
	if err := os.MkdirAll(filepath.Join(withScript, "scripts"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(withScript, "scripts", "svc.py"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	if got := firstExisting([]string{empty, withScript}, "scripts/svc.py"); got != filepath.Join(withScript, "scripts", "svc.py") {
		t.Errorf("firstExisting() = %q", got)
	}
	if got := firstExisting([]string{empty}, "scripts/svc.py"); got != "" {
		t.Errorf("firstExisting() = %q, want empty", got)
	}
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty hands by default", func(t *testing.T) {
		mock := NewMockDetector()

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if hands != nil {
			t.Errorf("expected nil hands, got %v", hands)
		}
	})

	t.Run("returns configured hands", func(t *testing.T) {
		mock := NewMockDetector()

		mock.SetHands([]HandLandmarks{
			PointingLandmarks(0.2, 0.3),
			PointingLandmarks(0.7, 0.3),
		})

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(hands) != 2 {
			t.Errorf("expected 2 hands, got %d", len(hands))
		}
	})

	t.Run("SetFingertip toggles visibility", func(t *testing.T) {
		mock := NewMockDetector()

		mock.SetFingertip(0.4, 0.6, true)
		hands, _ := mock.Detect(nil)
		if len(hands) != 1 {
			t.Fatalf("expected 1 hand, got %d", len(hands))
		}
		tip := hands[0].Fingertip()
		if math.Abs(tip.X-0.4) > epsilon || math.Abs(tip.Y-0.6) > epsilon {
			t.Errorf("Fingertip() = %+v, want (0.4, 0.6)", tip)
		}

		mock.SetFingertip(0, 0, false)
		hands, _ = mock.Detect(nil)
		if len(hands) != 0 {
			t.Errorf("expected no hands, got %d", len(hands))
		}

		if mock.Calls() != 2 {
			t.Errorf("Calls() = %d, want 2", mock.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		hands, err := mock.Detect(nil)

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if hands != nil {
			t.Errorf("expected nil hands when error is set, got %v", hands)
		}
	})

	t.Run("Close returns nil", func(t *testing.T) {
		mock := NewMockDetector()

		err := mock.Close()

		if err != nil {
			t.Errorf("expected Close to return nil, got %v", err)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
	})
}

func TestPointingLandmarks(t *testing.T) {
	hand := PointingLandmarks(0.5, 0.4)

	if hand.Handedness != "Right" {
		t.Errorf("expected handedness Right, got %s", hand.Handedness)
	}
	if hand.Score < 0.78 {
		t.Errorf("score %f is below the tracking threshold", hand.Score)
	}

	tip := hand.Fingertip()
	if math.Abs(tip.X-0.5) > epsilon || math.Abs(tip.Y-0.4) > epsilon {
		t.Errorf("Fingertip() = %+v, want (0.5, 0.4)", tip)
	}

	// The index tip is the highest landmark (smallest Y).
	for i, p := range hand.Points {
		if i != IndexTip && p.Y <= tip.Y {
			t.Errorf("landmark %d (Y=%f) is above the index tip (Y=%f)", i, p.Y, tip.Y)
		}
	}

	// Every landmark is populated.
	for i, p := range hand.Points {
		if p == (Point3D{}) {
			t.Errorf("landmark %d is unset", i)
		}
	}
}
