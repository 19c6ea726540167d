package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetFingertip makes Detect report a single pointing hand at (x, y),
// or no hand at all when visible is false.
func (m *MockDetector) SetFingertip(x, y float64, visible bool) {
	if !visible {
		m.SetHands(nil)
		return
	}
	m.SetHands([]HandLandmarks{PointingLandmarks(x, y)})
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// PointingLandmarks returns a right hand with the index finger extended
// and its tip at (x, y). The other fingers are curled below the tip.
func PointingLandmarks(x, y float64) HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	// Wrist well below the fingertip (Y grows downward)
	landmarks.Points[Wrist] = Point3D{X: x - 0.02, Y: y + 0.30, Z: 0.0}

	// Thumb tucked across the palm
	landmarks.Points[ThumbCMC] = Point3D{X: x + 0.02, Y: y + 0.27, Z: -0.01}
	landmarks.Points[ThumbMCP] = Point3D{X: x + 0.05, Y: y + 0.23, Z: -0.02}
	landmarks.Points[ThumbIP] = Point3D{X: x + 0.04, Y: y + 0.19, Z: -0.03}
	landmarks.Points[ThumbTip] = Point3D{X: x + 0.01, Y: y + 0.17, Z: -0.04}

	// Index finger extended upward to the tip
	landmarks.Points[IndexMCP] = Point3D{X: x, Y: y + 0.18, Z: 0.0}
	landmarks.Points[IndexPIP] = Point3D{X: x, Y: y + 0.11, Z: 0.0}
	landmarks.Points[IndexDIP] = Point3D{X: x, Y: y + 0.05, Z: 0.0}
	landmarks.Points[IndexTip] = Point3D{X: x, Y: y, Z: 0.0}

	// Middle, ring and pinky curled
	for i, base := range []int{MiddleMCP, RingMCP, PinkyMCP} {
		dx := -0.03 * float64(i+1)
		landmarks.Points[base] = Point3D{X: x + dx, Y: y + 0.19, Z: -0.02}
		landmarks.Points[base+1] = Point3D{X: x + dx, Y: y + 0.16, Z: -0.05}
		landmarks.Points[base+2] = Point3D{X: x + dx + 0.01, Y: y + 0.18, Z: -0.04}
		landmarks.Points[base+3] = Point3D{X: x + dx + 0.01, Y: y + 0.21, Z: -0.02}
	}

	return landmarks
}
