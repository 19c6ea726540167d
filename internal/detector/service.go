package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
)

// service is one running mediapipe_service.py process. Frames go in as a
// 4-byte big-endian length followed by JPEG bytes; each frame is answered
// with one JSON line.
type service struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
}

func startService(python, script string, args []string) (*service, error) {
	cmd := exec.Command(python, append([]string{script}, args...)...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start mediapipe service: %w", err)
	}

	return &service{cmd: cmd, stdin: stdin, stdout: bufio.NewReader(stdout)}, nil
}

func (s *service) detect(jpeg []byte) ([]HandLandmarks, error) {
	if err := writeFrame(s.stdin, jpeg); err != nil {
		return nil, err
	}
	return readHands(s.stdout)
}

// stop closes stdin, which ends the service's read loop, and waits for it.
func (s *service) stop() error {
	s.stdin.Close()
	return s.cmd.Wait()
}

func writeFrame(w io.Writer, jpeg []byte) error {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(jpeg)))

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := w.Write(jpeg); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// wireHand is a hand as the service reports it. Points may be short; missing
// landmarks stay zero.
type wireHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"`
	Score      float64   `json:"score"`
}

func (h wireHand) landmarks() HandLandmarks {
	lm := HandLandmarks{Handedness: h.Handedness, Score: h.Score}
	copy(lm.Points[:], h.Points)
	return lm
}

func readHands(r *bufio.Reader) ([]HandLandmarks, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp struct {
		Hands []wireHand `json:"hands"`
	}
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	hands := make([]HandLandmarks, len(resp.Hands))
	for i, h := range resp.Hands {
		hands[i] = h.landmarks()
	}
	return hands, nil
}

// locateService finds the interpreter and script. SWIPECTL_PYTHON and
// SWIPECTL_MEDIAPIPE_SCRIPT override the search; otherwise a venv next to the
// working directory, the binary or ~/.swipectl is preferred over python3.
func locateService() (python, script string) {
	var roots []string
	if wd, err := os.Getwd(); err == nil {
		roots = append(roots, wd, filepath.Dir(wd))
	}
	if exe, err := os.Executable(); err == nil {
		roots = append(roots, filepath.Dir(exe))
	}
	if home, err := os.UserHomeDir(); err == nil {
		roots = append(roots, filepath.Join(home, ".swipectl"))
	}

	script = os.Getenv("SWIPECTL_MEDIAPIPE_SCRIPT")
	if script == "" {
		script = firstExisting(roots, "scripts/mediapipe_service.py")
	}

	python = os.Getenv("SWIPECTL_PYTHON")
	if python == "" {
		python = firstExisting(roots, "venv/bin/python")
	}
	if python == "" {
		python = "python3"
	}
	return python, script
}

// firstExisting returns the first root/rel that exists, or "".
func firstExisting(roots []string, rel string) string {
	for _, root := range roots {
		p := filepath.Join(root, rel)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
