// Package config loads swipectl settings from flags and environment variables.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ayusman/swipectl/internal/swipe"
)

// Defaults.
const (
	DefaultAddr     = ":8080"
	DefaultFPS      = 15
	DefaultLogLevel = "info"
	DataDirName     = ".swipectl"
)

// Config holds all application configuration.
type Config struct {
	// Capture
	CameraID int
	FPS      int
	Mirror   bool

	// Recognition
	Velocity   swipe.VelocityMode
	ClearOnGap bool

	// Storage and plugins
	DataDir   string
	PluginDir string

	// Surfaces
	Addr     string
	NoTray   bool
	LogLevel string
}

// DBPath returns the SQLite database location inside the data directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "swipectl.db")
}

// GapPolicy returns the recognizer gap policy selected by ClearOnGap.
func (c *Config) GapPolicy() swipe.GapPolicy {
	if c.ClearOnGap {
		return swipe.ClearOnGap
	}
	return swipe.KeepHistory
}

// Load parses args (normally os.Args[1:]) on top of environment defaults.
// Flags win over environment variables.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("swipectl", flag.ContinueOnError)

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	defaultDataDir := envString("SWIPECTL_DATA_DIR", filepath.Join(home, DataDirName))

	cameraID := fs.Int("camera", envInt("SWIPECTL_CAMERA", 0), "Camera device ID")
	fps := fs.Int("fps", envInt("SWIPECTL_FPS", DefaultFPS), "Capture frames per second")
	mirror := fs.Bool("mirror", envBool("SWIPECTL_MIRROR", true), "Flip frames horizontally so swipes match the user's view")
	velocity := fs.String("velocity", envString("SWIPECTL_VELOCITY", "frame"), "Swipe speed measure: frame (per-frame displacement) or time (per-second)")
	clearOnGap := fs.Bool("clear-on-gap", envBool("SWIPECTL_CLEAR_ON_GAP", false), "Drop motion history when the hand leaves the frame")
	dataDir := fs.String("data-dir", defaultDataDir, "Directory for the database")
	pluginDir := fs.String("plugins", envString("SWIPECTL_PLUGIN_DIR", ""), "Plugin directory (default <data-dir>/plugins)")
	addr := fs.String("addr", envString("SWIPECTL_ADDR", DefaultAddr), "HTTP listen address")
	noTray := fs.Bool("no-tray", envBool("SWIPECTL_NO_TRAY", false), "Run without the menu bar tray")
	logLevel := fs.String("log-level", envString("SWIPECTL_LOG_LEVEL", DefaultLogLevel), "Log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	mode, err := swipe.ParseVelocityMode(*velocity)
	if err != nil {
		return nil, err
	}

	if *fps <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %d", *fps)
	}
	if *dataDir == "" {
		return nil, errors.New("data-dir must not be empty")
	}

	cfg := &Config{
		CameraID:   *cameraID,
		FPS:        *fps,
		Mirror:     *mirror,
		Velocity:   mode,
		ClearOnGap: *clearOnGap,
		DataDir:    *dataDir,
		PluginDir:  *pluginDir,
		Addr:       *addr,
		NoTray:     *noTray,
		LogLevel:   *logLevel,
	}

	if cfg.PluginDir == "" {
		cfg.PluginDir = filepath.Join(cfg.DataDir, "plugins")
	}

	return cfg, nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
