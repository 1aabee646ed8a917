package mlscore

// Optional ONNX-based URL classification via Hugot. Runs fully local and
// degrades gracefully: when no model directory or ONNX runtime is present the
// classifier reports not-ready and the ensemble simply skips it. Because
// model output is not guaranteed bit-stable across runtimes, this layer is
// disabled by default and must be opted into.

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/options"
	"github.com/knights-analytics/hugot/pipelines"
)

// OnnxConfig configures the URL classifier.
type OnnxConfig struct {
	// ModelPath is the local ONNX model directory (must contain model.onnx).
	ModelPath string

	// OnnxLibraryPath points at the onnxruntime shared library directory.
	// Empty falls back to the pure Go backend.
	OnnxLibraryPath string

	UseGPU    bool
	DeviceID  int
	BatchSize int
	Timeout   time.Duration
}

// OnnxClassifier wraps a Hugot text-classification pipeline over URLs.
type OnnxClassifier struct {
	session  *hugot.Session
	pipeline *pipelines.TextClassificationPipeline
	mu       sync.RWMutex
	config   OnnxConfig
	ready    bool
}

// AutoDetectOnnxConfig looks for a usable model directory: first the
// LINKSHIELD_MODEL_PATH environment variable, then ./models/url-classifier.
// Returns nil when nothing is found.
func AutoDetectOnnxConfig() *OnnxConfig {
	candidates := []string{
		os.Getenv("LINKSHIELD_MODEL_PATH"),
		"./models/url-classifier",
	}
	for _, dir := range candidates {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, "model.onnx")); err == nil {
			return &OnnxConfig{
				ModelPath:       dir,
				OnnxLibraryPath: defaultOnnxLibraryPath(),
				BatchSize:       32,
				Timeout:         30 * time.Second,
			}
		}
	}
	return nil
}

func defaultOnnxLibraryPath() string {
	paths := []string{
		"/usr/lib/libonnxruntime.so",
		"/usr/local/lib/libonnxruntime.so",
		"/opt/homebrew/lib/libonnxruntime.dylib",
		"/usr/local/lib/libonnxruntime.dylib",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return filepath.Dir(p)
		}
	}
	return ""
}

// NewOnnxClassifier initializes the session and pipeline. It returns an
// error when the model cannot be loaded; use NewOnnxClassifierWithFallback
// for a never-fails constructor.
func NewOnnxClassifier(cfg OnnxConfig) (*OnnxClassifier, error) {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 32
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	c := &OnnxClassifier{config: cfg}
	if err := c.initialize(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewOnnxClassifierWithFallback returns a not-ready classifier instead of an
// error when initialization fails.
func NewOnnxClassifierWithFallback(cfg OnnxConfig) *OnnxClassifier {
	c, err := NewOnnxClassifier(cfg)
	if err != nil {
		log.Printf("WARNING: ONNX URL classifier unavailable, continuing without it: %v", err)
		return &OnnxClassifier{config: cfg}
	}
	return c
}

func (c *OnnxClassifier) initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.config.ModelPath == "" {
		return fmt.Errorf("no model path configured")
	}
	if _, err := os.Stat(c.config.ModelPath); err != nil {
		return fmt.Errorf("model path %s: %w", c.config.ModelPath, err)
	}

	session, err := c.createSession()
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	c.session = session

	pipeline, err := hugot.NewPipeline(session, hugot.TextClassificationConfig{
		ModelPath: c.config.ModelPath,
		Name:      "url-classifier",
	})
	if err != nil {
		_ = c.session.Destroy()
		return fmt.Errorf("create pipeline: %w", err)
	}
	c.pipeline = pipeline
	c.ready = true
	log.Printf("ONNX URL classifier ready (model: %s)", c.config.ModelPath)
	return nil
}

func (c *OnnxClassifier) createSession() (*hugot.Session, error) {
	if c.config.OnnxLibraryPath != "" {
		opts := []options.WithOption{
			options.WithOnnxLibraryPath(c.config.OnnxLibraryPath),
		}
		if c.config.UseGPU {
			opts = append(opts, options.WithCuda(map[string]string{
				"device_id": fmt.Sprintf("%d", c.config.DeviceID),
			}))
		}
		if session, err := hugot.NewORTSession(opts...); err == nil {
			return session, nil
		}
	}
	return hugot.NewGoSession()
}

// IsReady reports whether the classifier can serve inference.
func (c *OnnxClassifier) IsReady() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// Score classifies url and maps the model output to a [0,1] phishing
// probability: phishing-labeled confidence passes through, benign-labeled
// confidence is inverted.
func (c *OnnxClassifier) Score(ctx context.Context, url string) (float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.ready || c.pipeline == nil {
		return 0, fmt.Errorf("classifier not ready")
	}

	result, err := c.pipeline.RunPipeline([]string{url})
	if err != nil {
		return 0, fmt.Errorf("classification failed: %w", err)
	}
	if len(result.ClassificationOutputs) == 0 || len(result.ClassificationOutputs[0]) == 0 {
		return 0, fmt.Errorf("no classification output")
	}

	out := result.ClassificationOutputs[0][0]
	score := float64(out.Score)
	if isPhishingLabel(out.Label) {
		return score, nil
	}
	return 1 - score, nil
}

// isPhishingLabel covers the label conventions of common URL/phishing models.
func isPhishingLabel(label string) bool {
	switch label {
	case "phishing", "malicious", "PHISHING", "MALICIOUS", "LABEL_1":
		return true
	default:
		return false
	}
}

// Close releases the underlying session.
func (c *OnnxClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready = false
	if c.session != nil {
		if err := c.session.Destroy(); err != nil {
			return fmt.Errorf("destroy session: %w", err)
		}
	}
	return nil
}
