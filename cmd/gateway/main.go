package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/linkshield/linkshield/pkg/brand"
	"github.com/linkshield/linkshield/pkg/config"
	"github.com/linkshield/linkshield/pkg/feedback"
	"github.com/linkshield/linkshield/pkg/history"
	"github.com/linkshield/linkshield/pkg/httputil"
	"github.com/linkshield/linkshield/pkg/mlscore"
	"github.com/linkshield/linkshield/pkg/risk"
	"github.com/linkshield/linkshield/pkg/telemetry"
	"github.com/linkshield/linkshield/pkg/urlinfo"
	"github.com/linkshield/linkshield/pkg/vcache"
)

const Version = "0.1.0"

// Gateway bundles the scoring engine with the optional collaborators the
// HTTP surface uses. The engine itself stays offline and deterministic; the
// cache, history store, and extra ensemble layers all degrade gracefully
// when unconfigured or unreachable.
type Gateway struct {
	cfg      *config.Config
	engine   *risk.Engine
	feedback *feedback.Manager
	limiter  *httputil.ScanLimiter
	metrics  *telemetry.Client
	cache    *vcache.Cache  // Optional: requires Redis
	store    *history.Store // Optional: requires Postgres
	allowed  map[string]bool
}

// AnalyzeResponse is the wire shape of one scan.
type AnalyzeResponse struct {
	URL         string                        `json:"url"`
	Score       int                           `json:"score"`
	Verdict     risk.Verdict                  `json:"verdict"`
	Flags       []string                      `json:"flags"`
	Confidence  float64                       `json:"confidence"`
	Breakdown   risk.ScoreComponents          `json:"breakdown"`
	TopFeatures []mlscore.FeatureContribution `json:"top_features,omitempty"`
	Cached      bool                          `json:"cached,omitempty"`
	LatencyMs   float64                       `json:"latency_ms"`
}

func NewGateway(cfg *config.Config) *Gateway {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	cfg.MustValidate()

	ensemble := mlscore.NewEnsemble()

	if cfg.EnableSimilarity {
		store, err := mlscore.NewSimilarityStore(context.Background())
		if err != nil {
			log.Printf("○ Similarity layer disabled (init failed: %v)", err)
		} else {
			ensemble = ensemble.WithSimilarity(store)
			log.Println("✓ Similarity layer enabled (chromem-go exemplars)")
		}
	} else {
		log.Println("○ Similarity layer disabled")
	}

	if cfg.EnableOnnx {
		if onnxCfg := mlscore.AutoDetectOnnxConfig(); onnxCfg != nil {
			classifier := mlscore.NewOnnxClassifierWithFallback(*onnxCfg)
			if classifier.IsReady() {
				ensemble = ensemble.WithClassifier(classifier)
				log.Println("✓ ONNX classifier enabled (hugot)")
			} else {
				log.Println("○ ONNX classifier disabled (model failed to load)")
			}
		} else {
			log.Println("○ ONNX classifier disabled (no model found)")
		}
	} else {
		log.Println("○ ONNX classifier disabled")
	}

	engine := risk.NewEngineWith(
		brand.NewDetector(cfg.ConfigDir),
		ensemble,
		risk.MustNewScorer(risk.LoadWeights(cfg.ConfigDir)),
	)

	manager, err := feedback.NewManager(cfg.FeedbackLimit)
	if err != nil {
		log.Fatalf("feedback manager: %v", err)
	}

	g := &Gateway{
		cfg:      cfg,
		engine:   engine,
		feedback: manager,
		limiter:  httputil.NewScanLimiter(cfg.MaxConcurrentScans),
		metrics:  &telemetry.Client{},
		allowed:  allowlistSet(cfg.AllowlistHosts),
	}

	if cfg.RedisAddr != "" {
		cache := vcache.New(cfg.RedisAddr, cfg.CacheTTL)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := cache.Ping(ctx); err != nil {
			log.Printf("○ Verdict cache disabled (redis unreachable: %v)", err)
			_ = cache.Close()
		} else {
			g.cache = cache
			log.Printf("✓ Verdict cache enabled (redis at %s, ttl %s)", cfg.RedisAddr, cfg.CacheTTL)
		}
		cancel()
	} else {
		log.Println("○ Verdict cache disabled (no redis address)")
	}

	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		store, err := history.NewStore(ctx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			log.Printf("○ History store disabled (init failed: %v)", err)
		} else {
			g.store = store
			log.Println("✓ History store enabled (postgres)")
		}
	} else {
		log.Println("○ History store disabled (no database URL)")
	}

	return g
}

// Analyze runs the full scan path: allowlist, cache, engine, telemetry,
// persistence. Used by both the HTTP handler and the CLI.
func (g *Gateway) Analyze(ctx context.Context, url string, explain bool) AnalyzeResponse {
	start := time.Now()
	resp := AnalyzeResponse{URL: url}

	if g.isAllowlisted(url) {
		resp.Verdict = risk.VerdictSafe
		resp.Flags = []string{"allowlisted"}
		resp.Confidence = 1.0
		resp.LatencyMs = float64(time.Since(start).Microseconds()) / 1000
		return resp
	}

	if g.cache != nil {
		if cached, ok, err := g.cache.Get(ctx, url); err == nil && ok {
			g.metrics.RecordCacheHit()
			resp.Score = cached.Score
			resp.Verdict = cached.Verdict
			resp.Flags = cached.Flags
			resp.Confidence = cached.Confidence
			resp.Breakdown = cached.Breakdown
			resp.Cached = true
			resp.LatencyMs = float64(time.Since(start).Microseconds()) / 1000
			return resp
		}
	}

	var assessment risk.RiskAssessment
	if explain {
		assessment, resp.TopFeatures = g.engine.Explain(url)
	} else {
		assessment = g.engine.Analyze(url)
	}
	g.metrics.RecordScan(string(assessment.Verdict))

	if g.cache != nil && assessment.Verdict != risk.VerdictUnknown {
		if err := g.cache.Set(ctx, url, assessment); err != nil {
			log.Printf("cache set failed: %v", err)
		}
	}
	if g.store != nil && assessment.Verdict != risk.VerdictUnknown {
		scannedAt := time.Now().UTC()
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := g.store.Save(ctx, url, assessment, scannedAt); err != nil {
				log.Printf("history save failed: %v", err)
			}
		}()
	}

	resp.Score = assessment.Score
	resp.Verdict = assessment.Verdict
	resp.Flags = assessment.Flags
	resp.Confidence = assessment.Confidence
	resp.Breakdown = assessment.Breakdown
	resp.LatencyMs = float64(time.Since(start).Microseconds()) / 1000
	return resp
}

// isAllowlisted matches the URL host against the configured hosts, exactly
// or as a parent domain. Matching happens before the engine ever runs.
func (g *Gateway) isAllowlisted(url string) bool {
	if len(g.allowed) == 0 {
		return false
	}
	p := urlinfo.Parse(url)
	if p == nil {
		return false
	}
	host := p.Host
	if g.allowed[host] {
		return true
	}
	for entry := range g.allowed {
		if strings.HasSuffix(host, "."+entry) {
			return true
		}
	}
	return false
}

func (g *Gateway) Close() {
	if g.cache != nil {
		_ = g.cache.Close()
	}
	if g.store != nil {
		g.store.Close()
	}
}

func allowlistSet(hosts []string) map[string]bool {
	set := make(map[string]bool, len(hosts))
	for _, h := range hosts {
		set[strings.ToLower(strings.TrimSpace(h))] = true
	}
	return set
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runHTTPServer()
	case "scan":
		if len(os.Args) < 3 {
			fmt.Println("Usage: linkshield scan <url>")
			os.Exit(1)
		}
		runCLIScan(os.Args[2])
	case "version":
		fmt.Printf("LinkShield v%s\n", Version)
		fmt.Println("Offline URL risk scoring engine")
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("LinkShield v%s - Offline URL risk scoring\n\n", Version)
	fmt.Println("Usage:")
	fmt.Println("  linkshield serve        Start the HTTP gateway")
	fmt.Println("  linkshield scan <url>   Score a single URL and print the assessment")
	fmt.Println("  linkshield version      Show version")
	fmt.Println("")
	fmt.Println("Environment Variables:")
	fmt.Println("  LINKSHIELD_LISTEN_ADDR           Gateway bind address (default :8089)")
	fmt.Println("  LINKSHIELD_CONFIG_DIR            Directory with brands.yaml / weights.yaml")
	fmt.Println("  LINKSHIELD_REDIS_ADDR            Enable verdict caching")
	fmt.Println("  LINKSHIELD_DATABASE_URL          Enable assessment history")
	fmt.Println("  LINKSHIELD_ENABLE_SIMILARITY     Enable the exemplar similarity layer")
	fmt.Println("  LINKSHIELD_ENABLE_ONNX           Enable the ONNX classifier layer")
	fmt.Println("  LINKSHIELD_ALLOWLIST             Comma-separated hosts scored SAFE upfront")
}

// ============================================================================
// HTTP Server Mode
// ============================================================================

func runHTTPServer() {
	cfg := config.NewDefaultConfig()
	gateway := NewGateway(cfg)
	defer gateway.Close()

	app := fiber.New(fiber.Config{
		AppName: "LinkShield",
	})

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "version": Version})
	})

	app.Post("/v1/analyze", func(c fiber.Ctx) error {
		var req struct {
			URL     string `json:"url"`
			Explain bool   `json:"explain"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if req.URL == "" {
			return c.Status(400).JSON(fiber.Map{"error": "url field is required"})
		}

		if !gateway.limiter.TryAcquire() {
			return c.Status(429).JSON(fiber.Map{"error": "scan capacity exhausted, retry shortly"})
		}
		defer gateway.limiter.Release()

		return c.JSON(gateway.Analyze(c.Context(), req.URL, req.Explain))
	})

	app.Post("/v1/feedback", func(c fiber.Ctx) error {
		var req struct {
			URL             string `json:"url"`
			Kind            string `json:"kind"` // "false_negative" or "false_positive"
			OriginalVerdict string `json:"original_verdict"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if req.URL == "" {
			return c.Status(400).JSON(fiber.Map{"error": "url field is required"})
		}

		var result feedback.Result
		switch strings.ToLower(req.Kind) {
		case "false_negative":
			result = gateway.feedback.ReportFalseNegative(req.URL, risk.Verdict(req.OriginalVerdict))
		case "false_positive":
			result = gateway.feedback.ReportFalsePositive(req.URL, risk.Verdict(req.OriginalVerdict))
		default:
			return c.Status(400).JSON(fiber.Map{
				"error": "kind must be: false_negative or false_positive",
			})
		}

		switch result.Status {
		case feedback.StatusAccepted:
			gateway.metrics.RecordFeedback()
			return c.JSON(result)
		case feedback.StatusRateLimited:
			return c.Status(429).JSON(result)
		default:
			return c.Status(400).JSON(result)
		}
	})

	app.Get("/v1/feedback/queue", func(c fiber.Ctx) error {
		queue := gateway.feedback.ReportQueue()
		return c.JSON(fiber.Map{"reports": queue, "length": len(queue)})
	})

	app.Delete("/v1/feedback/queue", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"dropped": gateway.feedback.ClearReportQueue()})
	})

	app.Post("/v1/feedback/reset", func(c fiber.Ctx) error {
		gateway.feedback.ResetSession()
		return c.JSON(gateway.feedback.SessionStats())
	})

	app.Get("/v1/stats", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"counters": gateway.metrics.Snapshot(),
			"limiter":  gateway.limiter.Stats(),
			"session":  gateway.feedback.SessionStats(),
		})
	})

	app.Get("/v1/history", func(c fiber.Ctx) error {
		if gateway.store == nil {
			return c.Status(404).JSON(fiber.Map{"error": "history store not configured"})
		}
		records, err := gateway.store.Recent(c.Context(), fiber.Query[int](c, "limit", 50))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"records": records})
	})

	log.Printf("LinkShield gateway starting on %s", cfg.ListenAddr)
	log.Printf("Endpoints:")
	log.Printf("  GET    /health             - Health check")
	log.Printf("  POST   /v1/analyze         - Score a URL")
	log.Printf("  POST   /v1/feedback        - Report a false positive/negative")
	log.Printf("  GET    /v1/feedback/queue  - Inspect queued masked gradients")
	log.Printf("  DELETE /v1/feedback/queue  - Drop queued reports")
	log.Printf("  GET    /v1/stats           - Gateway counters")

	if err := app.Listen(cfg.ListenAddr); err != nil {
		log.Fatal(err)
	}
}

// ============================================================================
// CLI Mode
// ============================================================================

func runCLIScan(url string) {
	cfg := config.NewDefaultConfig()
	gateway := NewGateway(cfg)
	defer gateway.Close()

	result := gateway.Analyze(context.Background(), url, true)

	output, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(output))
}
