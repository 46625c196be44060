package cli

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/veracity/internal/cache"
	"github.com/ppiankov/veracity/internal/model"
	"github.com/ppiankov/veracity/internal/server"
)

var (
	serveAddr     string
	serveAPIKeys  []string
	serveModel    string
	serveBaseURL  string
	serveNoCache  bool
	serveCacheDir string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the checking service",
	Long: `Serve runs the HTTP service the check command talks to.

Endpoints:
  POST /check-free   anonymous, rate limited per client
  POST /check        requires a valid x-api-key
  GET  /health

Verdicts are cached per sentence (memory + disk), so a sentence answered
once is never sent back to the model.

Example:
  OPENAI_API_KEY=sk-... veracity serve
  veracity serve --addr :8080 --api-key member-key-1 --api-key member-key-2`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", ":5000", "listen address")
	serveCmd.Flags().StringArrayVar(&serveAPIKeys, "api-key", nil, "accepted member API key (repeatable)")
	serveCmd.Flags().StringVar(&serveModel, "model", "gpt-4o-mini", "checker model name")
	serveCmd.Flags().StringVar(&serveBaseURL, "base-url", "", "OpenAI-compatible endpoint override")
	serveCmd.Flags().BoolVar(&serveNoCache, "no-cache", false, "disable the verdict cache")
	serveCmd.Flags().StringVar(&serveCacheDir, "cache-dir", "", "verdict cache directory (default ~/.veracity/cache)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := model.DefaultConfig()
	cfg.Server.Addr = serveAddr
	cfg.Server.APIKeys = serveAPIKeys
	cfg.Checker.Model = serveModel
	cfg.Checker.BaseURL = serveBaseURL
	cfg.Checker.APIKey = os.Getenv("OPENAI_API_KEY")

	checker, err := server.NewOpenAIChecker(cfg.Checker)
	if err != nil {
		return fmt.Errorf("configure checker: %w", err)
	}

	var verdicts *cache.Verdicts
	if !serveNoCache {
		dir := serveCacheDir
		if dir == "" {
			base, err := dataDir()
			if err != nil {
				return err
			}
			dir = filepath.Join(base, "cache")
		}
		layered := cache.NewLayeredCache(cfg.Cache.MemoryTTL, dir, cfg.Cache.DiskTTL)
		verdicts = cache.NewVerdicts(layered, cfg.Cache.DiskTTL)
	}

	handler := server.New(server.Options{
		Checker:      checker,
		Verdicts:     verdicts,
		APIKeys:      cfg.Server.APIKeys,
		FreeRate:     cfg.Server.FreeRate,
		FreeBurst:    cfg.Server.FreeBurst,
		MemberRate:   cfg.Server.MemberRate,
		MemberBurst:  cfg.Server.MemberBurst,
		MaxSentences: cfg.Server.MaxSentences,
	})

	mux := http.NewServeMux()
	handler.Register(mux)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("veracity serving", "addr", cfg.Server.Addr, "model", cfg.Checker.Model, "cache", !serveNoCache)
	return srv.ListenAndServe()
}
