package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/veracity/internal/check"
	"github.com/ppiankov/veracity/internal/highlight"
	"github.com/ppiankov/veracity/internal/history"
	"github.com/ppiankov/veracity/internal/meta"
	"github.com/ppiankov/veracity/internal/model"
	"github.com/ppiankov/veracity/internal/segment"
	"github.com/ppiankov/veracity/internal/session"
)

var (
	checkEndpoint string
	checkAPIKey   string
	checkTimeout  time.Duration
	checkFile     string
	checkHTML     bool
	checkMeta     bool
	noHistory     bool
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check [text]",
	Short: "Fact check text sentence by sentence",
	Long: `Check splits the input into sentences, sends them to the checking
service in a single request, and prints the verdicts.

The input comes from the argument, --file, or stdin, in that order.

Example:
  veracity check "The Earth is flat. Water boils at 100C."
  veracity check --file article.txt --html > annotated.html
  cat article.txt | veracity check --meta`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkEndpoint, "endpoint", "", "checking service URL (default from config)")
	checkCmd.Flags().StringVar(&checkAPIKey, "api-key", "", "credential sent as x-api-key")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 30*time.Second, "request timeout")
	checkCmd.Flags().StringVar(&checkFile, "file", "", "read the text from a file")
	checkCmd.Flags().BoolVar(&checkHTML, "html", false, "print annotated markup instead of the plain summary")
	checkCmd.Flags().BoolVar(&checkMeta, "meta", false, "resolve source page titles")
	checkCmd.Flags().BoolVar(&noHistory, "no-history", false, "do not record this check in history")

	_ = viper.BindPFlag("endpoint.url", checkCmd.Flags().Lookup("endpoint"))
	_ = viper.BindPFlag("endpoint.api_key", checkCmd.Flags().Lookup("api-key"))
}

func runCheck(cmd *cobra.Command, args []string) error {
	text, err := readInput(args)
	if err != nil {
		return err
	}

	cleaned := segment.CleanText(text)
	if cleaned == "" {
		return fmt.Errorf("nothing to check: input is empty")
	}

	cfg := buildConfig()
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	client := check.NewClient(check.Options{
		Endpoint:   cfg.Endpoint.URL,
		APIKey:     cfg.Endpoint.APIKey,
		UserAgent:  cfg.HTTP.UserAgent,
		Timeout:    checkTimeout,
		MaxBytes:   cfg.HTTP.MaxBodyBytes,
		HTTPProxy:  cfg.HTTP.HTTPProxy,
		HTTPSProxy: cfg.HTTP.HTTPSProxy,
		NoProxy:    cfg.HTTP.NoProxy,
		OnLimit: func() {
			fmt.Fprintln(os.Stderr, "Limit reached: you have used up your free fact checks. Provide a credential for a higher quota.")
		},
	})

	sess := session.NewCache()
	sentences := segment.Split(cleaned)
	unknown := sess.FilterUnknown(sentences)

	if verbose {
		fmt.Fprintf(os.Stderr, "Checking %d sentence(s) via %s\n", len(unknown), cfg.Endpoint.URL)
	}

	verdicts, err := client.Check(ctx, unknown)
	if err != nil {
		var cerr *check.Error
		if errors.As(err, &cerr) {
			return fmt.Errorf("check failed: %s", cerr.Message)
		}
		return fmt.Errorf("check failed: %w", err)
	}
	sess.InsertAll(verdicts)

	if !noHistory {
		recordHistory(cfg, cleaned, sess.All())
	}

	if checkHTML {
		fmt.Println(highlight.Annotate(cleaned, sess))
		return nil
	}

	printVerdicts(ctx, cfg, sess.All())
	return nil
}

// readInput resolves the text to check: argument, then --file, then stdin
func readInput(args []string) (string, error) {
	if len(args) == 1 && args[0] != "" {
		return args[0], nil
	}

	if checkFile != "" {
		data, err := os.ReadFile(checkFile)
		if err != nil {
			return "", fmt.Errorf("read input file: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

// buildConfig assembles the effective configuration from defaults, config
// file, environment and flags
func buildConfig() *model.Config {
	cfg := model.DefaultConfig()

	if url := viper.GetString("endpoint.url"); url != "" {
		cfg.Endpoint.URL = url
	}
	if key := viper.GetString("endpoint.api_key"); key != "" {
		cfg.Endpoint.APIKey = key
	}
	if checkEndpoint != "" {
		cfg.Endpoint.URL = checkEndpoint
	}
	if checkAPIKey != "" {
		cfg.Endpoint.APIKey = checkAPIKey
	}

	if cfg.History.Path == "" {
		if dir, err := dataDir(); err == nil {
			cfg.History.Path = filepath.Join(dir, "history.json")
		}
	}

	return cfg
}

// recordHistory appends the check, storing only the first verdict.
// Failures are reported but never fail the check itself.
func recordHistory(cfg *model.Config, text string, verdicts []model.Verdict) {
	if cfg.History.Path == "" || len(verdicts) == 0 {
		return
	}

	store := history.NewStore(cfg.History.Path, cfg.History.Capacity)
	err := store.Append(history.Entry{
		Text:      text,
		Result:    verdicts[0],
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to record history: %v\n", err)
	}
}

// printVerdicts renders the plain text summary
func printVerdicts(ctx context.Context, cfg *model.Config, verdicts []model.Verdict) {
	if len(verdicts) == 0 {
		fmt.Println("No verdicts returned.")
		return
	}

	var titles *meta.Fetcher
	if checkMeta {
		titles = meta.NewFetcher(10*time.Second, cfg.HTTP.UserAgent, 0,
			cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)
	}

	for _, v := range verdicts {
		fmt.Printf("[%d] %s\n", v.LocalID, v.Sentence)
		fmt.Printf("    Rating: %s  Severity: %s\n", v.Rating, v.Severity)
		if v.Explanation != "" {
			fmt.Printf("    %s\n", v.Explanation)
		}
		for _, point := range v.KeyPoints {
			fmt.Printf("    - %s\n", point)
		}
		for _, src := range v.Sources {
			if titles != nil {
				if title := titles.Title(ctx, src); title != "" {
					fmt.Printf("    Source: %s (%s)\n", title, src)
					continue
				}
			}
			fmt.Printf("    Source: %s\n", src)
		}
		fmt.Println()
	}
}
