package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fenilsonani/diskwise/internal/advisor"
	"github.com/fenilsonani/diskwise/internal/advisory"
	"github.com/fenilsonani/diskwise/internal/cleaner"
	"github.com/fenilsonani/diskwise/internal/config"
	"github.com/fenilsonani/diskwise/internal/progress"
	"github.com/fenilsonani/diskwise/internal/reporter"
	"github.com/fenilsonani/diskwise/internal/session"
	"github.com/fenilsonani/diskwise/internal/ui"
	"github.com/fenilsonani/diskwise/pkg/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var (
	configPath string
	verbose    bool
	quiet      bool
	dryRun     bool
	force      bool
	hardDelete bool
	showTree   bool
	outputFmt  string
	outputFile string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "diskwise",
	Short: "Windows disk cleanup advisor",
	Long: `DiskWise scans a Windows system for cleanup candidates, rates every file
on a five-level caution scale, and cleans the safe tiers through the
Recycle Bin. An OpenAI-compatible advisory service can refine the local
rating when an API key is configured.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the disk for cleanup candidates",
	Long:  `Scans the known cleanup locations and reports what was found without making any changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, _, bus, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		format, err := reporter.ParseFormat(outputFmt)
		if err != nil {
			return err
		}

		live := ui.NewLiveProgress()
		if quiet {
			live.SetEnabled(false)
		}
		stop := live.Attach(bus)
		live.Start()

		result, err := sess.Scan(cmd.Context())
		stop()
		live.Finish()
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		if outputFile != "" {
			if err := reporter.SaveScanToFile(result, outputFile, format); err != nil {
				return fmt.Errorf("failed to save report: %w", err)
			}
			fmt.Printf("Report saved to: %s\n", outputFile)
			return nil
		}

		return reporter.New(os.Stdout, format).ReportScan(result)
	},
}

var adviseCmd = &cobra.Command{
	Use:   "advise",
	Short: "Rate the scanned candidates",
	Long: `Rates every scanned candidate on the L1-L5 caution scale. When an API key
is configured in the settings, the advisory service refines the local
rating; otherwise the local rating stands alone.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, _, _, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		result, err := sess.Advise(cmd.Context())
		if err != nil {
			if errors.Is(err, session.ErrNoScan) {
				return fmt.Errorf("no scan snapshot found, run 'diskwise scan' first")
			}
			return fmt.Errorf("advise failed: %w", err)
		}

		format, err := reporter.ParseFormat(outputFmt)
		if err != nil {
			return err
		}
		if err := reporter.New(os.Stdout, format).ReportAdvice(result); err != nil {
			return err
		}

		if showTree {
			ui.PrintLevelTree(result, sess.Items())
		}
		return nil
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean the automatically approved candidates",
	Long: `Deletes the candidates rated safe for unattended cleanup: level L1, plus
L2 when allow_l2 is enabled in the settings. Confirmation-gated and
suggestion-only items are never touched. Files go to the Recycle Bin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, cfg, bus, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		if cmd.Flags().Changed("dry-run") {
			cfg.DryRun = dryRun
		}

		if sess.Advice() == nil {
			return fmt.Errorf("no advisory rating found, run 'diskwise advise' first")
		}

		plan := sess.SelectAutoClean()
		if len(plan) == 0 {
			fmt.Println("✨ Nothing qualifies for automatic cleanup.")
			return nil
		}

		var planSize int64
		for i := range plan {
			planSize += plan[i].SizeBytes
		}
		fmt.Printf("Cleanup plan: %d files, %s\n", len(plan), utils.FormatBytes(planSize))

		if !force && !cfg.DryRun {
			if !confirm(fmt.Sprintf("Delete %d files (%s)?", len(plan), utils.FormatBytes(planSize))) {
				fmt.Println("Cleanup cancelled")
				return nil
			}
		}

		if cfg.DryRun {
			fmt.Println("\n[DRY RUN MODE] No files will be deleted.")
		} else {
			fmt.Println("\nCleaning...")
		}

		live := ui.NewLiveProgress()
		if quiet {
			live.SetEnabled(false)
		}
		stop := live.Attach(bus)
		live.Start()

		result, err := sess.Clean(cmd.Context(), plan, cleaner.Options{
			DryRun:          cfg.DryRun,
			AllowHardDelete: hardDelete,
		})
		stop()
		live.Finish()
		if err != nil {
			return fmt.Errorf("clean failed: %w", err)
		}

		format, err := reporter.ParseFormat(outputFmt)
		if err != nil {
			return err
		}
		if err := reporter.New(os.Stdout, format).ReportCleanup(result); err != nil {
			return err
		}
		if format == reporter.FormatTable || format == reporter.FormatSummary {
			fmt.Print(cleaner.FormatFailureSummary(result.Failed))
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show scan statistics",
	Long:  `Shows extension, folder and category breakdowns from the last scan, plus disk usage of the scanned volume.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, _, _, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		stats := sess.Stats()
		if stats == nil {
			return fmt.Errorf("no scan snapshot found, run 'diskwise scan' first")
		}

		switch outputFmt {
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		case "yaml":
			out, err := yaml.Marshal(stats)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(out)
			return err
		}

		if usage, err := sess.DiskUsage(); err == nil {
			fmt.Printf("Volume %s: %s used of %s (%.1f%%), %s free\n\n",
				usage.Path,
				utils.FormatBytes(int64(usage.UsedBytes)),
				utils.FormatBytes(int64(usage.TotalBytes)),
				usage.UsedPercent,
				utils.FormatBytes(int64(usage.FreeBytes)))
		}

		type row struct {
			name string
			size int64
			n    int
		}
		var rows []row
		for name, breakdown := range stats.CategoryBreakdown {
			rows = append(rows, row{name, breakdown.Size, breakdown.Count})
		}
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].size != rows[j].size {
				return rows[i].size > rows[j].size
			}
			return rows[i].name < rows[j].name
		})

		fmt.Println("By category:")
		for _, r := range rows {
			fmt.Printf("  %-24s %6d files  %s\n", r.name, r.n, utils.FormatBytes(r.size))
		}

		fmt.Println("\nLargest files:")
		for i, item := range stats.TopFiles {
			if i >= 10 {
				break
			}
			fmt.Printf("  %s  %s\n", utils.FormatBytes(item.SizeBytes), item.Path)
		}
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the advisory report",
	Long:  `Shows the long-form advisory report produced by the last rating.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, _, _, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		advice := sess.Advice()
		if advice == nil {
			return fmt.Errorf("no advisory rating found, run 'diskwise advise' first")
		}

		switch outputFmt {
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(advice.Report)
		case "yaml":
			out, err := yaml.Marshal(advice.Report)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(out)
			return err
		}

		printReport(&advice.Report)
		return nil
	},
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show the advisory and cleanup settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, _, _, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		s := sess.Settings()
		fmt.Printf("base_url:                %s\n", s.BaseURL)
		fmt.Printf("api_key:                 %s\n", maskKey(s.APIKey))
		fmt.Printf("model:                   %s\n", s.Model)
		fmt.Printf("mask_paths:              %v\n", s.MaskPaths)
		fmt.Printf("cache_enabled:           %v\n", s.CacheEnabled)
		fmt.Printf("allow_l2:                %v\n", s.AllowL2)
		fmt.Printf("large_file_threshold_mb: %d\n", s.LargeFileThresholdMB)
		return nil
	},
}

var (
	setBaseURL     string
	setAPIKey      string
	setModel       string
	setMaskPaths   bool
	setCache       bool
	setAllowL2     bool
	setLargeFileMB int64
)

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update advisory and cleanup settings",
	Long:  `Updates settings; only the flags you pass change. The API key is stored locally in settings.json.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, _, _, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		s := sess.Settings()
		if cmd.Flags().Changed("base-url") {
			s.BaseURL = setBaseURL
		}
		if cmd.Flags().Changed("api-key") {
			s.APIKey = setAPIKey
		}
		if cmd.Flags().Changed("model") {
			s.Model = setModel
		}
		if cmd.Flags().Changed("mask-paths") {
			s.MaskPaths = setMaskPaths
		}
		if cmd.Flags().Changed("cache") {
			s.CacheEnabled = setCache
		}
		if cmd.Flags().Changed("allow-l2") {
			s.AllowL2 = setAllowL2
		}
		if cmd.Flags().Changed("large-file-mb") {
			s.LargeFileThresholdMB = setLargeFileMB
		}

		if err := sess.UpdateSettings(s); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		fmt.Println("Settings updated")
		return nil
	},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check advisory service connectivity",
	Long:  `Verifies the advisory configuration by listing the available models and sending a minimal test request, in parallel.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, _, _, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		client := sess.NewAdvisoryClient()

		var (
			models    []string
			modelsErr error
			reply     string
			replyErr  error
		)

		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			models, modelsErr = client.ListModels(ctx)
			return nil
		})
		g.Go(func() error {
			reply, replyErr = client.TestConnection(ctx)
			return nil
		})
		_ = g.Wait()

		if modelsErr != nil {
			fmt.Printf("✗ model listing failed: %v\n", modelsErr)
		} else {
			fmt.Printf("✓ %d models available\n", len(models))
			for i, model := range models {
				if i >= 10 {
					fmt.Printf("  … and %d more\n", len(models)-10)
					break
				}
				fmt.Printf("  %s\n", model)
			}
		}

		if replyErr != nil {
			fmt.Printf("✗ connection test failed: %v\n", replyErr)
			if errors.Is(replyErr, advisory.ErrNotConfigured) {
				fmt.Println("  run 'diskwise settings set' to configure the endpoint")
			}
		} else {
			fmt.Printf("✓ connection test passed: %s\n", strings.TrimSpace(reply))
		}

		if modelsErr != nil || replyErr != nil {
			return fmt.Errorf("advisory service check failed")
		}
		return nil
	},
}

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Run the interactive terminal interface",
	Long:  `Walks through scan, level selection, item review, confirmation and cleanup in a full-screen terminal interface.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, cfg, bus, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		return ui.RunInteractive(sess, cfg, bus)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "suppress live progress output")

	scanCmd.Flags().StringVar(&outputFmt, "output", "summary", "output format (summary, table, json, yaml)")
	scanCmd.Flags().StringVar(&outputFile, "file", "", "save report to file")

	adviseCmd.Flags().StringVar(&outputFmt, "output", "summary", "output format (summary, table, json, yaml)")
	adviseCmd.Flags().BoolVar(&showTree, "tree", false, "print the rated items as a level tree")

	cleanCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be deleted without actually deleting")
	cleanCmd.Flags().BoolVar(&force, "force", false, "skip confirmation prompts")
	cleanCmd.Flags().BoolVar(&hardDelete, "allow-hard-delete", false, "delete permanently when recycling fails")
	cleanCmd.Flags().StringVar(&outputFmt, "output", "summary", "output format (summary, json, yaml)")

	statsCmd.Flags().StringVar(&outputFmt, "output", "summary", "output format (summary, json, yaml)")
	reportCmd.Flags().StringVar(&outputFmt, "output", "summary", "output format (summary, json, yaml)")

	settingsSetCmd.Flags().StringVar(&setBaseURL, "base-url", "", "advisory service base URL")
	settingsSetCmd.Flags().StringVar(&setAPIKey, "api-key", "", "advisory service API key")
	settingsSetCmd.Flags().StringVar(&setModel, "model", "", "advisory model name")
	settingsSetCmd.Flags().BoolVar(&setMaskPaths, "mask-paths", true, "mask file paths in advisory payloads")
	settingsSetCmd.Flags().BoolVar(&setCache, "cache", true, "cache advisory responses")
	settingsSetCmd.Flags().BoolVar(&setAllowL2, "allow-l2", false, "include L2 items in automatic cleanup")
	settingsSetCmd.Flags().Int64Var(&setLargeFileMB, "large-file-mb", 500, "large file threshold in MB")
	settingsCmd.AddCommand(settingsSetCmd)

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(adviseCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(interactiveCmd)
}

// setup loads the configuration, builds the logger and opens a session.
func setup() (*session.Session, *config.Config, *progress.Bus, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := newLogger(cfg)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}

	bus := progress.NewBus()
	sess, err := session.New(cfg, bus, log)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return sess, cfg, bus, log, nil
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}

	cfgPath, err := config.GetConfigPath()
	if err != nil {
		return nil, err
	}
	return config.Load(cfgPath)
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.LogLevel != "" {
		parsed, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		level = parsed
	}
	if verbose || cfg.Verbose {
		level = zapcore.DebugLevel
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}

func confirm(prompt string) bool {
	fmt.Printf("%s (y/N): ", prompt)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}

func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "…" + key[len(key)-4:]
}

func printReport(report *advisor.Report) {
	fmt.Println(report.Overview)

	section := func(title string, lines []string) {
		if len(lines) == 0 {
			return
		}
		fmt.Printf("\n%s\n", title)
		for _, line := range lines {
			fmt.Printf("  - %s\n", line)
		}
	}

	section("Quick wins:", report.Findings.QuickWins)
	section("Medium risks:", report.Findings.MediumRisks)
	section("Do not touch:", report.Findings.DoNotTouch)
	section("Cleanup strategy:", report.Recommendations.CleanupStrategy)
	section("Non-delete options:", report.Recommendations.NonDeleteOptions)
}
