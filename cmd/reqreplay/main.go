package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/funnyzak/reqreplay/internal/config"
	"github.com/funnyzak/reqreplay/internal/forwarder"
	"github.com/funnyzak/reqreplay/internal/logger"
	"github.com/funnyzak/reqreplay/internal/printer"
	"github.com/funnyzak/reqreplay/internal/replay"
	"github.com/funnyzak/reqreplay/pkg/i18n"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "reqreplay",
	Short: "Replay CSV records against the reporting service at a fixed pace",
	Long: `ReqReplay reads a CSV file line by line, issues one HTTP request per record
against the reporting service and writes a CSV audit file with one row per attempt.

Requests are spaced by at least the configured wait time. Failed records are
recorded in the audit file and never stop the run.
`,
	SilenceUsage: true,
}

var resendCmd = &cobra.Command{
	Use:   "resend [input.csv]",
	Short: "Resend reports listed one id per line",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMode(config.ModeResend),
}

var reportCmd = &cobra.Command{
	Use:   "report [input.csv]",
	Short: "Fetch the delivery history of each listed report",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMode(config.ModeReport),
}

var postCmd = &cobra.Command{
	Use:   "post [input.csv]",
	Short: "Post the payload file of each listed report",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMode(config.ModePost),
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run:   showVersion,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "Configuration file path")
	flags.String("env-file", ".env", "Dotenv file loaded before configuration (ignored when missing)")
	flags.StringP("input", "i", "", "Input CSV file")
	flags.Bool("skip-first-line", false, "Treat line 1 as a header and skip it")
	flags.IntP("wait", "w", 0, "Minimum seconds between the start of consecutive requests")
	flags.StringP("url", "u", "", "Target URL template ({1}..{n} and {id} are replaced by record fields)")
	flags.StringP("method", "X", "", "HTTP method (defaults per command)")
	flags.StringSliceP("query", "q", []string{}, "Query parameter template name=value (repeatable)")
	flags.StringToStringP("header", "H", map[string]string{}, "Extra request header name=value (repeatable)")
	flags.StringP("token", "t", "", "Bearer token")
	flags.String("auth-type", "", "Value of the authentication-type header")
	flags.String("organization", "", "Organization header")
	flags.String("client", "", "client header")
	flags.String("functions-key", "", "x-functions-key header")
	flags.String("payload-dir", "", "Directory holding <id><ext> payload files")
	flags.String("payload-ext", "", "Payload file extension")
	flags.String("audit-dir", "", "Directory for the audit file")
	flags.String("audit-suffix", "", "Audit file name suffix")
	flags.StringSlice("audit-columns", []string{}, "Audit columns filled from the leading record fields")
	flags.Int("timeout", 0, "HTTP timeout in seconds")
	flags.Bool("dry-run", false, "Build requests and write audit rows without sending anything")
	flags.StringP("log-level", "l", "", "Log level (trace, debug, info, warn, error, fatal, panic)")
	flags.Bool("log-file-enable", false, "Enable file logging")
	flags.String("log-file-path", "", "Log file path")
	flags.StringP("output", "o", "", "Output mode (console, json)")
	flags.BoolP("silence", "s", false, "Suppress per-record output")
	flags.String("locale", "", "Output language (en, zh-CN)")

	bindFlags(rootCmd)

	rootCmd.AddCommand(resendCmd, reportCmd, postCmd, versionCmd)
}

func bindFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	viper.BindPFlag("input.path", flags.Lookup("input"))
	viper.BindPFlag("input.skip_first_line", flags.Lookup("skip-first-line"))
	viper.BindPFlag("throttle.wait_time_seconds", flags.Lookup("wait"))
	viper.BindPFlag("target.url", flags.Lookup("url"))
	viper.BindPFlag("target.method", flags.Lookup("method"))
	viper.BindPFlag("target.query", flags.Lookup("query"))
	viper.BindPFlag("target.headers", flags.Lookup("header"))
	viper.BindPFlag("auth.token", flags.Lookup("token"))
	viper.BindPFlag("auth.type", flags.Lookup("auth-type"))
	viper.BindPFlag("auth.organization", flags.Lookup("organization"))
	viper.BindPFlag("auth.client", flags.Lookup("client"))
	viper.BindPFlag("auth.functions_key", flags.Lookup("functions-key"))
	viper.BindPFlag("payload.directory", flags.Lookup("payload-dir"))
	viper.BindPFlag("payload.extension", flags.Lookup("payload-ext"))
	viper.BindPFlag("audit.directory", flags.Lookup("audit-dir"))
	viper.BindPFlag("audit.suffix", flags.Lookup("audit-suffix"))
	viper.BindPFlag("audit.columns", flags.Lookup("audit-columns"))
	viper.BindPFlag("http.timeout", flags.Lookup("timeout"))
	viper.BindPFlag("dry_run", flags.Lookup("dry-run"))
	viper.BindPFlag("log.level", flags.Lookup("log-level"))
	viper.BindPFlag("log.file_logging.enable", flags.Lookup("log-file-enable"))
	viper.BindPFlag("log.file_logging.path", flags.Lookup("log-file-path"))
	viper.BindPFlag("output.mode", flags.Lookup("output"))
	viper.BindPFlag("output.silence", flags.Lookup("silence"))
	viper.BindPFlag("output.locale", flags.Lookup("locale"))
}

func runMode(mode string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		if err := loadEnvFile(envFile); err != nil {
			return err
		}

		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.LoadConfig(configPath, viper.GetViper())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg.Mode = mode
		if len(args) > 0 {
			cfg.Input.Path = args[0]
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		log := logger.NewLogger(&cfg.Log, cfg.Output.Mode)

		translator, err := i18n.NewTranslator("en")
		if err != nil {
			log.Warn("Translations unavailable, using built-in labels", "error", err)
			translator = nil
		}
		locale, ok := printer.ResolveLocale(translator, cfg.Output.Locale)
		if !ok && translator != nil {
			log.Warn("Unsupported locale, using default",
				"locale", cfg.Output.Locale,
				"default", locale,
				"supported", translator.Supported(),
			)
		}
		out := printer.New(cfg.Output.Mode, log, &cfg.Output, translator, locale)

		var sender replay.Sender
		if !cfg.DryRun {
			fwd := forwarder.NewForwarder(log, forwarder.Options{
				Timeout:               seconds(cfg.HTTP.Timeout),
				MaxIdleConns:          cfg.HTTP.MaxIdleConns,
				IdleConnTimeout:       seconds(cfg.HTTP.IdleConnTimeout),
				ResponseHeaderTimeout: seconds(cfg.HTTP.ResponseHeaderTimeout),
				TLSHandshakeTimeout:   seconds(cfg.HTTP.TLSHandshakeTimeout),
				TLSInsecureSkipVerify: cfg.HTTP.TLSInsecureSkipVerify,
				MaxResponseBytes:      cfg.HTTP.MaxResponseBytes,
				AcceptStatus:          cfg.Target.AcceptStatus,
			})
			defer fwd.Close()
			sender = fwd
		}

		driver, err := replay.NewDriver(cfg, sender, out, log)
		if err != nil {
			return fmt.Errorf("failed to prepare %s: %w", mode, err)
		}

		if cfg.Output.Mode != "json" && !cfg.Output.Silence {
			printStartupBanner(os.Stdout, cfg, driver)
		}
		log.Info("ReqReplay starting",
			"version", version,
			"mode", mode,
			"run_id", driver.RunID(),
			"input", cfg.Input.Path,
			"target", cfg.Target.URL,
			"wait_seconds", cfg.Throttle.WaitTimeSeconds,
			"dry_run", cfg.DryRun,
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if _, err := driver.Run(ctx); err != nil {
			return fmt.Errorf("%s run failed: %w", mode, err)
		}
		return nil
	}
}

// loadEnvFile exports the dotenv file into the process environment so viper
// picks the REQREPLAY_ variables up. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func showVersion(cmd *cobra.Command, args []string) {
	fmt.Printf("ReqReplay version %s\n", version)
	fmt.Printf("Commit: %s\n", commit)
	fmt.Printf("Built: %s\n", buildDate)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
