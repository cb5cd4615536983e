package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/khanhnv2901/securitytxt/internal/checker"
	"github.com/khanhnv2901/securitytxt/internal/codec"
	"github.com/khanhnv2901/securitytxt/internal/fetcher"
	"github.com/khanhnv2901/securitytxt/internal/parser"
	apperrors "github.com/khanhnv2901/securitytxt/internal/shared/errors"
	"github.com/khanhnv2901/securitytxt/internal/shared/security"
	"github.com/khanhnv2901/securitytxt/internal/signature"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check security.txt files of hosts or on disk",
}

var checkHostCmd = &cobra.Command{
	Use:   "host <url-or-hostname>",
	Short: "Fetch and validate the security.txt of a host",
	Long: `Fetch /.well-known/security.txt and /security.txt from the host over HTTPS,
reconcile them and validate the result against RFC 9116.

Exit codes: 0 valid, 1 invalid, expired, expiring soon or not fetched,
2 usage error.`,
	Args: exactArgs(1, "a URL or hostname"),
	RunE: func(cmd *cobra.Command, args []string) error {
		d := cliConfig.Defaults
		format, err := codec.ParseFormat(d.Format)
		if err != nil {
			return &ExitError{Code: ExitUsage, Err: err}
		}
		p, err := newParser(d, baseLogger)
		if err != nil {
			return &ExitError{Code: ExitFileError, Err: err}
		}

		out := cmd.OutOrStdout()
		console := consolePrinter{w: out}
		hc := &checker.HostChecker{Parser: p, Options: parserOptions(d), Logger: baseLogger}
		if format == codec.FormatText {
			hc.Events = console.events()
			hc.Options.Observer = console.observer()
		}

		result, err := hc.CheckHost(cmd.Context(), args[0])
		if err != nil {
			if errors.Is(err, apperrors.ErrInvalidHost) {
				return &ExitError{Code: ExitUsage, Err: err}
			}
			if format != codec.FormatText {
				result.Status = checker.StatusError
				result.Error = err.Error()
				if encErr := codec.Encode(out, format, result); encErr != nil {
					logger.Warnw("failed to encode result", "error", encErr)
				}
			}
			return &ExitError{Code: ExitInvalid, Err: err}
		}
		return printResult(console, format, result)
	},
}

var checkFileCmd = &cobra.Command{
	Use:   "file <path>",
	Short: "Validate a local security.txt file",
	Long: `Parse a local security.txt file and print every error and warning with its
line number and a suggested fix.

Exit codes: 0 valid, 1 errors, expired or expiring soon (warnings too with
--strict), 2 usage error, 3 the file could not be read.`,
	Args: exactArgs(1, "a file"),
	RunE: func(cmd *cobra.Command, args []string) error {
		d := cliConfig.Defaults
		format, err := codec.ParseFormat(d.Format)
		if err != nil {
			return &ExitError{Code: ExitUsage, Err: err}
		}
		contents, err := os.ReadFile(args[0])
		if err != nil {
			return &ExitError{Code: ExitFileError, Err: fmt.Errorf("read %s: %w", args[0], err)}
		}
		p, err := newParser(d, baseLogger)
		if err != nil {
			return &ExitError{Code: ExitFileError, Err: err}
		}

		console := consolePrinter{w: cmd.OutOrStdout()}
		if format == codec.FormatText {
			console.info("Parsing %s", colorBold(args[0]))
		}
		result := checker.NewResult(args[0], "", p.ParseString(string(contents), parserOptions(d)))
		if format == codec.FormatText {
			console.events().Fire(result)
		}
		return printResult(console, format, result)
	},
}

var checkHostsCmd = &cobra.Command{
	Use:   "hosts [host...]",
	Short: "Check many hosts concurrently",
	Long: `Check the security.txt of every host given as an argument or listed in
--file (one per line, # starts a comment). Hosts are checked concurrently
under a global rate limit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, b := cliConfig.Defaults, cliConfig.Batch
		format, err := codec.ParseFormat(d.Format)
		if err != nil {
			return &ExitError{Code: ExitUsage, Err: err}
		}
		targets := append([]string(nil), args...)
		if file, _ := cmd.Flags().GetString("file"); file != "" {
			listed, err := readHostsFile(file)
			if err != nil {
				return &ExitError{Code: ExitFileError, Err: err}
			}
			targets = append(targets, listed...)
		}
		if len(targets) == 0 {
			return usageError("no hosts given: pass hosts as arguments or use --file")
		}
		p, err := newParser(d, baseLogger)
		if err != nil {
			return &ExitError{Code: ExitFileError, Err: err}
		}

		hc := &checker.HostChecker{Parser: p, Options: parserOptions(d), Logger: baseLogger}
		runner := &checker.Runner{
			Concurrency: b.Concurrency,
			RateLimit:   b.RateLimit,
			Timeout:     d.deadline(),
			Logger:      baseLogger,
		}

		var progress *progressPrinter
		if format == codec.FormatText && b.Progress {
			progress = newProgressPrinter(cmd.ErrOrStderr(), len(targets), "hosts")
			progress.Start()
		}
		results := runner.RunChecks(cmd.Context(), targets, hc, func(target string, result checker.CheckResult, duration float64) error {
			if progress != nil {
				progress.Increment(result.Valid, duration)
			}
			logger.Debugw("host checked", "target", target, "status", result.Status, "duration", duration)
			return nil
		})
		if progress != nil {
			progress.Stop()
		}

		if b.OutputDir != "" {
			path, err := writeResults(b.OutputDir, results)
			if err != nil {
				return &ExitError{Code: ExitFileError, Err: err}
			}
			logger.Infow("results written", "path", path)
		}

		out := cmd.OutOrStdout()
		if format == codec.FormatText {
			consolePrinter{w: out}.summary(results)
		} else if err := codec.Encode(out, format, results); err != nil {
			return err
		}
		for _, r := range results {
			if !r.Valid {
				return &ExitError{Code: ExitInvalid}
			}
		}
		return nil
	},
}

// printResult renders a finished check and turns an invalid result into
// exit code 1.
func printResult(console consolePrinter, format codec.Format, result checker.CheckResult) error {
	if format == codec.FormatText {
		console.diagnostics(result)
		console.languages(result)
		console.verdict(result)
	} else if err := codec.Encode(console.w, format, result); err != nil {
		return err
	}
	if !result.Valid {
		return &ExitError{Code: ExitInvalid}
	}
	return nil
}

// newParser wires the HTTPS fetcher and the OpenPGP verifier.
func newParser(d DefaultValues, log *zap.Logger) (*parser.Parser, error) {
	verifier := signature.NewOpenPGPVerifier(nil, log)
	if d.Keyring != "" {
		keyring, err := signature.LoadKeyring(d.Keyring)
		if err != nil {
			return nil, err
		}
		verifier = signature.NewOpenPGPVerifier(keyring, log)
	}
	f := fetcher.New(
		fetcher.NewTransportClient(d.timeout()),
		&fetcher.NetResolver{Timeout: d.timeout(), NameServer: d.Nameservers},
		fetcher.WithDeadline(d.deadline()),
		fetcher.WithLogger(log),
	)
	return parser.New(
		parser.WithFetcher(f),
		parser.WithSignature(verifier),
		parser.WithLogger(log),
	), nil
}

func parserOptions(d DefaultValues) parser.Options {
	return parser.Options{
		Strict:                  d.Strict,
		ExpiresWarningThreshold: d.expiresThreshold(),
		AllowIPv6:               !d.NoIPv6,
	}
}

func readHostsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open hosts file: %w", err)
	}
	defer f.Close()

	var hosts []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		hosts = append(hosts, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read hosts file: %w", err)
	}
	return hosts, nil
}

// writeResults stores results as JSON in dir/results.json.
func writeResults(dir string, results []checker.CheckResult) (string, error) {
	f, err := security.CreateWithin(dir, "results.json")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := codec.Encode(f, codec.FormatJSON, results); err != nil {
		return "", err
	}
	return f.Name(), nil
}

func exactArgs(n int, what string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usageError("usage: %s (expected %s)", cmd.UseLine(), what)
		}
		return nil
	}
}

func init() {
	d := &cliConfig.Defaults
	flags := checkCmd.PersistentFlags()
	flags.IntVar(&d.TimeoutSecs, "timeout", d.TimeoutSecs, "timeout per HTTP request in seconds")
	flags.IntVar(&d.DeadlineSecs, "deadline", d.DeadlineSecs, "deadline for a whole host fetch, redirects included, in seconds")
	flags.BoolVar(&d.Strict, "strict", d.Strict, "treat warnings as errors")
	flags.BoolVar(&d.NoIPv6, "no-ipv6", d.NoIPv6, "never connect over IPv6")
	flags.IntVar(&d.ExpiresWarningDays, "expires-warning-days", d.ExpiresWarningDays, "fail when the file expires within this many days (0 = off)")
	flags.StringVar(&d.Keyring, "keyring", d.Keyring, "armored OpenPGP public keyring for signature verification")
	flags.StringSliceVar(&d.Nameservers, "nameserver", d.Nameservers, "custom DNS server as host:port")
	flags.StringVarP(&d.Format, "format", "f", d.Format, "output format: text, json or yaml")

	b := &cliConfig.Batch
	checkHostsCmd.Flags().String("file", "", "file with one host per line")
	checkHostsCmd.Flags().IntVar(&b.Concurrency, "concurrency", b.Concurrency, "hosts checked at the same time")
	checkHostsCmd.Flags().IntVar(&b.RateLimit, "rate-limit", b.RateLimit, "host checks started per second (0 = unlimited)")
	checkHostsCmd.Flags().BoolVar(&b.Progress, "progress", b.Progress, "show progress on stderr")
	checkHostsCmd.Flags().StringVar(&b.OutputDir, "output-dir", b.OutputDir, "also write results.json into this directory")

	checkCmd.AddCommand(checkHostCmd)
	checkCmd.AddCommand(checkFileCmd)
	checkCmd.AddCommand(checkHostsCmd)
}
