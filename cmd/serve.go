package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/khanhnv2901/securitytxt/internal/api"
	"github.com/khanhnv2901/securitytxt/internal/checker"
	"github.com/khanhnv2901/securitytxt/internal/infrastructure/cache"
	"github.com/khanhnv2901/securitytxt/internal/infrastructure/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the checker as a REST API service",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, c := cliConfig.Serve, cliConfig.Cache
		ctx := cmd.Context()
		if s.AuthTokenHash != "" {
			if err := api.ValidateTokenHash(s.AuthTokenHash); err != nil {
				return usageError("--auth-token-hash: %v", err)
			}
		}

		p, err := newParser(cliConfig.Defaults, baseLogger)
		if err != nil {
			return err
		}
		m := metrics.New(nil)
		checks := &api.Checks{Parser: p, Recorder: m, Logger: baseLogger}
		health := api.Health{Dependencies: map[string]api.Pinger{}}

		redisClient, err := cache.NewClient(ctx, c.RedisURL)
		if err != nil {
			return err
		}
		if redisClient != nil {
			defer func() {
				if err := redisClient.Close(); err != nil {
					baseLogger.Warn("failed to close redis client", zap.Error(err))
				}
			}()
			resultCache := cache.NewRedis(redisClient, cache.WithTTL(c.TTL), cache.WithLogger(baseLogger))
			checks.Cache = resultCache
			health.Dependencies["redis"] = resultCache
		}

		runner := &checker.Runner{
			Concurrency: cliConfig.Batch.Concurrency,
			RateLimit:   cliConfig.Batch.RateLimit,
			Timeout:     cliConfig.Defaults.deadline(),
			Logger:      baseLogger,
		}
		jobs := api.NewJobManager(checks, runner, m.JobsInProgress, baseLogger)
		jobs.SetMaxJobs(s.MaxJobs)
		defer jobs.Close()

		server := api.NewServer(api.Config{
			Checks:        checks,
			Health:        health,
			Jobs:          jobs,
			Metrics:       m.Handler(),
			AuthToken:     s.AuthToken,
			AuthTokenHash: s.AuthTokenHash,
			Logger:        baseLogger,
			CORSOrigins:   s.CORSOrigins,
			RateLimit:     s.RateLimit,
			RateBurst:     s.RateBurst,
		})

		httpServer := &http.Server{
			Addr:         s.Addr,
			Handler:      server,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 2 * cliConfig.Defaults.deadline(),
			IdleTimeout:  120 * time.Second,
		}

		// Channel to listen for errors from the server
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s API server listening on %s\n", colorInfo("→"), s.Addr)
			fmt.Fprintf(cmd.OutOrStdout(), "%s Press Ctrl+C to gracefully shutdown\n", colorInfo("→"))
			serverErrors <- httpServer.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
		case sig := <-shutdown:
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s Received signal %v, initiating graceful shutdown...\n", colorInfo("→"), sig)

			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				if closeErr := httpServer.Close(); closeErr != nil {
					return fmt.Errorf("failed to gracefully shutdown server: %w (close error: %v)", err, closeErr)
				}
				return fmt.Errorf("failed to gracefully shutdown server: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s Server shutdown complete\n", colorInfo("✓"))
		}

		return nil
	},
}

var hashTokenCmd = &cobra.Command{
	Use:   "hash-token <token>",
	Short: "Print the bcrypt hash to use with --auth-token-hash",
	Args:  exactArgs(1, "a token"),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := api.HashToken(args[0])
		if err != nil {
			return usageError("%v", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	s, c := &cliConfig.Serve, &cliConfig.Cache
	serveCmd.Flags().StringVar(&s.Addr, "addr", s.Addr, "Address for the API server")
	serveCmd.Flags().StringVar(&s.AuthToken, "auth-token", s.AuthToken, "Optional shared secret for API requests (X-Auth-Token)")
	serveCmd.Flags().StringVar(&s.AuthTokenHash, "auth-token-hash", s.AuthTokenHash, "Bcrypt hash of an accepted API token (see serve hash-token)")
	serveCmd.Flags().DurationVar(&s.ShutdownTimeout, "shutdown-timeout", s.ShutdownTimeout, "Graceful shutdown timeout")
	serveCmd.Flags().StringSliceVar(&s.CORSOrigins, "cors-origins", s.CORSOrigins, "Allowed CORS origins (empty = allow all)")
	serveCmd.Flags().IntVar(&s.RateLimit, "rate-limit", s.RateLimit, "Rate limit per IP (requests/second, 0 = disabled)")
	serveCmd.Flags().IntVar(&s.RateBurst, "rate-burst", s.RateBurst, "Rate limit burst size")
	serveCmd.Flags().IntVar(&s.MaxJobs, "max-jobs", s.MaxJobs, "Finished batch jobs kept in memory")
	serveCmd.Flags().StringVar(&c.RedisURL, "redis-url", c.RedisURL, "Redis URL for caching check results (empty = no cache)")
	serveCmd.Flags().DurationVar(&c.TTL, "cache-ttl", c.TTL, "How long a cached check result is served")
	serveCmd.AddCommand(hashTokenCmd)
	rootCmd.AddCommand(serveCmd)
}
