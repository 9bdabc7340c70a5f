// Package main provides a standalone health check command for CooksCabinet.
// It suits container health checks and monitoring scripts.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/cookscabinet/cabinet/internal/infrastructure/config"
	"github.com/cookscabinet/cabinet/internal/infrastructure/container"
	"github.com/cookscabinet/cabinet/pkg/healthcheck"
	"go.uber.org/fx"
)

const (
	exitCodeSuccess = 0
	exitCodeFailure = 1
	exitCodeError   = 2
)

// Options holds command-line configuration
type Options struct {
	URL            string
	Timeout        time.Duration
	Verbose        bool
	OutputFormat   string
	ExpectedStatus string
	RetryCount     int
	RetryDelay     time.Duration
	ConfigPath     string
	LocalCheck     bool
}

func main() {
	opts := parseFlags()

	if opts.LocalCheck {
		os.Exit(runLocalHealthCheck(opts))
	}
	os.Exit(runRemoteHealthCheck(opts))
}

func parseFlags() Options {
	opts := Options{}

	flag.StringVar(&opts.URL, "url", "", "Health endpoint URL (default http://localhost:9090/health)")
	flag.DurationVar(&opts.Timeout, "timeout", 10*time.Second, "Request timeout")
	flag.BoolVar(&opts.Verbose, "verbose", false, "Verbose output")
	flag.StringVar(&opts.OutputFormat, "format", "text", "Output format: text, json, compact")
	flag.StringVar(&opts.ExpectedStatus, "expect", "healthy", "Expected status: healthy, degraded")
	flag.IntVar(&opts.RetryCount, "retry", 0, "Number of retries on failure")
	flag.DurationVar(&opts.RetryDelay, "retry-delay", time.Second, "Delay between retries")
	flag.StringVar(&opts.ConfigPath, "config", "", "Configuration file path")
	flag.BoolVar(&opts.LocalCheck, "local", false, "Check dependencies in process instead of calling a running server")

	flag.Parse()

	if opts.URL == "" {
		opts.URL = os.Getenv("HEALTH_CHECK_URL")
	}
	if opts.URL == "" {
		opts.URL = "http://localhost:9090/health"
	}

	return opts
}

func runRemoteHealthCheck(opts Options) int {
	client := &http.Client{Timeout: opts.Timeout}

	var lastError error
	for attempt := 0; attempt <= opts.RetryCount; attempt++ {
		if attempt > 0 {
			if opts.Verbose {
				fmt.Printf("Retrying in %v... (attempt %d/%d)\n", opts.RetryDelay, attempt, opts.RetryCount)
			}
			time.Sleep(opts.RetryDelay)
		}

		resp, err := client.Get(opts.URL)
		if err != nil {
			lastError = err
			if opts.Verbose {
				fmt.Printf("Request failed: %v\n", err)
			}
			continue
		}

		var report healthcheck.Response
		err = json.NewDecoder(resp.Body).Decode(&report)
		resp.Body.Close()
		if err != nil {
			fmt.Printf("Failed to decode response: %v\n", err)
			return exitCodeError
		}
		return outputResult(report, opts)
	}

	fmt.Printf("Health check failed after %d attempts: %v\n", opts.RetryCount+1, lastError)
	return exitCodeError
}

// runLocalHealthCheck builds the dependency graph without servers and checks it
func runLocalHealthCheck(opts Options) int {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		return exitCodeError
	}
	cfg.App.LogLevel = "error"

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	var health *healthcheck.HealthCheck
	app := container.New(cfg, container.CoreModule, fx.Populate(&health))
	if err := app.Start(ctx); err != nil {
		fmt.Printf("Failed to initialise dependencies: %v\n", err)
		return exitCodeFailure
	}
	defer app.Stop(context.Background())

	return outputResult(health.Check(ctx), opts)
}

func outputResult(report healthcheck.Response, opts Options) int {
	switch opts.OutputFormat {
	case "json":
		data, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(data))
	case "compact":
		data, _ := json.Marshal(report)
		fmt.Println(string(data))
	default:
		outputText(report, opts.Verbose)
	}

	return exitCode(report.Status, healthcheck.Status(opts.ExpectedStatus))
}

func exitCode(status, expected healthcheck.Status) int {
	switch {
	case status == expected:
		return exitCodeSuccess
	case status == healthcheck.StatusUnhealthy:
		return exitCodeFailure
	case status == healthcheck.StatusDegraded && expected == healthcheck.StatusHealthy:
		return exitCodeFailure
	default:
		return exitCodeSuccess
	}
}

func outputText(r healthcheck.Response, verbose bool) {
	fmt.Printf("Status: %s\n", r.Status)
	fmt.Printf("Version: %s\n", r.Version)
	fmt.Printf("Timestamp: %s\n", r.Timestamp.Format(time.RFC3339))

	if verbose && len(r.Checks) > 0 {
		fmt.Println("\nChecks:")
		for _, check := range r.Checks {
			fmt.Printf("  %s: %s", check.Name, check.Status)
			if check.Message != "" {
				fmt.Printf(" (%s)", check.Message)
			}
			fmt.Println()
		}
	}
}
