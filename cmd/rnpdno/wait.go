package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/loykin/rnpdno/internal/common"
	"github.com/loykin/rnpdno/internal/constants"
	"github.com/loykin/rnpdno/internal/env"
	"github.com/spf13/cobra"
)

var waitCmd = &cobra.Command{
	Use:   "wait [url]",
	Short: "Poll the dashboard until it answers with the expected status",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDoc()
		if err != nil {
			return err
		}
		wc := doc.Wait
		if len(args) == 1 {
			wc.URL = args[0]
		}
		if strings.TrimSpace(wc.URL) == "" {
			return fmt.Errorf("wait: no url given (argument or wait.url)")
		}
		e := env.New()
		if _, err := e.LoadProcess(constants.EnvPrefix); err != nil {
			return err
		}
		if err := doWait(cmd.Context(), e, wc, doc.Client); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "dashboard is up")
		return nil
	},
}

// doWait polls an HTTP endpoint until it returns the expected status or timeout elapses.
//
// Behavior:
// - method defaults to GET; supports GET and HEAD (others fallback to GET)
// - expected status defaults to 200
// - timeout defaults to 60s; interval defaults to 2s
// - url is rendered with Go template using SCRAPPER_* variables
// - TLS and user agent settings come from clientCfg; pacing is disabled
func doWait(ctx context.Context, e *env.Env, wc WaitConfig, clientCfg ClientConfig) error {
	urlRaw := strings.TrimSpace(wc.URL)
	if urlRaw == "" {
		return nil
	}
	method := strings.ToUpper(strings.TrimSpace(wc.Method))
	if method != http.MethodHead {
		method = http.MethodGet
	}
	expected := wc.Status
	if expected == 0 {
		expected = constants.DefaultWaitStatus
	}
	timeout := parseDuration(wc.Timeout, constants.DefaultWaitTimeout)
	interval := parseDuration(wc.Interval, constants.DefaultWaitInterval)

	urlToHit := e.RenderGoTemplate(urlRaw)
	h := clientCfg.HTTP()
	h.RequestsPerSecond = -1
	client, err := h.New()
	if err != nil {
		return fmt.Errorf("wait: %w", err)
	}

	logger := common.GetLogger().WithComponent("wait").WithRequest(method, urlToHit)
	logger.Info("waiting for dashboard", "expected", expected, "timeout", timeout, "interval", interval)
	deadline := time.Now().Add(timeout)
	var lastStatus int
	for {
		resp, err := client.R().SetContext(ctx).Execute(method, urlToHit)
		status := 0
		if resp != nil {
			status = resp.StatusCode()
		}
		if err == nil && status == expected {
			logger.Info("wait condition met", "status", status)
			return nil
		}
		lastStatus = status
		logger.Debug("dashboard not ready", "status", status, "error", err)
		if time.Now().After(deadline) {
			return fmt.Errorf("wait: timeout waiting for %s to return %d (last=%d)", urlToHit, expected, lastStatus)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait: %w", ctx.Err())
		case <-time.After(interval):
		}
	}
}
