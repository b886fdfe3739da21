// Command smoketest walks the whole guided flow against a deployed flow
// service and fails loudly if any step misbehaves.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/flintspark/civicflow/internal/e2etest"
	"github.com/flintspark/civicflow/internal/errors"
	"github.com/flintspark/civicflow/internal/flow"
	"github.com/flintspark/civicflow/internal/logging"
)

type sessionPayload struct {
	Step           int      `json:"step"`
	Terminal       string   `json:"terminal"`
	SelectedIssues []string `json:"selected_issues"`
}

func post(ctx context.Context, client *e2etest.Client, urlPath string, payload any) (sessionPayload, error) {
	var sess sessionPayload
	status, err := client.PostJSON(ctx, urlPath, payload, &sess)
	if err != nil {
		return sess, errors.Wrap(err, "post", slog.String("path", urlPath))
	}
	if status != http.StatusOK {
		return sess, errors.New("unexpected status", slog.String("path", urlPath), slog.Int("status", status))
	}
	return sess, nil
}

// walkFlow drives a fresh session through the cast branch of the flow.
func walkFlow(client *e2etest.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := client.Bootstrap(ctx); err != nil {
		return errors.Wrap(err, "bootstrap shell")
	}
	if _, err := post(ctx, client, "/api/session/restart", nil); err != nil {
		return errors.Wrap(err, "restart session")
	}
	if _, err := post(ctx, client, "/api/session/advance", nil); err != nil {
		return errors.Wrap(err, "advance to issues")
	}

	// The demo catalog carries these issues.
	for _, id := range []string{"housing", "economy", "environment"} {
		if _, err := post(ctx, client, "/api/issues/select", map[string]string{"issue_id": id}); err != nil {
			return errors.Wrap(err, "select issue", slog.String("issue_id", id))
		}
	}
	if _, err := post(ctx, client, "/api/session/advance", nil); err != nil {
		return errors.Wrap(err, "advance to profile")
	}
	if _, err := post(ctx, client, "/api/profile", map[string]any{
		"age_bracket": "25-34",
		"zip_code":    "77002",
	}); err != nil {
		return errors.Wrap(err, "set profile")
	}
	if _, err := post(ctx, client, "/api/session/advance", nil); err != nil {
		return errors.Wrap(err, "advance to ballot")
	}

	var ballot struct {
		Offices struct {
			Status string `json:"status"`
		} `json:"offices"`
	}
	if status, err := client.GetJSON(ctx, "/api/ballot", &ballot); err != nil || status != http.StatusOK {
		return errors.Join(err, errors.New("fetch ballot", slog.Int("status", status)))
	}
	if ballot.Offices.Status != "ready" {
		return errors.New("offices not ready", slog.String("status", ballot.Offices.Status))
	}

	if _, err := post(ctx, client, "/api/session/advance", nil); err != nil {
		return errors.Wrap(err, "advance to candidates")
	}
	if _, err := post(ctx, client, "/api/session/advance", nil); err != nil {
		return errors.Wrap(err, "advance to readiness")
	}
	sess, err := post(ctx, client, "/api/session/decide", map[string]string{"answer": "yes"})
	if err != nil {
		return errors.Wrap(err, "decide readiness")
	}
	if sess.Step != flow.StepFinal || sess.Terminal != "cast" {
		return errors.New("unexpected terminal state",
			slog.Int("step", sess.Step), slog.String("terminal", sess.Terminal))
	}
	return nil
}

func main() {
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only the base URL to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <url>")
		os.Exit(1)
	}

	url := os.Args[1]
	ctx = logging.WithAttrs(ctx, slog.String("url", url))

	client, err := e2etest.NewClient(url)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", errors.SlogError(err))
		os.Exit(1)
	}
	if err = walkFlow(client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error walking flow", errors.SlogError(err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌")
	os.Exit(0)
}
