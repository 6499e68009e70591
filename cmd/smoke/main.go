// Command smoke exercises a running API through the typed client: it lists
// the open tutor requests and, when -request is given, that request's
// assignments.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/noah-isme/tuition-match-api/pkg/client"
	"github.com/noah-isme/tuition-match-api/pkg/config"
	"github.com/noah-isme/tuition-match-api/pkg/logger"
	"github.com/noah-isme/tuition-match-api/pkg/models"
)

func main() {
	var (
		baseURL   string
		token     string
		requestID string
		subject   string
	)
	flag.StringVar(&baseURL, "base", "", "API base URL; defaults to CLIENT_BASE_URL")
	flag.StringVar(&token, "token", os.Getenv("API_TOKEN"), "Bearer token, e.g. from tokengen")
	flag.StringVar(&requestID, "request", "", "Tutor request whose assignments are listed")
	flag.StringVar(&subject, "subject", "", "Only list requests for this subject")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if baseURL != "" {
		cfg.Client.BaseURL = baseURL
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	api := client.NewFromConfig(cfg.Client, client.StaticToken(token), logr)
	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.Client.Timeout)
	defer cancel()

	page, err := api.TutorRequests.List(ctx, client.ListQuery{
		Status:  []models.TutorRequestStatus{models.TutorRequestActive},
		Subject: subject,
	})
	if err != nil {
		logr.Fatal("list tutor requests", zap.Error(err), zap.Bool("retryable", client.IsRetryable(err)))
	}
	out := map[string]interface{}{"tutor_requests": page.Items, "pagination": page.Pagination}

	if requestID != "" {
		assignments, err := api.TutorRequests.Assignments(ctx, requestID)
		if err != nil {
			logr.Fatal("list assignments", zap.String("request_id", requestID), zap.Error(err))
		}
		out["assignments"] = assignments
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logr.Fatal("write output", zap.Error(err))
	}
}
