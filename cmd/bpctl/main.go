// Package main is bpctl, a capture-side client for the blood-pressure
// backend: it uploads monitor photos for OCR, records manual readings and
// lists stored health events, routed the same way the mobile app routes them.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/vitalink/vitalink/internal/backend"
	"github.com/vitalink/vitalink/internal/model"
)

func main() {
	_ = godotenv.Load()

	var (
		baseURL   = flag.String("base-url", envOr("BASE_URL", "http://localhost:8080"), "General backend base URL")
		bpBaseURL = flag.String("bp-base-url", os.Getenv("BP_BASE_URL"), "BP backend override base URL (empty shares base-url)")
		imagePath = flag.String("image", "", "Upload a monitor photo for OCR extraction")
		userID    = flag.String("user-id", "", "User to record or list events for")
		list      = flag.Bool("list", false, "List recorded health events")
		systolic  = flag.Int("sys", 0, "Manual reading: systolic")
		diastolic = flag.Int("dia", 0, "Manual reading: diastolic")
		pulse     = flag.Int("pulse", 0, "Manual reading: pulse")
	)
	flag.Parse()

	router := backend.NewRouter(*baseURL, *bpBaseURL)
	client := backend.NewClient(router, nil)

	ctx, cancel := context.WithTimeout(context.Background(), backend.ClientTimeout)
	defer cancel()

	switch {
	case *imagePath != "":
		if err := processImage(ctx, client, *imagePath); err != nil {
			fatal(err)
		}
	case *list:
		if err := listEvents(ctx, client, *userID); err != nil {
			fatal(err)
		}
	case *systolic > 0 && *diastolic > 0:
		if err := recordManual(ctx, client, *userID, *systolic, *diastolic, *pulse); err != nil {
			fatal(err)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func processImage(ctx context.Context, client *backend.Client, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	extraction, err := client.ProcessImage(ctx, filepath.Base(path), file)
	if err != nil {
		return err
	}
	if extraction.Error != "" {
		return fmt.Errorf("extraction failed: %s", extraction.Error)
	}

	fmt.Printf("extracted reading: %d/%d pulse %d\n",
		extraction.Systolic, extraction.Diastolic, extraction.Pulse)
	return nil
}

func recordManual(ctx context.Context, client *backend.Client, userID string, sys, dia, pulse int) error {
	input := backend.ManualEventInput{
		UserID: userID,
		Type:   model.EventTypeBloodPressure,
		Value1: &sys,
		Value2: &dia,
	}
	if pulse > 0 {
		input.Value3 = &pulse
	}

	event, err := client.AddManualEvent(ctx, input)
	if err != nil {
		return err
	}

	fmt.Printf("recorded event %s at %s\n", event.ID, event.CreatedAt.Format(time.RFC3339))
	return nil
}

func listEvents(ctx context.Context, client *backend.Client, userID string) error {
	events, err := client.HealthEvents(ctx, userID)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(events)
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "bpctl:", err)
	os.Exit(1)
}
