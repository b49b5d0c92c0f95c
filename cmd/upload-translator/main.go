package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/arabicpdftranslator/internal/models"
	"github.com/Lllllllleong/arabicpdftranslator/internal/services"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

var (
	uploadInstance *services.UploadTranslator
	once           sync.Once
	initErr        error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.CloudEvent("TranslateUpload", translateUpload)
}

// main is required by the Go Functions Framework.
func main() {}

// translateUpload handles Cloud Storage object finalize events.
func translateUpload(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		uploadInstance, initErr = services.NewUploadTranslator(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var gcsEvent models.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	// A returned error marks the invocation failed so the event is redelivered.
	return uploadInstance.Process(ctx, gcsEvent)
}
