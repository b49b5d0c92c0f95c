package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/arabicpdftranslator/internal/server"
	"github.com/Lllllllleong/arabicpdftranslator/internal/services"
)

var (
	handler http.Handler
	once    sync.Once
	initErr error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// "HandleTranslator" is the entry point name used at deploy time.
	functions.HTTP("HandleTranslator", handleTranslator)
}

// main serves the function locally. PORT defaults to 8080.
func main() {
	port := "8080"
	if p := os.Getenv("PORT"); p != "" {
		port = p
	}
	if os.Getenv("FUNCTION_TARGET") == "" {
		os.Setenv("FUNCTION_TARGET", "HandleTranslator")
	}
	if err := funcframework.Start(port); err != nil {
		slog.Error("Server exited.", "error", err)
		os.Exit(1)
	}
}

func handleTranslator(w http.ResponseWriter, r *http.Request) {
	// The session lives for the lifetime of the instance.
	once.Do(func() {
		var app *services.App
		app, initErr = services.NewApp(context.Background())
		if initErr == nil {
			handler = server.New(app)
		}
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}
	handler.ServeHTTP(w, r)
}
