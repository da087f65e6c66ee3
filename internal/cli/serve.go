package cli

import (
	"context"
	"fmt"

	"resumeforge/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start an HTTP server exposing the AI and storage operations.

Available endpoints:
- GET    /api/ai/providers: Registered AI providers
- POST   /api/ai/generate: Generate a resume section
- POST   /api/ai/cover-letter: Write a cover letter
- POST   /api/ai/optimize: Optimize a resume for ATS
- POST   /api/ai/analyze: Analyze a job description
- POST   /api/ai/suggestions: Suggest section improvements
- GET    /api/ai/suggestions: Static improvement tips
- GET    /api/storage/providers: Registered storage providers
- POST   /api/storage/upload: Upload a file (multipart)
- GET    /api/storage/url: Resolve a file URL
- DELETE /api/storage/files: Delete a file
- GET    /api/storage/files: Download a file kept in PostgreSQL
- GET    /health: Health check endpoint
- GET    /stats: Server statistics and rate limiting info

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled or server
- Use --cert-file and --key-file for TLS certificates`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled or server (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
}

// applyServeFlags copies explicitly set flags over the loaded configuration.
func applyServeFlags(cmd *cobra.Command, target map[string]*string) {
	for flag, field := range target {
		if cmd.Flags().Changed(flag) {
			*field, _ = cmd.Flags().GetString(flag)
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	applyServeFlags(cmd, map[string]*string{
		"port":      &cfg.Server.Port,
		"host":      &cfg.Server.Host,
		"tls-mode":  &cfg.Server.TLS.Mode,
		"cert-file": &cfg.Server.TLS.CertFile,
		"key-file":  &cfg.Server.TLS.KeyFile,
	})
	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	app, err := newAppServices(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer app.Close(context.WithoutCancel(ctx))

	srv := server.NewServer(cfg.Server, Version, server.Services{
		AI:            app.AI,
		Storage:       app.Storage,
		Resume:        app.Resume,
		Observability: app.Observability,
	}, logger)
	return srv.Start(ctx)
}
