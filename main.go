package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"novastream/api"
	"novastream/config"
	"novastream/handlers"
	"novastream/services/debrid"
	"novastream/services/metadata"
	"novastream/services/playback"
	"novastream/services/usenet"

	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	demoMode := flag.Bool("demo", false, "serve curated public domain metadata instead of live feeds")
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	fmt.Println("🚀 novastream backend starting...")
	if *demoMode {
		fmt.Println("🧪 Demo mode enabled: returning curated public domain trending rows.")
	}

	configPath := os.Getenv("NOVASTREAM_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("cache", "settings.json")
	}

	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			log.Printf("warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			multiWriter := io.MultiWriter(os.Stdout, fileWriter)
			log.SetOutput(multiWriter)
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("logging to file: %s", settings.Log.File)
		}
	}

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	if err := cfgManager.EnsureDir(); err != nil {
		log.Fatalf("failed to prepare config directory: %v", err)
	}
	if settings.Cache.Directory != "" {
		if err := os.MkdirAll(settings.Cache.Directory, 0o755); err != nil {
			log.Fatalf("failed to create cache directory: %v", err)
		}
	}

	// Metadata lookups (TVDB/TMDB/MDBList), shared by aggregation and playback.
	mdblistCfg := metadata.MDBListConfig{
		APIKey:         settings.MDBList.APIKey,
		Enabled:        settings.MDBList.Enabled,
		EnabledRatings: settings.MDBList.EnabledRatings,
	}
	metadataService := metadata.NewService(
		settings.Metadata.TVDBAPIKey,
		settings.Metadata.TMDBAPIKey,
		settings.Metadata.Language,
		settings.Cache.Directory,
		settings.Cache.MetadataTTLHours,
		mdblistCfg,
	)
	metadataHandler := handlers.NewMetadataHandler(metadataService)

	// Debrid scrapers + cache/health checking across configured providers.
	debridSearchService := debrid.NewSearchService(cfgManager)
	debridMultiProviderService := debrid.NewMultiProviderService(cfgManager)
	debridStreamingProvider := debrid.NewStreamingProvider(cfgManager)

	aggregateHandler := handlers.NewAggregateHandler(debridSearchService, metadataService)

	settingsHandler := handlers.NewSettingsHandlerWithDemoMode(cfgManager, *demoMode)
	settingsHandler.SetMetadataService(metadataService)
	settingsHandler.SetDebridSearchService(debridSearchService)

	debridHandler := handlers.NewDebridHandler(debridMultiProviderService, debridStreamingProvider, cfgManager)

	// Resolver engine for preview-mode scrapers (spec §4.7): the HTTP-stream
	// hoster chain walks its SID -> CDN links lazily, only when a user clicks
	// a stream whose token it minted during search.
	httpStreamResolver := debrid.NewHTTPStreamResolver(
		settings.Resolver.DisableUrlValidation,
		settings.Resolver.DisableSeekValidation,
		settings.Resolver.SkipValidationHosts,
	)
	resolveHandler := handlers.NewResolveHandler(cfgManager, httpStreamResolver)

	// Usenet health checking and the external SABnzbd-compatible downloader
	// the playback service hands NZBs to; the core never speaks NNTP itself.
	usenetService := usenet.NewService(cfgManager)
	usenetDownloader := usenet.NewDownloader(cfgManager)
	usenetHandler := handlers.NewUsenetHandler(usenetService)

	playbackService := playback.NewService(cfgManager, usenetService, usenetDownloader, nil)
	playbackHandler := handlers.NewPlaybackHandler(playbackService)

	mux := http.NewServeMux()
	api.Register(
		mux,
		settingsHandler,
		metadataHandler,
		aggregateHandler,
		playbackHandler,
		usenetHandler,
		debridHandler,
		resolveHandler,
		func() string { return settings.Server.PIN },
	)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // no write timeout: video streaming holds connections open
		IdleTimeout:  120 * time.Second,
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownChan
	log.Println("🛑 shutdown signal received, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	log.Println("✅ shutdown complete")
}
