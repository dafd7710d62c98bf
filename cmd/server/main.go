package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/jredh-dev/lostfound/config"
	"github.com/jredh-dev/lostfound/internal/admin"
	"github.com/jredh-dev/lostfound/internal/claims"
	"github.com/jredh-dev/lostfound/internal/database"
	"github.com/jredh-dev/lostfound/internal/items"
	"github.com/jredh-dev/lostfound/internal/metrics"
	"github.com/jredh-dev/lostfound/internal/notify"
	"github.com/jredh-dev/lostfound/internal/token"
	"github.com/jredh-dev/lostfound/internal/users"
	"github.com/jredh-dev/lostfound/internal/web/handlers"
	"github.com/jredh-dev/lostfound/pkg/logger"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("lostfound-server %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", buildDate)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
	log.Info("server stopped")
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()
	m := metrics.New()
	offline := items.NewOffline(nil)

	var (
		store    database.DocumentStore
		backend  items.Backend = offline
		verifier token.IDTokenVerifier
	)
	if cfg.Firebase.Enabled {
		app, err := newFirebaseApp(ctx, cfg.Firebase)
		if err != nil {
			return err
		}
		fs, err := database.OpenFirestore(ctx, cfg.Firebase, app)
		if err != nil {
			return err
		}
		defer fs.Close()

		authClient, err := app.Auth(ctx)
		if err != nil {
			return fmt.Errorf("open firebase auth: %w", err)
		}
		store = fs
		backend = items.NewEngine(fs, offline, log, m)
		verifier = authClient
		log.Info("firestore connected",
			zap.String("project_id", cfg.Firebase.ProjectID),
			zap.String("database", cfg.Firebase.FirestoreDatabase),
			zap.Bool("emulator", cfg.Firebase.UseEmulator))
	} else {
		log.Warn("firebase disabled, serving the sample catalog")
	}

	signingKey := cfg.JWT.SigningKey
	if signingKey == "" && verifier == nil {
		key, err := token.GenerateSigningKey()
		if err != nil {
			return err
		}
		signingKey = key
		log.Warn("JWT_SIGNING_KEY is empty, using a random key for this process")
	}
	tokens := token.New(signingKey, cfg.JWT.Issuer, verifier)

	itemService := items.NewService(backend, offline, cfg.Storage.Bucket, log)
	var events notify.Publisher = notify.Nop{}
	if len(cfg.Notify.Brokers) > 0 {
		kp := notify.NewKafkaPublisher(cfg.Notify.Brokers, cfg.Notify.Topic)
		defer kp.Close()
		events = kp
		log.Info("publishing claim events",
			zap.Strings("brokers", cfg.Notify.Brokers),
			zap.String("topic", cfg.Notify.Topic))
	}
	claimService := claims.NewService(store, events, log, m)
	h := handlers.New(
		itemService,
		claimService,
		users.NewService(itemService, claimService),
		admin.NewService(itemService, claimService),
		tokens,
		log,
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware(log))
	r.Use(m.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	r.Get("/health", h.Health)
	r.Handle("/metrics", m.Handler())
	h.Routes(r)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("server shutdown error", zap.Error(err))
		}
	}()

	log.Info("server starting",
		zap.String("addr", addr),
		zap.String("env", cfg.Server.Env),
		zap.String("version", version))
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// newFirebaseApp initialises the Firebase app used for Firestore and ID
// token verification.
func newFirebaseApp(ctx context.Context, cfg config.FirebaseConfig) (*firebase.App, error) {
	if cfg.UseEmulator {
		// The auth client only reads the emulator address from the environment.
		if err := os.Setenv("FIREBASE_AUTH_EMULATOR_HOST", cfg.EmulatorAuthHost); err != nil {
			return nil, fmt.Errorf("set auth emulator host: %w", err)
		}
	}

	var opts []option.ClientOption
	if cfg.CredentialsPath != "" && !cfg.UseEmulator {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	return app, nil
}
