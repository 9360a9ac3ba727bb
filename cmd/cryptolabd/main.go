package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/RowanDark/cryptolab/internal/api"
	"github.com/RowanDark/cryptolab/internal/cipher"
	"github.com/RowanDark/cryptolab/internal/config"
	"github.com/RowanDark/cryptolab/internal/engine"
	"github.com/RowanDark/cryptolab/internal/logging"
	"github.com/RowanDark/cryptolab/internal/rpc"
)

var version = "dev"

type options struct {
	configPath string
	httpAddr   string
	grpcAddr   string
	setFlags   map[string]bool
}

func main() {
	configPath := flag.String("config", "", "load configuration from this file instead of the default search path")
	httpAddr := flag.String("http-addr", "", "address for the HTTP API (empty string disables it)")
	grpcAddr := flag.String("grpc-addr", "", "address for the gRPC service (empty string disables it)")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("cryptolabd %s\n", version)
		return
	}

	opts := options{configPath: *configPath, httpAddr: *httpAddr, grpcAddr: *grpcAddr, setFlags: map[string]bool{}}
	flag.Visit(func(f *flag.Flag) { opts.setFlags[f.Name] = true })

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cryptolabd: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "cryptolabd: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves the configuration file and environment, then applies
// any listener addresses given explicitly on the command line.
func loadConfig(opts options) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if strings.TrimSpace(opts.configPath) != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return config.Config{}, err
	}
	if opts.setFlags["http-addr"] {
		cfg.HTTPAddr = strings.TrimSpace(opts.httpAddr)
	}
	if opts.setFlags["grpc-addr"] {
		cfg.GRPCAddr = strings.TrimSpace(opts.grpcAddr)
	}
	return cfg, cfg.Validate()
}

func newAuditLogger(cfg config.Config) (*logging.AuditLogger, error) {
	if path := strings.TrimSpace(cfg.AuditLog); path != "" {
		return logging.NewAuditLogger("cryptolabd", logging.WithFile(path))
	}
	return logging.NewAuditLogger("cryptolabd")
}

func run(ctx context.Context, cfg config.Config) error {
	audit, err := newAuditLogger(cfg)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer audit.Close()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	eng := engine.New(
		engine.WithAuditLogger(audit.WithComponent("engine")),
		engine.WithLogger(logger),
		engine.WithWorkers(cfg.Analysis.Workers),
	)
	recipes := cipher.NewRecipeManager(cfg.RecipesDir)
	if err := recipes.LoadRecipes(); err != nil {
		return fmt.Errorf("load recipes: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var services int
	errCh := make(chan error, 2)

	if addr := strings.TrimSpace(cfg.GRPCAddr); addr != "" {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		services++
		go func() {
			errCh <- serveGRPC(ctx, lis, eng, cfg, logger, audit.WithComponent("rpc"))
		}()
	}

	if addr := strings.TrimSpace(cfg.HTTPAddr); addr != "" {
		srv, err := api.NewServer(api.Config{
			Addr:          addr,
			AuthToken:     cfg.AuthToken,
			MaxInputBytes: cfg.Analysis.MaxInputBytes,
			Engine:        eng,
			Recipes:       recipes,
			Audit:         audit.WithComponent("api"),
			Logger:        logger,
		})
		if err != nil {
			return fmt.Errorf("configure http api: %w", err)
		}
		services++
		go func() {
			errCh <- srv.Run(ctx)
		}()
	}

	emitLifecycle(audit, "start", map[string]any{
		"version":   version,
		"http_addr": cfg.HTTPAddr,
		"grpc_addr": cfg.GRPCAddr,
		"auth":      cfg.AuthToken != "",
	})

	// The first service to stop takes the others down with it.
	var firstErr error
	for i := 0; i < services; i++ {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
		cancel()
	}

	meta := map[string]any{"version": version, "events": eventCounts(audit)}
	if firstErr != nil {
		meta["error"] = firstErr.Error()
	}
	emitLifecycle(audit, "stop", meta)
	return firstErr
}

func serveGRPC(ctx context.Context, lis net.Listener, eng *engine.Engine, cfg config.Config, logger *slog.Logger, audit *logging.AuditLogger) error {
	srv := rpc.NewGRPCServer(
		rpc.NewServer(eng, rpc.WithMaxInputBytes(cfg.Analysis.MaxInputBytes)),
		cfg.AuthToken,
		logger,
		audit,
	)

	go func() {
		<-ctx.Done()
		done := make(chan struct{})
		go func() {
			srv.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			srv.Stop()
		}
	}()

	logger.Info("grpc service listening", slog.String("addr", lis.Addr().String()))
	if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func eventCounts(audit *logging.AuditLogger) map[string]any {
	out := make(map[string]any)
	for typ, n := range audit.Counts() {
		out[string(typ)] = n
	}
	return out
}

func emitLifecycle(logger *logging.AuditLogger, phase string, meta map[string]any) {
	meta["phase"] = phase
	if err := logger.Emit(logging.AuditEvent{
		EventType: logging.EventServerLifecycle,
		Outcome:   logging.OutcomeSuccess,
		Metadata:  meta,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "audit log error: %v\n", err)
	}
}
