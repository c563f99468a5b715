package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fortyseven/affiliate_ledger/src/internal/app/bootstrap"
	"github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/config"
	"github.com/fortyseven/affiliate_ledger/src/internal/interfaces/httpapi"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := issueToken(os.Args[2:]); err != nil {
			log.Fatalf("issue token: %v", err)
		}
		return
	}

	configFile := flag.String("config", "", "path to config file (default: ./config.yaml if present)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runtime, err := bootstrap.NewRuntime(ctx, *configFile)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	if err := runtime.Run(ctx); err != nil {
		log.Fatalf("run: %v", err)
	}
}

// issueToken prints an admin bearer token signed with the configured secret.
func issueToken(args []string) error {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	configFile := fs.String("config", "", "path to config file")
	subject := fs.String("subject", "", "operator the token is issued to")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *subject == "" {
		return fmt.Errorf("-subject is required")
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}
	auth, err := httpapi.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	if err != nil {
		return err
	}
	token, err := auth.Issue(*subject, httpapi.RoleAdmin, *ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
