package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/erp/orderhook/internal/domain/order"
	"github.com/erp/orderhook/internal/infrastructure/auth"
	"github.com/erp/orderhook/internal/infrastructure/config"
	"github.com/erp/orderhook/internal/infrastructure/logger"
	"go.uber.org/zap"
)

func main() {
	var (
		subject string
		role    string
		name    string
		ttl     time.Duration
	)

	flag.StringVar(&subject, "subject", "", "Actor ID recorded on lifecycle operations (required)")
	flag.StringVar(&role, "role", string(order.RoleOperator), "Role: owner, admin or operator")
	flag.StringVar(&name, "name", "", "Display name carried in the token")
	flag.DurationVar(&ttl, "ttl", 0, "Token lifetime (default: ORDERHOOK_JWT_TOKEN_TTL)")
	flag.Usage = printUsage
	flag.Parse()

	log, err := logger.New(&logger.Config{
		Level:      "info",
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	if subject == "" {
		printUsage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	actor := order.Actor{ID: subject, Role: order.Role(role)}
	if err := actor.Validate(); err != nil {
		log.Fatal("Invalid actor", zap.String("role", role), zap.Error(err))
	}

	issued, err := auth.NewJWTService(cfg.JWT).Issue(actor, name, ttl)
	if err != nil {
		log.Fatal("Failed to issue token", zap.Error(err))
	}

	log.Info("Token issued",
		zap.String("subject", subject),
		zap.String("role", role),
		zap.String("token_id", issued.ID),
		zap.Time("expires_at", issued.ExpiresAt),
	)

	// The token itself goes to stdout so it can be captured by scripts
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(issued); err != nil {
		log.Fatal("Failed to write token", zap.Error(err))
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `orderhook operator token tool

Usage:
  token -subject <actor-id> [-role owner|admin|operator] [-name <name>] [-ttl <duration>]

Flags:
  -subject string   Actor ID recorded on lifecycle operations (required)
  -role string      owner, admin or operator (default: operator)
  -name string      Display name carried in the token
  -ttl duration     Token lifetime, e.g. 1h or 30m (default: ORDERHOOK_JWT_TOKEN_TTL)

Environment Variables:
  ORDERHOOK_JWT_SECRET, ORDERHOOK_JWT_ISSUER, ORDERHOOK_JWT_AUDIENCE, ORDERHOOK_JWT_TOKEN_TTL

Examples:
  # Issue an owner token for one hour
  token -subject alice@example.com -role owner -ttl 1h`)
}
