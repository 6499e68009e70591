// Command tokengen signs development access tokens with the API's JWT
// settings so the workflow can be exercised without an identity provider.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/noah-isme/tuition-match-api/internal/service"
	"github.com/noah-isme/tuition-match-api/pkg/config"
	"github.com/noah-isme/tuition-match-api/pkg/models"
)

func main() {
	var (
		userID string
		role   string
		email  string
		name   string
		ttl    time.Duration
	)
	flag.StringVar(&userID, "user", "", "User ID placed in the token (required)")
	flag.StringVar(&role, "role", string(models.RoleAdmin), "Role: admin, manager, tutor or student")
	flag.StringVar(&email, "email", "", "Email claim")
	flag.StringVar(&name, "name", "", "Full name claim")
	flag.DurationVar(&ttl, "ttl", 0, "Token lifetime; defaults to JWT_EXPIRATION")
	flag.Parse()

	if userID == "" {
		flag.Usage()
		os.Exit(2)
	}
	if !models.UserRole(role).Valid() {
		log.Fatalf("unknown role %q", role)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if ttl <= 0 {
		ttl = cfg.JWT.Expiration
	}

	auth := service.NewAuthService(service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: ttl,
		Issuer:            cfg.JWT.Issuer,
	})
	token, expiresAt, err := auth.IssueToken(models.User{ID: userID, Role: models.UserRole(role), Email: email, FullName: name})
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires at %s\n", expiresAt.Format(time.RFC3339))
}
