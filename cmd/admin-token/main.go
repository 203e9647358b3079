package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/reviewbridge/reviewbridge-api/config"
	"github.com/reviewbridge/reviewbridge-api/pkg/jwt"
)

// admin-token mints a moderation bearer token signed with ADMIN_JWT_SECRET
func main() {
	subject := flag.String("subject", "", "staff identifier (required)")
	email := flag.String("email", "", "staff email")
	role := flag.String("role", jwt.RoleAdmin, "role claim")
	ttlHours := flag.Int("ttl-hours", 24, "token lifetime in hours")
	flag.Parse()

	if *subject == "" || *ttlHours <= 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if cfg.Auth.AdminJWTSecret == "" {
		fmt.Fprintln(os.Stderr, "ADMIN_JWT_SECRET is not set")
		os.Exit(1)
	}

	tm := jwt.NewTokenManager(cfg.Auth.AdminJWTSecret, cfg.Auth.AdminJWTIssuer, *ttlHours)
	token, err := tm.GenerateToken(*subject, *email, *role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
