package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go-inventory-ledger/internal/config"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/pkg/jwt"
)

// Prints a bearer token signed with JWT_SECRET.
//
//	go run ./cmd/issue-token -sub svc-orders -priv transaction:create,inventory:reserve
func main() {
	subject := flag.String("sub", "", "token subject (user or service id)")
	email := flag.String("email", "", "email claim")
	name := flag.String("name", "", "display name claim")
	privs := flag.String("priv", "all", "comma separated privilege codes, or \"all\"")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *subject == "" {
		flag.Usage()
		os.Exit(2)
	}

	// 1. Load Env
	cfg := config.Load()

	signer, err := jwt.NewSigner(cfg.JWTSecret, *ttl)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	// 2. Resolve privileges
	granted, err := parsePrivileges(*privs)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	// 3. Sign
	token, err := signer.GenerateToken(*subject, *email, *name, granted)
	if err != nil {
		log.Fatalf("❌ Failed to sign token: %v", err)
	}

	log.Printf("✅ Token for %s (%s), valid %s", *subject, strings.Join(granted, ","), *ttl)
	fmt.Println(token)
}

func parsePrivileges(raw string) ([]string, error) {
	if raw == "all" {
		return model.PrivilegeCodes(), nil
	}
	known := make(map[string]bool)
	for _, code := range model.PrivilegeCodes() {
		known[code] = true
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !known[p] {
			return nil, fmt.Errorf("unknown privilege %q", p)
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no privileges given")
	}
	return out, nil
}
