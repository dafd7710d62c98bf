// Command devtoken prints a signed bearer token for local development, when
// the server runs without Firebase and checks its own HS256 tokens.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/jredh-dev/lostfound/config"
	"github.com/jredh-dev/lostfound/internal/token"
)

func main() {
	uid := flag.String("uid", "user-123", "User id to issue the token for")
	email := flag.String("email", "", "Email claim")
	roles := flag.String("roles", "", "Comma-separated roles, e.g. admin")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if cfg.JWT.SigningKey == "" {
		fmt.Fprintln(os.Stderr, "JWT_SIGNING_KEY must be set to the key the server uses")
		os.Exit(1)
	}

	var roleList []string
	for _, r := range strings.Split(*roles, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roleList = append(roleList, r)
		}
	}

	svc := token.New(cfg.JWT.SigningKey, cfg.JWT.Issuer, nil)
	raw, err := svc.GenerateToken(*uid, *email, roleList, cfg.JWT.Expiration)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(raw)
}
