// Command devtoken prints a signed access token for local testing.  In
// production tokens come from the identity service; this tool signs the
// same claims with JWT_SECRET so the API can be exercised with curl.
//
//	devtoken -user 7 -role student -ttl 2h
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/resource-reservation/internal/model"
	"github.com/iliyamo/resource-reservation/internal/utils"
)

func main() {
	_ = godotenv.Load()

	userID := flag.Uint64("user", 1, "numeric user id placed in the sub claim")
	role := flag.String("role", string(model.RoleStudent), "role claim: student or admin")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	secret := flag.String("secret", os.Getenv("JWT_SECRET"), "HMAC secret (defaults to $JWT_SECRET)")
	flag.Parse()

	if *secret == "" {
		log.Fatal("no secret: set JWT_SECRET or pass -secret")
	}
	switch model.Role(*role) {
	case model.RoleStudent, model.RoleAdmin:
	default:
		log.Fatalf("unknown role %q", *role)
	}
	tok, err := utils.NewAccessToken(*secret, *userID, *role, *ttl)
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}
	fmt.Println(tok.Token)
	fmt.Fprintf(os.Stderr, "expires %s\n", tok.Exp.Format(time.RFC3339))
}
