// Command token mints a staff bearer token signed with JWT_SIGNING_KEY.
// Staff login lives in the portal; this is for local runs and smoke tests.
//
//	go run ./cmd/token -staff 1 -role ADMIN
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	jwttoken "complaintdesk/internal/jwt_token"
	"complaintdesk/internal/platform/config"
	id "complaintdesk/pkg/domain"
)

func main() {
	staff := flag.String("staff", "1", "staff user id")
	role := flag.String("role", string(id.RoleAdmin), "ADMIN or OFFICIAL")
	ttl := flag.Duration("ttl", 8*time.Hour, "token lifetime")
	flag.Parse()

	staffID, err := id.ParseStaffID(*staff)
	if err != nil {
		fail(err)
	}
	r, err := id.ParseRole(*role)
	if err != nil {
		fail(err)
	}

	cfg := config.FromEnv()
	token, err := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer).
		GenerateAccessToken(staffID, r, *ttl)
	if err != nil {
		fail(err)
	}
	fmt.Println(token)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "token:", err)
	os.Exit(1)
}
