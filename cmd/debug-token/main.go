// Command debug-token mints an access token for a uid, for exercising the
// API locally with curl or a WebSocket client.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/hridesh-bharati/jibzo-sub000/internal/config"
	"github.com/hridesh-bharati/jibzo-sub000/internal/pkg/jwt"
)

func main() {
	uid := flag.String("uid", "", "user id to mint a token for")
	role := flag.String("role", "user", "role claim")
	flag.Parse()

	if *uid == "" {
		log.Fatal("usage: debug-token -uid <uid> [-role admin]")
	}

	cfg := config.Load()
	svc := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	token, err := svc.GenerateAccessToken(*uid, *role)
	if err != nil {
		log.Fatalf("failed to mint token: %v", err)
	}
	fmt.Println(token)
}
