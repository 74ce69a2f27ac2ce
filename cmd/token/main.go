package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"clip-share/config"
	"clip-share/internal/services"
)

const usage = `
Clip Share - Access Token Tool

Issues a signed access token for local testing. Tokens are normally issued by the
identity provider; this tool signs with JWT_SECRET from the environment.

Usage:
  token -uid <user id> [-name <display name>]

Examples:
  go run cmd/token/main.go -uid 42 -name "Ada"
`

func main() {
	uid := flag.String("uid", "", "User id written to the sub claim")
	name := flag.String("name", "", "Display name written to the name claim")

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
	}
	flag.Parse()

	if *uid == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.LoadConfig()
	token, expiresIn, err := services.NewAuthService(cfg).IssueAccessToken(*uid, *name)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Printf("%s\n", token)
	fmt.Fprintf(os.Stderr, "expires in %ds\n", expiresIn)
}
