package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/city-reporter-api/api"
)

// Quick utility to mint a bearer token for an admin
// Usage: go run ./scripts/admintoken -admin <adminId> [-ttl 720h]
func main() {
	_ = godotenv.Load()

	adminID := flag.String("admin", "", "hex id of the admin the token is issued to")
	ttl := flag.Duration("ttl", 30*24*time.Hour, "how long the token stays valid")
	flag.Parse()

	secret := os.Getenv("ADMIN_JWT_SECRET")
	if secret == "" {
		fmt.Println("ADMIN_JWT_SECRET is not set")
		os.Exit(1)
	}
	if _, err := primitive.ObjectIDFromHex(*adminID); err != nil {
		fmt.Println("Usage: go run ./scripts/admintoken -admin <adminId> [-ttl 720h]")
		fmt.Println("Example: go run ./scripts/admintoken -admin 64b7f0c2a1b2c3d4e5f60718")
		os.Exit(1)
	}

	token, err := api.MintAdminToken(secret, *adminID, *ttl)
	if err != nil {
		fmt.Printf("Error minting token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Admin: %s\n", *adminID)
	fmt.Printf("Expires: %s\n", time.Now().Add(*ttl).UTC().Format(time.RFC3339))
	fmt.Printf("\nSend it as:\n")
	fmt.Printf("Authorization: Bearer %s\n", token)
}
