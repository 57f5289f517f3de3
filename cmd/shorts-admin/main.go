// shorts-admin is an operator tool for account bootstrap: it creates
// users directly in the database, bypassing the invite-gated web flow.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"shorts/internal/server/auth"
	"shorts/internal/server/database"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "expected 'adduser' subcommand")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "adduser":
		addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
		dbPath := addUserCmd.String("db", "shorts.db", "path to the sqlite database")
		email := addUserCmd.String("email", "", "email address for the new account")
		password := addUserCmd.String("password", "", "password for the new account")
		addUserCmd.Parse(os.Args[2:])

		if *email == "" || *password == "" {
			addUserCmd.PrintDefaults()
			os.Exit(1)
		}
		addUser(*dbPath, *email, *password)
	default:
		fmt.Fprintln(os.Stderr, "expected 'adduser' subcommand")
		os.Exit(1)
	}
}

func addUser(dbPath, email, password string) {
	ctx := context.Background()

	db, err := database.Open(ctx, dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	hash, err := auth.HashPassword(password, bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	repo := database.NewRepository(db)
	user, err := repo.CreateUser(ctx, email, hash)
	if err != nil {
		log.Fatalf("failed to create user: %v", err)
	}

	fmt.Printf("created user %d (%s)\n", user.ID, user.Email)
}
