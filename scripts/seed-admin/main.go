// Command seed-admin inserts an administrator account. Admins cannot register
// through the API, so the first account is created out-of-band with this tool:
//
//	go run ./scripts/seed-admin -name "Head Admin" -email admin@college.edu -microsoft-id <oid> -password <secret>
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/campussports/sportsdesk-api/pkg/config"
	"github.com/campussports/sportsdesk-api/pkg/database"
)

func main() {
	name := flag.String("name", "", "display name of the admin")
	email := flag.String("email", "", "email address of the admin")
	microsoftID := flag.String("microsoft-id", "", "Microsoft account object id used at login")
	password := flag.String("password", "", "role verification password (min 8 characters)")
	flag.Parse()

	if *name == "" || *email == "" || *microsoftID == "" {
		flag.Usage()
		os.Exit(2)
	}
	if len(*password) < 8 {
		log.Fatal("password must be at least 8 characters")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var existing string
	err = db.GetContext(ctx, &existing, `SELECT id FROM admins WHERE microsoft_id = $1 OR email = $2 LIMIT 1`, *microsoftID, *email)
	if err == nil {
		fmt.Printf("admin already exists (id=%s), nothing to do\n", existing)
		return
	}
	if !errors.Is(err, sql.ErrNoRows) {
		log.Fatalf("failed to query admins: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err = db.ExecContext(ctx, `
		INSERT INTO admins (id, name, email, password_hash, microsoft_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		id, *name, *email, string(hash), *microsoftID, now)
	if err != nil {
		log.Fatalf("failed to insert admin: %v", err)
	}

	fmt.Printf("admin created (id=%s email=%s)\n", id, *email)
}
