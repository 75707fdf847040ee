// Command labctl holds small operator tasks: registering lab members,
// minting development access tokens and hashing the cron secret.
//
//	labctl user-add -email ana@lab.test -name Ana
//	labctl token -email ana@lab.test [-role ADMIN] [-ttl 1h]
//	labctl hash-secret -secret s3cret
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/medialab/equipment-booking/internal/config"
	"github.com/medialab/equipment-booking/internal/database"
	"github.com/medialab/equipment-booking/internal/logger"
	"github.com/medialab/equipment-booking/internal/model"
	"github.com/medialab/equipment-booking/internal/repository"
	"github.com/medialab/equipment-booking/internal/utils"
)

func main() {
	_ = godotenv.Load()
	log := logger.New(os.Getenv("APP_ENV")).Named("labctl")
	defer func() { _ = log.Sync() }()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	ctx := context.Background()
	var err error
	switch os.Args[1] {
	case "user-add":
		err = userAdd(ctx, os.Args[2:])
	case "token":
		err = token(ctx, os.Args[2:])
	case "hash-secret":
		err = hashSecret(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(os.Args[1]+" failed", zap.Error(err))
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: labctl <user-add|token|hash-secret> [flags]")
}

func openUsers(ctx context.Context) (*repository.UserRepo, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewUserRepo(db), func() { _ = db.Close() }, nil
}

func userAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("user-add", flag.ExitOnError)
	email := fs.String("email", "", "member email (required)")
	name := fs.String("name", "", "display name used in reminders")
	_ = fs.Parse(args)
	if strings.TrimSpace(*email) == "" {
		return errors.New("-email is required")
	}

	users, closeDB, err := openUsers(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	id, err := users.Create(ctx, *email, *name)
	if errors.Is(err, repository.ErrConflict) {
		return fmt.Errorf("user %s already exists", *email)
	}
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

func token(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	userID := fs.Uint64("user-id", 0, "subject user id")
	email := fs.String("email", "", "look the user id up by email instead")
	role := fs.String("role", model.RoleUser, "USER or ADMIN")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")
	_ = fs.Parse(args)

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	if *email != "" {
		users, closeDB, err := openUsers(ctx)
		if err != nil {
			return err
		}
		defer closeDB()
		u, err := users.GetByEmail(ctx, *email)
		if err != nil {
			return fmt.Errorf("lookup %s: %w", *email, err)
		}
		*userID = u.ID
	}
	if *userID == 0 {
		return errors.New("one of -user-id or -email is required")
	}

	tok, err := utils.NewAccessToken(secret, *userID, strings.ToUpper(*role), *ttl)
	if err != nil {
		return err
	}
	fmt.Println(tok.Token)
	return nil
}

func hashSecret(args []string) error {
	fs := flag.NewFlagSet("hash-secret", flag.ExitOnError)
	secret := fs.String("secret", "", "plain cron secret (required)")
	cost := fs.Int("cost", 0, "bcrypt cost, 0 for the default")
	_ = fs.Parse(args)
	if *secret == "" {
		return errors.New("-secret is required")
	}
	hash, err := utils.HashSecret(*secret, *cost)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}
