// Command useradd creates a user in the configured record store.
//
//	useradd -email bob@hbtn.io -password secret [-first Bob] [-last Dylan] [-config config.yaml]
//
// The password may also be supplied through WARDEN_USER_PASSWORD.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/rhuss/warden/pkg/config"
	"github.com/rhuss/warden/pkg/debug"
	"github.com/rhuss/warden/pkg/storage/backend"
	"github.com/rhuss/warden/pkg/user"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("useradd failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("useradd", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to config file")
	email := fs.String("email", "", "login email (required)")
	password := fs.String("password", os.Getenv("WARDEN_USER_PASSWORD"), "password (required)")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return errors.New("-email and -password are required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	debug.Init(debug.Options{Categories: cfg.Logging.Debug, Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx := context.Background()
	store, err := backend.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Records(ctx, user.Kind)
	if err != nil {
		return err
	}

	u, err := user.NewRepository(records).Create(ctx, user.NewUser{
		Email:     *email,
		Password:  *password,
		FirstName: *first,
		LastName:  *last,
	})
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}

	return json.NewEncoder(os.Stdout).Encode(u.ToJSON())
}
