// Command fileboxctl manages accounts in the credential store: it is the only
// way to grant the admin role when self-service signup is restricted.
//
// Usage:
//
//	fileboxctl create-user -username NAME [-role ROLE]
//	fileboxctl set-role -username NAME -role ROLE
//	fileboxctl list-users
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"filebox-backend/internal/config"
	"filebox-backend/internal/logging"
	"filebox-backend/internal/repository"
	"filebox-backend/internal/service"
)

func main() {
	_ = config.LoadDotEnv()

	var cfg config.StoreConfig
	if err := config.LoadStore(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "fileboxctl: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fileboxctl: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, err := repository.Open(ctx, cfg.StoreDriver, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fileboxctl: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	app := &app{
		users:  service.NewUserService(store, logger),
		stdin:  os.Stdin,
		stdout: os.Stdout,
		prompt: terminalPrompt,
	}
	if err := app.run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "fileboxctl: %v\n", err)
		store.Close()
		os.Exit(1)
	}
}
