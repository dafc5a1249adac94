package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/oldmonad/cvmInventory/internal/app"
	"github.com/oldmonad/cvmInventory/pkg/config/env"
	"github.com/oldmonad/cvmInventory/pkg/errors"
	"github.com/oldmonad/cvmInventory/pkg/ports/cli"
)

func main() {
	// A .env file is optional; credentials usually come from the
	// environment directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Configuration error: %v", errors.NewErrEnvLoad(err))
	}

	configurations, err := env.SetupConfigurations()
	if err != nil {
		log.Fatalf("Configuration error: %v", errors.NewErrConfigSetup(err))
	}

	appInstance := app.NewApp(configurations)

	command := cli.NewCommand(appInstance)
	if err := command.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
