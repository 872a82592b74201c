package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/dmitrijs2005/parkclient/internal/buildinfo"
	"github.com/dmitrijs2005/parkclient/internal/client/cli"
	"github.com/dmitrijs2005/parkclient/internal/client/config"
	"github.com/dmitrijs2005/parkclient/internal/client/models"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()

	cfg, err := config.LoadConfig(models.RoleOwner)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, cleanup, err := cli.Bootstrap(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		cleanup(shutdownCtx)
	}()

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
	}

}
