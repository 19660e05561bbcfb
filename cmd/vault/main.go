package main

import (
	"context"
	"log"
	"os"

	"github.com/skuznetsov/finvault/internal/buildinfo"
	"github.com/skuznetsov/finvault/internal/cli"
	"github.com/skuznetsov/finvault/internal/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app := cli.NewApp(cfg)

	if err := app.Run(ctx, os.Args[1:]); err != nil {
		log.Fatalf("%v", err)
	}
}
