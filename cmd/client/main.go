package main

import (
	"context"
	"log"
	"os"

	"github.com/speakfluent/speakfluent/internal/buildinfo"
	"github.com/speakfluent/speakfluent/internal/client/cli"
	"github.com/speakfluent/speakfluent/internal/client/config"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := cli.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)
}
