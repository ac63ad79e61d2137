package main

import (
	"context"
	"log"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ebelanger/pastecove/internal/server"
	"github.com/ebelanger/pastecove/internal/server/config"
)

func main() {

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("config error: %v", err)
		return
	}

	app, err := server.NewApp(ctx, cfg, prometheus.DefaultRegisterer)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
