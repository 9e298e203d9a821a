// Command server runs the trustkeeper gRPC service together with its
// metrics and health listener.
package main

import (
	"context"
	"log"
	"time"

	"github.com/dmitrijs2005/trustkeeper/internal/server"
	"github.com/dmitrijs2005/trustkeeper/internal/server/config"
)

func main() {
	cfg := config.LoadConfig()

	// bounds store connection and migrations only
	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	app, err := server.NewApp(initCtx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("startup: %v", err)
	}

	app.Run(context.Background())
}
