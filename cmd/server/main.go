package main

import (
	"context"
	"fmt"
	"os"

	"github.com/yungbote/graphloader/internal/app"
	httpapi "github.com/yungbote/graphloader/internal/http"
	"github.com/yungbote/graphloader/internal/platform/envutil"
	"github.com/yungbote/graphloader/internal/platform/shutdown"
)

func main() {
	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	application, err := app.New(ctx, app.Options{DryRun: envutil.Bool("GRAPHLOADER_DRY_RUN", false)})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close(context.Background())

	addr := ":" + application.Cfg.Port
	application.Log.Info("Server listening", "addr", addr)
	srv := httpapi.NewServer(application.Router())
	if err := srv.RunContext(ctx, addr); err != nil {
		application.Log.Error("Server stopped", "error", err)
		application.Close(context.Background())
		os.Exit(1)
	}
	application.Log.Info("Server stopped")
}
