package main

import (
	"context"
	"fmt"
	"os"

	"github.com/yungbote/breakdown-backend/internal/cli"
	"github.com/yungbote/breakdown-backend/internal/platform/shutdown"
)

func main() {
	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
