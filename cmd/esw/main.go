// Command esw compiles and watches npm packages with esbuild, inferring the
// outputs from package.json.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dzonerzy/esw/internal/commands"
	"github.com/dzonerzy/esw/middleware"
	"github.com/dzonerzy/esw/snap"
)

var version = "0.0.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := snap.New("esw", "Compile and watch npm packages with esbuild").
		Version(version).
		Debug(debugEnabled()).
		Before(commands.NodeEnv)

	app.Use(
		middleware.Recovery(),
		middleware.Logger(),
		middleware.TimeoutPerCommand(map[string]time.Duration{"build": buildTimeout(app)}, 0),
	)
	commands.Register(app)

	code := app.RunAndGetExitCode(ctx)
	stop()
	os.Exit(code)
}

func debugEnabled() bool {
	switch os.Getenv("DEBUG") {
	case "esw", "*":
		return true
	}
	return os.Getenv("ESW_DEBUG") == "1"
}

func buildTimeout(app *snap.App) time.Duration {
	raw := os.Getenv("ESW_TIMEOUT")
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		app.Logger().Warning("ignoring ESW_TIMEOUT=%q: not a duration", raw)
		return 0
	}
	return d
}
