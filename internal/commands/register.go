package commands

import (
	"os"

	"github.com/dzonerzy/esw/snap"
)

// Register adds build, the default command, and watch to app.
func Register(app *snap.App) {
	app.Command("build", "Compiles the codebase for publishing npm package").
		Spec(BuildSpec()).
		Usage(BuildUsage).
		Action(Build).
		Default()

	app.Command("watch", "Watch files and rebuild when they change").
		Spec(WatchSpec()).
		Usage(WatchUsage).
		Action(Watch)
}

// NodeEnv sets NODE_ENV for the bundled code when it is unset or empty:
// production for build, development for everything else.
func NodeEnv(ctx *snap.Context) error {
	if os.Getenv("NODE_ENV") != "" {
		return nil
	}
	env := "development"
	if cmd := ctx.Command(); cmd == nil || cmd.Name() == "build" {
		env = "production"
	}
	return os.Setenv("NODE_ENV", env)
}
