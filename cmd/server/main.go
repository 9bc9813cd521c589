// Command server runs the regpulse HTTP API together with the notification
// worker. It stops gracefully on SIGINT or SIGTERM.
//
// Exit codes: 0 = clean shutdown, 1 = error.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/heartmarshall/regpulse-backend/internal/app"
	"github.com/heartmarshall/regpulse-backend/internal/config"
)

func main() {
	envHelp := flag.Bool("env-help", false, "print the environment variables the server reads and exit")
	version := flag.Bool("version", false, "print the build version and exit")
	flag.Parse()

	switch {
	case *envHelp:
		desc, err := config.Describe()
		if err != nil {
			fmt.Fprintf(os.Stderr, "server: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(desc)
		return
	case *version:
		fmt.Println(app.BuildVersion())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}
