package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/sirupsen/logrus"

	"collaborax/config"
	controller "collaborax/controllers"
	"collaborax/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	config.SetupLogging(cfg)

	flush, err := config.InitSentry(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize error reporting: %v", err)
	}
	defer flush()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	ctx := context.Background()

	store, blobs, err := config.ConnectStore(ctx, cfg)
	if err != nil {
		logrus.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	sessions, err := controller.NewSessionStore(blobs, cfg.SessionKey, []byte(cfg.SessionSecret), cfg.SessionTTL)
	if err != nil {
		logrus.Fatalf("Failed to open session store: %v", err)
	}

	ws := controller.NewWorkspace(services.NewWorkspaceService(store), sessions)
	if err := ws.Start(ctx); err != nil {
		logrus.Fatalf("Failed to start workspace: %v", err)
	}

	result, err := cmd.run(ctx, ws, os.Args[2:])
	if ws.Unsaved() {
		logrus.Warn("The last save failed; changes from this run were not stored")
	}
	if err != nil {
		logrus.WithField("command", os.Args[1]).Error(err)
		os.Exit(1)
	}
	if result != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			logrus.Fatalf("Failed to write output: %v", err)
		}
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: collaborax <command> [flags]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "commands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-14s %s\n", name, commands[name].help)
	}
}
