package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/matheus3301/wpp-history/internal/bus"
	"github.com/matheus3301/wpp-history/internal/config"
	"github.com/matheus3301/wpp-history/internal/logging"
	"github.com/matheus3301/wpp-history/internal/session"
	"github.com/matheus3301/wpp-history/internal/tui"
	"github.com/matheus3301/wpp-history/internal/viewer"
)

func main() {
	configFlag := flag.String("config", config.DefaultPath(), "path to config.toml")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configFlag)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Options{
		Path:       filepath.Join(filepath.Dir(cfg.Log.Path), "historytui.log"),
		Level:      cfg.Log.Level,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		Service:    "historytui",
		Quiet:      true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	b := bus.New()
	v := viewer.FromConfig(cfg, nil, logger)
	defer v.Close()

	sess := session.New(uuid.NewString(), b)
	defer sess.Close()
	if !v.RequiresCredential() {
		sess.AuthorizeWithoutCredential()
	}

	app := tui.NewApp(v, sess, b, cfg.Location())
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
