package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/wpp-history/internal/bus"
	"github.com/matheus3301/wpp-history/internal/config"
	"github.com/matheus3301/wpp-history/internal/history"
	"github.com/matheus3301/wpp-history/internal/logging"
	"github.com/matheus3301/wpp-history/internal/qr"
	"github.com/matheus3301/wpp-history/internal/session"
	"github.com/matheus3301/wpp-history/internal/status"
	"github.com/matheus3301/wpp-history/internal/viewer"
	"github.com/matheus3301/wpp-history/internal/web"
)

// envPassword supplies the access password in password mode.
const envPassword = "HISTORY_PASSWORD"

func main() {
	configFlag := flag.String("config", config.DefaultPath(), "path to config.toml")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	passwordFlag := flag.String("password", "", "access password (default $"+envPassword+")")
	qrFlag := flag.Bool("qr", false, "print a QR code of the wa.me link")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "lookup":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: historyctl lookup <phone>")
			os.Exit(1)
		}
		cfg := loadConfig(*configFlag)
		password := *passwordFlag
		if password == "" {
			password = os.Getenv(envPassword)
		}
		cmdLookup(cfg, args[1], password, *jsonFlag, *qrFlag)
	case "config":
		if len(args) >= 2 && args[1] == "init" {
			cmdConfigInit(*configFlag)
		} else {
			fmt.Fprintln(os.Stderr, "usage: historyctl config init")
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: historyctl [--config <path>] [--json] [--password <pw>] [--qr] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  lookup <phone>   Show both histories of a customer number")
	fmt.Fprintln(os.Stderr, "  config init      Write the default config file")
}

func loadConfig(path string) *config.Config {
	cfg, err := config.LoadOrDefault(path)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func cmdConfigInit(path string) {
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(os.Stderr, "error: %s already exists\n", path)
		os.Exit(1)
	}
	if err := config.Save(path, config.Default()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", path)
}

func cmdLookup(cfg *config.Config, number, password string, jsonOut, showQR bool) {
	logger, err := logging.New(logging.Options{Level: "warn", Service: "historyctl"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	v := viewer.FromConfig(cfg, nil, logger)
	defer v.Close()

	sess := session.New(uuid.NewString(), bus.New())
	if v.RequiresCredential() {
		if err := sess.Authorize(password); err != nil {
			fmt.Fprintf(os.Stderr, "error: %s (use --password or $%s)\n", viewer.UserMessage(err), envPassword)
			os.Exit(1)
		}
	} else {
		sess.AuthorizeWithoutCredential()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := v.Search(ctx, sess, number); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", viewer.UserMessage(err))
		os.Exit(1)
	}
	v.Wait()

	view := sess.Snapshot()
	loc := cfg.Location()
	if jsonOut {
		outputJSON(web.NewStateResponse(view))
	} else {
		printLookup(view, loc, showQR)
	}
}

func printLookup(v session.View, loc *time.Location, showQR bool) {
	fmt.Printf("Número:   %s\n", v.Address.Secondary)
	fmt.Printf("JID:      %s\n", v.Address.JID())
	fmt.Printf("Link:     %s\n", v.Address.ChatLink())
	if showQR {
		if code, err := qr.Text(v.Address.ChatLink(), "  "); err == nil {
			fmt.Printf("\n%s", code)
		}
	}

	fmt.Printf("\nConversas (%d)\n", len(v.Conversations))
	if len(v.Conversations) == 0 {
		fmt.Println("Nenhuma conversa encontrada.")
	}
	for _, c := range v.Conversations {
		fmt.Printf("\n== %s  Criada em %s • %d mensagens\n", c.Title(), history.FormatTime(c.CreatedAt, loc), len(c.Messages))
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, m := range c.Messages {
			author := "Cliente"
			if m.IsAgent() {
				author = m.Author
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", history.FormatTime(m.CreatedAt, loc), author, oneLine(m.Body))
		}
		_ = w.Flush()
	}

	fmt.Println("\nChatbot")
	if v.Secondary.Status != status.Loaded || v.Weni == nil {
		fmt.Println(v.Secondary.Err)
		return
	}
	h := v.Weni
	fmt.Printf("Nome:       %s\n", h.Contact.Name)
	fmt.Printf("Documento:  %s\n", h.Contact.Document)
	fmt.Printf("Mensagens:  %d\n", h.MessagesCount)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, m := range h.Messages {
		author := "Cliente"
		if m.IsBot() {
			author = "Bot"
		}
		var ts string
		if m.HasTimestamp() {
			ts = history.FormatTime(m.Timestamp(), loc)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", ts, author, oneLine(m.Text))
	}
	_ = w.Flush()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}
