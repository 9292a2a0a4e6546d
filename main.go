package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/mariadb-mcp/internal/audit"
	"github.com/hazyhaar/mariadb-mcp/internal/config"
	"github.com/hazyhaar/mariadb-mcp/internal/db"
	"github.com/hazyhaar/mariadb-mcp/internal/logging"
	mcpsrv "github.com/hazyhaar/mariadb-mcp/internal/mcp"
)

var version = "dev"

func main() {
	// MCP launchers start the binary bare; no subcommand means serve.
	if len(os.Args) < 2 {
		cmdServe(nil)
		return
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(os.Args[2:])
	case "version":
		fmt.Printf("mariadb-mcp %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`mariadb-mcp — read-only MariaDB bridge over MCP stdio

Usage:
  mariadb-mcp serve [--config config.toml]
  mariadb-mcp version
  mariadb-mcp help

Commands:
  serve     Start the MCP server on stdio (default)
  version   Print version
  help      Show this help`)
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config.toml")
	fs.Parse(args)

	holder, err := config.NewHolder(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	snap := holder.Snapshot()

	log := logging.New(snap.LogLevel)
	log.Info().
		Str("host", snap.Host).
		Int("port", snap.Port).
		Str("user", snap.User).
		Str("database", snap.Database).
		Msg("MariaDB configuration loaded")

	gateway := db.NewGateway(holder, db.WithLogger(log.With().Str("component", "gateway").Logger()))
	defer gateway.Close()

	executor := db.NewExecutor(gateway, log.With().Str("component", "executor").Logger())

	deps := mcpsrv.Deps{
		Holder:   holder,
		Gateway:  gateway,
		Executor: executor,
		Log:      log.With().Str("component", "mcp").Logger(),
	}

	if snap.AuditPath != "" {
		auditLog, err := audit.Open(snap.AuditPath, log.With().Str("component", "audit").Logger())
		if err != nil {
			log.Fatal().Err(err).Str("path", snap.AuditPath).Msg("opening audit log")
		}
		defer auditLog.Close()
		deps.Audit = auditLog
	}

	srv := mcpsrv.NewServer(deps, version)

	log.Info().Str("version", version).Msg("starting MariaDB MCP server on stdio")
	if err := server.ServeStdio(srv); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
