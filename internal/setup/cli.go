package setup

import (
	"flag"
	"fmt"
	"io"
)

// CLI provides the "kcdb-mcp setup" subcommands.
type CLI struct {
	out               io.Writer
	desktopConfigPath string
}

// NewCLI creates a setup CLI writing to out. A non-empty desktopConfigPath
// replaces the platform's Claude Desktop config location.
func NewCLI(out io.Writer, desktopConfigPath string) *CLI {
	return &CLI{out: out, desktopConfigPath: desktopConfigPath}
}

// Run executes the setup command based on the provided arguments.
func (c *CLI) Run(args []string) error {
	if len(args) == 0 {
		c.showHelp()
		return nil
	}

	switch args[0] {
	case "claude-desktop":
		return c.setupClaudeDesktop(args[1:])
	case "status":
		return c.showStatus()
	case "help", "--help", "-h":
		c.showHelp()
		return nil
	default:
		fmt.Fprintf(c.out, "Unknown command: %s\n\n", args[0])
		c.showHelp()
		return fmt.Errorf("unknown setup command: %s", args[0])
	}
}

func (c *CLI) showHelp() {
	fmt.Fprint(c.out, `KCDB MCP Server Setup

Usage:
  kcdb-mcp setup <command> [options]

Commands:
  claude-desktop  Register kcdb-mcp in Claude Desktop
  status          Show current setup status

Options for claude-desktop:
  -binary PATH     kcdb-mcp binary (default: found on PATH or next to this executable)
  -config FILE     kcdb.yaml the server should read
  -log-level LVL   log level passed to the server
`)
}

func (c *CLI) setupClaudeDesktop(args []string) error {
	fs := flag.NewFlagSet("claude-desktop", flag.ContinueOnError)
	fs.SetOutput(c.out)
	opts := Options{DesktopConfigPath: c.desktopConfigPath}
	fs.StringVar(&opts.BinaryPath, "binary", "", "kcdb-mcp binary")
	fs.StringVar(&opts.ConfigFile, "config", "", "kcdb.yaml the server should read")
	fs.StringVar(&opts.LogLevel, "log-level", "", "log level passed to the server")
	if err := fs.Parse(args); err != nil {
		return err
	}

	server, err := ConfigureClaudeDesktop(opts)
	if err != nil {
		return fmt.Errorf("failed to configure Claude Desktop: %w", err)
	}

	fmt.Fprintln(c.out, "Claude Desktop configured.")
	fmt.Fprintf(c.out, "  Server: %s\n", server.Command)
	for k, v := range server.Env {
		fmt.Fprintf(c.out, "  %s=%s\n", k, v)
	}
	fmt.Fprintln(c.out, "Restart Claude Desktop to load the kcdb tools.")
	return nil
}

func (c *CLI) showStatus() error {
	status := GetStatus(Options{DesktopConfigPath: c.desktopConfigPath})

	fmt.Fprintln(c.out, "KCDB MCP Server Status")
	fmt.Fprintf(c.out, "  Claude Desktop config: %s\n", status.DesktopConfigPath)
	if status.Configured {
		fmt.Fprintln(c.out, "  Registered: yes")
		fmt.Fprintf(c.out, "  Binary: %s\n", status.Server.Command)
	} else {
		fmt.Fprintln(c.out, "  Registered: no")
	}
	for _, issue := range status.Issues {
		fmt.Fprintf(c.out, "  ! %s\n", issue)
	}
	return nil
}
