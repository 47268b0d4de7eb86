// Command qfund is the host side of the quadratic funding guest.
//
// Usage:
//
//	qfund [global flags] <command> [flags]
//
// Commands:
//
//	encode   Build a framed guest input from a JSON donation file
//	run      Execute the guest and emit its journal
//	proof    Print the Merkle inclusion proof of one grant's payout
//	verify   Check a grant payout against a committed root
//
// Global flags:
//
//	--config          YAML configuration file
//	--index-width     Leaf index width in bytes: 4 or 8 (default: 4)
//	--max-input-size  Payload size limit in bytes, 0 for none
//	--log.level       debug, info, warn, error (default: info)
//	--log.format      text or json (default: text)
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/qfund/qfund/config"
	"github.com/qfund/qfund/log"
)

// Build-time version info, overridable with ldflags:
//
//	go build -ldflags "-X main.version=v0.2.0 -X main.commit=abc1234"
var (
	version = "v0.1.0-dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

// run is the actual entry point, returning an exit code. It takes the full
// argument vector and output streams so it can be tested in isolation.
func run(args []string, stdout, stderr io.Writer) int {
	h := &host{stdout: stdout, stderr: stderr}
	if err := h.app().Run(args); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// host carries the resolved configuration between the global Before hook and
// the command actions.
type host struct {
	cfg    config.Config
	log    *log.Logger
	stdout io.Writer
	stderr io.Writer
}

const (
	flagConfig       = "config"
	flagIndexWidth   = "index-width"
	flagMaxInputSize = "max-input-size"
	flagLogLevel     = "log.level"
	flagLogFormat    = "log.format"
)

func (h *host) app() *cli.App {
	return &cli.App{
		Name:      "qfund",
		Usage:     "quadratic funding guest runner",
		Version:   fmt.Sprintf("%s (commit %s)", version, commit),
		Writer:    h.stdout,
		ErrWriter: h.stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "YAML configuration file",
				EnvVars: []string{"QFUND_CONFIG"},
			},
			&cli.IntFlag{
				Name:  flagIndexWidth,
				Usage: "leaf index width in bytes (4 or 8)",
			},
			&cli.UintFlag{
				Name:  flagMaxInputSize,
				Usage: "payload size limit in bytes, 0 for none",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Usage: "log level: debug, info, warn, error",
			},
			&cli.StringFlag{
				Name:  flagLogFormat,
				Usage: "log format: text, json",
			},
		},
		Before:   h.init,
		Commands: h.commands(),
	}
}

// init loads the configuration file, applies flag overrides and sets up
// logging.
func (h *host) init(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String(flagConfig))
	if err != nil {
		return err
	}
	if c.IsSet(flagIndexWidth) {
		cfg.IndexWidth = c.Int(flagIndexWidth)
	}
	if c.IsSet(flagMaxInputSize) {
		cfg.MaxInputSize = uint32(c.Uint(flagMaxInputSize))
	}
	if c.IsSet(flagLogLevel) {
		cfg.Log.Level = c.String(flagLogLevel)
	}
	if c.IsSet(flagLogFormat) {
		cfg.Log.Format = c.String(flagLogFormat)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	l, err := log.NewWithFormat(level, cfg.Log.Format, h.stderr)
	if err != nil {
		return err
	}
	log.SetDefault(l)

	h.cfg = cfg
	h.log = l.Module("host")
	h.log.Debug("configuration resolved",
		"file", cfg.ConfigFile,
		"index_width", cfg.IndexWidth,
		"max_input_size", cfg.MaxInputSize,
	)
	return nil
}

func (h *host) commands() cli.Commands {
	return []*cli.Command{
		{
			Name:   "encode",
			Usage:  "build a framed guest input from a JSON donation file",
			Flags:  encodeFlags(),
			Action: h.encodeCmd,
		},
		{
			Name:   "run",
			Usage:  "execute the guest and emit its journal",
			Flags:  runFlags(),
			Action: h.runCmd,
		},
		{
			Name:   "proof",
			Usage:  "print the Merkle inclusion proof of one grant's payout",
			Flags:  proofFlags(),
			Action: h.proofCmd,
		},
		{
			Name:   "verify",
			Usage:  "check a grant payout against a committed root",
			Flags:  verifyFlags(),
			Action: h.verifyCmd,
		},
	}
}
