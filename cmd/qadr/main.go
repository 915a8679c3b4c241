package main

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/markkurossi/tabulate"
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/ailabteam/go-qadr/api/httpserver"
	"github.com/ailabteam/go-qadr/protocol"
	"github.com/ailabteam/go-qadr/services"
)

// VERSION is populated via build flags when packaging official binaries.
var VERSION = "SELFBUILD"

func main() {
	app := cli.NewApp()
	app.Name = "qadr"
	app.Usage = "anonymous data reporting simulator"
	app.Version = VERSION
	app.Commands = []cli.Command{
		runCommand(),
		benchCommand(),
		serveCommand(),
	}

	if err := app.Run(os.Args); err != nil {
		// %+v prints the wrap chain with stack traces where available.
		fmt.Fprintf(os.Stderr, "qadr: %+v\n", err)
		os.Exit(1)
	}
}

func protocolFlags() []cli.Flag {
	return []cli.Flag{
		cli.IntFlag{
			Name:  "participants, n",
			Value: protocol.DefaultParticipants,
			Usage: "number of participants",
		},
		cli.Float64Flag{
			Name:  "gamma, g",
			Value: protocol.DefaultSlotRatio,
			Usage: "slot-to-participant ratio for the reservation vector",
		},
		cli.IntFlag{
			Name:  "pseudonym-length",
			Value: protocol.DefaultPseudonymLength,
			Usage: "pseudonym width in bytes",
		},
		cli.IntFlag{
			Name:  "message-length",
			Value: protocol.DefaultMessageLength,
			Usage: "per-participant message width in bytes",
		},
		cli.IntFlag{
			Name:  "max-rounds",
			Value: 0,
			Usage: "reservation round budget, 0 for the default of 2n",
		},
		cli.StringFlag{
			Name:  "resubmit",
			Value: string(protocol.ResubmitAll),
			Usage: `resubmission policy: "all" or "pending"`,
		},
		cli.StringFlag{
			Name:  "config, c",
			Usage: "TOML configuration file; CLI flags override it",
		},
		cli.BoolFlag{
			Name:  "json-log",
			Usage: "emit JSON log lines instead of text",
		},
	}
}

func runCommand() cli.Command {
	return cli.Command{
		Name:  "run",
		Usage: "execute one protocol run and print the recovered messages",
		Flags: protocolFlags(),
		Action: func(c *cli.Context) error {
			log := buildLogger(c)
			fileCfg, err := loadFileConfig(c)
			if err != nil {
				return err
			}
			cfg := fileCfg.Protocol
			applyOverrides(c, &cfg)

			store, err := openStore(log, fileCfg)
			if err != nil {
				return err
			}
			defer store.Close()

			runner := services.NewRunner(log, store)
			record, result, err := runner.Execute(cfg, protocol.Dependencies{})
			if err != nil {
				return errors.Wrap(err, "run")
			}

			fmt.Printf("run %s: %d participants, %d slots, %d reservation rounds\n",
				record.ID, cfg.Participants, record.SlotCount, record.ReservationRounds)
			for i, message := range result.Messages(cfg.MessageLength) {
				fmt.Printf("  slot %3d: %s\n", i, hex.EncodeToString(message))
			}
			return nil
		},
	}
}

func benchCommand() cli.Command {
	flags := append(protocolFlags(), cli.IntFlag{
		Name:  "runs, r",
		Value: 20,
		Usage: "number of independent runs",
	})
	return cli.Command{
		Name:  "bench",
		Usage: "run the protocol repeatedly and summarize round counts",
		Flags: flags,
		Action: func(c *cli.Context) error {
			log := buildLogger(c)
			fileCfg, err := loadFileConfig(c)
			if err != nil {
				return err
			}
			cfg := fileCfg.Protocol
			applyOverrides(c, &cfg)

			runs := fileCfg.Runs
			if c.IsSet("runs") || runs < 1 {
				runs = c.Int("runs")
			}

			runner := services.NewRunner(log, nil)
			summary, err := runner.RunExperiment(services.ExperimentConfig{
				Runs:     runs,
				Protocol: cfg,
			})
			if err != nil {
				return errors.Wrap(err, "bench")
			}

			printSummary(cfg, summary)
			return nil
		},
	}
}

func serveCommand() cli.Command {
	flags := append(protocolFlags(),
		cli.StringFlag{
			Name:  "listen, l",
			Value: ":8080",
			Usage: "HTTP listen address",
		},
		cli.BoolFlag{
			Name:  "pprof",
			Usage: "enable the pprof debugging API",
		},
	)
	return cli.Command{
		Name:  "serve",
		Usage: "serve the run inspection HTTP API",
		Flags: flags,
		Action: func(c *cli.Context) error {
			log := buildLogger(c)
			fileCfg, err := loadFileConfig(c)
			if err != nil {
				return err
			}
			cfg := fileCfg.Protocol
			applyOverrides(c, &cfg)

			store, err := openStore(log, fileCfg)
			if err != nil {
				return err
			}
			defer store.Close()

			runner := services.NewRunner(log, store)
			handler := httpserver.NewRunsHandler(log, cfg, runner, store)

			srv, err := httpserver.New(&httpserver.HTTPServerConfig{
				ListenAddr:               c.String("listen"),
				EnablePprof:              c.Bool("pprof"),
				Log:                      log,
				DrainDuration:            5 * time.Second,
				GracefulShutdownDuration: 10 * time.Second,
				ReadTimeout:              10 * time.Second,
				WriteTimeout:             30 * time.Second,
			}, handler)
			if err != nil {
				return errors.Wrap(err, "creating server")
			}

			srv.RunInBackground()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig

			log.Info("shutting down")
			srv.Shutdown()
			return nil
		},
	}
}

func buildLogger(c *cli.Context) *slog.Logger {
	if c.Bool("json-log") {
		return slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

// loadFileConfig loads the TOML file named by --config, or returns a
// default configuration when the flag is unset.
func loadFileConfig(c *cli.Context) (*services.FileConfig, error) {
	path := c.String("config")
	if path == "" {
		return &services.FileConfig{Protocol: protocol.DefaultConfig(), Runs: 1}, nil
	}
	cfg, err := services.LoadConfig(path)
	if err != nil {
		return nil, errors.Wrap(err, "loading config")
	}
	return cfg, nil
}

// applyOverrides copies explicitly set CLI flags over the file config.
func applyOverrides(c *cli.Context, cfg *protocol.Config) {
	if c.IsSet("participants") || c.IsSet("n") {
		cfg.Participants = c.Int("participants")
	}
	if c.IsSet("gamma") || c.IsSet("g") {
		cfg.SlotRatio = c.Float64("gamma")
	}
	if c.IsSet("pseudonym-length") {
		cfg.PseudonymLength = c.Int("pseudonym-length")
	}
	if c.IsSet("message-length") {
		cfg.MessageLength = c.Int("message-length")
	}
	if c.IsSet("max-rounds") {
		cfg.MaxRounds = c.Int("max-rounds")
	}
	if c.IsSet("resubmit") {
		cfg.Resubmit = protocol.ResubmitPolicy(c.String("resubmit"))
	}
	cfg.Normalize()
}

// openStore returns the Postgres store when the file config names one, and
// the in-memory store otherwise.
func openStore(log *slog.Logger, fileCfg *services.FileConfig) (services.RunStore, error) {
	if fileCfg.Postgres == nil {
		return services.NewInMemoryStore(), nil
	}
	log.Info("using postgres store", "host", fileCfg.Postgres.Host, "database", fileCfg.Postgres.Database)
	store, err := services.NewPostgresStore(fileCfg.Postgres)
	if err != nil {
		return nil, errors.Wrap(err, "opening postgres store")
	}
	return store, nil
}

func printSummary(cfg protocol.Config, summary *services.ExperimentSummary) {
	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Metric").SetAlign(tabulate.ML)
	tab.Header("Value").SetAlign(tabulate.MR)

	addRow := func(metric, value string) {
		row := tab.Row()
		row.Column(metric)
		row.Column(value)
	}

	addRow("participants", fmt.Sprintf("%d", cfg.Participants))
	addRow("slot ratio", fmt.Sprintf("%.2f", cfg.SlotRatio))
	addRow("runs", fmt.Sprintf("%d", summary.Runs))
	addRow("failures", fmt.Sprintf("%d", summary.Failures))
	addRow("mean rounds", fmt.Sprintf("%.2f", summary.MeanRounds))
	addRow("median rounds", fmt.Sprintf("%.2f", summary.MedianRounds))
	addRow("p95 rounds", fmt.Sprintf("%.2f", summary.P95Rounds))
	addRow("max rounds", fmt.Sprintf("%.0f", summary.MaxRounds))
	addRow("mean duration", fmt.Sprintf("%.1f ms", summary.MeanDurationMillis))

	tab.Print(os.Stdout)
}
