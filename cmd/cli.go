package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bluetuith-org/avrcp-controller/api/eventbus"
	"github.com/bluetuith-org/avrcp-controller/config"
	"github.com/bluetuith-org/avrcp-controller/controller"
	"github.com/bluetuith-org/avrcp-controller/logger"
	"github.com/bluetuith-org/avrcp-controller/native"
	"github.com/bluetuith-org/avrcp-controller/shim"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v2"
)

// These values are set at compile-time.
var (
	Version  = ""
	Revision = ""
)

// Run runs the commandline application.
func Run() error {
	return newApp().Run(os.Args)
}

// newApp returns a new commandline application.
func newApp() *cli.App {
	cli.VersionPrinter = func(cCtx *cli.Context) {
		fmt.Fprintf(cCtx.App.Writer, "%s (%s)\n", Version, Revision)
	}

	return &cli.App{
		Name:                   "avrcpctl",
		Usage:                  "AVRCP media controller.",
		Version:                Version + " (" + Revision + ")",
		Description:            "An AVRCP controller and cover art monitor for the terminal.",
		DefaultCommand:         "avrcpctl",
		Copyright:              "(c) bluetuith-org.",
		Compiled:               time.Now(),
		EnableBashCompletion:   true,
		UseShortOptionHandling: true,
		Suggest:                true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "socket-path",
				Aliases: []string{"s"},
				EnvVars: []string{"AVRCPCTL_SOCKET_PATH"},
				Usage:   "Specify the path to the daemon socket.",
			},
			&cli.StringFlag{
				Name:    "cache-dir",
				Aliases: []string{"d"},
				EnvVars: []string{"AVRCPCTL_CACHE_DIR"},
				Usage:   "Specify a directory to store fetched cover art.",
			},
			&cli.StringFlag{
				Name:    "log-file",
				Aliases: []string{"f"},
				EnvVars: []string{"AVRCPCTL_LOG_FILE"},
				Usage:   "Specify a file to log to.",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				EnvVars: []string{"AVRCPCTL_LOG_LEVEL"},
				Usage:   "Specify the log level. (One of 'debug', 'info', 'warn', 'error')",
			},
			&cli.BoolFlag{
				Name:    "cover-art",
				Aliases: []string{"c"},
				EnvVars: []string{"AVRCPCTL_COVER_ART"},
				Usage:   "Fetch cover art from devices that support it.",
			},
			&cli.StringFlag{
				Name:    "cover-art-mime",
				EnvVars: []string{"AVRCPCTL_COVER_ART_MIME"},
				Usage:   "Specify the preferred cover art image format. (For example, 'image/jpeg')",
			},
			&cli.IntFlag{
				Name:    "cover-art-max-width",
				EnvVars: []string{"AVRCPCTL_COVER_ART_MAX_WIDTH"},
				Usage:   "Specify the maximum cover art width in pixels.",
			},
			&cli.IntFlag{
				Name:    "cover-art-max-height",
				EnvVars: []string{"AVRCPCTL_COVER_ART_MAX_HEIGHT"},
				Usage:   "Specify the maximum cover art height in pixels.",
			},
			&cli.Int64Flag{
				Name:    "cover-art-max-size",
				EnvVars: []string{"AVRCPCTL_COVER_ART_MAX_SIZE"},
				Usage:   "Specify the maximum cover art size in bytes.",
			},
			&cli.BoolFlag{
				Name:    "generate",
				Aliases: []string{"g"},
				Usage:   "Generate configuration.",
				Action: func(cliCtx *cli.Context, _ bool) error {
					k := koanf.New(".")

					cliCtx.Command.Name = "global"

					conf := config.NewConfig()
					if err := conf.Load(k, cliCtx); err != nil {
						return err
					}

					return conf.GenerateAndSave(k)
				},
			},
		},
		Action: func(cliCtx *cli.Context) error {
			if cliCtx.Bool("generate") {
				return nil
			}

			// required for koanf to merge all global flags under the root namespace.
			cliCtx.Command.Name = "global"

			k, cfg := koanf.New("."), config.NewConfig()
			if err := cfg.Load(k, cliCtx); err != nil {
				return err
			}
			if err := cfg.ValidateValues(); err != nil {
				return err
			}

			return runController(cliCtx, cfg)
		},
		ExitErrHandler: func(_ *cli.Context, err error) {
			if err == nil {
				return
			}

			printError(err)
		},
	}
}

// relaySink forwards native stack callbacks to the controller once it
// is constructed. The shim session and the controller each depend on
// the other's surface, so the sink binds late.
type relaySink struct {
	sm *controller.StateMachine
}

func (r *relaySink) Post(address string, callback native.Callback) {
	r.sm.Post(address, callback)
}

// runController starts the daemon session and the controller, and
// monitors controller events until interrupted.
func runController(cliCtx *cli.Context, cfg *config.Config) error {
	log, err := logger.New(logger.Config{
		Level:      cfg.Values.LogLevel,
		OutputPath: cfg.Values.LogFile,
	})
	if err != nil {
		return err
	}
	defer log.Sync()

	bus := eventbus.NewBus()
	defer bus.Shutdown()

	sink := &relaySink{}
	session := shim.NewSession(sink, log)

	sm := controller.New(controller.Config{
		Transport: session,
		Adapter:   nopAdapter{},
		Audio:     &softVolume{},
		DialObex:  session.DialObex,
		Bus:       bus,
		CacheDir:  cfg.Values.CacheDir,
		Logger:    log,
	})
	sink.sm = sm

	sm.Start()
	defer sm.Stop()

	sm.SetAppProperties(cfg.Values.AppProperties())

	if err := session.Start(cfg.Values.SocketPath); err != nil {
		return err
	}
	defer session.Stop()

	ctx, cancel := signal.NotifyContext(cliCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	printInfo("Monitoring AVRCP events. Press Ctrl-C to exit.")
	monitor(ctx, bus)

	return nil
}
