package main

import (
	"net/http"
	"os"

	logs "github.com/danmuck/smplog"
	"github.com/gorilla/mux"
	"github.com/urfave/cli/v2"

	"github.com/danmuck/dps_ledger/cmd/internal/logcfg"
	"github.com/danmuck/dps_ledger/src/ledger"
)

func main() {
	logcfg.Configure()

	app := &cli.App{
		Name:  "ledgerd",
		Usage: "Serve an ownership-gated block ledger over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to a TOML settings file",
				EnvVars: []string{"DPS_LEDGER_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "listen",
				Usage:   "Listen address, overrides the settings file",
				EnvVars: []string{"DPS_LEDGER_LISTEN"},
			},
			&cli.Int64Flag{
				Name:    "challenge-window",
				Usage:   "Challenge validity window in seconds, negative disables expiry",
				EnvVars: []string{"DPS_LEDGER_CHALLENGE_WINDOW"},
			},
		},
		Action: serve,
	}

	if err := app.Run(os.Args); err != nil {
		logs.Errorf(err, "ledgerd exited")
		os.Exit(1)
	}
}

func serve(ctx *cli.Context) error {
	settings := ledger.DefaultSettings()
	if path := ctx.String("config"); path != "" {
		loaded, err := ledger.SettingsFromFile(path)
		if err != nil {
			return err
		}
		settings = loaded
	}
	if addr := ctx.String("listen"); addr != "" {
		settings.ListenAddr = addr
	}
	if ctx.IsSet("challenge-window") {
		settings.ChallengeWindow = ctx.Int64("challenge-window")
	}

	chain := ledger.InitChain(settings.ChainConfig())
	logs.Infof("origin block sealed: %x", chain.Tip().Digest())

	logs.Infof("ledgerd listening on %s", settings.ListenAddr)
	return http.ListenAndServe(settings.ListenAddr, newRouter(chain))
}

func newRouter(chain *ledger.Chain) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/challenge", handleChallenge(chain)).Methods(http.MethodPost)
	r.HandleFunc("/blocks", handleSubmit(chain)).Methods(http.MethodPost)
	r.HandleFunc("/blocks/height/{height:[0-9]+}", handleGetByHeight(chain)).Methods(http.MethodGet)
	r.HandleFunc("/blocks/digest/{digest}", handleGetByDigest(chain)).Methods(http.MethodGet)
	r.HandleFunc("/audit", handleAudit(chain)).Methods(http.MethodGet)
	r.HandleFunc("/owners/{address}/records", handleOwnerRecords(chain)).Methods(http.MethodGet)
	return r
}
