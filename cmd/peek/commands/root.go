package commands

import (
	"fmt"
	"os"

	"peek/internal/config"
	"peek/internal/logging"
	"peek/internal/mail"
	"peek/internal/render"
	"peek/internal/report"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose     bool
	configPaths string
	job         string
	echo        bool
	send        bool
	open        bool

	cfg *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "peek",
	Short: "peek reports on issue-tracker activity",
	Long: `peek queries the configured Phabricator and Asana projects, summarizes the tasks
created over each history window, lists what every team member has assigned and what
has gone moldy, flags anti-pattern task states and renders the result as HTML.`,
	Args: cobra.NoArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load(configPaths)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}
		if job != "" {
			cfg.Job = job
		}
		if errs := config.Validate(cfg); len(errs) > 0 {
			for _, e := range errs {
				log.Error().Err(e).Msg("Invalid configuration")
			}
			log.Fatal().Int("errors", len(errs)).Msg("Configuration is invalid")
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("job", cfg.Job).
			Msg("peek starting")
	},
	Run: func(cmd *cobra.Command, args []string) {
		builder := report.NewBuilder(cfg)
		rep, err := builder.Build()
		if err != nil {
			log.Fatal().Err(err).Str("run_id", builder.RunID()).Msg("Report run failed")
		}

		html, err := render.HTML(rep, cfg.Templates)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to render report")
		}

		if echo {
			fmt.Fprint(cmd.OutOrStdout(), html)
		}
		if send {
			if err := mail.Send(cfg.Email, mail.Subject(cfg.Job, rep.Meta.Start), html); err != nil {
				log.Fatal().Err(err).Msg("Failed to send report")
			}
		}
		if open {
			path, err := writeTempReport(html)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to write report")
			}
			log.Info().Str("path", path).Msg("Opening report in browser")
			if err := browser.OpenFile(path); err != nil {
				log.Error().Err(err).Msg("Failed to open browser")
			}
		}
		if !echo && !send && !open {
			log.Info().Msg("Report built; use --echo, --send or --open to output it")
		}
	},
}

// writeTempReport stores the rendered report where a browser can open it.
func writeTempReport(html string) (string, error) {
	f, err := os.CreateTemp("", "peek-*.html")
	if err != nil {
		return "", err
	}
	if _, err := f.WriteString(html); err != nil {
		f.Close()
		return "", err
	}
	return f.Name(), f.Close()
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	flags.StringVarP(&configPaths, "config", "c", "config.yml", "comma-separated config files, later ones override earlier keys")
	flags.StringVarP(&job, "job", "j", "", "override the job name used in the subject")
	flags.BoolVarP(&echo, "echo", "p", false, "print the HTML report to stdout")
	flags.BoolVarP(&send, "send", "s", false, "email the report")
	flags.BoolVar(&open, "open", false, "open the report in the default browser")
}
