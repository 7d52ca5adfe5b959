package commands

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"chorecal/internal/agenda"
	"chorecal/internal/config"
	appLog "chorecal/internal/log"
	"chorecal/internal/reminder"
	"chorecal/internal/web"
)

func (c *CLI) newServeCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and the daily reminder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := st.Close(); err != nil {
					appLog.Error("failed to close store", err)
				}
			}()

			// --listen overrides the config file, including after reloads.
			if listen != "" {
				cfg.Listen = listen
			}

			appLog.Info("effective config",
				"config_path", c.configPath,
				"listen", cfg.Listen,
				"timezone", cfg.Timezone,
				"db_path", cfg.DBPath,
				"reminder_cron", cfg.ReminderCron,
				"max_range_days", cfg.MaxRangeDays,
				"rate_limit_rps", cfg.RateLimit.RPS,
				"basic_auth", cfg.BasicAuth != nil,
				"telegram", cfg.Telegram != nil,
			)

			var notifier reminder.Notifier = reminder.LogNotifier{}
			if tg := cfg.Telegram; tg != nil {
				n, err := reminder.NewTelegramNotifier(tg.Token, tg.ChatID)
				if err != nil {
					return err
				}
				notifier = n
			}
			rem, err := reminder.New(st, notifier, cfg.ReminderCron, cfg.Location())
			if err != nil {
				return err
			}
			srv := web.NewServer(cfg, st, agenda.NewCache(agenda.DefaultCacheConfig))

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return srv.Serve(gctx) })
			g.Go(func() error { return rem.Run(gctx) })
			g.Go(func() error {
				return config.Watch(gctx, c.configPath, func(next *config.Config) {
					if listen != "" {
						next.Listen = listen
					}
					if next.Listen != cfg.Listen {
						appLog.Warn("listen address changes need a restart", "current", cfg.Listen, "configured", next.Listen)
					}
					if next.DBPath != cfg.DBPath {
						appLog.Warn("db_path changes need a restart", "current", cfg.DBPath, "configured", next.DBPath)
					}
					if c.logLevel == "" {
						appLog.SetLevel(appLog.ParseLevel(next.LogLevel))
					}
					if err := rem.Apply(next.ReminderCron, next.Location()); err != nil {
						appLog.Error("reminder schedule rejected", err, "spec", next.ReminderCron)
					}
					srv.SetConfig(next)
				})
			})

			err = g.Wait()
			appLog.Info("chorecal exiting")
			return err
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}
