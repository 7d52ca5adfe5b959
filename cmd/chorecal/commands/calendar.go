package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.trai.ch/zerr"

	"chorecal/internal/capture"
	"chorecal/internal/dates"
	"chorecal/internal/ics"
	appLog "chorecal/internal/log"
)

var errImportSource = zerr.New("give exactly one of <file> or --url")

func (c *CLI) newImportCmd() *cobra.Command {
	var (
		feedURL string
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import all-day events from an iCalendar file or feed as chores",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 1) == (feedURL != "") {
				return errImportSource
			}
			ctx := cmd.Context()
			cfg, st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			var body []byte
			if feedURL != "" {
				f := ics.NewFetcher(filepath.Join(filepath.Dir(cfg.DBPath), "ics-cache"))
				res, err := f.Fetch(ctx, feedURL)
				if err != nil {
					return err
				}
				if res.FromCache {
					appLog.Warn("feed unavailable, importing cached copy")
				}
				body = res.Body
			} else {
				body, err = os.ReadFile(args[0])
				if err != nil {
					return zerr.With(zerr.Wrap(err, "read calendar"), "path", args[0])
				}
			}

			chores, errs := ics.Import(body)
			if len(chores) == 0 && len(errs) == 1 {
				return errs[0]
			}
			for _, err := range errs {
				appLog.Warn("event skipped", "err", err.Error())
			}

			out := cmd.OutOrStdout()
			for _, ch := range chores {
				if !dryRun {
					if _, err := st.SaveChore(ctx, ch); err != nil {
						return zerr.With(err, "chore", ch.Name)
					}
				}
				_, _ = fmt.Fprintf(out, "%s\t%s\n", ch.Name, describeOrKind(ch.Rule()))
			}
			verb := "imported"
			if dryRun {
				verb = "would import"
			}
			_, _ = fmt.Fprintf(out, "%s %d chores, skipped %d events\n", verb, len(chores), len(errs))
			return nil
		},
	}
	cmd.Flags().StringVar(&feedURL, "url", "", "Fetch the calendar from this URL instead of a file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and list chores without saving them")
	return cmd
}

func (c *CLI) newExportCmd() *cobra.Command {
	var output, name string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all chores as an iCalendar file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			chores, err := st.ListChores(ctx)
			if err != nil {
				return err
			}
			members, err := st.ListMembers(ctx)
			if err != nil {
				return err
			}

			body, skipped := ics.Export(chores, ics.ExportOptions{
				Name:    name,
				Anchor:  dates.Today(cfg.Location()),
				Members: members,
				Now:     time.Now(),
			})
			for _, err := range skipped {
				appLog.Warn("chore not exported", "err", err.Error())
			}

			if output == "" || output == "-" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), body)
				return err
			}
			if err := os.WriteFile(output, []byte(body), 0o644); err != nil {
				return zerr.With(zerr.Wrap(err, "write calendar"), "path", output)
			}
			appLog.Info("calendar exported", "path", output, "chores", len(chores)-len(skipped))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&name, "name", "Chores", "Calendar name")
	return cmd
}

func (c *CLI) newSnapshotCmd() *cobra.Command {
	var (
		year, month   int
		width, height int
		baseURL       string
		output        string
		timeout       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Render the month page of a running server to PNG with headless Chromium",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			today := dates.Today(cfg.Location())
			if year == 0 {
				year = today.Year
			}
			if month == 0 {
				month = int(today.Month)
			}
			if baseURL == "" {
				baseURL = "http://" + cfg.Listen
			}
			if output == "" {
				output = fmt.Sprintf("chorecal-%04d-%02d.png", year, month)
			}

			opts := capture.Options{
				BaseURL:    baseURL,
				Year:       year,
				Month:      time.Month(month),
				OutputPath: output,
				Width:      width,
				Height:     height,
				Timeout:    timeout,
			}
			if cfg.BasicAuth != nil {
				opts.Username = cfg.BasicAuth.Username
				opts.Password = cfg.BasicAuth.Password
			}
			if err := capture.CaptureCalendarPNG(cmd.Context(), opts); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "Year (default current)")
	cmd.Flags().IntVar(&month, "month", 0, "Month 1-12 (default current)")
	cmd.Flags().IntVar(&width, "width", capture.DefaultWidth, "Viewport width in pixels")
	cmd.Flags().IntVar(&height, "height", capture.DefaultHeight, "Viewport height in pixels")
	cmd.Flags().StringVar(&baseURL, "url", "", "Server root (default http://<listen>)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "PNG path (default chorecal-YYYY-MM.png)")
	cmd.Flags().DurationVar(&timeout, "timeout", capture.DefaultTimeout, "Capture timeout")
	return cmd
}
