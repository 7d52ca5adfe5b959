package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.trai.ch/zerr"

	"chorecal/internal/agenda"
	"chorecal/internal/dates"
	appLog "chorecal/internal/log"
	"chorecal/internal/recurrence"
)

// parseRange resolves --start/--end, defaulting to a 30 day window from
// today.
func parseRange(start, end string) (dates.Date, dates.Date, error) {
	s := dates.Today(time.Local)
	if start != "" {
		d, err := dates.Parse(start)
		if err != nil {
			return dates.Date{}, dates.Date{}, zerr.With(err, "flag", "start")
		}
		s = d
	}
	e := s.AddDays(29)
	if end != "" {
		d, err := dates.Parse(end)
		if err != nil {
			return dates.Date{}, dates.Date{}, zerr.With(err, "flag", "end")
		}
		e = d
	}
	return s, e, nil
}

func (c *CLI) newOccurrencesCmd() *cobra.Command {
	var rule, start, end string

	cmd := &cobra.Command{
		Use:   "occurrences",
		Short: "List the dates a recurrence rule is due within a range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := recurrence.Unmarshal([]byte(rule))
			if err != nil {
				return err
			}
			s, e, err := parseRange(start, end)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, d := range recurrence.OccurrencesInRange(r, s, e) {
				_, _ = fmt.Fprintln(out, d)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&rule, "rule", "", "Recurrence rule as JSON")
	cmd.Flags().StringVar(&start, "start", "", "First date of the range (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&end, "end", "", "Last date of the range (YYYY-MM-DD, default start+29)")
	_ = cmd.MarkFlagRequired("rule")
	return cmd
}

func (c *CLI) newDescribeCmd() *cobra.Command {
	var rule string

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print the human-readable label of a recurrence rule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := recurrence.Unmarshal([]byte(rule))
			if err != nil {
				return err
			}
			label := recurrence.Describe(r)
			if label == "" {
				appLog.Warn("rule has no label", "type", string(r.Kind()))
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), label)
			return nil
		},
	}
	cmd.Flags().StringVar(&rule, "rule", "", "Recurrence rule as JSON")
	_ = cmd.MarkFlagRequired("rule")
	return cmd
}

func (c *CLI) newGridCmd() *cobra.Command {
	var year, month int

	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Print a month grid with the chores due each day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			today := dates.Today(cfg.Location())
			if year == 0 {
				year = today.Year
			}
			if month == 0 {
				month = int(today.Month)
			}
			if month < 1 || month > 12 {
				return zerr.With(zerr.New("month must be 1-12"), "month", month)
			}

			grid := dates.CalendarGridDays(year, time.Month(month))
			chores, err := st.ListChores(ctx)
			if err != nil {
				return err
			}
			completions, err := st.ListCompletions(ctx, grid[0], grid[len(grid)-1])
			if err != nil {
				return err
			}
			view := agenda.Builder{Today: today}.Month(year, time.Month(month), chores, completions)
			return printMonth(cmd, view)
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "Year (default current)")
	cmd.Flags().IntVar(&month, "month", 0, "Month 1-12 (default current)")
	return cmd
}

// printMonth writes the grid as a table followed by the in-month agenda.
// Cells show the day and the number of open chores; days outside the month
// are bracketed and today is starred.
func printMonth(cmd *cobra.Command, view agenda.MonthView) error {
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "%s %d\n\n", dates.MonthNames[view.Month-1], view.Year)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, strings.Join(dates.DayNames[:], "\t"))
	for _, week := range view.Weeks {
		cells := make([]string, len(week))
		for i, cell := range week {
			cells[i] = gridCell(cell)
		}
		_, _ = fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return zerr.Wrap(err, "write grid")
	}

	_, _ = fmt.Fprintln(out)
	for _, week := range view.Weeks {
		for _, cell := range week {
			if !cell.InMonth {
				continue
			}
			for _, item := range cell.Items {
				mark := " "
				if item.Done {
					mark = "x"
				}
				_, _ = fmt.Fprintf(out, "%s [%s] %s\n", cell.Date, mark, item.Chore.Name)
			}
		}
	}
	return nil
}

func gridCell(cell agenda.Cell) string {
	s := fmt.Sprintf("%d", cell.Date.Day)
	if open := openCount(cell); open > 0 {
		s += fmt.Sprintf("(%d)", open)
	}
	if !cell.InMonth {
		s = "[" + s + "]"
	}
	if cell.Today {
		s += "*"
	}
	return s
}

func openCount(cell agenda.Cell) int {
	n := 0
	for _, item := range cell.Items {
		if !item.Done {
			n++
		}
	}
	return n
}

func describeOrKind(r recurrence.Rule) string {
	if label := recurrence.Describe(r); label != "" {
		return label
	}
	if r == nil {
		return ""
	}
	return string(r.Kind())
}
