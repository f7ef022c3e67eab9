package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func (a *App) newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show system totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(func(c signalAPI) error {
				st, err := c.Stats(cmd.Context())
				if err != nil {
					return err
				}
				return a.print(st, func(p *printer) {
					p.row("USERS", fmt.Sprintf("%d (%d active)", st.TotalUsers, st.ActiveUsers))
					p.row("SIGNALS", fmt.Sprintf("%d (%d active)", st.TotalSignals, st.ActiveSignals))
					p.row("SUBSCRIPTIONS", fmt.Sprint(st.Subscriptions))
				})
			})
		},
	}
	cmd.AddCommand(a.newSignalActivityCmd(), a.newUserActivityCmd())
	return cmd
}

func rangeFlag(cmd *cobra.Command, v *string) {
	cmd.Flags().StringVarP(v, "range", "r", "24h", "look-back range: 1h, 6h, 24h, 7d or 30d")
}

func (a *App) newSignalActivityCmd() *cobra.Command {
	var rng string
	cmd := &cobra.Command{
		Use:   "signals",
		Short: "Break down recent signals by hour and reach",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(func(c signalAPI) error {
				sa, err := c.SignalActivity(cmd.Context(), rng)
				if err != nil {
					return err
				}
				return a.print(sa, func(p *printer) {
					p.line("%d signals in the last %s", sa.Total, sa.Range)
					if sa.Total == 0 {
						return
					}

					hours := make([]int, 0, len(sa.ByHour))
					for h := range sa.ByHour {
						hours = append(hours, h)
					}
					sort.Ints(hours)
					p.row("HOUR (UTC)", "SIGNALS")
					for _, h := range hours {
						p.row(fmt.Sprintf("%02d:00", h), fmt.Sprint(sa.ByHour[h]))
					}

					ranges := make([]string, 0, len(sa.ByDistance))
					for r := range sa.ByDistance {
						ranges = append(ranges, r)
					}
					sort.Strings(ranges)
					p.row("REACH", "SIGNALS")
					for _, r := range ranges {
						p.row(r, fmt.Sprint(sa.ByDistance[r]))
					}
				})
			})
		},
	}
	rangeFlag(cmd, &rng)
	return cmd
}

func (a *App) newUserActivityCmd() *cobra.Command {
	var rng string
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Show how many users took part recently",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(func(c signalAPI) error {
				ua, err := c.UserActivity(cmd.Context(), rng)
				if err != nil {
					return err
				}
				return a.print(ua, func(p *printer) {
					p.row("RANGE", ua.Range)
					p.row("ACTIVE", fmt.Sprint(ua.ActiveUsers))
					p.row("SENDERS", fmt.Sprint(ua.Senders))
					p.row("RECEIVERS", fmt.Sprint(ua.Receivers))
					p.row("ENGAGEMENT", fmt.Sprintf("%.1f%%", ua.EngagementRate))
				})
			})
		},
	}
	rangeFlag(cmd, &rng)
	return cmd
}
