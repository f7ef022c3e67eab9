package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/bowwow/internal/api"
	"github.com/dmitrijs2005/bowwow/internal/client/client"
	"github.com/dmitrijs2005/bowwow/internal/server/hub"
)

type position struct {
	lat, lng float64
}

func (p *position) bind(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&p.lat, "lat", 0, "latitude in degrees")
	cmd.Flags().Float64Var(&p.lng, "lng", 0, "longitude in degrees")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
}

// maxDistance returns nil unless --max was given, leaving the default to
// the server.
func maxDistance(cmd *cobra.Command, v float64) *float64 {
	if !cmd.Flags().Changed("max") {
		return nil
	}
	return &v
}

func (a *App) newSendCmd() *cobra.Command {
	var (
		pos position
		reach float64
	)
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a signal from a position",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.userID()
			if err != nil {
				return err
			}
			return a.withClient(func(c signalAPI) error {
				id, err := c.SendSignal(cmd.Context(), user, pos.lat, pos.lng, maxDistance(cmd, reach))
				if err != nil {
					return err
				}
				return a.print(api.SendSignalResponse{SignalID: id}, func(p *printer) {
					p.line("signal %s sent", id)
				})
			})
		},
	}
	pos.bind(cmd)
	cmd.Flags().Float64Var(&reach, "max", 0, "reach in the sender's unit (server default when omitted)")
	return cmd
}

func (a *App) newRespondCmd() *cobra.Command {
	var (
		pos position
		reach float64
	)
	cmd := &cobra.Command{
		Use:   "respond SIGNAL_ID",
		Short: "Answer a received signal with a new one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.userID()
			if err != nil {
				return err
			}
			return a.withClient(func(c signalAPI) error {
				id, err := c.RespondToSignal(cmd.Context(), args[0], user, pos.lat, pos.lng, maxDistance(cmd, reach))
				if err != nil {
					return err
				}
				return a.print(api.RespondToSignalResponse{SignalID: id}, func(p *printer) {
					p.line("response %s sent", id)
				})
			})
		},
	}
	pos.bind(cmd)
	cmd.Flags().Float64Var(&reach, "max", 0, "reach of the response")
	return cmd
}

func (a *App) newLocationCmd() *cobra.Command {
	var pos position
	cmd := &cobra.Command{
		Use:   "location",
		Short: "Report the current position",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.userID()
			if err != nil {
				return err
			}
			return a.withClient(func(c signalAPI) error {
				if err := c.UpdateLocation(cmd.Context(), user, pos.lat, pos.lng); err != nil {
					return err
				}
				return a.print(api.UpdateLocationResponse{}, func(p *printer) {
					p.line("location updated")
				})
			})
		},
	}
	pos.bind(cmd)
	return cmd
}

func (a *App) newNearbyCmd() *cobra.Command {
	var reach float64
	cmd := &cobra.Command{
		Use:   "nearby",
		Short: "List users near the last reported position",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.userID()
			if err != nil {
				return err
			}
			return a.withClient(func(c signalAPI) error {
				users, err := c.NearbyUsers(cmd.Context(), user, maxDistance(cmd, reach))
				if err != nil {
					return err
				}
				return a.print(users, func(p *printer) {
					if len(users) == 0 {
						p.line("nobody nearby")
						return
					}
					p.row("USER", "DISTANCE", "DIRECTION", "LAST SEEN")
					for _, u := range users {
						p.row(u.UserID, fmt.Sprintf("%.2f", u.Distance), u.Direction, u.LastSeen.Format(time.RFC3339))
					}
				})
			})
		},
	}
	cmd.Flags().Float64Var(&reach, "max", 0, "search radius")
	return cmd
}

func (a *App) newReceivedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "received",
		Short: "List signals received in the last 24 hours",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.userID()
			if err != nil {
				return err
			}
			return a.withClient(func(c signalAPI) error {
				signals, err := c.ReceivedSignals(cmd.Context(), user)
				if err != nil {
					return err
				}
				return a.print(signals, func(p *printer) {
					if len(signals) == 0 {
						p.line("no signals received")
						return
					}
					p.row("SIGNAL", "FROM", "DISTANCE", "DIRECTION", "RESPONDED", "RECEIVED")
					for _, s := range signals {
						p.row(s.SignalID, s.SenderID, fmt.Sprintf("%.2f %s", s.Distance, s.Unit), s.Direction,
							fmt.Sprint(s.Responded), s.ReceivedAt.Format(time.RFC3339))
					}
				})
			})
		},
	}
}

func (a *App) newSignalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signal SIGNAL_ID",
		Short: "Show one signal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(func(c signalAPI) error {
				s, err := c.GetSignal(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.print(s, func(p *printer) {
					p.row("ID", s.ID)
					p.row("SENDER", s.SenderID)
					p.row("ORIGIN", fmt.Sprintf("%.6f, %.6f", s.Latitude, s.Longitude))
					p.row("REACH", fmt.Sprintf("%g %s", s.MaxDistance, s.Unit))
					p.row("STATUS", s.Status)
					p.row("SENT", s.SentAt.Format(time.RFC3339))
					p.row("EXPIRES", s.ExpiresAt.Format(time.RFC3339))
				})
			})
		},
	}
}

func (a *App) newCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel SIGNAL_ID",
		Short: "Stop a signal's propagation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(func(c signalAPI) error {
				if err := c.CancelSignal(cmd.Context(), args[0]); err != nil {
					return err
				}
				return a.print(api.CancelSignalResponse{}, func(p *printer) {
					p.line("signal %s cancelled", args[0])
				})
			})
		},
	}
}

func (a *App) newPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the server answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(func(c signalAPI) error {
				resp, err := c.Ping(cmd.Context())
				if err != nil {
					return err
				}
				return a.print(resp, func(p *printer) {
					p.line("%s (version %s) at %s", resp.Status, resp.Version, resp.Timestamp.Format(time.RFC3339))
				})
			})
		},
	}
}

func (a *App) newWatchCmd() *cobra.Command {
	var (
		pos    position
		radius float64
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow live location updates around a position",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.userID()
			if err != nil {
				return err
			}
			sub := client.Subscription{UserID: user, Latitude: pos.lat, Longitude: pos.lng, Radius: radius}
			return a.watch(cmd.Context(), sub)
		},
	}
	pos.bind(cmd)
	cmd.Flags().Float64Var(&radius, "radius", 1, "radius in the server's feed unit")
	return cmd
}

func (a *App) watch(ctx context.Context, sub client.Subscription) error {
	w := a.newWatcher(a.config.WatchURL)
	return w.Watch(ctx, sub, func(m hub.Outbound) error {
		return a.print(m, func(p *printer) {
			switch m.Type {
			case hub.TypeLocationUpdate:
				p.line("%s %s %.2f %s", m.Timestamp.Format(time.RFC3339), m.UserID, deref(m.Distance), m.Direction)
			default:
				p.line("%s %s", m.Type, m.Message)
			}
		})
	})
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
