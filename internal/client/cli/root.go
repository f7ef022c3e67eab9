package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/bowwow/internal/client/config"
)

var errNoUser = errors.New("no user: pass --user or set " + config.EnvUser)

// NewRootCmd builds the command tree bound to a.
func (a *App) NewRootCmd() *cobra.Command {
	var (
		configPath string
		server     string
		watchURL   string
		user       string
		timeout    time.Duration
	)

	root := &cobra.Command{
		Use:           "bowwowctl",
		Short:         "Send and inspect BowWow proximity signals",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("server") {
				cfg.ServerEndpointAddr = server
			}
			if flags.Changed("watch-url") {
				cfg.WatchURL = watchURL
			}
			if flags.Changed("user") {
				cfg.UserID = user
			}
			if flags.Changed("timeout") {
				cfg.RequestTimeout = timeout
			}
			a.config = cfg
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "path to a JSON config file")
	pf.StringVarP(&server, "server", "a", "", "gRPC address of the server")
	pf.StringVar(&watchURL, "watch-url", "", "WebSocket URL of the live feed")
	pf.StringVarP(&user, "user", "u", "", "user id to act as")
	pf.DurationVar(&timeout, "timeout", 0, "per request timeout")
	pf.BoolVar(&a.json, "json", false, "print JSON instead of text")

	root.AddCommand(
		a.newSendCmd(),
		a.newRespondCmd(),
		a.newLocationCmd(),
		a.newNearbyCmd(),
		a.newReceivedCmd(),
		a.newSignalCmd(),
		a.newCancelCmd(),
		a.newPingCmd(),
		a.newStatsCmd(),
		a.newWatchCmd(),
		a.newKeygenCmd(),
	)
	return root
}

func (a *App) userID() (string, error) {
	if a.config.UserID == "" {
		return "", errNoUser
	}
	return a.config.UserID, nil
}
