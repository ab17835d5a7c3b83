package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/gabgate/internal/client"
	"github.com/vovakirdan/gabgate/internal/client/api"
	"github.com/vovakirdan/gabgate/internal/client/localstore"
	"github.com/vovakirdan/gabgate/internal/config"
	"github.com/vovakirdan/gabgate/internal/log"
)

const msgPleaseLogin = "Please login!"

// errReported means the user has already been shown what went wrong.
var errReported = errors.New("reported")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// cli carries what every subcommand needs once the root pre-run has loaded it.
type cli struct {
	cfg       config.ClientConfig
	log       *zerolog.Logger
	logCloser io.Closer
	store     *localstore.Store
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)
	c := &cli{}

	root := &cobra.Command{
		Use:           "gabgate",
		Short:         "Terminal chat client for gabgate rooms",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load(configPath, logLevel)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			c.close()
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to client config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "error log level: debug, info, warn, error")

	root.AddCommand(
		newRegisterCmd(c),
		newLoginCmd(c),
		newLogoutCmd(c),
		newUserCmd(c),
		newConfigCmd(c),
		newCreateCmd(c),
		newJoinCmd(c),
		newFriendsCmd(c),
	)
	return root
}

func (c *cli) load(configPath, logLevel string) error {
	cfg, _, err := config.LoadClient(nil, configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	c.cfg = cfg

	logger, closer, err := log.NewFile(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("open error log: %w", err)
	}
	c.log = logger
	c.logCloser = closer

	st, err := localstore.Load(cfg.SessionPath)
	if err != nil {
		c.log.Error().Err(err).Str("path", cfg.SessionPath).Msg("load session")
		return fmt.Errorf("load session: %w", err)
	}
	c.store = st
	return nil
}

func (c *cli) close() {
	if c.logCloser != nil {
		_ = c.logCloser.Close()
	}
}

func (c *cli) api() *api.Client {
	return api.New(c.cfg.APIURL, c.cfg.ClientType).WithToken(c.store.User.Token)
}

func (c *cli) requireLogin(cmd *cobra.Command) error {
	if c.store.IsAuthenticated() {
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), msgPleaseLogin)
	return errReported
}

// fail prints msg, logs err and returns errReported.
func (c *cli) fail(cmd *cobra.Command, msg string, err error) error {
	if err != nil {
		c.log.Error().Err(err).Str("command", cmd.Name()).Msg(msg)
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg)
	return errReported
}

// failAPI reports a REST failure using the server's message when there is one.
func (c *cli) failAPI(cmd *cobra.Command, err error) error {
	if errors.Is(err, api.ErrUnauthorized) && c.store.IsAuthenticated() {
		return c.fail(cmd, client.MsgUnauthorized, err)
	}
	if msg, ok := api.Message(err); ok {
		return c.fail(cmd, msg, err)
	}
	return c.fail(cmd, client.MsgUnexpected, err)
}

func (c *cli) saveStore(cmd *cobra.Command) error {
	if err := c.store.Save(); err != nil {
		return c.fail(cmd, client.MsgUnexpected, err)
	}
	return nil
}
