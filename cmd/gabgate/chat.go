package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/gabgate/internal/client"
)

func newCreateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create a new room and start chatting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.chat(cmd, client.ModeCreate, uuid.NewString())
		},
	}
}

func newJoinCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "join <room>",
		Short: "Join an existing room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.chat(cmd, client.ModeJoin, args[0])
		},
	}
}

// chat opens one connection for the command and runs the room session on it.
func (c *cli) chat(cmd *cobra.Command, mode client.Mode, room string) error {
	if err := c.requireLogin(cmd); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := client.Dial(ctx, client.DialOptions{
		URL:        c.cfg.WSURL,
		Token:      c.store.User.Token,
		Username:   c.store.User.Username,
		ClientType: c.cfg.ClientType,
	}, c.log)
	if err != nil {
		var rejected *client.HandshakeError
		if errors.As(err, &rejected) && rejected.Expired() {
			// drop the expired session so the next command asks for a login
			c.store.ClearUser()
			if saveErr := c.store.Save(); saveErr != nil {
				c.log.Error().Err(saveErr).Msg("clear expired session")
			}
		}
		return c.fail(cmd, client.UserMessage(err), err)
	}

	out := cmd.OutOrStdout()
	session := client.NewSession(
		conn,
		client.ReadLines(ctx, cmd.InOrStdin()),
		client.NewRenderer(out),
		client.Options{
			StorageDir:   c.cfg.StorageDir,
			Sound:        c.store.Prefs.Sound,
			Notification: c.store.Prefs.Notification,
		},
		c.log,
	)

	err = session.Run(ctx, mode, room)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, client.ErrServerClosed), errors.Is(err, client.ErrDisconnected):
		// already rendered by the session
		c.log.Info().Err(err).Str("room", room).Msg("session ended")
		return errReported
	default:
		return c.fail(cmd, client.MsgUnexpected, err)
	}
}
