package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/gabgate/internal/client/api"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
	nameCell     = lipgloss.NewStyle().Width(24)
	onlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	offlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

func newFriendsCmd(c *cli) *cobra.Command {
	var add, remove bool

	cmd := &cobra.Command{
		Use:   "friends [username]",
		Short: "List friends, or add/remove one by username",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(cmd); err != nil {
				return err
			}
			if len(args) == 0 {
				if add || remove {
					return c.fail(cmd, "Please provide a username!", nil)
				}
				return c.listFriends(cmd)
			}
			if !add && !remove {
				return c.fail(cmd, "Please choose --add or --remove!", nil)
			}
			return c.changeFriend(cmd, args[0], add)
		},
	}
	cmd.Flags().BoolVarP(&add, "add", "a", false, "add the user as a friend")
	cmd.Flags().BoolVarP(&remove, "remove", "r", false, "remove the user from friends")
	cmd.MarkFlagsMutuallyExclusive("add", "remove")
	return cmd
}

func (c *cli) listFriends(cmd *cobra.Command) error {
	statuses, err := c.api().OnlineFriends(cmd.Context())
	if err != nil {
		return c.failAPI(cmd, err)
	}
	fmt.Fprint(cmd.OutOrStdout(), renderFriends(statuses))
	return nil
}

func (c *cli) changeFriend(cmd *cobra.Command, username string, add bool) error {
	client := c.api()
	target, err := client.UserByUsername(cmd.Context(), username)
	if err != nil {
		return c.failAPI(cmd, err)
	}

	var updated *api.User
	if add {
		updated, err = client.AddFriend(cmd.Context(), target.ID)
	} else {
		updated, err = client.RemoveFriend(cmd.Context(), target.ID)
	}
	if err != nil {
		return c.failAPI(cmd, err)
	}

	c.store.User.Friends = updated.Friends
	if err := c.saveStore(cmd); err != nil {
		return err
	}
	if add {
		fmt.Fprintf(cmd.OutOrStdout(), "%s added to friends!\n", target.Username)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s removed from friends!\n", target.Username)
	}
	return nil
}

func renderFriends(statuses []api.FriendStatus) string {
	if len(statuses) == 0 {
		return "You have no friends yet.\n"
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(nameCell.Render("Username") + "Status"))
	b.WriteString("\n")
	for _, s := range statuses {
		status := offlineStyle.Render("Offline")
		if s.Online {
			status = onlineStyle.Render("Online")
		}
		b.WriteString(nameCell.Render(s.Username) + status)
		b.WriteString("\n")
	}
	return b.String()
}
