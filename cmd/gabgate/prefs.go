package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/gabgate/internal/client"
	"github.com/vovakirdan/gabgate/internal/client/forms"
	"github.com/vovakirdan/gabgate/internal/client/localstore"
)

const (
	labelSound        = "Sound"
	labelNotification = "Notification"
)

func newConfigCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Toggle sound and notification preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			form := forms.NewToggleForm("Preferences", prefsToToggles(c.store.Prefs))
			items, err := forms.RunToggles(form, cmd.InOrStdin(), cmd.OutOrStdout())
			if errors.Is(err, forms.ErrCancelled) {
				return nil
			}
			if err != nil {
				return c.fail(cmd, client.MsgUnexpected, err)
			}

			c.store.Prefs = togglesToPrefs(items, c.store.Prefs)
			if err := c.saveStore(cmd); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Preferences saved!")
			return nil
		},
	}
}

func prefsToToggles(p localstore.Prefs) []forms.Toggle {
	return []forms.Toggle{
		{Label: labelSound, On: p.Sound},
		{Label: labelNotification, On: p.Notification},
	}
}

func togglesToPrefs(items []forms.Toggle, current localstore.Prefs) localstore.Prefs {
	for _, item := range items {
		switch item.Label {
		case labelSound:
			current.Sound = item.On
		case labelNotification:
			current.Notification = item.On
		}
	}
	return current
}
