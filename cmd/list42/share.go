package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dukerupert/list42/internal/tui"
)

var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Print a link that adds others to your list",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(appOptions{})
		if err != nil {
			return err
		}
		defer a.close()

		if _, err := a.userID(cmd.Context()); err != nil {
			return err
		}
		link, err := a.redeemer.Link(cmd.Context(), a.cfg.BaseURL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), link)
		return nil
	},
}

var redeemCmd = &cobra.Command{
	Use:   "redeem URL|CODE",
	Short: "Join a list shared with you",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(appOptions{})
		if err != nil {
			return err
		}
		defer a.close()

		userID, err := a.userID(cmd.Context())
		if err != nil {
			return err
		}

		arg := args[0]
		redeem := a.redeemer.RedeemCode
		if strings.Contains(arg, "://") || strings.Contains(arg, "?") {
			redeem = a.redeemer.Redeem
		}
		res, err := redeem(cmd.Context(), arg)
		if err != nil {
			return err
		}
		if !res.Redeemed {
			return fmt.Errorf("no share code in %q", arg)
		}
		if err := a.prefs.SetSelectedList(userID, res.ListID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Now using %s\n", res.ListID)
		return nil
	},
}

var useCmd = &cobra.Command{
	Use:   "use LIST_ID",
	Short: "Select the list other commands work on",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(appOptions{})
		if err != nil {
			return err
		}
		defer a.close()

		userID, err := a.userID(cmd.Context())
		if err != nil {
			return err
		}
		lists, err := a.cache.LoadLists(cmd.Context())
		if err != nil {
			return err
		}
		for _, l := range lists {
			if l.ID == args[0] {
				if err := a.prefs.SetSelectedList(userID, l.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Now using %s\n", tui.ListLabel(l))
				return nil
			}
		}
		return fmt.Errorf("no visible list with id %q; see list42 lists", args[0])
	},
}
