package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dukerupert/list42/internal/aisle"
	"github.com/dukerupert/list42/internal/editor"
	"github.com/dukerupert/list42/internal/model"
	"github.com/dukerupert/list42/internal/tui"
)

var listsCmd = &cobra.Command{
	Use:   "lists",
	Short: "Show the lists you can see",
	Args:  cobra.NoArgs,
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
		selected, err := a.listID(userID)
		if err != nil {
			return err
		}
		lists, err := a.cache.LoadLists(cmd.Context())
		if err != nil {
			return err
		}
		for _, l := range lists {
			mark := "  "
			if l.ID == selected {
				mark = "* "
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s%-20s %s\n", mark, tui.ListLabel(l), l.ID)
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the selected list",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(appOptions{})
		if err != nil {
			return err
		}
		defer a.close()

		ed, _, err := a.editorFor(cmd.Context())
		if err != nil {
			return err
		}
		list := a.cache.Peek(ed.ListID()).List
		if byAisle {
			printByAisle(cmd.OutOrStdout(), list)
			return nil
		}
		printList(cmd.OutOrStdout(), list)
		return nil
	},
}

var byAisle bool

func init() {
	showCmd.Flags().BoolVar(&byAisle, "by-aisle", false, "group pending items by store section")
}

var addCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add an item, or bring back a completed one with the same name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEditor(cmd, func(ctx context.Context, a *app, ed *editor.Editor) error {
			ed.BeginAdd()
			ed.Rename(strings.Join(args, " "))
			outcome, p := ed.Commit()
			if p == nil {
				return errors.New("nothing to add")
			}
			if err := p.Settle(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), outcome)
			return nil
		})
	},
}

var doneCmd = &cobra.Command{
	Use:   "done NAME",
	Short: "Mark an item as bought",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return toggleNamed(cmd, strings.Join(args, " "), false)
	},
}

var undoCmd = &cobra.Command{
	Use:   "undo NAME",
	Short: "Move a bought item back to the pending list",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return toggleNamed(cmd, strings.Join(args, " "), true)
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm NAME",
	Short: "Delete an item",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")
		return withEditor(cmd, func(ctx context.Context, a *app, ed *editor.Editor) error {
			item, err := findItem(a.cache.Peek(ed.ListID()).List, name, nil)
			if err != nil {
				return err
			}
			return ed.Delete(item.ID).Settle(ctx)
		})
	},
}

func toggleNamed(cmd *cobra.Command, name string, completed bool) error {
	return withEditor(cmd, func(ctx context.Context, a *app, ed *editor.Editor) error {
		item, err := findItem(a.cache.Peek(ed.ListID()).List, name, &completed)
		if err != nil {
			return err
		}
		return ed.Toggle(item.ID).Settle(ctx)
	})
}

func withEditor(cmd *cobra.Command, fn func(context.Context, *app, *editor.Editor) error) error {
	a, err := newApp(appOptions{})
	if err != nil {
		return err
	}
	defer a.close()

	ed, _, err := a.editorFor(cmd.Context())
	if err != nil {
		return err
	}
	return fn(cmd.Context(), a, ed)
}

// findItem matches name against list, ignoring case and
// surrounding spaces. A non-nil completed restricts the match.
func findItem(list *model.GroceryList, name string, completed *bool) (model.GroceryItem, error) {
	want := strings.TrimSpace(name)
	if list == nil {
		return model.GroceryItem{}, errors.New("list is not loaded")
	}
	for _, it := range list.Items {
		if completed != nil && it.Completed != *completed {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(it.Name), want) {
			return it, nil
		}
	}
	return model.GroceryItem{}, fmt.Errorf("no item named %q", want)
}

func printList(w io.Writer, list *model.GroceryList) {
	if list == nil {
		return
	}
	var done []model.GroceryItem
	for _, it := range editor.Sorted(list.Items) {
		if it.Completed {
			done = append(done, it)
			continue
		}
		fmt.Fprintf(w, "[ ] %s\n", it.Name)
	}
	for _, it := range done {
		fmt.Fprintf(w, "[x] %s\n", it.Name)
	}
}

// printByAisle prints pending items under their store section, followed
// by the completed count.
func printByAisle(w io.Writer, list *model.GroceryList) {
	if list == nil {
		return
	}
	var pending []model.GroceryItem
	done := 0
	for _, it := range editor.Sorted(list.Items) {
		if it.Completed {
			done++
			continue
		}
		pending = append(pending, it)
	}
	for i, sec := range aisle.Group(pending) {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s\n", sec.Name)
		for _, it := range sec.Items {
			fmt.Fprintf(w, "  [ ] %s\n", it.Name)
		}
	}
	if done > 0 {
		fmt.Fprintf(w, "\n%d completed\n", done)
	}
}
