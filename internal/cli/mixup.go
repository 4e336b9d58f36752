package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/usetrmnl/inkpipe/pkg/errors"
	"github.com/usetrmnl/inkpipe/pkg/mixup"
	"github.com/usetrmnl/inkpipe/pkg/store"
)

// mixupCommand groups the mixup subcommands.
func (c *CLI) mixupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mixup",
		Short: "Compose several recipes into one screen",
	}

	cmd.AddCommand(c.mixupLayoutsCommand())
	cmd.AddCommand(c.mixupCreateCommand())
	cmd.AddCommand(c.mixupListCommand())
	cmd.AddCommand(c.mixupRenderCommand())
	cmd.AddCommand(c.mixupDeleteCommand())

	return cmd
}

func (c *CLI) mixupLayoutsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "layouts",
		Short: "List the available layouts and their slots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var rows [][]string
			for _, l := range mixup.Layouts() {
				ids := make([]string, len(l.Slots))
				for i, s := range l.Slots {
					ids[i] = s.ID
				}
				rows = append(rows, []string{l.ID, l.Name, strings.Join(ids, ", ")})
			}
			printTable([]string{"LAYOUT", "NAME", "SLOTS"}, rows)
			return nil
		},
	}
}

func (c *CLI) mixupCreateCommand() *cobra.Command {
	var (
		name     string
		layoutID string
		slots    []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Save a new mixup",
		Example: `  inkpipe mixup create --layout LEFT_RIGHT --slot left=clock --slot right=hello
  inkpipe mixup create --name desk --layout QUARTERS --slot top-left=clock`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			assign, err := parseSlots(slots)
			if err != nil {
				return err
			}
			m, err := store.NewMixup(name, layoutID, assign)
			if err != nil {
				return err
			}

			a, err := c.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.store.SaveMixup(cmd.Context(), m); err != nil {
				return err
			}
			printSuccess("Created mixup %s", StyleValue.Render(m.ID))
			printKeyValue("Layout", m.LayoutID)
			for _, slot := range sortedSlots(m) {
				printKeyValue(slot, m.Assignments[slot])
			}
			if a.cfg.Store.Backend == "memory" {
				printDetail("store.backend is memory; the mixup is gone when this process exits")
			}
			printNextStep("Render it", "inkpipe mixup render "+m.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVarP(&layoutID, "layout", "l", mixup.Full, "layout ID (see 'mixup layouts')")
	cmd.Flags().StringArrayVarP(&slots, "slot", "s", nil, "slot assignment as slot=slug (repeatable)")
	return cmd
}

func (c *CLI) mixupListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved mixups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			ms, err := a.store.ListMixups(cmd.Context())
			if err != nil {
				return err
			}
			if len(ms) == 0 {
				printInfo("No mixups saved")
				return nil
			}
			rows := make([][]string, 0, len(ms))
			for _, m := range ms {
				rows = append(rows, []string{m.ID, m.Name, m.LayoutID, fmt.Sprint(len(m.Assignments)), m.CreatedAt.Local().Format(time.DateTime)})
			}
			printTable([]string{"ID", "NAME", "LAYOUT", "SLOTS", "CREATED"}, rows)
			return nil
		},
	}
}

func (c *CLI) mixupRenderCommand() *cobra.Command {
	var (
		output        string
		width, height int
		levels        int
	)

	cmd := &cobra.Command{
		Use:   "render <id>",
		Short: "Render a saved mixup to a BMP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			m, err := a.store.GetMixup(ctx, args[0])
			if err != nil {
				return err
			}

			w, h := width, height
			if w == 0 && h == 0 {
				w, h = a.cfg.Display.Width, a.cfg.Display.Height
			}
			if err := errors.ValidateDimensions(w, h); err != nil {
				return err
			}
			if levels == 0 {
				levels = a.cfg.Display.Grayscale
			}

			sp := newSpinner(ctx, cmd.ErrOrStderr(), "Compositing "+m.ID)
			sp.Start()
			bmp, err := a.compositor.Render(ctx, m, w, h, levels)
			if err != nil {
				sp.StopWithError("Composite failed: %s", errors.UserMessage(err))
				return err
			}
			sp.Stop()

			if output == "" {
				output = m.ID + "." + formatBMP
			}
			if err := writeBitmap(output, bmp); err != nil {
				return err
			}
			printSuccess("Rendered mixup %s (%s) at %dx%d", StyleValue.Render(m.ID), m.LayoutID, w, h)
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output BMP path (default: <id>.bmp)")
	cmd.Flags().IntVar(&width, "width", 0, "target width (default: display.width)")
	cmd.Flags().IntVar(&height, "height", 0, "target height (default: display.height)")
	cmd.Flags().IntVar(&levels, "levels", 0, "grayscale levels (default: display.grayscale)")
	return cmd
}

func (c *CLI) mixupDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved mixup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.store.DeleteMixup(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess("Deleted mixup %s", args[0])
			return nil
		},
	}
}

// =============================================================================
// Helpers
// =============================================================================

// parseSlots reads slot=slug pairs. A later pair for the same slot wins.
func parseSlots(pairs []string) (mixup.Assignment, error) {
	assign := make(mixup.Assignment, len(pairs))
	for _, p := range pairs {
		slot, slug, ok := strings.Cut(p, "=")
		slot, slug = strings.TrimSpace(slot), strings.TrimSpace(slug)
		if !ok || slot == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "invalid slot assignment %q (want slot=slug)", p)
		}
		assign[slot] = slug
	}
	return assign, nil
}

// sortedSlots returns m's assigned slot IDs in layout order.
func sortedSlots(m mixup.Mixup) []string {
	layout, err := mixup.LookupLayout(m.LayoutID)
	if err != nil {
		return nil
	}
	var ids []string
	for _, s := range layout.Slots {
		if _, ok := m.Assignments[s.ID]; ok {
			ids = append(ids, s.ID)
		}
	}
	return ids
}
