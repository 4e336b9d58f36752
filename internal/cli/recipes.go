package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/usetrmnl/inkpipe/pkg/recipe"
)

// recipesCommand lists the registered recipes.
func (c *CLI) recipesCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "recipes",
		Aliases: []string{"ls"},
		Short:   "List built-in and catalog recipes",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			defs := a.registry.Definitions()
			if len(defs) == 0 {
				printInfo("No recipes registered")
				return nil
			}
			printTable([]string{"SLUG", "TITLE", "STATUS", "DATA", "SHARP"}, recipeRows(defs))
			printDetail("%d recipes", len(defs))
			return nil
		},
	}
}

// recipeRows formats definitions for printTable.
func recipeRows(defs []recipe.Definition) [][]string {
	rows := make([][]string, 0, len(defs))
	for _, d := range defs {
		status := "published"
		if !d.Published {
			status = StyleWarning.Render("draft")
		}
		data := "-"
		if d.HasDataFetch {
			data = d.Data.Kind
			if data == "" {
				data = "yes"
			}
		}
		rows = append(rows, []string{d.Slug, d.Title, status, data, fmt.Sprint(d.Render.DoubleForSharperText)})
	}
	return rows
}
