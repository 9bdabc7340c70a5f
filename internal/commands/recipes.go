package commands

import (
	"fmt"
	"os"

	"github.com/cookscabinet/cabinet/internal/ports/inbound"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newRecipesCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "recipes",
		Aliases: []string{"recipe"},
		Short:   "Manage stored recipes",
	}

	cmd.AddCommand(
		newRecipesListCmd(env),
		newRecipesShowCmd(env),
		newRecipesDeleteCmd(env),
		newRecipesRenameCmd(env),
		newRecipesClearImageCmd(env),
		newRecipesExportImageCmd(env),
	)

	return cmd
}

func newRecipesListCmd(env *environment) *cobra.Command {
	var params inbound.ListParams

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recipes by title",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return env.withRuntime(cmd.Context(), func(rt *Runtime) error {
				list, err := rt.Recipes.ListRecipes(cmd.Context(), params)
				if err != nil {
					return err
				}
				printRecipeList(cmd.OutOrStdout(), list)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&params.Page, "page", 1, "Page number")
	cmd.Flags().IntVar(&params.PageSize, "page-size", 20, "Recipes per page")
	cmd.Flags().StringVarP(&params.Query, "query", "q", "", "Filter by title")

	return cmd
}

func newRecipesShowCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return env.withRuntime(cmd.Context(), func(rt *Runtime) error {
				recipe, err := rt.Recipes.GetRecipe(cmd.Context(), id)
				if err != nil {
					return err
				}
				printRecipe(cmd.OutOrStdout(), recipe)
				return nil
			})
		},
	}
}

func newRecipesDeleteCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return env.withRuntime(cmd.Context(), func(rt *Runtime) error {
				if err := rt.Recipes.DeleteRecipe(cmd.Context(), id); err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "Deleted %s", id)
				return nil
			})
		},
	}
}

func newRecipesRenameCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <title>",
		Short: "Change a recipe title",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			title := joinArgs(args[1:])

			return env.withRuntime(cmd.Context(), func(rt *Runtime) error {
				recipe, err := rt.Recipes.UpdateRecipe(cmd.Context(), inbound.UpdateRecipeCommand{
					RecipeID: id,
					Title:    &title,
				})
				if err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "Renamed %s to %q", id, recipe.Title)
				return nil
			})
		},
	}
}

func newRecipesClearImageCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-image <id>",
		Short: "Remove a recipe image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return env.withRuntime(cmd.Context(), func(rt *Runtime) error {
				if _, err := rt.Recipes.ClearRecipeImage(cmd.Context(), id); err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "Cleared image of %s", id)
				return nil
			})
		},
	}
}

func newRecipesExportImageCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "export-image <id> <file>",
		Short: "Write a recipe image to a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return env.withRuntime(cmd.Context(), func(rt *Runtime) error {
				image, err := rt.Recipes.GetRecipeImage(cmd.Context(), id)
				if err != nil {
					return err
				}
				if err := os.WriteFile(args[1], image.Data, 0o644); err != nil {
					return fmt.Errorf("write image: %w", err)
				}
				printOK(cmd.OutOrStdout(), "Wrote %d bytes to %s", len(image.Data), args[1])
				return nil
			})
		},
	}
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid recipe id %q: %w", raw, err)
	}
	return id, nil
}
