package commands

import (
	"fmt"
	"os"

	"github.com/cookscabinet/cabinet/internal/ports/inbound"
	"github.com/spf13/cobra"
)

type generateOptions struct {
	imagePath string
	prompt    string
}

func newGenerateCmd(env *environment) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a recipe from a food photo",
		Long: "Sends the photo to the vision model, renders a fresh picture of the dish " +
			"and saves the resulting recipe.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			image, err := os.ReadFile(opts.imagePath)
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}

			return env.withRuntime(cmd.Context(), func(rt *Runtime) error {
				recipe, err := rt.Generation.GenerateFromImage(cmd.Context(), inbound.GenerateRecipeCommand{
					Image:  image,
					Prompt: opts.prompt,
				})
				if err != nil {
					return err
				}
				printRecipe(cmd.OutOrStdout(), recipe)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&opts.imagePath, "image", "i", "", "Path to the photo (required)")
	cmd.Flags().StringVarP(&opts.prompt, "prompt", "p", "", "Replace the default request text")
	_ = cmd.MarkFlagRequired("image")

	return cmd
}
