package commands

import (
	"github.com/spf13/cobra"

	"github.com/docentlab/artvoice/pkg/artwork"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <artwork-id>",
	Short: "Resolve and print an artwork context",
	Long: `Resolve an artwork identifier or short-name against the gallery
backend and print the context the docent would be seeded with.

Example:
  artvoice resolve starry-night
  artvoice resolve starry-night --json | jq .title`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cliCtx, err := getContext()
		if err != nil {
			return err
		}

		resolver := artwork.NewHTTPResolver(cliCtx.GalleryURL, galleryHTTPClient(cliCtx))
		art, err := resolver.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		showInstructions, _ := cmd.Flags().GetBool("instructions")
		if showInstructions {
			cmd.Println(art.Instructions)
			return nil
		}
		return outputResult(art)
	},
}

func init() {
	resolveCmd.Flags().Bool("instructions", false, "print the derived session instructions instead of the record")
}
