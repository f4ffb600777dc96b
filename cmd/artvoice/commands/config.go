package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/docentlab/artvoice/pkg/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage CLI configuration and gallery contexts.

Contexts allow you to target multiple gallery backends,
similar to kubectl's context management.

Configuration is stored in ~/.artvoice/config.yaml`,
}

var configAddContextCmd = &cobra.Command{
	Use:   "add-context <name>",
	Short: "Add a new gallery context",
	Long: `Add a new gallery context with the specified name.

Example:
  artvoice config add-context local --gallery-url http://localhost:8080
  artvoice config add-context prod --gallery-url https://gallery.example --api-key KEY --voice sage`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		galleryURL, err := cmd.Flags().GetString("gallery-url")
		if err != nil {
			return fmt.Errorf("failed to read 'gallery-url' flag: %w", err)
		}
		if galleryURL == "" {
			return fmt.Errorf("--gallery-url is required")
		}

		realtimeURL, _ := cmd.Flags().GetString("realtime-url")
		apiKey, _ := cmd.Flags().GetString("api-key")
		model, _ := cmd.Flags().GetString("model")
		voice, _ := cmd.Flags().GetString("voice")
		timeout, _ := cmd.Flags().GetInt("timeout")
		vadThreshold, _ := cmd.Flags().GetFloat64("vad-threshold")
		vadPrefix, _ := cmd.Flags().GetInt("vad-prefix-padding-ms")
		vadSilence, _ := cmd.Flags().GetInt("vad-silence-duration-ms")

		ctx := &cli.Context{
			GalleryURL:           galleryURL,
			RealtimeURL:          realtimeURL,
			APIKey:               apiKey,
			Model:                model,
			Voice:                voice,
			Timeout:              timeout,
			VADThreshold:         vadThreshold,
			VADPrefixPaddingMs:   vadPrefix,
			VADSilenceDurationMs: vadSilence,
		}

		if err := globalConfig.AddContext(name, ctx); err != nil {
			return err
		}

		cli.PrintSuccess("Context %q added", name)
		return nil
	},
}

var configListContextsCmd = &cobra.Command{
	Use:   "list-contexts",
	Short: "List all contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		names := globalConfig.ListContexts()
		if len(names) == 0 {
			cli.PrintInfo("No contexts configured. Add one with 'artvoice config add-context'.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CURRENT\tNAME\tGALLERY\tVOICE\tAPI KEY")
		for _, name := range names {
			ctx := globalConfig.Contexts[name]
			current := ""
			if name == globalConfig.CurrentContext {
				current = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				current, name, ctx.GalleryURL, ctx.Voice, cli.MaskAPIKey(ctx.APIKey))
		}
		return w.Flush()
	},
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Set the current context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := globalConfig.UseContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("Switched to context %q", args[0])
		return nil
	},
}

var configDeleteContextCmd = &cobra.Command{
	Use:   "delete-context <name>",
	Short: "Delete a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := globalConfig.DeleteContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("Context %q deleted", args[0])
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show a context (current context if no name given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		ctx, err := globalConfig.ResolveContext(name)
		if err != nil {
			return err
		}

		// Never print the key itself.
		shown := *ctx
		shown.APIKey = cli.MaskAPIKey(ctx.APIKey)
		return outputResult(&shown)
	},
}

func init() {
	configAddContextCmd.Flags().String("gallery-url", "", "gallery backend base URL (required)")
	configAddContextCmd.Flags().String("realtime-url", "", "realtime endpoint base URL override")
	configAddContextCmd.Flags().String("api-key", "", "gallery API key")
	configAddContextCmd.Flags().String("model", "", "realtime model ID")
	configAddContextCmd.Flags().String("voice", "", "docent voice")
	configAddContextCmd.Flags().Int("timeout", 0, "gallery request timeout in seconds")
	configAddContextCmd.Flags().Float64("vad-threshold", 0, "speech detection sensitivity (0.0-1.0)")
	configAddContextCmd.Flags().Int("vad-prefix-padding-ms", 0, "audio kept before detected speech (ms)")
	configAddContextCmd.Flags().Int("vad-silence-duration-ms", 0, "trailing silence that ends a turn (ms)")

	configCmd.AddCommand(configAddContextCmd)
	configCmd.AddCommand(configListContextsCmd)
	configCmd.AddCommand(configUseContextCmd)
	configCmd.AddCommand(configDeleteContextCmd)
	configCmd.AddCommand(configShowCmd)
}
