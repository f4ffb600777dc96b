package commands

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/docentlab/artvoice/pkg/cli"
)

var (
	// Global flags
	cfgFile     string
	contextName string
	outputFile  string
	outputJSON  bool
	verbose     bool

	// Global configuration
	globalConfig *cli.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "artvoice",
	Short: "Voice conversations with a museum docent",
	Long: `artvoice - talk with an AI docent about the artwork in front of you.

The tool resolves an artwork record from your gallery backend, obtains a
short-lived session credential, and opens a live speech conversation with
a realtime model seeded with the artwork's curatorial context.

Configuration is stored in ~/.artvoice/ and supports multiple gallery
contexts, similar to kubectl's context management.

Examples:
  # Point at a gallery backend
  artvoice config add-context local --gallery-url http://localhost:8080

  # Look at what the docent will know about a piece
  artvoice resolve starry-night

  # Start talking
  artvoice talk starry-night
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.artvoice/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&contextName, "context", "c", "", "context name to use")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output as JSON (for piping)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(talkCmd)
}

func initConfig() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	var err error
	globalConfig, err = cli.LoadConfigWithPath(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing config: %v\n", err)
		os.Exit(1)
	}
}

// getContext returns the gallery context configuration to use, with
// environment overrides applied to a copy so the stored context is never
// mutated.
func getContext() (*cli.Context, error) {
	if globalConfig == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}

	ctx, err := globalConfig.ResolveContext(contextName)
	if err != nil {
		if contextName == "" {
			return nil, fmt.Errorf("no context specified. Use -c flag or set a default context with 'artvoice config use-context'")
		}
		return nil, err
	}

	resolved := *ctx
	applyEnvOverrides(&resolved)
	return &resolved, nil
}

// applyEnvOverrides lets the environment take precedence over the config
// file for the gallery endpoint and key.
func applyEnvOverrides(ctx *cli.Context) {
	if v := os.Getenv("ARTVOICE_GALLERY_URL"); v != "" {
		ctx.GalleryURL = v
	}
	if v := os.Getenv("ARTVOICE_API_KEY"); v != "" {
		ctx.APIKey = v
	}
}

// galleryHTTPClient builds the HTTP client for gallery requests, applying
// the context's timeout and API key.
func galleryHTTPClient(ctx *cli.Context) *http.Client {
	client := &http.Client{}
	if ctx.Timeout > 0 {
		client.Timeout = time.Duration(ctx.Timeout) * time.Second
	}
	if ctx.APIKey != "" {
		client.Transport = &authTransport{key: ctx.APIKey, base: http.DefaultTransport}
	}
	return client
}

// authTransport adds the gallery API key to outgoing requests.
type authTransport struct {
	key  string
	base http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+t.key)
	return t.base.RoundTrip(r)
}

// outputResult outputs the result using the cli package
func outputResult(result any) error {
	format := cli.FormatYAML
	if outputJSON {
		format = cli.FormatJSON
	}
	return cli.Output(result, cli.OutputOptions{
		Format: format,
		File:   outputFile,
	})
}
