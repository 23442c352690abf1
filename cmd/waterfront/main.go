package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-waterfront/internal/config"
	"github.com/joeblew999/plat-waterfront/internal/logging"
	"github.com/joeblew999/plat-waterfront/internal/server"
)

// Options defines all CLI flags and env vars for the waterfront server.
// Flags: --host, --port, --data-dir, --config-dir, --web-dir, --log-level
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_DATA_DIR, ...
type Options struct {
	Host      string `doc:"Host to bind to" default:"0.0.0.0"`
	Port      int    `doc:"Port to listen on" short:"p" default:"8087"`
	DataDir   string `doc:"Directory for layers and the journal database" default:".data"`
	ConfigDir string `doc:"Directory holding waterfront.cfg.json" default:"."`
	WebDir    string `doc:"Serve templates and static files from this directory instead of the embedded copies"`
	LogLevel  string `doc:"Log level (debug, info, warn, error)" default:"info"`
}

func newServer(opts *Options) (*server.Server, error) {
	return server.New(server.Config{
		Host:      opts.Host,
		Port:      fmt.Sprintf("%d", opts.Port),
		DataDir:   opts.DataDir,
		ConfigDir: opts.ConfigDir,
		WebDir:    opts.WebDir,
		Log:       logging.Setup(opts.LogLevel),
	})
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		var srv *server.Server
		var httpServer *http.Server

		hooks.OnStart(func() {
			var err error
			srv, err = newServer(opts)
			if err != nil {
				fatal("Error starting server: %v", err)
			}
			log := logging.Setup(opts.LogLevel)

			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			fmt.Println()
			fmt.Printf("plat-waterfront server starting...\n")
			fmt.Printf("  Server:  %s\n", baseURL)
			fmt.Printf("  Data:    %s\n", opts.DataDir)
			fmt.Println()
			fmt.Printf("  Map:     %s/map\n", baseURL)
			fmt.Printf("  Docs:    %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI: %s/openapi.json\n", baseURL)
			fmt.Println()

			httpServer = &http.Server{Addr: addr, Handler: srv}
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatal().Err(err).Msg("server error")
			}
		})

		hooks.OnStop(func() {
			if httpServer != nil {
				httpServer.Close()
			}
			if srv != nil {
				srv.Close()
			}
		})
	})

	cli.Root().Use = "waterfront"
	cli.Root().Short = "Waterfront map demo: style switching, markers, hover highlighting and bounds"
	cli.Root().Version = "0.1.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv, err := newServer(opts)
			if err != nil {
				fatal("Error creating server: %v", err)
			}
			defer srv.Close()
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fatal("Error marshaling spec: %v", err)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// styles subcommand: print the resolved style catalog
	stylesCmd := &cobra.Command{
		Use:   "styles",
		Short: "Print the configured map styles",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			cfg, err := config.Load(opts.ConfigDir)
			if err != nil {
				fatal("Error loading config: %v", err)
			}
			catalog, err := cfg.Catalog()
			if err != nil {
				fatal("Error building catalog: %v", err)
			}
			for _, e := range catalog.Entries() {
				fmt.Printf("%-8s %s\n", e.Key, e.URL)
			}
		}),
	}
	cli.Root().AddCommand(stylesCmd)

	cli.Run()
}
