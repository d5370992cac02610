package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"algoscope/internal/config"
)

var (
	configFormat string
	configForce  bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage algoscope configuration",
	Long:  "View and manage algoscope configuration stored in .algoscope/config.toml",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Display the configuration after defaults, the config file and
ALGOSCOPE_* environment variables are merged.

Examples:
  algoscope config show
  algoscope config show --format json`,
	Run: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to .algoscope/config.toml",
	Run:   runConfigInit,
}

var configEnvCmd = &cobra.Command{
	Use:   "env",
	Short: "List supported environment variables",
	Run:   runConfigEnv,
}

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format (toml, json)")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configEnvCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()

	var (
		data []byte
		err  error
	)
	switch configFormat {
	case "toml":
		data, err = toml.Marshal(cfg)
	case "json":
		data, err = json.MarshalIndent(cfg, "", "  ")
	default:
		err = fmt.Errorf("unsupported format: %s", configFormat)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitFailure)
	}
	fmt.Println(strings.TrimRight(string(data), "\n"))
}

func runConfigInit(cmd *cobra.Command, args []string) {
	root, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitFailure)
	}

	path := filepath.Join(root, config.DirName, config.FileName)
	if _, err := os.Stat(path); err == nil && !configForce {
		fmt.Fprintf(os.Stderr, "Error: %s already exists (use --force to overwrite)\n", path)
		os.Exit(exitFailure)
	}

	written, err := config.DefaultConfig().Save(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing config: %v\n", err)
		os.Exit(exitFailure)
	}
	fmt.Printf("Wrote %s\n", written)
}

func runConfigEnv(cmd *cobra.Command, args []string) {
	for _, name := range envVars(config.DefaultConfig()) {
		fmt.Println(name)
	}
}

// envVars lists the environment variable for every config key, in the form
// viper resolves them: prefix plus the dotted key with dots as underscores.
func envVars(cfg *config.Config) []string {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil
	}

	var out []string
	var walk func(prefix string, m map[string]interface{})
	walk = func(prefix string, m map[string]interface{}) {
		for k, v := range m {
			key := k
			if prefix != "" {
				key = prefix + "_" + k
			}
			if sub, ok := v.(map[string]interface{}); ok {
				walk(key, sub)
				continue
			}
			out = append(out, strings.ToUpper(config.EnvPrefix+"_"+key))
		}
	}
	walk("", doc)
	sort.Strings(out)
	return out
}
