package main

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nao1215/opsdash/internal/config"
)

//go:embed templates/opsdash.yaml
var configTemplate embed.FS

// configFileName is the default configuration file name.
const configFileName = config.DefaultConfigFile

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new opsdash configuration file",
		Long: `Initialize creates a new .opsdash configuration file in the current directory.

The generated file includes:
- The backend address and request timeout
- Commented examples for the session cookie, headers and proxy
- Upload limits and timer periods with their default values

--base-url and --cookie are written into the server section, so the file
works without editing.

Examples:
  # Create .opsdash in current directory
  opsdash init

  # Point the file at a remote backend with a copied session cookie
  opsdash init --base-url http://10.0.0.5:5000 --cookie "session=eyJ..."

  # Create the per-user file under $XDG_CONFIG_HOME/opsdash
  opsdash init --xdg

  # Force overwrite existing file
  opsdash init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", configFileName,
		"Output file path for the configuration")
	cmd.Flags().Bool("xdg", false,
		"Write to the XDG config directory instead of --output")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")
	cmd.Flags().String("base-url", "", "Backend address to write into the file")
	cmd.Flags().String("cookie", "", "Session cookie to write into the file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	outputPath, err := flags.GetString("output")
	if err != nil {
		return err
	}
	if useXDG, _ := flags.GetBool("xdg"); useXDG { //nolint:errcheck // flag is always defined
		outputPath = filepath.Join(config.XDGConfigDir(), "config.yaml")
	}
	force, err := flags.GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/opsdash.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	server := map[string]string{}
	for flag, key := range map[string]string{"base-url": "baseURL", "cookie": "cookie"} {
		if v, _ := flags.GetString(flag); v != "" { //nolint:errcheck // flag is always defined
			server[key] = v
		}
	}
	if len(server) > 0 {
		if content, err = setServerValues(content, server); err != nil {
			return fmt.Errorf("failed to fill config template: %w", err)
		}
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// The file may hold a session cookie.
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	if _, ok := server["cookie"]; !ok {
		fmt.Fprintln(out, "\nMost endpoints need a session cookie: set server.cookie or pass --cookie.")
	}
	return nil
}

// setServerValues sets keys of the server mapping in a YAML document,
// keeping its comments. Keys the mapping lacks are appended.
func setServerValues(doc []byte, values map[string]string) ([]byte, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(doc, &root); err != nil {
		return nil, err
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, errors.New("empty template")
	}
	server := mappingValue(root.Content[0], "server")
	if server == nil || server.Kind != yaml.MappingNode {
		return nil, errors.New("template has no server section")
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if v := mappingValue(server, k); v != nil {
			v.Value, v.Tag, v.Style = values[k], "!!str", yaml.DoubleQuotedStyle
			continue
		}
		server.Content = append(server.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: values[k], Style: yaml.DoubleQuotedStyle},
		)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&root); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// mappingValue returns the value node of key in mapping m, or nil.
func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}
