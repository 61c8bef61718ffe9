package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/agutierrezreginodev/potencia-agenda/internal/auth"
)

type keygenUser struct {
	ID      string         `yaml:"id"`
	APIKeys []keygenAPIKey `yaml:"api_keys"`
}

type keygenAPIKey struct {
	KeyHash     string `yaml:"key_hash"`
	Description string `yaml:"description"`
}

func newKeygenCommand() *cobra.Command {
	var (
		userID      string
		description string
	)

	cmd := &cobra.Command{
		Use:   "keygen [api-key]",
		Short: "Generate an API key and the hash to put in config.yaml",
		Long:  "Generate a new API key, or hash an existing one, and print the users entry for config.yaml.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 1 {
				key = args[0]
			} else {
				var err error
				if key, err = auth.GenerateAPIKey(); err != nil {
					return err
				}
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "API Key: %s\n", key)
			fmt.Fprintf(w, "SHA-256 Hash: %s\n\n", auth.HashAPIKey(key))
			fmt.Fprintln(w, "Add this to the users list in config.yaml:")

			entry := []keygenUser{{
				ID:      userID,
				APIKeys: []keygenAPIKey{{KeyHash: auth.HashAPIKey(key), Description: description}},
			}}
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			if err := enc.Encode(entry); err != nil {
				return err
			}
			return enc.Close()
		},
	}

	cmd.Flags().StringVar(&userID, "user", "user-1", "User ID the key belongs to")
	cmd.Flags().StringVar(&description, "description", "Generated key", "Key description")
	return cmd
}
