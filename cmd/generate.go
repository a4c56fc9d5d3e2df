package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/bk25/internal/core"
)

var (
	generatePlatform string
	generateOutput   string
	generateJSON     bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <description>",
	Short: "Generate an automation script from a description",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c, err := core.New(cfg)
		if err != nil {
			return err
		}

		description := strings.Join(args, " ")
		result := c.GenerateScript(cmd.Context(), description, generatePlatform, nil)

		if generateJSON {
			return json.NewEncoder(os.Stdout).Encode(result)
		}
		if !result.Success && result.Script == "" {
			return fmt.Errorf("%s", result.Error)
		}
		if result.Error != "" {
			fmt.Fprintf(os.Stderr, "warning: %s\n", result.Error)
		}

		if generateOutput != "" {
			if err := os.WriteFile(generateOutput, []byte(result.Script), 0o755); err != nil {
				return err
			}
			fmt.Printf("wrote %s (%v)\n", generateOutput, result.Metadata["generation_method"])
			return nil
		}
		fmt.Println(result.Script)
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVarP(&generatePlatform, "platform", "p", "auto", "target platform (powershell, applescript, bash, auto)")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "write the script to a file instead of stdout")
	generateCmd.Flags().BoolVar(&generateJSON, "json", false, "print the full generation result as JSON")
	rootCmd.AddCommand(generateCmd)
}
