package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/bk25/internal/persona"
)

var personaCmd = &cobra.Command{
	Use:   "persona",
	Short: "Inspect and create personas",
}

var personaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the personas in the configured directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		reg := persona.NewRegistry(cfg.Personas.Path)
		if err := reg.LoadAll(); err != nil {
			return err
		}
		for _, p := range reg.List() {
			fmt.Printf("%-20s %s\n", p.ID, p.Description)
		}
		return nil
	},
}

var personaIDRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

var personaNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a persona descriptor interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var p persona.Persona
		var capabilities string

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Persona id").
					Description("Lowercase letters, digits and dashes").
					Value(&p.ID).
					Validate(func(s string) error {
						if !personaIDRe.MatchString(s) {
							return fmt.Errorf("invalid id")
						}
						return nil
					}),
				huh.NewInput().Title("Display name").Value(&p.Name),
				huh.NewInput().Title("Description").Value(&p.Description),
				huh.NewInput().Title("Greeting").Value(&p.Greeting),
			),
			huh.NewGroup(
				huh.NewText().
					Title("System prompt").
					Description("The instructions that shape every reply").
					Value(&p.SystemPrompt),
				huh.NewInput().
					Title("Capabilities").
					Description("Comma-separated, optional").
					Value(&capabilities),
			),
		)
		if err := form.Run(); err != nil {
			return err
		}

		for _, c := range strings.Split(capabilities, ",") {
			if c = strings.TrimSpace(c); c != "" {
				p.Capabilities = append(p.Capabilities, c)
			}
		}

		path := filepath.Join(cfg.Personas.Path, p.ID+".json")
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("persona file already exists: %s", path)
		}
		if err := os.MkdirAll(cfg.Personas.Path, 0o755); err != nil {
			return err
		}
		data, err := json.MarshalIndent(&p, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		fmt.Printf("created %s\n", path)
		return nil
	},
}

func init() {
	personaCmd.AddCommand(personaListCmd, personaNewCmd)
	rootCmd.AddCommand(personaCmd)
}
