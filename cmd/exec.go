package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/bk25/internal/executor"
)

var (
	execPlatform string
	execPolicy   string
	execTimeout  int
	execWorkdir  string
	execFile     string
	execJSON     bool
)

var execCmd = &cobra.Command{
	Use:   "exec [script]",
	Short: "Run a script synchronously under the admission policy",
	RunE: func(cmd *cobra.Command, args []string) error {
		script := strings.Join(args, " ")
		if execFile != "" {
			data, err := os.ReadFile(execFile)
			if err != nil {
				return err
			}
			script = string(data)
		}
		if strings.TrimSpace(script) == "" {
			return fmt.Errorf("provide a script argument or --file")
		}

		result := executor.ExecuteDirect(cmd.Context(), executor.ExecutionRequest{
			Script:           script,
			Platform:         execPlatform,
			Policy:           executor.Policy(execPolicy),
			TimeoutSeconds:   execTimeout,
			WorkingDirectory: execWorkdir,
		})

		if execJSON {
			return json.NewEncoder(os.Stdout).Encode(result)
		}
		if result.Output != "" {
			fmt.Print(result.Output)
		}
		if result.ErrorOutput != "" {
			fmt.Fprint(os.Stderr, result.ErrorOutput)
		}
		if !result.Success {
			return fmt.Errorf("%s (status %s, exit code %d)", result.Error, result.Status, result.ExitCode)
		}
		return nil
	},
}

func init() {
	execCmd.Flags().StringVarP(&execPlatform, "platform", "p", "bash", "script platform")
	execCmd.Flags().StringVar(&execPolicy, "policy", "standard", "admission policy (safe, restricted, standard, elevated)")
	execCmd.Flags().IntVarP(&execTimeout, "timeout", "t", 300, "timeout in seconds")
	execCmd.Flags().StringVarP(&execWorkdir, "workdir", "w", "", "working directory")
	execCmd.Flags().StringVarP(&execFile, "file", "f", "", "read the script from a file")
	execCmd.Flags().BoolVar(&execJSON, "json", false, "print the execution result as JSON")
	rootCmd.AddCommand(execCmd)
}
