// ABOUTME: Wizard command for capacity-planner CLI
// ABOUTME: Builds a scenario interactively and writes it as a TOML file

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/obgclub/capacity-planner/config"
	"github.com/obgclub/capacity-planner/internal/render"
	"github.com/obgclub/capacity-planner/internal/wizard"
	"github.com/obgclub/capacity-planner/models"
)

var wizardOut string

var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Build a scenario file interactively",
	Long: `Walk through table counts, opening hours and candidate member counts, then
write the result as a scenario file. Starts from --scenario when given.`,
	Run: func(cmd *cobra.Command, args []string) {
		exitCode := runWizard(context.Background(), os.Stdout, func(base models.Scenario) (models.Scenario, error) {
			return wizard.New(base).Run()
		})
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(wizardCmd)
	wizardCmd.Flags().StringVarP(&wizardOut, "out", "o", "scenario.toml", "File to write the scenario to")
}

// runWizard collects a scenario through ask and saves it to --out
func runWizard(_ context.Context, w io.Writer, ask func(models.Scenario) (models.Scenario, error)) int {
	base, err := loadScenario()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	scenario, err := ask(base)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if err := config.SaveScenario(wizardOut, scenario); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	fmt.Fprintf(w, "%s %s\n", render.StatusOK.Render("✓ Scenario written to"), wizardOut)
	fmt.Fprintf(w, "Next: capacity-planner analyze --scenario %s\n", wizardOut)
	return 0
}
