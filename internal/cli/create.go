package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alanmeadows/prwright/internal/pr"
	"github.com/alanmeadows/prwright/internal/request"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	createURLFlag   string
	createScopeFlag string
)

func init() {
	createCmd.Flags().StringVar(&createURLFlag, "url", "", "Azure DevOps repository, file or pull request URL (required)")
	createCmd.Flags().StringVar(&createScopeFlag, "scope", string(request.ScopeRepo), "Request scope: repo or file")
	_ = createCmd.MarkFlagRequired("url")
}

var createCmd = &cobra.Command{
	Use:   "create [prompt]",
	Short: "Create a pull request from a change request",
	Long: `Describe a change in plain language and point at an Azure DevOps URL.

With --scope repo (the default) the model first reads the repository to find
the files involved. With --scope file the change is planned directly from the
URL, which may name a file or an existing pull request.

When no prompt is given and stdin is a terminal, prwright asks for one.`,
	Example: `  prwright create "add a health endpoint" --url https://dev.azure.com/org/proj/_git/api
  prwright create "fix the typo in the title" --scope file \
    --url "https://dev.azure.com/org/proj/_git/api?path=/README.md&version=GBmain"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt := strings.TrimSpace(strings.Join(args, " "))
		if prompt == "" && term.IsTerminal(int(os.Stdin.Fd())) {
			var err error
			if prompt, err = askPrompt(); err != nil {
				return err
			}
		}

		store := newHistoryStore(appConfig)
		runner, err := newRunner(cmd.Context(), appConfig, store)
		if err != nil {
			return err
		}

		res := runner.Run(cmd.Context(), request.ChangeRequest{
			Prompt:       prompt,
			ReferenceURL: createURLFlag,
			Scope:        request.ParseScope(createScopeFlag),
		})
		printResult(cmd.OutOrStdout(), res)
		if !res.OK() {
			return fmt.Errorf("request failed: %s", res.Message)
		}
		return nil
	},
}

func askPrompt() (string, error) {
	var prompt string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("What should change?").
				Value(&prompt).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("a prompt is required")
					}
					return nil
				}),
		),
	)
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("form cancelled: %w", err)
	}
	return strings.TrimSpace(prompt), nil
}

var (
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
)

func printResult(w io.Writer, res pr.Result) {
	style := errorStyle
	if res.OK() {
		style = successStyle
	}
	fmt.Fprintf(w, "%s %s\n", style.Render(string(res.Status)), res.Message)
	if res.PR != "" {
		fmt.Fprintln(w, res.PR)
	}
}
