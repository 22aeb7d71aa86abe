package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/alanmeadows/prwright/internal/pr"
)

// Action names.
const (
	ActionGetFilesContents = "get_files_contents"
	ActionCreatePR         = "create_pr"
)

// handler runs an action. Discovery actions return text; terminal actions return a result.
type handler func(c *Controller, ctx context.Context, run *runState, arg string) (string, *pr.Result, error)

// Action is one entry of the static action registry.
type Action struct {
	Name        string
	Description string
	Argument    string
	Terminal    bool
	handle      handler
}

var registry = []Action{
	{
		Name:        ActionGetFilesContents,
		Description: "get the contents of the files with the given URLs.",
		Argument: "one file URL per line, each in the form " +
			"https://dev.azure.com/<organization>/<project>/_git/<repo>?path=<path>&version=GB<branch>",
		handle: (*Controller).getFilesContents,
	},
	{
		Name:        ActionCreatePR,
		Description: "create a pull request to the default branch.",
		Argument: "file blocks separated by a blank line. Each block is the full file URL on one line " +
			"followed by the exact change description:\n<FILE URL>\n<CHANGE DESCRIPTION>\n\n<ANOTHER FILE URL>\n<ANOTHER CHANGE DESCRIPTION>",
		Terminal: true,
		handle:   (*Controller).createPR,
	},
}

func terminalActions() []Action {
	var out []Action
	for _, a := range registry {
		if a.Terminal {
			out = append(out, a)
		}
	}
	return out
}

// lookup finds name among the offered actions. It never guesses.
func lookup(menu []Action, name string) (Action, error) {
	for _, a := range menu {
		if a.Name == name {
			return a, nil
		}
	}
	return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, name)
}

func renderActions(menu []Action) string {
	blocks := make([]string, 0, len(menu))
	for _, a := range menu {
		blocks = append(blocks, fmt.Sprintf("- %s: %s\n<arg> %s", a.Name, a.Description, a.Argument))
	}
	return strings.Join(blocks, "\n\n")
}

const fileNotFound = "(file not found)"

func (c *Controller) getFilesContents(ctx context.Context, _ *runState, arg string) (string, *pr.Result, error) {
	var parts []string
	for _, line := range strings.Split(arg, "\n") {
		fileURL := strings.TrimSpace(line)
		if fileURL == "" || !strings.HasPrefix(fileURL, "http") {
			continue
		}
		content, found, err := c.files.Resolve(ctx, fileURL)
		switch {
		case err != nil:
			content = fmt.Sprintf("(could not read file: %v)", err)
		case !found:
			content = fileNotFound
		}
		parts = append(parts, "# "+fileURL+"\n"+content)
	}
	return strings.Join(parts, "\n\n"), nil, nil
}

func (c *Controller) createPR(ctx context.Context, run *runState, arg string) (string, *pr.Result, error) {
	if strings.TrimSpace(arg) == "" {
		return "", nil, fmt.Errorf("no files given")
	}
	res := c.creator.CreatePR(ctx, run.prompt+"\n\n"+arg, run.referenceURL)
	return "", &res, nil
}
