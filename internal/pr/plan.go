package pr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alanmeadows/prwright/internal/ado"
	"github.com/alanmeadows/prwright/internal/llm"
)

// Plan is one repository's intended commit and pull request.
type Plan struct {
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	Branch        string       `json:"branch"`
	CommitMessage string       `json:"commit_message"`
	Files         []FileChange `json:"files"`

	// existingBranch marks Branch as an existing ref to be pushed to as-is.
	existingBranch bool
}

// FileChange is one file in a plan. Path and Content are filled in after
// validation; Content is nil exactly when Type is delete.
type FileChange struct {
	ChangeDescription string         `json:"change_description"`
	URL               string         `json:"url"`
	Type              ado.ChangeType `json:"pr_type"`
	Path              string         `json:"-"`
	Content           *string        `json:"-"`
}

// ErrInvalidPlan is wrapped by every plan validation failure.
var ErrInvalidPlan = errors.New("invalid plan")

// ParsePlans extracts and validates the plan array from a model reply.
// Nothing is returned unless every plan is valid.
func ParsePlans(raw string) ([]Plan, error) {
	plans, err := llm.ParseJSONResponse[[]Plan](raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPlan, err)
	}
	if len(plans) == 0 {
		return nil, fmt.Errorf("%w: no plans", ErrInvalidPlan)
	}
	for i := range plans {
		if err := plans[i].Validate(); err != nil {
			return nil, fmt.Errorf("plan %d: %w", i, err)
		}
	}
	return plans, nil
}

// Validate checks required fields and resolves each file's repository path.
// All files must belong to one repository.
func (p *Plan) Validate() error {
	switch {
	case strings.TrimSpace(p.Title) == "":
		return fmt.Errorf("%w: missing title", ErrInvalidPlan)
	case strings.TrimSpace(p.Branch) == "":
		return fmt.Errorf("%w: missing branch", ErrInvalidPlan)
	case strings.TrimSpace(p.CommitMessage) == "":
		return fmt.Errorf("%w: missing commit_message", ErrInvalidPlan)
	case len(p.Files) == 0:
		return fmt.Errorf("%w: no files", ErrInvalidPlan)
	}

	var repo ado.Location
	for i := range p.Files {
		f := &p.Files[i]
		switch f.Type {
		case ado.ChangeAdd, ado.ChangeEdit, ado.ChangeDelete:
		default:
			return fmt.Errorf("%w: file %d has pr_type %q", ErrInvalidPlan, i, f.Type)
		}
		loc, err := ado.ParseLocation(f.URL)
		if err != nil {
			return fmt.Errorf("%w: file %d: %w", ErrInvalidPlan, i, err)
		}
		if loc.FilePath == "" {
			return fmt.Errorf("%w: file %d url has no path: %s", ErrInvalidPlan, i, f.URL)
		}
		if i == 0 {
			repo = repoOf(loc)
		} else if repoOf(loc) != repo {
			return fmt.Errorf("%w: file %d is in a different repository than file 0", ErrInvalidPlan, i)
		}
		f.Path = loc.FilePath
	}
	return nil
}

// Location returns the repository the plan targets. Validate must have succeeded.
func (p *Plan) Location() ado.Location {
	loc, _ := ado.ParseLocation(p.Files[0].URL)
	return repoOf(loc)
}
