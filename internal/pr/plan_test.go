package pr

import (
	"testing"

	"github.com/alanmeadows/prwright/internal/ado"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fileA = "https://dev.azure.com/contoso/web/_git/portal?path=/src/a.ts&version=GBmain"

func TestParsePlans(t *testing.T) {
	raw := "```json\n" + `[{
		"title": "Add retry",
		"description": "adds retry to the client",
		"branch": "Add Retry",
		"commit_message": "add retry",
		"files": [
			{"change_description": "wrap calls", "url": "` + fileA + `", "pr_type": "edit"},
			{"change_description": "remove", "url": "https://dev.azure.com/contoso/web/_git/portal?path=/old.ts", "pr_type": "delete"}
		]
	}]` + "\n```"

	plans, err := ParsePlans(raw)
	require.NoError(t, err)
	require.Len(t, plans, 1)

	p := plans[0]
	assert.Equal(t, "Add retry", p.Title)
	assert.Equal(t, "add retry", p.CommitMessage)
	require.Len(t, p.Files, 2)
	assert.Equal(t, "/src/a.ts", p.Files[0].Path)
	assert.Equal(t, ado.ChangeEdit, p.Files[0].Type)
	assert.Equal(t, "/old.ts", p.Files[1].Path)
	assert.Nil(t, p.Files[1].Content)
	assert.Equal(t, ado.Location{Organization: "contoso", Project: "web", Repository: "portal"}, p.Location())
}

func TestParsePlansRejects(t *testing.T) {
	tests := map[string]string{
		"not json":         "I could not decide.",
		"object":           `{"title":"x"}`,
		"empty array":      `[]`,
		"missing title":    `[{"branch":"b","commit_message":"m","files":[{"url":"` + fileA + `","pr_type":"edit"}]}]`,
		"missing branch":   `[{"title":"t","commit_message":"m","files":[{"url":"` + fileA + `","pr_type":"edit"}]}]`,
		"missing commit":   `[{"title":"t","branch":"b","files":[{"url":"` + fileA + `","pr_type":"edit"}]}]`,
		"no files":         `[{"title":"t","branch":"b","commit_message":"m","files":[]}]`,
		"bad pr_type":      `[{"title":"t","branch":"b","commit_message":"m","files":[{"url":"` + fileA + `","pr_type":"rename"}]}]`,
		"bad url":          `[{"title":"t","branch":"b","commit_message":"m","files":[{"url":"src/a.ts","pr_type":"edit"}]}]`,
		"url without path": `[{"title":"t","branch":"b","commit_message":"m","files":[{"url":"https://dev.azure.com/contoso/web/_git/portal","pr_type":"edit"}]}]`,
		"mixed repositories": `[{"title":"t","branch":"b","commit_message":"m","files":[
			{"url":"` + fileA + `","pr_type":"edit"},
			{"url":"https://dev.azure.com/contoso/web/_git/other?path=/x","pr_type":"edit"}]}]`,
		"second plan invalid": `[
			{"title":"t","branch":"b","commit_message":"m","files":[{"url":"` + fileA + `","pr_type":"edit"}]},
			{"title":"","branch":"b","commit_message":"m","files":[{"url":"` + fileA + `","pr_type":"edit"}]}]`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			plans, err := ParsePlans(raw)
			assert.ErrorIs(t, err, ErrInvalidPlan)
			assert.Nil(t, plans)
		})
	}
}
