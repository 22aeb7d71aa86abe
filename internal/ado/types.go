package ado

// ZeroObjectID is the object id ADO records as newObjectId when a ref is deleted.
const ZeroObjectID = "0000000000000000000000000000000000000000"

// RefUpdate is one ref movement recorded by a push.
type RefUpdate struct {
	Name        string `json:"name"`
	OldObjectID string `json:"oldObjectId"`
	NewObjectID string `json:"newObjectId,omitempty"`
}

// Deleted reports whether the update removed the ref.
func (u RefUpdate) Deleted() bool {
	return u.NewObjectID == ZeroObjectID
}

// Push is a push summary, with ref updates when fetched by id.
type Push struct {
	ID         int         `json:"pushId"`
	RefUpdates []RefUpdate `json:"refUpdates"`
}

// RefUpdate returns the update recorded for ref, or nil.
func (p *Push) RefUpdate(ref string) *RefUpdate {
	for i := range p.RefUpdates {
		if p.RefUpdates[i].Name == ref {
			return &p.RefUpdates[i]
		}
	}
	return nil
}

// ChangeType is the kind of change a commit applies to one path.
type ChangeType string

const (
	ChangeAdd    ChangeType = "add"
	ChangeEdit   ChangeType = "edit"
	ChangeDelete ChangeType = "delete"
)

// Change is one file change inside a pushed commit. Content is raw text;
// it is base64-encoded on the wire. Delete changes carry no content.
type Change struct {
	Type    ChangeType
	Path    string
	Content *string
}

// NewPush describes a push of a single commit onto one branch.
type NewPush struct {
	Branch     string
	BaseCommit string
	Message    string
	Changes    []Change
}

// PullRequest is the subset of ADO pull request metadata prwright uses.
type PullRequest struct {
	ID           int
	Title        string
	Description  string
	Status       string
	SourceBranch string
	TargetBranch string
	Repository   string
}

// CreatePRParams holds the fields for opening a pull request.
type CreatePRParams struct {
	SourceBranch string
	TargetBranch string
	Title        string
	Description  string
}

type gitItem struct {
	Path          string `json:"path"`
	GitObjectType string `json:"gitObjectType"`
	IsFolder      bool   `json:"isFolder"`
	Content       string `json:"content"`
}

type gitItemList struct {
	Value []gitItem `json:"value"`
	Count int       `json:"count"`
}

type gitRepository struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	DefaultBranch string `json:"defaultBranch"`
}

type gitPushList struct {
	Value []Push `json:"value"`
	Count int    `json:"count"`
}

type gitCommitRef struct {
	CommitID string `json:"commitId"`
}

type gitCommitList struct {
	Value []gitCommitRef `json:"value"`
	Count int            `json:"count"`
}

type gitRef struct {
	Name     string `json:"name"`
	ObjectID string `json:"objectId"`
}

type gitRefList struct {
	Value []gitRef `json:"value"`
	Count int      `json:"count"`
}

type gitPushCreate struct {
	RefUpdates []RefUpdate       `json:"refUpdates"`
	Commits    []gitCommitCreate `json:"commits"`
}

type gitCommitCreate struct {
	Comment string          `json:"comment"`
	Changes []gitPushChange `json:"changes"`
}

type gitPushChange struct {
	ChangeType ChangeType     `json:"changeType"`
	Item       gitItemPath    `json:"item"`
	NewContent *gitNewContent `json:"newContent,omitempty"`
}

type gitItemPath struct {
	Path string `json:"path"`
}

type gitNewContent struct {
	Content     string `json:"content"`
	ContentType string `json:"contentType"`
}

// adoPullRequest maps to the ADO pull request JSON.
type adoPullRequest struct {
	PullRequestID int    `json:"pullRequestId"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Status        string `json:"status"`
	SourceRefName string `json:"sourceRefName"`
	TargetRefName string `json:"targetRefName"`
	Repository    struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"repository"`
}

func (p adoPullRequest) toPullRequest() *PullRequest {
	return &PullRequest{
		ID:           p.PullRequestID,
		Title:        p.Title,
		Description:  p.Description,
		Status:       p.Status,
		SourceBranch: p.SourceRefName,
		TargetBranch: p.TargetRefName,
		Repository:   p.Repository.Name,
	}
}

type adoPullRequestList struct {
	Value []adoPullRequest `json:"value"`
	Count int              `json:"count"`
}

type adoPullRequestCreate struct {
	SourceRefName string `json:"sourceRefName"`
	TargetRefName string `json:"targetRefName"`
	Title         string `json:"title"`
	Description   string `json:"description"`
}

type adoIteration struct {
	ID int `json:"id"`
}

type adoIterationList struct {
	Value []adoIteration `json:"value"`
	Count int            `json:"count"`
}

type adoIterationChanges struct {
	ChangeEntries []struct {
		ChangeType string `json:"changeType"`
		Item       struct {
			Path string `json:"path"`
		} `json:"item"`
	} `json:"changeEntries"`
}

// adoError is the error envelope ADO returns on failures.
type adoError struct {
	Message   string `json:"message"`
	TypeKey   string `json:"typeKey"`
	ErrorCode int    `json:"errorCode"`
}
