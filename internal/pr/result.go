// Package pr turns model-authored change plans into pushes and pull requests
// on Azure DevOps.
package pr

// Status is the user-visible outcome of a request.
type Status string

const (
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
	StatusInProgress Status = "in-progress"
)

// Result is what a request produces: a status, a message, and on success the pull request URL.
type Result struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
	PR      string `json:"pr,omitempty"`
}

// Failure returns an error Result carrying msg.
func Failure(msg string) Result {
	return Result{Status: StatusError, Message: msg}
}

// OK reports whether the result is a success.
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}
