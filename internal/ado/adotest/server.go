// Package adotest provides an in-memory Azure DevOps Git REST server for tests.
//
// It models one repository with branches, commit snapshots, push history
// (including ref deletions), pull requests, and the delay between a push and
// the ref becoming visible through the refs API.
package adotest

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/alanmeadows/prwright/internal/ado"
)

const (
	Org     = "org"
	Project = "proj"
	Repo    = "repo"
)

// ReceivedPush is a push the server accepted or rejected, as decoded from the request.
type ReceivedPush struct {
	Ref         string
	OldObjectID string
	Comment     string
	Changes     []ReceivedChange
	Rejected    bool
}

// ReceivedChange is one change entry of a received push. Content is decoded from base64.
type ReceivedChange struct {
	ChangeType  string
	Path        string
	Content     string
	HasContent  bool
	ContentType string
}

type pushRecord struct {
	id  int
	ref string
	old string
	new string
}

type pullRequest struct {
	pr     ado.PullRequest
	files  []string
	active bool
}

// Server is a fake ADO host. All exported fields must be set before requests are made.
type Server struct {
	*httptest.Server

	// IndexDelay is how many refs queries a freshly pushed branch stays invisible for.
	IndexDelay int
	// NeverIndex keeps pushed branches invisible to the refs API forever.
	NeverIndex bool

	mu            sync.Mutex
	defaultBranch string
	heads         map[string]string            // branch -> commit id
	snapshots     map[string]map[string]string // commit id -> path -> content
	pushes        []pushRecord
	pendingIndex  map[string]int
	failPushes    map[string]bool
	prs           []*pullRequest
	received      []ReceivedPush
	listings      int
	refPolls      int
	nextCommit    int
}

// NewServer starts a fake host whose default branch "main" holds files.
func NewServer(t testing.TB, files map[string]string) *Server {
	t.Helper()
	s := &Server{
		defaultBranch: "main",
		heads:         map[string]string{},
		snapshots:     map[string]map[string]string{},
		pendingIndex:  map[string]int{},
		failPushes:    map[string]bool{},
	}
	s.AddBranch("main", files)
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// Client returns an ado.Client authenticated with a PAT against this server.
func (s *Server) Client() *ado.Client {
	return ado.NewClient(ado.NewAuthProvider("test-pat"), ado.WithBaseURL(s.URL))
}

// RepoURL is the web URL of the repository.
func (s *Server) RepoURL() string {
	return fmt.Sprintf("%s/%s/%s/_git/%s", s.URL, Org, Project, Repo)
}

// FileURL is the web URL of path on branch; an empty branch omits the version.
func (s *Server) FileURL(path, branch string) string {
	loc := ado.Location{Organization: Org, Project: Project, Repository: Repo}
	return loc.FileURL(s.URL, path, branch)
}

// PullRequestURL is the web URL of pull request id.
func (s *Server) PullRequestURL(id int) string {
	return fmt.Sprintf("%s/pullrequest/%d", s.RepoURL(), id)
}

// AddBranch creates or moves branch to a new commit holding exactly files.
func (s *Server) AddBranch(branch string, files map[string]string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newCommitLocked(maps.Clone(files))
	s.recordPushLocked("refs/heads/"+branch, s.heads[branch], id)
	s.heads[branch] = id
	return id
}

// DeleteBranch records a push that deletes branch and returns its last commit.
func (s *Server) DeleteBranch(branch string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	head := s.heads[branch]
	s.recordPushLocked("refs/heads/"+branch, head, ado.ZeroObjectID)
	delete(s.heads, branch)
	return head
}

// FailPushesTo makes every push to branch fail with HTTP 400.
func (s *Server) FailPushesTo(branch string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPushes["refs/heads/"+branch] = true
}

// AddPullRequest registers a pull request and returns its id.
func (s *Server) AddPullRequest(source, target, title string, active bool, files []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addPRLocked(ado.PullRequest{
		Title:        title,
		SourceBranch: "refs/heads/" + source,
		TargetBranch: "refs/heads/" + target,
	}, active, files)
}

// Head returns the commit branch points at, or "".
func (s *Server) Head(branch string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heads[branch]
}

// File returns the content of path on branch.
func (s *Server) File(branch, path string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snapshots[s.heads[branch]]
	if !ok {
		return "", false
	}
	content, ok := snap[path]
	return content, ok
}

// ReceivedPushes returns every push request seen, in order.
func (s *Server) ReceivedPushes() []ReceivedPush {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ReceivedPush(nil), s.received...)
}

// PullRequests returns every pull request, in creation order.
func (s *Server) PullRequests() []ado.PullRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ado.PullRequest, 0, len(s.prs))
	for _, p := range s.prs {
		out = append(out, p.pr)
	}
	return out
}

// Listings returns how many recursive item listings were served.
func (s *Server) Listings() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listings
}

// RefPolls returns how many refs queries were served.
func (s *Server) RefPolls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refPolls
}

func (s *Server) newCommitLocked(files map[string]string) string {
	s.nextCommit++
	id := fmt.Sprintf("%040x", 0xc0ffee00+s.nextCommit)
	if files == nil {
		files = map[string]string{}
	}
	s.snapshots[id] = files
	return id
}

func (s *Server) recordPushLocked(ref, old, new string) int {
	if old == "" {
		old = ado.ZeroObjectID
	}
	id := len(s.pushes) + 1
	s.pushes = append(s.pushes, pushRecord{id: id, ref: ref, old: old, new: new})
	return id
}

func (s *Server) addPRLocked(pr ado.PullRequest, active bool, files []string) int {
	pr.ID = len(s.prs) + 1
	pr.Repository = Repo
	pr.Status = "active"
	if !active {
		pr.Status = "completed"
	}
	s.prs = append(s.prs, &pullRequest{pr: pr, files: files, active: active})
	return pr.ID
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") == "" {
		writeError(w, http.StatusUnauthorized, "missing credentials")
		return
	}
	if r.URL.Query().Get("api-version") == "" {
		writeError(w, http.StatusBadRequest, "api-version is required")
		return
	}

	prefix := fmt.Sprintf("/%s/%s/_apis/git/repositories/%s", Org, Project, Repo)
	if !strings.HasPrefix(r.URL.Path, prefix) {
		writeError(w, http.StatusNotFound, "unknown repository")
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, prefix)

	s.mu.Lock()
	defer s.mu.Unlock()

	q := r.URL.Query()
	segs := strings.Split(strings.Trim(rest, "/"), "/")
	switch {
	case rest == "" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{
			"id": "repo-id", "name": Repo, "defaultBranch": "refs/heads/" + s.defaultBranch,
		})
	case rest == "/items" && r.Method == http.MethodGet:
		s.serveItems(w, q)
	case rest == "/pushes" && r.Method == http.MethodGet:
		s.servePushList(w, q.Get("searchCriteria.refName"))
	case rest == "/pushes" && r.Method == http.MethodPost:
		s.servePushCreate(w, r)
	case len(segs) == 2 && segs[0] == "pushes" && r.Method == http.MethodGet:
		s.servePush(w, segs[1])
	case rest == "/commits" && r.Method == http.MethodGet:
		s.serveCommits(w, q.Get("searchCriteria.itemVersion.version"))
	case rest == "/refs" && r.Method == http.MethodGet:
		s.serveRefs(w, q.Get("filter"))
	case strings.EqualFold(rest, "/pullrequests") && r.Method == http.MethodGet:
		s.servePRSearch(w, q.Get("searchCriteria.sourceRefName"), q.Get("searchCriteria.status"))
	case strings.EqualFold(rest, "/pullrequests") && r.Method == http.MethodPost:
		s.servePRCreate(w, r)
	case len(segs) >= 2 && strings.EqualFold(segs[0], "pullrequests"):
		s.servePR(w, segs[1:])
	default:
		writeError(w, http.StatusNotFound, "no route for "+r.Method+" "+rest)
	}
}

func (s *Server) serveItems(w http.ResponseWriter, q map[string][]string) {
	get := func(k string) string {
		if v := q[k]; len(v) > 0 {
			return v[0]
		}
		return ""
	}
	version := get("versionDescriptor.version")
	commit := version
	if get("versionDescriptor.versionType") != "commit" {
		commit = s.heads[version]
	}
	snap, ok := s.snapshots[commit]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("TF401175: The version descriptor <%s> could not be resolved", version))
		return
	}

	path := get("path")
	if path == "" {
		s.listings++
		paths := make([]string, 0, len(snap))
		for p := range snap {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		items := []map[string]any{{"path": "/", "gitObjectType": "tree", "isFolder": true}}
		for _, p := range paths {
			items = append(items, map[string]any{"path": p, "gitObjectType": "blob"})
		}
		writeJSON(w, http.StatusOK, map[string]any{"value": items, "count": len(items)})
		return
	}

	content, ok := snap[path]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("TF401174: The item '%s' could not be found", path))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": path, "gitObjectType": "blob", "content": content})
}

func (s *Server) servePushList(w http.ResponseWriter, ref string) {
	var value []map[string]any
	for i := len(s.pushes) - 1; i >= 0; i-- {
		if s.pushes[i].ref == ref {
			value = append(value, map[string]any{"pushId": s.pushes[i].id})
			break
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"value": value, "count": len(value)})
}

func (s *Server) servePush(w http.ResponseWriter, idStr string) {
	id, err := strconv.Atoi(idStr)
	if err != nil || id < 1 || id > len(s.pushes) {
		writeError(w, http.StatusNotFound, "push not found")
		return
	}
	p := s.pushes[id-1]
	writeJSON(w, http.StatusOK, ado.Push{
		ID:         p.id,
		RefUpdates: []ado.RefUpdate{{Name: p.ref, OldObjectID: p.old, NewObjectID: p.new}},
	})
}

func (s *Server) servePushCreate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefUpdates []ado.RefUpdate `json:"refUpdates"`
		Commits    []struct {
			Comment string `json:"comment"`
			Changes []struct {
				ChangeType string `json:"changeType"`
				Item       struct {
					Path string `json:"path"`
				} `json:"item"`
				NewContent *struct {
					Content     string `json:"content"`
					ContentType string `json:"contentType"`
				} `json:"newContent"`
			} `json:"changes"`
		} `json:"commits"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.RefUpdates) != 1 || len(body.Commits) != 1 {
		writeError(w, http.StatusBadRequest, "malformed push")
		return
	}

	ru := body.RefUpdates[0]
	rec := ReceivedPush{Ref: ru.Name, OldObjectID: ru.OldObjectID, Comment: body.Commits[0].Comment}
	for _, ch := range body.Commits[0].Changes {
		rc := ReceivedChange{ChangeType: ch.ChangeType, Path: ch.Item.Path}
		if ch.NewContent != nil {
			rc.HasContent = true
			rc.ContentType = ch.NewContent.ContentType
			rc.Content = decodeBase64(ch.NewContent.Content)
		}
		rec.Changes = append(rec.Changes, rc)
	}

	reject := func(status int, msg string) {
		rec.Rejected = true
		s.received = append(s.received, rec)
		writeError(w, status, msg)
	}

	branch := strings.TrimPrefix(ru.Name, "refs/heads/")
	if s.failPushes[ru.Name] {
		reject(http.StatusBadRequest, "TF401027: push rejected by policy")
		return
	}
	base, ok := s.snapshots[ru.OldObjectID]
	if !ok {
		reject(http.StatusBadRequest, "TF401035: The object '"+ru.OldObjectID+"' does not exist")
		return
	}
	if head, live := s.heads[branch]; live && head != ru.OldObjectID {
		reject(http.StatusConflict, "TF402455: stale old object id for "+ru.Name)
		return
	}

	files := maps.Clone(base)
	for _, ch := range rec.Changes {
		switch ch.ChangeType {
		case "delete":
			delete(files, ch.Path)
		default:
			files[ch.Path] = ch.Content
		}
	}
	commit := s.newCommitLocked(files)
	id := s.recordPushLocked(ru.Name, ru.OldObjectID, commit)
	s.heads[branch] = commit
	s.pendingIndex[ru.Name] = s.IndexDelay
	s.received = append(s.received, rec)

	writeJSON(w, http.StatusCreated, ado.Push{
		ID:         id,
		RefUpdates: []ado.RefUpdate{{Name: ru.Name, OldObjectID: ru.OldObjectID, NewObjectID: commit}},
	})
}

func (s *Server) serveCommits(w http.ResponseWriter, branch string) {
	head, ok := s.heads[branch]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("TF401175: The version descriptor <Branch: %s> could not be resolved", branch))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"value": []map[string]any{{"commitId": head}}, "count": 1})
}

func (s *Server) serveRefs(w http.ResponseWriter, filter string) {
	s.refPolls++
	var value []map[string]any
	for branch, head := range s.heads {
		ref := "refs/heads/" + branch
		if !strings.HasPrefix(strings.TrimPrefix(ref, "refs/"), filter) {
			continue
		}
		if _, pushed := s.pendingIndex[ref]; pushed && s.NeverIndex {
			continue
		}
		if n := s.pendingIndex[ref]; n > 0 {
			s.pendingIndex[ref] = n - 1
			continue
		}
		value = append(value, map[string]any{"name": ref, "objectId": head})
	}
	writeJSON(w, http.StatusOK, map[string]any{"value": value, "count": len(value)})
}

func (s *Server) servePRSearch(w http.ResponseWriter, source, status string) {
	var value []map[string]any
	for _, p := range s.prs {
		if p.pr.SourceBranch != source {
			continue
		}
		if status == "active" && !p.active {
			continue
		}
		value = append(value, prJSON(p.pr))
	}
	writeJSON(w, http.StatusOK, map[string]any{"value": value, "count": len(value)})
}

func (s *Server) servePRCreate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SourceRefName string `json:"sourceRefName"`
		TargetRefName string `json:"targetRefName"`
		Title         string `json:"title"`
		Description   string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed pull request")
		return
	}
	branch := strings.TrimPrefix(body.SourceRefName, "refs/heads/")
	_, pushed := s.pendingIndex[body.SourceRefName]
	if _, ok := s.heads[branch]; !ok || s.pendingIndex[body.SourceRefName] > 0 || (pushed && s.NeverIndex) {
		writeError(w, http.StatusBadRequest, "TF401398: The pull request cannot be activated because the source branch does not exist")
		return
	}
	id := s.addPRLocked(ado.PullRequest{
		Title:        body.Title,
		Description:  body.Description,
		SourceBranch: body.SourceRefName,
		TargetBranch: body.TargetRefName,
	}, true, nil)
	writeJSON(w, http.StatusCreated, prJSON(s.prs[id-1].pr))
}

func (s *Server) servePR(w http.ResponseWriter, segs []string) {
	id, err := strconv.Atoi(segs[0])
	if err != nil || id < 1 || id > len(s.prs) {
		writeError(w, http.StatusNotFound, "TF401180: The requested pull request was not found")
		return
	}
	p := s.prs[id-1]
	switch {
	case len(segs) == 1:
		writeJSON(w, http.StatusOK, prJSON(p.pr))
	case len(segs) == 2 && segs[1] == "iterations":
		writeJSON(w, http.StatusOK, map[string]any{"value": []map[string]any{{"id": 1}, {"id": 2}}, "count": 2})
	case len(segs) == 4 && segs[1] == "iterations" && segs[3] == "changes":
		entries := []map[string]any{}
		if segs[2] == "2" {
			for _, f := range p.files {
				entries = append(entries, map[string]any{"changeType": "edit", "item": map[string]any{"path": f}})
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"changeEntries": entries})
	default:
		writeError(w, http.StatusNotFound, "no such pull request resource")
	}
}

func prJSON(pr ado.PullRequest) map[string]any {
	return map[string]any{
		"pullRequestId": pr.ID,
		"title":         pr.Title,
		"description":   pr.Description,
		"status":        pr.Status,
		"sourceRefName": pr.SourceBranch,
		"targetRefName": pr.TargetBranch,
		"repository":    map[string]any{"id": "repo-id", "name": pr.Repository},
	}
}

func decodeBase64(s string) string {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "!invalid base64: " + s
	}
	return string(b)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"message": msg, "typeKey": "GitTestException", "errorCode": 0})
}
