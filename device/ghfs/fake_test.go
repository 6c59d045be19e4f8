package ghfs

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-github/v67/github"
	"github.com/stretchr/testify/require"
)

const (
	defaultBranch = "main"
	// inlineLimit is the largest file returned inline by the fake API.
	inlineLimit = 64
)

var commitTime = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

type fakeEntry struct {
	content string
	link    string
	changed time.Time
}

func (e fakeEntry) sha() string {
	sum := sha1.Sum([]byte(e.link + e.content))
	return hex.EncodeToString(sum[:])
}

// fakeGitHub serves the parts of the contents, commits and repository APIs
// used by the device. Each repository/branch pair holds a flat map of files.
type fakeGitHub struct {
	mu      sync.Mutex
	srv     *httptest.Server
	repos   []string
	trees   map[string]map[string]fakeEntry // "repo@branch" -> path -> entry
	commits []string
}

func newFakeGitHub(t *testing.T) (*fakeGitHub, *github.Client) {
	t.Helper()

	f := &fakeGitHub{trees: make(map[string]map[string]fakeEntry)}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/{owner}/{repo}/contents/{path...}", f.getContents)
	mux.HandleFunc("PUT /repos/{owner}/{repo}/contents/{path...}", f.putContents)
	mux.HandleFunc("DELETE /repos/{owner}/{repo}/contents/{path...}", f.deleteContents)
	mux.HandleFunc("GET /repos/{owner}/{repo}/commits", f.listCommits)
	mux.HandleFunc("GET /users/{owner}/repos", f.listRepos)
	mux.HandleFunc("GET /raw/{repo}/{branch}/{path...}", f.raw)
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)

	client := github.NewClient(nil)
	baseURL, err := client.BaseURL.Parse(f.srv.URL + "/")
	require.NoError(t, err)
	client.BaseURL = baseURL
	return f, client
}

func (f *fakeGitHub) addFile(repo, branch, name, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tree(repo, branch)[name] = fakeEntry{content: content, changed: commitTime}
}

func (f *fakeGitHub) addLink(repo, branch, name, target string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tree(repo, branch)[name] = fakeEntry{link: target, changed: commitTime}
}

func (f *fakeGitHub) file(repo, branch, name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.tree(repo, branch)[name]
	return e.content, ok
}

func (f *fakeGitHub) commitMessages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.commits)
}

func (f *fakeGitHub) tree(repo, branch string) map[string]fakeEntry {
	if branch == "" {
		branch = defaultBranch
	}
	if !slices.Contains(f.repos, repo) {
		f.repos = append(f.repos, repo)
		slices.Sort(f.repos)
	}
	key := repo + "@" + branch
	if f.trees[key] == nil {
		f.trees[key] = make(map[string]fakeEntry)
	}
	return f.trees[key]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
}

func (f *fakeGitHub) describe(repo, branch, name string, e fakeEntry, inline bool) map[string]any {
	out := map[string]any{
		"name": path.Base(name),
		"path": name,
		"sha":  e.sha(),
		"size": len(e.content),
		"type": "file",
	}
	switch {
	case e.link != "":
		out["type"] = "symlink"
		out["target"] = e.link
		out["size"] = len(e.link)
	case !inline:
		out["download_url"] = f.srv.URL + "/raw/" + repo + "/" + branch + "/" + name
	case len(e.content) > inlineLimit:
		out["encoding"] = "none"
		out["content"] = ""
	default:
		out["encoding"] = "base64"
		out["content"] = base64.StdEncoding.EncodeToString([]byte(e.content))
	}
	return out
}

func (f *fakeGitHub) getContents(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	repo, name := r.PathValue("repo"), r.PathValue("path")
	branch := r.URL.Query().Get("ref")
	if branch == "" {
		branch = defaultBranch
	}
	if _, ok := f.trees[repo+"@"+branch]; !ok {
		notFound(w)
		return
	}
	files := f.tree(repo, branch)

	if e, ok := files[name]; ok {
		writeJSON(w, http.StatusOK, f.describe(repo, branch, name, e, true))
		return
	}

	prefix := name + "/"
	if name == "" {
		prefix = ""
	}
	children := map[string]map[string]any{}
	for p, e := range files {
		rest, ok := strings.CutPrefix(p, prefix)
		if !ok {
			continue
		}
		if dir, _, nested := strings.Cut(rest, "/"); nested {
			children[dir] = map[string]any{"name": dir, "path": prefix + dir, "type": "dir", "sha": "dir"}
			continue
		}
		children[rest] = f.describe(repo, branch, p, e, false)
	}
	if len(children) == 0 {
		notFound(w)
		return
	}
	names := make([]string, 0, len(children))
	for n := range children {
		names = append(names, n)
	}
	slices.Sort(names)
	listing := make([]map[string]any, 0, len(names))
	for _, n := range names {
		listing = append(listing, children[n])
	}
	writeJSON(w, http.StatusOK, listing)
}

type fileRequest struct {
	Message string `json:"message"`
	Content []byte `json:"content"`
	SHA     string `json:"sha"`
	Branch  string `json:"branch"`
}

func (f *fakeGitHub) putContents(w http.ResponseWriter, r *http.Request) {
	var req fileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	files := f.tree(r.PathValue("repo"), req.Branch)
	name := r.PathValue("path")
	if e, ok := files[name]; ok && e.sha() != req.SHA {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "sha does not match"})
		return
	}
	files[name] = fakeEntry{content: string(req.Content), changed: commitTime.Add(time.Duration(len(f.commits)+1) * time.Hour)}
	f.commits = append(f.commits, req.Message)
	writeJSON(w, http.StatusOK, map[string]any{"content": map[string]any{"name": path.Base(name), "path": name}})
}

func (f *fakeGitHub) deleteContents(w http.ResponseWriter, r *http.Request) {
	var req fileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	files := f.tree(r.PathValue("repo"), req.Branch)
	name := r.PathValue("path")
	e, ok := files[name]
	if !ok {
		notFound(w)
		return
	}
	if e.sha() != req.SHA {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "sha does not match"})
		return
	}
	delete(files, name)
	f.commits = append(f.commits, req.Message)
	writeJSON(w, http.StatusOK, map[string]any{"commit": map[string]any{"message": req.Message}})
}

func (f *fakeGitHub) listCommits(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	files := f.tree(r.PathValue("repo"), r.URL.Query().Get("sha"))
	name := r.URL.Query().Get("path")
	var latest time.Time
	for p, e := range files {
		if (name == "" || p == name || strings.HasPrefix(p, name+"/")) && e.changed.After(latest) {
			latest = e.changed
		}
	}
	if latest.IsZero() {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, []any{map[string]any{
		"sha":    "abc123",
		"commit": map[string]any{"committer": map[string]any{"date": latest.Format(time.RFC3339)}},
	}})
}

func (f *fakeGitHub) listRepos(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]map[string]any, 0, len(f.repos))
	for _, repo := range f.repos {
		out = append(out, map[string]any{"name": repo})
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *fakeGitHub) raw(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.tree(r.PathValue("repo"), r.PathValue("branch"))[r.PathValue("path")]
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write([]byte(e.content))
}
