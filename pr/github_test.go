package pr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/agdt/testutil"
)

func newGitHubTest(t *testing.T) (*GitHubProvider, *http.ServeMux, string) {
	t.Helper()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	p, err := NewGitHubProvider("tok", "acme", "widgets", WithGitHubBaseURL(srv.URL))
	require.NoError(t, err)
	return p, mux, srv.URL
}

func TestNewGitHubProviderValidation(t *testing.T) {
	_, err := NewGitHubProvider("", "acme", "widgets")
	assert.ErrorIs(t, err, ErrNoToken)

	_, err = NewGitHubProvider("tok", "", "widgets")
	assert.Error(t, err)
}

func TestGitHubCreatePR(t *testing.T) {
	p, mux, _ := newGitHubTest(t)

	var labelsApplied []string
	mux.HandleFunc("POST /repos/acme/widgets/pulls", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "[PROJ-1] Fix", body["title"])
		assert.Equal(t, "feature/PROJ-1", body["head"])
		assert.Equal(t, "main", body["base"])

		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"number": 12, "title": "[PROJ-1] Fix", "state": "open",
			"html_url": "https://github.com/acme/widgets/pull/12",
			"url": "https://api.github.com/repos/acme/widgets/pulls/12",
			"head": {"ref": "feature/PROJ-1"}, "base": {"ref": "main"},
			"user": {"login": "dev"}}`)
	})
	mux.HandleFunc("POST /repos/acme/widgets/issues/12/labels", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&labelsApplied))
		fmt.Fprint(w, `[]`)
	})

	pull, err := p.CreatePR(testutil.TestContext(t), Options{
		Title:  "[PROJ-1] Fix",
		Head:   "feature/PROJ-1",
		Labels: []string{"agdt"},
	})
	require.NoError(t, err)

	assert.Equal(t, 12, pull.ID)
	assert.Equal(t, StateOpen, pull.State)
	assert.Equal(t, "https://github.com/acme/widgets/pull/12", pull.WebURL())
	assert.Equal(t, "feature/PROJ-1", pull.Head)
	assert.Equal(t, "dev", pull.Author)
	assert.Equal(t, []string{"agdt"}, labelsApplied)
}

func TestGitHubCreatePRExists(t *testing.T) {
	p, mux, _ := newGitHubTest(t)
	mux.HandleFunc("POST /repos/acme/widgets/pulls", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"message": "Validation Failed", "errors": [
			{"resource": "PullRequest", "code": "custom", "message": "A pull request already exists for acme:feature."}]}`)
	})

	_, err := p.CreatePR(testutil.TestContext(t), Options{Title: "t", Head: "feature"})
	assert.ErrorIs(t, err, ErrExists)
}

func TestGitHubGetPRNotFound(t *testing.T) {
	p, mux, _ := newGitHubTest(t)
	mux.HandleFunc("GET /repos/acme/widgets/pulls/99", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message": "Not Found"}`)
	})

	_, err := p.GetPR(testutil.TestContext(t), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGitHubGetPRMerged(t *testing.T) {
	p, mux, _ := newGitHubTest(t)
	mux.HandleFunc("GET /repos/acme/widgets/pulls/3", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"number": 3, "state": "closed", "merged": true,
			"merged_at": "2024-03-05T10:00:00Z", "labels": [{"name": "bug"}],
			"requested_reviewers": [{"login": "alice"}]}`)
	})

	pull, err := p.GetPR(testutil.TestContext(t), 3)
	require.NoError(t, err)
	assert.Equal(t, StateMerged, pull.State)
	require.NotNil(t, pull.MergedAt)
	assert.Equal(t, []string{"bug"}, pull.Labels)
	assert.Equal(t, []string{"alice"}, pull.Reviewers)
}

func TestGitHubFindPR(t *testing.T) {
	p, mux, _ := newGitHubTest(t)
	mux.HandleFunc("GET /repos/acme/widgets/pulls", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "open", r.URL.Query().Get("state"))
		if r.URL.Query().Get("head") == "acme:feature" {
			fmt.Fprint(w, `[{"number": 8}]`)
			return
		}
		fmt.Fprint(w, `[]`)
	})

	pull, err := p.FindPR(testutil.TestContext(t), "feature")
	require.NoError(t, err)
	assert.Equal(t, 8, pull.ID)

	_, err = p.FindPR(testutil.TestContext(t), "other")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGitHubListFilesPaginates(t *testing.T) {
	p, mux, base := newGitHubTest(t)
	mux.HandleFunc("GET /repos/acme/widgets/pulls/5/files", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `[{"filename": "b.go", "previous_filename": "old_b.go", "status": "renamed"}]`)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/repos/acme/widgets/pulls/5/files?page=2>; rel="next"`, base))
		fmt.Fprint(w, `[{"filename": "a.go", "status": "modified", "additions": 3, "deletions": 1}]`)
	})

	files, err := p.ListFiles(testutil.TestContext(t), 5)
	require.NoError(t, err)
	assert.Equal(t, []File{
		{Path: "a.go", Status: FileModified, Additions: 3, Deletions: 1},
		{Path: "b.go", PreviousPath: "old_b.go", Status: FileRenamed},
	}, files)
}

func TestGitHubAddComment(t *testing.T) {
	p, mux, _ := newGitHubTest(t)
	var got string
	mux.HandleFunc("POST /repos/acme/widgets/issues/4/comments", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Body string `json:"body"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		got = body.Body
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id": 1}`)
	})

	require.NoError(t, p.AddComment(testutil.TestContext(t), 4, "Looks good"))
	assert.Equal(t, "Looks good", got)

	assert.ErrorIs(t, p.AddComment(testutil.TestContext(t), 4, " "), ErrEmptyComment)
}

func TestGitHubSubmitReview(t *testing.T) {
	p, mux, _ := newGitHubTest(t)
	var events []string
	mux.HandleFunc("POST /repos/acme/widgets/pulls/4/reviews", func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		var body struct {
			Event string `json:"event"`
		}
		assert.NoError(t, json.Unmarshal(data, &body))
		events = append(events, body.Event)
		fmt.Fprint(w, `{"id": 1}`)
	})

	ctx := testutil.TestContext(t)
	require.NoError(t, p.SubmitReview(ctx, 4, Review{Decision: DecisionApprove}))
	require.NoError(t, p.SubmitReview(ctx, 4, Review{Decision: DecisionRequestChanges, Body: "fix the race"}))
	assert.Equal(t, []string{"APPROVE", "REQUEST_CHANGES"}, events)

	err := p.SubmitReview(ctx, 4, Review{Decision: DecisionComment})
	assert.ErrorIs(t, err, ErrEmptyComment)

	err = p.SubmitReview(ctx, 4, Review{Decision: "maybe"})
	assert.True(t, errors.Is(err, ErrInvalidDecision))
}
