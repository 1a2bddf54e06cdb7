package jira

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/agdt/testutil"
)

func newTestClient(t *testing.T, cfg Config, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg.URL = srv.URL
	if cfg.AuthType == "" {
		cfg.AuthType = AuthPAT
		cfg.Token = "secret"
	}
	c, err := NewClient(&cfg, WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func TestNewClientRejectsInvalidConfig(t *testing.T) {
	_, err := NewClient(&Config{URL: "https://jira.example.com"})
	assert.ErrorIs(t, err, ErrConfigAuthTypeRequired)

	_, err = NewClient(nil)
	assert.ErrorIs(t, err, ErrConfigURLRequired)
}

func TestClientAuthorization(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		verify func(t *testing.T, r *http.Request)
	}{
		{
			name: "api token",
			cfg:  Config{AuthType: AuthAPIToken, Email: "me@example.com", Token: "tok"},
			verify: func(t *testing.T, r *http.Request) {
				user, pass, ok := r.BasicAuth()
				assert.True(t, ok)
				assert.Equal(t, "me@example.com", user)
				assert.Equal(t, "tok", pass)
			},
		},
		{
			name: "basic",
			cfg:  Config{AuthType: AuthBasic, Username: "admin", Password: "pw"},
			verify: func(t *testing.T, r *http.Request) {
				user, pass, ok := r.BasicAuth()
				assert.True(t, ok)
				assert.Equal(t, "admin", user)
				assert.Equal(t, "pw", pass)
			},
		},
		{
			name: "pat",
			cfg:  Config{AuthType: AuthPAT, Token: "pat-123"},
			verify: func(t *testing.T, r *http.Request) {
				assert.Equal(t, "Bearer pat-123", r.Header.Get("Authorization"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.cfg, func(w http.ResponseWriter, r *http.Request) {
				tt.verify(t, r)
				_, _ = w.Write([]byte(`{"key":"PROJ-1","fields":{"summary":"s"}}`))
			})
			_, err := c.GetIssue(testutil.TestContext(t), "PROJ-1")
			require.NoError(t, err)
		})
	}
}

func TestGetIssue(t *testing.T) {
	c := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/api/3/issue/PROJ-42", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"id": "10042",
			"key": "PROJ-42",
			"fields": {
				"summary": "Login fails",
				"status": {"id": "3", "name": "In Progress"},
				"issuetype": {"id": "1", "name": "Bug"},
				"labels": ["auth"],
				"description": {"version": 1, "type": "doc", "content": [
					{"type": "paragraph", "content": [{"type": "text", "text": "Steps inside"}]}
				]}
			}
		}`))
	})

	issue, err := c.GetIssue(testutil.TestContext(t), "PROJ-42")
	require.NoError(t, err)
	assert.Equal(t, "Login fails", issue.Fields.Summary)
	assert.Equal(t, "In Progress", issue.Fields.Status.Name)
	assert.Equal(t, []string{"auth"}, issue.Fields.Labels)

	desc, err := issue.DescriptionMarkdown()
	require.NoError(t, err)
	assert.Equal(t, "Steps inside", desc)
}

func TestGetIssueV2Path(t *testing.T) {
	c := newTestClient(t, Config{APIVersion: APIVersionV2}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/2/issue/PROJ-1", r.URL.Path)
		_, _ = w.Write([]byte(`{"key":"PROJ-1","fields":{"summary":"s","description":"h1. Title"}}`))
	})

	issue, err := c.GetIssue(testutil.TestContext(t), "PROJ-1")
	require.NoError(t, err)
	desc, err := issue.DescriptionMarkdown()
	require.NoError(t, err)
	assert.Equal(t, "# Title", desc)
}

func TestGetIssueNotFound(t *testing.T) {
	c := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errorMessages":["Issue does not exist or you do not have permission to see it."]}`))
	})

	_, err := c.GetIssue(testutil.TestContext(t), "PROJ-9")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIssueNotFound)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "Issue does not exist")
}

func TestGetIssueInvalidKey(t *testing.T) {
	called := false
	c := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := c.GetIssue(testutil.TestContext(t), "not-a-key")
	assert.ErrorIs(t, err, ErrIssueKeyInvalid)
	assert.False(t, called, "no request should be sent")
}

func TestGetCommentsPaginates(t *testing.T) {
	const total = 3
	var starts []string
	c := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/3/issue/PROJ-7/comment", r.URL.Path)
		start := r.URL.Query().Get("startAt")
		starts = append(starts, start)

		// Two comments on the first page, one on the second.
		from, _ := strconv.Atoi(start)
		to := min(from+2, total)
		page := commentPage{StartAt: from, MaxResults: 2, Total: total}
		for i := from; i < to; i++ {
			page.Comments = append(page.Comments, Comment{ID: strconv.Itoa(i), Body: "c" + strconv.Itoa(i)})
		}
		_ = json.NewEncoder(w).Encode(page)
	})

	comments, err := c.GetComments(testutil.TestContext(t), "PROJ-7")
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, []string{"0", "2"}, starts)
	assert.Equal(t, "2", comments[2].ID)
}

func TestAddComment(t *testing.T) {
	t.Run("v3 sends ADF", func(t *testing.T) {
		c := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/rest/api/3/issue/PROJ-1/comment", r.URL.Path)

			var req struct {
				Body Document `json:"body"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "doc", req.Body.Type)
			if assert.NotEmpty(t, req.Body.Content) {
				assert.Equal(t, "heading", req.Body.Content[0].Type)
			}

			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"100","created":"2024-03-05T10:20:30.000+0000"}`))
		})

		comment, err := c.AddComment(testutil.TestContext(t), "PROJ-1", "# Done\n\nMerged **today**.")
		require.NoError(t, err)
		assert.Equal(t, "100", comment.ID)
	})

	t.Run("v2 sends wiki markup", func(t *testing.T) {
		c := newTestClient(t, Config{APIVersion: APIVersionV2}, func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Body string `json:"body"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "h1. Done\n\nMerged *today*.", req.Body)
			_, _ = w.Write([]byte(`{"id":"101"}`))
		})

		_, err := c.AddComment(testutil.TestContext(t), "PROJ-1", "# Done\n\nMerged **today**.")
		require.NoError(t, err)
	})

	t.Run("empty body", func(t *testing.T) {
		c := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		})
		_, err := c.AddComment(testutil.TestContext(t), "PROJ-1", "  \n")
		assert.ErrorIs(t, err, ErrEmptyComment)
	})
}

func TestServerErrorIsAPIError(t *testing.T) {
	c := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"errorMessages":["nope"]}`))
	})

	_, err := c.GetIssue(testutil.TestContext(t), "PROJ-1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrIssueNotFound))
	assert.Contains(t, err.Error(), "nope")
}

func TestIssueURL(t *testing.T) {
	c, err := NewClient(&Config{URL: "https://jira.example.com/", AuthType: AuthPAT, Token: "t"})
	require.NoError(t, err)
	assert.Equal(t, "https://jira.example.com/browse/PROJ-1", c.IssueURL("PROJ-1"))
}
