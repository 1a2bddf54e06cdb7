package pr

import "context"

// MockProvider is a Provider whose behaviour is set per method. Unset
// methods succeed with placeholder values.
type MockProvider struct {
	CreatePRFunc     func(ctx context.Context, opts Options) (*PullRequest, error)
	GetPRFunc        func(ctx context.Context, id int) (*PullRequest, error)
	FindPRFunc       func(ctx context.Context, head string) (*PullRequest, error)
	ListFilesFunc    func(ctx context.Context, id int) ([]File, error)
	AddCommentFunc   func(ctx context.Context, id int, body string) error
	SubmitReviewFunc func(ctx context.Context, id int, review Review) error
}

func (m *MockProvider) CreatePR(ctx context.Context, opts Options) (*PullRequest, error) {
	if m.CreatePRFunc != nil {
		return m.CreatePRFunc(ctx, opts)
	}
	return &PullRequest{ID: 1, Title: opts.Title, Head: opts.Head, Base: opts.Base, HTMLURL: "https://example.com/pr/1"}, nil
}

func (m *MockProvider) GetPR(ctx context.Context, id int) (*PullRequest, error) {
	if m.GetPRFunc != nil {
		return m.GetPRFunc(ctx, id)
	}
	return &PullRequest{ID: id}, nil
}

func (m *MockProvider) FindPR(ctx context.Context, head string) (*PullRequest, error) {
	if m.FindPRFunc != nil {
		return m.FindPRFunc(ctx, head)
	}
	return nil, ErrNotFound
}

func (m *MockProvider) ListFiles(ctx context.Context, id int) ([]File, error) {
	if m.ListFilesFunc != nil {
		return m.ListFilesFunc(ctx, id)
	}
	return []File{}, nil
}

func (m *MockProvider) AddComment(ctx context.Context, id int, body string) error {
	if m.AddCommentFunc != nil {
		return m.AddCommentFunc(ctx, id, body)
	}
	return nil
}

func (m *MockProvider) SubmitReview(ctx context.Context, id int, review Review) error {
	if m.SubmitReviewFunc != nil {
		return m.SubmitReviewFunc(ctx, id, review)
	}
	return nil
}

var (
	_ Provider = (*MockProvider)(nil)
	_ Provider = (*GitHubProvider)(nil)
	_ Provider = (*GitLabProvider)(nil)
)
