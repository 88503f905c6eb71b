package accesscode

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// GitHubStore keeps the code document in a repository file and writes it
// back through the contents API. Every write carries the blob SHA that was
// read; GitHub refuses the write when the file changed in between, which
// makes the update a compare-and-swap.
type GitHubStore struct {
	client  *http.Client
	baseURL string
	token   string
	owner   string
	repo    string
	path    string
	branch  string
}

type GitHubConfig struct {
	BaseURL string
	Token   string
	Owner   string
	Repo    string
	Path    string
	Branch  string
}

func NewGitHubStore(client *http.Client, cfg GitHubConfig) *GitHubStore {
	return &GitHubStore{
		client:  client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		owner:   cfg.Owner,
		repo:    cfg.Repo,
		path:    strings.TrimLeft(cfg.Path, "/"),
		branch:  cfg.Branch,
	}
}

type contentsResponse struct {
	SHA      string `json:"sha"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

type contentsUpdate struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha"`
	Branch  string `json:"branch,omitempty"`
}

func (s *GitHubStore) Get(ctx context.Context, code string) (*Code, error) {
	doc, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	c := doc.Find(Normalize(code))
	if c == nil {
		return nil, ErrNotFound
	}
	return c, nil
}

func (s *GitHubStore) Modify(ctx context.Context, code string, fn func(*Code) error) (*Code, error) {
	code = Normalize(code)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		doc, sha, err := s.load(ctx)
		if err != nil {
			return nil, err
		}
		c := doc.Find(code)
		if c == nil {
			return nil, ErrNotFound
		}
		if err := fn(c); err != nil {
			return nil, err
		}
		updated := *c

		err = s.save(ctx, doc, sha, fmt.Sprintf("Redeem access code %s", code))
		if errors.Is(err, ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &updated, nil
	}
	return nil, fmt.Errorf("%w after %d attempts", ErrConflict, maxAttempts)
}

func (s *GitHubStore) contentsURL() string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s", s.baseURL, url.PathEscape(s.owner), url.PathEscape(s.repo), s.path)
}

func (s *GitHubStore) load(ctx context.Context) (*Document, string, error) {
	u := s.contentsURL()
	if s.branch != "" {
		u += "?ref=" + url.QueryEscape(s.branch)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, "", err
	}
	s.authorize(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("read access code document: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("read access code document: github status %d: %s", resp.StatusCode, truncate(body))
	}

	var contents contentsResponse
	if err := json.Unmarshal(body, &contents); err != nil {
		return nil, "", fmt.Errorf("parse contents response: %w", err)
	}
	if contents.Encoding != "" && contents.Encoding != "base64" {
		return nil, "", fmt.Errorf("unsupported content encoding %q", contents.Encoding)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(contents.Content, "\n", ""))
	if err != nil {
		return nil, "", fmt.Errorf("decode access code document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, "", fmt.Errorf("parse access code document: %w", err)
	}
	return &doc, contents.SHA, nil
}

func (s *GitHubStore) save(ctx context.Context, doc *Document, sha, message string) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	payload, err := json.Marshal(contentsUpdate{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(raw),
		SHA:     sha,
		Branch:  s.branch,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.contentsURL(), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	s.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("write access code document: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return nil
	case http.StatusConflict, http.StatusUnprocessableEntity:
		return ErrConflict
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("write access code document: github status %d: %s", resp.StatusCode, truncate(body))
	}
}

func (s *GitHubStore) authorize(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
}

func truncate(b []byte) string {
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
