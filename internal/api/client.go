// Package api is the HTTP client for the backend the engine talks to:
// draft save/load, publish, progress, asset upload, update polling and
// export download.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// TokenSource supplies the bearer token for authenticated calls.
// Report false when no valid token is held; the request goes out
// unauthenticated and the backend decides.
type TokenSource interface {
	Token() (string, bool)
}

type Client struct {
	base   string
	http   *http.Client
	tokens TokenSource
}

type Config struct {
	BaseURL string
	Timeout time.Duration
	Tokens  TokenSource
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		base:   strings.TrimSuffix(cfg.BaseURL, "/"),
		http:   &http.Client{Timeout: timeout},
		tokens: cfg.Tokens,
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, err
	}
	if c.tokens != nil {
		if tok, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNoContent {
		return nil
	}
	if res.StatusCode/100 != 2 {
		return fmt.Errorf("%s %s: %s", method, path, res.Status)
	}
	if out != nil {
		return json.NewDecoder(res.Body).Decode(out)
	}
	return nil
}

// --- Drafts ---

func (c *Client) SaveStoryDraft(ctx context.Context, doc StoryDoc) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, "POST", "/api/teacher/story_draft", doc, &resp); err != nil {
		return "", fmt.Errorf("save story draft: %w", err)
	}
	return resp.ID, nil
}

// LoadStoryDraft returns nil when the author has no saved draft;
// absence is not an error.
func (c *Client) LoadStoryDraft(ctx context.Context) (*StoryDoc, error) {
	var doc StoryDoc
	if err := c.doJSON(ctx, "GET", "/api/teacher/story_draft", nil, &doc); err != nil {
		return nil, fmt.Errorf("load story draft: %w", err)
	}
	if doc.Title == "" && len(doc.Pages) == 0 {
		return nil, nil
	}
	return &doc, nil
}

func (c *Client) SaveQuizDraft(ctx context.Context, doc QuizDoc) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, "POST", "/api/teacher/quiz_draft", doc, &resp); err != nil {
		return "", fmt.Errorf("save quiz draft: %w", err)
	}
	return resp.ID, nil
}

func (c *Client) LoadQuizDraft(ctx context.Context) (*QuizDoc, error) {
	var doc QuizDoc
	if err := c.doJSON(ctx, "GET", "/api/teacher/quiz_draft", nil, &doc); err != nil {
		return nil, fmt.Errorf("load quiz draft: %w", err)
	}
	if doc.Title == "" && len(doc.Questions) == 0 {
		return nil, nil
	}
	return &doc, nil
}

// --- Saved content ---

func (c *Client) SaveStory(ctx context.Context, doc StoryDoc) (string, error) {
	var resp struct {
		ID string `json:"story_id"`
	}
	if err := c.doJSON(ctx, "POST", "/api/teacher/stories", doc, &resp); err != nil {
		return "", fmt.Errorf("save story: %w", err)
	}
	return resp.ID, nil
}

func (c *Client) SaveQuiz(ctx context.Context, doc QuizDoc) (string, error) {
	var resp struct {
		ID string `json:"quiz_id"`
	}
	if err := c.doJSON(ctx, "POST", "/api/teacher/quizzes", doc, &resp); err != nil {
		return "", fmt.Errorf("save quiz: %w", err)
	}
	return resp.ID, nil
}

func (c *Client) PublishStory(ctx context.Context, id string) error {
	if err := c.doJSON(ctx, "POST", "/api/teacher/stories/"+url.PathEscape(id)+"/publish", nil, nil); err != nil {
		return fmt.Errorf("publish story: %w", err)
	}
	return nil
}

func (c *Client) PublishQuiz(ctx context.Context, id string) error {
	if err := c.doJSON(ctx, "POST", "/api/teacher/quizzes/"+url.PathEscape(id)+"/publish", nil, nil); err != nil {
		return fmt.Errorf("publish quiz: %w", err)
	}
	return nil
}

// --- Student flow ---

func (c *Client) UpdateProgress(ctx context.Context, p ProgressUpdate) error {
	if err := c.doJSON(ctx, "POST", "/api/progress", p, nil); err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

func (c *Client) SubmitQuiz(ctx context.Context, sub QuizSubmission) (QuizResult, error) {
	var res QuizResult
	if err := c.doJSON(ctx, "POST", "/api/quizzes/"+url.PathEscape(sub.QuizID)+"/submit", sub, &res); err != nil {
		return QuizResult{}, fmt.Errorf("submit quiz: %w", err)
	}
	return res, nil
}

// --- Assets ---

// UploadAsset streams a file as multipart form data and returns the
// URL the backend stored it under. kind is the asset family: "image",
// "audio", "cover".
func (c *Client) UploadAsset(ctx context.Context, kind, filename string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(fw, r); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := c.newRequest(ctx, "POST", "/api/assets/"+url.PathEscape(kind), &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload asset: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return "", fmt.Errorf("upload asset: %s", res.Status)
	}
	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.URL, nil
}

// --- Dashboard ---

// Updates polls for records newer than sinceID.
func (c *Client) Updates(ctx context.Context, sinceID int64) ([]Update, error) {
	var out []Update
	path := "/api/updates?since=" + strconv.FormatInt(sinceID, 10)
	if err := c.doJSON(ctx, "GET", path, nil, &out); err != nil {
		return nil, fmt.Errorf("poll updates: %w", err)
	}
	return out, nil
}

func (c *Client) MarkRead(ctx context.Context, id int64) error {
	if err := c.doJSON(ctx, "POST", "/api/notifications/"+strconv.FormatInt(id, 10)+"/read", nil, nil); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

func (c *Client) MarkAllRead(ctx context.Context) error {
	if err := c.doJSON(ctx, "POST", "/api/notifications/read_all", nil, nil); err != nil {
		return fmt.Errorf("mark all read: %w", err)
	}
	return nil
}

// Export streams a binary export (dashboard data, story download) into w.
func (c *Client) Export(ctx context.Context, what string, w io.Writer) (int64, error) {
	req, err := c.newRequest(ctx, "GET", "/api/export/"+url.PathEscape(what), nil)
	if err != nil {
		return 0, err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return 0, fmt.Errorf("export: %s", res.Status)
	}
	return io.Copy(w, res.Body)
}
