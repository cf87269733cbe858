package browser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// webElementKey is the W3C WebDriver element identifier property.
const webElementKey = "element-6066-11e4-a52e-4f735466cecf"

// DefaultWebDriverURL is the chromedriver default listen address.
const DefaultWebDriverURL = "http://127.0.0.1:9515"

// headlessArgs mirrors the performance flag set the checker has always run
// headless Chrome with.
var headlessArgs = []string{
	"--headless=new",
	"--disable-gpu",
	"--disable-dev-shm-usage",
	"--no-sandbox",
	"--disable-extensions",
	"--disable-notifications",
	"--disable-popup-blocking",
	"--blink-settings=imagesEnabled=false",
}

// ConnectOptions configures a new WebDriver session.
type ConnectOptions struct {
	// URL of the WebDriver endpoint; DefaultWebDriverURL when empty.
	URL string
	// Headless launches Chrome without a visible window. Sources that need a
	// human to solve a challenge must not set this.
	Headless bool
	// ExtraArgs are appended to the Chrome argument list.
	ExtraArgs []string
	// DownloadDir, when set, is configured as Chrome's default download
	// directory.
	DownloadDir string
	// RequestTimeout bounds each WebDriver HTTP call. Defaults to 30s.
	RequestTimeout time.Duration
}

// Connect opens a new WebDriver session against a chromedriver endpoint.
func Connect(ctx context.Context, opts ConnectOptions) (Session, error) {
	base := strings.TrimRight(opts.URL, "/")
	if base == "" {
		base = DefaultWebDriverURL
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	args := append([]string{}, opts.ExtraArgs...)
	if opts.Headless {
		args = append(args, headlessArgs...)
	}
	chromeOptions := map[string]any{"args": args}
	if opts.DownloadDir != "" {
		chromeOptions["prefs"] = map[string]any{
			"download.default_directory":   opts.DownloadDir,
			"download.prompt_for_download": false,
		}
	}

	client := &webdriverClient{
		baseURL: base,
		http:    &http.Client{Timeout: timeout},
	}

	payload := map[string]any{
		"capabilities": map[string]any{
			"alwaysMatch": map[string]any{
				"browserName":             "chrome",
				"pageLoadStrategy":        "eager",
				"goog:chromeOptions":      chromeOptions,
				"unhandledPromptBehavior": "dismiss",
			},
		},
	}

	var created struct {
		SessionID string `json:"sessionId"`
	}
	if err := client.do(ctx, http.MethodPost, "/session", payload, &created); err != nil {
		return nil, fmt.Errorf("create webdriver session: %w", err)
	}
	if created.SessionID == "" {
		return nil, fmt.Errorf("create webdriver session: endpoint returned no session id")
	}

	return &webdriverSession{client: client, id: created.SessionID}, nil
}

type webdriverClient struct {
	baseURL string
	http    *http.Client
}

type wireError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do issues one WebDriver request and decodes the "value" envelope into out.
func (c *webdriverClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var envelope struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var werr wireError
		if json.Unmarshal(envelope.Value, &werr) == nil && werr.Error != "" {
			if werr.Error == "no such element" {
				return fmt.Errorf("%s: %w", werr.Message, ErrNoSuchElement)
			}
			return fmt.Errorf("webdriver %s: %s", werr.Error, werr.Message)
		}
		return fmt.Errorf("webdriver status %d", resp.StatusCode)
	}

	if out != nil && len(envelope.Value) > 0 {
		if err := json.Unmarshal(envelope.Value, out); err != nil {
			return fmt.Errorf("decode value: %w", err)
		}
	}
	return nil
}

type webdriverSession struct {
	client *webdriverClient
	id     string
}

func (s *webdriverSession) path(suffix string) string {
	return "/session/" + s.id + suffix
}

func (s *webdriverSession) Navigate(ctx context.Context, target string) error {
	return s.client.do(ctx, http.MethodPost, s.path("/url"), map[string]string{"url": target}, nil)
}

func (s *webdriverSession) Find(ctx context.Context, loc Locator) (Element, error) {
	return findElement(ctx, s.client, s.path("/element"), s.id, loc)
}

func (s *webdriverSession) FindAll(ctx context.Context, loc Locator) ([]Element, error) {
	return findElements(ctx, s.client, s.path("/elements"), s.id, loc)
}

func (s *webdriverSession) Close() error {
	// Session teardown should not hang on a wedged browser.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.do(ctx, http.MethodDelete, s.path(""), nil, nil)
}

type webdriverElement struct {
	client    *webdriverClient
	sessionID string
	id        string
}

func (e *webdriverElement) path(suffix string) string {
	return "/session/" + e.sessionID + "/element/" + e.id + suffix
}

func (e *webdriverElement) Click(ctx context.Context) error {
	return e.client.do(ctx, http.MethodPost, e.path("/click"), map[string]any{}, nil)
}

func (e *webdriverElement) Clear(ctx context.Context) error {
	return e.client.do(ctx, http.MethodPost, e.path("/clear"), map[string]any{}, nil)
}

func (e *webdriverElement) SendKeys(ctx context.Context, text string) error {
	return e.client.do(ctx, http.MethodPost, e.path("/value"), map[string]string{"text": text}, nil)
}

func (e *webdriverElement) Text(ctx context.Context) (string, error) {
	var text string
	err := e.client.do(ctx, http.MethodGet, e.path("/text"), nil, &text)
	return text, err
}

func (e *webdriverElement) Attribute(ctx context.Context, name string) (string, error) {
	var value *string
	err := e.client.do(ctx, http.MethodGet, e.path("/attribute/"+url.PathEscape(name)), nil, &value)
	if err != nil || value == nil {
		return "", err
	}
	return *value, nil
}

func (e *webdriverElement) Displayed(ctx context.Context) (bool, error) {
	var shown bool
	err := e.client.do(ctx, http.MethodGet, e.path("/displayed"), nil, &shown)
	return shown, err
}

func (e *webdriverElement) Find(ctx context.Context, loc Locator) (Element, error) {
	return findElement(ctx, e.client, e.path("/element"), e.sessionID, loc)
}

func (e *webdriverElement) FindAll(ctx context.Context, loc Locator) ([]Element, error) {
	return findElements(ctx, e.client, e.path("/elements"), e.sessionID, loc)
}

func findElement(ctx context.Context, client *webdriverClient, path, sessionID string, loc Locator) (Element, error) {
	var ref map[string]string
	err := client.do(ctx, http.MethodPost, path, map[string]string{"using": loc.Strategy, "value": loc.Value}, &ref)
	if err != nil {
		return nil, err
	}
	id := ref[webElementKey]
	if id == "" {
		return nil, fmt.Errorf("find %s: %w", loc, ErrNoSuchElement)
	}
	return &webdriverElement{client: client, sessionID: sessionID, id: id}, nil
}

func findElements(ctx context.Context, client *webdriverClient, path, sessionID string, loc Locator) ([]Element, error) {
	var refs []map[string]string
	err := client.do(ctx, http.MethodPost, path, map[string]string{"using": loc.Strategy, "value": loc.Value}, &refs)
	if err != nil {
		return nil, err
	}
	elements := make([]Element, 0, len(refs))
	for _, ref := range refs {
		if id := ref[webElementKey]; id != "" {
			elements = append(elements, &webdriverElement{client: client, sessionID: sessionID, id: id})
		}
	}
	return elements, nil
}
