package terminal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gatecheck/internal/browser"
	"gatecheck/internal/logging"
	"gatecheck/internal/status"
)

// TideworksConfig describes one Tideworks-hosted terminal instance. The same
// adapter serves every Tideworks deployment; only the name, URL, and
// credentials differ.
type TideworksConfig struct {
	Name     string
	BaseURL  string
	Username string
	Password string
	// FindTimeout bounds individual element waits. Defaults to 5s.
	FindTimeout time.Duration
}

// Tideworks queries a Tideworks Forecast terminal site (Shippers Transport,
// Oakland International). Login is required before the first query; there is
// no interactive challenge on these sites.
type Tideworks struct {
	session     browser.Session
	logger      *slog.Logger
	name        string
	baseURL     string
	username    string
	password    string
	findTimeout time.Duration
}

// NewTideworks constructs the adapter. The source takes ownership of session.
func NewTideworks(session browser.Session, logger *slog.Logger, cfg TideworksConfig) *Tideworks {
	findTimeout := cfg.FindTimeout
	if findTimeout <= 0 {
		findTimeout = 5 * time.Second
	}
	return &Tideworks{
		session:     session,
		logger:      logging.WithComponent(logger, "tideworks"),
		name:        cfg.Name,
		baseURL:     cfg.BaseURL,
		username:    cfg.Username,
		password:    cfg.Password,
		findTimeout: findTimeout,
	}
}

func (t *Tideworks) Name() string { return t.name }

// MaxBatchSize is unlimited; the import search accepts the whole worklist.
func (t *Tideworks) MaxBatchSize() int { return 0 }

func (t *Tideworks) Close() error { return t.session.Close() }

// ChallengePresent always reports false: Tideworks sites do not gate queries
// behind interactive verification.
func (t *Tideworks) ChallengePresent(context.Context) (bool, error) { return false, nil }

// Login authenticates against the terminal site. Returns false without error
// when the credentials are rejected. An already-authenticated session (no
// login form shown) counts as success.
func (t *Tideworks) Login(ctx context.Context) (bool, error) {
	if err := t.session.Navigate(ctx, t.baseURL); err != nil {
		return false, Wrap(ErrUnavailable, t.name, "navigate", "", err)
	}

	usernameField, err := browser.AwaitElement(ctx, t.session, browser.ByID("j_username"), t.findTimeout)
	if errors.Is(err, browser.ErrNoSuchElement) {
		t.logger.Debug("no login form, session already authenticated")
		return true, nil
	}
	if err != nil {
		return false, Wrap(ErrUnavailable, t.name, "locate login form", "", err)
	}

	passwordField, err := t.session.Find(ctx, browser.ByID("j_password"))
	if err != nil {
		return false, Wrap(ErrUnavailable, t.name, "locate password field", "", err)
	}
	if err := usernameField.SendKeys(ctx, t.username); err != nil {
		return false, Wrap(ErrUnavailable, t.name, "enter username", "", err)
	}
	if err := passwordField.SendKeys(ctx, t.password); err != nil {
		return false, Wrap(ErrUnavailable, t.name, "enter password", "", err)
	}

	signIn, err := t.session.Find(ctx, browser.ByID("signIn"))
	if err != nil {
		return false, Wrap(ErrUnavailable, t.name, "locate sign-in button", "", err)
	}
	if err := signIn.Click(ctx); err != nil {
		return false, Wrap(ErrUnavailable, t.name, "sign in", "", err)
	}

	rejected, err := t.session.FindAll(ctx, browser.ByXPath("//*[contains(text(), 'Invalid username or password')]"))
	if err == nil && len(rejected) > 0 {
		t.logger.Warn("login rejected")
		return false, nil
	}
	return true, nil
}

// QueryBatch runs one import search and parses the result table.
func (t *Tideworks) QueryBatch(ctx context.Context, numbers []string) ([]status.Record, error) {
	if browser.ClickAny(ctx, t.session, browser.ByXPath("//button[contains(text(), 'Close')]")) {
		t.logger.Debug("popup dismissed")
	}

	menu, err := browser.AwaitElement(ctx, t.session, browser.ByID("menu-import"), t.findTimeout)
	if err != nil {
		return nil, Wrap(ErrUnavailable, t.name, "locate import menu", "", err)
	}
	if err := menu.Click(ctx); err != nil {
		return nil, Wrap(ErrUnavailable, t.name, "open import search", "", err)
	}

	input, err := browser.AwaitElement(ctx, t.session, browser.ByID("numbers"), t.findTimeout)
	if err != nil {
		return nil, Wrap(ErrUnavailable, t.name, "locate container input", "", err)
	}
	if err := input.Clear(ctx); err != nil {
		return nil, Wrap(ErrUnavailable, t.name, "clear container input", "", err)
	}
	if err := input.SendKeys(ctx, strings.Join(numbers, "\n")); err != nil {
		return nil, Wrap(ErrUnavailable, t.name, "enter container numbers", "", err)
	}

	search, err := browser.AwaitElement(ctx, t.session, browser.ByID("search"), t.findTimeout)
	if err != nil {
		return nil, Wrap(ErrUnavailable, t.name, "locate search button", "", err)
	}
	if err := search.Click(ctx); err != nil {
		return nil, Wrap(ErrUnavailable, t.name, "run search", "", err)
	}

	table, err := browser.AwaitElement(ctx, t.session, browser.ByXPath("//div[@id='result']//table"), t.findTimeout)
	if err != nil {
		return nil, Wrap(ErrUnavailable, t.name, "locate results table", "", err)
	}

	return t.parseTable(ctx, table)
}

func (t *Tideworks) parseTable(ctx context.Context, table browser.Element) ([]status.Record, error) {
	rows, err := table.FindAll(ctx, browser.ByTag("tr"))
	if err != nil {
		return nil, Wrap(ErrParse, t.name, "list result rows", "", err)
	}
	if len(rows) > 0 {
		rows = rows[1:] // header
	}

	var records []status.Record
	for i, row := range rows {
		record, ok, err := t.parseRow(ctx, row)
		if err != nil {
			t.logger.Warn("skipping unparseable result row",
				logging.Int("row", i), logging.Error(err))
			continue
		}
		if ok {
			records = append(records, record)
		}
	}
	return records, nil
}

func (t *Tideworks) parseRow(ctx context.Context, row browser.Element) (status.Record, bool, error) {
	cells, err := row.FindAll(ctx, browser.ByTag("td"))
	if err != nil {
		return status.Record{}, false, err
	}

	if len(cells) == 1 {
		message, err := cells[0].Text(ctx)
		if err != nil {
			return status.Record{}, false, err
		}
		if strings.Contains(message, "could not be found") {
			number := firstToken(message)
			if number == "" {
				return status.Record{}, false, Wrap(ErrParse, t.name, "not-found row", "no container number", nil)
			}
			return status.NotFound(number), true, nil
		}
		return status.Record{}, false, nil
	}

	if len(cells) < 4 {
		return status.Record{}, false, Wrap(ErrParse, t.name, "result row",
			fmt.Sprintf("expected at least 4 columns, got %d", len(cells)), nil)
	}

	texts := make([]string, len(cells))
	for i, cell := range cells {
		if texts[i], err = cell.Text(ctx); err != nil {
			return status.Record{}, false, err
		}
		texts[i] = strings.TrimSpace(texts[i])
	}

	holds := ParseHoldText(texts[3])
	var additional string
	if len(texts) > 4 {
		additional = texts[4]
	}
	location, operator := SplitLocationOperator(additional)

	return status.Record{
		ContainerNumber: texts[0],
		Terminal:        t.name,
		Available:       texts[1],
		Dimensions:      texts[2],
		CustomsHold:     holds.Customs,
		LineHold:        holds.Line,
		CBPAHold:        holds.CBPA,
		TerminalHold:    holds.Terminal,
		Location:        location,
		LineOperator:    operator,
	}, true, nil
}
