package terminal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gatecheck/internal/browser"
	"gatecheck/internal/challenge"
	"gatecheck/internal/logging"
	"gatecheck/internal/status"
)

const (
	trapacDefaultURL = "https://oakland.trapac.com/quick-check/?terminal=OAK&transaction=availability"
	// The quick-check form rejects submissions above ten containers.
	trapacBatchSize = 10
)

var trapacPrivacyCloseLocators = []browser.Locator{
	browser.ByCSS("button.close"),
	browser.ByXPath("//button[contains(text(), 'Close')]"),
	browser.ByXPath("//button[@aria-label='Close']"),
}

var trapacChallengeLocators = []browser.Locator{
	browser.ByXPath("//iframe[contains(@src, 'recaptcha')]"),
	browser.ByCSS("div.g-recaptcha"),
	browser.ByXPath("//div[contains(@class, 'recaptcha')]"),
	browser.ByID("recaptcha-backup"),
}

// TrapacConfig customizes the Trapac adapter.
type TrapacConfig struct {
	// BaseURL overrides the quick-check page; used by tests.
	BaseURL string
	// FindTimeout bounds individual element waits. Defaults to 5s.
	FindTimeout time.Duration
}

// Trapac queries the Trapac Oakland quick-check page. The page needs no
// login but may raise a reCAPTCHA after submission, so Trapac sessions must
// run with a visible browser window.
type Trapac struct {
	session     browser.Session
	waiter      *challenge.Waiter
	logger      *slog.Logger
	baseURL     string
	findTimeout time.Duration
}

// NewTrapac constructs the adapter. The source takes ownership of session.
func NewTrapac(session browser.Session, waiter *challenge.Waiter, logger *slog.Logger, cfg TrapacConfig) *Trapac {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = trapacDefaultURL
	}
	findTimeout := cfg.FindTimeout
	if findTimeout <= 0 {
		findTimeout = 5 * time.Second
	}
	return &Trapac{
		session:     session,
		waiter:      waiter,
		logger:      logging.WithComponent(logger, "trapac"),
		baseURL:     baseURL,
		findTimeout: findTimeout,
	}
}

func (t *Trapac) Name() string { return "Trapac" }

func (t *Trapac) MaxBatchSize() int { return trapacBatchSize }

func (t *Trapac) Close() error { return t.session.Close() }

// ChallengePresent reports whether a reCAPTCHA element is visible.
func (t *Trapac) ChallengePresent(ctx context.Context) (bool, error) {
	for _, loc := range trapacChallengeLocators {
		elements, err := t.session.FindAll(ctx, loc)
		if err != nil {
			return false, err
		}
		for _, el := range elements {
			shown, err := el.Displayed(ctx)
			if err != nil {
				continue
			}
			if shown {
				return true, nil
			}
		}
	}
	return false, nil
}

// QueryBatch submits one batch to the quick-check form and parses the result
// table. A challenge that is not resolved within the waiter's ceiling returns
// an error wrapping challenge.ErrTimeout; the whole batch then counts as
// failed while later batches remain eligible.
func (t *Trapac) QueryBatch(ctx context.Context, numbers []string) ([]status.Record, error) {
	if err := t.session.Navigate(ctx, t.baseURL); err != nil {
		return nil, Wrap(ErrUnavailable, t.Name(), "navigate", "", err)
	}
	if browser.ClickAny(ctx, t.session, trapacPrivacyCloseLocators...) {
		t.logger.Debug("privacy modal dismissed")
	}

	input, err := browser.AwaitElement(ctx, t.session, browser.ByName("containers"), t.findTimeout)
	if err != nil {
		return nil, Wrap(ErrUnavailable, t.Name(), "locate container input", "", err)
	}
	if err := input.Clear(ctx); err != nil {
		return nil, Wrap(ErrUnavailable, t.Name(), "clear container input", "", err)
	}
	if err := input.SendKeys(ctx, strings.Join(numbers, "\n")); err != nil {
		return nil, Wrap(ErrUnavailable, t.Name(), "enter container numbers", "", err)
	}

	submit, err := browser.AwaitElement(ctx, t.session, browser.ByXPath("//div[@class='submit']/button"), t.findTimeout)
	if err != nil {
		return nil, Wrap(ErrUnavailable, t.Name(), "locate submit button", "", err)
	}
	if err := submit.Click(ctx); err != nil {
		return nil, Wrap(ErrUnavailable, t.Name(), "submit query", "", err)
	}

	present, err := t.ChallengePresent(ctx)
	if err != nil {
		return nil, Wrap(ErrUnavailable, t.Name(), "challenge detection", "", err)
	}
	if present {
		if err := t.waiter.Wait(ctx, t.ChallengePresent); err != nil {
			return nil, fmt.Errorf("%s: %w", t.Name(), err)
		}
	}

	table, err := browser.AwaitElement(ctx, t.session, browser.ByXPath("//div[@class='table-scroll']//table"), t.findTimeout)
	if err != nil {
		if t.noResultsShown(ctx) {
			records := make([]status.Record, 0, len(numbers))
			for _, number := range numbers {
				records = append(records, status.NotFound(number))
			}
			return records, nil
		}
		return nil, Wrap(ErrUnavailable, t.Name(), "locate results table", "", err)
	}

	return t.parseTable(ctx, table)
}

func (t *Trapac) noResultsShown(ctx context.Context) bool {
	elements, err := t.session.FindAll(ctx, browser.ByXPath("//*[contains(text(), 'No result found')]"))
	return err == nil && len(elements) > 0
}

func (t *Trapac) parseTable(ctx context.Context, table browser.Element) ([]status.Record, error) {
	tbody, err := table.Find(ctx, browser.ByTag("tbody"))
	if err != nil {
		return nil, Wrap(ErrParse, t.Name(), "locate table body", "", err)
	}
	rows, err := tbody.FindAll(ctx, browser.ByTag("tr"))
	if err != nil {
		return nil, Wrap(ErrParse, t.Name(), "list result rows", "", err)
	}

	var records []status.Record
	for i, row := range rows {
		record, ok, err := t.parseRow(ctx, row)
		if err != nil {
			// A malformed row is skipped, never fatal for the batch.
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

func (t *Trapac) parseRow(ctx context.Context, row browser.Element) (status.Record, bool, error) {
	class, err := row.Attribute(ctx, "class")
	if err != nil {
		return status.Record{}, false, err
	}

	switch class {
	case "error-row":
		cells, err := row.FindAll(ctx, browser.ByTag("td"))
		if err != nil || len(cells) == 0 {
			return status.Record{}, false, Wrap(ErrParse, t.Name(), "error row", "no cells", err)
		}
		message, err := cells[0].Text(ctx)
		if err != nil {
			return status.Record{}, false, err
		}
		if strings.Contains(message, "No result found for the reference number:") ||
			strings.Contains(message, "is not an Inbound Container") {
			number := NumberFromMessage(message)
			if number == "" {
				return status.Record{}, false, Wrap(ErrParse, t.Name(), "error row", "no container number in message", nil)
			}
			return status.NotFound(number), true, nil
		}
		return status.Record{}, false, nil

	case "row-odd":
		cells, err := row.FindAll(ctx, browser.ByTag("td"))
		if err != nil {
			return status.Record{}, false, err
		}
		if len(cells) < 9 {
			return status.Record{}, false, Wrap(ErrParse, t.Name(), "result row",
				fmt.Sprintf("expected 9 columns, got %d", len(cells)), nil)
		}
		texts := make([]string, len(cells))
		for i, cell := range cells {
			if texts[i], err = cell.Text(ctx); err != nil {
				return status.Record{}, false, err
			}
			texts[i] = strings.TrimSpace(texts[i])
		}

		record := status.Record{
			ContainerNumber: texts[1],
			Terminal:        t.Name(),
			LineOperator:    texts[2],
			LineHold:        texts[3],
			CustomsHold:     texts[4],
			CBPAHold:        texts[5],
			TerminalHold:    texts[6],
			Location:        texts[7],
			Dimensions:      texts[8],
		}
		record.Available = status.DeriveAvailability(
			record.Location, record.CustomsHold, record.LineHold, record.CBPAHold, record.TerminalHold)
		return record, true, nil

	default:
		return status.Record{}, false, nil
	}
}
