package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gatecheck/internal/poll"
)

// ErrNoSuchElement reports that a locator matched nothing.
var ErrNoSuchElement = errors.New("no such element")

// Locator identifies an element on the current page.
type Locator struct {
	Strategy string // W3C location strategy
	Value    string
}

func (l Locator) String() string {
	return fmt.Sprintf("%s=%s", l.Strategy, l.Value)
}

// ByCSS locates by CSS selector.
func ByCSS(selector string) Locator {
	return Locator{Strategy: "css selector", Value: selector}
}

// ByXPath locates by XPath expression.
func ByXPath(expr string) Locator {
	return Locator{Strategy: "xpath", Value: expr}
}

// ByID locates by element id.
func ByID(id string) Locator {
	return ByCSS("#" + id)
}

// ByName locates by the name attribute. Form field names on the terminal and
// warehouse sites contain '$', so this goes through an attribute selector
// rather than a bare CSS name.
func ByName(name string) Locator {
	return ByCSS(fmt.Sprintf(`[name=%q]`, name))
}

// ByTag locates by tag name.
func ByTag(tag string) Locator {
	return Locator{Strategy: "tag name", Value: tag}
}

// Element is a handle to a located page element.
type Element interface {
	Click(ctx context.Context) error
	Clear(ctx context.Context) error
	SendKeys(ctx context.Context, text string) error
	Text(ctx context.Context) (string, error)
	Attribute(ctx context.Context, name string) (string, error)
	Displayed(ctx context.Context) (bool, error)
	Find(ctx context.Context, loc Locator) (Element, error)
	FindAll(ctx context.Context, loc Locator) ([]Element, error)
}

// Session is the opaque automation handle a source owns for the duration of
// its queries. Implementations must be safe to Close on every exit path.
type Session interface {
	Navigate(ctx context.Context, url string) error
	Find(ctx context.Context, loc Locator) (Element, error)
	FindAll(ctx context.Context, loc Locator) ([]Element, error)
	Close() error
}

// AwaitElement polls for a locator until it matches or the timeout elapses.
// Returns ErrNoSuchElement (wrapped) when nothing appears in time.
func AwaitElement(ctx context.Context, s Session, loc Locator, timeout time.Duration) (Element, error) {
	var found Element
	err := poll.Until(ctx, poll.Options{Interval: 250 * time.Millisecond, Ceiling: timeout},
		func(ctx context.Context) (bool, error) {
			el, err := s.Find(ctx, loc)
			if errors.Is(err, ErrNoSuchElement) {
				return false, nil
			}
			if err != nil {
				return false, err
			}
			found = el
			return true, nil
		})
	if errors.Is(err, poll.ErrCeiling) {
		return nil, fmt.Errorf("await %s: %w", loc, ErrNoSuchElement)
	}
	if err != nil {
		return nil, err
	}
	return found, nil
}

// ClickAny clicks the first displayed element matching any of the locators.
// Used for best-effort dismissal of privacy and popup modals; reports whether
// anything was clicked.
func ClickAny(ctx context.Context, s Session, locators ...Locator) bool {
	for _, loc := range locators {
		el, err := s.Find(ctx, loc)
		if err != nil {
			continue
		}
		if shown, err := el.Displayed(ctx); err != nil || !shown {
			continue
		}
		if err := el.Click(ctx); err == nil {
			return true
		}
	}
	return false
}

// SelectByVisibleText picks the option whose text matches from a select
// element. WebDriver has no native select support, so this walks the options.
func SelectByVisibleText(ctx context.Context, sel Element, text string) error {
	options, err := sel.FindAll(ctx, ByTag("option"))
	if err != nil {
		return fmt.Errorf("list options: %w", err)
	}
	for _, option := range options {
		label, err := option.Text(ctx)
		if err != nil {
			return fmt.Errorf("read option text: %w", err)
		}
		if strings.TrimSpace(label) == text {
			return option.Click(ctx)
		}
	}
	return fmt.Errorf("select option %q: %w", text, ErrNoSuchElement)
}
