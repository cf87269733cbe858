package terminal_test

import (
	"context"
	"fmt"

	"gatecheck/internal/browser"
)

// fakeElement is a scriptable stand-in for a located page element.
type fakeElement struct {
	text      string
	attrs     map[string]string
	displayed bool
	// displayedFn overrides displayed when set; lets tests flip visibility
	// concurrently with a polling waiter.
	displayedFn func() bool
	children    map[string][]*fakeElement // locator string -> matches
	clicked     int
	typed       []string
}

func (e *fakeElement) Click(context.Context) error { e.clicked++; return nil }
func (e *fakeElement) Clear(context.Context) error { return nil }

func (e *fakeElement) SendKeys(_ context.Context, text string) error {
	e.typed = append(e.typed, text)
	return nil
}

func (e *fakeElement) Text(context.Context) (string, error) { return e.text, nil }

func (e *fakeElement) Attribute(_ context.Context, name string) (string, error) {
	return e.attrs[name], nil
}

func (e *fakeElement) Displayed(context.Context) (bool, error) {
	if e.displayedFn != nil {
		return e.displayedFn(), nil
	}
	return e.displayed, nil
}

func (e *fakeElement) Find(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	matches := e.children[loc.String()]
	if len(matches) == 0 {
		return nil, fmt.Errorf("find %s: %w", loc, browser.ErrNoSuchElement)
	}
	return matches[0], nil
}

func (e *fakeElement) FindAll(_ context.Context, loc browser.Locator) ([]browser.Element, error) {
	matches := e.children[loc.String()]
	out := make([]browser.Element, len(matches))
	for i, m := range matches {
		out[i] = m
	}
	return out, nil
}

// fakeSession serves scripted elements keyed by locator string.
type fakeSession struct {
	elements    map[string][]*fakeElement
	navigations []string
	closed      bool
}

func (s *fakeSession) Navigate(_ context.Context, url string) error {
	s.navigations = append(s.navigations, url)
	return nil
}

func (s *fakeSession) Find(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	matches := s.elements[loc.String()]
	if len(matches) == 0 {
		return nil, fmt.Errorf("find %s: %w", loc, browser.ErrNoSuchElement)
	}
	return matches[0], nil
}

func (s *fakeSession) FindAll(_ context.Context, loc browser.Locator) ([]browser.Element, error) {
	matches := s.elements[loc.String()]
	out := make([]browser.Element, len(matches))
	for i, m := range matches {
		out[i] = m
	}
	return out, nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

func cells(texts ...string) []*fakeElement {
	out := make([]*fakeElement, len(texts))
	for i, t := range texts {
		out[i] = &fakeElement{text: t}
	}
	return out
}

func row(class string, tds ...*fakeElement) *fakeElement {
	return &fakeElement{
		attrs:    map[string]string{"class": class},
		children: map[string][]*fakeElement{browser.ByTag("td").String(): tds},
	}
}
