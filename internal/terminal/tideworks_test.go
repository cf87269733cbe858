package terminal_test

import (
	"context"
	"testing"
	"time"

	"gatecheck/internal/browser"
	"gatecheck/internal/status"
	"gatecheck/internal/terminal"
)

func newTideworks(session *fakeSession) *terminal.Tideworks {
	return terminal.NewTideworks(session, nil, terminal.TideworksConfig{
		Name:        "Shippers Transport",
		BaseURL:     "https://sto.test",
		Username:    "user@example.com",
		Password:    "secret",
		FindTimeout: 10 * time.Millisecond,
	})
}

func TestTideworksLoginSuccess(t *testing.T) {
	username := &fakeElement{}
	password := &fakeElement{}
	signIn := &fakeElement{}
	session := &fakeSession{
		elements: map[string][]*fakeElement{
			browser.ByID("j_username").String(): {username},
			browser.ByID("j_password").String(): {password},
			browser.ByID("signIn").String():     {signIn},
		},
	}

	ok, err := newTideworks(session).Login(context.Background())
	if err != nil || !ok {
		t.Fatalf("Login = %v, %v", ok, err)
	}
	if signIn.clicked != 1 {
		t.Fatalf("sign-in clicked %d times", signIn.clicked)
	}
	if len(username.typed) != 1 || username.typed[0] != "user@example.com" {
		t.Fatalf("username keys = %v", username.typed)
	}
}

func TestTideworksLoginAlreadyAuthenticated(t *testing.T) {
	session := &fakeSession{elements: map[string][]*fakeElement{}}

	ok, err := newTideworks(session).Login(context.Background())
	if err != nil || !ok {
		t.Fatalf("Login = %v, %v, want already-authenticated success", ok, err)
	}
}

func TestTideworksLoginRejected(t *testing.T) {
	session := &fakeSession{
		elements: map[string][]*fakeElement{
			browser.ByID("j_username").String(): {{}},
			browser.ByID("j_password").String(): {{}},
			browser.ByID("signIn").String():     {{}},
			browser.ByXPath("//*[contains(text(), 'Invalid username or password')]").String(): {{text: "Invalid username or password"}},
		},
	}

	ok, err := newTideworks(session).Login(context.Background())
	if err != nil {
		t.Fatalf("Login returned error %v", err)
	}
	if ok {
		t.Fatal("Login should report rejection")
	}
}

func TestTideworksQueryBatchParsesRows(t *testing.T) {
	header := row("", cells("Container", "Available", "Size", "Holds", "Additional")...)
	data := row("", cells(
		"ABCU1234567",
		"Yes",
		"40HC",
		"Cust: Released\nLine: HOLD\nHolds: Demurrage\nTotal Fees: $100.00",
		"Yard C-3 | Maersk",
	)...)
	missing := row("", cells("XYZU9999999 could not be found")...)
	short := row("", cells("ODDU0000000", "Yes")...) // parse anomaly, skipped

	table := &fakeElement{children: map[string][]*fakeElement{
		browser.ByTag("tr").String(): {header, data, missing, short},
	}}
	session := &fakeSession{
		elements: map[string][]*fakeElement{
			browser.ByID("menu-import").String():                   {{}},
			browser.ByID("numbers").String():                       {{}},
			browser.ByID("search").String():                        {{}},
			browser.ByXPath("//div[@id='result']//table").String(): {table},
		},
	}

	records, err := newTideworks(session).QueryBatch(context.Background(),
		[]string{"ABCU1234567", "XYZU9999999", "ODDU0000000"})
	if err != nil {
		t.Fatalf("QueryBatch failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(records), records)
	}

	found := records[0]
	if found.ContainerNumber != "ABCU1234567" || found.Terminal != "Shippers Transport" {
		t.Fatalf("unexpected record %+v", found)
	}
	if found.LineHold != "HOLD" || found.CustomsHold != "Released" {
		t.Fatalf("holds not parsed: %+v", found)
	}
	if found.TerminalHold != "Demurrage | Total Fees: $100.00" {
		t.Fatalf("TerminalHold = %q", found.TerminalHold)
	}
	if found.Location != "Yard C-3" || found.LineOperator != "Maersk" {
		t.Fatalf("location split wrong: %+v", found)
	}

	if records[1].Terminal != status.TerminalNotFound || records[1].ContainerNumber != "XYZU9999999" {
		t.Fatalf("unexpected not-found record %+v", records[1])
	}
}

func TestTideworksChallengeNeverPresent(t *testing.T) {
	present, err := newTideworks(&fakeSession{}).ChallengePresent(context.Background())
	if err != nil || present {
		t.Fatalf("ChallengePresent = %v, %v", present, err)
	}
}
