package wms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gatecheck/internal/browser"
	"gatecheck/internal/fileutil"
	"gatecheck/internal/logging"
	"gatecheck/internal/poll"
)

// Form field names on the warehouse site. The grid fields are ASP.NET
// controls whose names carry a zero-padded line index starting at 2.
const (
	fieldLoginName     = "LoginNameTextBox"
	fieldLoginPassword = "PasswordTextBox"
	fieldLoginButton   = "SigninBtn"
	idLoginStatus      = "LoginStatusString"

	fieldNewButton       = "ctl07$SearchResultsDataGridController$btnNewButtonSearchControl"
	fieldWarehouseSelect = "WarehouseDropDown"
	fieldReceiveRef      = "ReceiveRef"
	fieldBookingDate     = "BookingDate$ctl00$TextBox"
	fieldTotalUnits      = "TotalUnits"
	fieldTotalPallets    = "TotalPallets"
	fieldSaveReceive     = "SaveReceive"

	fieldOrderNumber  = "OrderNumber"
	fieldRequiredDate = "RequiredByDate$ctl00$TextBox"
	fieldSaveOrder    = "SaveOrder"

	fieldFindButton   = "ctl07$ctl01$FooterRow_FindButton"
	idResultsGrid     = "ctl07_SearchResultsDataGridController_SearchResultsDataGrid"
	fieldExportButton = "ctl07$SearchResultsDataGridController$SearchResultsDataGrid_ExcelButton"

	// The unit and expected-quantity selects stay in the ctl02 slot for
	// every line the grid adds.
	fieldLinePacksUnit  = "WhsReceiveInventoryGrid$ctl02$ctl03"
	fieldLineExpected   = "WhsReceiveInventoryGrid$ctl02$ctl04"
	lineButtonTemplate  = "WhsReceiveInventoryGrid_ctl%02d_ga"
	lineProductTemplate = "WhsReceiveInventoryGrid$ctl%02d$ctl00$TextBox"
	linePacksTemplate   = "WhsReceiveInventoryGrid$ctl%02d$ctl02"
)

// dateLayout is the format the site's date pickers expect, e.g. 02-Jan-06.
const dateLayout = "02-Jan-06"

const (
	defaultWarehouse      = "HAYMAN WAREHOUSE"
	defaultUnitsPerPallet = 60
	defaultPallets        = 22
	exportFileName        = "SearchResults.xls"
	inventoryFileName     = "inbound.xls"
)

// Config locates and authenticates the warehouse site.
type Config struct {
	LoginURL    string
	InboundURL  string
	OutboundURL string
	Username    string
	Password    string
	// DownloadDir is where the browser drops inventory exports.
	DownloadDir string
	// Warehouse is the dropdown entry selected for new receipts and orders.
	Warehouse string
	// UnitsPerPallet converts pallet counts to unit totals.
	UnitsPerPallet int
	// FindTimeout bounds individual element waits. Defaults to 5s.
	FindTimeout time.Duration
	// DownloadTimeout bounds the wait for an inventory export to land in
	// DownloadDir. Defaults to 30s.
	DownloadTimeout time.Duration
}

// Inbound describes one receipt to create. Every pallet becomes a grid line
// of UnitsPerPallet units.
type Inbound struct {
	Container string
	Product   string
	Pallets   int
	// BookingDate defaults to today.
	BookingDate time.Time
}

// Validate reports the configuration errors that must stop a run before the
// browser opens.
func (in Inbound) Validate() error {
	if in.Container == "" {
		return errors.New("inbound receipt requires a container number")
	}
	if in.Pallets < 0 {
		return fmt.Errorf("inbound receipt pallet count %d is negative", in.Pallets)
	}
	return nil
}

// Outbound describes one order to place.
type Outbound struct {
	Container    string
	RequiredDate time.Time
	Pallets      int
}

// Validate reports the configuration errors that must stop a run before the
// browser opens.
func (out Outbound) Validate() error {
	if out.Container == "" {
		return errors.New("outbound order requires a container number")
	}
	if out.RequiredDate.IsZero() {
		return errors.New("outbound order requires a delivery date")
	}
	if out.Pallets < 0 {
		return fmt.Errorf("outbound order pallet count %d is negative", out.Pallets)
	}
	return nil
}

// Client owns a browser session against the warehouse site.
type Client struct {
	session browser.Session
	logger  *slog.Logger
	cfg     Config
	now     func() time.Time
}

// NewClient constructs the client. The client takes ownership of session.
func NewClient(session browser.Session, logger *slog.Logger, cfg Config) *Client {
	if cfg.Warehouse == "" {
		cfg.Warehouse = defaultWarehouse
	}
	if cfg.UnitsPerPallet <= 0 {
		cfg.UnitsPerPallet = defaultUnitsPerPallet
	}
	if cfg.FindTimeout <= 0 {
		cfg.FindTimeout = 5 * time.Second
	}
	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = 30 * time.Second
	}
	return &Client{
		session: session,
		logger:  logging.WithComponent(logger, "wms"),
		cfg:     cfg,
		now:     time.Now,
	}
}

// Close releases the browser session.
func (c *Client) Close() error { return c.session.Close() }

// Login authenticates against the warehouse site. Returns false without
// error when the status banner never appears after submitting credentials.
func (c *Client) Login(ctx context.Context) (bool, error) {
	if err := c.session.Navigate(ctx, c.cfg.LoginURL); err != nil {
		return false, fmt.Errorf("navigate to login: %w", err)
	}

	if err := c.fill(ctx, fieldLoginName, c.cfg.Username); err != nil {
		return false, err
	}
	if err := c.fill(ctx, fieldLoginPassword, c.cfg.Password); err != nil {
		return false, err
	}
	if err := c.click(ctx, browser.ByName(fieldLoginButton)); err != nil {
		return false, err
	}

	_, err := browser.AwaitElement(ctx, c.session, browser.ByID(idLoginStatus), c.cfg.FindTimeout)
	if errors.Is(err, browser.ErrNoSuchElement) {
		c.logger.Warn("login rejected")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("confirm login: %w", err)
	}
	c.logger.Info("login successful")
	return true, nil
}

// CreateInbound creates a receipt with one grid line per pallet.
func (c *Client) CreateInbound(ctx context.Context, in Inbound) error {
	if err := in.Validate(); err != nil {
		return err
	}
	pallets := in.Pallets
	if pallets == 0 {
		pallets = defaultPallets
	}
	bookingDate := in.BookingDate
	if bookingDate.IsZero() {
		bookingDate = c.now()
	}

	if err := c.session.Navigate(ctx, c.cfg.InboundURL); err != nil {
		return fmt.Errorf("navigate to inbound: %w", err)
	}
	if err := c.click(ctx, browser.ByName(fieldNewButton)); err != nil {
		return err
	}
	if err := c.selectWarehouse(ctx); err != nil {
		return err
	}

	if err := c.fill(ctx, fieldReceiveRef, in.Container); err != nil {
		return err
	}
	if err := c.fill(ctx, fieldBookingDate, bookingDate.Format(dateLayout)); err != nil {
		return err
	}
	if err := c.fill(ctx, fieldTotalUnits, strconv.Itoa(pallets*c.cfg.UnitsPerPallet)); err != nil {
		return err
	}
	if err := c.fill(ctx, fieldTotalPallets, strconv.Itoa(pallets)); err != nil {
		return err
	}

	// Grid line indices start at 2.
	for i := 2; i < pallets+2; i++ {
		if err := c.addLine(ctx, i, in.Product); err != nil {
			return fmt.Errorf("add pallet line %d: %w", i-1, err)
		}
	}

	if err := c.click(ctx, browser.ByName(fieldSaveReceive)); err != nil {
		return err
	}
	c.logger.Info("inbound receipt created",
		logging.String("container", in.Container),
		logging.Int("pallets", pallets))
	return nil
}

func (c *Client) addLine(ctx context.Context, index int, product string) error {
	if err := c.click(ctx, browser.ByID(fmt.Sprintf(lineButtonTemplate, index))); err != nil {
		return err
	}
	if err := c.fill(ctx, fmt.Sprintf(lineProductTemplate, index), product); err != nil {
		return err
	}
	if err := c.fill(ctx, fmt.Sprintf(linePacksTemplate, index), strconv.Itoa(c.cfg.UnitsPerPallet)); err != nil {
		return err
	}

	unitSelect, err := browser.AwaitElement(ctx, c.session, browser.ByName(fieldLinePacksUnit), c.cfg.FindTimeout)
	if err != nil {
		return fmt.Errorf("locate packs unit select: %w", err)
	}
	if err := browser.SelectByVisibleText(ctx, unitSelect, "Unit"); err != nil {
		return fmt.Errorf("select packs unit: %w", err)
	}

	return c.fill(ctx, fieldLineExpected, strconv.Itoa(c.cfg.UnitsPerPallet))
}

// CreateOutbound places an order keyed by the container number.
func (c *Client) CreateOutbound(ctx context.Context, out Outbound) error {
	if err := out.Validate(); err != nil {
		return err
	}
	pallets := out.Pallets
	if pallets == 0 {
		pallets = defaultPallets
	}

	if err := c.session.Navigate(ctx, c.cfg.OutboundURL); err != nil {
		return fmt.Errorf("navigate to outbound: %w", err)
	}
	if err := c.click(ctx, browser.ByName(fieldNewButton)); err != nil {
		return err
	}
	if err := c.selectWarehouse(ctx); err != nil {
		return err
	}

	if err := c.fill(ctx, fieldOrderNumber, out.Container); err != nil {
		return err
	}
	if err := c.fill(ctx, fieldRequiredDate, out.RequiredDate.Format(dateLayout)); err != nil {
		return err
	}
	if err := c.fill(ctx, fieldTotalUnits, strconv.Itoa(pallets*c.cfg.UnitsPerPallet)); err != nil {
		return err
	}

	if err := c.click(ctx, browser.ByName(fieldSaveOrder)); err != nil {
		return err
	}
	c.logger.Info("outbound order created",
		logging.String("container", out.Container),
		logging.Int("pallets", pallets))
	return nil
}

// QueryInventory exports the inbound search results and waits for the
// download to land, then renames it for the sync step. Returns the final
// file path.
func (c *Client) QueryInventory(ctx context.Context) (string, error) {
	if err := c.session.Navigate(ctx, c.cfg.InboundURL); err != nil {
		return "", fmt.Errorf("navigate to inbound: %w", err)
	}
	if err := c.click(ctx, browser.ByName(fieldFindButton)); err != nil {
		return "", err
	}
	if _, err := browser.AwaitElement(ctx, c.session, browser.ByID(idResultsGrid), c.cfg.FindTimeout); err != nil {
		return "", fmt.Errorf("locate results grid: %w", err)
	}
	if err := c.click(ctx, browser.ByName(fieldExportButton)); err != nil {
		return "", err
	}

	exported := filepath.Join(c.cfg.DownloadDir, exportFileName)
	err := poll.Until(ctx, poll.Options{Interval: time.Second, Ceiling: c.cfg.DownloadTimeout},
		func(context.Context) (bool, error) {
			_, statErr := os.Stat(exported)
			if os.IsNotExist(statErr) {
				return false, nil
			}
			return statErr == nil, statErr
		})
	if errors.Is(err, poll.ErrCeiling) {
		return "", fmt.Errorf("inventory export did not arrive within %s", c.cfg.DownloadTimeout)
	}
	if err != nil {
		return "", fmt.Errorf("wait for inventory export: %w", err)
	}

	final := filepath.Join(c.cfg.DownloadDir, inventoryFileName)
	if err := fileutil.MoveFile(exported, final); err != nil {
		return "", fmt.Errorf("rename inventory export: %w", err)
	}
	c.logger.Info("inventory exported", logging.String("file", final))
	return final, nil
}

func (c *Client) selectWarehouse(ctx context.Context) error {
	sel, err := browser.AwaitElement(ctx, c.session, browser.ByName(fieldWarehouseSelect), c.cfg.FindTimeout)
	if err != nil {
		return fmt.Errorf("locate warehouse select: %w", err)
	}
	if err := browser.SelectByVisibleText(ctx, sel, c.cfg.Warehouse); err != nil {
		return fmt.Errorf("select warehouse: %w", err)
	}
	return nil
}

func (c *Client) fill(ctx context.Context, name, value string) error {
	field, err := browser.AwaitElement(ctx, c.session, browser.ByName(name), c.cfg.FindTimeout)
	if err != nil {
		return fmt.Errorf("locate field %s: %w", name, err)
	}
	if err := field.Clear(ctx); err != nil {
		return fmt.Errorf("clear field %s: %w", name, err)
	}
	if err := field.SendKeys(ctx, value); err != nil {
		return fmt.Errorf("fill field %s: %w", name, err)
	}
	return nil
}

func (c *Client) click(ctx context.Context, loc browser.Locator) error {
	el, err := browser.AwaitElement(ctx, c.session, loc, c.cfg.FindTimeout)
	if err != nil {
		return fmt.Errorf("locate %s: %w", loc, err)
	}
	if err := el.Click(ctx); err != nil {
		return fmt.Errorf("click %s: %w", loc, err)
	}
	return nil
}
