package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"gatecheck/internal/browser"
	"gatecheck/internal/logging"
	"gatecheck/internal/wms"
)

func newWMSCommand(cmdCtx *commandContext) *cobra.Command {
	wmsCmd := &cobra.Command{
		Use:   "wms",
		Short: "Warehouse management workflows",
	}

	wmsCmd.AddCommand(newWMSInboundCommand(cmdCtx))
	wmsCmd.AddCommand(newWMSOutboundCommand(cmdCtx))
	wmsCmd.AddCommand(newWMSQueryCommand(cmdCtx))
	return wmsCmd
}

// withWMSClient opens an authenticated warehouse session, runs fn, and closes
// the session on every exit path.
func (c *commandContext) withWMSClient(ctx context.Context, headless bool, fn func(context.Context, *wms.Client) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.WMS.Enabled {
		return errors.New("wms is not enabled; set wms.enabled = true and the site URLs in the config")
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}

	lock, err := c.acquireLock()
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("release lock failed", logging.Error(err))
		}
	}()

	session, err := browser.Connect(ctx, browser.ConnectOptions{
		URL:         cfg.Browser.WebDriverURL,
		Headless:    headless || cfg.Browser.Headless,
		DownloadDir: cfg.Paths.DownloadDir,
	})
	if err != nil {
		return fmt.Errorf("open browser: %w", err)
	}

	client := wms.NewClient(session, logger, wms.Config{
		LoginURL:       cfg.WMS.LoginURL,
		InboundURL:     cfg.WMS.InboundURL,
		OutboundURL:    cfg.WMS.OutboundURL,
		Username:       cfg.WMS.Username,
		Password:       cfg.WMS.Password,
		DownloadDir:    cfg.Paths.DownloadDir,
		Warehouse:      cfg.WMS.Warehouse,
		UnitsPerPallet: cfg.WMS.UnitsPerPallet,
	})
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("session close failed", logging.Error(err))
		}
	}()

	ok, err := client.Login(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("wms login rejected; check credentials")
	}
	return fn(ctx, client)
}

func parseRequiredDate(value string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "02-Jan-06"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q must look like 2006-01-02 or 02-Jan-06", value)
}

func newWMSInboundCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		product  string
		pallets  int
		dateFlag string
		headless bool
	)

	cmd := &cobra.Command{
		Use:   "inbound CONTAINER",
		Short: "Create an inbound receipt with one line per pallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inbound := wms.Inbound{
				Container: args[0],
				Product:   product,
				Pallets:   pallets,
			}
			if dateFlag != "" {
				parsed, err := parseRequiredDate(dateFlag)
				if err != nil {
					return err
				}
				inbound.BookingDate = parsed
			}
			// Bad input must fail before the browser opens.
			if err := inbound.Validate(); err != nil {
				return err
			}

			return cmdCtx.withWMSClient(cmd.Context(), headless, func(ctx context.Context, client *wms.Client) error {
				if err := client.CreateInbound(ctx, inbound); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Inbound receipt created for %s\n", inbound.Container)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&product, "product", "", "Product code for each pallet line")
	cmd.Flags().IntVar(&pallets, "pallets", 0, "Number of pallets (default 22)")
	cmd.Flags().StringVar(&dateFlag, "date", "", "Booking date (default today)")
	cmd.Flags().BoolVar(&headless, "headless", false, "Run without a browser window")
	return cmd
}

func newWMSOutboundCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		pallets  int
		dateFlag string
		headless bool
	)

	cmd := &cobra.Command{
		Use:   "outbound CONTAINER",
		Short: "Place an outbound order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dateFlag == "" {
				return errors.New("outbound orders require --date")
			}
			parsed, err := parseRequiredDate(dateFlag)
			if err != nil {
				return err
			}
			outbound := wms.Outbound{
				Container:    args[0],
				RequiredDate: parsed,
				Pallets:      pallets,
			}
			if err := outbound.Validate(); err != nil {
				return err
			}

			return cmdCtx.withWMSClient(cmd.Context(), headless, func(ctx context.Context, client *wms.Client) error {
				if err := client.CreateOutbound(ctx, outbound); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Outbound order placed for %s\n", outbound.Container)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&pallets, "pallets", 0, "Number of pallets (default 22)")
	cmd.Flags().StringVar(&dateFlag, "date", "", "Required delivery date")
	cmd.Flags().BoolVar(&headless, "headless", false, "Run without a browser window")
	return cmd
}

func newWMSQueryCommand(cmdCtx *commandContext) *cobra.Command {
	var headless bool

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Export the current inventory and archive the spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			return cmdCtx.withWMSClient(cmd.Context(), headless, func(ctx context.Context, client *wms.Client) error {
				path, err := client.QueryInventory(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Inventory exported to %s\n", path)

				if cfg.WMS.ArchiveDir == "" {
					return nil
				}
				uploader := wms.DirUploader{Dir: cfg.WMS.ArchiveDir}
				if err := uploader.Upload(ctx, path); err != nil {
					return fmt.Errorf("archive inventory export: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Archived copy in %s\n", cfg.WMS.ArchiveDir)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&headless, "headless", false, "Run without a browser window")
	return cmd
}
