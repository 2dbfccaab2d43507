package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"pizzeria-backend/config"
	"pizzeria-backend/internal/domain"
	infracache "pizzeria-backend/internal/infrastructure/cache"
	"pizzeria-backend/internal/repository/file"
	"pizzeria-backend/internal/usecase"
	"pizzeria-backend/pkg/storage"
	"pizzeria-backend/pkg/utils"

	"github.com/hashicorp/go-multierror"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newValidateTableCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate-table",
		Short: "Load a zone table and report every configuration error",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			table, err := loadTable(cmd.Context(), opts)
			if err != nil {
				var merr *multierror.Error
				if errors.As(err, &merr) {
					fmt.Fprintf(out, "%d problem(s) found:\n", len(merr.Errors))
					for _, e := range merr.Errors {
						fmt.Fprintf(out, "  - %v\n", e)
					}
				}
				return err
			}

			fmt.Fprintf(out, "OK: version %s, %d active zones, %d postal codes, pickup sentinel %q\n",
				table.Version(), len(table.ListActiveZones()), len(table.AllCoveredPostalCodes()), table.PickupSentinel())
			return nil
		},
	}
}

func newZonesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "zones",
		Short: "Print the active delivery zones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := loadTable(cmd.Context(), opts)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPRIORITY\tMINIMUM\tFEE\tFREE FROM\tPOSTAL CODES")
			for _, z := range table.ListActiveZones() {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
					z.ID, z.DisplayName, z.Priority,
					z.MinimumOrderValue.StringFixed(2), z.DeliveryFee.StringFixed(2), z.FreeDeliveryThreshold.StringFixed(2),
					strings.Join(z.PostalCodes, ","))
			}
			p := table.Pickup()
			fmt.Fprintf(w, "%s\t%s\t-\t%s\t0.00\t-\t%s\n", p.ID, p.DisplayName, p.MinimumOrderValue.StringFixed(2), table.PickupSentinel())
			return w.Flush()
		},
	}
}

func newQuoteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "quote <postal-code> <subtotal>",
		Short: "Validate a postal code and price a cart subtotal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			subtotal, err := utils.ParseAmount(args[1], decimal.Zero)
			if err != nil {
				return err
			}

			cfg := config.FromEnv()
			src := file.NewZoneSource(opts.tableFile, cfg.Pickup())
			uc, err := usecase.NewTariffUsecase(cmd.Context(), src, infracache.NewMemoryCache(1), infracache.NewMemoryCache(1), cfg)
			if err != nil {
				return err
			}

			printQuote(cmd, uc.Quote(args[0], subtotal))
			return nil
		},
	}
}

func printQuote(cmd *cobra.Command, q domain.Quote) {
	out := cmd.OutOrStdout()
	v := q.Validation

	if v.IsValid {
		fmt.Fprintf(out, "Postal code: %s (%s)\n", v.NormalizedCode, v.DisplayZoneName)
	} else {
		fmt.Fprintf(out, "Postal code: %q rejected: %s\n", v.NormalizedCode, v.ErrorReason)
	}

	if c := q.Calculation; c != nil {
		fmt.Fprintf(out, "Subtotal:     %s\n", c.Subtotal.StringFixed(2))
		fmt.Fprintf(out, "Delivery fee: %s\n", c.Fee.StringFixed(2))
		fmt.Fprintf(out, "Total:        %s\n", c.Total().StringFixed(2))
		fmt.Fprintf(out, "Minimum met:  %t\n", c.MeetsMinimum)
		fmt.Fprintf(out, "Free delivery progress: %d%%\n", c.ProgressToFreePercent)
	}
	for _, m := range q.Messages {
		fmt.Fprintf(out, "> %s\n", m)
	}
}

func newAdminTokenCmd() *cobra.Command {
	var (
		subject string
		email   string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "admin-token",
		Short: "Mint an admin JWT signed with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ttl <= 0 {
				return fmt.Errorf("--ttl must be positive")
			}
			secret := os.Getenv("JWT_SECRET")
			if secret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}
			utils.SetSecret(secret)

			token, err := utils.GenerateJWT(subject, email, domain.RoleAdmin, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Token subject, e.g. the operator's name")
	cmd.Flags().StringVar(&email, "email", "", "Optional email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

// objectPutter uploads a validated zone table.
type objectPutter interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
}

type publisherFactory func(ctx context.Context, cfg *config.Config) (objectPutter, error)

func newR2Publisher(ctx context.Context, cfg *config.Config) (objectPutter, error) {
	r2Storage, err := storage.NewR2Storage(ctx, cfg.R2AccountID, cfg.R2AccessKeyID, cfg.R2AccessKeySecret, cfg.R2BucketName, cfg.R2Timeout)
	if err != nil {
		return nil, err
	}
	return r2Storage, nil
}

func newPublishCmd(opts *rootOptions, newPublisher publisherFactory) *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Validate a zone table file and upload it to the R2 bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.tableFile == "" {
				return fmt.Errorf("--file is required")
			}
			table, err := loadTable(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("refusing to publish: %w", err)
			}

			data, err := os.ReadFile(opts.tableFile)
			if err != nil {
				return err
			}

			cfg := config.FromEnv()
			if key == "" {
				key = cfg.ZoneTableObjectKey
			}
			publisher, err := newPublisher(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			contentType := "application/yaml"
			if strings.EqualFold(filepath.Ext(opts.tableFile), ".json") {
				contentType = "application/json"
			}
			if err := publisher.PutObject(cmd.Context(), key, data, contentType); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Published version %s to %s\n", table.Version(), key)
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "Object key (defaults to ZONE_TABLE_OBJECT_KEY)")
	return cmd
}
