package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
	"receivables.app/invoicing/calculator"
	"receivables.app/invoicing/models"
)

const timeLayout = time.RFC3339

const customDueDays = "custom-due-days"

func customDueDaysFlag() cli.Flag {
	return &cli.IntFlag{
		Name:    customDueDays,
		Usage:   "due date offset for CUSTOM terms",
		Value:   30,
		EnvVars: []string{"INVOICECTL_CUSTOM_DUE_DAYS"},
	}
}

func newApp(w io.Writer) *cli.App {
	return &cli.App{
		Name:      "invoicectl",
		Usage:     "price invoices, describe payment terms and quote settlements",
		Writer:    w,
		ErrWriter: w,
		Commands: []*cli.Command{
			{
				Name:      "totals",
				Usage:     "print subtotal, VAT and total of an invoice configuration",
				ArgsUsage: "<config.json>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "vat-rate",
						Usage:   "VAT rate used when the configuration includes VAT without a rate",
						EnvVars: []string{"INVOICECTL_VAT_RATE"},
					},
				},
				Action: totalsAction,
			},
			{
				Name:      "terms",
				Usage:     "describe a payment term type",
				ArgsUsage: "<TYPE>",
				Flags:     []cli.Flag{customDueDaysFlag()},
				Action:    termsAction,
			},
			{
				Name:      "number",
				Usage:     "generate an invoice number",
				ArgsUsage: "<business name>",
				Flags: []cli.Flag{
					&cli.TimestampFlag{Name: "at", Usage: "issue time", Layout: timeLayout},
				},
				Action: numberAction,
			},
			{
				Name:      "quote",
				Usage:     "quote the amount due when paying at a given time",
				ArgsUsage: "<config.json>",
				Flags: []cli.Flag{
					&cli.TimestampFlag{Name: "issued-at", Usage: "invoice date", Layout: timeLayout, Required: true},
					&cli.TimestampFlag{Name: "paid-at", Usage: "payment time, defaults to now", Layout: timeLayout},
					&cli.StringFlag{
						Name:    "tier-policy",
						Usage:   "early discount tier policy, best or first",
						Value:   string(calculator.TierPolicyBest),
						EnvVars: []string{"INVOICECTL_TIER_POLICY"},
					},
					customDueDaysFlag(),
				},
				Action: quoteAction,
			},
		},
	}
}

type totalsOutput struct {
	Totals    models.Totals          `json:"totals"`
	Formatted models.FormattedTotals `json:"formatted"`
	Terms     string                 `json:"payment_terms"`
}

func totalsAction(c *cli.Context) error {
	invoiceCfg, err := readConfiguration(c.Args().First())
	if err != nil {
		return err
	}

	if raw := c.String("vat-rate"); raw != "" && invoiceCfg.IncludeVAT && invoiceCfg.VATRate.IsZero() {
		if invoiceCfg.VATRate, err = decimal.NewFromString(raw); err != nil {
			return fmt.Errorf("invalid vat rate %q: %w", raw, err)
		}
	}

	totals := calculator.CalculateTotals(invoiceCfg)
	return writeJSON(c.App.Writer, totalsOutput{
		Totals:    totals,
		Formatted: calculator.FormatTotals(totals, invoiceCfg.Currency),
		Terms:     calculator.ResolvePaymentTerms(invoiceCfg).Description,
	})
}

func termsAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one term type")
	}
	termType := models.PaymentTermType(c.Args().First())

	return writeJSON(c.App.Writer, models.PaymentTermResponse{
		TermType:    termType,
		Description: calculator.DefaultDescription(termType),
		DueDays:     calculator.DueDays(termType, c.Int(customDueDays)),
	})
}

func numberAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected a business name")
	}

	at := time.Now()
	if ts := c.Timestamp("at"); ts != nil {
		at = *ts
	}
	_, err := fmt.Fprintln(c.App.Writer, calculator.GenerateInvoiceNumber(c.Args().First(), at))
	return err
}

func quoteAction(c *cli.Context) error {
	invoiceCfg, err := readConfiguration(c.Args().First())
	if err != nil {
		return err
	}

	policy := calculator.TierPolicy(c.String("tier-policy"))
	if !policy.Valid() {
		return fmt.Errorf("unknown tier policy %q", policy)
	}

	issuedAt := *c.Timestamp("issued-at")
	paidAt := time.Now()
	if ts := c.Timestamp("paid-at"); ts != nil {
		paidAt = *ts
	}
	terms := calculator.ResolvePaymentTerms(invoiceCfg)

	quote := calculator.QuoteSettlement(calculator.QuoteInput{
		Configuration: invoiceCfg,
		IssuedAt:      issuedAt,
		DueDate:       calculator.DueDate(terms.Primary(), issuedAt, c.Int(customDueDays)),
		PaidAt:        paidAt,
		Policy:        policy,
	})
	return writeJSON(c.App.Writer, quote)
}

func readConfiguration(path string) (models.InvoiceConfiguration, error) {
	var invoiceCfg models.InvoiceConfiguration
	if path == "" {
		return invoiceCfg, errors.New("expected a configuration file")
	}

	f, err := os.Open(path)
	if err != nil {
		return invoiceCfg, err
	}
	defer f.Close()

	if err = json.NewDecoder(f).Decode(&invoiceCfg); err != nil {
		return invoiceCfg, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return invoiceCfg, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
