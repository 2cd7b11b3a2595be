package main

import (
	"flag"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/doctotals_backend/models"
	"bitbucket.org/mmdatafocus/doctotals_backend/utils"
	"github.com/shopspring/decimal"
)

// totals-harness replays a captured form payload through the engine so a
// reported totals/balance discrepancy can be reproduced outside the UI.
//
// Example:
//   go run ./cmd/totals-harness --file=payload.json --kind=document
//   go run ./cmd/totals-harness --file=payload.json --kind=voucher --strict
type documentPayload struct {
	Items           []models.LineItem `json:"items"`
	DiscountPercent decimal.Decimal   `json:"discount_percent"`
}

type voucherPayload struct {
	Mode                models.VoucherMode   `json:"mode"`
	CreditEntries       []models.LedgerEntry `json:"credit_entries"`
	DebitEntries        []models.LedgerEntry `json:"debit_entries"`
	Principal           decimal.Decimal      `json:"principal"`
	SubEntries          []models.LedgerEntry `json:"sub_entries"`
	DistributionEnabled bool                 `json:"distribution_enabled"`
}

func main() {
	var (
		file   = flag.String("file", "", "payload JSON file (required)")
		kind   = flag.String("kind", "document", "payload kind: document or voucher")
		strict = flag.Bool("strict", false, "run in strict (submission) mode")
	)
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "missing required --file")
		flag.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", *file, err)
		os.Exit(1)
	}

	switch *kind {
	case "document":
		runDocument(data, *strict)
	case "voucher":
		runVoucher(data, *strict)
	default:
		fmt.Fprintf(os.Stderr, "unknown --kind %q\n", *kind)
		os.Exit(2)
	}
}

func runDocument(data []byte, strict bool) {
	var payload documentPayload
	if err := utils.UnmarshalFromJSON(data, &payload); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal document payload: %v\n", err)
		os.Exit(1)
	}

	var totals models.DocumentTotals
	if strict {
		var err error
		totals, err = models.ComputeDocumentTotalsStrict(payload.Items, payload.DiscountPercent)
		if err != nil {
			fmt.Fprintf(os.Stderr, "strict validation failed (%s): %v\n", models.ValidationCode(err), err)
			os.Exit(1)
		}
	} else {
		totals = models.ComputeDocumentTotals(payload.Items, payload.DiscountPercent)
	}

	if err := utils.MarshalIndentToWriter(os.Stdout, totals); err != nil {
		fmt.Fprintf(os.Stderr, "print totals: %v\n", err)
		os.Exit(1)
	}
}

func runVoucher(data []byte, strict bool) {
	var payload voucherPayload
	if err := utils.UnmarshalFromJSON(data, &payload); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal voucher payload: %v\n", err)
		os.Exit(1)
	}
	if !payload.Mode.IsValid() {
		fmt.Fprintln(os.Stderr, "payload mode must be TwoSided or PrincipalDistribution")
		os.Exit(2)
	}

	checker := models.NewLedgerBalanceChecker()

	var result models.BalanceResult
	var err error
	if payload.Mode == models.VoucherModeTwoSided {
		if strict {
			result, err = checker.CheckTwoSidedStrict(payload.CreditEntries, payload.DebitEntries)
		} else {
			result = checker.CheckTwoSided(payload.CreditEntries, payload.DebitEntries)
		}
	} else {
		if strict {
			result, err = checker.CheckPrincipalDistributionStrict(payload.Principal, payload.SubEntries, payload.DistributionEnabled)
		} else {
			result = checker.CheckPrincipalDistribution(payload.Principal, payload.SubEntries, payload.DistributionEnabled)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "strict validation failed (%s): %v\n", models.ValidationCode(err), err)
		os.Exit(1)
	}

	if err := utils.MarshalIndentToWriter(os.Stdout, result); err != nil {
		fmt.Fprintf(os.Stderr, "print balance: %v\n", err)
		os.Exit(1)
	}
}
