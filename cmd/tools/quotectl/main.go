// quotectl loads a rules catalog, runs one calculation and prints the
// detailed breakdown. Useful for checking a catalog before deploying it.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/heliosol/backend-offer/internal/quote"
	"github.com/heliosol/backend-offer/internal/registry"
)

func main() {
	var (
		catalogPath = flag.String("catalog", "", "path to the YAML rules catalog")
		amount      = flag.String("amount", "", "original amount to quote")
		accessories = flag.String("accessories", "", "comma separated accessory IDs to include")
		contextJSON = flag.String("context", "", "calculation context as a JSON object")
		asJSON      = flag.Bool("json", false, "print the full breakdown as JSON")
	)
	flag.Parse()

	if *catalogPath == "" || *amount == "" {
		flag.Usage()
		os.Exit(2)
	}

	original, err := decimal.NewFromString(*amount)
	if err != nil {
		log.Fatalf("parse amount: %v", err)
	}

	var calcCtx map[string]any
	if strings.TrimSpace(*contextJSON) != "" {
		if err := json.Unmarshal([]byte(*contextJSON), &calcCtx); err != nil {
			log.Fatalf("parse context: %v", err)
		}
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	svc := quote.NewService(logger, registry.NewMemory())
	if err := svc.LoadCatalogFile(*catalogPath); err != nil {
		log.Fatalf("load catalog: %v", err)
	}

	var accessoryIDs []string
	for _, id := range strings.Split(*accessories, ",") {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			accessoryIDs = append(accessoryIDs, trimmed)
		}
	}

	report := svc.ValidateInputs(original, accessoryIDs)
	for _, warning := range report.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", warning)
	}
	for _, rec := range report.Recommendations {
		fmt.Fprintln(os.Stderr, "note:", rec)
	}
	if !report.Valid {
		for _, msg := range report.Errors {
			fmt.Fprintln(os.Stderr, "error:", msg)
		}
		os.Exit(1)
	}

	breakdown := svc.Breakdown(quote.Request{
		OriginalAmount: original,
		AccessoryIDs:   accessoryIDs,
		Context:        calcCtx,
	})

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(breakdown); err != nil {
			log.Fatalf("encode breakdown: %v", err)
		}
		return
	}

	fmt.Println(breakdown.Formula)
	for _, c := range breakdown.Contributions {
		capped := ""
		if c.Capped {
			capped = " (capped)"
		}
		fmt.Printf("  step %d  %-22s %-30s %s%s\n", c.Step, c.Kind, c.Ref, c.Amount, capped)
	}
	fmt.Printf("final amount: %s\n", breakdown.Step10FinalAmount)
	if breakdown.Checks.PreventedNegative {
		fmt.Println("note: negative total clamped to zero")
	}
}
