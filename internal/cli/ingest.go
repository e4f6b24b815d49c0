package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xealabs/xea-oracle/internal/ingest"
	"github.com/xealabs/xea-oracle/internal/model"
)

var ingestClaimsOut string

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest <file or URL>",
	Short: "Canonicalize a proposal and extract its claims",
	Long: `Ingest reads a proposal from a local file or fetches it from a URL,
canonicalizes the text, computes its content hash and extracts the
atomic claims that validation would fan out.

Example:
  xea-oracle ingest proposal.md
  xea-oracle ingest https://forum.example.org/t/proposal-42 --claims-out claims.json`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVar(&ingestClaimsOut, "claims-out", "", "write extracted claims JSON to a file")
}

type ingestResult struct {
	ProposalHash  string        `json:"proposal_hash"`
	CanonicalText string        `json:"canonical_text"`
	Claims        []model.Claim `json:"claims"`
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	source := args[0]
	var text string
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		fetched, err := ingest.NewFetcher(cfg.HTTP).Fetch(context.Background(), source)
		if err != nil {
			return fmt.Errorf("fetch proposal: %w", err)
		}
		text = fetched
	} else {
		raw, err := os.ReadFile(source)
		if err != nil {
			return fmt.Errorf("read proposal: %w", err)
		}
		text = string(raw)
	}

	canonical := ingest.CanonicalizeText(text)
	result := ingestResult{
		ProposalHash:  ingest.ProposalHash(canonical),
		CanonicalText: canonical,
		Claims:        ingest.NewExtractor().Extract(canonical),
	}

	fmt.Fprintf(os.Stderr, "Proposal %s: %d claims\n", result.ProposalHash, len(result.Claims))

	if ingestClaimsOut != "" {
		data, err := json.MarshalIndent(result.Claims, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal claims: %w", err)
		}
		if err := os.WriteFile(ingestClaimsOut, data, 0644); err != nil {
			return fmt.Errorf("write claims: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Claims written to %s\n", ingestClaimsOut)
		return nil
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
