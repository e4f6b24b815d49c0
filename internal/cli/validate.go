package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/xealabs/xea-oracle/internal/attest"
	"github.com/xealabs/xea-oracle/internal/ingest"
	"github.com/xealabs/xea-oracle/internal/model"
)

var (
	validateFile   string
	validateOut    string
	runAggregation bool
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate <proposal file>",
	Short: "Validate a proposal's claims against the miner pool",
	Long: `Validate ingests a proposal from a file (markdown or plain text),
extracts its atomic claims, fans them out to the configured miner pool
under the quorum/timeout race, and prints the resulting job record.

With --aggregate the evidence bundle is computed and written as well.

Example:
  xea-oracle validate proposal.md
  xea-oracle validate proposal.md --aggregate --out bundle.json`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFile, "claims", "", "claims JSON file (skip extraction)")
	validateCmd.Flags().StringVar(&validateOut, "out", "", "output JSON path for the evidence bundle")
	validateCmd.Flags().BoolVar(&runAggregation, "aggregate", false, "aggregate after validation completes")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := buildServices(cfg)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read proposal: %w", err)
	}

	canonical := ingest.CanonicalizeText(string(raw))
	proposalHash := ingest.ProposalHash(canonical)

	var claims []model.Claim
	if validateFile != "" {
		data, err := os.ReadFile(validateFile)
		if err != nil {
			return fmt.Errorf("read claims: %w", err)
		}
		if err := json.Unmarshal(data, &claims); err != nil {
			return fmt.Errorf("decode claims: %w", err)
		}
	} else {
		claims = ingest.NewExtractor().Extract(canonical)
	}

	if len(claims) == 0 {
		return fmt.Errorf("no claims found in %s", args[0])
	}
	fmt.Fprintf(os.Stderr, "Proposal %s: %d claims, %d miners, quorum %d\n",
		proposalHash, len(claims), cfg.Miners.Count, cfg.Validation.Quorum)

	// Run in the foreground: the CLI wants the result, not a job id.
	jobID, err := svc.orchestrator.Start(context.Background(), proposalHash, claims)
	if err != nil {
		return err
	}
	if err := waitForJob(svc, jobID); err != nil {
		return err
	}

	job, err := svc.store.GetJob(jobID)
	if err != nil {
		return err
	}
	fmt.Printf("Job %s: %s (%d/%d claims, %d responses)\n",
		job.JobID, job.Status, job.ClaimsValidated, job.ClaimsTotal, job.MinersResponded)

	if !runAggregation {
		return nil
	}

	bundle, err := svc.engine.AggregateJob(jobID)
	if err != nil {
		return err
	}
	hash, err := attest.EvidenceHash(bundle)
	if err != nil {
		return fmt.Errorf("hash bundle: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Evidence hash: %s\n", hash)

	out, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}
	if validateOut != "" {
		if err := os.WriteFile(validateOut, out, 0644); err != nil {
			return fmt.Errorf("write bundle: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Evidence bundle written to %s\n", validateOut)
		return nil
	}
	fmt.Println(string(out))
	return nil
}

// waitForJob polls the store until the job reaches a terminal status.
// Polling (rather than subscribing) cannot miss a job that finishes
// before the first check.
func waitForJob(svc *services, jobID string) error {
	for {
		job, err := svc.store.GetJob(jobID)
		if err != nil {
			return err
		}
		switch job.Status {
		case model.JobCompleted:
			return nil
		case model.JobFailed:
			return fmt.Errorf("job %s failed", jobID)
		}
		time.Sleep(100 * time.Millisecond)
	}
}
