package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xealabs/xea-oracle/internal/attest"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status <job id>",
	Short: "Show a validation job's progress and partial results",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

// aggregateCmd represents the aggregate command
var aggregateCmd = &cobra.Command{
	Use:   "aggregate <job id>",
	Short: "Aggregate a completed job into an evidence bundle",
	Long: `Aggregate computes PoI agreement, PoUW scores with confidence
intervals, outlier flags and a governance recommendation from a
completed job's miner responses, and prints the evidence bundle.

The job must have status "completed". Aggregating the same job twice
yields an identical bundle.`,
	Args: cobra.ExactArgs(1),
	RunE: runAggregate,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(aggregateCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := buildServices(cfg)
	if err != nil {
		return err
	}

	job, err := svc.store.GetJob(args[0])
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func runAggregate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := buildServices(cfg)
	if err != nil {
		return err
	}

	bundle, err := svc.engine.AggregateJob(args[0])
	if err != nil {
		return err
	}
	hash, err := attest.EvidenceHash(bundle)
	if err != nil {
		return fmt.Errorf("hash bundle: %w", err)
	}

	out, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Evidence hash: %s\n", hash)
	fmt.Println(string(out))
	return nil
}
