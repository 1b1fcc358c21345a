// Command cleanup collapses duplicate reviews in the primary store down to
// one record per logical review. Dry-run by default; --execute applies the
// deletions after an explicit typed confirmation.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"localbiz_backend/internal/adapters/observability"
	"localbiz_backend/internal/adapters/supabase"
	"localbiz_backend/internal/dedup"
	"localbiz_backend/internal/shared"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var execute bool
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Find and remove duplicate reviews",
		Long: `Scans the active review set, groups duplicates by content and keeps the
most recent record of each group. Without --execute nothing is deleted;
the keep/delete plan is printed for audit.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), execute)
		},
	}
	cmd.Flags().BoolVar(&execute, "execute", false, "apply deletions (default is a dry-run report)")
	return cmd
}

func run(ctx context.Context, execute bool) error {
	cfg := shared.Load()
	log.Logger = observability.NewLogger("dev") // console output for the operator

	if cfg.StoreURL == "" || cfg.StoreKey == "" {
		return fmt.Errorf("STORE_URL and STORE_SERVICE_ROLE_KEY must be set")
	}
	store, err := supabase.New(cfg.StoreURL, cfg.StoreKey, 10)
	if err != nil {
		return err
	}

	fmt.Println("Scanning active reviews for duplicates...")
	if execute {
		fmt.Println("DESTRUCTIVE MODE: duplicates will be deleted after confirmation")
	} else {
		fmt.Println("Dry-run: nothing will be deleted")
	}
	fmt.Println()

	snapshot, err := store.ListActive(ctx, 0)
	if err != nil {
		return fmt.Errorf("fetch snapshot: %w", err)
	}

	plan := dedup.PlanCleanup(snapshot)
	fmt.Printf("Total reviews scanned: %d\n\n", plan.Scanned)

	if len(plan.Groups) == 0 {
		fmt.Println("No duplicates found.")
		return nil
	}

	for _, g := range plan.Groups {
		fmt.Printf("Group: %s - %d stars\n", g.Keep.AuthorName, g.Keep.Rating)
		fmt.Printf("  Text: %.60s...\n", g.Keep.Text)
		fmt.Printf("  Keep:   ID %d (review_id: %s, ts: %d)\n", g.Keep.ID, orNA(g.Keep.ReviewID), g.Keep.ReviewTimestamp)
		for _, d := range g.Delete {
			fmt.Printf("  Delete: ID %d (review_id: %s, ts: %d)\n", d.ID, orNA(d.ReviewID), d.ReviewTimestamp)
		}
		fmt.Println()
	}

	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Duplicate groups: %d\n", len(plan.Groups))
	fmt.Printf("Reviews to keep:  %d\n", plan.KeepCount())
	fmt.Printf("Reviews to delete: %d\n", plan.DeleteCount())
	fmt.Println(strings.Repeat("=", 60))

	if !execute {
		fmt.Println("\nDry-run complete. Re-run with --execute to delete.")
		return nil
	}

	fmt.Printf("\nWARNING: %d reviews will be permanently deleted.\n", plan.DeleteCount())
	fmt.Print("Type 'CONFIRM' to continue: ")
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Scan()
	if strings.TrimSpace(scanner.Text()) != "CONFIRM" {
		// user abort, not an error; nothing was mutated
		fmt.Println("Cancelled.")
		return nil
	}

	res := dedup.ExecuteCleanup(ctx, store, plan)
	fmt.Printf("\nDeleted: %d\n", res.Deleted)
	if res.Errors > 0 {
		return fmt.Errorf("%d deletions failed", res.Errors)
	}
	return nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
