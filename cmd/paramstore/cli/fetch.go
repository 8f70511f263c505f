package cli

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/meigma/paramstore"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [classifier]",
	Short: "Download and verify parameter files",
	Long: `Fetch downloads every manifest entry matching the classifier and verifies
each file against its expected digest and size. Without a classifier, the
whole manifest is fetched.

Files already present and valid in the cache directory are skipped without
network traffic. Interrupted downloads resume from the partial file.

Examples:
  paramstore fetch
  paramstore fetch sector-32GiB
  paramstore fetch sector-512MiB --base-url https://params.example.com`,
	Args:              cobra.MaximumNArgs(1),
	RunE:              runFetch,
	ValidArgsFunction: completeClassifiers,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(_ *cobra.Command, args []string) error {
	var classifier string
	if len(args) == 1 {
		classifier = args[0]
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := client.Fetch(ctx, classifier)
	if err != nil {
		return err
	}

	printOutcomes(results)

	for _, outcome := range results {
		if outcome.Status != paramstore.StatusVerified {
			return fmt.Errorf("%d of %d parameter files failed", countFailed(results), len(results))
		}
	}
	return nil
}

// printOutcomes writes one line per identifier in sorted order.
func printOutcomes(results map[string]paramstore.Outcome) {
	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, id := range ids {
		outcome := results[id]
		detail := ""
		if outcome.Err != nil {
			detail = outcome.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", outcome.Status, id, detail)
	}
	tw.Flush()
}

func countFailed(results map[string]paramstore.Outcome) int {
	var n int
	for _, outcome := range results {
		if outcome.Status != paramstore.StatusVerified {
			n++
		}
	}
	return n
}
