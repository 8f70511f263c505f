package cli

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify cached parameter files against the manifest",
	Long: `Verify checks every manifest entry against the cache directory, reporting
per-identifier validity. Missing, truncated, and corrupt files all report
as bad. No network traffic is generated.

Examples:
  paramstore verify`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(_ *cobra.Command, _ []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := client.VerifyAll(ctx)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var bad int
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, id := range ids {
		state := "ok"
		if !results[id] {
			state = "bad"
			bad++
		}
		fmt.Fprintf(tw, "%s\t%s\n", state, id)
	}
	tw.Flush()

	if bad > 0 {
		return fmt.Errorf("%d of %d parameter files failed verification", bad, len(results))
	}
	return nil
}
