package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/paramstore"
	"github.com/meigma/paramstore/internal/manifest"
)

var (
	listClassifier string
	listHuman      bool
)

var listCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List manifest entries",
	Long: `Ls displays the parameter files recorded in the manifest, optionally
scoped to one classifier.

Examples:
  paramstore ls
  paramstore ls -H
  paramstore ls --classifier sector-32GiB`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listClassifier, "classifier", "", "Only show entries with this classifier")
	listCmd.Flags().BoolVarP(&listHuman, "human-readable", "H", false, "Print sizes in human-readable format")
	rootCmd.AddCommand(listCmd)
}

func runList(_ *cobra.Command, _ []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	m, err := manifest.Load(client.ManifestPath())
	if err != nil {
		return err
	}

	printEntries(os.Stdout, m, listClassifier)
	return nil
}

// printEntries prints identifier, classifier, size, and digest per entry.
func printEntries(w io.Writer, m *paramstore.Manifest, classifier string) {
	matched := m.EntriesFor(classifier)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, id := range m.Identifiers() {
		entry, ok := matched[id]
		if !ok {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", id, entry.Classifier, formatSize(entry.Size), entry.Digest)
	}
	tw.Flush()
}

// formatSize formats a byte count for display.
func formatSize(size int64) string {
	if listHuman {
		//nolint:gosec // G115: sizes come from the manifest, never negative
		return humanize.IBytes(uint64(size))
	}
	return strconv.FormatInt(size, 10)
}
