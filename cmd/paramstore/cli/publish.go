package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meigma/paramstore"
)

var (
	publishClassifier string
	publishYes        bool
	publishNoUpload   bool
)

var publishCmd = &cobra.Command{
	Use:   "publish <file>...",
	Short: "Publish parameter files into the manifest",
	Long: `Publish computes the canonical digest of each candidate file, uploads it
to the distribution endpoint when one is configured, and commits the new
entries to the manifest in a single atomic step.

A candidate whose digest differs from the existing entry under the same
identifier is a version change and is rejected unless --yes is given.
A failed upload leaves the manifest untouched.

Examples:
  paramstore publish ./v28-sector-34359738368.params
  paramstore publish ./params/*.params --classifier sector-32GiB
  paramstore publish ./new.params --yes --no-upload`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&publishClassifier, "classifier", "", "Classifier for all candidates (default: derived from filename)")
	publishCmd.Flags().BoolVar(&publishYes, "yes", false, "Confirm overwriting entries whose digest changed")
	publishCmd.Flags().BoolVar(&publishNoUpload, "no-upload", false, "Record manifest entries without uploading")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(_ *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	var opts []paramstore.PublishOption
	if publishNoUpload {
		opts = append(opts, paramstore.WithoutUpload())
	}

	updated, err := client.Publish(ctx, args, publishClassifier, publishYes, opts...)
	if err != nil {
		return err
	}

	fmt.Printf("Published %d file(s); manifest now holds %d entries\n", len(args), updated.Len())
	return nil
}
