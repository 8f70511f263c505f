package cli

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meigma/paramstore/internal/manifest"
)

// completeClassifiers suggests classifiers found in the manifest.
// Used by the fetch command's positional argument.
func completeClassifiers(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) >= 1 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	client, err := newClient()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	m, err := manifest.Load(client.ManifestPath())
	if err != nil {
		// Don't show error to user during completion - just return no suggestions
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	unique := make(map[string]struct{})
	for _, entry := range m.EntriesFor("") {
		if strings.HasPrefix(entry.Classifier, toComplete) {
			unique[entry.Classifier] = struct{}{}
		}
	}

	completions := make([]string, 0, len(unique))
	for classifier := range unique {
		completions = append(completions, classifier)
	}
	sort.Strings(completions)

	// NoFileComp prevents falling back to local file completion
	return completions, cobra.ShellCompDirectiveNoFileComp
}
