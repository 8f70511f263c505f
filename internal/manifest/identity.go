package manifest

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// UnclassifiedTag is assigned to candidates whose name carries no
// sector-size token.
const UnclassifiedTag = "unclassified"

// sectorToken matches the sector-size marker embedded in parameter file
// names, e.g. "v28-stacked-proof-of-replication-sector-34359738368.params".
var sectorToken = regexp.MustCompile(`\bsector-(\d+)\b`)

// Identity derives the manifest identifier and classifier for a candidate
// file. The identifier is the base filename, so identically named files
// with identical bytes always produce the same entry. The classifier is
// rendered from the sector-size token when present ("sector-32GiB").
func Identity(path string) (identifier, classifier string) {
	identifier = filepath.Base(path)
	classifier = UnclassifiedTag
	if m := sectorToken.FindStringSubmatch(identifier); m != nil {
		if bytes, err := strconv.ParseUint(m[1], 10, 64); err == nil {
			// humanize renders small sizes with one decimal ("2.0 KiB");
			// the canonical tag is "sector-2KiB".
			size := strings.ReplaceAll(humanize.IBytes(bytes), ".0 ", " ")
			classifier = "sector-" + strings.ReplaceAll(size, " ", "")
		}
	}
	return identifier, classifier
}

// ValidIdentifier rejects identifiers that cannot safely name a file in
// the cache directory.
func ValidIdentifier(identifier string) error {
	switch {
	case identifier == "" || identifier == "." || identifier == "..":
		return fmt.Errorf("invalid identifier %q", identifier)
	case strings.ContainsAny(identifier, `/\`):
		return fmt.Errorf("identifier %q contains a path separator", identifier)
	}
	return nil
}
