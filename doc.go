// Package paramstore manages a catalog of large, versioned zk-SNARK
// parameter files (proving and verifying key material).
//
// It fetches parameter files from a remote distribution endpoint,
// verifies their integrity against a trusted manifest, and publishes new
// parameter files into that manifest after computing their canonical
// digests. Verified files land in a local cache directory named by
// identifier, from which the proving pipeline reads them directly.
//
// The manifest is the single source of truth for what should exist and
// what it must hash to. It is loaded once per run and mutated only by
// Publish, as a whole-file atomic replace.
//
// Basic usage:
//
//	client, err := paramstore.NewClient(
//		paramstore.WithCacheDir("/var/cache/zk-params"),
//		paramstore.WithBaseURL("https://params.example.com"),
//	)
//	if err != nil {
//		return err
//	}
//	results, err := client.Fetch(ctx, "sector-32GiB")
//
// Fetch failures are isolated per identifier: one unreachable or corrupt
// file never aborts its siblings, and the returned map carries an Outcome
// for every requested identifier.
package paramstore
