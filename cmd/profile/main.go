//go:build profiling
// +build profiling

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"runtime/pprof"
	"runtime/trace"
	"strings"
	"time"

	"github.com/felixge/fgprof"
	"github.com/grafana/pyroscope-go"

	"github.com/meigma/paramstore"
)

type profileKind string

const (
	profileCPU   profileKind = "cpu"
	profileFG    profileKind = "fgprof"
	profileTrace profileKind = "trace"
	profileNone  profileKind = "none"
)

const (
	modeDigest = "digest"
	modeFetch  = "fetch"
	modeBoth   = "both"
)

func main() {
	var (
		mode       = flag.String("mode", "digest", "mode: digest, fetch, or both")
		sizeMiB    = flag.Int("size", 256, "synthetic parameter file size in MiB")
		files      = flag.Int("files", 4, "number of synthetic parameter files")
		workers    = flag.Int("workers", 3, "fetch worker pool size")
		workDir    = flag.String("work-dir", "tmp/profiledata", "directory for synthetic files and cache")
		profile    = flag.String("profile", "cpu", "profile type: cpu, fgprof, trace, none")
		outDir     = flag.String("out", "profiles", "output directory for profiles")
		label      = flag.String("label", "", "label suffix for profile files")
		repeat     = flag.Int("repeat", 1, "number of iterations")
		clearCache = flag.Bool("clear-cache", true, "clear the fetch cache between iterations")
		logLevel   = flag.String("log-level", "", "log level: debug, info, warn, error")
		timeout    = flag.Duration("timeout", 15*time.Minute, "overall timeout")
		pyroAddr   = flag.String("pyroscope", "", "Pyroscope server URL (enables streaming, disables local profiles)")
	)
	flag.Parse()

	runID := time.Now().UTC().Format("20060102T150405Z")

	modeValue := strings.ToLower(*mode)
	if modeValue != modeDigest && modeValue != modeFetch && modeValue != modeBoth {
		log.Fatalf("invalid mode %q (expected %s, %s, or %s)", *mode, modeDigest, modeFetch, modeBoth)
	}

	profileKindValue := profileKind(strings.ToLower(*profile))
	if !isValidProfile(profileKindValue) {
		log.Fatalf("invalid profile %q (expected cpu, fgprof, trace, none)", *profile)
	}
	if *repeat < 1 {
		log.Fatalf("repeat must be >= 1")
	}

	// When Pyroscope is enabled, stream profiles instead of writing locally
	var pyroProfiler *pyroscope.Profiler
	if *pyroAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName:   "paramstore-profile",
			ServerAddress:     *pyroAddr,
			BasicAuthUser:     os.Getenv("PYROSCOPE_BASIC_AUTH_USER"),
			BasicAuthPassword: os.Getenv("PYROSCOPE_BASIC_AUTH_PASSWORD"),
			// Short upload rate since profiling runs are brief
			UploadRate: 5 * time.Second,
			Logger:     pyroscope.StandardLogger,
			Tags: map[string]string{
				"mode":   modeValue,
				"run_id": runID,
			},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("start pyroscope: %v", err)
		}
		pyroProfiler = profiler
		log.Printf("streaming profiles to %s", *pyroAddr)
	}

	if *pyroAddr == "" {
		if err := os.MkdirAll(*outDir, 0o755); err != nil {
			log.Fatalf("create profile output dir: %v", err)
		}
	}

	labelParts := []string{modeValue}
	if *label != "" {
		labelParts = append(labelParts, *label)
	}
	labelParts = append(labelParts, runID)
	labelValue := strings.Join(labelParts, "_")

	srcDir := filepath.Join(*workDir, "src")
	cacheDir := filepath.Join(*workDir, "cache")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		log.Fatalf("create work dir: %v", err)
	}

	paths, err := generateFiles(srcDir, *files, int64(*sizeMiB)<<20)
	if err != nil {
		log.Fatalf("generate synthetic files: %v", err)
	}

	// Serve the synthetic files over a local HTTP server for fetch mode.
	const listenAddr = "localhost:18643"
	srv := &http.Server{Addr: listenAddr, Handler: http.FileServer(http.Dir(srcDir))}
	go func() {
		if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			log.Fatalf("serve files: %v", serveErr)
		}
	}()
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	clientOpts := []paramstore.ClientOption{
		paramstore.WithCacheDir(cacheDir),
		paramstore.WithBaseURL("http://" + listenAddr),
		paramstore.WithWorkers(*workers),
	}
	if *logLevel != "" {
		level, err := parseLogLevel(*logLevel)
		if err != nil {
			log.Fatalf("parse log level: %v", err)
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		clientOpts = append(clientOpts, paramstore.WithLogger(logger))
	}

	client, err := paramstore.NewClient(clientOpts...)
	if err != nil {
		log.Fatalf("create client: %v", err)
	}

	// Seed the manifest from the synthetic files without uploading.
	if _, err := client.Publish(ctx, paths, "", true, paramstore.WithoutUpload()); err != nil {
		log.Fatalf("seed manifest: %v", err)
	}

	// Only start local profiling when not streaming to Pyroscope
	var stopProfile func() error
	if *pyroAddr == "" {
		stopProfile, err = startProfile(profileKindValue, *outDir, labelValue)
		if err != nil {
			log.Fatalf("start profile: %v", err)
		}
	}

	for i := range *repeat {
		if *repeat > 1 {
			log.Printf("iteration %d/%d", i+1, *repeat)
		}

		if modeValue == modeDigest || modeValue == modeBoth {
			start := time.Now()
			results, verifyErr := client.VerifyAll(ctx)
			if verifyErr != nil {
				log.Fatalf("verify: %v", verifyErr)
			}
			log.Printf("digest complete: %d files in %s", len(results), time.Since(start))
		}

		if modeValue == modeFetch || modeValue == modeBoth {
			if *clearCache {
				if err := clearParameterFiles(cacheDir, paths); err != nil {
					log.Fatalf("clear cache: %v", err)
				}
			}
			start := time.Now()
			results, fetchErr := client.Fetch(ctx, "")
			if fetchErr != nil {
				log.Fatalf("fetch: %v", fetchErr)
			}
			for id, outcome := range results {
				if outcome.Status != paramstore.StatusVerified {
					log.Fatalf("fetch %s: %v", id, outcome.Err)
				}
			}
			log.Printf("fetch complete: %d files in %s", len(results), time.Since(start))
		}
	}

	// Stop profiling - either Pyroscope or local
	if pyroProfiler != nil {
		if err := pyroProfiler.Stop(); err != nil {
			log.Fatalf("stop pyroscope: %v", err)
		}
		log.Printf("pyroscope profiling stopped")
	} else {
		if stopErr := stopProfile(); stopErr != nil {
			log.Fatalf("stop profile: %v", stopErr)
		}
		if err := writeHeapProfile(*outDir, labelValue); err != nil {
			log.Fatalf("write heap profile: %v", err)
		}
	}
}

// generateFiles writes n pseudo-random parameter files and returns their paths.
// Existing files of the right size are reused across runs.
func generateFiles(dir string, n int, size int64) ([]string, error) {
	rng := rand.New(rand.NewSource(42))
	paths := make([]string, 0, n)
	for i := range n {
		name := fmt.Sprintf("v1-profile-%02d-sector-536870912.params", i)
		path := filepath.Join(dir, name)
		paths = append(paths, path)

		if info, err := os.Stat(path); err == nil && info.Size() == size {
			continue
		}
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, 1<<20)
		var written int64
		for written < size {
			rng.Read(buf)
			chunk := buf
			if remaining := size - written; remaining < int64(len(buf)) {
				chunk = buf[:remaining]
			}
			if _, err := f.Write(chunk); err != nil {
				f.Close()
				return nil, err
			}
			written += int64(len(chunk))
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
	}
	return paths, nil
}

// clearParameterFiles removes the cached copies so fetch has to download.
func clearParameterFiles(cacheDir string, paths []string) error {
	for _, path := range paths {
		cached := filepath.Join(cacheDir, filepath.Base(path))
		if err := os.Remove(cached); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

func isValidProfile(kind profileKind) bool {
	switch kind {
	case profileCPU, profileFG, profileTrace, profileNone:
		return true
	default:
		return false
	}
}

func startProfile(kind profileKind, outDir, label string) (func() error, error) {
	switch kind {
	case profileCPU:
		path := filepath.Join(outDir, "cpu_"+label+".pprof")
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, err
		}
		return func() error {
			pprof.StopCPUProfile()
			return f.Close()
		}, nil
	case profileFG:
		path := filepath.Join(outDir, "fgprof_"+label+".pprof")
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		stop := fgprof.Start(f, fgprof.FormatPprof)
		return func() error {
			stopErr := stop()
			closeErr := f.Close()
			return errors.Join(stopErr, closeErr)
		}, nil
	case profileTrace:
		path := filepath.Join(outDir, "trace_"+label+".out")
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		if err := trace.Start(f); err != nil {
			_ = f.Close()
			return nil, err
		}
		return func() error {
			trace.Stop()
			return f.Close()
		}, nil
	case profileNone:
		return func() error { return nil }, nil
	default:
		return nil, fmt.Errorf("unknown profile type: %s", kind)
	}
}

func writeHeapProfile(outDir, label string) error {
	path := filepath.Join(outDir, "heap_"+label+".pprof")
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := pprof.Lookup("heap").WriteTo(f, 0); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
