// Package batch packages many texture sets concurrently, one archive per set.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"texkit/internal/log"
	"texkit/internal/texset"
	"texkit/internal/texture"
)

var logger = log.New("batch")

// progressInterval is how often the progress reporter logs.
var progressInterval = 2 * time.Second

// Config holds all shared resources for a batch run.
type Config struct {
	OutputDir string
	Workers   int

	// NewResolver supplies the texture resolver for one set. Each set gets
	// its own, so decoded maps are released once the set is written.
	// Defaults to texture.NewCache.
	NewResolver func() texture.Resolver
}

// Result holds the outcome of packaging one set.
type Result struct {
	Name     string        `json:"name"`
	Archive  string        `json:"archive,omitempty"`
	Entries  int           `json:"entries"`
	Success  bool          `json:"success"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Run packages all sets using a worker pool. Results are in input order.
// Cancelling ctx stops workers from picking up new sets; sets not started
// are reported with the context error.
func Run(ctx context.Context, cfg Config, sets []texset.Set) []Result {
	total := len(sets)
	results := make([]Result, total)
	if total == 0 {
		return results
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > total {
		workers = total
	}
	newResolver := cfg.NewResolver
	if newResolver == nil {
		newResolver = func() texture.Resolver { return texture.NewCache() }
	}

	var processed atomic.Int64
	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					rate := float64(p) / elapsed
					logger.Noticef("[%d/%d] %.1f sets/sec", p, total, rate)
				}
			}
		}
	}()

	// Worker pool
	setChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range setChan {
				if err := ctx.Err(); err != nil {
					results[idx] = Result{Name: sets[idx].Name, Error: err.Error()}
				} else {
					results[idx] = processSet(ctx, cfg.OutputDir, newResolver(), sets[idx])
				}
				processed.Add(1)
			}
		}()
	}

	// Send work
	for i := range sets {
		setChan <- i
	}
	close(setChan)

	wg.Wait()
	close(done)

	logger.Infof("packaged %d sets in %s", total, time.Since(start).Round(time.Millisecond))
	return results
}

func processSet(ctx context.Context, outDir string, res texture.Resolver, set texset.Set) Result {
	start := time.Now()

	path, manifest, err := texset.BuildFile(ctx, set, res, outDir, nil)
	if err != nil {
		logger.Warningf("%s: %v", set.Name, err)
		return Result{
			Name:     set.Name,
			Error:    err.Error(),
			Duration: time.Since(start),
		}
	}

	return Result{
		Name:     set.Name,
		Archive:  filepath.Base(path),
		Entries:  len(manifest.Entries),
		Success:  true,
		Duration: time.Since(start),
	}
}

// Discover returns one set per immediate subdirectory of root that holds at
// least one recognised texture, named after the directory. The template
// supplies size, gloss, overrides and normal options for every set.
func Discover(root string, template texset.Set) ([]texset.Set, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("batch: scan %s: %w", root, err)
	}

	var sets []texset.Set
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		idx, err := texture.DiscoverSet(filepath.Join(root, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("batch: %w", err)
		}
		if idx.Len() == 0 {
			logger.Debugf("skipping %s: no textures", e.Name())
			continue
		}

		set := template
		set.Name = e.Name()
		for _, slot := range texture.Slots {
			path, _ := idx.Path(slot)
			set.SetPath(slot, path)
		}
		sets = append(sets, set)
	}

	sort.Slice(sets, func(i, j int) bool { return sets[i].Name < sets[j].Name })
	return sets, nil
}
