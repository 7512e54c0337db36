package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"synctidy/pkg/usecase"
)

func newUseCaseService(logDir string, maxSuffix int) *usecase.Service {
	return usecase.New(usecase.Options{
		LogDir:    logDir,
		MaxSuffix: maxSuffix,
		Logger:    &logger,
	})
}

func printDryRunBanner() {
	if !dryRun {
		return
	}

	fmt.Println("=== DRY RUN - no changes will be made ===")
	fmt.Println()
}

func printCommandHeader(command, rootDir string) {
	fmt.Printf("Command: %s\n", command)
	fmt.Printf("Root directory: %s\n", rootDir)
}

func printSummary(lines ...string) {
	fmt.Println("=== Summary ===")
	for _, line := range lines {
		fmt.Println(line)
	}
}

func printDryRunHint() {
	if !dryRun {
		return
	}

	fmt.Println()
	fmt.Println("Run without --dry-run to apply changes.")
}

func printDetailedOperations[T any](operations []T, print func(T), always func(T) bool) {
	printed := false
	for _, op := range operations {
		if !verbose && !dryRun && (always == nil || !always(op)) {
			continue
		}
		print(op)
		printed = true
	}

	if printed {
		fmt.Println()
	}
}

// progressReporter prints the latest stage progress to stderr on a fixed
// interval, so long walks show signs of life without flooding the terminal.
type progressReporter struct {
	label string

	mu        sync.Mutex
	stage     string
	processed int
	total     int

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func startProgress(label string) *progressReporter {
	return startProgressEvery(label, 5*time.Second)
}

func startProgressEvery(label string, interval time.Duration) *progressReporter {
	p := &progressReporter{
		label:  label,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	startTime := time.Now()
	ticker := time.NewTicker(interval)

	go func() {
		defer close(p.doneCh)
		for {
			select {
			case <-ticker.C:
				elapsed := time.Since(startTime).Round(time.Second)
				fmt.Fprintln(os.Stderr, p.line(elapsed))
			case <-p.stopCh:
				ticker.Stop()
				return
			}
		}
	}()

	return p
}

// Report records the latest progress; it is printed on the next tick.
func (p *progressReporter) Report(stage string, processed, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stage = stage
	p.processed = processed
	p.total = total
}

func (p *progressReporter) line(elapsed time.Duration) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stage == "" {
		return fmt.Sprintf("%s... %s elapsed", p.label, elapsed)
	}

	return fmt.Sprintf("%s... %s %d/%d, %s elapsed", p.label, p.stage, p.processed, p.total, elapsed)
}

func (p *progressReporter) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
		<-p.doneCh
	})
}
