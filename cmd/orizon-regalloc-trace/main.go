// Command orizon-regalloc-trace watches a directory of allocator debug dumps
// (internal/codegen/regalloc.Dump, marshaled as JSON by whatever tool or test
// produced them) and re-verifies each one as it lands, for use in CI log
// collection or local iteration on the allocator itself. It never imports the
// regalloc package's scan/split/resolve internals: only the Dump shape and
// Verify-equivalent invariant checks that make sense against a frozen
// snapshot, since a Dump has no graph to re-run Allocate over.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/fsnotify/fsnotify"

	"github.com/orizon-lang/orizon-regalloc/internal/codegen/regalloc"
)

func main() {
	var (
		dir        string
		constraint string
		once       bool
	)

	flag.StringVar(&dir, "dir", ".", "directory of allocator debug dumps to watch")
	flag.StringVar(&constraint, "schema", "^"+regalloc.SchemaVersion, "semver constraint a dump's schema_version must satisfy")
	flag.BoolVar(&once, "once", false, "check every *.json file already in -dir, then exit instead of watching")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		flag.PrintDefaults()
	}

	flag.Parse()

	con, err := semver.NewConstraint(constraint)
	if err != nil {
		log.Fatalf("orizon-regalloc-trace: invalid -schema constraint %q: %v", constraint, err)
	}

	t := &tracer{constraint: con}

	if once {
		if err := t.scanExisting(dir); err != nil {
			log.Fatalf("orizon-regalloc-trace: %v", err)
		}

		os.Exit(t.exitCode())
	}

	if err := t.watch(dir); err != nil {
		log.Fatalf("orizon-regalloc-trace: %v", err)
	}
}

// tracer holds the running tally of dumps checked so -once can report a
// non-zero exit code when any dump failed verification.
type tracer struct {
	constraint *semver.Constraints
	failures   int
}

func (t *tracer) exitCode() int {
	if t.failures > 0 {
		return 1
	}

	return 0
}

func (t *tracer) scanExisting(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir: %w", err)
	}

	names := make([]string, 0, len(entries))

	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}

	sort.Strings(names)

	for _, name := range names {
		t.check(filepath.Join(dir, name))
	}

	return nil
}

func (t *tracer) watch(dir string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	log.Printf("orizon-regalloc-trace: watching %s for dumps matching schema %s", dir, t.constraint.String())

	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}

			if !strings.HasSuffix(ev.Name, ".json") {
				continue
			}

			t.check(ev.Name)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}

			log.Printf("orizon-regalloc-trace: watch error: %v", err)
		}
	}
}

// check loads and verifies a single dump file, logging the outcome. It never
// returns an error: a malformed or unreadable dump is a finding to report,
// not a reason to stop watching the rest of the directory.
func (t *tracer) check(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("%s: read failed: %v", path, err)
		t.failures++

		return
	}

	var d regalloc.Dump
	if err := json.Unmarshal(data, &d); err != nil {
		log.Printf("%s: malformed dump: %v", path, err)
		t.failures++

		return
	}

	sv, err := semver.NewVersion(d.SchemaVersion)
	if err != nil {
		log.Printf("%s: unparseable schema_version %q: %v", path, d.SchemaVersion, err)
		t.failures++

		return
	}

	if !t.constraint.Check(sv) {
		log.Printf("%s: schema_version %s does not satisfy %s, skipping", path, sv, t.constraint)

		return
	}

	if errs := verifyDump(d); len(errs) > 0 {
		for _, e := range errs {
			log.Printf("%s: %v", path, e)
		}

		t.failures += len(errs)

		return
	}

	log.Printf("%s: ok (%d blocks, %d intervals, %d gaps)", path, len(d.Blocks), len(d.Intervals), len(d.Gaps))
}

// verifyDump re-checks the subset of spec.md section 8's invariants that
// survive JSON round-tripping: no interval with ranges may still have a
// "virtual(...)" value, and no two intervals report holding the same
// (group, register) over overlapping positions. This mirrors
// regalloc.Graph.Verify but works from the flattened Dump shape rather than
// the live graph, since a trace consumer never has the graph itself.
func verifyDump(d regalloc.Dump) []error {
	var errs []error

	type occupant struct {
		id         int
		start, end int
	}

	byReg := make(map[[2]int][]occupant)

	for _, iv := range d.Intervals {
		if len(iv.Ranges) > 0 && strings.HasPrefix(iv.Value, "virtual(") {
			errs = append(errs, fmt.Errorf("interval %d has ranges but no assigned value", iv.ID))
		}

		group, reg, ok := parseRegisterValue(iv.Value)
		if !ok {
			continue
		}

		key := [2]int{group, reg}

		for _, r := range iv.Ranges {
			byReg[key] = append(byReg[key], occupant{id: iv.ID, start: r[0], end: r[1]})
		}
	}

	for key, occs := range byReg {
		sort.Slice(occs, func(i, j int) bool { return occs[i].start < occs[j].start })

		for i := 1; i < len(occs); i++ {
			if occs[i].start < occs[i-1].end {
				errs = append(errs, fmt.Errorf("intervals %d and %d both hold register (group %d, reg %d) at position %d",
					occs[i-1].id, occs[i].id, key[0], key[1], occs[i].start))
			}
		}
	}

	return errs
}

// parseRegisterValue extracts (group, reg) from a "reg(gN,rM)" rendering of
// regalloc.Value.String, the only shape that occupies a physical register.
func parseRegisterValue(s string) (group, reg int, ok bool) {
	if !strings.HasPrefix(s, "reg(g") {
		return 0, 0, false
	}

	inner := strings.TrimSuffix(strings.TrimPrefix(s, "reg(g"), ")")

	parts := strings.SplitN(inner, ",r", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}

	if _, err := fmt.Sscanf(parts[0], "%d", &group); err != nil {
		return 0, 0, false
	}

	if _, err := fmt.Sscanf(parts[1], "%d", &reg); err != nil {
		return 0, 0, false
	}

	return group, reg, true
}
