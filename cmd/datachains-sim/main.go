// Command datachains-sim runs the disjoint-sections overlay simulation and
// prints periodic and final statistics (spec.md §6).
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/maqi/datachains-sim/internal/rng"
	"github.com/maqi/datachains-sim/internal/simlog"
	"github.com/maqi/datachains-sim/network"
	"github.com/maqi/datachains-sim/params"
	"github.com/maqi/datachains-sim/signals"
)

func main() {
	p, verbosity := parseFlags()

	handler := simlog.NewDefaultHandler(verbosityLevel(verbosity), p.DisableColors)
	logger := slog.New(handler)
	slog.SetDefault(logger)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("fatal panic, run is not reproducible without the seed", simlog.KeyError, r, simlog.KeySeed, p.Seed.String())
			os.Exit(2)
		}
	}()

	stop := signals.SetupHandler()

	n := network.New(p)

	var i uint64
ticks:
	for ; i < p.NumIterations; i++ {
		if err := n.Tick(i); err != nil {
			logger.Error("simulation failed", simlog.KeyError, err, simlog.KeySeed, p.Seed.String())
			os.Exit(1)
		}

		if p.StatsFrequency > 0 && i%p.StatsFrequency == 0 {
			printTickStats(n)
		}

		select {
		case <-stop:
			logger.Info("stopping cooperatively after signal", simlog.KeyTick, i)
			i++
			break ticks
		default:
		}
	}

	printSummary(n, p, i)
}

var maxPrefixLenDiff uint64

func printTickStats(n *network.Network) {
	prefixLenDist := n.PrefixLenDistribution()
	if span := prefixLenDist.Max - prefixLenDist.Min; span > maxPrefixLenDiff {
		maxPrefixLenDiff = span
	}

	fmt.Printf(
		"Header %s, AgeDist %s, SectionSizeDist %s, PrefixLenDist %s, MaxPrefixLenDiff: %d\n",
		n.Stats().Summary(),
		n.AgeDistribution(),
		n.SectionSizeDistribution(),
		prefixLenDist,
		maxPrefixLenDiff,
	)
}

func printSummary(n *network.Network, p params.Params, ranIterations uint64) {
	fmt.Println("\n===== Summary =====")
	fmt.Printf("\n%+v\n\n", p)
	fmt.Println(n.Stats().Summary())
	fmt.Println("Age distribution:")
	fmt.Println(n.AgeDistribution())
	fmt.Println("Section size distribution:")
	fmt.Println(n.SectionSizeDistribution())
	fmt.Println("Prefix length distribution:")
	fmt.Println(n.PrefixLenDistribution())
	fmt.Printf("Ran %d of %d requested iterations\n", ranIterations, p.NumIterations)

	if p.File != "" {
		writeStatsFile(n, p.File)
	}
}

func writeStatsFile(n *network.Network, path string) {
	f, err := os.Create(path)
	if err != nil {
		slog.Error("failed to open stats output file", simlog.KeyError, err)
		return
	}
	defer f.Close()
	fmt.Fprintln(f, n.Stats().Summary())
	fmt.Fprintln(f, n.AgeDistribution())
	fmt.Fprintln(f, n.SectionSizeDistribution())
	fmt.Fprintln(f, n.PrefixLenDistribution())
}

func verbosityLevel(verbosity int) slog.Level {
	switch {
	case verbosity <= 1:
		return slog.LevelWarn
	case verbosity == 2:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

func parseFlags() (params.Params, int) {
	defaults := params.Default()

	seedStr := flagPair("S", "seed", "", "random seed, in the form `[u32, u32, u32, u32]`")
	iterations := flagPairUint64("n", "iterations", defaults.NumIterations, "number of simulation iterations")
	groupSize := flagPairUint64("g", "group-size", defaults.GroupSize, "group size")
	initAge := flagPairUint64("i", "init-age", defaults.InitAge, "initial age of newly joining nodes")
	adultAge := flagPairUint64("a", "adult-age", defaults.AdultAge, "age at which a node becomes adult")
	maxSectionSize := flagPairUint64("s", "max-section-size", defaults.MaxSectionSize, "maximum section size before the simulation fails")
	maxRelocationAttempts := flagPairUint64("r", "max-relocation-attempts", defaults.MaxRelocationAttempts, "maximum number of relocation attempts after a Live event")
	maxInfants := flagPairUint64("I", "max-infants-per-section", defaults.MaxInfantsPerSection, "maximum number of infants per section")
	statsFrequency := flagPairUint64("F", "stats-frequency", defaults.StatsFrequency, "how often (every which iteration) to output network statistics")
	file := flagPair("f", "file", "", "output file for network structure data")
	disableColors := flagPairBool("C", "disable-colors", false, "disable colored output")

	verbosity := verbosityCount(1)
	flag.Var(&verbosity, "v", "log verbosity, repeatable (e.g. -v -v -v)")

	flag.Parse()

	seed := defaults.Seed
	if *seedStr != "" {
		parsed, err := rng.ParseSeed(*seedStr)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		seed = parsed
	}

	p := params.New(
		seed,
		params.WithIterations(*iterations),
		params.WithGroupSize(*groupSize),
		params.WithInitAge(*initAge),
		params.WithAdultAge(*adultAge),
		params.WithMaxSectionSize(*maxSectionSize),
		params.WithMaxRelocationAttempts(*maxRelocationAttempts),
		params.WithMaxInfantsPerSection(*maxInfants),
		params.WithStatsFrequency(*statsFrequency),
		params.WithFile(*file),
		params.WithVerbosity(int(verbosity)),
		params.WithDisableColors(*disableColors),
	)
	return p, int(verbosity)
}

// verbosityCount is a flag.Value that adds one to a starting verbosity of 1
// for each -v given on the command line, e.g. -v -v -v sets a verbosity of 4, matching
// spec.md §6's repeatable `-v` option rather than a single numeric argument.
type verbosityCount int

func (v *verbosityCount) String() string {
	return fmt.Sprintf("%d", int(*v))
}

func (v *verbosityCount) Set(string) error {
	*v++
	return nil
}

func (v *verbosityCount) IsBoolFlag() bool {
	return true
}

// flagPair registers the same string flag under both a short and long name,
// mirroring spec.md §6's `-S`/`--seed`-style option table.
func flagPair(short, long, value, usage string) *string {
	p := flag.String(long, value, usage)
	flag.StringVar(p, short, value, usage+" (shorthand)")
	return p
}

func flagPairUint64(short, long string, value uint64, usage string) *uint64 {
	p := flag.Uint64(long, value, usage)
	flag.Uint64Var(p, short, value, usage+" (shorthand)")
	return p
}

func flagPairBool(short, long string, value bool, usage string) *bool {
	p := flag.Bool(long, value, usage)
	flag.BoolVar(p, short, value, usage+" (shorthand)")
	return p
}
