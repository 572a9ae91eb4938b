// Command sim plays a seeded match between bots and prints the final scores.
// The recorded replay can be written out and checked later.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/finspan/finspan-server-go/internal/bot"
	"github.com/finspan/finspan-server-go/internal/game"
	"github.com/finspan/finspan-server-go/internal/game/catalog"
	"go.uber.org/zap"
)

func main() {
	seed := flag.Uint64("seed", 1, "match seed")
	players := flag.String("players", "Ava,Ben", "comma-separated player names")
	random := flag.String("random", "", "comma-separated player ids driven by the random bot")
	catalogPath := flag.String("catalog", "", "catalog YAML file (default: built-in set)")
	achievements := flag.Bool("achievements", true, "score end-game achievements")
	replayPath := flag.String("replay", "", "write the gzipped replay to this file")
	verify := flag.String("verify", "", "re-execute a saved replay instead of playing")
	verbose := flag.Bool("v", false, "log every move")
	flag.Parse()

	logger := zap.NewNop()
	if *verbose {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
			os.Exit(1)
		}
	}
	defer logger.Sync()

	cat, err := loadCatalog(*catalogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load catalog: %v\n", err)
		os.Exit(1)
	}
	var opts []game.Option
	if *achievements {
		opts = append(opts, game.WithAchievements(cat.Achievements()...))
	}

	if *verify != "" {
		if err := verifyReplay(*verify, cat, opts); err != nil {
			fmt.Fprintf(os.Stderr, "Replay verification failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("replay ok")
		return
	}

	opts = append(opts, game.WithLogger(logger), game.WithSeed(*seed))
	e, err := game.NewEngine(cat, splitNames(*players), opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to deal match: %v\n", err)
		os.Exit(1)
	}

	brains := make(map[string]bot.Brain)
	for i, id := range splitNames(*random) {
		brains[id] = bot.NewRandomBot(*seed + uint64(i) + 1)
	}
	if err := bot.Play(e, brains, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Match aborted: %v\n", err)
		os.Exit(1)
	}

	printScores(os.Stdout, e)

	if *replayPath != "" {
		if err := saveReplay(*replayPath, e.Replay()); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save replay: %v\n", err)
			os.Exit(1)
		}
	}
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}

func splitNames(list string) []string {
	var out []string
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func printScores(w io.Writer, e *game.Engine) {
	gs := e.CurrentState()
	fmt.Fprintf(w, "game %s  seed %d  actions %d\n", gs.ID, gs.Seed, gs.Version)
	for i, b := range e.Scores() {
		p := gs.Players[i]
		fmt.Fprintf(w, "%-10s %-8s total %3d  fish %3d  consumed %2d  bonus %2d  achievements %d\n",
			p.ID, p.Name, b.Total, b.FishPoints, b.Consumed, b.Bonus, sum(b.Achievements))
	}
}

func sum(m map[string]int) int {
	total := 0
	for _, v := range m {
		total += v
	}
	return total
}

func saveReplay(path string, r *game.Replay) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func verifyReplay(path string, cat *catalog.Catalog, opts []game.Option) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	r, err := game.LoadReplay(f)
	if err != nil {
		return err
	}
	return r.Verify(cat, opts...)
}
