/*
gongtp is a Go Text Protocol engine for the game of Go: it maintains board
state, generates moves via a heuristic or Monte Carlo tree search policy,
and optionally pushes a live board view to a browser for debugging.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"golang.org/x/sync/errgroup"

	"gongtp/config"
	"gongtp/diag"
	"gongtp/engine"
	"gongtp/gtp"
	"gongtp/mcts"
	"gongtp/pool"
	"gongtp/scorer"
)

var (
	configPath   *string
	boardSize    *int
	komi         *float64
	simpleScorer *bool
	simpleEngine *bool
	model        *string
	numWorkers   *int
	diagAddr     *string
)

// TODO: per 12-factor rules these could also come from the environment;
// a YAML file plus flag overrides matches how the rest of this stack is
// configured.
func init() {
	configPath = flag.String("config", "", "path to a YAML config file (kind/def envelope); flags below override it")
	boardSize = flag.Int("boardsize", 0, "board size, NxN (0 = use config default)")
	komi = flag.Float64("komi", 0, "komi (0 = use config default)")
	simpleScorer = flag.Bool("simple_scorer", false, "use the heuristic scorer instead of the model-backed one")
	simpleEngine = flag.Bool("simple_engine", false, "use the Simple one-shot policy instead of MCTS")
	model = flag.String("model", "", "path to a model file for the model-backed scorer")
	numWorkers = flag.Int("nworkers", 0, "worker pool size for scorer/batcher callbacks (0 = use config default)")
	diagAddr = flag.String("diag_addr", "", "if set, serve a live board view at this address")
}

// buildConfig loads a base config (from -config if given, else defaults)
// and applies any flags the caller explicitly passed on top of it.
func buildConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		fileCfg, err := config.FromYAML(*configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = fileCfg
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "boardsize":
			cfg.BoardSize = *boardSize
		case "komi":
			cfg.Komi = *komi
		case "simple_scorer":
			cfg.SimpleScorer = *simpleScorer
		case "simple_engine":
			cfg.SimpleEngine = *simpleEngine
		case "model":
			cfg.Model = *model
		case "nworkers":
			cfg.NumWorkers = *numWorkers
		case "diag_addr":
			cfg.DiagAddr = *diagAddr
		}
	})
	return cfg, nil
}

// buildScorer wires a heuristic or model-backed Scorer per cfg. The
// model-backed path requires a real neural-network inference runtime,
// which is outside this module's scope (see scorer.Model/batcher.ModelRunner
// doc comments) — this binary only ever runs the heuristic scorer, and
// fails fast at construction if asked for the model one, rather than
// fabricate a fake TensorFlow client.
func buildScorer(cfg *config.Config, callbacks *pool.Pool) (scorer.Scorer, error) {
	if cfg.SimpleScorer {
		return scorer.NewHeuristic(callbacks), nil
	}
	return nil, fmt.Errorf(
		"model-backed scorer requires a compiled neural-network runtime for %q (input=%q output=%q), "+
			"which this binary does not include; rerun with -simple_scorer", cfg.Model, cfg.InputLayerName, cfg.OutputLayerPrefix)
}

func runApp() error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	callbacks := pool.New(cfg.NumWorkers)
	defer callbacks.Shutdown()

	s, err := buildScorer(cfg, callbacks)
	if err != nil {
		return err
	}

	var policy engine.Policy
	if cfg.SimpleEngine {
		policy = engine.SimplePolicy{Scorer: s}
	} else {
		policy = engine.MctsPolicy{Tree: mcts.New(s)}
	}

	e := engine.New(cfg.BoardSize, policy)
	e.SetKomi(cfg.Komi)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		defer cancel()
		return gtp.Run(e, os.Stdin, os.Stdout)
	})

	if cfg.DiagAddr != "" {
		diagSrv := diag.New(cfg.DiagAddr, e)
		group.Go(func() error {
			return diagSrv.Serve(ctx)
		})
	}

	return group.Wait()
}

func main() {
	flag.Parse()
	if err := runApp(); err != nil {
		log.Fatal(err)
	}
}
