package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/notnil/chess"
	"go.uber.org/zap"

	"github.com/chesskeep/chess-review-backend/pkg/review"
)

func main() {
	var (
		enginePath = flag.String("engine", "stockfish", "path to a UCI engine binary")
		engineArgs = flag.String("engine-args", "", "extra engine arguments, space separated")
		depth      = flag.Int("depth", review.DefaultDepth, "search depth per sampled position")
		workers    = flag.Int("workers", 2, "number of engine workers")
		bound      = flag.Duration("bound", review.DefaultMoveBound, "wall-clock budget per evaluation")
		startFlag  = flag.String("fen", "", "custom start position (defaults to the standard one)")
		pgnPath    = flag.String("pgn", "", "read the game from a PGN file instead of move arguments")
		verbose    = flag.Bool("v", false, "log engine internals")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: review [flags] MOVE...\n\nMoves are SAN, e.g. review e4 e5 Nf3\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	log := zap.NewNop().Sugar()
	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fatal(err)
		}
		log = logger.Sugar()
	}

	start := *startFlag
	moves := flag.Args()
	if *pgnPath != "" {
		var err error
		start, moves, err = readPGN(*pgnPath)
		if err != nil {
			fatal(err)
		}
	}
	if len(moves) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	positions, skipped, err := review.BuildPositions(start, moves)
	if err != nil {
		fatal(err)
	}
	if skipped > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d unreadable plies skipped\n", skipped)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := review.NewEnginePool(review.PoolConfig{
		Engine: review.EngineConfig{
			Path: *enginePath,
			Args: strings.Fields(*engineArgs),
		},
		Primary:  review.DefaultPrimaryVariant(),
		Fallback: review.DefaultFallbackVariant(),
		Size:     *workers,
	}, log)
	if err := pool.Initialize(ctx); err != nil {
		fatal(err)
	}
	defer pool.Shutdown()

	book, err := review.NewOpeningBook()
	if err != nil {
		fatal(err)
	}
	analyzer := review.NewAnalyzer(pool, book, nil, log)

	started := time.Now()
	opts := review.Options{Depth: *depth, MoveBound: *bound}
	report, err := analyzer.AnalyzeGame(ctx, positions, opts, func(processed, total int) {
		fmt.Fprintf(os.Stderr, "\revaluated %d/%d sampled positions", processed, total)
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fatal(err)
	}

	printReport(report)
	fmt.Printf("\nanalyzed in %s\n", time.Since(started).Round(time.Millisecond))
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "review:", err)
	os.Exit(1)
}

// readPGN extracts the first game of a PGN file as a start FEN plus
// SAN moves.
func readPGN(path string) (string, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	scanner := chess.NewScanner(f)
	if !scanner.Scan() {
		return "", nil, fmt.Errorf("no game found in %s", path)
	}
	game := scanner.Next()

	positions := game.Positions()
	moves := game.Moves()
	if len(positions) == 0 || len(moves) == 0 {
		return "", nil, fmt.Errorf("game in %s has no moves", path)
	}

	var notation chess.AlgebraicNotation
	sans := make([]string, len(moves))
	for i, m := range moves {
		sans[i] = notation.Encode(positions[i], m)
	}
	return positions[0].String(), sans, nil
}

func printReport(report *review.Report) {
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MOVE\tEVAL\tCLASS\tMOTIFS")
	for i, pos := range report.Positions {
		if pos.Move == nil {
			continue
		}
		prev := report.Positions[i-1]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			moveLabel(prev.FEN, pos.Move.SAN), evalLabel(pos), classLabel(pos.Classification), motifLabel(pos.Motifs))
	}
	w.Flush()

	var opening string
	for _, pos := range report.Positions {
		if pos.Opening != "" {
			opening = pos.Opening
		}
	}
	if opening != "" {
		fmt.Printf("\nOpening: %s\n", opening)
	}

	fmt.Printf("\nAccuracy: white %.1f, black %.1f\n", report.Accuracy.White, report.Accuracy.Black)
	order := []review.Classification{
		review.ClassificationBrilliant,
		review.ClassificationGreat,
		review.ClassificationBest,
		review.ClassificationExcellent,
		review.ClassificationGood,
		review.ClassificationBook,
		review.ClassificationForced,
		review.ClassificationInaccuracy,
		review.ClassificationMistake,
		review.ClassificationBlunder,
	}
	for _, c := range order {
		tally, ok := report.Summary[c]
		if !ok {
			continue
		}
		fmt.Printf("%-12s white %d, black %d\n", c, tally.White, tally.Black)
	}
	fmt.Printf("\nsampled %d positions", report.SampledPositions)
	if report.FallbackEvals > 0 {
		fmt.Printf(", %d fallback evaluations", report.FallbackEvals)
	}
	fmt.Println()
}

// moveLabel renders a move with its number, e.g. "3. Nf3" or "3... e5",
// based on the position the move was played from.
func moveLabel(prevFEN, san string) string {
	num := 1
	side := "w"
	fields := strings.Fields(prevFEN)
	if len(fields) >= 6 {
		side = fields[1]
		if n, err := strconv.Atoi(fields[5]); err == nil {
			num = n
		}
	}
	if side == "b" {
		return fmt.Sprintf("%d... %s", num, san)
	}
	return fmt.Sprintf("%d. %s", num, san)
}

// evalLabel renders the best line's score from white's point of view.
func evalLabel(pos review.EvaluatedPosition) string {
	if len(pos.TopLines) == 0 {
		return "-"
	}
	score := pos.TopLines[0].Score
	value := score.Value
	fields := strings.Fields(pos.FEN)
	if len(fields) >= 2 && fields[1] == "b" {
		value = -value
	}
	if score.Type == review.ScoreMate {
		return fmt.Sprintf("#%d", value)
	}
	return fmt.Sprintf("%+.2f", float64(value)/100)
}

func classLabel(c review.Classification) string {
	if c == "" {
		return "-"
	}
	return string(c)
}

func motifLabel(motifs []review.Motif) string {
	if len(motifs) == 0 {
		return "-"
	}
	parts := make([]string, len(motifs))
	for i, m := range motifs {
		switch {
		case m.Move != "":
			parts[i] = fmt.Sprintf("%s(%s)", m.Type, m.Move)
		case m.From != "":
			parts[i] = fmt.Sprintf("%s(%s)", m.Type, m.From)
		default:
			parts[i] = string(m.Type)
		}
	}
	return strings.Join(parts, ", ")
}
