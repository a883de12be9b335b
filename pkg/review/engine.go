package review

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	readyProbeTimeout       = 2 * time.Second
	stopGrace               = 500 * time.Millisecond
	processExitGrace        = 2 * time.Second
	bestMoveAttempts        = 2
	bestMoveRetryDelay      = 150 * time.Millisecond
)

// EngineConfig locates the engine binary and bounds its handshake.
type EngineConfig struct {
	Path             string
	Args             []string
	HandshakeTimeout time.Duration
}

// EngineVariant is a named engine setup applied at startup through
// setoption commands.
type EngineVariant struct {
	Name    string
	Options map[string]string
}

// DefaultPrimaryVariant is the full-strength setup.
func DefaultPrimaryVariant() EngineVariant {
	return EngineVariant{Name: "nnue", Options: map[string]string{
		"Hash":     "128",
		"Threads":  "1",
		"Ponder":   "false",
		"Use NNUE": "true",
	}}
}

// DefaultFallbackVariant is a lighter setup used when the primary one
// fails to come up.
func DefaultFallbackVariant() EngineVariant {
	return EngineVariant{Name: "classical", Options: map[string]string{
		"Hash":     "64",
		"Threads":  "1",
		"Ponder":   "false",
		"Use NNUE": "false",
	}}
}

// EvalProgressFunc receives evaluation snapshots as deeper lines
// stream in during a search.
type EvalProgressFunc func(PositionEvaluation)

// Evaluator is the per-worker search surface the batch layer
// schedules over.
type Evaluator interface {
	Evaluate(ctx context.Context, fen string, depth, multiPV int, onProgress EvalProgressFunc) (*PositionEvaluation, error)
	BestMove(ctx context.Context, fen string, skillLevel, depth int) (string, error)
	Stop()
}

// engineTransport abstracts the line pipes of a UCI engine process so
// the protocol layer can be exercised without spawning one.
type engineTransport interface {
	send(line string) error
	recv() <-chan string
	close() error
}

// EngineHandle drives one UCI engine process. A handle runs at most
// one search at a time; concurrent callers serialize on an internal
// mutex. Stop may be called from any goroutine while a search is
// running.
type EngineHandle struct {
	variant   EngineVariant
	transport engineTransport
	log       *zap.SugaredLogger

	mu        sync.Mutex
	searching atomic.Bool
	closed    atomic.Bool
}

// NewEngineHandle starts the engine process and performs the UCI
// handshake: capability negotiation, variant options, readiness
// probe. On any handshake failure the process is terminated.
func NewEngineHandle(cfg EngineConfig, variant EngineVariant, log *zap.SugaredLogger) (*EngineHandle, error) {
	log = ensureLogger(log)
	t, err := startEngineProcess(cfg.Path, cfg.Args, log)
	if err != nil {
		return nil, err
	}
	timeout := cfg.HandshakeTimeout
	if timeout <= 0 {
		timeout = defaultHandshakeTimeout
	}
	return newEngineHandle(t, variant, log, timeout)
}

func newEngineHandle(t engineTransport, variant EngineVariant, log *zap.SugaredLogger, timeout time.Duration) (*EngineHandle, error) {
	h := &EngineHandle{variant: variant, transport: t, log: log}
	if err := h.handshake(timeout); err != nil {
		_ = t.close()
		return nil, fmt.Errorf("engine handshake (%s): %w", variant.Name, err)
	}
	return h, nil
}

func (h *EngineHandle) handshake(timeout time.Duration) error {
	if err := h.sendAll("uci"); err != nil {
		return err
	}
	if err := h.waitForLine("uciok", timeout); err != nil {
		return err
	}
	names := make([]string, 0, len(h.variant.Options))
	for name := range h.variant.Options {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := h.sendAll(fmt.Sprintf("setoption name %s value %s", name, h.variant.Options[name])); err != nil {
			return err
		}
	}
	if err := h.sendAll("isready"); err != nil {
		return err
	}
	return h.waitForLine("readyok", timeout)
}

// waitForLine consumes output until the wanted line shows up,
// discarding everything else.
func (h *EngineHandle) waitForLine(want string, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case line, ok := <-h.transport.recv():
			if !ok {
				return ErrEngineStopped
			}
			if line == want {
				return nil
			}
		case <-timer.C:
			return fmt.Errorf("timed out waiting for %q", want)
		}
	}
}

// resync confirms the engine is idle and flushes any stray output left
// over from a previous search.
func (h *EngineHandle) resync() error {
	if err := h.sendAll("isready"); err != nil {
		return err
	}
	return h.waitForLine("readyok", readyProbeTimeout)
}

func (h *EngineHandle) sendAll(cmds ...string) error {
	for _, c := range cmds {
		if err := h.transport.send(c); err != nil {
			return fmt.Errorf("engine send %q: %w", c, err)
		}
	}
	return nil
}

func (h *EngineHandle) sendStop() {
	_ = h.transport.send("stop")
}

// Stop interrupts the current search, if any. Safe to call
// concurrently and repeatedly; without a running search it is a
// no-op.
func (h *EngineHandle) Stop() {
	if h.closed.Load() || !h.searching.Load() {
		return
	}
	h.sendStop()
}

// Evaluate searches fen to the target depth with the given number of
// ranked lines (floored at two, so downstream consumers always see a
// second line). The search ends early once every requested rank
// reports the target depth. If ctx expires mid-search a stop is
// issued and whatever lines arrived are returned; an evaluation with
// no lines at all is an error, never an empty result.
func (h *EngineHandle) Evaluate(ctx context.Context, fen string, depth, multiPV int, onProgress EvalProgressFunc) (*PositionEvaluation, error) {
	if h.closed.Load() {
		return nil, ErrEngineClosed
	}
	if depth < 1 {
		depth = 1
	}
	if multiPV < 2 {
		multiPV = 2
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed.Load() {
		return nil, ErrEngineClosed
	}
	if err := h.resync(); err != nil {
		return nil, err
	}
	h.searching.Store(true)
	defer h.searching.Store(false)
	if err := h.sendAll(
		fmt.Sprintf("setoption name MultiPV value %d", multiPV),
		fmt.Sprintf("position fen %s", fen),
		fmt.Sprintf("go depth %d", depth),
	); err != nil {
		return nil, err
	}
	return h.collectSearch(ctx, depth, multiPV, onProgress)
}

func (h *EngineHandle) collectSearch(ctx context.Context, depth, multiPV int, onProgress EvalProgressFunc) (*PositionEvaluation, error) {
	ev := &PositionEvaluation{}
	atTarget := make(map[int]bool)
	stopSent := false
	for {
		select {
		case line, ok := <-h.transport.recv():
			if !ok {
				return finishSearch(ev, ErrEngineStopped)
			}
			if h.consumeSearchLine(ev, line, depth, multiPV, atTarget, &stopSent, onProgress) {
				return finishSearch(ev, nil)
			}
		case <-ctx.Done():
			if !stopSent {
				h.sendStop()
			}
			return h.drainUntilBestMove(ev, onProgress)
		}
	}
}

// consumeSearchLine folds one line of engine output into ev and
// reports whether the search is over.
func (h *EngineHandle) consumeSearchLine(ev *PositionEvaluation, line string, depth, multiPV int, atTarget map[int]bool, stopSent *bool, onProgress EvalProgressFunc) bool {
	if strings.HasPrefix(line, "bestmove") {
		return true
	}
	if !strings.HasPrefix(line, "info ") {
		return false
	}
	l, ok := parseInfoLine(line)
	if !ok {
		return false
	}
	ev.upsert(l)
	if onProgress != nil {
		onProgress(ev.snapshot())
	}
	if l.Depth >= depth {
		atTarget[l.Rank] = true
		if !*stopSent && ranksComplete(atTarget, multiPV) {
			h.sendStop()
			*stopSent = true
		}
	}
	return false
}

func ranksComplete(atTarget map[int]bool, multiPV int) bool {
	for r := 1; r <= multiPV; r++ {
		if !atTarget[r] {
			return false
		}
	}
	return true
}

// drainUntilBestMove keeps folding output after a stop until the
// engine acknowledges with bestmove or the grace period runs out.
func (h *EngineHandle) drainUntilBestMove(ev *PositionEvaluation, onProgress EvalProgressFunc) (*PositionEvaluation, error) {
	timer := time.NewTimer(stopGrace)
	defer timer.Stop()
	for {
		select {
		case line, ok := <-h.transport.recv():
			if !ok {
				return finishSearch(ev, ErrEngineStopped)
			}
			if strings.HasPrefix(line, "bestmove") {
				return finishSearch(ev, nil)
			}
			if strings.HasPrefix(line, "info ") {
				if l, ok := parseInfoLine(line); ok {
					ev.upsert(l)
					if onProgress != nil {
						onProgress(ev.snapshot())
					}
				}
			}
		case <-timer.C:
			h.log.Warnw("engine ignored stop", "variant", h.variant.Name)
			return finishSearch(ev, ErrNoEvaluation)
		}
	}
}

// finishSearch applies the partial-result rule: lines gathered so far
// win over whatever ended the search.
func finishSearch(ev *PositionEvaluation, err error) (*PositionEvaluation, error) {
	if len(ev.Lines) > 0 {
		return ev, nil
	}
	if err != nil {
		return nil, err
	}
	return nil, ErrNoEvaluation
}

var uciMoveRe = regexp.MustCompile(`^[a-h][1-8][a-h][1-8][qrbn]?$`)

// BestMove asks for a single playable move at the given skill level.
// Replies like "(none)" or garbled tokens are retried once, then
// reported as ErrNoMove.
func (h *EngineHandle) BestMove(ctx context.Context, fen string, skillLevel, depth int) (string, error) {
	if h.closed.Load() {
		return "", ErrEngineClosed
	}
	if depth < 1 {
		depth = 1
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed.Load() {
		return "", ErrEngineClosed
	}

	var lastErr error = ErrNoMove
	for attempt := 0; attempt < bestMoveAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(bestMoveRetryDelay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		if err := h.resync(); err != nil {
			return "", err
		}
		h.searching.Store(true)
		err := h.sendAll(
			fmt.Sprintf("setoption name Skill Level value %d", skillLevel),
			"setoption name MultiPV value 1",
			fmt.Sprintf("position fen %s", fen),
			fmt.Sprintf("go depth %d", depth),
		)
		var mv string
		if err == nil {
			mv, err = h.readBestMove(ctx)
		}
		h.searching.Store(false)
		if err == nil {
			return mv, nil
		}
		if !errors.Is(err, ErrNoMove) {
			return "", err
		}
		lastErr = err
	}
	return "", lastErr
}

func (h *EngineHandle) readBestMove(ctx context.Context) (string, error) {
	for {
		select {
		case line, ok := <-h.transport.recv():
			if !ok {
				return "", ErrEngineStopped
			}
			if !strings.HasPrefix(line, "bestmove") {
				continue
			}
			fields := strings.Fields(line)
			if len(fields) < 2 || !uciMoveRe.MatchString(fields[1]) {
				return "", fmt.Errorf("%w: %q", ErrNoMove, line)
			}
			return fields[1], nil
		case <-ctx.Done():
			h.sendStop()
			return "", ctx.Err()
		}
	}
}

// Shutdown stops any running search, waits for it to wind down and
// terminates the process. Idempotent.
func (h *EngineHandle) Shutdown() {
	if !h.closed.CompareAndSwap(false, true) {
		return
	}
	if h.searching.Load() {
		h.sendStop()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.transport.close(); err != nil {
		h.log.Debugw("engine close", "variant", h.variant.Name, "error", err)
	}
}

// parseInfoLine extracts rank, depth, score and pv from one UCI info
// line. Lines without a score (currmove chatter, option echoes) are
// rejected; unknown tokens are skipped so engine-specific extras do
// not break parsing.
func parseInfoLine(line string) (EvaluationLine, bool) {
	fields := strings.Fields(line)
	l := EvaluationLine{Rank: 1}
	seenScore := false
	for i := 1; i < len(fields); i++ {
		switch fields[i] {
		case "depth":
			if i+1 >= len(fields) {
				return EvaluationLine{}, false
			}
			n, err := strconv.Atoi(fields[i+1])
			if err != nil {
				return EvaluationLine{}, false
			}
			l.Depth = n
			i++
		case "multipv":
			if i+1 >= len(fields) {
				return EvaluationLine{}, false
			}
			n, err := strconv.Atoi(fields[i+1])
			if err != nil {
				return EvaluationLine{}, false
			}
			l.Rank = n
			i++
		case "score":
			if i+2 >= len(fields) {
				return EvaluationLine{}, false
			}
			n, err := strconv.Atoi(fields[i+2])
			if err != nil {
				return EvaluationLine{}, false
			}
			switch fields[i+1] {
			case "cp":
				l.Score = Score{Type: ScoreCentipawn, Value: n}
			case "mate":
				l.Score = Score{Type: ScoreMate, Value: n}
			default:
				return EvaluationLine{}, false
			}
			seenScore = true
			i += 2
		case "pv":
			l.PV = append([]string(nil), fields[i+1:]...)
			i = len(fields)
		}
	}
	return l, seenScore
}

// processTransport runs a real engine subprocess, pumping stdout into
// a line channel and stderr into debug logs.
type processTransport struct {
	cmd    *exec.Cmd
	wmu    sync.Mutex
	in     *bufio.Writer
	inC    io.Closer
	out    chan string
	exited chan struct{}
	log    *zap.SugaredLogger
}

func startEngineProcess(path string, args []string, log *zap.SugaredLogger) (*processTransport, error) {
	cmd := exec.Command(path, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("engine stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("engine stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("engine stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting engine %s: %w", path, err)
	}
	t := &processTransport{
		cmd:    cmd,
		in:     bufio.NewWriter(stdin),
		inC:    stdin,
		out:    make(chan string, 256),
		exited: make(chan struct{}),
		log:    log,
	}
	go t.pumpLines(stdout)
	go t.drainStderr(stderr)
	go func() {
		if err := cmd.Wait(); err != nil {
			log.Debugw("engine process exited", "path", path, "error", err)
		}
		close(t.exited)
	}()
	return t, nil
}

func (t *processTransport) pumpLines(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		t.out <- strings.TrimSpace(scanner.Text())
	}
	close(t.out)
}

func (t *processTransport) drainStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		t.log.Debugw("engine stderr", "line", scanner.Text())
	}
}

func (t *processTransport) send(line string) error {
	t.wmu.Lock()
	defer t.wmu.Unlock()
	if _, err := t.in.WriteString(line + "\n"); err != nil {
		return err
	}
	return t.in.Flush()
}

func (t *processTransport) recv() <-chan string { return t.out }

func (t *processTransport) close() error {
	_ = t.send("quit")
	_ = t.inC.Close()
	go func() {
		for range t.out {
		}
	}()
	select {
	case <-t.exited:
	case <-time.After(processExitGrace):
		_ = t.cmd.Process.Kill()
		<-t.exited
	}
	return nil
}
