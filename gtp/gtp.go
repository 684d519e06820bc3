// Package gtp implements the Go Text Protocol driver loop: reading
// line-oriented commands from a controller, dispatching them to an Engine,
// and writing back "=" / "?" responses. Rewritten idiomatically from
// skybrian-Gongo's gongo_gtp.go (the reference predates goroutines-friendly
// Go and the io.Reader/io.Writer split had not yet stabilized), keeping its
// handler-map/request/response shape but targeting the current engine and
// board packages instead of gongo's own GoRobot/GoBoard interfaces.
package gtp

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gongtp/board"
)

// MaxBoardSize is the largest board GTP's single-letter-column encoding can
// address without ambiguity.
const MaxBoardSize = 25

// Engine is the subset of engine.Engine this loop drives. It is declared
// here, rather than imported from the engine package, so gtp has no
// compile-time dependency on engine's scorer/search wiring.
type Engine interface {
	SetBoardSize(size int) bool
	ClearBoard()
	SetKomi(komi float64)
	Play(color board.Color, pos board.Position) bool
	GenMove(color board.Color) (pos board.Position)
}

// Run executes GTP commands read from in against engine, writing responses
// to out, until a "quit" command is handled or the input is exhausted.
// Returns a non-nil error only for an I/O failure reading commands.
func Run(engine Engine, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	for {
		id, cmd, args, err := parseLine(reader)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if cmd == "" {
			continue
		}

		handle, ok := handlers[cmd]
		if !ok {
			fmt.Fprint(out, response{id: id, ok: false, payload: "unknown command"})
			continue
		}

		resp := handle(request{engine: engine, args: args, id: id})
		resp.id = id
		fmt.Fprint(out, resp)

		if cmd == "quit" {
			return nil
		}
	}
}

var wordRe = regexp.MustCompile(`\S+`)

// parseLine reads the next non-blank, non-comment line and splits it into
// an optional leading numeric id, a command name, and its arguments. A
// line consisting only of "#..." is a comment and is skipped.
func parseLine(r *bufio.Reader) (id string, cmd string, args []string, err error) {
	for {
		line, err := r.ReadString('\n')
		if err != nil && line == "" {
			return "", "", nil, err
		}
		if hash := strings.IndexByte(line, '#'); hash >= 0 {
			line = line[:hash]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			if err == io.EOF {
				return "", "", nil, io.EOF
			}
			continue
		}

		words := wordRe.FindAllString(line, -1)
		if _, convErr := strconv.Atoi(words[0]); convErr == nil {
			id = words[0]
			words = words[1:]
		}
		if len(words) == 0 {
			continue
		}
		return id, strings.ToLower(words[0]), words[1:], nil
	}
}

type request struct {
	engine Engine
	args   []string
	id     string
}

type response struct {
	id      string
	ok      bool
	payload string
}

func success(payload string) response { return response{ok: true, payload: payload} }
func failure(payload string) response { return response{ok: false, payload: payload} }

// String renders a response in GTP's "=id payload\n\n" / "?id payload\n\n"
// framing.
func (r response) String() string {
	prefix := "="
	if !r.ok {
		prefix = "?"
	}
	return prefix + r.id + " " + r.payload + "\n\n"
}

type handler func(request) response

var handlers = map[string]handler{
	"quit":             func(req request) response { return success("") },
	"name":             func(req request) response { return success("gongtp") },
	"version":          func(req request) response { return success("0.1.0") },
	"protocol_version": func(req request) response { return success("2") },
	"list_commands":    handleListCommands,
	"boardsize":        handleBoardsize,
	"clear_board":      func(req request) response { req.engine.ClearBoard(); return success("") },
	"komi":             handleKomi,
	"play":             handlePlay,
	"genmove":          handleGenmove,
	"final_score":      func(req request) response { return success("0") },
}

func handleListCommands(req request) response {
	names := make([]string, 0, len(handlers))
	for name := range handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return success(strings.Join(names, "\n"))
}

func handleBoardsize(req request) response {
	if len(req.args) != 1 {
		return failure("syntax error")
	}
	size, err := strconv.Atoi(req.args[0])
	if err != nil || size <= 0 || size > MaxBoardSize {
		return failure("unacceptable size")
	}
	if !req.engine.SetBoardSize(size) {
		return failure("unacceptable size")
	}
	return success("")
}

func handleKomi(req request) response {
	if len(req.args) != 1 {
		return failure("syntax error")
	}
	komi, err := strconv.ParseFloat(req.args[0], 64)
	if err != nil {
		return failure("syntax error")
	}
	req.engine.SetKomi(komi)
	return success("")
}

func handlePlay(req request) response {
	if len(req.args) != 2 {
		return failure("syntax error")
	}
	color, ok := parseColor(req.args[0])
	if !ok {
		return failure("syntax error")
	}
	pos, ok := parseVertex(req.args[1])
	if !ok {
		return failure("syntax error")
	}
	if !req.engine.Play(color, pos) {
		return failure("illegal move")
	}
	return success("")
}

func handleGenmove(req request) response {
	if len(req.args) != 1 {
		return failure("syntax error")
	}
	color, ok := parseColor(req.args[0])
	if !ok {
		return failure("syntax error")
	}
	pos := req.engine.GenMove(color)
	return success(formatVertex(pos))
}

func parseColor(s string) (board.Color, bool) {
	switch strings.ToLower(s) {
	case "b", "black":
		return board.Black, true
	case "w", "white":
		return board.White, true
	}
	return board.None, false
}

// parseVertex decodes a GTP position, case-insensitively: "pass", or a
// column letter (A-H, J-T, skipping I) followed by a 1-based row number.
// Coordinates are 0-based in the returned board.Position.
func parseVertex(s string) (board.Position, bool) {
	s = strings.ToUpper(s)
	if s == "PASS" {
		return board.Pass, true
	}
	if len(s) < 2 {
		return board.NoPosition, false
	}
	x, ok := letterToColumn(s[0])
	if !ok {
		return board.NoPosition, false
	}
	row, err := strconv.Atoi(s[1:])
	if err != nil || row < 1 {
		return board.NoPosition, false
	}
	return board.Position{X: x, Y: row - 1}, true
}

// formatVertex is parseVertex's inverse, plus the resign sentinel.
func formatVertex(p board.Position) string {
	if p.IsPass() {
		return "pass"
	}
	if p.IsResign() {
		return "resign"
	}
	return fmt.Sprintf("%c%d", columnLetter(p.X), p.Y+1)
}

// columnLetter maps a 0-based column index to its GTP letter, skipping 'I'.
func columnLetter(x int) byte {
	letter := byte('A' + x)
	if letter >= 'I' {
		letter++
	}
	return letter
}

// letterToColumn is columnLetter's inverse; 'I' itself is not a valid
// column letter.
func letterToColumn(letter byte) (int, bool) {
	switch {
	case letter == 'I':
		return 0, false
	case letter > 'I':
		return int(letter-'A') - 1, true
	case letter >= 'A' && letter < 'I':
		return int(letter - 'A'), true
	}
	return 0, false
}
