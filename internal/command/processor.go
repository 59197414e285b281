package command

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ArgPrefix starts a new command in a startup argument list.
const ArgPrefix = '-'

// Processor queues raw command lines and dispatches them through its
// Registry. Lines run in FIFO order, one per Update.
type Processor struct {
	*Registry

	pending []string
	log     *zap.Logger
}

// NewProcessor creates a processor with its own registry.
func NewProcessor(log *zap.Logger) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{
		Registry: NewRegistry(log),
		log:      log,
	}
}

// Buffer splits text into lines and queues every non-empty one.
func (p *Processor) Buffer(text string) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		p.pending = append(p.pending, line)
	}
}

// BufferArgs queues startup arguments. args[0] is the program path and is
// skipped. Each token starting with '-' opens a new command; the bare
// tokens after it become its space-joined arguments.
func (p *Processor) BufferArgs(args []string) {
	if len(args) < 2 {
		return
	}

	var current []string
	flush := func() {
		if len(current) > 0 {
			p.Buffer(strings.Join(current, " "))
			current = nil
		}
	}

	for _, tok := range args[1:] {
		if tok != "" && tok[0] == ArgPrefix {
			flush()
			name := strings.TrimLeft(tok, string(ArgPrefix))
			if name == "" {
				p.log.Warn("empty startup command", zap.String("argument", tok))
				continue
			}
			current = []string{name}
			continue
		}
		if current == nil {
			p.log.Warn("unrecognized startup argument", zap.String("argument", tok))
			continue
		}
		current = append(current, tok)
	}
	flush()
}

// Pending returns the number of queued lines.
func (p *Processor) Pending() int {
	return len(p.pending)
}

// Update runs at most one queued line.
func (p *Processor) Update(dt float64) {
	if len(p.pending) == 0 {
		return
	}
	line := p.pending[0]
	p.pending[0] = ""
	p.pending = p.pending[1:]
	_ = p.Process(line)
}

// Flush runs the lines queued at the time of the call and returns how
// many ran. Lines queued by those commands wait for the next Update.
// Used to drain the startup batch before the first frame.
func (p *Processor) Flush() int {
	n := len(p.pending)
	for i := 0; i < n; i++ {
		p.Update(0)
	}
	return n
}

// Process tokenizes and executes a single line. The first token names the
// command; the rest are typed by ParseToken. Errors are logged here and
// returned for callers that care.
func (p *Processor) Process(line string) error {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return nil
	}

	name := tokens[0]
	args := make([]Value, 0, len(tokens)-1)
	for _, tok := range tokens[1:] {
		v, err := ParseToken(tok)
		if err != nil {
			p.log.Error("command argument parse failed",
				zap.String("command", name),
				zap.String("line", line),
				zap.Error(err),
			)
			return fmt.Errorf("command %q: %w", name, err)
		}
		args = append(args, v)
	}

	return p.Execute(name, args...)
}
