// Package ui implements the interactive chat loop on a line-oriented terminal.
package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/go-go-golems/toolchat/pkg/inference/session"
	"github.com/go-go-golems/toolchat/pkg/inference/toolloop"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	PromptLabel = "You: "
	AnswerLabel = "GPT: "
	ExitMessage = "Exiting..."
)

type REPL struct {
	session    *session.Session
	in         io.Reader
	out        io.Writer
	styles     *Styles
	renderer   *glamour.TermRenderer
	interrupts <-chan struct{}
	showTools  bool
}

type Option func(*REPL)

func WithInput(in io.Reader) Option { return func(r *REPL) { r.in = in } }

func WithOutput(out io.Writer) Option { return func(r *REPL) { r.out = out } }

func WithStyles(s Styles) Option { return func(r *REPL) { r.styles = &s } }

// WithInterrupts feeds Ctrl-C presses to the REPL. At the prompt an interrupt
// exits; during a turn it abandons that turn.
func WithInterrupts(ch <-chan struct{}) Option { return func(r *REPL) { r.interrupts = ch } }

// WithMarkdown renders answers as terminal markdown.
func WithMarkdown(wordWrap int, styled bool) Option {
	return func(r *REPL) {
		style := glamour.WithStandardStyle("notty")
		if styled {
			style = glamour.WithAutoStyle()
		}
		tr, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(wordWrap))
		if err != nil {
			log.Warn().Err(err).Msg("could not create markdown renderer, printing plain text")
			return
		}
		r.renderer = tr
	}
}

// WithToolTrace prints each tool call as it is dispatched.
func WithToolTrace(enabled bool) Option { return func(r *REPL) { r.showTools = enabled } }

func New(s *session.Session, opts ...Option) *REPL {
	r := &REPL{session: s, showTools: true}
	for _, opt := range opts {
		opt(r)
	}
	if r.out == nil {
		r.out = io.Discard
	}
	if r.in == nil {
		r.in = strings.NewReader("")
	}
	if r.styles == nil {
		s := NewStyles(r.out, false)
		r.styles = &s
	}
	return r
}

type line struct {
	text string
	err  error
}

func readLines(in io.Reader) <-chan line {
	ch := make(chan line)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			ch <- line{text: scanner.Text()}
		}
		if err := scanner.Err(); err != nil {
			ch <- line{err: err}
		}
	}()
	return ch
}

// Run reads utterances until EOF, /exit, an interrupt at the prompt or ctx
// cancellation. Failed turns are reported and the loop continues.
func (r *REPL) Run(ctx context.Context) error {
	lines := readLines(r.in)
	for {
		r.print(r.styles.Prompt.Render(PromptLabel))

		var l line
		var ok bool
		select {
		case <-ctx.Done():
			r.exit()
			return nil
		case <-r.interrupts:
			r.exit()
			return nil
		case l, ok = <-lines:
		}
		if !ok {
			r.exit()
			return nil
		}
		if l.err != nil {
			return errors.Wrap(l.err, "could not read input")
		}

		text := strings.TrimSpace(l.text)
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "/") {
			if done := r.command(text); done {
				r.exit()
				return nil
			}
			continue
		}
		r.turn(ctx, text)
	}
}

func (r *REPL) print(s string) {
	_, _ = fmt.Fprint(r.out, s)
}

func (r *REPL) println(s string) {
	_, _ = fmt.Fprintln(r.out, s)
}

func (r *REPL) exit() {
	r.println("")
	r.println(ExitMessage)
}

func (r *REPL) onEvent(_ context.Context, ev toolloop.Event) {
	if !r.showTools || ev.Phase != toolloop.PhaseToolDispatch || ev.Call == nil {
		return
	}
	r.println(r.styles.Tool.Render(fmt.Sprintf("→ %s(%s)", ev.Call.Name, ev.Call.Argument)))
}

// turn submits one utterance. An interrupt while it runs cancels it.
func (r *REPL) turn(ctx context.Context, text string) {
	turnCtx, cancel := context.WithCancel(toolloop.WithHook(ctx, r.onEvent))
	defer cancel()

	type result struct {
		answer string
		err    error
	}
	done := make(chan result, 1)
	go func() {
		answer, err := r.session.Submit(turnCtx, text)
		done <- result{answer, err}
	}()

	var res result
	select {
	case res = <-done:
	case <-r.interrupts:
		cancel()
		res = <-done
	}

	switch {
	case res.err == nil:
		r.answer(res.answer)
	case ctx.Err() != nil:
		// shutting down, Run prints the exit message
	case errors.Is(res.err, context.Canceled):
		r.println(r.styles.Notice.Render("Interrupted, the question was dropped."))
	default:
		r.println(r.styles.Error.Render("Error: " + res.err.Error()))
	}
}

func (r *REPL) answer(text string) {
	if r.renderer != nil {
		if rendered, err := r.renderer.Render(text); err == nil {
			r.println(r.styles.Label.Render(AnswerLabel))
			r.print(rendered)
			return
		}
	}
	r.println(r.styles.Label.Render(AnswerLabel) + r.styles.Answer.Render(text))
}

// command runs a slash command and reports whether the REPL should exit.
func (r *REPL) command(text string) bool {
	name := strings.Fields(text)[0]
	switch name {
	case "/exit", "/quit":
		return true
	case "/history":
		turns := r.session.History()
		if len(turns) == 0 {
			r.println(r.styles.Notice.Render("(no history)"))
		}
		for _, t := range turns {
			r.println(t.String())
		}
	case "/dump":
		if err := r.session.Memory.WriteYAML(r.out); err != nil {
			r.println(r.styles.Error.Render("Error: " + err.Error()))
		}
	case "/tools":
		for _, d := range r.session.Registry.Descriptions() {
			r.println(fmt.Sprintf("%s: %s", d.Name, d.Description))
		}
	case "/help":
		r.println("/history  show the conversation")
		r.println("/dump     print the conversation as YAML")
		r.println("/tools    list available tools")
		r.println("/exit     leave")
	default:
		r.println(r.styles.Error.Render(fmt.Sprintf("unknown command %s, try /help", name)))
	}
	return false
}
