package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alexschlessinger/saintsal/agent"
	"github.com/alexschlessinger/saintsal/capabilities"
	"github.com/alexschlessinger/saintsal/internal/log"
	"github.com/alexschlessinger/saintsal/sessions"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v3"
)

func runChat(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := newREPL(a.agent, a.store, os.Stdout)
	r.userID = cmd.String("user")
	r.requested = cmd.StringSlice("capability")
	r.quiet = cmd.Bool("quiet")
	if !r.quiet && isTerminal() {
		r.status = NewStatus(os.Stderr)
	}

	prompt := cmd.String("prompt")
	if prompt == "" && hasStdinData() {
		if prompt, err = readAll(os.Stdin); err != nil {
			return err
		}
	}
	if prompt != "" {
		r.turn(ctx, prompt)
		return nil
	}

	return r.run(ctx, os.Stdin)
}

// repl is the interactive chat loop over one conversation
type repl struct {
	agent     *agent.Agent
	store     *sessions.MemoryStore
	out       io.Writer
	style     palette
	status    *Status
	quiet     bool
	userID    string
	requested []string
	sessionID string
}

func newREPL(a *agent.Agent, store *sessions.MemoryStore, out io.Writer) *repl {
	return &repl{
		agent: a,
		store: store,
		out:   out,
		style: newPalette(termenv.NewOutput(out)),
	}
}

// run reads lines from in until EOF, /exit or ctx is cancelled
func (r *repl) run(ctx context.Context, in io.Reader) error {
	if !r.quiet {
		r.printWelcome()
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(r.out, r.style.user.Styled("> "))
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if !r.command(line) {
				return nil
			}
			continue
		}
		r.turn(ctx, line)
	}
}

// turn sends one message and prints the reply
func (r *repl) turn(ctx context.Context, message string) {
	if r.status != nil {
		r.status.Start("thinking")
	}
	result := r.agent.Process(ctx, agent.TurnRequest{
		Message:               message,
		SessionID:             r.sessionID,
		UserID:                r.userID,
		RequestedCapabilities: r.requested,
	})
	if r.status != nil {
		r.status.Stop()
	}

	r.sessionID = result.SessionID
	fmt.Fprintln(r.out, r.style.assistant.Styled(result.Response))
	if result.Metadata.Error {
		fmt.Fprintln(r.out, r.style.err.Styled("(completion failed, see --debug for details)"))
	}
}

// command handles a slash command. It returns false when the loop should end.
func (r *repl) command(line string) bool {
	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]

	switch name {
	case "/exit", "/quit":
		return false
	case "/help":
		r.printHelp()
	case "/clear":
		fmt.Fprint(r.out, "\033[H\033[2J")
	case "/new":
		r.sessionID = ""
		fmt.Fprintln(r.out, r.style.success.Styled("Started a new conversation"))
	case "/session":
		r.printSession()
	case "/history":
		r.printHistory()
	case "/caps":
		r.printCapabilities()
	case "/enable", "/disable":
		if len(args) != 1 {
			fmt.Fprintln(r.out, r.style.err.Styled("usage: "+name+" <capability>"))
			return true
		}
		r.toggle(args[0], name == "/enable")
	case "/only":
		r.requested = args
		if len(args) == 0 {
			r.requested = nil
			fmt.Fprintln(r.out, r.style.success.Styled("Capability restriction cleared"))
		} else {
			fmt.Fprintln(r.out, r.style.success.Styled("Restricting turns to "+strings.Join(args, ", ")))
		}
	default:
		fmt.Fprintln(r.out, r.style.err.Styled("Unknown command "+name+" (try /help)"))
	}
	return true
}

func (r *repl) toggle(capability string, enabled bool) {
	if r.sessionID == "" {
		fmt.Fprintln(r.out, r.style.err.Styled("No conversation yet; send a message first"))
		return
	}
	update := capabilities.Disable(capability)
	if enabled {
		update = capabilities.Enable(capability)
	}
	if !r.agent.UpdateCapabilities(r.sessionID, []capabilities.Update{update}) {
		fmt.Fprintln(r.out, r.style.err.Styled("Session expired; send a message to start a new one"))
		return
	}
	fmt.Fprintln(r.out, r.style.success.Styled("Updated "+capability))
}

func (r *repl) printWelcome() {
	cfg := r.agent.Config()
	fmt.Fprintf(r.out, "Model: %s\n", r.style.highlight.Styled(cfg.Model))
	fmt.Fprintf(r.out, "Temperature: %s\n", r.style.highlight.Styled(fmt.Sprintf("%.1f", cfg.Temperature)))
	fmt.Fprintf(r.out, "Max Tokens: %s\n", r.style.highlight.Styled(fmt.Sprintf("%d", cfg.MaxTokens)))
	fmt.Fprintln(r.out, r.style.dim.Styled("Type /help for commands"))
	fmt.Fprintln(r.out)
}

func (r *repl) printHelp() {
	fmt.Fprint(r.out, `
Commands:
─────────
  /exit, /quit         Leave the chat
  /clear               Clear the screen
  /new                 Start a new conversation
  /session             Show the current session
  /history             Show retained conversation history
  /caps                List capabilities and their state
  /enable <name>       Enable a capability for this session
  /disable <name>      Disable a capability for this session
  /only [names...]     Restrict turns to the named capabilities (no names clears)
  /help                Show this help message

`)
}

func (r *repl) printSession() {
	if r.sessionID == "" {
		fmt.Fprintln(r.out, "No conversation yet.")
		return
	}
	info, err := r.agent.GetSession(r.sessionID)
	if err != nil {
		fmt.Fprintln(r.out, r.style.err.Styled(err.Error()))
		return
	}
	fmt.Fprintf(r.out, "Session: %s\n", r.style.highlight.Styled(info.SessionID))
	fmt.Fprintf(r.out, "Messages: %d\n", info.HistoryLength)
	fmt.Fprintf(r.out, "Business context: %s\n", info.BusinessContext)
	fmt.Fprintf(r.out, "Expertise: %s\n", strings.Join(info.ExpertiseDomains, ", "))
	fmt.Fprintf(r.out, "Last activity: %s\n", info.LastActivity.Format("15:04:05"))
}

func (r *repl) printHistory() {
	session, ok := r.store.Get(r.sessionID)
	if !ok || session.HistoryLen() == 0 {
		fmt.Fprintln(r.out, "No conversation history.")
		return
	}
	for _, msg := range session.History() {
		fmt.Fprintf(r.out, "=== %s ===\n%s\n\n", r.style.bold.Styled(string(msg.Role)), msg.Content)
	}
}

func (r *repl) printCapabilities() {
	var caps []capabilities.Capability
	if info, err := r.agent.GetSession(r.sessionID); err == nil {
		caps = info.Capabilities
	} else {
		caps = capabilities.Defaults()
	}
	for _, c := range caps {
		state := r.style.success.Styled("on ")
		if !c.Enabled {
			state = r.style.dim.Styled("off")
		}
		fmt.Fprintf(r.out, "  %s  %s  %s\n", state, r.style.bold.Styled(c.Name), r.style.dim.Styled(c.Description))
	}
}
