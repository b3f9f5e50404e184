package clients

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"WordLeap/app/sentence"
	"WordLeap/app/utils"
)

var _ Interface = &ConsoleClient{}

// ConsoleClient is the terminal shell: it prints the sentence under
// construction and forwards safe/leap/restart intent into the controller.
type ConsoleClient struct {
	Client
	in  io.Reader
	out io.Writer
}

func NewConsoleClient() *ConsoleClient {
	return &ConsoleClient{in: os.Stdin, out: os.Stdout}
}

func (c *ConsoleClient) Subscribe(ctrl *sentence.Controller) {
	c.controller = ctrl
	go c.run()
}

func (c *ConsoleClient) run() {
	ctx := context.Background()
	scanner := bufio.NewScanner(c.in)

	c.render()
	for {
		fmt.Fprint(c.out, "> ")
		if !scanner.Scan() {
			return
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "q" || input == "quit" {
			fmt.Fprintln(c.out, "bye")
			return
		}
		c.handle(ctx, input)
		c.render()
	}
}

func (c *ConsoleClient) handle(ctx context.Context, input string) {
	if input == "" {
		return
	}

	// Commands win over key entry so a typed "retry" never becomes the key.
	var err error
	switch {
	case input == "s" || input == "safe":
		err = c.controller.Choose(ctx, sentence.SideSafe)
	case input == "l" || input == "leap":
		err = c.controller.Choose(ctx, sentence.SideLeap)
	case input == "r" || input == "restart":
		err = c.controller.Restart(ctx)
	case input == "retry":
		err = c.controller.Retry(ctx)
	case input == "forget":
		err = c.controller.ForgetKey(ctx)
	case c.controller.Phase() == sentence.PhaseKeyEntry:
		err = c.controller.SubmitKey(ctx, input)
	default:
		fmt.Fprintln(c.out, "commands: s(afe) | l(eap) | r(estart) | retry | forget | q(uit)")
		return
	}
	if err != nil {
		log.Printf("⚠️ %v", err)
	}
}

func (c *ConsoleClient) render() {
	snap := c.controller.Snapshot()
	switch snap.Phase {
	case sentence.PhaseKeyEntry:
		if snap.Err != nil {
			fmt.Fprintf(c.out, "❌ Oracle unreachable (%v). Paste a new key:\n", snap.Err)
			return
		}
		fmt.Fprintln(c.out, "🔑 Paste your oracle key to begin:")
	case sentence.PhaseWaiting:
		fmt.Fprintf(c.out, "… %s\n", strings.Join(snap.Words, " "))
		if snap.Err != nil {
			fmt.Fprintln(c.out, "fetch failed — type `retry`")
		}
	case sentence.PhaseChoosing:
		fmt.Fprintf(c.out, "  %s _  (%d/%d)\n", strings.Join(snap.Words, " "), len(snap.Words), snap.TargetLength)
		fmt.Fprintf(c.out, "  [s] %s   [l] %s\n", snap.Pair.Safe, snap.Pair.Leap)
	case sentence.PhaseComplete:
		fmt.Fprintf(c.out, "\n✨ %s\n\n", strings.Join(snap.Words, " "))
		fmt.Fprintln(c.out, utils.RenderTrace(snap))
		fmt.Fprintln(c.out, "[r] write another")
	}
}
