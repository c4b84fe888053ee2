package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"onyxnet/internal/app"
	"onyxnet/internal/domain"
	"onyxnet/internal/services/message"
)

const helpText = `Commands:
  /peers   list peers and their fingerprints
  /clear   clear the screen
  /help    show this help
  /quit    leave (also /exit)
Anything else is sent to every known peer.`

// sender is the part of the session the console drives.
type sender interface {
	Send(ctx context.Context, plaintext []byte) error
	Peers() []domain.PeerRecord
}

// console prints session events and interprets typed lines. Output from the
// session goroutine and the input loop is serialised by mu.
type console struct {
	mu      sync.Mutex
	out     io.Writer
	session sender
	now     func() time.Time
}

func newConsole(out io.Writer) *console {
	return &console{out: out, now: time.Now}
}

func (c *console) printf(format string, args ...any) {
	c.printAt(c.now(), format, args...)
}

func (c *console) printAt(at time.Time, format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "[%s] ", at.Format("15:04:05"))
	fmt.Fprintf(c.out, format, args...)
	fmt.Fprintln(c.out)
}

// Message implements domain.Sink. The line is stamped with the time the
// message was opened.
func (c *console) Message(m domain.DecryptedMessage) {
	at := c.now()
	if m.Timestamp > 0 {
		at = time.Unix(m.Timestamp, 0)
	}
	c.printAt(at, "%s: %s", m.From.Short(), m.Plaintext)
}

// Notice implements domain.Sink.
func (c *console) Notice(n domain.Notice) {
	switch n.Kind {
	case domain.NoticePeerJoined:
		c.printf("* %s joined", n.Peer.Short())
	case domain.NoticeBadHandshake:
		c.printf("* ignored bad handshake from %s: %v", n.Peer.Short(), n.Err)
	case domain.NoticeUnreadable:
		c.printf("* message from %s was not encrypted for you", n.Peer.Short())
	case domain.NoticeDecryptFailed:
		c.printf("* message from %s failed to decrypt: %v", n.Peer.Short(), n.Err)
	}
}

// handle processes one typed line and reports whether the user asked to quit.
func (c *console) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	switch strings.ToLower(line) {
	case "":
		return false
	case "/quit", "/exit":
		return true
	case "/help":
		c.printf("%s", helpText)
		return false
	case "/clear":
		c.mu.Lock()
		fmt.Fprint(c.out, "\033[H\033[2J")
		c.mu.Unlock()
		return false
	case "/peers":
		peers := c.session.Peers()
		if len(peers) == 0 {
			c.printf("* no peers yet")
		}
		for _, p := range peers {
			c.printf("* %s  %s", p.ID.Short(), p.Fingerprint)
		}
		return false
	}
	if strings.HasPrefix(line, "/") {
		c.printf("* Unknown command: %s (type /help)", line)
		return false
	}

	err := c.session.Send(ctx, []byte(line))
	switch {
	case errors.Is(err, message.ErrNoPeers):
		c.printf("* Waiting for peers...")
	case err != nil:
		c.printf("* send failed: %v", err)
	default:
		c.printf("Me: %s", line)
	}
	return false
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Join the relay and chat with everyone on it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			ui := newConsole(cmd.OutOrStdout())
			w, err := app.NewWire(ctx, cfg, ui)
			if err != nil {
				return err
			}
			ui.session = w.Session

			runErr := make(chan error, 1)
			go func() { runErr <- w.Session.Run(ctx) }()

			lines := make(chan string)
			go func() {
				defer close(lines)
				sc := bufio.NewScanner(cmd.InOrStdin())
				for sc.Scan() {
					select {
					case lines <- sc.Text():
					case <-ctx.Done():
						return
					}
				}
			}()

			ui.printf("You are %s (fingerprint %s) on %s. Type /help for commands.",
				w.Identity.ID.Short(), w.Identity.Fingerprint, w.RelayAddr)

			for {
				select {
				case <-ctx.Done():
					w.Session.Close()
					return nil
				case err := <-runErr:
					if err != nil {
						return fmt.Errorf("relay connection lost: %w", err)
					}
					return nil
				case line, ok := <-lines:
					if !ok || ui.handle(ctx, line) {
						w.Session.Close()
						return nil
					}
				}
			}
		},
	}
}
