// Command chatcli is a terminal client for the company chatbot server.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"company-chatbot/internal/chatclient"
	"company-chatbot/internal/domain"
	"company-chatbot/internal/reveal"
	"company-chatbot/internal/transcript"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "chatcli",
	Short: "Chat with the company assistant from the terminal",
	Long: `chatcli sends each line you type to the chatbot server and reveals the
reply progressively. Commands: /clear resets the conversation, /reload asks
the server to re-read its company profile, /quit exits.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := chatclient.New(serverURL)
		if err != nil {
			return err
		}
		interactive := term.IsTerminal(int(os.Stdin.Fd()))
		return run(cmd.Context(), client, cmd.InOrStdin(), cmd.OutOrStdout(), interactive)
	},
}

func init() {
	rootCmd.Flags().StringVar(&serverURL, "server", "http://localhost:5174", "chatbot server base URL")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// printer writes only the newly revealed suffix of each assistant update.
type printer struct {
	mu    sync.Mutex
	out   io.Writer
	curID string
	shown int
}

func (p *printer) update(m domain.ChatMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if m.ID != p.curID {
		p.curID = m.ID
		p.shown = 0
		fmt.Fprint(p.out, "bot> ")
	}
	if len(m.Text) > p.shown {
		fmt.Fprint(p.out, m.Text[p.shown:])
		p.shown = len(m.Text)
	}
}

// run reads one message per line until EOF or /quit. The "you> " prompt is
// printed only when interactive.
func run(ctx context.Context, client *chatclient.Client, in io.Reader, out io.Writer, interactive bool) error {
	tr := transcript.New("")
	p := &printer{out: out}
	session, err := chatclient.NewSession(client, tr, reveal.New(reveal.DefaultStep, reveal.DefaultInterval), p.update)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "bot> %s\n", tr.Last().Text)
	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			fmt.Fprint(out, "you> ")
		}
		if !scanner.Scan() {
			if interactive {
				fmt.Fprintln(out)
			}
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/clear":
			session.Clear()
			fmt.Fprintf(out, "bot> %s\n", tr.Last().Text)
			continue
		case "/reload":
			res, err := client.ReloadCompany(ctx)
			if err != nil {
				fmt.Fprintf(out, "reload failed: %v\n", err)
				continue
			}
			name := "(none)"
			if res.Name != nil {
				name = *res.Name
			}
			fmt.Fprintf(out, "profile loaded=%t name=%s\n", res.Loaded, name)
			continue
		}

		done, err := session.Submit(ctx, line)
		if errors.Is(err, chatclient.ErrEmptyMessage) {
			continue
		}
		if err != nil {
			return err
		}
		<-done
		fmt.Fprintln(out)
	}
}
