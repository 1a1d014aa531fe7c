package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iyunix/go-docchat/internal/domain"
	"github.com/iyunix/go-docchat/internal/format"
	"github.com/iyunix/go-docchat/internal/services/export"
)

func (a *app) loadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "load <file>",
		Short: "Load a PDF, DOCX, Markdown or text file into a new conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			effects, err := a.env.Session.LoadDocument(ctx, args[0])
			if err != nil {
				return err
			}
			id := a.env.Session.State().ActiveID
			conv, history, err := a.env.Session.Transcript(ctx, id)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.env.Out, "Conversation %d: %s\n", conv.ID, conv.Title)
			for _, m := range history {
				fmt.Fprintf(a.env.Out, "\n%s\n", m.Content)
			}
			a.warn(effects.Warning)
			return nil
		},
	}
}

func (a *app) askCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <id> <question...>",
		Short: "Ask a question about a conversation's document",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := a.env.Session.Select(ctx, id); err != nil {
				return err
			}
			effects, err := a.env.Session.Ask(ctx, strings.Join(args[1:], " "))
			if err != nil {
				a.warn(effects.Warning)
				return err
			}
			if len(effects.Append) == 0 {
				return nil
			}

			_, history, err := a.env.Session.Transcript(ctx, id)
			if err != nil {
				return err
			}
			if n := len(history); n > 0 {
				fmt.Fprintln(a.env.Out, history[n-1].Content)
			}
			a.warn(effects.Warning)
			return nil
		},
	}
}

func (a *app) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List conversations, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.env.Session.Conversations(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.env.Out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tTITLE")
			for _, c := range list {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", c.ID, c.CreatedAt.Local().Format(time.DateTime), c.Title)
			}
			return tw.Flush()
		},
	}
}

func (a *app) showCommand() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a conversation as rendered HTML, or raw with --raw",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if raw {
				conv, history, err := a.env.Session.Transcript(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.env.Out, "# %s\n", conv.Title)
				for _, m := range history {
					fmt.Fprintf(a.env.Out, "\n%s: %s\n", m.Sender.Label(), m.Content)
				}
				return nil
			}

			effects, err := a.env.Session.Select(cmd.Context(), id)
			if err != nil {
				return err
			}
			for _, m := range effects.Append {
				fmt.Fprintln(a.env.Out, m.HTML)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print stored text instead of HTML")
	return cmd
}

func (a *app) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a conversation and its messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			effects, err := a.env.Session.Delete(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !effects.RefreshList {
				fmt.Fprintf(a.env.Out, "Conversation %d does not exist\n", id)
				return nil
			}
			fmt.Fprintf(a.env.Out, "Deleted conversation %d\n", id)
			return nil
		},
	}
}

// copyCommand numbers code blocks from 1 across the whole conversation.
func (a *app) copyCommand() *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "copy <id> [block#]",
		Short: "Copy a code block from a conversation to the clipboard",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			_, history, err := a.env.Session.Transcript(cmd.Context(), id)
			if err != nil {
				return err
			}
			blocks := conversationBlocks(history)

			if list || len(args) == 1 {
				for i, b := range blocks {
					fmt.Fprintf(a.env.Out, "%d\t%s\t%s\n", i+1, langOrDash(b.Lang), firstLine(b.Code))
				}
				return nil
			}

			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 || n > len(blocks) {
				return fmt.Errorf("block %q out of range: conversation %d has %d code blocks", args[1], id, len(blocks))
			}
			if err := a.env.WriteClipboard(blocks[n-1].Code); err != nil {
				return fmt.Errorf("write clipboard: %w", err)
			}
			fmt.Fprintf(a.env.Out, "Copied block %d (%d bytes)\n", n, len(blocks[n-1].Code))
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "list code blocks instead of copying")
	return cmd
}

func (a *app) exportCommand() *cobra.Command {
	var kind, out string
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a conversation as Markdown or HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			conv, history, err := a.env.Session.Transcript(cmd.Context(), id)
			if err != nil {
				return err
			}
			doc, _, err := export.Render(kind, conv, history)
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = fmt.Fprint(a.env.Out, doc)
				return err
			}
			return os.WriteFile(out, []byte(doc), 0o644)
		},
	}
	cmd.Flags().StringVarP(&kind, "format", "f", export.FormatMarkdown, "md or html")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func (a *app) warn(msg string) {
	if msg != "" {
		fmt.Fprintf(a.env.Err, "warning: %s\n", msg)
	}
}

func conversationBlocks(history []domain.Message) []format.CodeBlock {
	var blocks []format.CodeBlock
	for _, m := range history {
		blocks = append(blocks, format.ExtractCodeBlocks(m.Content)...)
	}
	return blocks
}

func langOrDash(lang string) string {
	if lang == "" {
		return "-"
	}
	return lang
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	if r := []rune(line); len(r) > 60 {
		return string(r[:60]) + "..."
	}
	return line
}
