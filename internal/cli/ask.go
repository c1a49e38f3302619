package cli

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"ragsync/internal/answer"
	"ragsync/internal/service"
	"ragsync/internal/tui"
)

func newAskCmd(opts *rootOptions) *cobra.Command {
	var showSources bool
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question from the synchronised documentation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			asm, err := a.assembler(ctx)
			if err != nil {
				return err
			}
			svc := service.NewRAGService(nil, nil, asm)
			ans, err := svc.Ask(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			printAnswer(cmd.OutOrStdout(), ans, showSources)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&showSources, "sources", "s", false, "list the retrieved chunks after the answer")
	return cmd
}

func printAnswer(w io.Writer, ans answer.Answer, showSources bool) {
	fmt.Fprintln(w, ans.Text)
	if !showSources || len(ans.Sources) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Sources:")
	for _, r := range ans.Sources {
		fmt.Fprintf(w, "  %.3f  %s #%d\n", r.Score, r.Chunk.DocumentID, r.Chunk.Index)
	}
}

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive question answering in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			asm, err := a.assembler(ctx)
			if err != nil {
				return err
			}
			svc := service.NewRAGService(nil, nil, asm)
			header := fmt.Sprintf("%s collection %q, %s answers", a.cfg.VectorStore.Type, a.cfg.VectorStore.Collection, a.cfg.Generator.Type)
			_, err = tea.NewProgram(tui.New(ctx, svc, header), tea.WithContext(ctx), tea.WithAltScreen()).Run()
			return err
		},
	}
}
