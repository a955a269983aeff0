package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wesm/chatvault/internal/search"
)

var searchJSON bool

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search messages",
	Long: `Search the chat archive.

Supported operators, matched case-insensitively:
  FROM:         Sender: a contact name or a raw phone/email identifier
  AFTER:        Messages on or after a date (YYYY-MM-DD or unix seconds)
  BEFORE:       Messages on or before a date
  CONVERSATION: Restrict to one conversation id
  has:          has:attachment, has:image, has:video, has:pdf, has:audio, has:other
  is:           is:me (own messages), is:group, is:direct
  sort:         sort:asc or sort:desc (default: newest first)

Bare words and "quoted phrases" match message text.

Examples:
  chatvault search dinner plans
  chatvault search 'FROM:"Ann Archer" AFTER:2024-01-01'
  chatvault search has:pdf is:group
  chatvault search CONVERSATION:42 "see you at seven"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		queryStr := strings.Join(args, " ")

		svc, cleanup, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		spec := search.NewParser(svc.Index()).Parse(queryStr)
		if spec.IsEmpty() {
			return fmt.Errorf("empty search query")
		}

		if isTerminal() {
			fmt.Fprint(os.Stderr, "Searching...")
			defer fmt.Fprint(os.Stderr, "\r            \r")
		}

		results, err := svc.Search(cmd.Context(), spec)
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}

		if searchJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}

		if len(results) == 0 {
			fmt.Println("No messages found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tCONVERSATION\tFROM\tTEXT")
		fmt.Fprintln(w, "────\t────────────\t────\t────")
		for _, m := range results {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				formatDate(m.Date),
				m.ConversationID,
				truncate(senderLabel(m), 25),
				truncate(m.Text, 60))
		}
		w.Flush()
		fmt.Printf("\nShowing %d results\n", len(results))
		return nil
	},
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(searchCmd)
}
