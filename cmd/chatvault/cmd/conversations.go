package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var conversationsJSON bool

var conversationsCmd = &cobra.Command{
	Use:   "conversations",
	Short: "List conversations, most recently active first",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		if isTerminal() {
			fmt.Fprint(os.Stderr, "Loading conversations...")
			defer fmt.Fprint(os.Stderr, "\r                        \r")
		}

		conversations, err := svc.Conversations(cmd.Context())
		if err != nil {
			return fmt.Errorf("list conversations: %w", err)
		}

		if conversationsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(conversations)
		}

		if len(conversations) == 0 {
			fmt.Println("No conversations found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tLAST ACTIVITY\tTITLE\tLAST MESSAGE")
		fmt.Fprintln(w, "──\t─────────────\t─────\t────────────")
		for _, c := range conversations {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				c.ID,
				formatDate(c.LastMessageDate),
				truncate(c.Title, 30),
				truncate(c.LastMessage, 50))
		}
		return w.Flush()
	},
}

func init() {
	conversationsCmd.Flags().BoolVar(&conversationsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(conversationsCmd)
}
