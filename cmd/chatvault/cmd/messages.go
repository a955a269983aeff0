package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wesm/chatvault/internal/query"
)

var messagesJSON bool

var messagesCmd = &cobra.Command{
	Use:   "messages <conversation-id>",
	Short: "Show the messages of one conversation, oldest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		messages, err := svc.Messages(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("list messages: %w", err)
		}

		if messagesJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(messages)
		}

		if len(messages) == 0 {
			fmt.Println("No messages found.")
			return nil
		}

		for _, m := range messages {
			fmt.Printf("[%s] %s: %s\n", formatDate(m.Date), senderLabel(m), m.Text)
			if m.HasAttachment() {
				fmt.Printf("    attachment: %s (%s)\n", m.AttachmentPath, m.AttachmentMIME)
			}
		}
		return nil
	},
}

// senderLabel names the message author: "me" for own messages, the resolved
// contact name otherwise, falling back to the raw identifier.
func senderLabel(m query.Message) string {
	if m.FromMe {
		return "me"
	}
	if m.Contact != nil {
		if name := m.Contact.DisplayName(); name != "" {
			return name
		}
	}
	if m.Sender != "" {
		return m.Sender
	}
	return "unknown"
}

func init() {
	messagesCmd.Flags().BoolVar(&messagesJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(messagesCmd)
}
