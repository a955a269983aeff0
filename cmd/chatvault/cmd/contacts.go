package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var contactsJSON bool

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "List the contact directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		directory := svc.Contacts()

		if contactsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(directory)
		}

		if len(directory) == 0 {
			fmt.Println("No contacts found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tPHONES\tEMAILS")
		fmt.Fprintln(w, "────\t──────\t──────")
		for _, c := range directory {
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				truncate(c.DisplayName(), 30),
				truncate(strings.Join(c.Phones, ", "), 40),
				truncate(strings.Join(c.Emails, ", "), 40))
		}
		return w.Flush()
	},
}

func init() {
	contactsCmd.Flags().BoolVar(&contactsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(contactsCmd)
}
