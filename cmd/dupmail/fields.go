package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/dupmail/internal/fingerprint"
)

var fieldDescriptions = map[fingerprint.Field]string{
	fingerprint.FieldFrom:      "sender address",
	fingerprint.FieldTo:        "To, Cc and Bcc addresses, sorted",
	fingerprint.FieldSubject:   "decoded subject, whitespace collapsed, lowercased",
	fingerprint.FieldDate:      "calendar date of the Date header (YYYY-MM-DD)",
	fingerprint.FieldBodySize:  "total length of the non-blank body lines",
	fingerprint.FieldBodyLines: "number of non-blank body lines",
	fingerprint.FieldBodyHash:  "SHA-256 of the non-blank body lines",
}

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List the fields that can be compared",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults := make(map[fingerprint.Field]bool)
		for _, f := range fingerprint.DefaultFields {
			defaults[f] = true
		}

		out := cmd.OutOrStdout()
		for _, f := range fingerprint.Fields() {
			mark := " "
			if defaults[f] {
				mark = "*"
			}
			fmt.Fprintf(out, "%s %-10s %s\n", mark, f, fieldDescriptions[f])
		}
		fmt.Fprintln(out, "\n* compared by default")
		return nil
	},
}
