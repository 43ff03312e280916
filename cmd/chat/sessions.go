package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List saved chats",
	Long:  `List saved chats, newest first. Continue one with --session N.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		listSessions(a)
		if len(a.sessions.Sessions()) > 0 {
			fmt.Printf("\nUsage:\n")
			fmt.Printf("  admission-chat --session N   # Continue chat N\n")
			fmt.Printf("  admission-chat --new         # Start a new chat\n")
		}
		return nil
	},
}
