package main

import (
	"strings"

	"github.com/spf13/cobra"
)

var askNew bool

var askCmd = &cobra.Command{
	Use:   "ask QUESTION",
	Short: "Ask a single question and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if askNew {
			a.controller.CreateSession(cmd.Context())
		}
		return ask(cmd.Context(), a, strings.Join(args, " "))
	},
}

func init() {
	askCmd.Flags().BoolVarP(&askNew, "new", "n", false, "Ask in a new chat")
}
