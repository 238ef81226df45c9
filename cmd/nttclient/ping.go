package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "open a session against the relay and probe the socket",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := dialSession()
		if err != nil {
			return fmt.Errorf("dial relay: %w", err)
		}
		if err := s.Ping(); err != nil {
			return fmt.Errorf("ping: %w", err)
		}
		if err := s.Broadcast(); err != nil {
			return fmt.Errorf("await pong: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "ok")
		return nil
	},
}
