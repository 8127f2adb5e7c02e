package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ticketera/helpdesk-service/internal/domain"
	"github.com/ticketera/helpdesk-service/internal/priority"
)

func newPriorityCmd() *cobra.Command {
	var (
		roleWeight int
		slaHours   int
		project    bool
	)
	cmd := &cobra.Command{
		Use:   "priority [description]",
		Short: "Preview the priority and due date a ticket description would get",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description := strings.Join(args, " ")
			out := cmd.OutOrStdout()

			score := priority.ComputePriority(roleWeight, slaHours, description)
			fmt.Fprintf(out, "priority: %d (raw %d)\n", score, priority.RawScore(roleWeight, description))
			for _, kw := range priority.MatchKeywords(description) {
				fmt.Fprintf(out, "  matched %q %+d\n", kw.Phrase, kw.Delta)
			}
			if due := priority.DueDateFor(time.Now(), slaHours, project); due != nil {
				fmt.Fprintf(out, "due: %s\n", due.Format(time.RFC3339))
			} else {
				fmt.Fprintln(out, "due: none (project)")
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&roleWeight, "role-weight", 0, "priority weight of the requester's role")
	cmd.Flags().IntVar(&slaHours, "sla-hours", domain.DefaultSLAHours, "category SLA in hours")
	cmd.Flags().BoolVar(&project, "project", false, "treat the ticket as a project")
	return cmd
}
