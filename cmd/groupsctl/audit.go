package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dangerclosesec/studygroups/internal/model"
	"github.com/dangerclosesec/studygroups/internal/repository"
	"github.com/dangerclosesec/studygroups/internal/service"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var auditFlags struct {
	group  string
	actor  string
	action string
	since  time.Duration
	limit  int
}

func init() {
	auditCmd.Flags().StringVar(&auditFlags.group, "group", "", "Only events for this group id")
	auditCmd.Flags().StringVar(&auditFlags.actor, "actor", "", "Only events by this user id")
	auditCmd.Flags().StringVar(&auditFlags.action, "action", "", "Only events with this action, e.g. member_joined")
	auditCmd.Flags().DurationVar(&auditFlags.since, "since", 0, "Only events newer than this, e.g. 24h")
	auditCmd.Flags().IntVar(&auditFlags.limit, "limit", 50, "Maximum number of events to print")
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "List group membership events, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		query, err := buildEventQuery(time.Now().UTC())
		if err != nil {
			return err
		}

		gdb, closeDB, err := openGorm(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB()

		events, total, err := service.NewGroupEventService(repository.NewGroupEventRepository(gdb)).ListEvents(cmd.Context(), query)
		if err != nil {
			return err
		}
		return printEvents(cmd.OutOrStdout(), events, total)
	},
}

func buildEventQuery(now time.Time) (repository.EventQuery, error) {
	query := repository.EventQuery{
		Action: auditFlags.action,
		Limit:  auditFlags.limit,
	}
	if auditFlags.group != "" {
		id, err := uuid.Parse(auditFlags.group)
		if err != nil {
			return query, fmt.Errorf("invalid --group: %w", err)
		}
		query.GroupID = id
	}
	if auditFlags.actor != "" {
		id, err := uuid.Parse(auditFlags.actor)
		if err != nil {
			return query, fmt.Errorf("invalid --actor: %w", err)
		}
		query.ActorID = id
	}
	if auditFlags.since > 0 {
		query.StartTime = now.Add(-auditFlags.since)
	}
	return query, nil
}

func printEvents(out io.Writer, events []model.GroupEvent, total int64) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tGROUP\tACTION\tACTOR\tSUBJECT\tREQUEST")
	for _, e := range events {
		subject := "-"
		if e.SubjectID != nil {
			subject = e.SubjectID.String()
		}
		request := e.RequestID
		if request == "" {
			request = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.Format(time.RFC3339), e.GroupID, e.Action, e.ActorID, subject, request)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "%d of %d events\n", len(events), total)
	return err
}
