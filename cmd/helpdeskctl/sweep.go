package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ticketera/helpdesk-service/internal/events"
	"github.com/ticketera/helpdesk-service/internal/persistence"
	"github.com/ticketera/helpdesk-service/internal/repository"
	"github.com/ticketera/helpdesk-service/internal/service"
	"github.com/ticketera/helpdesk-service/internal/worker"
)

func newSweepCmd() *cobra.Command {
	var publish bool
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one SLA sweep and flag newly overdue tickets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, err := openRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			dispatcher := events.NewInMemoryDispatcher()
			var sink events.EventHandler
			if publish {
				redis, err := persistence.NewRedis(ctx, rt.cfg.Redis, rt.logger)
				if err != nil {
					return err
				}
				defer redis.Close()
				sink = events.NewStreamPublisher(redis.Client, rt.cfg.Events.RedisStream, rt.cfg.Events.StreamMaxLen).Handle
			}
			worker.StartNotifications(dispatcher, rt.logger, sink)

			sweeper := service.NewSLAService(service.SLADependencies{
				TicketRepo: repository.NewTicketRepository(rt.pg.Pool),
				Dispatcher: dispatcher,
				Logger:     rt.logger,
				BatchSize:  rt.cfg.SLA.SweepBatchSize,
			})
			res, err := sweeper.Sweep(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "notified=%d overdue=%d\n", res.Notified, res.Overdue)
			return nil
		},
	}
	cmd.Flags().BoolVar(&publish, "publish", true, "forward breach events to the redis stream")
	return cmd
}
