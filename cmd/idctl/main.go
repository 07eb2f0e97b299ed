package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	grpcHandler "github.com/anthanhphan/go-distributed-id-generator/internal/idservice/adapter/inbound/grpc"
)

type options struct {
	addr    string
	timeout time.Duration
}

func main() {
	if err := newRoot().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRoot() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "idctl",
		Short:        "Fetch IDs from a generator node",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.addr, "addr", "localhost:9090", "gRPC address of a generator node")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 5*time.Second, "Request timeout")

	root.AddCommand(newNextCommand(opts), newBatchCommand(opts), newHealthCommand(opts))
	return root
}

func newNextCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Fetch a single ID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := grpcHandler.NewClientAdapter()
			defer func() { _ = client.Close() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			id, err := client.NextID(ctx, opts.addr)
			if err != nil {
				return fmt.Errorf("fetch id: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

func newBatchCommand(opts *options) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Fetch a batch of IDs, one per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count < 1 {
				return fmt.Errorf("count must be positive, got %d", count)
			}

			client := grpcHandler.NewClientAdapter()
			defer func() { _ = client.Close() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			ids, err := client.NextIDs(ctx, opts.addr, count)
			if err != nil {
				return fmt.Errorf("fetch ids: %w", err)
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 10, "Number of IDs to fetch")
	return cmd
}

func newHealthCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Report the serving status of a generator node",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := grpc.NewClient(opts.addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
			if err != nil {
				return fmt.Errorf("connect to %s: %w", opts.addr, err)
			}
			defer func() { _ = conn.Close() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: grpcHandler.ServiceName})
			if err != nil {
				return fmt.Errorf("health check: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.GetStatus().String())
			if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
				return fmt.Errorf("node %s is %s", opts.addr, resp.GetStatus())
			}
			return nil
		},
	}
}
