package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/yildizm/ScanSight/internal/emoji"
	"github.com/yildizm/ScanSight/internal/predict"
)

var (
	healthTimeout time.Duration
)

func newHealthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the prediction service",
		Long: `Query the prediction service health endpoint and report whether the
service is up with its model loaded. Exits non-zero when it is not.`,
		Args: cobra.NoArgs,
		RunE: runHealth,
	}

	cmd.Flags().DurationVar(&healthTimeout, "timeout", 10*time.Second, "how long to wait for the service")

	return cmd
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg := GetGlobalConfig()

	client, err := predict.New(cfg.ToPredict(), nil)
	if err != nil {
		return fmt.Errorf("failed to create prediction client: %w", err)
	}

	ctx := cmd.Context()
	if healthTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, healthTimeout)
		defer cancel()
	}

	status, err := client.Health(ctx)
	if err != nil {
		return fmt.Errorf("health check against %s failed: %w", client.Endpoint(), err)
	}

	out := cmd.OutOrStdout()
	if getOutputFormat() == "json" {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode health status: %w", err)
		}
		fmt.Fprintln(out, string(data))
	} else {
		fmt.Fprintf(out, "%s Service: %s\n", emoji.GetEmoji("health"), client.Endpoint())
		fmt.Fprintf(out, "Status: %s\n", status.Status)
		fmt.Fprintf(out, "Model loaded: %t\n", status.ModelLoaded)
	}

	if !status.Healthy() {
		return fmt.Errorf("service is not ready (status=%s, model_loaded=%t)", status.Status, status.ModelLoaded)
	}
	if getOutputFormat() != "json" {
		fmt.Fprintf(out, "%s Service is ready\n", emoji.GetEmoji("success"))
	}
	return nil
}
