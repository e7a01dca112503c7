package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"subburn/internal/api"
	"subburn/internal/logging"
	"subburn/internal/pipeline"
	"subburn/internal/style"
)

func newBurnCommand(ctx *commandContext) *cobra.Command {
	var (
		styles     styleFlags
		useServer  bool
		requestID  string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "burn <video-url> <srt-url>",
		Short: "Burn captions into a video",
		Long: `Fetch a video and an SRT caption file, burn the captions in and print the
output location. The burn runs in-process unless --server is given, in which
case the request is submitted to the running subburn service.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.CaptionRequest{
				VideoURL: args[0],
				SRTURL:   args[1],
				Options:  styles.options(cmd),
			}
			var (
				resp *api.CaptionResponse
				err  error
			)
			if useServer {
				resp, err = burnRemote(cmd, ctx, req, requestID)
			} else {
				resp, err = burnLocal(cmd, ctx, req, requestID)
			}
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, resp)
			}
			printBurnResult(cmd.OutOrStdout(), resp)
			return nil
		},
	}

	styles.register(cmd)
	cmd.Flags().BoolVar(&useServer, "server", false, "Submit the request to the running service")
	cmd.Flags().StringVar(&requestID, "id", "", "Request identifier (random when empty)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	return cmd
}

func burnLocal(cmd *cobra.Command, ctx *commandContext, req api.CaptionRequest, requestID string) (*api.CaptionResponse, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	rt, err := buildRuntime(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, err
	}
	defer rt.Close()

	result, err := rt.runner.Run(cmd.Context(), req.PipelineRequest(requestID))
	if err != nil {
		return nil, burnError(result)
	}
	return &api.CaptionResponse{
		OutputPath:     result.OutputPath,
		OutputFilename: result.OutputFilename,
		RequestID:      result.RequestID,
		ObjectKey:      result.ObjectKey,
		Diagnostics:    result.Diagnostics,
	}, nil
}

func burnRemote(cmd *cobra.Command, ctx *commandContext, req api.CaptionRequest, requestID string) (*api.CaptionResponse, error) {
	client, err := ctx.client()
	if err != nil {
		return nil, err
	}
	if requestID != "" {
		client = client.WithRequestID(requestID)
	}
	resp, err := client.Caption(cmd.Context(), req)
	if err != nil {
		if api.IsUnreachable(err) {
			return nil, fmt.Errorf("subburn service unreachable at %s; start it with `subburn serve`: %w", client.BaseURL, err)
		}
		return nil, err
	}
	return resp, nil
}

func burnError(result pipeline.Result) error {
	if result.Message == "" {
		return errors.New(string(result.ErrorKind))
	}
	return fmt.Errorf("%s: %s", result.ErrorKind, result.Message)
}

func printBurnResult(out io.Writer, resp *api.CaptionResponse) {
	fmt.Fprintf(out, "Output: %s\n", resp.OutputPath)
	fmt.Fprintf(out, "File:   %s\n", resp.OutputFilename)
	if resp.ObjectKey != "" {
		fmt.Fprintf(out, "Object: %s\n", resp.ObjectKey)
	}
	printDiagnostics(out, resp.Diagnostics)
}

func printDiagnostics(out io.Writer, diags []style.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintf(out, "note (%s): %s\n", d.Code, d.Message)
	}
}
