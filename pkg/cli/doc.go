/*
Package cli provides command-line helpers for the courier command.

Output Formatting:

A completion can be printed three ways, chosen with --output:

	format, err := cli.ParseOutputFormat("raw")
	if err != nil {
		return err
	}
	formatter := cli.NewFormatter(format)
	if err := formatter.FormatTo(os.Stdout, resp.Raw); err != nil {
		return err
	}

raw writes the upstream JSON body unchanged, json writes the normalized
response, text writes only the assistant's reply.

Streaming:

	printer := cli.NewStreamPrinter(os.Stdout)
	for chunk := range chunks {
		_ = printer.Write(chunk.Delta)
	}
	printer.Finish()

Signal Handling:

SIGINT and SIGTERM cancel the in-flight request:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
