// Package tool provides the tool registry used by agents and the tool
// dispatcher, plus ready-to-use tools.
//
// A Descriptor pairs a name and description with a JSON schema for the
// arguments and a Handler. Registries validate arguments with
// github.com/google/jsonschema-go before a handler runs:
//
//	reg, err := tool.NewRegistry(
//		tool.NewWebSearchTool(searcher, 5),
//		tool.NewBarChartTool(os.Stdout),
//	)
//	result, err := reg.Call(ctx, "web_search", json.RawMessage(`{"query":"GDP of UK"}`))
//
// Errors are typed: *UnknownToolError, *InvalidArgumentsError and
// *ExecutionError, matching ErrUnknownTool, ErrInvalidArguments and
// ErrExecution.
//
// # Available Tools
//
//   - web_search: Tavily or Brave backends behind the Searcher interface
//   - read_webpage: downloads a page and extracts readable text with goquery
//   - generate_bar_chart: lays out a horizontal bar chart with a tick axis and
//     writes it, styled with lipgloss, to an io.Writer
//
// Existing langchaingo tools can be registered with FromLangchain.
package tool
