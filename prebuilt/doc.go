// Package prebuilt provides ready-to-use agents and graphs for tool-calling and
// multi-agent collaboration.
//
// An Agent binds a language model, a tool registry and a system directive. Each
// turn it makes one model call and produces an Output: a FinalAnswer or a
// ToolRequest. A ToolNode runs the requested tools concurrently and appends the
// results in request order. Both share the AgentState conversation, whose
// messages are appended and whose sender is overwritten by agent turns only.
//
// # Tool-calling agent
//
// The agent runs until it answers without requesting tools:
//
//	import (
//		"github.com/smallnest/collabgraph/message"
//		"github.com/smallnest/collabgraph/prebuilt"
//		"github.com/smallnest/collabgraph/tool"
//	)
//
//	tools := tool.MustRegistry(tool.NewWebSearchTool(searcher, 5))
//	agent, err := prebuilt.NewAgent("assistant", llm, tools, "Answer concisely.")
//	app, err := prebuilt.CreateToolCallingAgent(agent, prebuilt.NewToolNode(tools))
//
//	final, err := app.Invoke(ctx, "thread-1", prebuilt.NewAgentState(
//		message.Human("What's the weather in London?"),
//	))
//
// # Collaboration
//
// Several agents take turns and share one tool node. A turn that requests tools
// goes to the tool node, which hands the conversation back to the requesting
// agent. A turn without tools goes to the next agent. A turn starting with
// FinalAnswerMarker ends the run:
//
//	researcher, _ := prebuilt.NewAgent("Researcher", llm, searchTools,
//		"You should provide accurate data for the chart_generator to use.")
//	charter, _ := prebuilt.NewAgent("chart_generator", llm, chartTools,
//		"Any charts you display will be visible by the user.")
//
//	app, err := prebuilt.CreateCollaboration(
//		[]*prebuilt.Agent{researcher, charter},
//		prebuilt.NewToolNode(allTools),
//		graph.WithMaxSteps(20),
//	)
//
// Agents that never produce the marker hand the conversation back and forth
// until the graph's step limit stops the run with graph.ErrStepLimitExceeded.
//
// # Errors
//
// Model failures are returned as *ModelCallError and never retried here; wrap
// the agent's Invoke with graph.WithRetry to retry. The tool node's Dispatch
// fails on the first tool error, while its graph node (Invoke) reports unknown
// tools, invalid arguments and handler failures back to the agent as error
// messages. Use WithStrictErrors to make them fatal.
package prebuilt
