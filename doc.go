// Collabgraph - multi-agent collaboration graphs in Go
//
// Collabgraph runs language-model agents as nodes of a typed state graph. Agents
// share one conversation, hand it to each other and to a tool node, and the
// graph persists every step per conversation thread so runs can be resumed.
//
// # Quick Start
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//
//		"github.com/smallnest/collabgraph/message"
//		"github.com/smallnest/collabgraph/prebuilt"
//		"github.com/smallnest/collabgraph/tool"
//		"github.com/tmc/langchaingo/llms/openai"
//	)
//
//	func main() {
//		llm, _ := openai.New()
//		search, _ := tool.NewTavilySearch("")
//		tools := tool.MustRegistry(tool.NewWebSearchTool(search, 5))
//
//		agent, _ := prebuilt.NewAgent("assistant", llm, tools, "Answer concisely.")
//		app, _ := prebuilt.CreateToolCallingAgent(agent, prebuilt.NewToolNode(tools))
//
//		final, err := app.Invoke(context.Background(), "thread-1",
//			prebuilt.NewAgentState(message.Human("Who won the 2022 World Cup?")))
//		if err != nil {
//			panic(err)
//		}
//		last, _ := final.LastMessage()
//		fmt.Println(last.Content)
//	}
//
// # Core Concepts
//
// A graph.StateGraph[S] declares nodes, fixed edges and conditional edges. Nodes
// return a delta of S which the graph's schema merges into the current state,
// field by field (graph.AppendField, graph.OverwriteField). Routers return a
// graph.Route built from the NodeRef values handed out by AddNode, so a route to
// an undeclared node cannot be written.
//
// A compiled graph.StateRunnable[S] runs one step at a time per thread, stops at
// graph.END or at the step limit, and saves a store.Checkpoint after every
// step. Invoking a thread again resumes it.
//
// # Package Structure
//
//	graph/      state graphs, runnables, streaming, retry, Mermaid/DOT export
//	message/    conversation messages and langchaingo conversion
//	tool/       tool registry with JSON schema validation; search, web page and chart tools
//	prebuilt/   Agent, ToolNode, routers, tool-calling and collaboration graphs
//	store/      checkpoint stores: memory, file, redis, postgres, sqlite
//	config/     TOML configuration and component construction
//	report/     HTML transcripts
//	log/        leveled logging with a kataras/golog adapter
//	examples/   runnable demos
package collabgraph // import "github.com/smallnest/collabgraph"
