// Package agentssdk runs ai-agents-sdk agents inside diag scopes.
//
// Every run gets a run ID, a context entry naming the agent, and optionally a
// registered Callback, so checks failing inside tools render what the agent
// was doing. A fatal escalation inside a run is turned into the error
// returned by Run instead of crashing the process; other panics propagate.
package agentssdk
