// Package llm wraps model clients with the cross-cutting behaviour every
// pipeline call goes through: phase tagging, rate and concurrency limits,
// retries, logging, metrics and prompt hooks.
package llm

import llmclient "designagent/internal/llm/client"

// Client is the model invocation port used by the pipeline.
type Client = llmclient.LLMClient

// Phase names used to tag calls.
const (
	PhaseStrategist = "design_strategist"
	PhaseRepair     = "json_repair"
	PhaseOps        = "agent_ops"
	PhaseEngineer   = "ui_engineer"
)
