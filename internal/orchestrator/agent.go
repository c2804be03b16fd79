package orchestrator

import "strings"

// Agent is one specialized worker the orchestrator can dispatch to.
type Agent struct {
	Name   string
	System string
}

var (
	researchAgent = Agent{
		Name: "research",
		System: "You are a corporate research assistant. Gather facts from the " +
			"sources named in the task, cite every source you use, and answer " +
			"concisely. Never fetch from domains you were not given.",
	}
	analysisAgent = Agent{
		Name: "analysis",
		System: "You are a corporate data analyst. Work through the task " +
			"step by step, show the figures behind every conclusion, and flag " +
			"assumptions you had to make.",
	}
	planningAgent = Agent{
		Name: "planning",
		System: "You are a corporate planning assistant. Break the task into " +
			"ordered, actionable steps with owners and rough effort, and call " +
			"out dependencies between steps.",
	}
	generalAgent = Agent{
		Name: "general",
		System: "You are a corporate assistant. Answer the request directly " +
			"and concisely, and say so when you do not know.",
	}
)

// classifyIntent picks the agent for a request from keyword signals.
// Ambiguous requests go to the general agent.
func classifyIntent(input string) Agent {
	lower := strings.ToLower(input)

	contains := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}

	switch {
	case contains("research", "search", "find", "fetch", "look up", "browse", "http://", "https://"):
		return researchAgent
	case contains("plan", "schedule", "roadmap", "steps", "milestone"):
		return planningAgent
	case contains("analy", "report", "summar", "calculate", "compare", "trend", "metric"):
		return analysisAgent
	default:
		return generalAgent
	}
}
