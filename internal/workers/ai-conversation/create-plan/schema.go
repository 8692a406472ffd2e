package createplan

import "research-agent/internal/common/validation"

var planSchema = validation.MustCompile("plan", `{
  "type": "object",
  "required": ["goal", "steps"],
  "properties": {
    "goal": {"type": "string"},
    "intent": {"type": ["string", "null"]},
    "notes": {"type": ["string", "null"]},
    "steps": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["type"],
        "properties": {
          "step_id": {"type": ["string", "null"]},
          "type": {
            "type": "string",
            "enum": ["clarify", "outline", "explain", "study_plan", "troubleshoot", "research", "finalize"]
          },
          "description": {"type": ["string", "null"]},
          "inputs": {"type": ["object", "null"]},
          "outputs": {"type": ["object", "null"]},
          "tool_calls": {
            "type": ["array", "null"],
            "items": {
              "type": "object",
              "required": ["tool", "query"],
              "properties": {
                "tool": {"type": "string", "enum": ["web_search", "docs_search", "video_search"]},
                "query": {"type": "string"},
                "top_k": {"type": "integer", "minimum": 1, "maximum": 25}
              }
            }
          }
        }
      }
    }
  }
}`)
