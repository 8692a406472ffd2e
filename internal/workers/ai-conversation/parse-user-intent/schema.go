package parseuserintent

import "research-agent/internal/common/validation"

var intentSchema = validation.MustCompile("intent_result", `{
  "type": "object",
  "required": ["intent", "confidence"],
  "properties": {
    "intent": {
      "type": "string",
      "enum": ["casual_curiosity", "guided_study", "professional_research", "urgent_troubleshooting"]
    },
    "confidence": {"type": "number"},
    "rationale": {"type": ["string", "null"]},
    "suggested_output": {"type": ["string", "null"]},
    "should_ask_clarifying_question": {"type": ["boolean", "null"]},
    "clarifying_question": {"type": ["string", "null"]}
  }
}`)
