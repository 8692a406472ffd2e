package models

import "encoding/json"

type StepType string

const (
	StepClarify      StepType = "clarify"
	StepOutline      StepType = "outline"
	StepExplain      StepType = "explain"
	StepStudyPlan    StepType = "study_plan"
	StepTroubleshoot StepType = "troubleshoot"
	StepResearch     StepType = "research"
	StepFinalize     StepType = "finalize"
)

var AllStepTypes = []StepType{
	StepClarify, StepOutline, StepExplain, StepStudyPlan, StepTroubleshoot, StepResearch, StepFinalize,
}

type ToolType string

const (
	ToolWebSearch   ToolType = "web_search"
	ToolDocsSearch  ToolType = "docs_search"
	ToolVideoSearch ToolType = "video_search"
)

var AllToolTypes = []ToolType{ToolWebSearch, ToolDocsSearch, ToolVideoSearch}

type ToolCall struct {
	Tool  ToolType `json:"tool"`
	Query string   `json:"query"`
	TopK  int      `json:"top_k"`
}

const clarifyingQuestionKey = "clarifying_question"

// StepOutputs is the sparse output bag of a plan step. The clarifying
// question is lifted into a typed field; any other keys are kept in Extra.
type StepOutputs struct {
	ClarifyingQuestion string
	Extra              map[string]interface{}
}

func (o *StepOutputs) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*o = StepOutputs{}
	for k, v := range raw {
		if k == clarifyingQuestionKey {
			if s, ok := v.(string); ok {
				o.ClarifyingQuestion = s
				continue
			}
		}
		if o.Extra == nil {
			o.Extra = make(map[string]interface{})
		}
		o.Extra[k] = v
	}
	return nil
}

func (o StepOutputs) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(o.Extra)+1)
	for k, v := range o.Extra {
		out[k] = v
	}
	if o.ClarifyingQuestion != "" {
		out[clarifyingQuestionKey] = o.ClarifyingQuestion
	}
	return json.Marshal(out)
}

type PlanStep struct {
	StepID      string                 `json:"step_id"`
	Type        StepType               `json:"type"`
	Description string                 `json:"description"`
	Inputs      map[string]interface{} `json:"inputs"`
	Outputs     StepOutputs            `json:"outputs"`
	ToolCalls   []ToolCall             `json:"tool_calls"`
}

type Plan struct {
	Goal   string     `json:"goal"`
	Intent string     `json:"intent"`
	Steps  []PlanStep `json:"steps"`
	Notes  string     `json:"notes,omitempty"`
}

// ResearchSteps returns the research steps in plan order.
func (p *Plan) ResearchSteps() []PlanStep {
	var out []PlanStep
	for _, s := range p.Steps {
		if s.Type == StepResearch {
			out = append(out, s)
		}
	}
	return out
}
