package domain

import (
	"sort"
	"time"
)

// Data keys of a working context.
const (
	DataCompany       = "company"
	DataAssistant     = "assistant"
	DataServices      = "services"
	DataSchedule      = "schedule"
	DataScheduleSlots = "schedule_slots"
)

// CategoryGroup is a catalog category with its service records.
type CategoryGroup struct {
	CategoryName string   `json:"category_name"`
	Services     []Record `json:"services"`
}

// Data is the reference data attached to a working context.
// Nil fields are absent from the serialized form.
type Data struct {
	Company       Record          `json:"company,omitempty"`
	Assistant     Record          `json:"assistant,omitempty"`
	Services      []CategoryGroup `json:"services,omitempty"`
	Schedule      []Record        `json:"schedule,omitempty"`
	ScheduleSlots []Record        `json:"schedule_slots,omitempty"`
}

// Keys lists the populated data keys in sorted order.
func (d Data) Keys() []string {
	var keys []string
	if d.Company != nil {
		keys = append(keys, DataCompany)
	}
	if d.Assistant != nil {
		keys = append(keys, DataAssistant)
	}
	if d.Services != nil {
		keys = append(keys, DataServices)
	}
	if d.Schedule != nil {
		keys = append(keys, DataSchedule)
	}
	if d.ScheduleSlots != nil {
		keys = append(keys, DataScheduleSlots)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether key is populated.
func (d Data) Has(key string) bool {
	for _, k := range d.Keys() {
		if k == key {
			return true
		}
	}
	return false
}

// ProfanityAnalysis is the diagnostic profanity verdict carried in a context.
type ProfanityAnalysis struct {
	ContainsProfanity bool     `json:"contains_profanity"`
	Level             string   `json:"level,omitempty"`
	Words             []string `json:"words_found,omitempty"`
	Sanitized         string   `json:"sanitized_message"`
}

// Triage is the summarized catalog and schedule info attached to complaints.
type Triage struct {
	Services  []string `json:"service_info,omitempty"`
	Schedules []Record `json:"order_info,omitempty"`
}

// WorkingContext is the object passed toward the generative backend.
type WorkingContext struct {
	UserMessage      string             `json:"user_message"`
	SanitizedMessage string             `json:"sanitized_message,omitempty"`
	OriginalMessage  string             `json:"original_message,omitempty"`
	Intents          []Intent           `json:"intents"`
	MainIntent       Intent             `json:"main_intent"`
	Sentiment        Sentiment          `json:"sentiment"`
	Step             Step               `json:"step"`
	History          []HistoryEntry     `json:"history"`
	RequiresHuman    bool               `json:"requires_human,omitempty"`
	Data             Data               `json:"data"`
	Triage           *Triage            `json:"triage,omitempty"`
	Profanity        *ProfanityAnalysis `json:"-"`
}

// Clone returns a copy that shares no slices or maps with c at the top level.
func (c *WorkingContext) Clone() *WorkingContext {
	out := *c
	out.Intents = append([]Intent(nil), c.Intents...)
	out.History = append([]HistoryEntry(nil), c.History...)
	if c.Triage != nil {
		t := *c.Triage
		out.Triage = &t
	}
	if c.Profanity != nil {
		p := *c.Profanity
		out.Profanity = &p
	}
	return &out
}

// Reply is the structured output of the generative backend.
type Reply struct {
	UserResponse   string         `json:"user_response"`
	SystemResponse map[string]any `json:"system_response,omitempty"`
	TokenUsage     TokenUsage     `json:"token_usage"`
}

// Metadata describes how a response was produced.
type Metadata struct {
	Function string `json:"function"`
	Intent   Intent `json:"intent,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Response types.
const (
	ResponseAction      = "action"
	ResponseInteraction = "interaction"
	ResponseFallback    = "fallback"
	ResponseClosing     = "closing"
)

// NormalizedResponse is what the engine returns to the caller.
type NormalizedResponse struct {
	Type           string         `json:"type"`
	UserResponse   string         `json:"user_response"`
	SystemResponse map[string]any `json:"system_response"`
	Metadata       Metadata       `json:"metadata"`
	TokenUsage     TokenUsage     `json:"token_usage"`
	Timestamp      time.Time      `json:"timestamp"`
	Status         int            `json:"status"`
	ChatCode       string         `json:"chat_code,omitempty"`
}

// Function returns the declared action of the response, if any.
func (r *NormalizedResponse) Function() string {
	if r.SystemResponse == nil {
		return ""
	}
	fn, _ := r.SystemResponse["function"].(string)
	return fn
}
