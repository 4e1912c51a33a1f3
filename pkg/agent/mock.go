package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/LENAX/crm-automation/pkg/core/executor"
)

// Specialist 专家Agent描述
type Specialist struct {
	Type      string `json:"agent_type"`
	Role      string `json:"role"`
	Expertise string `json:"expertise"`
}

// Specialists 内置的专家Agent，顺序即对外展示顺序
var Specialists = []Specialist{
	{Type: "sales", Role: "Sales Specialist", Expertise: "Lead qualification, pipeline management, deal analysis"},
	{Type: "operations", Role: "Operations Specialist", Expertise: "Process automation, workflow optimization, task management"},
	{Type: "quote", Role: "Quote Specialist", Expertise: "Pricing calculations, quote generation, proposal creation"},
	{Type: "scheduler", Role: "Scheduler Specialist", Expertise: "Meeting scheduling, calendar management, follow-ups"},
}

// SpecialistTypes 专家Agent类型列表
func SpecialistTypes() []string {
	types := make([]string, len(Specialists))
	for i, s := range Specialists {
		types[i] = s.Type
	}
	return types
}

// LookupSpecialist 按类型查找专家Agent
func LookupSpecialist(agentType string) (Specialist, bool) {
	for _, s := range Specialists {
		if s.Type == agentType {
			return s, true
		}
	}
	return Specialist{}, false
}

type mockReply struct {
	keywords []string
	text     string
	action   string
}

var mockReplies = []mockReply{
	{
		keywords: []string{"quote", "pricing", "price"},
		text:     "I'd be happy to help you with pricing and quotes. Please provide details about your requirements, and I'll generate a comprehensive quote for you.",
		action:   "quote_assistance_offered",
	},
	{
		keywords: []string{"lead", "qualify", "prospect"},
		text:     "I can help you qualify leads using BANT criteria (Budget, Authority, Need, Timeline). Please share the lead details, and I'll provide a qualification assessment.",
		action:   "lead_qualification_offered",
	},
	{
		keywords: []string{"schedule", "meeting", "appointment"},
		text:     "I can help you schedule meetings and manage your calendar. Please let me know the meeting details, participants, and preferred time slots.",
		action:   "scheduling_assistance_offered",
	},
	{
		keywords: []string{"automate", "workflow", "process"},
		text:     "I can help you automate your business processes and create efficient workflows. What specific processes would you like to optimize?",
		action:   "automation_consultation_offered",
	},
	{
		keywords: []string{"hello", "hi", "hey", "start"},
		text:     "Hello! I'm AVA, your AI CRM assistant. I can help you with sales management, lead qualification, quote generation, scheduling, and process automation. How can I assist you today?",
		action:   "greeting_provided",
	},
}

var fallbackReply = mockReply{
	text:   "I'm here to help you with CRM operations, sales processes, quote generation, and scheduling. Please let me know what you'd like assistance with!",
	action: "general_assistance_offered",
}

// MockExecutor 未接入模型时使用的本地Agent，按关键字返回固定回复
type MockExecutor struct {
	userID string
}

// NewMockExecutor 创建MockExecutor
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{userID: executor.WorkflowSystemUser}
}

// Process 实现executor.StepExecutor
func (m *MockExecutor) Process(ctx context.Context, task string, userContext map[string]any) *executor.AgentResponse {
	if err := ctx.Err(); err != nil {
		return executor.Failure(CoreAgentType, err.Error())
	}

	reply := matchReply(task)
	text := reply.text
	if platform, _ := userContext["platform"].(string); platform != "" {
		text += fmt.Sprintf("\n\n(Note: Responding via %s - Please configure the agent backend for full functionality)", titleCase(platform))
	}

	return &executor.AgentResponse{
		Success:      true,
		Text:         text,
		AgentType:    CoreAgentType,
		ActionsTaken: []string{reply.action},
		Metadata: map[string]any{
			"user_id": m.userID,
			"context": echoContext(userContext),
			"mode":    "mock",
		},
	}
}

// Delegate 实现executor.StepExecutor
func (m *MockExecutor) Delegate(ctx context.Context, specialist, task string, taskContext map[string]any) *executor.AgentResponse {
	spec, ok := LookupSpecialist(specialist)
	if !ok {
		resp := executor.Failure(specialist, unknownAgentMessage(specialist))
		resp.Metadata["error"] = "Invalid agent type: " + specialist
		return resp
	}
	if err := ctx.Err(); err != nil {
		return executor.Failure(specialist, err.Error())
	}

	return &executor.AgentResponse{
		Success: true,
		Text: fmt.Sprintf("As a %s, I would handle this task: %s. I'll use my expertise in %s to provide the best solution.",
			spec.Role, task, spec.Expertise),
		AgentType:    specialist,
		ActionsTaken: []string{specialist + "_task_processed"},
		Metadata: map[string]any{
			"context":    echoContext(taskContext),
			"task":       task,
			"specialist": spec.Role,
		},
	}
}

// echoContext 回显调用方提供的上下文，去掉引擎注入的前序步骤结果
func echoContext(userContext map[string]any) map[string]any {
	out := make(map[string]any, len(userContext))
	for k, v := range userContext {
		if k == executor.ContextPreviousResults {
			continue
		}
		out[k] = v
	}
	return out
}

func matchReply(message string) mockReply {
	words := strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	lower := strings.ToLower(message)
	for _, reply := range mockReplies {
		for _, kw := range reply.keywords {
			// 短关键字按单词匹配，避免 "this" 命中 "hi"
			if len(kw) <= 3 {
				for _, w := range words {
					if w == kw {
						return reply
					}
				}
				continue
			}
			if strings.Contains(lower, kw) {
				return reply
			}
		}
	}
	return fallbackReply
}

func unknownAgentMessage(agentType string) string {
	return fmt.Sprintf("Unknown agent type: %s. Available agents: %v", agentType, SpecialistTypes())
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

var _ executor.StepExecutor = (*MockExecutor)(nil)
