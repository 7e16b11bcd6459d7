package rag

import (
	"fmt"

	"github.com/vcrag/copilot/internal/ai"
)

// HistoryWindow is the number of prior turns sent with every completion.
const HistoryWindow = 10

const systemPrompt = `You are an AI assistant for venture capital professionals. Your role is to:

1. Provide accurate, data-driven insights for due diligence and portfolio analysis
2. Reference specific sources when citing information
3. Understand VC-specific terminology and frameworks
4. Be concise but thorough in your analysis
5. Highlight key metrics, risks, and opportunities
6. Maintain confidentiality and professionalism

Always base your responses on the provided context. If you don't have enough information to answer confidently, say so.`

const userPromptTemplate = `Context:
%s

User Query: %s

Please provide a detailed, accurate response based on the context provided. If you reference specific information, cite the source.`

func buildMessages(query string, contextText string, history []ai.Message) []ai.Message {
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}
	messages := make([]ai.Message, 0, len(history)+2)
	messages = append(messages, ai.Message{Role: ai.RoleSystem, Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, ai.Message{Role: ai.RoleUser, Content: fmt.Sprintf(userPromptTemplate, contextText, query)})
	return messages
}
