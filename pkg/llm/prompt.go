package llm

import (
	"fmt"
	"strings"

	"rag-chat-go/internal/model"
)

const ragSystemPrompt = "You are a helpful AI assistant that answers questions based on the provided context. " +
	"Use the context documents to answer the user's question. If the answer cannot be found in the context, " +
	"say so clearly. Always cite the source documents when possible."

// BuildRAGPrompt 构建固定的两段式 RAG 提示：一条 system 指令，
// 加一条按命中顺序内嵌每个上下文分块的来源文件名与正文、末尾附原始问题的 user 消息。
// 结果是确定性的；检索问答管道依赖这一两消息结构在两者之间拼接会话历史。
func BuildRAGPrompt(query string, contextChunks []model.RetrievalResult) []Message {
	var contextText strings.Builder
	for i, doc := range contextChunks {
		if i > 0 {
			contextText.WriteString("\n\n")
		}
		fmt.Fprintf(&contextText, "Document: %s\nContent: %s", doc.Metadata.Filename, doc.Content)
	}

	userPrompt := fmt.Sprintf(
		"Context Documents:\n%s\n\nUser Question: %s\n\nPlease provide a helpful answer based on the context above.",
		contextText.String(), query,
	)

	return []Message{
		{Role: model.RoleSystem, Content: ragSystemPrompt},
		{Role: model.RoleUser, Content: userPrompt},
	}
}
