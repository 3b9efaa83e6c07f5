package llm

import "context"

// ChatCompleter 文本生成能力（文章、标题、简历点评共用）。
type ChatCompleter interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// ImageGenerator 文生图能力，返回图片二进制数据。
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}
