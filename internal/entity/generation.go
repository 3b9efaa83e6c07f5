package entity

// ArticleRequest is the payload for article generation.
type ArticleRequest struct {
	Prompt string `json:"prompt"`
	Length int    `json:"length"`
}

// BlogTitleRequest is the payload for blog-title generation.
type BlogTitleRequest struct {
	Prompt string `json:"prompt"`
}

// ImageRequest is the payload for text-to-image generation.
type ImageRequest struct {
	Prompt  string `json:"prompt"`
	Publish bool   `json:"publish"`
}

// ToggleLikeRequest toggles the caller in a creation's likes array.
type ToggleLikeRequest struct {
	ID uint `json:"id"`
}
