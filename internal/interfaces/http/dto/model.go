package dto

// ModelInfo 模型目录条目
type ModelInfo struct {
	ModelID          string  `json:"model_id"`
	Name             string  `json:"name"`
	Provider         string  `json:"provider"`
	InputPricePer1K  float64 `json:"input_price_per_1k"`
	OutputPricePer1K float64 `json:"output_price_per_1k"`
}
