package placement

// SceneKind distinguishes scenes that continue an established preference
// pattern from scenes that explore new directions.
type SceneKind string

const (
	KindContinuation SceneKind = "continuation"
	KindExploration  SceneKind = "exploration"
)

// NoProduct is the selection sentinel meaning no catalog entry fits a scene.
// A NONE selection is a valid stage result, not an error; the scene simply
// produces no final placement.
const NoProduct = "NONE"

// Scene is a generated scene description. ID is the correlation key for all
// downstream stages and is immutable once parsed.
type Scene struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Mood        string    `json:"mood"`
	Kind        SceneKind `json:"kind"`
}

// LikedScene is a historical preference signal supplied by the caller (or
// recalled from the catalog store). The list is bounded by the caller.
type LikedScene struct {
	Description string `json:"description"`
	Mood        string `json:"mood"`
	ProductName string `json:"product_name,omitempty"`
}

// Targeting captures advertiser targeting preferences for a product.
type Targeting struct {
	Demographics []string `json:"demographics,omitempty"`
	Interests    []string `json:"interests,omitempty"`
	Scenes       []string `json:"scenes,omitempty"`
	Semantic     string   `json:"semantic,omitempty"`
}

// Product is a read-only catalog entry supplied by the caller.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Brand       string    `json:"brand"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Targeting   Targeting `json:"targeting,omitempty"`
}

// GeneratedImage is the base lifestyle image rendered for one scene.
type GeneratedImage struct {
	SceneID  string `json:"scene_id"`
	Data     []byte `json:"data"`
	MimeType string `json:"mime_type"`
}

// ProductSelection is the product chosen for one generated image.
// ProductID may be NoProduct.
type ProductSelection struct {
	SceneID       string `json:"scene_id"`
	ProductID     string `json:"selected_product_id"`
	PlacementHint string `json:"placement_hint"`
	Rationale     string `json:"rationale"`
	MatchScore    int    `json:"match_score"`
}

// None reports whether the selection declined every catalog entry.
func (s ProductSelection) None() bool { return s.ProductID == NoProduct }

// ComposedImage is the scene image with the selected product edited in.
type ComposedImage struct {
	SceneID  string `json:"scene_id"`
	Data     []byte `json:"data"`
	MimeType string `json:"mime_type"`
}

// Mask is the segmentation overlay locating the placed product.
type Mask struct {
	SceneID  string `json:"scene_id"`
	Data     []byte `json:"data"`
	MimeType string `json:"mime_type"`
}

// Result is the final joined record for one scene. A Result exists only when
// every upstream record for its SceneID survived; incomplete rows are dropped
// during assembly.
type Result struct {
	SceneID       string    `json:"scene_id"`
	Description   string    `json:"scene_description"`
	Mood          string    `json:"mood"`
	Kind          SceneKind `json:"scene_kind"`
	SceneImage    []byte    `json:"scene_image"`
	ComposedImage []byte    `json:"composed_image"`
	Mask          []byte    `json:"mask"`
	MimeType      string    `json:"mime_type"`
	Product       Product   `json:"product"`
	PlacementHint string    `json:"placement_hint"`
	Rationale     string    `json:"rationale"`
}

// Usage aggregates token accounting reported by the generative capability.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates another usage report.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}
