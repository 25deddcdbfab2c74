// Package recommend provides HTTP handlers for the recommendation read
// path: product similarity lookups and per-user recommendation lists.
package recommend

import (
	recUC "shop-reco/internal/usecase/recommend"
)

// ProductDTO represents one recommended product in a JSON response.
type ProductDTO struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	CategoryID   int64   `json:"category_id"`
	CategoryName string  `json:"category_name,omitempty"`
	ImageURL     string  `json:"image_url,omitempty"`
	Score        float64 `json:"score"`
}

// SimilarDTO is the response body for the similar-products endpoint.
type SimilarDTO struct {
	ProductID   int64        `json:"product_id"`
	ProductName string       `json:"product_name"`
	Items       []ProductDTO `json:"items"`
}

// PersonalizedDTO is the response body for the per-user endpoint.
// RecommendationType tells the client whether the list is personalized
// or produced by one of the fallbacks.
type PersonalizedDTO struct {
	UserID             int64        `json:"user_id"`
	RecommendationType string       `json:"recommendation_type"`
	BasedOnProductID   int64        `json:"based_on_product_id,omitempty"`
	BasedOnProductName string       `json:"based_on_product_name,omitempty"`
	Items              []ProductDTO `json:"items"`
}

func toProductDTOs(scored []recUC.ScoredProduct) []ProductDTO {
	out := make([]ProductDTO, 0, len(scored))
	for _, sp := range scored {
		if sp.Product == nil {
			continue
		}
		out = append(out, ProductDTO{
			ID:           sp.Product.ID,
			Name:         sp.Product.Name,
			Price:        sp.Product.Price,
			CategoryID:   sp.Product.CategoryID,
			CategoryName: sp.Product.CategoryName,
			ImageURL:     sp.Product.ImageURL,
			Score:        sp.Score,
		})
	}
	return out
}
