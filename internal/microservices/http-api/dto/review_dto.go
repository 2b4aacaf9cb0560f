package dto

import (
	"time"

	"yamdb/internal/microservices/http-api/models"
)

// CreateReviewDTO for POST /titles/{title_id}/reviews; score range is checked by the service
type CreateReviewDTO struct {
	Text  string `json:"text" binding:"required,max=1000"`
	Score *int   `json:"score" binding:"required"`
}

type UpdateReviewDTO struct {
	Text  *string `json:"text" binding:"omitempty,max=1000"`
	Score *int    `json:"score"`
}

type ReviewResponse struct {
	ID      int64     `json:"id"`
	Title   string    `json:"title"`
	Author  string    `json:"author"`
	Text    string    `json:"text"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

// ReviewFromModel expects Author loaded; title is the parent title's name
func ReviewFromModel(r *models.Review, title string) ReviewResponse {
	resp := ReviewResponse{
		ID:      r.ID,
		Title:   title,
		Text:    r.Text,
		Score:   r.Score,
		PubDate: r.PubDate,
	}
	if r.Author != nil {
		resp.Author = r.Author.Username
	}
	return resp
}
