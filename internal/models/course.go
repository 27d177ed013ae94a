package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Course represents a published course listing. Title, description, price and
// banner are immutable after creation; only individual video items change,
// through the paid edit workflow.
type Course struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	ProviderID  string          `json:"provider_id" db:"provider_id"`
	Title       string          `json:"title" db:"title"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	BannerURL   string          `json:"banner_url" db:"banner_url"`
	Videos      []VideoItem     `json:"videos" db:"videos"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// VideoMeta holds descriptive metadata fetched for a video reference.
type VideoMeta struct {
	Title     string `json:"title"`
	Duration  string `json:"duration"`
	ViewCount string `json:"viewCount"`
	LikeCount string `json:"likeCount"`
	Thumbnail string `json:"thumbnail"`
}

// VideoItem is one entry of a course's video list. It is a two-variant union:
// a raw reference carries only the URL, an enriched reference additionally
// carries fetched metadata. A single list may mix both variants; readers must
// accept either and never coerce one into the other.
//
// On the wire a raw reference is a bare JSON string (the legacy shape) and an
// enriched reference is an object, so stored documents of either era decode.
type VideoItem struct {
	URL  string
	Meta *VideoMeta // nil for a raw reference
}

// RawItem builds the unresolved variant.
func RawItem(url string) VideoItem {
	return VideoItem{URL: url}
}

// EnrichedItem builds the resolved variant.
func EnrichedItem(url string, meta VideoMeta) VideoItem {
	m := meta
	return VideoItem{URL: url, Meta: &m}
}

// IsRaw reports whether the item is the unresolved variant.
func (v VideoItem) IsRaw() bool {
	return v.Meta == nil
}

type enrichedItemJSON struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Duration  string `json:"duration"`
	ViewCount string `json:"viewCount"`
	LikeCount string `json:"likeCount"`
	Thumbnail string `json:"thumbnail"`
}

// MarshalJSON emits the variant-appropriate shape.
func (v VideoItem) MarshalJSON() ([]byte, error) {
	if v.Meta == nil {
		return json.Marshal(v.URL)
	}
	return json.Marshal(enrichedItemJSON{
		URL:       v.URL,
		Title:     v.Meta.Title,
		Duration:  v.Meta.Duration,
		ViewCount: v.Meta.ViewCount,
		LikeCount: v.Meta.LikeCount,
		Thumbnail: v.Meta.Thumbnail,
	})
}

// UnmarshalJSON accepts both the bare-string and the object shape.
func (v *VideoItem) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var url string
		if err := json.Unmarshal(data, &url); err != nil {
			return err
		}
		*v = VideoItem{URL: url}
		return nil
	}

	var e enrichedItemJSON
	if err := json.Unmarshal(data, &e); err != nil {
		return fmt.Errorf("video item is neither a URL string nor an object: %w", err)
	}
	*v = VideoItem{
		URL: e.URL,
		Meta: &VideoMeta{
			Title:     e.Title,
			Duration:  e.Duration,
			ViewCount: e.ViewCount,
			LikeCount: e.LikeCount,
			Thumbnail: e.Thumbnail,
		},
	}
	return nil
}
