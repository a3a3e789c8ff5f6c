// Retrospect - Photo Memory Analytics and Story Generation
// Copyright 2026 Retrospect Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/retrospect-labs/retrospect

package api

import (
	"fmt"
	"time"

	"github.com/retrospect-labs/retrospect/internal/pattern"
)

// birthDateLayout is the wire format for user birth dates.
const birthDateLayout = "2006-01-02"

// UpdateUserRequest is the body of PUT /users/{id}.
type UpdateUserRequest struct {
	BirthDate string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
}

// TagInput is one classification or emotion tag on an ingested photo.
type TagInput struct {
	Name       string  `json:"name" validate:"required,min=1,max=64"`
	Confidence float64 `json:"confidence" validate:"gte=0,lte=1"`
}

// PhotoInput is one photo in an ingestion batch. Latitude and
// longitude must be supplied together or not at all.
type PhotoInput struct {
	ID           string     `json:"id" validate:"required,min=1,max=128"`
	CapturedAt   *time.Time `json:"captured_at"`
	Latitude     *float64   `json:"latitude" validate:"omitempty,latitude"`
	Longitude    *float64   `json:"longitude" validate:"omitempty,longitude"`
	CategoryTags []TagInput `json:"category_tags" validate:"omitempty,max=32,dive"`
	EmotionTags  []TagInput `json:"emotion_tags" validate:"omitempty,max=32,dive"`
}

// IngestPhotosRequest is the body of POST /users/{id}/photos.
type IngestPhotosRequest struct {
	Photos []PhotoInput `json:"photos" validate:"required,min=1,max=5000,dive"`
}

// VisualGroupInput is an externally computed visual-similarity group
// supplied with a story trigger.
type VisualGroupInput struct {
	Label      string   `json:"label" validate:"required,min=1,max=128"`
	PhotoIDs   []string `json:"photo_ids" validate:"required,min=1,dive,min=1,max=128"`
	Confidence float64  `json:"confidence" validate:"gte=0,lte=1"`
}

// TriggerStoryRequest is the optional body of POST /users/{id}/story.
type TriggerStoryRequest struct {
	VisualGroups []VisualGroupInput `json:"visual_groups" validate:"omitempty,max=1000,dive"`
}

// toPhotos converts an ingestion batch to pipeline records. Fails when
// a photo carries only one half of a coordinate pair.
func (req *IngestPhotosRequest) toPhotos() ([]pattern.Photo, error) {
	photos := make([]pattern.Photo, 0, len(req.Photos))
	for i := range req.Photos {
		in := &req.Photos[i]
		if (in.Latitude == nil) != (in.Longitude == nil) {
			return nil, fmt.Errorf("photo %q: latitude and longitude must be supplied together", in.ID)
		}
		p := pattern.Photo{
			ID:           in.ID,
			CapturedAt:   in.CapturedAt,
			CategoryTags: toTags(in.CategoryTags),
			EmotionTags:  toTags(in.EmotionTags),
		}
		if in.Latitude != nil {
			p.Location = &pattern.Coordinate{Latitude: *in.Latitude, Longitude: *in.Longitude}
		}
		photos = append(photos, p)
	}
	return photos, nil
}

func toTags(in []TagInput) []pattern.Tag {
	if len(in) == 0 {
		return nil
	}
	tags := make([]pattern.Tag, len(in))
	for i, t := range in {
		tags[i] = pattern.Tag{Name: t.Name, Confidence: t.Confidence}
	}
	return tags
}

func (req *TriggerStoryRequest) toVisualGroups() []pattern.VisualGroup {
	if len(req.VisualGroups) == 0 {
		return nil
	}
	groups := make([]pattern.VisualGroup, len(req.VisualGroups))
	for i, g := range req.VisualGroups {
		groups[i] = pattern.VisualGroup{
			Label:      g.Label,
			PhotoIDs:   g.PhotoIDs,
			Confidence: g.Confidence,
		}
	}
	return groups
}
