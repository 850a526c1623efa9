package shared

import "strings"

// MediaRef points at an object held by the blob store
type MediaRef struct {
	URL       string `json:"url"`
	PublicID  string `json:"public_id"`
	MediaType string `json:"media_type"`
}

// IsImage reports whether the media is an image
func (m MediaRef) IsImage() bool {
	return strings.HasPrefix(m.MediaType, "image/")
}

// IsVideo reports whether the media is a video
func (m MediaRef) IsVideo() bool {
	return strings.HasPrefix(m.MediaType, "video/")
}
