package models

// ImageUpload is one client-supplied image, base64-encoded, waiting to be
// uploaded to the image host before the owning entry is saved.
type ImageUpload struct {
	Name string `json:"name"`
	Data string `json:"data"`
}
