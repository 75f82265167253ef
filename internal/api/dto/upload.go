package dto

// Body of POST /upload, as sent by screenshot clients.
type UploadRequest struct {
	ID   string `json:"id"`
	Pano string `json:"pano"`
	Date string `json:"date"`
	// data: URI of the image (PNG, JPEG, GIF or WebP).
	Img string `json:"img"`
}

type UploadResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
}
