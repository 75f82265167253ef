package domain

// Represents a point of interest to be photographed.
// A Case has a unique identifier and the coordinate the panorama view
// should face.
type Case struct {
	CaseID   string
	Location Coordinate
}

// Represents a single captured view of a case, as uploaded by a client.
// Image holds JPEG-encoded bytes.
type Screenshot struct {
	CaseID string
	PanoID string
	Date   string
	Image  []byte
}
