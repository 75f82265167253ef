package storage

import (
	"fmt"
	"path"
	"streetview-pano-service/internal/domain"
)

// objectKey returns "{id}/{id}_{n}_{date}_{pano}.jpg", where n is the number
// of shots already stored for the case.
func objectKey(shot domain.Screenshot, n int) string {
	name := fmt.Sprintf("%s_%d_%s_%s.jpg", shot.CaseID, n, shot.Date, shot.PanoID)
	return path.Join(shot.CaseID, name)
}
