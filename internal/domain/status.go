package domain

// Status returned by the panorama lookup service.
type ServiceStatus string

const (
	StatusOK             ServiceStatus = "OK"
	StatusZeroResults    ServiceStatus = "ZERO_RESULTS"
	StatusNotFound       ServiceStatus = "NOT_FOUND"
	StatusOverQueryLimit ServiceStatus = "OVER_QUERY_LIMIT"
	StatusRequestDenied  ServiceStatus = "REQUEST_DENIED"
	StatusInvalidRequest ServiceStatus = "INVALID_REQUEST"
	StatusUnknownError   ServiceStatus = "UNKNOWN_ERROR"
)

// ParseServiceStatus maps a raw status string to a ServiceStatus.
// Unrecognised values collapse to StatusUnknownError.
func ParseServiceStatus(s string) ServiceStatus {
	switch st := ServiceStatus(s); st {
	case StatusOK, StatusZeroResults, StatusNotFound, StatusOverQueryLimit,
		StatusRequestDenied, StatusInvalidRequest, StatusUnknownError:
		return st
	default:
		return StatusUnknownError
	}
}

func (s ServiceStatus) OK() bool { return s == StatusOK }
