package riskhub

import "errors"

var (
	ErrUnknownEntity = errors.New("unknown entity type")

	ErrConfigurationMissing = errors.New("remote api credential not configured")
	ErrRemoteUnavailable    = errors.New("remote api unavailable")
	ErrRemoteStatus         = errors.New("remote api returned error status")
	ErrRemotePayload        = errors.New("remote api returned malformed payload")
	ErrMalformedValue       = errors.New("malformed remote value")
	ErrMissingExternalID    = errors.New("remote item has no external id")
	ErrStoreWrite           = errors.New("local store write failed")
	ErrLinkFailed           = errors.New("relationship linking failed")
	ErrLeaseLost            = errors.New("sync lease lost to another holder")
)

// Error kinds recorded in sync run stats.
const (
	KindConfiguration  = "configuration"
	KindNetwork        = "network"
	KindMappingOrStore = "mapping_or_store"
	KindLink           = "link"
	KindUnknown        = "unknown"
)

// ErrorKind classifies err into the failure taxonomy used by the audit trail.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfigurationMissing):
		return KindConfiguration
	case errors.Is(err, ErrRemoteUnavailable), errors.Is(err, ErrRemoteStatus), errors.Is(err, ErrRemotePayload):
		return KindNetwork
	case errors.Is(err, ErrMalformedValue), errors.Is(err, ErrMissingExternalID), errors.Is(err, ErrStoreWrite):
		return KindMappingOrStore
	case errors.Is(err, ErrLinkFailed):
		return KindLink
	default:
		return KindUnknown
	}
}
