package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrContentUnavailable indicates that no usable video data was found.
	ErrContentUnavailable = errors.New("content unavailable")
	// ErrUnsupportedFeature indicates a stream variant this library does not handle.
	ErrUnsupportedFeature = errors.New("unsupported feature")
	// ErrPatternMiss indicates that an extraction pattern did not match the page.
	ErrPatternMiss = errors.New("extraction pattern did not match")
	// ErrDRMProtected indicates DRM-protected content.
	ErrDRMProtected = fmt.Errorf("%w: video is DRM protected", ErrUnsupportedFeature)
	// ErrRentalOnly indicates a rental video without a watchable preview.
	ErrRentalOnly = fmt.Errorf("%w: rental videos are not supported", ErrUnsupportedFeature)
	// ErrGeoBlocked indicates the video is not available in the current region.
	ErrGeoBlocked = errors.New("geo blocked")
	// ErrPrivate indicates that the video is private.
	ErrPrivate = errors.New("video is private")
	// ErrAgeRestricted indicates that the video has an age restriction.
	ErrAgeRestricted = errors.New("age restricted")
)

// Unavailable wraps ErrContentUnavailable with the site's own reason text
// when one could be extracted.
func Unavailable(reason string) error {
	if reason == "" {
		return ErrContentUnavailable
	}
	return fmt.Errorf("%w: %s", ErrContentUnavailable, reason)
}

// Unsupported wraps ErrUnsupportedFeature with a description of the variant.
func Unsupported(what string) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedFeature, what)
}

// PatternMiss wraps ErrPatternMiss naming what was being searched for.
func PatternMiss(what string) error {
	return fmt.Errorf("%w: %s", ErrPatternMiss, what)
}
