package publish

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pragyanetra/console/internal/upload"
)

const (
	minVideoRefs = 1
	maxVideoRefs = 50
)

var urlPattern = regexp.MustCompile(`^(https?://)?([\da-z.-]+)\.([a-z.]{2,6})([/\w .-]*)*/?$`)

// Request carries everything needed to publish a course. Validation runs
// before any payment so a malformed request can never cost anything.
type Request struct {
	ProviderID  string
	Title       string
	Description string
	Price       decimal.Decimal
	Banner      upload.Asset
	VideoRefs   []string
}

func validateRequest(req *Request) error {
	if strings.TrimSpace(req.ProviderID) == "" {
		return &ValidationError{Reason: "provider id is required"}
	}
	if strings.TrimSpace(req.Title) == "" {
		return &ValidationError{Reason: "title is required"}
	}
	if strings.TrimSpace(req.Description) == "" {
		return &ValidationError{Reason: "description is required"}
	}
	if !req.Price.IsPositive() {
		return &ValidationError{Reason: "price must be greater than zero"}
	}
	if len(req.Banner.Data) == 0 {
		return &ValidationError{Reason: "banner image is required"}
	}
	if err := req.Banner.Validate(); err != nil {
		return &ValidationError{Reason: err.Error()}
	}
	if len(req.VideoRefs) < minVideoRefs {
		return &ValidationError{Reason: "at least one video reference is required"}
	}
	if len(req.VideoRefs) > maxVideoRefs {
		return &ValidationError{Reason: fmt.Sprintf("at most %d video references are allowed", maxVideoRefs)}
	}
	for i, ref := range req.VideoRefs {
		if !validRef(ref) {
			return &ValidationError{Reason: fmt.Sprintf("video reference %d is not a valid url", i+1)}
		}
	}
	return nil
}

func validRef(ref string) bool {
	ref = strings.TrimSpace(ref)
	return ref != "" && urlPattern.MatchString(strings.ToLower(ref))
}
