package service

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-portal-api/internal/models"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
)

// identifierSuffixLen is the per-student serial appended to the cohort segment.
const identifierSuffixLen = 3

// ResolveSegment derives the cohort segment from a student identifier, e.g. "23DCE109" -> "23DCE".
// Lengths count characters, matching the recipient query in the user repository.
func ResolveSegment(identifier string) (string, error) {
	chars := []rune(identifier)
	if len(chars) <= identifierSuffixLen {
		return "", appErrors.Clone(appErrors.ErrInvalidIdentifier, "identifier must be longer than 3 characters")
	}
	return string(chars[:len(chars)-identifierSuffixLen]), nil
}

// Viewer is the identity a request acts as.
type Viewer struct {
	UserID      string
	Identifier  string
	Segment     string
	IsAdmin     bool
	DisplayName string
	Email       string
}

// ViewerFromClaims builds a Viewer from verified token claims. A non-conforming identifier
// leaves Segment empty so the viewer only sees content addressed to everyone.
func ViewerFromClaims(claims *models.JWTClaims, logger *zap.Logger) Viewer {
	if claims == nil {
		return Viewer{}
	}
	viewer := Viewer{
		UserID:      claims.UserID,
		Identifier:  claims.Identifier,
		IsAdmin:     claims.IsAdmin,
		DisplayName: claims.FullName,
		Email:       claims.Email,
	}
	segment, err := ResolveSegment(claims.Identifier)
	if err != nil {
		if logger != nil && !claims.IsAdmin {
			logger.Warn("identifier has no audience segment",
				zap.String("user_id", claims.UserID),
				zap.String("identifier", claims.Identifier),
			)
		}
		return viewer
	}
	viewer.Segment = segment
	return viewer
}

// IsVisible reports whether audience addresses viewer: everyone, or the viewer's own segment.
func IsVisible(audience string, viewer Viewer) bool {
	if audience == models.AudienceAll {
		return true
	}
	return viewer.Segment != "" && audience == viewer.Segment
}

// NewValidator returns a validator that reports fields by their JSON names and knows the "audience" tag.
func NewValidator(segments []string) (*validator.Validate, error) {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	if err := RegisterAudienceValidation(validate, segments); err != nil {
		return nil, err
	}
	return validate, nil
}

// RegisterAudienceValidation installs the "audience" tag accepting "All" or one of segments.
func RegisterAudienceValidation(validate *validator.Validate, segments []string) error {
	allowed := make(map[string]struct{}, len(segments))
	for _, segment := range segments {
		allowed[segment] = struct{}{}
	}
	return validate.RegisterValidation("audience", func(fl validator.FieldLevel) bool {
		value := strings.TrimSpace(fl.Field().String())
		if strings.EqualFold(value, models.AudienceAll) {
			return true
		}
		_, ok := allowed[value]
		return ok
	})
}
