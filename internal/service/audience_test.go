package service

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/campus-portal-api/internal/dto"
	"github.com/noah-isme/campus-portal-api/internal/models"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
)

func TestResolveSegmentStripsSerial(t *testing.T) {
	cases := map[string]string{
		"23DCE109":  "23DCE",
		"24DIT012":  "24DIT",
		"22DCSE001": "22DCSE",
		"A1234":     "A1",
	}
	for identifier, want := range cases {
		got, err := ResolveSegment(identifier)
		require.NoError(t, err, identifier)
		assert.Equal(t, want, got)
		assert.Equal(t, identifier[:len(identifier)-3], got)
	}
}

func TestResolveSegmentCountsCharactersNotBytes(t *testing.T) {
	got, err := ResolveSegment("23DCÉ109")
	require.NoError(t, err)
	assert.Equal(t, "23DCÉ", got)

	got, err = ResolveSegment("24DIT0é9")
	require.NoError(t, err)
	assert.Equal(t, "24DIT", got)
}

func TestResolveSegmentRejectsShortIdentifiers(t *testing.T) {
	for _, identifier := range []string{"", "1", "abc", "éüß"} {
		_, err := ResolveSegment(identifier)
		require.Error(t, err)
		assert.True(t, errors.Is(err, appErrors.ErrInvalidIdentifier))
	}
}

func TestIsVisibleAllAudienceForEveryViewer(t *testing.T) {
	viewers := []Viewer{
		{Segment: "23DCE"},
		{Segment: "24DIT"},
		{},
		{IsAdmin: true},
	}
	for _, v := range viewers {
		assert.True(t, IsVisible(models.AudienceAll, v))
	}
}

func TestIsVisibleSegmentMatchesExactly(t *testing.T) {
	assert.True(t, IsVisible("23DCE", Viewer{Segment: "23DCE"}))
	assert.False(t, IsVisible("23DCE", Viewer{Segment: "24DIT"}))
	assert.False(t, IsVisible("23DCE", Viewer{Segment: "23DCSE"}))
	assert.False(t, IsVisible("23DCE", Viewer{}))
}

func TestViewerFromClaimsWithoutSegmentLogsWarning(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	viewer := ViewerFromClaims(&models.JWTClaims{UserID: "u-1", Identifier: "X1"}, zap.New(core))

	assert.Equal(t, "u-1", viewer.UserID)
	assert.Empty(t, viewer.Segment)
	assert.True(t, IsVisible(models.AudienceAll, viewer))
	assert.False(t, IsVisible("23DCE", viewer))
	assert.Equal(t, 1, logs.Len())
}

func TestViewerFromClaimsResolvesSegment(t *testing.T) {
	viewer := ViewerFromClaims(&models.JWTClaims{UserID: "u-2", Identifier: "23DCE045", FullName: "Ravi"}, nil)
	assert.Equal(t, "23DCE", viewer.Segment)
	assert.Equal(t, "Ravi", viewer.DisplayName)
}

func TestAudienceValidationTag(t *testing.T) {
	v := validator.New()
	require.NoError(t, RegisterAudienceValidation(v, []string{"23DCE", "24DIT"}))

	assert.NoError(t, v.Struct(&dto.CreateAnnouncementRequest{Title: "t", Description: "d", Audience: "23DCE"}))
	assert.NoError(t, v.Struct(&dto.CreateAnnouncementRequest{Title: "t", Description: "d", Audience: "all"}))
	assert.NoError(t, v.Struct(&dto.CreateAnnouncementRequest{Title: "t", Description: "d"}))
	assert.Error(t, v.Struct(&dto.CreateAnnouncementRequest{Title: "t", Description: "d", Audience: "99XYZ"}))
}

func TestNewValidatorReportsJSONFieldNames(t *testing.T) {
	v, err := NewValidator([]string{"23DCE"})
	require.NoError(t, err)

	err = v.Struct(&dto.CreatePollRequest{Name: "Lunch", Options: []string{"A"}, Audience: "99XYZ"})
	require.Error(t, err)

	appErr := appErrors.Validation(err, "invalid poll payload")
	assert.Equal(t, "min", appErr.Details["options"])
	assert.Equal(t, "audience", appErr.Details["audience"])
}
