package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteURL(t *testing.T) {
	r := Route{Page: PageWaiting, PIN: "482913", StudentID: "k3j9x0abcde", Name: "Ana Clara", Color: "#FFB3BA"}
	assert.Equal(t,
		"https://feedhub.app/page4?color=%23FFB3BA&name=Ana+Clara&pin=482913&student_id=k3j9x0abcde",
		r.URL("https://feedhub.app/"))
	assert.Equal(t, "/", Home().String())
}

func TestParseRoundTrip(t *testing.T) {
	r := Route{Page: PageFeedback, PIN: "482913", StudentID: "k3j9x0abcde"}
	got, err := Parse(r.URL("http://localhost:3000"))
	require.NoError(t, err)
	assert.Equal(t, r, got)

	r.Question = "How was it?"
	got, err = Parse(r.URL("http://localhost:3000"))
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func TestParseJoinLinkOpensJoinPage(t *testing.T) {
	got, err := Parse(JoinLink("http://localhost:3000", "482913"))
	require.NoError(t, err)
	assert.Equal(t, Route{Page: PageJoin, PIN: "482913"}, got)

	got, err = Parse("http://localhost:3000/")
	require.NoError(t, err)
	assert.Equal(t, Home(), got)
}

func TestParseUnknownPage(t *testing.T) {
	_, err := Parse("http://localhost:3000/room/482913/completed")
	assert.ErrorIs(t, err, ErrUnknownPage)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Home().Validate())
	assert.ErrorIs(t, Route{Page: PageLobby}.Validate(), ErrMissingPIN)
	assert.NoError(t, Route{Page: PageLobby, PIN: "482913"}.Validate())
	assert.ErrorIs(t, Route{Page: PageFeedback, PIN: "482913"}.Validate(), ErrMissingStudentID)
	assert.ErrorIs(t, Route{Page: PageWaiting, StudentID: "x"}.Validate(), ErrMissingPIN)
	assert.ErrorIs(t, Route{Page: "settings"}.Validate(), ErrUnknownPage)
}

func TestQRCodeURL(t *testing.T) {
	link := JoinLink("http://localhost:3000", "482913")
	assert.Equal(t, "http://localhost:3000/?pin=482913", link)
	assert.Equal(t,
		"https://api.qrserver.com/v1/create-qr-code/?data=http%3A%2F%2Flocalhost%3A3000%2F%3Fpin%3D482913&size=150x150",
		QRCodeURL(link))
}
