package wikitree

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&Options{
		BaseURL:           srv.URL,
		SearchURL:         srv.URL,
		RequestsPerSecond: 1000,
		Burst:             100,
	}, nil)
}

func TestGetProfile_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "getProfile", r.Form.Get("action"))
		assert.Equal(t, "Smith-42", r.Form.Get("key"))

		_, _ = w.Write([]byte(`[{"status": 0, "profile": {
			"Id": "42", "Name": "Smith-42", "Privacy": 60,
			"Manager": 7, "BirthDate": "1850-03-12", "DeathDate": "0000-00-00",
			"Father": "41", "Mother": 40, "bio": "== Biography =="
		}}]`))
	})

	profile, err := client.GetProfile(context.Background(), "Smith-42")
	require.NoError(t, err)

	assert.Equal(t, int64(42), int64(profile.ID))
	assert.Equal(t, "Smith-42", profile.Name)
	assert.ElementsMatch(t, []int64{41, 40}, profile.Parents())

	rec := profile.ToRecord()
	assert.Equal(t, int64(42), rec.ID)
	assert.Equal(t, int64(7), rec.ManagerID)
	assert.Equal(t, 60, rec.Privacy)
	assert.Equal(t, 1850, rec.Birth.Year)
	assert.False(t, rec.Death.IsSet())
	assert.Equal(t, "== Biography ==", rec.Bio)
}

func TestGetProfile_StatusPrefixes(t *testing.T) {
	tests := []struct {
		status string
		want   error
	}{
		{"Limit exceeded - slow down", ErrRateLimited},
		{"Maximum number of profiles (5000) reached", ErrMaxProfiles},
		{"Permission denied", ErrPermissionDenied},
	}
	for _, tt := range tests {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[{"status": "` + tt.status + `"}]`))
		})
		_, err := client.GetProfile(context.Background(), "Smith-42")
		assert.ErrorIs(t, err, tt.want, "status %q", tt.status)
	}
}

func TestGetProfile_UnknownStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"status": "Invalid page id"}]`))
	})

	_, err := client.GetProfile(context.Background(), "nope")
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "getProfile", apiErr.Op)
	assert.Contains(t, apiErr.Error(), "Invalid page id")
}

func TestGetProfile_MissingProfile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"status": 0}]`))
	})

	_, err := client.GetProfile(context.Background(), "Smith-42")
	assert.Error(t, err)
}

func TestGetProfile_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.GetProfile(context.Background(), "Smith-42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP status 502")
}

func TestGetPeople(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "getPeople", r.Form.Get("action"))
		assert.Equal(t, "42,43", r.Form.Get("keys"))
		assert.Equal(t, "2", r.Form.Get("ancestors"))

		_, _ = w.Write([]byte(`[{"status": 0, "people": {
			"42": {"Id": 42, "Name": "Smith-42", "Privacy": "60"},
			"43": {"Id": "43", "Name": "Smith-43", "Privacy": 50},
			"0":  {"Id": 0, "Name": "placeholder"}
		}}]`))
	})

	people, err := client.GetPeople(context.Background(), PeopleRequest{
		Keys:      []string{"42", "43"},
		Ancestors: 2,
	})
	require.NoError(t, err)

	// The id-0 placeholder entry the server pads with is dropped.
	require.Len(t, people, 2)
	assert.Equal(t, "Smith-42", people[42].Name)
	assert.Equal(t, int64(50), int64(people[43].Privacy))
}

func TestGetBio(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "getBio", r.Form.Get("action"))
		_, _ = w.Write([]byte(`[{"status": 0, "bio": "== Biography ==\ntext"}]`))
	})

	bio, err := client.GetBio(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "== Biography ==\ntext", bio)
}

func TestGetWatchlist(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "getWatchlist", r.Form.Get("action"))
		assert.Equal(t, "100", r.Form.Get("offset"))
		assert.Equal(t, "50", r.Form.Get("limit"))

		// The count arrives as a quoted string.
		_, _ = w.Write([]byte(`[{"status": 0, "watchlistCount": "150", "watchlist": [
			{"Id": 1, "Name": "Smith-1"},
			{"Id": 2, "Name": "Smith-2"}
		]}]`))
	})

	total, page, err := client.GetWatchlist(context.Background(), 100, 50)
	require.NoError(t, err)
	assert.Equal(t, 150, total)
	require.Len(t, page, 2)
	assert.Equal(t, "Smith-1", page[0].Name)
}

func TestSearchPerson(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "Nottingham", r.URL.Query().Get("Query"))
		assert.Equal(t, "100", r.URL.Query().Get("MaxProfiles"))

		_, _ = w.Write([]byte(`{"response": {"found": 2345, "profiles": [
			{"Id": 11}, {"Id": "12"}, {"Id": 0}
		]}}`))
	})

	found, ids, err := client.SearchPerson(context.Background(), "Nottingham", 100)
	require.NoError(t, err)
	assert.Equal(t, 2345, found)
	assert.Equal(t, []int64{11, 12}, ids)
}

func TestPost_ContextCanceled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"status": 0, "bio": ""}]`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetBio(ctx, "42")
	assert.Error(t, err)
}
