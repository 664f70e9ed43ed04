package directory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		BaseURL: server.URL,
		APIKey:  "test-key",
	}, zap.NewNop())
	require.NoError(t, err)

	return client
}

func TestLegislatorsForZip(t *testing.T) {
	t.Run("decodes legislators and sends credentials", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/legislators/allForZip", r.URL.Path)
			assert.Equal(t, "27514", r.URL.Query().Get("zip"))
			assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"response": {
					"legislators": [
						{"legislator": {"title": "Rep", "firstname": "David", "lastname": "Price",
							"bioguide_id": "P000523", "phone": "202-225-1784", "chamber": "house",
							"state": "NC", "district": "4"}},
						{"legislator": {"title": "Sen", "firstname": "Richard", "lastname": "Burr",
							"bioguide_id": "B001135", "phone": "202-224-3154", "chamber": "senate",
							"state": "NC", "district": ""}}
					]
				}
			}`))
		})

		legislators, err := client.LegislatorsForZip(context.Background(), "27514")
		require.NoError(t, err)
		require.Len(t, legislators, 2)

		assert.Equal(t, "P000523", legislators[0].BioguideID)
		assert.Equal(t, "Rep", legislators[0].ShortTitle)
		assert.Equal(t, "B001135", legislators[1].BioguideID)
		assert.Equal(t, "senate", legislators[1].Chamber)

		// Annotation belongs to the lookup cache, not the client.
		assert.Empty(t, legislators[0].Title)
		assert.Empty(t, legislators[0].FullName)
	})

	t.Run("empty result is not an error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"response": {"legislators": []}}`))
		})

		legislators, err := client.LegislatorsForZip(context.Background(), "00001")
		require.NoError(t, err)
		assert.Empty(t, legislators)
	})

	t.Run("non-200 status is an error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := client.LegislatorsForZip(context.Background(), "27514")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 502")
	})
}

func TestLegislatorInfo(t *testing.T) {
	t.Run("top contributors", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/legislators/P000523/contributors", r.URL.Path)
			_, _ = w.Write([]byte(`{"response": {"contributors": [
				{"name": "Acme Corp", "total_amount": "12,500"}
			]}}`))
		})

		contribs, err := client.TopContributors(context.Background(), "P000523")
		require.NoError(t, err)
		require.Len(t, contribs, 1)
		assert.Equal(t, "Acme Corp", contribs[0].Name)
		assert.Equal(t, "12,500", contribs[0].TotalAmount)
	})

	t.Run("recent votes", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/legislators/P000523/votes", r.URL.Path)
			_, _ = w.Write([]byte(`{"response": {"votes": [
				{"question": "On the Motion", "voted": "Yea", "result": "passed"}
			]}}`))
		})

		votes, err := client.RecentVotes(context.Background(), "P000523")
		require.NoError(t, err)
		require.Len(t, votes, 1)
		assert.Equal(t, "Yea", votes[0].Voted)
	})

	t.Run("biography", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/legislators/P000523/bio", r.URL.Path)
			_, _ = w.Write([]byte(`{"response": {"bio": "Born in 1940."}}`))
		})

		bio, err := client.Biography(context.Background(), "P000523")
		require.NoError(t, err)
		assert.Equal(t, "Born in 1940.", bio)
	})

	t.Run("committees", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/legislators/P000523/committees", r.URL.Path)
			_, _ = w.Write([]byte(`{"response": {"committees": [
				{"name": "House Committee on Appropriations"}
			]}}`))
		})

		committees, err := client.Committees(context.Background(), "P000523")
		require.NoError(t, err)
		require.Len(t, committees, 1)
		assert.Equal(t, "House Committee on Appropriations", committees[0].Name)
	})
}

func TestTitleForCode(t *testing.T) {
	assert.Equal(t, "Senator", TitleForCode("Sen"))
	assert.Equal(t, "Representative", TitleForCode("Rep"))
	assert.Equal(t, "Representative", TitleForCode("Del"))
	assert.Equal(t, "Representative", TitleForCode(""))
}
