package hypixel

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

	c := NewClient("test-key")
	c.baseURL = srv.URL
	c.mojangURL = srv.URL
	return c
}

func TestUUIDFromUsername(t *testing.T) {
	t.Run("resolves a known username", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/Steve", r.URL.Path)
			w.Write([]byte(`{"id": "abc123", "name": "Steve"}`))
		})

		uuid, err := c.UUIDFromUsername(context.Background(), "Steve")
		require.NoError(t, err)
		assert.Equal(t, "abc123", uuid)
	})

	t.Run("unknown username returns empty without error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		uuid, err := c.UUIDFromUsername(context.Background(), "NoSuchPlayer")
		require.NoError(t, err)
		assert.Empty(t, uuid)
	})

	t.Run("server error propagates", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := c.UUIDFromUsername(context.Background(), "Steve")
		assert.Error(t, err)
	})
}

const profilesPayload = `{
	"success": true,
	"profiles": [
		{
			"profile_id": "p1",
			"cute_name": "Apple",
			"members": {
				"abc123": {
					"last_save": 100,
					"currencies": {"coin_purse": 5000.5},
					"experience_skill_mining": 1175,
					"experience_skill_combat": 675,
					"slayer": {"slayer_bosses": {"zombie": {"xp": 1000}}}
				}
			},
			"banking": {"balance": 12345.6}
		},
		{
			"profile_id": "p2",
			"cute_name": "Banana",
			"members": {
				"abc123": {"last_save": 200}
			}
		}
	]
}`

func TestSkyblockProfiles(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/skyblock/profiles", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "abc123", r.URL.Query().Get("uuid"))
		w.Write([]byte(profilesPayload))
	})

	profiles, err := c.SkyblockProfiles(context.Background(), "abc123")
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	member := profiles[0].Members["abc123"]
	assert.Equal(t, 5000.5, member.Currencies.CoinPurse)
	assert.Equal(t, 1175.0, member.SkillXP["mining"])
	assert.Equal(t, 675.0, member.SkillXP["combat"])
	assert.Equal(t, 1000.0, member.Slayer.SlayerBosses["zombie"].XP)
	assert.Equal(t, 12345.6, profiles[0].Banking.Balance)
}

func TestSkyblockProfiles_APIFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"success": false, "cause": "Invalid API key"}`))
	})

	_, err := c.SkyblockProfiles(context.Background(), "abc123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API key")
}

func TestActiveProfile_PicksLatestSave(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(profilesPayload))
	})

	active, err := c.ActiveProfile(context.Background(), "abc123")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "Banana", active.CuteName)
}

func TestActiveProfile_NoProfiles(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"success": true, "profiles": []}`))
	})

	active, err := c.ActiveProfile(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Nil(t, active)
}
