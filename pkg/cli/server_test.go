package cli

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairlens/fairscan/pkg/data"
	"github.com/fairlens/fairscan/pkg/mdss"
)

func setupServerDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, data.Init(dbPath))
	db, err := data.GetDB(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestServer_Health(t *testing.T) {
	srv := httptest.NewServer(makeRouter(setupServerDB(t)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_ListResults(t *testing.T) {
	db := setupServerDB(t)
	_, err := data.SaveResult(db, &data.Result{
		Dataset:   "scores.csv",
		Direction: "under",
		Penalty:   1e-6,
		Restarts:  10,
		MaxPasses: 10,
		Seed:      1,
		Score:     2.5,
		Subgroup:  mdss.Subgroup{"group": []string{"A"}},
	})
	require.NoError(t, err)

	srv := httptest.NewServer(makeRouter(db))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/results")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []*data.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, "scores.csv", list[0].Dataset)
}

func TestServer_ListResults_Empty(t *testing.T) {
	srv := httptest.NewServer(makeRouter(setupServerDB(t)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/results")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []*data.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Empty(t, list)
}

func TestServer_ListResults_InvalidLimit(t *testing.T) {
	srv := httptest.NewServer(makeRouter(setupServerDB(t)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/results?limit=abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_GetResult(t *testing.T) {
	db := setupServerDB(t)
	id, err := data.SaveResult(db, &data.Result{
		Dataset:   "scores.csv",
		Direction: "over",
		Subgroup:  mdss.Subgroup{"region": []string{"north"}},
		Score:     1.25,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(makeRouter(db))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/results/" + strconv.FormatInt(id, 10))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res data.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "over", res.Direction)
	assert.Equal(t, []string{"north"}, res.Subgroup["region"])
}

func TestServer_GetResult_NotFound(t *testing.T) {
	srv := httptest.NewServer(makeRouter(setupServerDB(t)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/results/99")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_GetResult_BadID(t *testing.T) {
	srv := httptest.NewServer(makeRouter(setupServerDB(t)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/results/abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
