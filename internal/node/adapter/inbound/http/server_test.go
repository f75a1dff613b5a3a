package http_handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/anthanhphan/go-distributed-kv/internal/node/config"
	"github.com/anthanhphan/go-distributed-kv/internal/node/domain"
	"github.com/anthanhphan/go-distributed-kv/internal/node/port"
	"github.com/anthanhphan/go-distributed-kv/internal/node/service/metadata"
	"github.com/anthanhphan/go-distributed-kv/internal/node/service/mocks"
	"github.com/anthanhphan/go-distributed-kv/pkg/shard"
)

func newTestServer(t *testing.T) (*Server, *mocks.MockKVService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockKVService(ctrl)
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "kv_rebalancing_reconciliations_total 0\n")
	})
	return NewServer(config.ServerConfig{HTTPPort: 0}, svc, metrics), svc
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestHandleGet(t *testing.T) {
	s, svc := newTestServer(t)

	version := domain.NewVectorClock()
	version.Versions[0] = 3
	svc.EXPECT().Get(gomock.Any(), "users", domain.Key("a/b")).
		Return([]domain.Versioned{domain.NewVersioned([]byte("v"), version)}, nil)

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/stores/users/keys/a%2Fb", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Versions []versionedView `json:"versions"`
	}
	decode(t, resp, &body)
	require.Len(t, body.Versions, 1)
	assert.Equal(t, []byte("v"), body.Versions[0].Value)
	assert.Equal(t, uint64(3), body.Versions[0].Version.Versions[0])
}

func TestHandleGet_NotFound(t *testing.T) {
	s, svc := newTestServer(t)
	svc.EXPECT().Get(gomock.Any(), "users", domain.Key("k")).Return(nil, nil)

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/stores/users/keys/k", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandlePut(t *testing.T) {
	s, svc := newTestServer(t)

	written := domain.NewVectorClock()
	written.Versions[1] = 2
	svc.EXPECT().Put(gomock.Any(), "users", domain.Key("k"), []byte("hello"), gomock.Nil()).Return(written, nil)

	resp, err := s.app.Test(httptest.NewRequest(http.MethodPut, "/stores/users/keys/k", strings.NewReader("hello")))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Version domain.VectorClock `json:"version"`
	}
	decode(t, resp, &body)
	assert.Equal(t, uint64(2), body.Version.Versions[1])
}

func TestHandlePut_WithVersionHeader(t *testing.T) {
	s, svc := newTestServer(t)

	svc.EXPECT().Put(gomock.Any(), "users", domain.Key("k"), []byte("v"), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ domain.Key, _ []byte, version *domain.VectorClock) (domain.VectorClock, error) {
			require.NotNil(t, version)
			assert.Equal(t, uint64(4), version.Versions[2])
			return *version, nil
		})

	req := httptest.NewRequest(http.MethodPut, "/stores/users/keys/k", strings.NewReader("v"))
	req.Header.Set(VersionHeader, `{"versions":{"2":4},"timestamp":10}`)
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandlePut_BadVersionHeader(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPut, "/stores/users/keys/k", strings.NewReader("v"))
	req.Header.Set(VersionHeader, "not json")
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: &domain.ValidationError{Field: "key", Reason: "must not be empty"}, want: http.StatusBadRequest},
		{name: "unknown store", err: fmt.Errorf("%w: x", domain.ErrStoreNotFound), want: http.StatusNotFound},
		{name: "obsolete", err: &domain.ObsoleteVersionError{Key: domain.Key("k"), Version: domain.NewVectorClock()}, want: http.StatusConflict},
		{name: "connectivity", err: &domain.ConnectivityError{StoreName: "users", NodeID: 1}, want: http.StatusServiceUnavailable},
		{name: "internal", err: io.ErrUnexpectedEOF, want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, svc := newTestServer(t)
			svc.EXPECT().Delete(gomock.Any(), "users", domain.Key("k"), gomock.Nil()).Return(false, tt.err)

			resp, err := s.app.Test(httptest.NewRequest(http.MethodDelete, "/stores/users/keys/k", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestHandleRebalancing(t *testing.T) {
	s, svc := newTestServer(t)

	plan := domain.RebalancingPlan{DonorNodeID: 1, Partitions: []domain.PartitionID{4, 5}}
	status := port.RebalancingStatus{
		ServerState: domain.ServerStateRebalancingMaster,
		DonorNodeID: 1,
		Partitions:  plan.Partitions,
		DonorStores: map[string]bool{"users": true},
	}

	gomock.InOrder(
		svc.EXPECT().StartRebalancing(gomock.Any(), plan).Return(nil),
		svc.EXPECT().RebalancingStatus(gomock.Any()).Return(status),
	)

	req := httptest.NewRequest(http.MethodPut, "/admin/rebalancing", strings.NewReader(`{"donor_node_id":1,"partitions":[4,5]}`))
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got port.RebalancingStatus
	decode(t, resp, &got)
	assert.Equal(t, status, got)

	svc.EXPECT().StartRebalancing(gomock.Any(), plan).Return(metadata.ErrRebalancingInProgress)
	resp, err = s.app.Test(httptest.NewRequest(http.MethodPut, "/admin/rebalancing", strings.NewReader(`{"donor_node_id":1,"partitions":[4,5]}`)))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, err = s.app.Test(httptest.NewRequest(http.MethodPut, "/admin/rebalancing", strings.NewReader(`{`)))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	gomock.InOrder(
		svc.EXPECT().FinishRebalancing(gomock.Any()).Return(nil),
		svc.EXPECT().RebalancingStatus(gomock.Any()).Return(port.RebalancingStatus{ServerState: domain.ServerStateNormal, DonorNodeID: -1}),
	)
	resp, err = s.app.Test(httptest.NewRequest(http.MethodDelete, "/admin/rebalancing", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &got)
	assert.Equal(t, domain.ServerStateNormal, got.ServerState)
}

func TestHandleTopology(t *testing.T) {
	s, svc := newTestServer(t)
	svc.EXPECT().Topology(gomock.Any()).Return([]shard.Node{{ID: 0, Addr: "a:8081", Partitions: []int{0}, Status: shard.NodeStatusHealthy}})

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/cluster/topology", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Nodes []shard.Node `json:"nodes"`
	}
	decode(t, resp, &body)
	require.Len(t, body.Nodes, 1)
	assert.Equal(t, "a:8081", body.Nodes[0].Addr)
}

func TestMetricsRoute(t *testing.T) {
	s, _ := newTestServer(t)

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "kv_rebalancing_reconciliations_total")
}
