package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	ok   bool
	errs []error

	gotType, gotName string
	gotTemplates     []string
	gotAttrs         map[string]any
}

func (f *fakeService) CreateObject(typeName, fullName string, templates []string, attrs map[string]any) (bool, []error) {
	f.gotType, f.gotName, f.gotTemplates, f.gotAttrs = typeName, fullName, templates, attrs
	return f.ok, f.errs
}

func newRouter(svc CreateObjectService) *mux.Router {
	h := NewHandlers(svc, map[string]string{"hosts": "Host"}, nil)
	r := mux.NewRouter()
	h.Register(r)
	return r
}

func TestCreateObjectSuccess(t *testing.T) {
	svc := &fakeService{ok: true}
	r := newRouter(svc)

	body, _ := json.Marshal(createRequest{Attrs: map[string]any{"address": "1.2.3.4"}})
	req := httptest.NewRequest(http.MethodPut, "/v1/hosts/h2", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Host", svc.gotType)
	assert.Equal(t, "h2", svc.gotName)
	assert.Equal(t, "1.2.3.4", svc.gotAttrs["address"])

	var resp createResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, 200, resp.Results[0].Code)
}

func TestCreateObjectFailure(t *testing.T) {
	svc := &fakeService{ok: false, errs: []error{errors.New("compile error: bad expression")}}
	r := newRouter(svc)

	req := httptest.NewRequest(http.MethodPut, "/v1/hosts/h3", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp createResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, 500, resp.Results[0].Code)
	assert.Contains(t, resp.Results[0].Errors[0], "bad expression")
}

func TestCreateObjectUnknownType(t *testing.T) {
	svc := &fakeService{}
	r := newRouter(svc)

	req := httptest.NewRequest(http.MethodPut, "/v1/widgets/w1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateObjectNestedName(t *testing.T) {
	svc := &fakeService{ok: true}
	r := newRouter(svc)

	req := httptest.NewRequest(http.MethodPut, "/v1/hosts/h1!ping", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "h1!ping", svc.gotName)
}
