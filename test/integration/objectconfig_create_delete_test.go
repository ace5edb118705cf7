package integration_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icinga-cluster/clustercore/internal/configscript"
	"github.com/icinga-cluster/clustercore/internal/domain"
	"github.com/icinga-cluster/clustercore/internal/httpapi"
	"github.com/icinga-cluster/clustercore/internal/object"
	"github.com/icinga-cluster/clustercore/internal/objectconfig"
	"github.com/icinga-cluster/clustercore/internal/registry"
	"github.com/icinga-cluster/clustercore/internal/signal"
)

// testFactories mirrors cmd/clustercore's domainFactories wiring without
// importing package main.
func testFactories() map[string]configscript.Factory {
	wrap := func(typeName string) configscript.Factory {
		return func(reg *registry.Registry, bus *signal.Bus, fullName string, attrs map[string]any) (object.Instance, error) {
			return domain.Construct(reg, bus, typeName, fullName, attrs)
		}
	}
	return map[string]configscript.Factory{
		domain.HostTypeName: wrap(domain.HostTypeName),
	}
}

// CreateObject via the HTTP surface stages a file under the _api module
// and activates the object; DeleteObject removes both. An object not
// sourced from _api refuses deletion with the
// documented error.
func TestCreateThenDeleteViaHTTPAPI(t *testing.T) {
	bus := signal.NewBus(nil)
	reg := registry.New(bus, prometheus.NewRegistry())
	require.NoError(t, domain.RegisterHostType(reg))

	moduleRoot := t.TempDir()
	engine := configscript.NewEngine(reg, bus, testFactories())
	objSvc := objectconfig.NewService(reg, engine, engine, engine, moduleRoot, "1", nil, objectconfig.NewMetrics(prometheus.NewRegistry()))

	router := mux.NewRouter()
	httpapi.NewHandlers(objSvc, map[string]string{"hosts": domain.HostTypeName}, nil).Register(router)

	body := strings.NewReader(`{"attrs":{"address":"1.2.3.4"}}`)
	req := httptest.NewRequest(http.MethodPut, "/v1/hosts/h2", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	confPath := filepath.Join(moduleRoot, "_api", "1", "conf.d", "hosts", "h2.conf")
	_, err := os.Stat(confPath)
	require.NoError(t, err, "expected staged config file at %s", confPath)

	inst, err := reg.Lookup(domain.HostTypeName, "h2")
	require.NoError(t, err)
	host, ok := inst.(*domain.Host)
	require.True(t, ok)
	assert.True(t, host.Active())
	assert.Equal(t, "1.2.3.4", host.Address())

	require.NoError(t, objSvc.DeleteObject(domain.HostTypeName, "h2", host, object.NoopLifecycle{}))
	_, err = reg.Lookup(domain.HostTypeName, "h2")
	assert.Error(t, err)
	_, statErr := os.Stat(confPath)
	assert.True(t, os.IsNotExist(statErr))

	// An object never routed through CreateObject carries no source_module
	// extension, so DeleteObject must refuse it.
	desc, err := reg.Type(domain.HostTypeName)
	require.NoError(t, err)
	unmanaged := domain.NewHost(desc, "h3", bus, nil)
	require.NoError(t, reg.RegisterObject(domain.HostTypeName, unmanaged))

	err = objSvc.DeleteObject(domain.HostTypeName, "h3", unmanaged, object.NoopLifecycle{})
	assert.ErrorIs(t, err, objectconfig.ErrNotAPIManaged)
}

