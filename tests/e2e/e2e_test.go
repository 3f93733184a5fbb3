// e2e_test.go
//
// A consistency layer for social relations and guild permissions
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of relationsdb.
// relationsdb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// relationsdb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with relationsdb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package e2e_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/localnerve/relationsdb/internal/config"
	"github.com/localnerve/relationsdb/internal/database"
	"github.com/localnerve/relationsdb/internal/services"
	"github.com/localnerve/relationsdb/tests/helpers"
)

// TestE2EWithFullStack tests the entire service stack
func TestE2EWithFullStack(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E test in short mode")
	}

	ctx := context.Background()

	tc, err := helpers.CreateAllTestContainers(t)
	if err != nil {
		t.Fatalf("Failed to start test containers: %v", err)
	}
	defer tc.Terminate(t)

	host, _ := tc.RelationsDBContainer.Host(ctx)
	port, _ := tc.RelationsDBContainer.MappedPort(ctx, nat.Port(os.Getenv("PORT")))
	baseURL := fmt.Sprintf("http://%s:%s", host, port.Port())

	// Wait a bit for everything to stabilize
	time.Sleep(5 * time.Second)

	t.Run("HealthCheck", func(t *testing.T) {
		testHealthCheck(t, tc)
	})

	t.Run("PrometheusMetrics", func(t *testing.T) {
		testPrometheusMetrics(t, baseURL)
	})

	t.Run("SwaggerUI", func(t *testing.T) {
		testSwaggerUI(t, baseURL)
	})

	t.Run("SessionRequired", func(t *testing.T) {
		testSessionRequired(t, baseURL)
	})

	t.Run("UnsupportedVersion", func(t *testing.T) {
		testUnsupportedVersion(t, baseURL)
	})

	t.Run("NotFound", func(t *testing.T) {
		testNotFound(t, baseURL)
	})

	t.Run("AuthorizerAccount", func(t *testing.T) {
		testAuthorizerAccount(t, tc)
	})
}

func authorizerURL(t *testing.T, tc *helpers.TestContainers) string {
	ctx := context.Background()
	authzHost, _ := tc.AuthorizerContainer.Host(ctx)
	authzPort, err := tc.AuthorizerContainer.MappedPort(ctx, nat.Port(os.Getenv("AUTHZ_PORT")))
	if err != nil {
		t.Fatalf("Failed to map Authorizer port: %v", err)
	}
	return fmt.Sprintf("http://%s:%s", authzHost, authzPort.Port())
}

func testHealthCheck(t *testing.T, tc *helpers.TestContainers) {
	ctx := context.Background()

	// Point at the mapped ports on localhost, not the container network names
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	dbHost, _ := tc.DBContainer.Host(ctx)
	dbPort, _ := tc.DBContainer.MappedPort(ctx, nat.Port(os.Getenv("DB_PORT")))
	cfg.DBHost = dbHost
	cfg.DBPort = dbPort.Port()
	cfg.AuthzURL = authorizerURL(t, tc)

	gormDB, err := database.Connect(cfg)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	defer database.Close(gormDB)

	result := services.HealthCheck(cfg, gormDB, services.DefaultAuthorizerPing)
	if result.Status != "healthy" {
		t.Errorf("Health check failed: %+v", result)
	}

	t.Logf("Health check passed: status=%s, database=%s, schema=%s, authorizer=%s",
		result.Status, result.Database, result.Schema, result.Authorizer)
}

func testPrometheusMetrics(t *testing.T, baseURL string) {
	resp, err := http.Get(baseURL + "/metrics")
	if err != nil {
		t.Fatalf("Failed to get metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200 for metrics, got %d. Body: %s", resp.StatusCode, body)
	}
	if !strings.Contains(string(body), "relationsdb_") {
		t.Errorf("Expected relationsdb metrics. Body: %s", body)
	}
}

func testSwaggerUI(t *testing.T, baseURL string) {
	resp, err := http.Get(baseURL + "/swagger/index.html")
	if err != nil {
		t.Fatalf("Failed to get Swagger UI: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200 for Swagger UI, got %d", resp.StatusCode)
	}
}

func testSessionRequired(t *testing.T, baseURL string) {
	resp, err := http.Get(baseURL + "/api/users/me")
	if err != nil {
		t.Fatalf("Failed to call API: %v", err)
	}

	failure := helpers.AssertFailure(t, resp, http.StatusForbidden, "")
	if failure.Type != "relations.authorization.user" {
		t.Errorf("Expected authorization failure type, got %q", failure.Type)
	}
}

func testUnsupportedVersion(t *testing.T, baseURL string) {
	req, _ := http.NewRequest(http.MethodGet, baseURL+"/api/users/me", nil)
	req.Header.Set("X-Api-Version", "2.0.0")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to call API: %v", err)
	}

	helpers.AssertFailure(t, resp, http.StatusBadRequest, "")
}

func testNotFound(t *testing.T, baseURL string) {
	resp, err := http.Get(baseURL + "/nowhere")
	if err != nil {
		t.Fatalf("Failed to call API: %v", err)
	}

	helpers.AssertFailure(t, resp, http.StatusNotFound, "")
}

func testAuthorizerAccount(t *testing.T, tc *helpers.TestContainers) {
	account := helpers.AcquireAccount(t, os.Getenv("AUTHZ_CLIENT_ID"), authorizerURL(t, tc), []string{"user"})
	if account.AccessToken == "" {
		t.Errorf("Expected an access token for %s", account.Email)
	}
}
