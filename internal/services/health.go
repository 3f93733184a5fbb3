package services

import (
	"fmt"
	"log"

	"github.com/localnerve/relationsdb/internal/config"
	"github.com/localnerve/relationsdb/internal/models"
	"github.com/localnerve/relationsdb/internal/utils"
	"gorm.io/gorm"
)

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Schema       string            `json:"schema"`
	Authorizer   string            `json:"authorizer"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

func (r *HealthCheckResult) failure(format string, args ...any) {
	r.Status = "unhealthy"
	msg := fmt.Sprintf(format, args...)
	if r.ErrorMessage == "" {
		r.ErrorMessage = msg
	} else {
		r.ErrorMessage += "; " + msg
	}
	log.Printf("Health check failed - %s", msg)
}

// HealthCheck checks the database, the relation tables and the Authorizer.
// A nil authorizer ping skips the Authorizer check.
func HealthCheck(cfg *config.Config, db *gorm.DB, ping func(string) error) HealthCheckResult {
	result := HealthCheckResult{
		Status:  "healthy",
		Details: make(map[string]string),
	}

	sqlDB, err := db.DB()
	if err != nil {
		result.Database = "error"
		result.Details["database_error"] = err.Error()
		result.failure("Database connection error: %v", err)
	} else if err := sqlDB.Ping(); err != nil {
		result.Database = "unreachable"
		result.Details["database_ping_error"] = err.Error()
		result.failure("Database ping failed: %v", err)
	} else {
		result.Database = "ok"
		result.Details["database_type"] = cfg.DBType
		result.Details["database_name"] = cfg.DBAppDatabase
	}

	if result.Database == "ok" {
		missing := ""
		for _, model := range models.All() {
			if !db.Migrator().HasTable(model) {
				missing = fmt.Sprintf("%T", model)
				break
			}
		}
		if missing != "" {
			result.Schema = "missing"
			result.Details["schema_missing"] = missing
			result.failure("Schema incomplete: %s has no table", missing)
		} else {
			result.Schema = "ok"
		}
	}

	if ping == nil {
		result.Authorizer = "skipped"
	} else if err := ping(cfg.AuthzURL); err != nil {
		result.Authorizer = "unreachable"
		result.Details["authorizer_error"] = err.Error()
		result.failure("Authorizer ping failed: %v", err)
	} else {
		result.Authorizer = "ok"
		result.Details["authorizer_url"] = cfg.AuthzURL
	}

	if result.Status == "healthy" {
		log.Println("Health check passed - all systems operational")
	}

	return result
}

// DefaultAuthorizerPing is the ping HealthCheck uses in production.
var DefaultAuthorizerPing = utils.PingAuthorizer
