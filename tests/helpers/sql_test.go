package helpers

import (
	"testing"

	"github.com/localnerve/relationsdb/data"
	"github.com/stretchr/testify/assert"
)

func TestExcludeComment(t *testing.T) {
	tests := map[string]string{
		"SELECT 1; -- trailing":           "SELECT 1; ",
		"-- whole line":                   "",
		"SELECT '--not a comment' -- yes": "SELECT '--not a comment' ",
		`SELECT "a--b"`:                   `SELECT "a--b"`,
		"plain":                           "plain",
	}
	for line, want := range tests {
		assert.Equal(t, want, excludeComment(line), line)
	}
}

func TestInitScriptsExpand(t *testing.T) {
	t.Setenv("DB_APP_DATABASE", "relations_e2e")
	t.Setenv("DB_APP_USER", "app_e2e")
	t.Setenv("DB_USER", "reader_e2e")

	tables := data.Expand(data.InitdbMariaDBTables)
	assert.Contains(t, tables, "USE relations_e2e;")
	assert.Contains(t, tables, "UNIQUE KEY idx_role_permission (role_id, kind, channel_id)")
	assert.NotContains(t, tables, "${")

	privileges := data.Expand(data.InitdbMariaDBPrivileges)
	assert.Contains(t, privileges, "GRANT SELECT ON relations_e2e.* TO 'reader_e2e'@'%'")
}
