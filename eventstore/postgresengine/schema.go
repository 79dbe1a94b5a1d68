package postgresengine

import (
	"context"
	_ "embed"
	"errors"
	"strings"

	"github.com/AntonStoeckl/circulation-engine-go/eventstore"
)

//go:embed schema.sql
var schemaTemplate string

const tablePlaceholder = "{{table}}"

// SchemaStatements returns the idempotent DDL statements for the given events table.
func SchemaStatements(tableName string) []string {
	ddl := strings.ReplaceAll(schemaTemplate, tablePlaceholder, tableName)

	statements := make([]string, 0)
	for _, stmt := range strings.Split(ddl, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			statements = append(statements, stmt)
		}
	}

	return statements
}

// EnsureSchema creates the events table and its indexes if they do not exist yet.
func (es *EventStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range SchemaStatements(es.eventTableName) {
		if _, err := es.db.Exec(ctx, stmt); err != nil {
			es.logError(ctx, logMsgDBExecFailed, err, logAttrQuery, stmt)
			es.recordError(ctx, operationSchema, errorTypeDatabaseExec)

			return errors.Join(eventstore.ErrEnsuringSchemaFailed, err)
		}
	}

	es.logOperation(ctx, logMsgSchemaEnsured, logAttrTable, es.eventTableName)

	return nil
}
