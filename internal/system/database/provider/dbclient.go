/*
 * Copyright (c) 2025, FitTrack Labs.
 *
 * FitTrack Labs licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package provider

import (
	"fmt"

	"github.com/fittrack/privacy-rights-api/internal/system/database"
	dbmodel "github.com/fittrack/privacy-rights-api/internal/system/database/model"
)

// DBClientInterface defines the interface for executing identified queries
// against a datasource.
type DBClientInterface interface {
	// Query runs a read query and returns the rows as generic maps.
	Query(query dbmodel.DBQueryInterface, args ...interface{}) ([]map[string]interface{}, error)
	// Execute runs a write query and returns the number of affected rows.
	Execute(query dbmodel.DBQueryInterface, args ...interface{}) (int64, error)
	// BeginTx starts a transaction on the underlying datasource.
	BeginTx() (dbmodel.TxInterface, error)
	// DBType returns the configured database type (mysql, postgres, ...).
	DBType() string
}

// dbClient is the default DBClientInterface implementation backed by sqlx.
type dbClient struct {
	db     *database.DB
	dbType string
}

// NewDBClient creates a new database client for the given connection.
func NewDBClient(db *database.DB, dbType string) DBClientInterface {
	return &dbClient{
		db:     db,
		dbType: dbType,
	}
}

func (c *dbClient) Query(query dbmodel.DBQueryInterface, args ...interface{}) ([]map[string]interface{}, error) {
	rows, err := c.db.Queryx(query.GetQuery(c.dbType), args...)
	if err != nil {
		return nil, fmt.Errorf("query %s failed: %w", query.GetID(), err)
	}
	defer rows.Close()

	results := make([]map[string]interface{}, 0)
	for rows.Next() {
		row := make(map[string]interface{})
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("query %s scan failed: %w", query.GetID(), err)
		}
		normalizeRow(row)
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query %s iteration failed: %w", query.GetID(), err)
	}

	return results, nil
}

func (c *dbClient) Execute(query dbmodel.DBQueryInterface, args ...interface{}) (int64, error) {
	result, err := c.db.Exec(query.GetQuery(c.dbType), args...)
	if err != nil {
		return 0, fmt.Errorf("execute %s failed: %w", query.GetID(), err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		// Callers branch on the affected count for check-and-set guards,
		// so an unknown count must surface as an error, not as zero.
		return 0, fmt.Errorf("execute %s affected-rows failed: %w", query.GetID(), err)
	}
	return affected, nil
}

func (c *dbClient) BeginTx() (dbmodel.TxInterface, error) {
	tx, err := c.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return dbmodel.NewTx(tx), nil
}

func (c *dbClient) DBType() string {
	return c.dbType
}

// normalizeRow converts driver-specific column values into the types the
// store mappers expect: []byte to string, so mapTo* type assertions hold
// across drivers.
func normalizeRow(row map[string]interface{}) {
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			row[k] = string(b)
		}
	}
}
