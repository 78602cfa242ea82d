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

package model

import (
	"database/sql"
)

// DBInterface defines the interface for database operations.
type DBInterface interface {
	Query(query string, args ...interface{}) (*sql.Rows, error)
	Exec(query string, args ...interface{}) (sql.Result, error)
	Begin() (*sql.Tx, error)
	Close() error
}

// TxInterface defines the interface for transaction operations.
type TxInterface interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	Commit() error
	Rollback() error
}

// Tx wraps sql.Tx to implement TxInterface.
type Tx struct {
	*sql.Tx
}

// NewTx creates a new Tx instance.
func NewTx(tx *sql.Tx) TxInterface {
	return &Tx{Tx: tx}
}
