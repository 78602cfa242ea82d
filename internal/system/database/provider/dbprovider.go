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

// Package provider provides functionality for managing database connections and clients.
package provider

import (
	"sync"

	"github.com/fittrack/privacy-rights-api/internal/system/database"
	"github.com/fittrack/privacy-rights-api/internal/system/log"
)

// DBProviderInterface defines the interface for getting database clients.
type DBProviderInterface interface {
	GetPrivacyDBClient() (DBClientInterface, error)
}

// DBProviderCloser is a separate interface for closing the provider.
// Only the lifecycle manager should use this interface.
type DBProviderCloser interface {
	Close() error
}

// dbProvider is the implementation of DBProviderInterface.
type dbProvider struct {
	privacyClient DBClientInterface
	privacyMutex  sync.RWMutex
	db            *database.DB
}

var (
	instance *dbProvider
	once     sync.Once
)

// InitDBProvider initializes the singleton instance of DBProvider with the database connection.
func InitDBProvider(db *database.DB) {
	once.Do(func() {
		instance = &dbProvider{
			db: db,
		}
		instance.initializeClient()
	})
}

// GetDBProvider returns the instance of DBProvider.
func GetDBProvider() DBProviderInterface {
	if instance == nil {
		panic("DBProvider not initialized. Call InitDBProvider first.")
	}
	return instance
}

// GetDBProviderCloser returns the DBProvider with closing capability.
// This should only be called from the main lifecycle manager.
func GetDBProviderCloser() DBProviderCloser {
	if instance == nil {
		panic("DBProvider not initialized. Call InitDBProvider first.")
	}
	return instance
}

// GetPrivacyDBClient returns a database client for the privacy datasource.
// Not required to close the returned client manually since it manages its own connection pool.
func (d *dbProvider) GetPrivacyDBClient() (DBClientInterface, error) {
	d.privacyMutex.RLock()
	defer d.privacyMutex.RUnlock()
	return d.privacyClient, nil
}

// initializeClient initializes the database client.
func (d *dbProvider) initializeClient() {
	d.privacyMutex.Lock()
	defer d.privacyMutex.Unlock()

	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "DBProvider"))

	if d.db == nil {
		logger.Fatal("Database connection is nil")
		return
	}

	d.privacyClient = NewDBClient(d.db, "mysql")
	logger.Debug("Privacy DB client initialized")
}

// Close closes the database connections. This should only be called by the lifecycle manager during shutdown.
func (d *dbProvider) Close() error {
	d.privacyMutex.Lock()
	defer d.privacyMutex.Unlock()

	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "DBProvider"))

	if d.privacyClient != nil {
		// The underlying pool is owned by database.DB which has its own
		// Close; the client only needs to be detached here.
		d.privacyClient = nil
		logger.Debug("DB client closed", log.String("client", "privacy"))
	}
	return nil
}
