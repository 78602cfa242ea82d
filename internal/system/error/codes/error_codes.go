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

package codes

// Error codes for the Privacy Rights Service
const (
	// General errors
	InternalServerError = "PSE-5000"
	DatabaseError       = "PSE-5001"
	DependencyFailure   = "PSE-5002"
	InvalidRequest      = "PCE-4000"
	ValidationError     = "PCE-4001"
	ResourceNotFound    = "PCE-4004"
	StateConflict       = "PCE-4009"
	RateLimited         = "PCE-4029"

	// Consent ledger errors
	ConsentNotGranted    = "PCE-4040"
	ConsentAppendFailed  = "PSE-5010"

	// Export workflow errors
	ExportNotFound       = "PCE-4050"
	ExportNotReady       = "PCE-4051"
	ExportProcessFailed  = "PSE-5020"
	ArtifactWriteFailed  = "PSE-5021"

	// Rectification workflow errors
	RectificationNotFound = "PCE-4060"
	RectificationApplyFailed = "PSE-5030"

	// Deletion workflow errors
	DeletionNotFound     = "PCE-4070"
	DeletionTokenInvalid = "PCE-4071"
	DeletionExecuteFailed = "PSE-5040"

	// Retention errors
	PolicyNotFound = "PCE-4080"
	JobRunFailed   = "PSE-5050"
)
