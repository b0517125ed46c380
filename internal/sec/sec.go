// Package sec provides authentication and security primitives for the task
// API.
//
// # Authentication
//
// Authentication uses HTTP Basic Auth. Credentials are validated against
// bcrypt password hashes held by the user store; failures carry the
// connectrpc.com/authn unauthenticated code so callers can map them without
// knowing which check failed.
//
// IMPORTANT: Basic Auth transmits credentials in base64 encoding (not encrypted).
// TLS must be used in production to protect credentials in transit.
//
// # Components
//
//   - [Authenticate]: Validates Basic Auth credentials against the user store
//   - [GetAuthenticatedUser], [SetAuthenticatedUser]: Context accessors for user info
//   - [HashPassword], [ComparePassword]: bcrypt password hashing utilities
package sec
