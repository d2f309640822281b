// Package backend provides the Snapgram API server.

// This package contains the main application entry point. The actual API
// documentation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/auth: Authentication and authorization services
// - internal/websocket: WebSocket server for presence and notifications
// - internal/chat: Conversation storage and the message delivery pipeline
// - internal/storage: File storage (S3) operations
// - internal/database: Database connection and migrations
// - internal/middleware: HTTP middleware (rate limiting, etc.)
// - internal/cache: Redis connection management
// - internal/seed: Development and test data seeding

// See the individual package documentation for detailed API reference.
package backend
