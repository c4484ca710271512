// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting for the recite list and book content endpoints.
// It acts as an adapter between external clients and the internal
// application services, translating HTTP concerns to business operations.
package api
