// Package store defines interfaces for persisting recite tracking records
// and book content. The interfaces abstract the underlying storage engine
// from the application's core logic, so scheduling rules stay independent
// of the embedded database behind them.
package store
