// Package models contains GORM persistence models for the sell-out tables.
// They are kept apart from the domain types so the domain stays free of ORM
// tags; each model converts to its domain record with ToDomain.
//
// Tables:
//   - sales_logs: internal extraction log, one row per uploaded sale
//   - distributor_feed: external feed, text columns as delivered
//   - products, dealers, employees: reference tables
package models
