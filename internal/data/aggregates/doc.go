// Package aggregates implements the tracking write paths: sessions, projects and subprojects,
// merges, audits and commitment reconciliation.
//
// Each write runs in one transaction through executeWrite, locks rows in the order listed on
// its contract, and keeps the denormalized project and subproject totals equal to the sum of
// their completed sessions.
package aggregates
