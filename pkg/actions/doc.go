// Package actions provides reusable domain.Action constructors: navigation,
// data manipulation, control flow, notifications and input waits.
package actions
