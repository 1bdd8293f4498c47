// Package common holds enums shared by command line and configuration.
package common

//go:generate go tool go-enum --marshal --names

// Output format of reference listing.
// ENUM(text, yaml)
type ListFormat int
