// Package config provides configuration structures and utilities for opsdash.
// It defines where the dashboard backend lives, how requests are sent to it,
// upload limits, and the intervals that drive every polling timer.
package config
