// Package rdbtype defines shared types used across the fdata package and its
// internal packages. This avoids circular imports between fdata and the
// container, chunk and extract packages.
package rdbtype
