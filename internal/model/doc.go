// Package model defines the data types shared by every grid engine: row ids
// and rows, column definitions and their hooks, the sort, filter, selection
// and edit models, and the params objects handed to hooks and renderers.
//
// The package has no behaviour beyond small accessors and id normalisation,
// so every other package can depend on it without cycles.
package model
