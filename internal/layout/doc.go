// Package layout maps catalog records onto the library tree:
//
//	<root>/Movies/Title (Year)/Title (Year).ext       (nested movies)
//	<root>/Movies/Title (Year).ext                    (flat movies)
//	<root>/TV Shows/Show/Season 01/Show - S01E02.ext
//
// Resolution is a pure function of the record and the configured layout.
package layout
