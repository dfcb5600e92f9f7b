// Package textutil holds small string helpers shared by the path resolver and
// the catalog mapping: filesystem-safe names and list splitting.
package textutil
