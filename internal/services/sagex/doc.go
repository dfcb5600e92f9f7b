// Package sagex fetches the SageTV media catalog through the SageX HTTP API
// (GetMediaFiles, XML format) and maps it into catalog.Record values.
package sagex
