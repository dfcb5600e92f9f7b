// Package nfo renders Kodi/Jellyfin XML descriptors (movie, episodedetails,
// tvshow) for catalog records. Values are escaped by encoding/xml.
package nfo
