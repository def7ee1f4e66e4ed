// Package render turns the normalized per-unit records of a download
// run into standalone documents on disk. It consumes records and the
// top-level entity metadata only and never touches the network.
package render

import (
	"learndl/lib/scrapers/mslearn/catalog"
	"learndl/lib/scrapers/mslearn/content"
)

// UnitContent is the normalized record for one successfully scraped
// unit. Html and Markdown carry image references already rewritten to
// the local copies when images were downloaded.
type UnitContent struct {
	Unit     catalog.Entity
	Url      string
	Html     string
	Text     string
	Markdown string
	Images   []content.ImageRef
}

type ModuleContent struct {
	Module catalog.Entity
	Units  []UnitContent
}
