// Package web embeds the static admin page.
package web

import _ "embed"

//go:embed admin.html
var AdminPage []byte
