// Package storage holds helpers shared by the object-store staging backends.
package storage

import (
	"path"
	"time"

	"github.com/google/uuid"
)

// ObjectKey builds <prefix>/<yyyy>/<mm>/<dd>/<uuid><ext> for a staged object.
func ObjectKey(prefix string, at time.Time, ext string) string {
	return path.Join(prefix, at.UTC().Format("2006/01/02"), uuid.NewString()+ext)
}
