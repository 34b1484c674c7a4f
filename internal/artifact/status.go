package artifact

import (
	"path/filepath"

	"github.com/doriangym/contratos-backend/internal/domain"
)

// StatusAsset maps the derived status to the image a scanner sees. Two
// branches, no other states.
func StatusAsset(assetsDir string, status domain.Status) string {
	if status == domain.StatusActivo {
		return filepath.Join(assetsDir, "aprobado.jpg")
	}
	return filepath.Join(assetsDir, "caducado.jpg")
}
