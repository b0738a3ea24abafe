package conversation

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/PabloGalante/farmdash/internal/domain"
)

// AcceptedExtensions lists the file types the attach button offers.
var AcceptedExtensions = []string{
	".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp", ".heic", ".tif", ".tiff",
	".pdf", ".doc", ".docx", ".xls", ".xlsx",
}

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
	".bmp": true, ".heic": true, ".tif": true, ".tiff": true,
}

// DescribeFile turns a selected path into an attachment descriptor. The
// file itself is not read.
func DescribeFile(path string) (domain.Attachment, error) {
	ext := strings.ToLower(filepath.Ext(path))
	kind := domain.AttachmentDocument
	switch {
	case imageExtensions[ext]:
		kind = domain.AttachmentImage
	case ext == ".pdf", ext == ".doc", ext == ".docx", ext == ".xls", ext == ".xlsx":
	default:
		return domain.Attachment{}, fmt.Errorf("unsupported attachment type %q", ext)
	}

	return domain.Attachment{
		Kind:        kind,
		Reference:   path,
		DisplayName: filepath.Base(path),
	}, nil
}

// Stager tracks the single attachment selected for the next outgoing turn.
// Selecting a new file silently replaces the previous one.
type Stager struct {
	store *Store
}

func NewStager(store *Store) *Stager {
	return &Stager{store: store}
}

// Stage replaces any previously staged descriptor.
func (s *Stager) Stage(a domain.Attachment) {
	s.store.stage(&a)
}

// Consume returns the staged descriptor, or nil, and clears it.
func (s *Stager) Consume() *domain.Attachment {
	return s.store.consumeStaged()
}

// Peek reports the staged descriptor without consuming it.
func (s *Stager) Peek() (domain.Attachment, bool) {
	return s.store.State().Staged()
}

// Clear drops the selection without sending it.
func (s *Stager) Clear() {
	s.store.stage(nil)
}
