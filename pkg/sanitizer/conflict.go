package sanitizer

import (
	"fmt"
)

// ResolveNameConflict returns name unchanged when usageCount is 0.
// For usageCount > 0 it inserts "_N" before the file extension,
// e.g. "photo.jpg" with usageCount 2 becomes "photo_2.jpg".
func ResolveNameConflict(name string, usageCount int) string {
	if usageCount == 0 {
		return name
	}

	stem, ext := SplitExt(name)

	return fmt.Sprintf("%s_%d%s", stem, usageCount, ext)
}

// ResolveFolderNameConflict is the directory counterpart of
// ResolveNameConflict: the suffix goes after the whole name, so
// "v1.2" with usageCount 1 becomes "v1.2_1".
func ResolveFolderNameConflict(name string, usageCount int) string {
	if usageCount == 0 {
		return name
	}

	return fmt.Sprintf("%s_%d", name, usageCount)
}
