//go:build !linux

package safepath

func renameNoReplace(oldPath, newPath string) error {
	return renameCheckThenAct(oldPath, newPath)
}
