//go:build !linux

package renamer

func moveNoReplace(src, dst string) error {
	return linkAndRemove(src, dst)
}
