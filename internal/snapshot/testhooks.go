package snapshot

// SetRenameHookForTest overrides the rename call DumpObjects uses to
// publish its temp file, so tests can simulate a rename failure without
// touching the filesystem permission model. Restore it with os.Rename
// when the test finishes.
func SetRenameHookForTest(fn func(oldpath, newpath string) error) {
	renameFile = fn
}
