package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// StagedFile is a file written next to its destination and swapped in by
// rename. The previous destination, if any, is kept aside until Discard so a
// commit can be undone.
type StagedFile struct {
	dest   string
	tmp    string
	backup string
	moved  bool
}

// Create checks that dest can be replaced and opens a temporary file in the
// same directory.
func (f *StagedFile) Create(dest string) (*os.File, error) {
	if err := checkDestination(dest); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return nil, err
	}
	f.dest, f.tmp = dest, tmp.Name()
	return tmp, nil
}

// Temp returns the staged file name, or "" when nothing is staged.
func (f *StagedFile) Temp() string { return f.tmp }

func checkDestination(dest string) error {
	info, err := os.Stat(dest)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", dest)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", dest)
	}
	w, err := os.OpenFile(dest, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	return w.Close()
}

// Commit moves the staged file onto its destination. An existing
// destination is renamed aside first and restored if the move fails.
func (f *StagedFile) Commit() error {
	if f.tmp == "" {
		return fmt.Errorf("nothing staged for %s", f.dest)
	}
	if _, err := os.Lstat(f.dest); err == nil {
		bak, err := os.CreateTemp(filepath.Dir(f.dest), "."+filepath.Base(f.dest)+".*.bak")
		if err != nil {
			return err
		}
		f.backup = bak.Name()
		bak.Close()
		if err := os.Rename(f.dest, f.backup); err != nil {
			_ = os.Remove(f.backup)
			f.backup = ""
			return err
		}
	}
	if err := os.Rename(f.tmp, f.dest); err != nil {
		if f.backup != "" {
			_ = os.Rename(f.backup, f.dest)
			f.backup = ""
		}
		return err
	}
	f.tmp = ""
	f.moved = true
	return nil
}

// Rollback undoes a successful Commit, putting back whatever was at the
// destination before.
func (f *StagedFile) Rollback() {
	if !f.moved {
		return
	}
	if f.backup != "" {
		_ = os.Rename(f.backup, f.dest)
		f.backup = ""
	} else {
		_ = os.Remove(f.dest)
	}
	f.moved = false
}

// Discard removes the staged file and any kept-aside destination.
func (f *StagedFile) Discard() {
	if f.tmp != "" {
		_ = os.Remove(f.tmp)
		f.tmp = ""
	}
	if f.backup != "" {
		_ = os.Remove(f.backup)
		f.backup = ""
	}
	f.moved = false
}
