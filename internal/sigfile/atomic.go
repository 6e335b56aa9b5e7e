package sigfile

import (
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

// writeFileAtomic writes data to path atomically (best effort): it creates
// a temp file in the same directory and renames it over the target. The
// temp file carries a uuid suffix so concurrent writers targeting the same
// signature never race on the temp name itself.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmpName := filepath.Join(dir, ".sigfile-"+uuid.NewString()+".tmp")

	f, err := os.OpenFile(tmpName, os.O_CREATE|os.O_WRONLY|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	ok := false
	defer func() {
		_ = f.Close()
		if !ok {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	ok = true
	return nil
}

// pairModTime sets path's mtime to match imageModTime (a Unix timestamp),
// using golang.org/x/sys/unix.UtimesNanoAt for nanosecond precision rather
// than the coarser os.Chtimes. Matching mtimes are what associates a
// signature with its image file; any later operation that touches the
// image's own mtime silently breaks the pairing.
func pairModTime(path string, imageModTime int64) error {
	ts := unix.NsecToTimespec(time.Unix(imageModTime, 0).UnixNano())
	times := [2]unix.Timespec{ts, ts} // atime, mtime
	return unix.UtimesNanoAt(unix.AT_FDCWD, path, times[:], 0)
}
