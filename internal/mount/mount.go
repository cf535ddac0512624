// Package mount maintains a process-wide registry of fuse-zip mounts so an
// Atlas can be built directly from zip archives of DEM tiles without the
// caller having to pre-extract them. Mounts are keyed by archive path and
// are reference-counted so the same archive mounted from two atlases is
// only fuse-mounted once; UnmountAll tears every live mount down.
package mount

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
)

type registry struct {
	mu    sync.Mutex
	mnts  map[string]string // archive path -> mount dir
	refs  map[string]int
}

var global = &registry{
	mnts: make(map[string]string),
	refs: make(map[string]int),
}

// Mount fuse-mounts archivePath read-only via fuse-zip and returns the
// mount directory. Calling Mount again for the same archive path returns
// the existing mount and bumps its reference count instead of mounting
// twice.
func Mount(archivePath string) (string, error) {
	if dir, ok := IsMounted(archivePath); ok {
		global.mu.Lock()
		global.refs[archivePath]++
		global.mu.Unlock()
		return dir, nil
	}

	global.mu.Lock()
	defer global.mu.Unlock()

	// Re-check under the write lock: another goroutine may have mounted
	// archivePath between the IsMounted probe above and acquiring it here.
	if dir, ok := global.mnts[archivePath]; ok {
		global.refs[archivePath]++
		return dir, nil
	}

	dir := DirName(archivePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating mount point for %s: %w", archivePath, err)
	}

	cmd := exec.Command("fuse-zip", "-r", archivePath, dir)
	if out, err := cmd.CombinedOutput(); err != nil {
		os.Remove(dir)
		return "", fmt.Errorf("fuse-zip %s: %w: %s", archivePath, err, out)
	}

	global.mnts[archivePath] = dir
	global.refs[archivePath] = 1
	return dir, nil
}

// Unmount releases one reference to archivePath's mount, actually
// unmounting once the reference count drops to zero.
func Unmount(archivePath string) error {
	global.mu.Lock()
	defer global.mu.Unlock()
	return unmountLocked(archivePath)
}

func unmountLocked(archivePath string) error {
	dir, ok := global.mnts[archivePath]
	if !ok {
		return nil
	}
	global.refs[archivePath]--
	if global.refs[archivePath] > 0 {
		return nil
	}

	if err := exec.Command("fusermount", "-u", dir).Run(); err != nil {
		return fmt.Errorf("fusermount -u %s: %w", dir, err)
	}
	if err := os.Remove(dir); err != nil {
		log.Printf("mount: removing mount point %s: %v", dir, err)
	}
	delete(global.mnts, archivePath)
	delete(global.refs, archivePath)
	return nil
}

// UnmountAll tears down every live mount, regardless of reference count.
// Callers defer this at program startup so a panic mid-render still
// leaves the filesystem clean.
func UnmountAll() {
	global.mu.Lock()
	defer global.mu.Unlock()

	for archivePath := range global.mnts {
		global.refs[archivePath] = 1
		if err := unmountLocked(archivePath); err != nil {
			log.Printf("mount: unmounting %s: %v", archivePath, err)
		}
	}
}

// IsMounted reports whether archivePath currently has a live mount, and if
// so returns its mount directory.
func IsMounted(archivePath string) (string, bool) {
	global.mu.Lock()
	defer global.mu.Unlock()
	dir, ok := global.mnts[archivePath]
	return dir, ok
}

// DirName derives the mount directory spec.md §6 specifies for
// archivePath: a sibling of the archive named "<archive>.dir", e.g.
// mounting "<maps>/foo.zip" mounts at "<maps>/foo.zip.dir".
func DirName(archivePath string) string {
	return filepath.Join(filepath.Dir(archivePath), filepath.Base(archivePath)+".dir")
}
